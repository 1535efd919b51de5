package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gist",
		Short: "Manage the sync gist: create, switch, list, delete, disconnect, reset",
	}

	cmd.AddCommand(newGistCreateCmd())
	cmd.AddCommand(newGistSwitchCmd())
	cmd.AddCommand(newGistListCmd())
	cmd.AddCommand(newGistDeleteCmd())
	cmd.AddCommand(newGistDisconnectCmd())
	cmd.AddCommand(newGistResetCmd())

	return cmd
}

func newGistCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new, empty sync gist and switch to it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Reconciler.CreateNewGist(cmd.Context())
			if err != nil {
				return err
			}

			if err := persistState(cmd.Context(), a); err != nil {
				return err
			}

			fmt.Println(id)

			return nil
		},
	}
}

func newGistSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <gist-id>",
		Short: "Point the reconciler at an already-existing gist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Reconciler.SwitchToGist(args[0])

			return persistState(cmd.Context(), a)
		},
	}
}

func newGistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List gists reachable by the configured token that look like sync gists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Gateway.FindSyncGist(cmd.Context())
			if err != nil {
				return err
			}

			if id == "" {
				fmt.Println("no sync gist found")
				return nil
			}

			fmt.Println(id)

			return nil
		},
	}
}

func newGistDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <gist-id>",
		Short: "Permanently delete a gist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.DeleteGist(cmd.Context(), args[0]); err != nil {
				return err
			}

			return persistState(cmd.Context(), a)
		},
	}
}

func newGistDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Clear the configured gist without deleting it or touching local data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Reconciler.Disconnect()

			return persistState(cmd.Context(), a)
		},
	}
}

func newGistResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe all local documents and disconnect from any configured gist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.Reset(cmd.Context()); err != nil {
				return err
			}

			return persistState(cmd.Context(), a)
		},
	}
}
