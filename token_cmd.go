package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub API token used to reach the gist",
	}

	cmd.AddCommand(newTokenSetCmd())
	cmd.AddCommand(newTokenValidateCmd())

	return cmd
}

func newTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <token>",
		Short: "Save a GitHub API token, AES-wrapped with a device-local key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Tokens.Save(args[0]); err != nil {
				return err
			}

			cc.Statusf("token saved\n")

			return nil
		},
	}
}

func newTokenValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the saved token against the GitHub API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			login, err := a.Gateway.ValidateToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("token invalid: %w", err)
			}

			fmt.Printf("token valid for %s\n", login)

			return nil
		},
	}
}
