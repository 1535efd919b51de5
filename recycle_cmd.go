package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRecycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recycle",
		Short: "Browse and manage tombstoned (soft-deleted) boards",
	}

	cmd.AddCommand(newRecycleListCmd())
	cmd.AddCommand(newRecycleRestoreCmd())
	cmd.AddCommand(newRecyclePurgeCmd())

	return cmd
}

func newRecycleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tombstoned board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Reconciler.GetDeletedItems(cmd.Context())
			if err != nil {
				return err
			}

			if cc.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Println("recycle bin is empty")
				return nil
			}

			for _, item := range items {
				fmt.Printf("%-20s %-30s deleted_at=%d by=%s\n", item.ID, item.Name, item.DeletedAt, item.DeletedBy)
			}

			return nil
		},
	}
}

func newRecycleRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <board-id>",
		Short: "Restore a tombstoned board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Reconciler.RestoreItem(cmd.Context(), "board", args[0])
		},
	}
}

func newRecyclePurgeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "purge [board-id]",
		Short: "Permanently delete one tombstoned board, or every one with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				n, err := a.Reconciler.EmptyRecycleBin(cmd.Context())
				if err != nil {
					return err
				}

				cc.Statusf("purged %d boards\n", n)

				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("purge requires a board ID, or --all")
			}

			return a.Reconciler.PermanentlyDelete(cmd.Context(), "board", args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "purge every tombstoned board")

	return cmd
}
