package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nullboard/gistsync/internal/reconciler"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a two-way reconciliation round against the configured Gist",
		RunE:  runSync,
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	a, err := buildApp(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.Reconciler.Sync(cmd.Context())

	if err := persistState(cmd.Context(), a); err != nil {
		return err
	}

	return printSyncResult(cc, result)
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "One-way pull: overwrite local data with the remote Gist's contents",
		RunE:  runPull,
	}
}

func runPull(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	a, err := buildApp(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.Reconciler.PullFromRemote(cmd.Context())

	if err := persistState(cmd.Context(), a); err != nil {
		return err
	}

	return printSyncResult(cc, result)
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "One-way push: overwrite the remote Gist with local data",
		RunE:  runPush,
	}
}

func runPush(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	a, err := buildApp(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.Reconciler.PushToRemote(cmd.Context())

	if err := persistState(cmd.Context(), a); err != nil {
		return err
	}

	return printSyncResult(cc, result)
}

func printSyncResult(cc *CLIContext, result reconciler.SyncResult) error {
	if cc.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(result)
	}

	switch result.Kind {
	case reconciler.OutcomeNeedsPassword:
		fmt.Println("A custom passphrase is required to decrypt this gist. Run `gistsync password set`.")
	case reconciler.OutcomeFailed:
		return fmt.Errorf("sync failed: %s", result.FailureMessage)
	default:
		if len(result.SafetyWarnings) > 0 {
			fmt.Println("Safety gate withheld some deletions:")
			for _, w := range result.SafetyWarnings {
				fmt.Printf("  - %s\n", w)
			}
		}

		cc.Statusf("uploaded boards=%d tasks=%d workflows=%d, downloaded boards=%d tasks=%d workflows=%d, deleted boards=%d\n",
			result.Uploaded.Boards, result.Uploaded.Tasks, result.Uploaded.Workflows,
			result.Downloaded.Boards, result.Downloaded.Tasks, result.Downloaded.Workflows,
			result.Deleted.Boards)
	}

	return nil
}
