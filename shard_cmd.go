package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shard",
		Short: "Inspect and repair the sharded media store's master index",
	}

	cmd.AddCommand(newShardValidateCmd())
	cmd.AddCommand(newShardRepairCmd())
	cmd.AddCommand(newShardMergeCmd())
	cmd.AddCommand(newShardArchiveCmd())
	cmd.AddCommand(newShardRenameCmd())

	return cmd
}

func newShardValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compare each shard's actual file list against the master index and report drift",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Reconciler.MediaSyncer().ValidateShards(cmd.Context())
			if err != nil {
				return err
			}

			if cc.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(report)
			}

			fmt.Printf("missing_gist=%v missing_file=%v orphan_file=%v count_mismatch=%t\n",
				report.MissingGist, report.MissingFile, report.OrphanFile, report.CountMismatch)

			return nil
		},
	}
}

func newShardRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <shard-id> <filename...>",
		Short: "Register orphan files found by `shard validate` back into the master index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.MediaSyncer().RepairOrphanFiles(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}

			return persistState(cmd.Context(), a)
		},
	}
}

func newShardMergeCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "merge <source-shard-id...> --target <target-shard-id>",
		Short: "Move every file from the source shards into the target shard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			if target == "" {
				return fmt.Errorf("--target is required")
			}

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.MediaSyncer().MergeShards(cmd.Context(), args, target); err != nil {
				return err
			}

			return persistState(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "shard ID to merge into")

	return cmd
}

func newShardArchiveCmd() *cobra.Command {
	var unarchive bool

	cmd := &cobra.Command{
		Use:   "archive <shard-id>",
		Short: "Exclude a shard from new allocations, or reactivate it with --unarchive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			syncer := a.Reconciler.MediaSyncer()

			var opErr error
			if unarchive {
				opErr = syncer.Unarchive(args[0])
			} else {
				opErr = syncer.Archive(args[0])
			}

			if opErr != nil {
				return opErr
			}

			return persistState(cmd.Context(), a)
		},
	}

	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "reactivate the shard instead of archiving it")

	return cmd
}

func newShardRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <shard-id> <description>",
		Short: "Set a shard's human-readable description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			a, err := buildApp(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.MediaSyncer().Rename(args[0], args[1]); err != nil {
				return err
			}

			return persistState(cmd.Context(), a)
		},
	}
}
