package main

import (
	"github.com/spf13/cobra"

	"github.com/nullboard/gistsync/internal/config"
	"github.com/nullboard/gistsync/internal/passstore"
)

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the custom passphrase used in place of the gist ID as the encryption secret",
	}

	cmd.AddCommand(newPasswordSetCmd())
	cmd.AddCommand(newPasswordClearCmd())

	return cmd
}

func newPasswordSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <passphrase>",
		Short: "Set a custom passphrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			store := passstore.New(passwordStorePath())

			if err := store.Save(args[0]); err != nil {
				return err
			}

			cfg := *cc.Holder.Config()
			cfg.Crypto.UseCustomPassword = true

			if err := config.Save(&cfg, cc.Holder.Path()); err != nil {
				return err
			}

			cc.Holder.Update(&cfg)
			cc.Statusf("custom passphrase set\n")

			return nil
		},
	}
}

func newPasswordClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the custom passphrase, reverting to the gist ID as the encryption secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store := passstore.New(passwordStorePath())

			if err := store.Clear(); err != nil {
				return err
			}

			cfg := *cc.Holder.Config()
			cfg.Crypto.UseCustomPassword = false

			if err := config.Save(&cfg, cc.Holder.Path()); err != nil {
				return err
			}

			cc.Holder.Update(&cfg)
			cc.Statusf("custom passphrase cleared\n")

			return nil
		},
	}
}
