package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pellmont/warden/internal/supervise"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run only the dependency-synchronization gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			sup, err := supervise.New(cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("construct supervisor: %w", err)
			}

			if err := sup.Sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Dependencies installed/verified.")
			return nil
		},
	}
	return cmd
}
