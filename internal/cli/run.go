package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pellmont/warden/internal/supervise"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bring up the backend fleet and supervise it until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			sup, err := supervise.New(cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("construct supervisor: %w", err)
			}

			// StopAll is idempotent, so the deferred call is safe even
			// when the signal path below has already run it. This mirrors
			// the host application's redundant lifecycle hooks.
			defer sup.StopAll()

			if err := sup.StartAll(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Supervising %d processes. Press Ctrl+C to stop.\n",
				sup.Registry().Len())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				slog.Info("shutdown requested", "signal", sig.String())
			case <-cmd.Context().Done():
			}

			sup.StopAll()
			fmt.Fprintln(cmd.OutOrStdout(), "All backend processes stopped.")
			return nil
		},
	}
	return cmd
}
