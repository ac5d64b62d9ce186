package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pellmont/warden/internal/config"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configFile)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "warden",
		Short:         "Supervisor for the desktop app's backend processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(opts.logLevel)
		},
	}

	root.PersistentFlags().
		StringVarP(&opts.configFile, "file", "f", "warden.yaml", "Path to the warden manifest")
	root.PersistentFlags().
		StringVar(&opts.logLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSyncCmd(opts))
	root.AddCommand(newClientIDCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func configureLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

// Execute runs the warden CLI.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
