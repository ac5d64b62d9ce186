package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pellmont/warden/internal/identity"
)

func newClientIDCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "client-id",
		Short: "Print the persisted client identifier, creating it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dataDir
			if dir == "" {
				base, err := os.UserConfigDir()
				if err != nil {
					return fmt.Errorf("resolve config directory: %w", err)
				}
				dir = filepath.Join(base, "warden")
			}

			id, err := identity.ClientID(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the client identifier")
	return cmd
}
