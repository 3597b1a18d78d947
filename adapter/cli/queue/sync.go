package queue

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local mirror from the backend",
	Long: `Fetch the backend's authoritative publish queue and replace the
local mirror with it. Local-only edits are discarded; the backend owns
the queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Syncer == nil {
			fmt.Println("Syncing requires a reachable backend. Re-run without SLOTLINE_OFFLINE.")
			return nil
		}

		count, err := app.Syncer.SyncFromBackend(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to sync from backend: %w", err)
		}

		fmt.Printf("Mirror refreshed: %d event(s)\n", count)
		return nil
	},
}
