package queue

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
)

// Cmd is the queue command group
var Cmd = &cobra.Command{
	Use:     "queue",
	Short:   "Manage the publish queue",
	Long:    `Plan, submit, and inspect scheduled video publishes.`,
	Aliases: []string{"q"},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(planCmd)
	Cmd.AddCommand(submitCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(calendarCmd)
	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(syncCmd)
}

// displayLocation resolves the timezone used for all human-readable output.
func displayLocation() *time.Location {
	if app := cli.GetApp(); app != nil && app.Location != nil {
		return app.Location
	}
	return time.Local
}
