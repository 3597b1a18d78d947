package queue

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/queries"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

var (
	exportProfile string
	exportHistory bool
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the queue as an iCalendar file",
	Long: `Export the publish queue as an iCalendar (.ics) document for
import into an external calendar.

By default only pending and paused publishes are exported; --history
includes posted, completed, and failed events too.

Examples:
  slotline queue export > queue.ics
  slotline queue export --profile creator_a -o creator_a.ics
  slotline queue export --history -o full.ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ExportCalendarHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		ics, err := app.ExportCalendarHandler.Handle(cmd.Context(), queries.ExportCalendarQuery{
			ProfileID:      sharedDomain.NewProfileID(exportProfile),
			IncludeHistory: exportHistory,
		})
		if err != nil {
			return fmt.Errorf("failed to export calendar: %w", err)
		}

		if exportOutput == "" || exportOutput == "-" {
			fmt.Print(ics)
			return nil
		}

		if err := os.WriteFile(exportOutput, []byte(ics), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Printf("Wrote %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportProfile, "profile", "p", "", "limit to one profile")
	exportCmd.Flags().BoolVar(&exportHistory, "history", false, "include posted, completed, and failed events")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
}
