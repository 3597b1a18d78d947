package queue

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/queries"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

var (
	calProfile  string
	calTimezone string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the queue grouped by day",
	Long: `Show the publish queue grouped by calendar day in the viewing
timezone. Day boundaries follow the local date, so the same queue can
group differently one timezone east.

Examples:
  slotline queue calendar
  slotline queue calendar --profile creator_a --tz Asia/Seoul`,
	Aliases: []string{"cal"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CalendarViewHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		loc := displayLocation()
		if calTimezone != "" {
			parsed, err := time.LoadLocation(calTimezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", calTimezone, err)
			}
			loc = parsed
		}

		view, err := app.CalendarViewHandler.Handle(cmd.Context(), queries.CalendarViewQuery{
			ProfileID: sharedDomain.NewProfileID(calProfile),
			Location:  loc,
		})
		if err != nil {
			return fmt.Errorf("failed to build calendar view: %w", err)
		}

		if len(view.Days) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		fmt.Printf("\n  Publish calendar (%s)\n", view.Timezone)
		fmt.Println(strings.Repeat("=", 60))

		for _, day := range view.Days {
			fmt.Printf("\n  %s  (%d slot(s))\n", day.Date, view.Occupancy[day.Date])
			fmt.Println(strings.Repeat("-", 40))
			for _, e := range day.Events {
				fmt.Printf("    %s  %-12s %s\n",
					e.ScheduledTime.In(loc).Format("15:04"),
					statusLabel(e.Status),
					truncateString(filepath.Base(e.VideoPath), 30),
				)
			}
		}
		fmt.Println()

		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVarP(&calProfile, "profile", "p", "", "limit to one profile")
	calendarCmd.Flags().StringVar(&calTimezone, "tz", "", "viewing timezone (IANA name, default: configured zone)")
}
