package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/queries"
	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

var (
	listProfile string
	listHistory bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the publish queue",
	Long: `List scheduled publishes from the local mirror.

By default only upcoming slots are shown, soonest first. With --history
the posted, completed, and failed events are shown instead, most recent
first.

Examples:
  slotline queue list
  slotline queue list --profile creator_a
  slotline queue list --history`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListQueueHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		mode := services.DisplayUpcoming
		if listHistory {
			mode = services.DisplayHistory
		}

		events, err := app.ListQueueHandler.Handle(cmd.Context(), queries.ListQueueQuery{
			ProfileID: sharedDomain.NewProfileID(listProfile),
			Mode:      mode,
		})
		if err != nil {
			return fmt.Errorf("failed to list queue: %w", err)
		}

		if len(events) == 0 {
			if listHistory {
				fmt.Println("No past publishes.")
			} else {
				fmt.Println("Queue is empty.")
			}
			return nil
		}

		loc := displayLocation()
		title := "Upcoming publishes"
		if listHistory {
			title = "Publish history"
		}
		fmt.Printf("\n  %s (%d)\n", title, len(events))
		fmt.Println(strings.Repeat("=", 72))

		for _, e := range events {
			line := fmt.Sprintf("  %s  %-22s %-12s %s",
				e.ScheduledTime.In(loc).Format("Mon Jan 2 15:04"),
				truncateString(e.ProfileID, 22),
				statusLabel(e.Status),
				truncateString(filepath.Base(e.VideoPath), 28),
			)
			fmt.Println(line)
			if e.ErrorMessage != "" {
				fmt.Printf("      error: %s\n", e.ErrorMessage)
			}
		}
		fmt.Println()

		return nil
	},
}

func statusLabel(status string) string {
	if status == "paused_login_required" {
		return "paused"
	}
	return status
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	listCmd.Flags().StringVarP(&listProfile, "profile", "p", "", "limit to one profile")
	listCmd.Flags().BoolVar(&listHistory, "history", false, "show past publishes instead of upcoming")
}
