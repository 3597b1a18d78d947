package queue

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <event-id> <time>",
	Short: "Move a queued publish to a new time",
	Long: `Move a queued publish to a new time.

The new slot is checked against the rest of the queue first, then applied
on the backend when one is configured. A slot the backend refuses is
reported with the server's suggested alternative; it is never retried
automatically.

Examples:
  slotline queue reschedule 4f3a2b1c-... "2026-09-02 19:00"
  slotline queue reschedule 4f3a2b1c-... 2026-09-02T19:00:00Z`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RescheduleEventHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		eventID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid event ID: %w", err)
		}

		newTime, err := parseStart(args[1])
		if err != nil {
			return err
		}

		result, err := app.RescheduleEventHandler.Handle(cmd.Context(), commands.RescheduleEventCommand{
			EventID: eventID,
			NewTime: newTime,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEventNotFound):
				return fmt.Errorf("no event with ID %s in the local mirror", eventID)
			case errors.Is(err, domain.ErrInvalidTransition):
				return fmt.Errorf("only pending or paused events can be rescheduled")
			}
			return fmt.Errorf("failed to reschedule event: %w", err)
		}

		loc := displayLocation()
		if result.Rejected {
			fmt.Printf("Rejected: %s\n", result.Reason)
			if result.SuggestedTime != nil {
				fmt.Printf("  suggested: %s\n", result.SuggestedTime.In(loc).Format("Mon Jan 2 15:04"))
			}
			return nil
		}

		event := result.Event
		fmt.Printf("Moved %s\n", truncateString(filepath.Base(event.MediaRef()), 40))
		fmt.Printf("  Time: %s\n", event.ScheduledTime().In(loc).Format("Mon Jan 2 15:04"))

		return nil
	},
}
