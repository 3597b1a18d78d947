package queue

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

var retryNow bool

var retryCmd = &cobra.Command{
	Use:   "retry <event-id>",
	Short: "Retry a failed or paused publish",
	Long: `Retry a failed or paused publish.

By default the event is requeued into the next free slot. With --now the
backend dispatches it immediately, bypassing all conflict checks; this
requires a reachable backend.

Examples:
  slotline queue retry 4f3a2b1c-... 
  slotline queue retry 4f3a2b1c-... --now`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RetryEventHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		eventID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid event ID: %w", err)
		}

		mode := publisher.RetryNextSlot
		if retryNow {
			mode = publisher.RetryNow
		}

		result, err := app.RetryEventHandler.Handle(cmd.Context(), commands.RetryEventCommand{
			EventID: eventID,
			Mode:    mode,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEventNotFound):
				return fmt.Errorf("no event with ID %s in the local mirror", eventID)
			case errors.Is(err, commands.ErrBackendRequired):
				return fmt.Errorf("--now requires a reachable backend")
			case errors.Is(err, domain.ErrNoSlotFound):
				return fmt.Errorf("no free slot within the search horizon")
			}
			return fmt.Errorf("failed to retry event: %w", err)
		}

		event := result.Event
		fmt.Printf("Requeued %s\n", truncateString(event.MediaRef(), 40))
		fmt.Printf("  Status: %s\n", event.Status())
		fmt.Printf("  Time:   %s\n", event.ScheduledTime().In(displayLocation()).Format("Mon Jan 2 15:04"))

		return nil
	},
}

func init() {
	retryCmd.Flags().BoolVar(&retryNow, "now", false, "publish immediately, bypassing conflict checks")
}
