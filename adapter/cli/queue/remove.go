package queue

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

var removeCmd = &cobra.Command{
	Use:   "remove <event-id>",
	Short: "Remove a publish from the queue",
	Long: `Remove a scheduled publish from the backend queue and the local
mirror. If the backend is unreachable the removal fails and the local
copy is kept, so the mirror never claims a slot is free that the backend
still holds.`,
	Aliases: []string{"rm", "delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RemoveEventHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		eventID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid event ID: %w", err)
		}

		err = app.RemoveEventHandler.Handle(cmd.Context(), commands.RemoveEventCommand{EventID: eventID})
		if err != nil {
			if errors.Is(err, domain.ErrEventNotFound) {
				return fmt.Errorf("no event with ID %s in the local mirror", eventID)
			}
			return fmt.Errorf("failed to remove event: %w", err)
		}

		fmt.Printf("Removed event %s\n", eventID)
		return nil
	},
}
