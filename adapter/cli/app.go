package cli

import (
	"context"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/application/queries"
)

// Syncer refreshes the local mirror from the backend queue.
type Syncer interface {
	SyncFromBackend(ctx context.Context) (int, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	PlanBatchHandler       *commands.PlanBatchHandler
	SubmitScheduleHandler  *commands.SubmitScheduleHandler
	RetryEventHandler      *commands.RetryEventHandler
	RescheduleEventHandler *commands.RescheduleEventHandler
	RemoveEventHandler     *commands.RemoveEventHandler

	// Query Handlers
	ListQueueHandler      *queries.ListQueueHandler
	CalendarViewHandler   *queries.CalendarViewHandler
	ExportCalendarHandler *queries.ExportCalendarHandler

	// Mirror refresh
	Syncer Syncer

	// Display timezone for calendar output
	Location *time.Location
}

// SetLocation updates the display timezone.
func (a *App) SetLocation(loc *time.Location) {
	a.Location = loc
}

// SetSyncer updates the mirror syncer.
func (a *App) SetSyncer(s Syncer) {
	a.Syncer = s
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
