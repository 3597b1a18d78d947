package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/adapter/cli/queue"
	"github.com/c0rreagui/slotline/internal/app"
	"github.com/c0rreagui/slotline/pkg/config"
	"github.com/c0rreagui/slotline/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := container.WarmStartFromCache(ctx); err != nil {
		logger.Warn("snapshot cache warm start failed", "error", err)
	}

	cliApp := &cli.App{
		PlanBatchHandler:       container.PlanBatchHandler,
		SubmitScheduleHandler:  container.SubmitScheduleHandler,
		RetryEventHandler:      container.RetryEventHandler,
		RescheduleEventHandler: container.RescheduleEventHandler,
		RemoveEventHandler:     container.RemoveEventHandler,
		ListQueueHandler:       container.ListQueueHandler,
		CalendarViewHandler:    container.CalendarViewHandler,
		ExportCalendarHandler:  container.ExportCalendarHandler,
	}

	if loc, err := cfg.Location(); err == nil {
		cliApp.SetLocation(loc)
	} else {
		logger.Warn("invalid SLOTLINE_TIMEZONE, using system zone", "error", err)
	}
	if container.Backend != nil {
		cliApp.SetSyncer(container)
	}

	cli.SetApp(cliApp)
	cli.AddCommand(queue.Cmd)
	cli.Execute()
}
