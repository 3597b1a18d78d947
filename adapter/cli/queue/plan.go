package queue

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/c0rreagui/slotline/internal/shared/infrastructure/security"
)

var (
	planVideos   []string
	planProfiles []string
	planStart    string
	planEvery    time.Duration
	planOracle   []string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Lay out a batch of videos across the queue",
	Long: `Generate a publish timeline for a batch of videos and validate
every slot against the local mirror. Nothing is sent to the backend;
use "queue submit" to commit a plan.

Slots are spaced by --every from --start, per profile. With --oracle the
single video is placed at the next occurrence of a ranked best-time hint
instead.

Examples:
  slotline queue plan --video a.mp4 --video b.mp4 --profile creator_a --start "2026-09-01 08:00" --every 90m
  slotline queue plan --video teaser.mp4 --profile creator_a --oracle "tue 18:30" --oracle "sat 11:00"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PlanBatchHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}

		planCmdData, err := buildPlanCommand()
		if err != nil {
			return err
		}

		result, err := app.PlanBatchHandler.Handle(cmd.Context(), planCmdData)
		if err != nil {
			return fmt.Errorf("failed to plan batch: %w", err)
		}

		printPlan(result)
		return nil
	},
}

// buildPlanCommand parses the shared planning flags into a PlanBatchCommand.
func buildPlanCommand() (commands.PlanBatchCommand, error) {
	var zero commands.PlanBatchCommand

	if len(planProfiles) == 0 {
		return zero, fmt.Errorf("at least one --profile is required")
	}

	items := make([]string, 0, len(planVideos))
	for _, video := range planVideos {
		path, err := security.ValidateFilePath(video)
		if err != nil {
			return zero, fmt.Errorf("invalid video path: %w", err)
		}
		items = append(items, path)
	}

	profiles := make([]sharedDomain.ProfileID, 0, len(planProfiles))
	for _, p := range planProfiles {
		profiles = append(profiles, sharedDomain.NewProfileID(p))
	}

	var cadence domain.CadenceStrategy
	if len(planOracle) > 0 {
		hints := make([]domain.OracleHint, 0, len(planOracle))
		for _, spec := range planOracle {
			hint, err := parseOracleHint(spec)
			if err != nil {
				return zero, err
			}
			hints = append(hints, hint)
		}
		cadence = domain.OracleCadence(hints...)
	} else {
		cadence = domain.IntervalCadence(planEvery)
	}

	start, err := parseStart(planStart)
	if err != nil {
		return zero, err
	}

	return commands.PlanBatchCommand{
		Items:    items,
		Profiles: profiles,
		Start:    start,
		Cadence:  cadence,
	}, nil
}

// parseStart accepts "YYYY-MM-DD HH:MM" in the display timezone or RFC3339.
// Empty means now.
func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, displayLocation()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid start time %q, use \"YYYY-MM-DD HH:MM\" or RFC3339", s)
}

// parseOracleHint parses a "weekday HH:MM" best-time hint.
func parseOracleHint(spec string) (domain.OracleHint, error) {
	parts := strings.Fields(spec)
	if len(parts) != 2 {
		return domain.OracleHint{}, fmt.Errorf("invalid oracle hint %q, use \"weekday HH:MM\"", spec)
	}
	weekday, err := domain.ParseWeekday(parts[0])
	if err != nil {
		return domain.OracleHint{}, fmt.Errorf("invalid oracle hint %q: %w", spec, err)
	}
	at, err := time.Parse("15:04", parts[1])
	if err != nil {
		return domain.OracleHint{}, fmt.Errorf("invalid oracle hint %q, time must be HH:MM", spec)
	}
	return domain.OracleHint{
		Weekday: weekday,
		Hour:    at.Hour(),
		Minute:  at.Minute(),
	}, nil
}

func printPlan(result *commands.PlanBatchResult) {
	loc := displayLocation()

	fmt.Printf("\n  Planned %d slot(s)\n", len(result.Slots))
	fmt.Println(strings.Repeat("=", 72))

	for _, slot := range result.Slots {
		mark := "ok      "
		switch {
		case slot.Check.PastSchedule:
			mark = "past    "
		case slot.Check.Conflict:
			mark = "conflict"
		case len(slot.Check.Warnings) > 0:
			mark = "warn    "
		}

		fmt.Printf("  [%s] %s  %-22s %s\n",
			mark,
			slot.Candidate.ScheduledTime.In(loc).Format("Mon Jan 2 15:04"),
			truncateString(slot.Candidate.ProfileID.String(), 22),
			truncateString(filepath.Base(slot.Candidate.MediaRef), 28),
		)

		if slot.Check.Conflict && slot.Check.ConflictingEvent != nil {
			fmt.Printf("      collides with %s at %s\n",
				filepath.Base(slot.Check.ConflictingEvent.MediaRef()),
				slot.Check.ConflictingEvent.ScheduledTime().In(loc).Format("Mon Jan 2 15:04"),
			)
		}
		if slot.Check.SuggestedTime != nil {
			fmt.Printf("      suggested: %s\n", slot.Check.SuggestedTime.In(loc).Format("Mon Jan 2 15:04"))
		}
		for _, w := range slot.Check.Warnings {
			fmt.Printf("      warning: %s\n", w.Message)
		}
	}

	fmt.Println(strings.Repeat("-", 72))
	if result.Clean() {
		fmt.Println("  All slots are clear. Submit with: slotline queue submit")
	} else {
		fmt.Printf("  %d conflict(s), %d warning(s)\n", result.ConflictCount, result.WarningCount)
	}
	fmt.Println()
}

func init() {
	addPlanFlags(planCmd)
}

// addPlanFlags registers the planning flags shared by plan and submit.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&planVideos, "video", nil, "video file to schedule (repeatable, required)")
	cmd.Flags().StringArrayVarP(&planProfiles, "profile", "p", nil, "target profile (repeatable, required)")
	cmd.Flags().StringVar(&planStart, "start", "", "first slot time (YYYY-MM-DD HH:MM, default: now)")
	cmd.Flags().DurationVar(&planEvery, "every", 24*time.Hour, "spacing between successive slots")
	cmd.Flags().StringArrayVar(&planOracle, "oracle", nil, "best-time hint \"weekday HH:MM\" (repeatable, single video only)")

	cmd.MarkFlagRequired("video")
}
