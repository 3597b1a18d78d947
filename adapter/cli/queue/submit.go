package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c0rreagui/slotline/adapter/cli"
	"github.com/c0rreagui/slotline/internal/scheduling/application/commands"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

var (
	submitViralMusic  bool
	submitMusicVolume float64
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Plan a batch and commit it to the backend",
	Long: `Generate a publish timeline and submit it to the backend.

Every slot is re-validated against the backend's live queue before it is
sent. Slots the backend rejects are reported with the server's suggested
alternative; they are never retried automatically.

Examples:
  slotline queue submit --video a.mp4 --profile creator_a --start "2026-09-01 08:00" --every 90m
  slotline queue submit --video b.mp4 --profile creator_a --oracle "fri 19:00" --viral-music --music-volume 0.6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PlanBatchHandler == nil {
			fmt.Println("Queue commands require an initialized local store.")
			return nil
		}
		if app.SubmitScheduleHandler == nil {
			fmt.Println("Submitting requires a reachable backend. Re-run without SLOTLINE_OFFLINE.")
			return nil
		}

		planCmdData, err := buildPlanCommand()
		if err != nil {
			return err
		}

		plan, err := app.PlanBatchHandler.Handle(cmd.Context(), planCmdData)
		if err != nil {
			return fmt.Errorf("failed to plan batch: %w", err)
		}

		slots := make([]domain.CandidateSlot, 0, len(plan.Slots))
		for _, s := range plan.Slots {
			slots = append(slots, s.Candidate)
		}

		result, err := app.SubmitScheduleHandler.Handle(cmd.Context(), commands.SubmitScheduleCommand{
			Slots:       slots,
			ViralMusic:  submitViralMusic,
			MusicVolume: submitMusicVolume,
		})
		if err != nil {
			return fmt.Errorf("failed to submit schedule: %w", err)
		}

		printSubmission(result)
		return nil
	},
}

func printSubmission(result *commands.SubmitScheduleResult) {
	loc := displayLocation()

	fmt.Printf("\n  Submitted %d of %d slot(s)\n", result.SubmittedCount, len(result.Outcomes))
	fmt.Println(strings.Repeat("=", 72))

	for _, o := range result.Outcomes {
		mark := "sent    "
		if o.Rejected {
			mark = "rejected"
		}
		fmt.Printf("  [%s] %s  %-22s %s\n",
			mark,
			o.Candidate.ScheduledTime.In(loc).Format("Mon Jan 2 15:04"),
			truncateString(o.Candidate.ProfileID.String(), 22),
			truncateString(filepath.Base(o.Candidate.MediaRef), 28),
		)
		if o.Rejected && o.Reason != "" {
			fmt.Printf("      reason: %s\n", o.Reason)
		}
		if o.SuggestedTime != nil {
			fmt.Printf("      suggested: %s\n", o.SuggestedTime.In(loc).Format("Mon Jan 2 15:04"))
		}
	}
	fmt.Println()
}

func init() {
	addPlanFlags(submitCmd)
	submitCmd.Flags().BoolVar(&submitViralMusic, "viral-music", false, "enable viral music overlay")
	submitCmd.Flags().Float64Var(&submitMusicVolume, "music-volume", 0.5, "music overlay volume (0.0-1.0)")
}
