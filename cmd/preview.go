package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/adaptive"
	"github.com/example/revise/internal/curve"
)

var previewCount int

var previewCmd = &cobra.Command{
	Use:   "preview [topic]",
	Short: "Project the upcoming adaptive review schedule",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}
		subject, err := subjectOf(topic)
		if err != nil {
			return err
		}

		opts := adaptive.Options{
			Anchor:        topic.Anchor(),
			StabilityDays: topic.Stability,
			ReviewsCount:  topic.ReviewsCount,
			ReviewTrigger: topic.RetrievabilityTarget,
			MaxReviews:    previewCount,
			Alpha:         cfg.Schedule.GrowthAlpha,
			Beta:          cfg.Schedule.LapseBeta,
		}
		if subject != nil {
			opts.ExamDate = subject.ExamDate
		}

		schedule := adaptive.Project(opts)
		if len(schedule) == 0 {
			if subject != nil && subject.ExamDate != nil && !subject.ExamDate.Before(time.Now()) {
				fmt.Println("No further reviews fit before the exam.")
			} else {
				fmt.Println("No reviews to project.")
			}
			return nil
		}

		fmt.Printf("Projected schedule for %q (trigger %.0f%%):\n",
			topic.Title, curve.ClampTrigger(topic.RetrievabilityTarget)*100)
		for _, cp := range schedule {
			fmt.Printf("%3d. %s  interval %5.1fd  stability %6.1fd\n",
				cp.Index, formatLocal(cp.Date), cp.IntervalDays, cp.StabilityDays)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVarP(&previewCount, "count", "c", 10, "Number of reviews to project")
}
