package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

var (
	reviewQuality  string
	reviewAt       string
	reviewAdjust   bool
	reviewNoAdjust bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [topic]",
	Short: "Record a completed review",
	Long: `Record a completed review with its recall quality (easy, hard or forgot).
Reviewing before the scheduled date only reshapes the future plan when the
topic's auto-adjust preference allows it, or when --adjust/--no-adjust says so.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, ok := models.ParseQuality(reviewQuality)
		if !ok {
			return fmt.Errorf("unknown quality %q (use easy, hard or forgot)", reviewQuality)
		}

		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}
		subject, err := subjectOf(topic)
		if err != nil {
			return err
		}

		at := time.Now()
		if reviewAt != "" {
			at, err = dates.ParseInstant(reviewAt)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
		}

		in := review.ReviewInput{At: at, Quality: quality, Location: loc}
		if reviewAdjust {
			t := true
			in.AdjustFuture = &t
		} else if reviewNoAdjust {
			f := false
			in.AdjustFuture = &f
		}

		res, err := review.RecordReview(*topic, subject, prefs(), in)
		if err != nil {
			return err
		}
		if err := database.NewTopicRepository().SaveTransition(res.Topic, res.Event); err != nil {
			return err
		}

		fmt.Printf("Reviewed %q (%s). Next review %s.\n",
			res.Topic.Title, quality.Label(), formatLocal(res.Topic.NextReviewDate))
		if res.Early && !res.Adjusted {
			fmt.Println("Early review recorded; the schedule was left in place. Use --adjust to move it.")
		}
		return nil
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip [topic]",
	Short: "Skip the pending review and push it one interval out",
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

		res, err := review.RecordSkip(*topic, subject, prefs(), review.SkipInput{At: time.Now(), Location: loc})
		if err != nil {
			return err
		}
		if err := database.NewTopicRepository().SaveTransition(res.Topic, res.Event); err != nil {
			return err
		}

		fmt.Printf("Skipped %q. Next review %s.\n", res.Topic.Title, formatLocal(res.Topic.NextReviewDate))
		return nil
	},
}

var reviseNowCmd = &cobra.Command{
	Use:   "revise-now [topic]",
	Short: "Log an off-schedule quick revision (once per topic per day)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, ok := models.ParseQuality(reviewQuality)
		if !ok {
			return fmt.Errorf("unknown quality %q (use easy, hard or forgot)", reviewQuality)
		}

		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}
		subject, err := subjectOf(topic)
		if err != nil {
			return err
		}

		res, err := review.RecordReview(*topic, subject, prefs(), review.ReviewInput{
			At:            time.Now(),
			Quality:       quality,
			QuickRevision: true,
			Location:      loc,
		})
		if errors.Is(err, review.ErrRevisionUsedToday) {
			fmt.Printf("%q was already revised today. Try again after midnight.\n", topic.Title)
			return nil
		}
		if err != nil {
			return err
		}
		if err := database.NewTopicRepository().SaveTransition(res.Topic, res.Event); err != nil {
			return err
		}

		fmt.Printf("Quick revision of %q logged. Next review %s.\n",
			res.Topic.Title, formatLocal(res.Topic.NextReviewDate))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(reviseNowCmd)

	reviewCmd.Flags().StringVarP(&reviewQuality, "quality", "q", "easy", "Recall quality: easy, hard or forgot")
	reviewCmd.Flags().StringVar(&reviewAt, "at", "", "Backdate the review, e.g. 2026-08-20 or RFC3339")
	reviewCmd.Flags().BoolVar(&reviewAdjust, "adjust", false, "Reshape the future plan after an early review")
	reviewCmd.Flags().BoolVar(&reviewNoAdjust, "no-adjust", false, "Keep the plan in place after an early review")
	reviewCmd.MarkFlagsMutuallyExclusive("adjust", "no-adjust")

	reviseNowCmd.Flags().StringVarP(&reviewQuality, "quality", "q", "easy", "Recall quality: easy, hard or forgot")
}
