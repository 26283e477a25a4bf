package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

var historyEntries []string

var historyCmd = &cobra.Command{
	Use:   "history [topic]",
	Short: "Show a topic's event history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}

		if len(topic.Events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}
		for _, e := range topic.Events {
			line := fmt.Sprintf("%s  %-8s", formatLocal(e.At), e.Type)
			if e.Quality != nil {
				line += "  " + e.Quality.Label()
			}
			if e.ResultingStability != nil {
				line += fmt.Sprintf("  stability %.2fd", *e.ResultingStability)
			}
			if e.NextReviewAt != nil {
				line += "  next " + formatLocal(*e.NextReviewAt)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var historySetCmd = &cobra.Command{
	Use:   "set [topic]",
	Short: "Replace a topic's review history and replay the schedule",
	Long: `Replace the topic's reviewed history with the given entries and rebuild
the schedule from scratch. Each --entry is DATE=QUALITY, e.g.
--entry 2026-08-01=easy --entry 2026-08-05=hard. Entries on the same day
merge, keeping the day's best quality. Started and skipped events survive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := findTopic(strings.Join(args, " "))
		if err != nil {
			return err
		}
		subject, err := subjectOf(topic)
		if err != nil {
			return err
		}

		edits := make([]review.HistoryEdit, 0, len(historyEntries))
		for _, raw := range historyEntries {
			edit, err := parseHistoryEntry(raw)
			if err != nil {
				return err
			}
			edits = append(edits, edit)
		}

		res, err := review.MergeHistoryEdits(*topic, subject, prefs(), edits, loc)
		if err != nil {
			return err
		}
		if err := database.NewTopicRepository().ReplaceHistory(res.Topic); err != nil {
			return err
		}

		if len(res.MergedDays) > 0 {
			fmt.Printf("Merged duplicate entries on: %s\n", strings.Join(res.MergedDays, ", "))
		}
		fmt.Printf("History of %q rewritten (%d reviews). Next review %s.\n",
			res.Topic.Title, res.Topic.ReviewsCount, formatLocal(res.Topic.NextReviewDate))
		return nil
	},
}

func parseHistoryEntry(raw string) (review.HistoryEdit, error) {
	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return review.HistoryEdit{}, fmt.Errorf("invalid entry %q, want DATE=QUALITY", raw)
	}
	at, err := dates.ParseInstant(strings.TrimSpace(parts[0]))
	if err != nil {
		return review.HistoryEdit{}, fmt.Errorf("invalid entry date %q: %w", parts[0], err)
	}
	quality, ok := models.ParseQuality(strings.TrimSpace(parts[1]))
	if !ok {
		return review.HistoryEdit{}, fmt.Errorf("invalid entry quality %q", parts[1])
	}
	return review.HistoryEdit{At: at, Quality: quality}, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historySetCmd)

	historySetCmd.Flags().StringArrayVarP(&historyEntries, "entry", "e", nil, "History entry as DATE=QUALITY (repeatable)")
}
