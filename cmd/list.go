package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/rank"
)

var listByRisk bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := database.LoadSnapshot()
		if err != nil {
			return err
		}
		if len(snap.Topics) == 0 {
			fmt.Println("No topics yet. Add one with: revise add \"Topic title\"")
			return nil
		}

		ranked := rank.Rank(snap, time.Now(), loc)
		if !listByRisk {
			// Rank already attached subjects and flags; reorder by due date.
			ranked = byDueDate(ranked)
		}

		for _, item := range ranked {
			marker := " "
			if item.Overdue {
				marker = "!"
			} else if item.DueNow {
				marker = "*"
			}
			line := fmt.Sprintf("%s %-40s next %s  stability %.1fd  risk %.2f",
				marker, truncate(item.Topic.Title, 40), formatLocal(item.Topic.NextReviewDate),
				item.Topic.Stability, item.Risk.Score)
			if item.Subject != nil {
				line += "  [" + item.Subject.Name + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listByRisk, "risk", "r", false, "Order by risk instead of due date")
}

func byDueDate(ranked []rank.RankedTopic) []rank.RankedTopic {
	out := append([]rank.RankedTopic(nil), ranked...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Topic.NextReviewDate.Before(out[j].Topic.NextReviewDate)
	})
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
