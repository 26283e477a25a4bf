package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/rank"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show topics due for review today, most at-risk first",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := database.LoadSnapshot()
		if err != nil {
			return err
		}

		now := time.Now()
		due := rank.Due(rank.Rank(snap, now, loc))
		if len(due) == 0 {
			fmt.Println("Nothing due today.")
			return nil
		}

		fmt.Printf("%d topic(s) due:\n", len(due))
		for _, item := range due {
			line := fmt.Sprintf("- %s  risk %.2f  retention %.0f%%",
				item.Topic.Title, item.Risk.Score, item.Risk.RetrievabilityNow*100)
			if item.Overdue {
				days := int(now.Sub(item.Topic.NextReviewDate).Hours() / 24)
				if days < 1 {
					days = 1
				}
				line += fmt.Sprintf("  (%dd overdue)", days)
			}
			if item.Subject != nil {
				line += "  [" + item.Subject.Name + "]"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dueCmd)
}
