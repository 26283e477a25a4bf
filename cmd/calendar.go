package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/calendar"
	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
)

var calendarSubjects []string

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM]",
	Short: "Show the month grid of scheduled reviews",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		monthDate := now
		if len(args) == 1 {
			parsed, err := time.ParseInLocation("2006-01", args[0], loc)
			if err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", args[0])
			}
			// Midday avoids day-boundary drift between zones.
			monthDate = parsed.Add(12 * time.Hour)
		}

		snap, err := database.LoadSnapshot()
		if err != nil {
			return err
		}

		var selected map[string]bool
		if len(calendarSubjects) > 0 {
			selected = make(map[string]bool)
			for _, name := range calendarSubjects {
				found := false
				for _, s := range snap.Subjects {
					if strings.EqualFold(s.Name, name) {
						selected[s.ID] = true
						found = true
					}
				}
				if !found {
					return fmt.Errorf("no subject named %q", name)
				}
			}
		}

		month := calendar.BuildMonth(calendar.Params{
			Topics:             snap.Topics,
			Subjects:           snap.Subjects,
			Location:           loc,
			MonthDate:          monthDate,
			SelectedSubjectIDs: selected,
			TodayKey:           dates.DayKey(now, loc),
			WeekStartsOn:       cfg.WeekStartsOn,
		})

		printMonth(month, monthDate)
		return nil
	},
}

func printMonth(month calendar.Month, monthDate time.Time) {
	fmt.Println(monthDate.In(loc).Format("January 2006"))

	if len(month.Weeks) > 0 {
		for _, day := range month.Weeks[0] {
			fmt.Printf("%4s", day.Date.In(loc).Format("Mon")[:2])
		}
		fmt.Println()
	}

	for _, week := range month.Weeks {
		for _, day := range week {
			cell := fmt.Sprintf("%d", day.DayNumber)
			if !day.IsCurrentMonth {
				cell = "."
			}
			switch {
			case day.HasExam:
				cell += "E"
			case day.IsToday && day.HasOverdueBacklog:
				cell += "!"
			case day.TotalTopics > 0:
				cell += "*"
			}
			fmt.Printf("%4s", cell)
		}
		fmt.Println()
	}

	fmt.Printf("\n%d review(s) this month", month.TotalVisibleTopics)
	if month.OverdueCount > 0 {
		fmt.Printf(", %d overdue", month.OverdueCount)
	}
	fmt.Println()

	for _, day := range month.Days {
		if day.TotalTopics == 0 && !day.HasExam {
			continue
		}
		var parts []string
		for _, entry := range day.Subjects {
			parts = append(parts, fmt.Sprintf("%s x%d", entry.Subject.Name, entry.Count))
		}
		if n := len(day.OverflowSubjects); n > 0 {
			parts = append(parts, fmt.Sprintf("+%d more", n))
		}
		for _, exam := range day.ExamSubjects {
			parts = append(parts, "EXAM: "+exam.Name)
		}
		fmt.Printf("  %s  %s\n", day.DayKey, strings.Join(parts, ", "))
	}
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringArrayVarP(&calendarSubjects, "subject", "s", nil, "Only show these subjects (repeatable)")
}
