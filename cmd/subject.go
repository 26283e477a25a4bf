package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

var (
	subjectExam       string
	subjectColor      string
	subjectIcon       string
	subjectDifficulty float64
)

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a subject",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		subject := &models.Subject{
			ID:        models.NewID(),
			Name:      name,
			Color:     subjectColor,
			Icon:      subjectIcon,
			CreatedAt: time.Now(),
		}
		if subjectExam != "" {
			exam, err := dates.ParseInstant(subjectExam)
			if err != nil {
				return fmt.Errorf("invalid exam date: %w", err)
			}
			subject.ExamDate = &exam
		}
		if subjectDifficulty > 0 {
			subject.DifficultyModifier = &subjectDifficulty
		}

		if err := database.NewSubjectRepository().Create(subject); err != nil {
			return err
		}
		fmt.Printf("Added subject %q\n", name)
		return nil
	},
}

var subjectSetExamCmd = &cobra.Command{
	Use:   "set-exam [name] [date]",
	Short: "Set or clear a subject's exam date",
	Long: `Set a subject's exam date, after which no review is ever scheduled.
Pass "none" as the date to clear it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := database.NewSubjectRepository()
		subject, err := repo.GetByName(args[0])
		if err != nil {
			return err
		}
		if subject == nil {
			return fmt.Errorf("no subject named %q", args[0])
		}

		if args[1] == "none" {
			subject.ExamDate = nil
		} else {
			exam, err := dates.ParseInstant(args[1])
			if err != nil {
				return fmt.Errorf("invalid exam date: %w", err)
			}
			subject.ExamDate = &exam
		}
		if err := repo.Update(subject); err != nil {
			return err
		}
		fmt.Printf("Updated subject %q\n", subject.Name)
		return nil
	},
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects",
	RunE: func(cmd *cobra.Command, args []string) error {
		subjects, err := database.NewSubjectRepository().GetAll()
		if err != nil {
			return err
		}
		if len(subjects) == 0 {
			fmt.Println("No subjects yet.")
			return nil
		}
		for _, s := range subjects {
			line := "- " + s.Name
			if s.ExamDate != nil {
				line += " (exam " + s.ExamDate.In(loc).Format(dates.DayKeyLayout) + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(subjectCmd)
	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectSetExamCmd)
	subjectCmd.AddCommand(subjectListCmd)

	subjectAddCmd.Flags().StringVarP(&subjectExam, "exam", "e", "", "Exam date, e.g. 2026-06-01")
	subjectAddCmd.Flags().StringVar(&subjectColor, "color", "", "Display color")
	subjectAddCmd.Flags().StringVar(&subjectIcon, "icon", "", "Display icon name")
	subjectAddCmd.Flags().Float64VarP(&subjectDifficulty, "difficulty", "d", 0, "Difficulty modifier in (0,1], lower is harder")
}
