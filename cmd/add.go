package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

var (
	addSubject    string
	addNotes      string
	addIntervals  string
	addTarget     float64
	addMode       string
	addAutoAdjust string
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new topic to track",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		now := time.Now()

		var subject *models.Subject
		var subjectID *string
		if addSubject != "" {
			s, err := getOrCreateSubject(addSubject, now)
			if err != nil {
				return err
			}
			subject = s
			subjectID = &s.ID
		}

		intervals, err := parseLadder(addIntervals)
		if err != nil {
			return err
		}
		if intervals == nil {
			intervals = cfg.Schedule.Intervals
		}

		mode := addMode
		if mode == "" {
			mode = cfg.Schedule.Mode
		}

		topic, err := review.NewTopic(review.CreateInput{
			Title:                title,
			Notes:                addNotes,
			SubjectID:            subjectID,
			Intervals:            intervals,
			RetrievabilityTarget: addTarget,
			AutoAdjustPreference: models.AutoAdjustPreference(addAutoAdjust),
			ScheduleMode:         models.ScheduleMode(mode),
			At:                   now,
		}, subject)
		if err != nil {
			return err
		}

		if err := database.NewTopicRepository().Create(&topic); err != nil {
			return err
		}

		fmt.Printf("Added %q (first review %s)\n", topic.Title, formatLocal(topic.NextReviewDate))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addSubject, "subject", "s", "", "Subject name (created if missing)")
	addCmd.Flags().StringVarP(&addNotes, "notes", "n", "", "Notes about the topic")
	addCmd.Flags().StringVarP(&addIntervals, "intervals", "i", "", "Fixed interval ladder, e.g. 1,4,14,30")
	addCmd.Flags().Float64VarP(&addTarget, "target", "t", 0, "Retrievability target in (0,1), default 0.7")
	addCmd.Flags().StringVarP(&addMode, "mode", "m", "", "Schedule mode: adaptive or fixed")
	addCmd.Flags().StringVar(&addAutoAdjust, "auto-adjust", "", "Early-review adjust preference: always, never or ask")
}

func getOrCreateSubject(name string, now time.Time) (*models.Subject, error) {
	repo := database.NewSubjectRepository()
	subject, err := repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if subject != nil {
		return subject, nil
	}

	subject = &models.Subject{
		ID:        models.NewID(),
		Name:      name,
		CreatedAt: now,
	}
	if err := repo.Create(subject); err != nil {
		return nil, err
	}
	fmt.Printf("Created subject %q\n", name)
	return subject, nil
}

func parseLadder(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ladder []int
	for _, part := range strings.Split(raw, ",") {
		days, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q", part)
		}
		ladder = append(ladder, days)
	}
	return ladder, nil
}
