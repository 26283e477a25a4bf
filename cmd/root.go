package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/revise/internal/config"
	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/internal/logger"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

var (
	cfg *config.Config
	log *zap.Logger
	loc *time.Location
)

var rootCmd = &cobra.Command{
	Use:   "revise",
	Short: "A forgetting-curve review scheduler",
	Long: `Revise tracks study topics on an exponential forgetting curve and
schedules reviews at the moment predicted retention crosses your target.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err = logger.New(cfg)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		loc, err = dates.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("resolve timezone %q: %w", cfg.Timezone, err)
		}
		if err := database.Connect(cfg.DataDir, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
		if log != nil {
			log.Sync()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// prefs derives the active scheduling preferences from configuration.
func prefs() review.Preferences {
	return review.Preferences{
		Mode:          models.ScheduleMode(cfg.Schedule.Mode),
		ReviewTrigger: cfg.Schedule.ReviewTrigger,
		Alpha:         cfg.Schedule.GrowthAlpha,
		Beta:          cfg.Schedule.LapseBeta,
	}
}

// findTopic resolves a user-supplied reference to a stored topic: an exact
// id, then an exact title, then a unique case-insensitive title prefix.
func findTopic(query string) (*models.Topic, error) {
	repo := database.NewTopicRepository()
	if topic, err := repo.GetByID(query); err != nil {
		return nil, err
	} else if topic != nil {
		return topic, nil
	}

	topics, err := repo.GetAll()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(query)
	var prefix []*models.Topic
	for i := range topics {
		title := strings.ToLower(topics[i].Title)
		if title == lower {
			return &topics[i], nil
		}
		if strings.HasPrefix(title, lower) {
			prefix = append(prefix, &topics[i])
		}
	}
	switch len(prefix) {
	case 0:
		return nil, fmt.Errorf("no topic matches %q", query)
	case 1:
		return prefix[0], nil
	default:
		titles := make([]string, len(prefix))
		for i, t := range prefix {
			titles[i] = t.Title
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(titles, ", "))
	}
}

// subjectOf loads the subject a topic belongs to, or nil.
func subjectOf(topic *models.Topic) (*models.Subject, error) {
	if topic.SubjectID == nil {
		return nil, nil
	}
	return database.NewSubjectRepository().GetByID(*topic.SubjectID)
}

func formatLocal(t time.Time) string {
	return t.In(loc).Format("2006-01-02 15:04")
}
