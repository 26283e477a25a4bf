// Package notify delivers the daily review digest. A gocron loop wakes once
// an hour, and when the configured local hour comes around it ranks the
// current snapshot and pushes the due list through the configured notifier.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/rank"
)

// maxDigestTopics caps the per-message topic list.
const maxDigestTopics = 10

// Notifier sends one rendered digest.
type Notifier interface {
	SendDigest(text string) error
}

// Scheduler manages the reminder loop.
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	log       *zap.Logger
	loc       *time.Location
	hour      int
	lastSent  string
}

// New creates a scheduler that fires the digest at the given local hour.
func New(notifier Notifier, log *zap.Logger, loc *time.Location, hour int) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if hour < 0 || hour > 23 {
		hour = 9
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		log:       log,
		loc:       loc,
		hour:      hour,
	}
}

// Start begins running the reminder loop in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSend)
	s.scheduler.StartAsync()
}

// Stop terminates the reminder loop.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSend() {
	now := time.Now().In(s.loc)
	if now.Hour() < s.hour {
		return
	}
	// One digest per day, even if the process restarts mid-afternoon.
	dayKey := now.Format("2006-01-02")
	if s.lastSent == dayKey {
		return
	}

	if err := s.RunOnce(now); err != nil {
		s.log.Error("failed to send review digest", zap.Error(err))
		return
	}
	s.lastSent = dayKey
}

// RunOnce builds and sends the digest for the given instant. An empty due
// list sends nothing.
func (s *Scheduler) RunOnce(now time.Time) error {
	snap, err := database.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	due := rank.Due(rank.Rank(snap, now, s.loc))
	if len(due) == 0 {
		s.log.Debug("no topics due, skipping digest")
		return nil
	}

	if err := s.notifier.SendDigest(Digest(due, now)); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	s.log.Info("review digest sent", zap.Int("due", len(due)))
	return nil
}

// Digest renders the due list as a plain-text reminder message.
func Digest(due []rank.RankedTopic, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d topic(s) due for review:\n", len(due))

	shown := due
	if len(shown) > maxDigestTopics {
		shown = shown[:maxDigestTopics]
	}
	for _, item := range shown {
		line := fmt.Sprintf("- %s (risk %.2f", item.Topic.Title, item.Risk.Score)
		if item.Overdue {
			days := int(now.Sub(item.Topic.NextReviewDate).Hours() / 24)
			if days < 1 {
				days = 1
			}
			line += fmt.Sprintf(", %dd overdue", days)
		}
		line += ")"
		if item.Subject != nil {
			line += " [" + item.Subject.Name + "]"
		}
		b.WriteString(line + "\n")
	}
	if rest := len(due) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "...and %d more\n", rest)
	}
	return b.String()
}
