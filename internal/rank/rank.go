// Package rank orders topics by review urgency using the composite risk
// score. Both the due list and the reminder digest consume it.
package rank

import (
	"sort"
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

// RankedTopic pairs a topic snapshot with its risk breakdown.
type RankedTopic struct {
	Topic   models.Topic
	Subject *models.Subject
	Risk    curve.RiskResult
	Overdue bool
	DueNow  bool
}

// Rank scores every topic in the snapshot at the given instant and returns
// them ordered by descending risk. Ties break toward the earlier due date so
// the ordering is deterministic.
func Rank(snap *models.Snapshot, now time.Time, loc *time.Location) []RankedTopic {
	if loc == nil {
		loc = time.UTC
	}
	todayKey := dates.DayKey(now, loc)

	ranked := make([]RankedTopic, 0, len(snap.Topics))
	for _, topic := range snap.Topics {
		subject := snap.SubjectByID(topic.SubjectID)

		in := curve.RiskInput{
			Now:                  now,
			StabilityDays:        topic.Stability,
			TargetRetrievability: topic.RetrievabilityTarget,
			LastReviewedAt:       topic.LastReviewedAt,
			NextReviewAt:         topic.NextReviewDate,
			ReviewsCount:         topic.ReviewsCount,
		}
		if avg, ok := topic.AverageQuality(); ok {
			in.AverageQuality = avg
			in.HasAverage = true
		}
		if subject != nil {
			in.ExamDate = subject.ExamDate
			in.DifficultyModifier = subject.DifficultyModifier
		}

		dueKey := dates.DayKey(topic.NextReviewDate, loc)
		ranked = append(ranked, RankedTopic{
			Topic:   topic,
			Subject: subject,
			Risk:    curve.RiskScore(in),
			Overdue: dueKey < todayKey,
			DueNow:  dueKey <= todayKey,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Risk.Score != ranked[j].Risk.Score {
			return ranked[i].Risk.Score > ranked[j].Risk.Score
		}
		return ranked[i].Topic.NextReviewDate.Before(ranked[j].Topic.NextReviewDate)
	})
	return ranked
}

// Due filters a ranked list down to topics due on or before today.
func Due(ranked []RankedTopic) []RankedTopic {
	due := make([]RankedTopic, 0, len(ranked))
	for _, item := range ranked {
		if item.DueNow {
			due = append(due, item)
		}
	}
	return due
}
