package review

import (
	"strings"
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

// CreateInput describes a new topic.
type CreateInput struct {
	Title     string
	Notes     string
	SubjectID *string
	// Intervals is the fixed fallback ladder; nil means models.DefaultIntervals.
	Intervals            []int
	RetrievabilityTarget float64
	AutoAdjustPreference models.AutoAdjustPreference
	ScheduleMode         models.ScheduleMode
	At                   time.Time
}

// NewTopic builds a topic with its synthetic started event and the first
// scheduled review one ladder rung out, capped by the subject's exam date.
func NewTopic(in CreateInput, subject *models.Subject) (models.Topic, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Topic{}, validationf("title", "topic title is required")
	}
	if in.At.IsZero() {
		return models.Topic{}, validationf("at", "creation instant is required")
	}

	intervals := in.Intervals
	if len(intervals) == 0 {
		intervals = append([]int(nil), models.DefaultIntervals...)
	}
	for _, days := range intervals {
		if days <= 0 {
			return models.Topic{}, validationf("intervals", "interval ladder must contain positive day counts, got %d", days)
		}
	}

	pref := in.AutoAdjustPreference
	if pref == "" {
		pref = models.AutoAdjustAsk
	}
	mode := in.ScheduleMode
	if mode == "" {
		mode = models.ScheduleAdaptive
	}

	at := in.At
	topic := models.Topic{
		ID:                   models.NewID(),
		Title:                title,
		Notes:                in.Notes,
		SubjectID:            in.SubjectID,
		Intervals:            intervals,
		IntervalIndex:        0,
		Stability:            curve.DefaultStabilityDays,
		RetrievabilityTarget: curve.ClampTrigger(defaultTarget(in.RetrievabilityTarget, curve.DefaultRetrievabilityTarget)),
		CreatedAt:            at,
		StartedAt:            &at,
		AutoAdjustPreference: pref,
		ScheduleMode:         mode,
		Events: []models.TopicEvent{{
			ID:   models.NewID(),
			Type: models.EventStarted,
			At:   at,
		}},
	}
	topic.NextReviewDate = capToExam(at.Add(time.Duration(topic.IntervalAt(0))*dates.Day), at, subject)
	return topic, nil
}
