// Package review owns the topic event log transitions. Recording a review or
// a skip, and merging backfilled history, are the only operations that may
// rewrite a topic's schedule fields; everything else in the engine is a view
// over the events appended here.
//
// Transitions are synchronous and all-or-nothing: they take a topic snapshot
// by value and either return the fully updated copy or an error with the
// input untouched. They never read the clock or any global state.
package review

import (
	"time"

	"github.com/example/revise/internal/adaptive"
	"github.com/example/revise/internal/curve"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

// Preferences carries the active scheduling strategy and model parameters.
// The zero value means adaptive scheduling with the model defaults.
type Preferences struct {
	Mode models.ScheduleMode
	// ReviewTrigger is the fallback retrievability target for topics that
	// do not carry their own.
	ReviewTrigger float64
	Alpha         float64
	Beta          float64
}

func (p Preferences) withDefaults() Preferences {
	if p.Mode == "" {
		p.Mode = models.ScheduleAdaptive
	}
	if p.ReviewTrigger == 0 {
		p.ReviewTrigger = curve.DefaultRetrievabilityTarget
	}
	if p.Alpha == 0 {
		p.Alpha = adaptive.DefaultGrowthAlpha
	}
	if p.Beta == 0 {
		p.Beta = adaptive.DefaultLapseBeta
	}
	return p
}

// ReviewInput describes one completed review.
type ReviewInput struct {
	At      time.Time
	Quality models.Quality
	// AdjustFuture, when non-nil, overrides the topic's auto-adjust
	// preference for an early review.
	AdjustFuture *bool
	// QuickRevision marks an off-schedule "revise now" action, which is
	// rate-limited to one per topic per local day.
	QuickRevision bool
	// Location resolves local day keys for the quick-revision lock.
	Location *time.Location
}

// SkipInput describes a skipped checkpoint.
type SkipInput struct {
	At       time.Time
	Location *time.Location
}

// Result is the outcome of a successful transition: the updated topic copy
// and the event that was appended.
type Result struct {
	Topic    models.Topic
	Event    models.TopicEvent
	Early    bool
	Adjusted bool
}

// RecordReview applies a reviewed action to a topic snapshot.
//
// An early review (before the scheduled date) only reshapes the future plan
// when allowed to: an explicit AdjustFuture wins, otherwise the topic's
// auto-adjust preference decides. "ask" without an out-of-band answer falls
// back to not adjusting - the engine never blocks waiting for a prompt.
func RecordReview(topic models.Topic, subject *models.Subject, prefs Preferences, in ReviewInput) (Result, error) {
	if in.At.IsZero() {
		return Result{}, validationf("at", "review instant is required")
	}
	if !in.Quality.Valid() {
		return Result{}, validationf("quality", "unsupported review quality %v", float64(in.Quality))
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	prefs = prefs.withDefaults()

	if in.QuickRevision && topic.ReviseNowLastUsedAt != nil &&
		dates.SameDay(*topic.ReviseNowLastUsedAt, in.At, loc) {
		return Result{}, ErrRevisionUsedToday
	}

	early := in.At.Before(topic.NextReviewDate)
	adjust := true
	if early {
		if in.AdjustFuture != nil {
			adjust = *in.AdjustFuture
		} else {
			adjust = topic.AutoAdjustPreference == models.AutoAdjustAlways
		}
	}

	target := curve.ClampTrigger(defaultTarget(topic.RetrievabilityTarget, prefs.ReviewTrigger))
	stability := curve.UpdateStability(curve.ClampStability(defaultStability(topic.Stability)), float64(in.Quality), prefs.Alpha)

	next := topic.NextReviewDate
	intervalIndex := topic.IntervalIndex
	if adjust {
		if prefs.Mode == models.ScheduleFixed {
			// The ladder advances one rung per review, clamped to the
			// last rung; the adaptive model does not touch the index.
			intervalIndex = clampIndex(topic.IntervalIndex+1, len(topic.Intervals))
			next = in.At.Add(time.Duration(topic.IntervalAt(intervalIndex)) * dates.Day)
		} else {
			next = in.At.Add(curve.Interval(stability, target))
		}
		next = capToExam(next, in.At, subject)
	}

	q := in.Quality
	intervalDays := next.Sub(in.At).Hours() / 24
	event := models.TopicEvent{
		ID:                   models.NewID(),
		Type:                 models.EventReviewed,
		At:                   in.At,
		Quality:              &q,
		IntervalDays:         &intervalDays,
		ResultingStability:   &stability,
		TargetRetrievability: &target,
		NextReviewAt:         &next,
	}

	at := in.At
	// Copy before appending so the caller's snapshot never sees the sort.
	topic.Events = append(topic.Events[:0:0], topic.Events...)
	topic.Events = append(topic.Events, event)
	models.SortEvents(topic.Events)
	topic.LastReviewedAt = &at
	topic.NextReviewDate = next
	topic.IntervalIndex = intervalIndex
	topic.Stability = stability
	topic.RetrievabilityTarget = target
	topic.ReviewsCount++
	if in.QuickRevision {
		topic.ReviseNowLastUsedAt = &at
	}

	return Result{Topic: topic, Event: event, Early: early, Adjusted: adjust}, nil
}

// RecordSkip appends a skipped event and pushes the pending checkpoint out by
// one full interval of the active strategy. The reviews counter and stability
// are untouched, and the subject's exam date stays a hard ceiling.
func RecordSkip(topic models.Topic, subject *models.Subject, prefs Preferences, in SkipInput) (Result, error) {
	if in.At.IsZero() {
		return Result{}, validationf("at", "skip instant is required")
	}
	prefs = prefs.withDefaults()

	var next time.Time
	if prefs.Mode == models.ScheduleFixed {
		next = in.At.Add(time.Duration(topic.CurrentInterval()) * dates.Day)
	} else {
		stability := curve.ClampStability(defaultStability(topic.Stability))
		target := curve.ClampTrigger(defaultTarget(topic.RetrievabilityTarget, prefs.ReviewTrigger))
		next = in.At.Add(curve.Interval(stability, target))
	}
	next = capToExam(next, in.At, subject)

	event := models.TopicEvent{
		ID:   models.NewID(),
		Type: models.EventSkipped,
		At:   in.At,
	}
	topic.Events = append(topic.Events[:0:0], topic.Events...)
	topic.Events = append(topic.Events, event)
	models.SortEvents(topic.Events)
	topic.NextReviewDate = next

	return Result{Topic: topic, Event: event}, nil
}

// capToExam bounds a computed next-review instant by the subject's exam date.
// When the exam has already passed relative to the action instant the cap is
// left alone - there is nothing left to protect.
func capToExam(next, at time.Time, subject *models.Subject) time.Time {
	if subject == nil || subject.ExamDate == nil {
		return next
	}
	exam := *subject.ExamDate
	if exam.Before(at) {
		return next
	}
	if next.After(exam) {
		return exam
	}
	return next
}

func clampIndex(index, length int) int {
	if length == 0 {
		return 0
	}
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

func defaultStability(s float64) float64 {
	if s <= 0 {
		return curve.DefaultStabilityDays
	}
	return s
}

// defaultTarget picks the topic's own target when it is usable, otherwise the
// supplied fallback (the preferences' review trigger for transitions).
func defaultTarget(t, fallback float64) float64 {
	if t <= 0 || t >= 1 {
		return fallback
	}
	return t
}
