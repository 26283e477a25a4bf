package models

import (
	"sort"
	"time"
)

// EventType tags a topic lifecycle event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventReviewed EventType = "reviewed"
	EventSkipped  EventType = "skipped"
)

// TopicEvent is an immutable fact in a topic's history. Events are the only
// way schedule state changes; everything else is derived from them.
//
// Only reviewed events carry the review payload fields. They pin the curve
// segment that starts at this event: the stability and target written here are
// what the segment decays with, and NextReviewAt is its checkpoint.
type TopicEvent struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`
	// At orders the event. Chronological order is the only order that
	// matters; insertion order is irrelevant.
	At    time.Time `json:"at" db:"at"`
	Notes string    `json:"notes,omitempty" db:"notes"`

	// Review payload, set only when Type == EventReviewed.
	Quality              *Quality   `json:"reviewQuality,omitempty" db:"quality"`
	IntervalDays         *float64   `json:"intervalDays,omitempty" db:"interval_days"`
	ResultingStability   *float64   `json:"resultingStability,omitempty" db:"resulting_stability"`
	TargetRetrievability *float64   `json:"targetRetrievability,omitempty" db:"target_retrievability"`
	NextReviewAt         *time.Time `json:"nextReviewAt,omitempty" db:"next_review_at"`
}

// IsReview reports whether the event records a completed review.
func (e TopicEvent) IsReview() bool {
	return e.Type == EventReviewed
}

// ReviewedEvents filters and chronologically sorts the reviewed events.
func ReviewedEvents(events []TopicEvent) []TopicEvent {
	out := make([]TopicEvent, 0, len(events))
	for _, e := range events {
		if e.Type == EventReviewed {
			out = append(out, e)
		}
	}
	SortEvents(out)
	return out
}

// SortEvents orders events chronologically in place. The sort is stable so
// that same-instant events keep a deterministic order across rebuilds.
func SortEvents(events []TopicEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
}
