package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultIntervals is the fallback ladder of review gaps in days used when a
// topic is created without an explicit schedule.
var DefaultIntervals = []int{1, 4, 14, 30, 60}

// Topic is a single memorization subject under review.
//
// Schedule fields (NextReviewDate, IntervalIndex, Stability, ReviewsCount) are
// derived from the event log and must only be rewritten by the transition
// functions in internal/review; every other consumer treats a Topic as a
// read-only snapshot.
type Topic struct {
	ID        string  `json:"id" db:"id"`
	Title     string  `json:"title" db:"title"`
	Notes     string  `json:"notes" db:"notes"`
	SubjectID *string `json:"subjectId" db:"subject_id"`

	// Fixed-ladder schedule state.
	Intervals     []int `json:"intervals" db:"-"`
	IntervalIndex int   `json:"intervalIndex" db:"interval_index"`

	NextReviewDate time.Time  `json:"nextReviewDate" db:"next_review_date"`
	LastReviewedAt *time.Time `json:"lastReviewedAt" db:"last_reviewed_at"`

	// Retention-model state.
	Stability            float64 `json:"stability" db:"stability"`
	RetrievabilityTarget float64 `json:"retrievabilityTarget" db:"retrievability_target"`
	ReviewsCount         int     `json:"reviewsCount" db:"reviews_count"`

	Events    []TopicEvent `json:"events" db:"-"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	StartedAt *time.Time   `json:"startedAt" db:"started_at"`

	AutoAdjustPreference AutoAdjustPreference `json:"autoAdjustPreference" db:"auto_adjust_preference"`
	ScheduleMode         ScheduleMode         `json:"scheduleMode" db:"schedule_mode"`

	// ReviseNowLastUsedAt anchors the one-quick-revision-per-local-day lock.
	ReviseNowLastUsedAt *time.Time `json:"reviseNowLastUsedAt" db:"revise_now_last_used_at"`
}

// NewID mints an identifier for topics, subjects and events.
func NewID() string {
	return uuid.NewString()
}

// CurrentInterval returns the active rung of the interval ladder in days,
// clamping the index into range and falling back to one day for an empty
// ladder.
func (t *Topic) CurrentInterval() int {
	return t.IntervalAt(t.IntervalIndex)
}

// IntervalAt returns the ladder rung at index, clamped to [0, len-1].
func (t *Topic) IntervalAt(index int) int {
	if len(t.Intervals) == 0 {
		return 1
	}
	if index < 0 {
		index = 0
	}
	if index >= len(t.Intervals) {
		index = len(t.Intervals) - 1
	}
	return t.Intervals[index]
}

// Anchor returns the instant retention decay is measured from: the last
// review when one exists, otherwise the start or creation of the topic.
func (t *Topic) Anchor() time.Time {
	if t.LastReviewedAt != nil {
		return *t.LastReviewedAt
	}
	if t.StartedAt != nil {
		return *t.StartedAt
	}
	return t.CreatedAt
}

// AverageQuality returns the mean recorded review quality, or false when the
// topic has no graded reviews yet.
func (t *Topic) AverageQuality() (float64, bool) {
	var sum float64
	var n int
	for _, e := range t.Events {
		if e.Type != EventReviewed || e.Quality == nil {
			continue
		}
		sum += float64(*e.Quality)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Subject groups topics. An exam date is a hard upper bound for every
// schedule computation of the subject's topics; the difficulty modifier
// scales effective stability downward for harder subjects.
type Subject struct {
	ID                 string     `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Color              string     `json:"color" db:"color"`
	Icon               string     `json:"icon" db:"icon"`
	ExamDate           *time.Time `json:"examDate" db:"exam_date"`
	DifficultyModifier *float64   `json:"difficultyModifier" db:"difficulty_modifier"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
}

// Snapshot is the full engine input loaded from storage: plain records,
// no live handles. Engine functions never reach past a snapshot.
type Snapshot struct {
	Topics   []Topic
	Subjects []Subject
}

// SubjectByID returns the subject with the given id, or nil.
func (s *Snapshot) SubjectByID(id *string) *Subject {
	if id == nil {
		return nil
	}
	for i := range s.Subjects {
		if s.Subjects[i].ID == *id {
			return &s.Subjects[i]
		}
	}
	return nil
}
