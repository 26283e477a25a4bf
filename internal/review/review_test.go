package review

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/pkg/models"
)

var (
	baseTime = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	adaptivePrefs = Preferences{Mode: models.ScheduleAdaptive}
	fixed         = Preferences{Mode: models.ScheduleFixed}
)

func newTestTopic(t *testing.T) models.Topic {
	t.Helper()
	topic, err := NewTopic(CreateInput{Title: "Krebs cycle", At: baseTime}, nil)
	if err != nil {
		t.Fatalf("NewTopic: %v", err)
	}
	return topic
}

func boolPtr(b bool) *bool { return &b }

func TestNewTopicDefaults(t *testing.T) {
	topic := newTestTopic(t)
	if topic.ID == "" {
		t.Fatal("missing id")
	}
	if len(topic.Events) != 1 || topic.Events[0].Type != models.EventStarted {
		t.Fatalf("want a single started event, got %+v", topic.Events)
	}
	if topic.AutoAdjustPreference != models.AutoAdjustAsk {
		t.Fatalf("auto-adjust preference = %q", topic.AutoAdjustPreference)
	}
	if topic.ScheduleMode != models.ScheduleAdaptive {
		t.Fatalf("schedule mode = %q", topic.ScheduleMode)
	}
	wantNext := baseTime.Add(time.Duration(models.DefaultIntervals[0]) * 24 * time.Hour)
	if !topic.NextReviewDate.Equal(wantNext) {
		t.Fatalf("first review at %v, want %v", topic.NextReviewDate, wantNext)
	}
}

func TestNewTopicValidation(t *testing.T) {
	var ve *ValidationError
	if _, err := NewTopic(CreateInput{Title: "   ", At: baseTime}, nil); !errors.As(err, &ve) {
		t.Fatalf("blank title: got %v", err)
	}
	if _, err := NewTopic(CreateInput{Title: "ok"}, nil); !errors.As(err, &ve) {
		t.Fatalf("zero instant: got %v", err)
	}
	if _, err := NewTopic(CreateInput{Title: "ok", At: baseTime, Intervals: []int{1, 0}}, nil); !errors.As(err, &ve) {
		t.Fatalf("non-positive ladder rung: got %v", err)
	}
}

func TestNewTopicCapsFirstReviewToExam(t *testing.T) {
	exam := baseTime.Add(12 * time.Hour)
	topic, err := NewTopic(CreateInput{Title: "exam eve", At: baseTime}, &models.Subject{ExamDate: &exam})
	if err != nil {
		t.Fatalf("NewTopic: %v", err)
	}
	if !topic.NextReviewDate.Equal(exam) {
		t.Fatalf("first review %v not capped to exam %v", topic.NextReviewDate, exam)
	}
}

func TestRecordReviewValidation(t *testing.T) {
	topic := newTestTopic(t)
	var ve *ValidationError
	if _, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{Quality: models.QualityEasy}); !errors.As(err, &ve) {
		t.Fatalf("zero instant: got %v", err)
	}
	if _, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: baseTime, Quality: models.Quality(0.3)}); !errors.As(err, &ve) {
		t.Fatalf("bad quality: got %v", err)
	}
}

func TestRecordReviewUpdatesSchedule(t *testing.T) {
	topic := newTestTopic(t)
	at := topic.NextReviewDate

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	got := res.Topic

	if res.Early {
		t.Fatal("on-time review flagged early")
	}
	if !res.Adjusted {
		t.Fatal("on-time review must reshape the schedule")
	}
	if got.ReviewsCount != 1 {
		t.Fatalf("reviews count = %d", got.ReviewsCount)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(at) {
		t.Fatalf("last reviewed at = %v", got.LastReviewedAt)
	}

	// Easy grows stability by (1 + alpha*0.5).
	wantStability := curve.DefaultStabilityDays * 1.125
	if math.Abs(got.Stability-wantStability) > 1e-9 {
		t.Fatalf("stability = %v, want %v", got.Stability, wantStability)
	}
	wantNext := at.Add(curve.Interval(wantStability, curve.DefaultRetrievabilityTarget))
	if !got.NextReviewDate.Equal(wantNext) {
		t.Fatalf("next review = %v, want %v", got.NextReviewDate, wantNext)
	}

	// Adaptive mode never advances the fixed ladder.
	if got.IntervalIndex != 0 {
		t.Fatalf("interval index advanced to %d under adaptive mode", got.IntervalIndex)
	}

	// The original snapshot is untouched.
	if topic.ReviewsCount != 0 || len(topic.Events) != 1 {
		t.Fatal("input snapshot was mutated")
	}
}

func TestRecordReviewEventPayload(t *testing.T) {
	topic := newTestTopic(t)
	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: topic.NextReviewDate, Quality: models.QualityHard})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	e := res.Event
	if e.Type != models.EventReviewed || e.ID == "" {
		t.Fatalf("bad event %+v", e)
	}
	if e.Quality == nil || *e.Quality != models.QualityHard {
		t.Fatalf("quality payload = %v", e.Quality)
	}
	if e.ResultingStability == nil || e.TargetRetrievability == nil || e.NextReviewAt == nil || e.IntervalDays == nil {
		t.Fatalf("incomplete payload %+v", e)
	}
	if !e.NextReviewAt.Equal(res.Topic.NextReviewDate) {
		t.Fatalf("payload next %v disagrees with topic %v", *e.NextReviewAt, res.Topic.NextReviewDate)
	}
	wantDays := e.NextReviewAt.Sub(e.At).Hours() / 24
	if math.Abs(*e.IntervalDays-wantDays) > 1e-9 {
		t.Fatalf("interval days = %v, want %v", *e.IntervalDays, wantDays)
	}
}

func TestRecordReviewForgotShrinksStability(t *testing.T) {
	topic := newTestTopic(t)
	topic.Stability = 4
	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: topic.NextReviewDate, Quality: models.QualityForgot})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	want := 4 * (1 - 0.25*0.5)
	if math.Abs(res.Topic.Stability-want) > 1e-9 {
		t.Fatalf("stability = %v, want %v", res.Topic.Stability, want)
	}
}

func TestRecordReviewEarlyAskDoesNotAdjust(t *testing.T) {
	topic := newTestTopic(t)
	early := topic.NextReviewDate.Add(-6 * time.Hour)

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: early, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if !res.Early {
		t.Fatal("review before the checkpoint must be flagged early")
	}
	if res.Adjusted {
		t.Fatal("ask preference with no answer must not adjust")
	}
	if !res.Topic.NextReviewDate.Equal(topic.NextReviewDate) {
		t.Fatalf("schedule moved: %v", res.Topic.NextReviewDate)
	}
	// The review itself still counts.
	if res.Topic.ReviewsCount != 1 || res.Topic.Stability == topic.Stability {
		t.Fatal("early review must still update stability and counters")
	}
}

func TestRecordReviewEarlyExplicitAnswerWins(t *testing.T) {
	topic := newTestTopic(t)
	topic.AutoAdjustPreference = models.AutoAdjustNever
	early := topic.NextReviewDate.Add(-6 * time.Hour)

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: early, Quality: models.QualityEasy, AdjustFuture: boolPtr(true)})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if !res.Adjusted {
		t.Fatal("explicit adjust answer must override the preference")
	}
	if res.Topic.NextReviewDate.Equal(topic.NextReviewDate) {
		t.Fatal("schedule did not move")
	}
}

func TestRecordReviewEarlyAlwaysAdjusts(t *testing.T) {
	topic := newTestTopic(t)
	topic.AutoAdjustPreference = models.AutoAdjustAlways
	early := topic.NextReviewDate.Add(-6 * time.Hour)

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: early, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if !res.Adjusted {
		t.Fatal("always preference must adjust without asking")
	}
}

func TestRecordReviewFixedLadder(t *testing.T) {
	topic := newTestTopic(t)
	topic.ScheduleMode = models.ScheduleFixed
	topic.Intervals = []int{1, 4}

	at := topic.NextReviewDate
	res, err := RecordReview(topic, nil, fixed, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if res.Topic.IntervalIndex != 1 {
		t.Fatalf("interval index = %d, want 1", res.Topic.IntervalIndex)
	}
	if want := at.Add(4 * 24 * time.Hour); !res.Topic.NextReviewDate.Equal(want) {
		t.Fatalf("next review = %v, want %v", res.Topic.NextReviewDate, want)
	}

	// A second review clamps at the last rung instead of running off the ladder.
	at2 := res.Topic.NextReviewDate
	res2, err := RecordReview(res.Topic, nil, fixed, ReviewInput{At: at2, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if res2.Topic.IntervalIndex != 1 {
		t.Fatalf("interval index = %d, want clamp at 1", res2.Topic.IntervalIndex)
	}
	if want := at2.Add(4 * 24 * time.Hour); !res2.Topic.NextReviewDate.Equal(want) {
		t.Fatalf("next review = %v, want %v", res2.Topic.NextReviewDate, want)
	}
}

func TestRecordReviewExamCeiling(t *testing.T) {
	topic := newTestTopic(t)
	topic.Stability = 30
	at := topic.NextReviewDate
	exam := at.Add(36 * time.Hour)

	res, err := RecordReview(topic, &models.Subject{ExamDate: &exam}, adaptivePrefs, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if !res.Topic.NextReviewDate.Equal(exam) {
		t.Fatalf("next review %v not capped to exam %v", res.Topic.NextReviewDate, exam)
	}
}

func TestRecordReviewPastExamLeavesScheduleAlone(t *testing.T) {
	topic := newTestTopic(t)
	at := topic.NextReviewDate
	exam := at.Add(-24 * time.Hour)

	res, err := RecordReview(topic, &models.Subject{ExamDate: &exam}, adaptivePrefs, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if res.Topic.NextReviewDate.Equal(exam) {
		t.Fatal("a passed exam must not cap the schedule")
	}
}

func TestQuickRevisionDailyLock(t *testing.T) {
	topic := newTestTopic(t)
	first := baseTime.Add(time.Hour)

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: first, Quality: models.QualityEasy, QuickRevision: true})
	if err != nil {
		t.Fatalf("first quick revision: %v", err)
	}
	if res.Topic.ReviseNowLastUsedAt == nil || !res.Topic.ReviseNowLastUsedAt.Equal(first) {
		t.Fatalf("lock timestamp = %v", res.Topic.ReviseNowLastUsedAt)
	}

	_, err = RecordReview(res.Topic, nil, adaptivePrefs, ReviewInput{At: first.Add(3 * time.Hour), Quality: models.QualityEasy, QuickRevision: true})
	if !errors.Is(err, ErrRevisionUsedToday) {
		t.Fatalf("same-day quick revision: got %v", err)
	}

	// A plain scheduled review is not rate-limited.
	if _, err := RecordReview(res.Topic, nil, adaptivePrefs, ReviewInput{At: first.Add(3 * time.Hour), Quality: models.QualityEasy}); err != nil {
		t.Fatalf("scheduled review blocked by the lock: %v", err)
	}

	// The lock resets at local midnight.
	nextDay := time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)
	if _, err := RecordReview(res.Topic, nil, adaptivePrefs, ReviewInput{At: nextDay, Quality: models.QualityEasy, QuickRevision: true}); err != nil {
		t.Fatalf("next-day quick revision: %v", err)
	}
}

func TestQuickRevisionLockUsesLocalDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	topic := newTestTopic(t)
	// Both instants fall on the same New York evening but straddle UTC midnight.
	first := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	later := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)

	res, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: first, Quality: models.QualityEasy, QuickRevision: true, Location: ny})
	if err != nil {
		t.Fatalf("first quick revision: %v", err)
	}
	if _, err := RecordReview(res.Topic, nil, adaptivePrefs, ReviewInput{At: later, Quality: models.QualityEasy, QuickRevision: true, Location: ny}); !errors.Is(err, ErrRevisionUsedToday) {
		t.Fatalf("same New York evening: got %v", err)
	}
	// In UTC the day has rolled over, so the lock does not apply.
	if _, err := RecordReview(res.Topic, nil, adaptivePrefs, ReviewInput{At: later, Quality: models.QualityEasy, QuickRevision: true}); err != nil {
		t.Fatalf("next UTC day quick revision: %v", err)
	}
}

func TestTransitionsDoNotAliasCallerEvents(t *testing.T) {
	topic := newTestTopic(t)
	// Spare capacity plus a future-dated event: an in-place append and sort
	// would reorder the caller's backing array.
	later := models.TopicEvent{ID: "later", Type: models.EventSkipped, At: baseTime.Add(72 * time.Hour)}
	events := make([]models.TopicEvent, 0, 8)
	events = append(events, topic.Events[0], later)
	topic.Events = events

	if _, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: baseTime.Add(24 * time.Hour), Quality: models.QualityEasy}); err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if len(topic.Events) != 2 || topic.Events[1].ID != "later" {
		t.Fatalf("caller snapshot mutated by review: %+v", topic.Events)
	}

	if _, err := RecordSkip(topic, nil, adaptivePrefs, SkipInput{At: baseTime.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("RecordSkip: %v", err)
	}
	if len(topic.Events) != 2 || topic.Events[1].ID != "later" {
		t.Fatalf("caller snapshot mutated by skip: %+v", topic.Events)
	}
}

func TestRecordReviewFallsBackToPreferencesTrigger(t *testing.T) {
	topic := newTestTopic(t)
	topic.RetrievabilityTarget = 0
	prefs := Preferences{Mode: models.ScheduleAdaptive, ReviewTrigger: 0.9}

	at := topic.NextReviewDate
	res, err := RecordReview(topic, nil, prefs, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if e := res.Event; e.TargetRetrievability == nil || *e.TargetRetrievability != 0.9 {
		t.Fatalf("target = %v, want the preferences' trigger", e.TargetRetrievability)
	}
	wantNext := at.Add(curve.Interval(res.Topic.Stability, 0.9))
	if !res.Topic.NextReviewDate.Equal(wantNext) {
		t.Fatalf("next review = %v, want %v", res.Topic.NextReviewDate, wantNext)
	}
}

func TestRecordSkipPushesCheckpoint(t *testing.T) {
	topic := newTestTopic(t)
	topic.ScheduleMode = models.ScheduleFixed
	at := topic.NextReviewDate.Add(2 * time.Hour)

	res, err := RecordSkip(topic, nil, fixed, SkipInput{At: at})
	if err != nil {
		t.Fatalf("RecordSkip: %v", err)
	}
	if want := at.Add(time.Duration(topic.CurrentInterval()) * 24 * time.Hour); !res.Topic.NextReviewDate.Equal(want) {
		t.Fatalf("next review = %v, want %v", res.Topic.NextReviewDate, want)
	}
	if res.Topic.ReviewsCount != topic.ReviewsCount {
		t.Fatal("skip must not count as a review")
	}
	if res.Topic.Stability != topic.Stability {
		t.Fatal("skip must not touch stability")
	}
	if res.Event.Type != models.EventSkipped {
		t.Fatalf("event type = %q", res.Event.Type)
	}
}

func TestRecordSkipHonorsExamCeiling(t *testing.T) {
	topic := newTestTopic(t)
	at := topic.NextReviewDate
	exam := at.Add(6 * time.Hour)

	res, err := RecordSkip(topic, &models.Subject{ExamDate: &exam}, adaptivePrefs, SkipInput{At: at})
	if err != nil {
		t.Fatalf("RecordSkip: %v", err)
	}
	if res.Topic.NextReviewDate.After(exam) {
		t.Fatalf("skip pushed past the exam: %v", res.Topic.NextReviewDate)
	}
}

func TestMergeHistorySameDayKeepsHighestQuality(t *testing.T) {
	topic := newTestTopic(t)
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	edits := []HistoryEdit{
		{At: day.Add(9 * time.Hour), Quality: models.QualityHard},
		{At: day.Add(20 * time.Hour), Quality: models.QualityEasy},
		{At: day.Add(48 * time.Hour), Quality: models.QualityHard},
	}

	res, err := MergeHistoryEdits(topic, nil, adaptivePrefs, edits, time.UTC)
	if err != nil {
		t.Fatalf("MergeHistoryEdits: %v", err)
	}

	reviewed := models.ReviewedEvents(res.Topic.Events)
	if len(reviewed) != 2 {
		t.Fatalf("reviewed events = %d, want 2 after the same-day merge", len(reviewed))
	}
	if *reviewed[0].Quality != models.QualityEasy {
		t.Fatalf("merged day kept quality %v, want easy", *reviewed[0].Quality)
	}
	if len(res.MergedDays) != 1 || res.MergedDays[0] != "2024-03-12" {
		t.Fatalf("merged days = %v", res.MergedDays)
	}
	if res.Topic.ReviewsCount != 2 {
		t.Fatalf("reviews count = %d after replay", res.Topic.ReviewsCount)
	}
}

func TestMergeHistoryRejectsEntryAfterExam(t *testing.T) {
	topic := newTestTopic(t)
	exam := baseTime.Add(5 * 24 * time.Hour)
	edits := []HistoryEdit{{At: exam.Add(24 * time.Hour), Quality: models.QualityEasy}}

	var ve *ValidationError
	_, err := MergeHistoryEdits(topic, &models.Subject{ExamDate: &exam}, adaptivePrefs, edits, time.UTC)
	if !errors.As(err, &ve) {
		t.Fatalf("entry after exam: got %v", err)
	}
}

func TestMergeHistoryReplaysSchedule(t *testing.T) {
	topic := newTestTopic(t)
	// Pollute the derived state so the replay has something to overwrite.
	topic.Stability = 99
	topic.ReviewsCount = 7

	edits := []HistoryEdit{
		{At: baseTime.Add(24 * time.Hour), Quality: models.QualityEasy},
		{At: baseTime.Add(4 * 24 * time.Hour), Quality: models.QualityEasy},
	}
	res, err := MergeHistoryEdits(topic, nil, adaptivePrefs, edits, time.UTC)
	if err != nil {
		t.Fatalf("MergeHistoryEdits: %v", err)
	}

	want := curve.DefaultStabilityDays * 1.125 * 1.125
	if math.Abs(res.Topic.Stability-want) > 1e-9 {
		t.Fatalf("replayed stability = %v, want %v", res.Topic.Stability, want)
	}
	if res.Topic.ReviewsCount != 2 {
		t.Fatalf("replayed reviews count = %d", res.Topic.ReviewsCount)
	}
	last := edits[1].At
	wantNext := last.Add(curve.Interval(want, curve.DefaultRetrievabilityTarget))
	if !res.Topic.NextReviewDate.Equal(wantNext) {
		t.Fatalf("replayed next review = %v, want %v", res.Topic.NextReviewDate, wantNext)
	}
	if res.Topic.LastReviewedAt == nil || !res.Topic.LastReviewedAt.Equal(last) {
		t.Fatalf("last reviewed at = %v", res.Topic.LastReviewedAt)
	}
}

func TestMergeHistoryPreservesEditedEventID(t *testing.T) {
	topic := newTestTopic(t)
	edits := []HistoryEdit{{ID: "keep-me", At: baseTime.Add(24 * time.Hour), Quality: models.QualityHard}}

	res, err := MergeHistoryEdits(topic, nil, adaptivePrefs, edits, time.UTC)
	if err != nil {
		t.Fatalf("MergeHistoryEdits: %v", err)
	}
	reviewed := models.ReviewedEvents(res.Topic.Events)
	if len(reviewed) != 1 || reviewed[0].ID != "keep-me" {
		t.Fatalf("event identity lost: %+v", reviewed)
	}
}

func TestMergeHistoryEmptyFallsBackToLadder(t *testing.T) {
	topic := newTestTopic(t)
	at := topic.NextReviewDate
	reviewedOnce, err := RecordReview(topic, nil, adaptivePrefs, ReviewInput{At: at, Quality: models.QualityEasy})
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	res, err := MergeHistoryEdits(reviewedOnce.Topic, nil, adaptivePrefs, nil, time.UTC)
	if err != nil {
		t.Fatalf("MergeHistoryEdits: %v", err)
	}
	if len(models.ReviewedEvents(res.Topic.Events)) != 0 {
		t.Fatal("reviewed history should be empty")
	}
	if res.Topic.ReviewsCount != 0 || res.Topic.Stability != curve.DefaultStabilityDays {
		t.Fatalf("derived state not reset: count=%d stability=%v", res.Topic.ReviewsCount, res.Topic.Stability)
	}
	wantNext := res.Topic.Anchor().Add(time.Duration(res.Topic.IntervalAt(0)) * 24 * time.Hour)
	if !res.Topic.NextReviewDate.Equal(wantNext) {
		t.Fatalf("fallback next review = %v, want %v", res.Topic.NextReviewDate, wantNext)
	}
	// The started event survives the rewrite.
	if len(res.Topic.Events) != 1 || res.Topic.Events[0].Type != models.EventStarted {
		t.Fatalf("lifecycle events lost: %+v", res.Topic.Events)
	}
}
