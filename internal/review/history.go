package review

import (
	"sort"
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

// HistoryEdit is one user-supplied backfilled review entry. ID is kept when
// the entry edits an existing event so its identity survives the rewrite.
type HistoryEdit struct {
	ID      string
	At      time.Time
	Quality models.Quality
}

// MergeResult is the outcome of a history rewrite.
type MergeResult struct {
	Topic models.Topic
	// MergedDays lists the local day keys on which duplicate entries were
	// collapsed, for caller-facing messaging.
	MergedDays []string
}

// MergeHistoryEdits replaces a topic's reviewed history with the supplied
// entries and replays the schedule from scratch.
//
// Entries that fall on the same local calendar day merge into one, keeping
// the highest quality for that day. Any entry dated after the subject's exam
// is a validation error and nothing is applied. Started and skipped events
// are preserved; only the reviewed set is rewritten.
func MergeHistoryEdits(topic models.Topic, subject *models.Subject, prefs Preferences, edits []HistoryEdit, loc *time.Location) (MergeResult, error) {
	if loc == nil {
		loc = time.UTC
	}
	prefs = prefs.withDefaults()

	for _, edit := range edits {
		if edit.At.IsZero() {
			return MergeResult{}, validationf("at", "history entry is missing its date")
		}
		if !edit.Quality.Valid() {
			return MergeResult{}, validationf("quality", "unsupported review quality %v", float64(edit.Quality))
		}
		if subject != nil && subject.ExamDate != nil && edit.At.After(*subject.ExamDate) {
			return MergeResult{}, validationf("at", "review on %s falls after the exam date", dates.DayKey(edit.At, loc))
		}
	}

	merged, mergedDays := mergeSameDay(edits, loc)

	// Drop the old reviewed events; lifecycle events survive the rewrite.
	kept := topic.Events[:0:0]
	for _, e := range topic.Events {
		if e.Type != models.EventReviewed {
			kept = append(kept, e)
		}
	}
	topic.Events = kept

	// Replay the schedule from the merged list. Stability and counters are
	// regenerated from scratch so the result is independent of the topic's
	// previous derived state.
	topic.Stability = curve.DefaultStabilityDays
	topic.ReviewsCount = 0
	topic.IntervalIndex = 0
	topic.LastReviewedAt = nil
	target := curve.ClampTrigger(defaultTarget(topic.RetrievabilityTarget, prefs.ReviewTrigger))
	topic.RetrievabilityTarget = target

	for _, entry := range merged {
		stability := curve.UpdateStability(topic.Stability, float64(entry.Quality), prefs.Alpha)

		var next time.Time
		index := topic.IntervalIndex
		if prefs.Mode == models.ScheduleFixed {
			index = clampIndex(topic.IntervalIndex+1, len(topic.Intervals))
			next = entry.At.Add(time.Duration(topic.IntervalAt(index)) * dates.Day)
		} else {
			next = entry.At.Add(curve.Interval(stability, target))
		}
		next = capToExam(next, entry.At, subject)

		id := entry.ID
		if id == "" {
			id = models.NewID()
		}
		q := entry.Quality
		intervalDays := next.Sub(entry.At).Hours() / 24
		at := entry.At
		topic.Events = append(topic.Events, models.TopicEvent{
			ID:                   id,
			Type:                 models.EventReviewed,
			At:                   at,
			Quality:              &q,
			IntervalDays:         &intervalDays,
			ResultingStability:   &stability,
			TargetRetrievability: &target,
			NextReviewAt:         &next,
		})

		topic.Stability = stability
		topic.IntervalIndex = index
		topic.ReviewsCount++
		topic.LastReviewedAt = &at
		topic.NextReviewDate = next
	}

	models.SortEvents(topic.Events)

	if len(merged) == 0 {
		// No reviews left: the schedule falls back to the first ladder rung
		// from the topic's start anchor.
		topic.NextReviewDate = topic.Anchor().Add(time.Duration(topic.IntervalAt(0)) * dates.Day)
		topic.NextReviewDate = capToExam(topic.NextReviewDate, topic.Anchor(), subject)
		topic.Stability = curve.DefaultStabilityDays
	}

	return MergeResult{Topic: topic, MergedDays: mergedDays}, nil
}

// mergeSameDay collapses entries sharing a local day key into one entry with
// the day's highest quality, returning the survivors in chronological order
// together with the day keys that needed merging.
func mergeSameDay(edits []HistoryEdit, loc *time.Location) ([]HistoryEdit, []string) {
	byDay := make(map[string]HistoryEdit)
	var mergedDays []string
	for _, edit := range edits {
		key := dates.DayKey(edit.At, loc)
		existing, ok := byDay[key]
		if !ok {
			byDay[key] = edit
			continue
		}
		if !contains(mergedDays, key) {
			mergedDays = append(mergedDays, key)
		}
		if edit.Quality > existing.Quality ||
			(edit.Quality == existing.Quality && edit.At.Before(existing.At)) {
			if edit.ID == "" {
				edit.ID = existing.ID
			}
			byDay[key] = edit
		}
	}

	merged := make([]HistoryEdit, 0, len(byDay))
	for _, edit := range byDay {
		merged = append(merged, edit)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].At.Before(merged[j].At) })
	sort.Strings(mergedDays)
	return merged, mergedDays
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
