// Package timeline reconstructs per-topic retention curves from the event
// log for charting and export. Each reviewed event anchors its own decay
// segment with the stability that was in force after that review; splitting
// the curve this way mirrors how stability changes discretely at each review.
package timeline

import (
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/pkg/models"
)

// Segment is one continuous retention-decay span: from a reviewed event to
// the next review (historical, closed) or from the last review to now
// (active, open). Never-reviewed topics get a single synthetic segment from
// their start anchor to the scheduled first review.
type Segment struct {
	TopicID string
	// Start pins the decay anchor. For synthetic segments it is the topic's
	// started event.
	Start models.TopicEvent
	// End bounds the modeled span: the next review instant, or now for the
	// active segment.
	End time.Time
	// DisplayEnd extends the drawable span of the active segment to its
	// checkpoint so renderers can show the projected tail past now.
	DisplayEnd time.Time
	// CheckpointAt is the review instant this segment was scheduled toward.
	CheckpointAt time.Time
	StabilityDays float64
	Target        float64
	IsHistorical  bool
}

// Span returns the modeled duration of the segment, floored to one minute so
// degenerate zero-length segments stay sampleable.
func (s Segment) Span() time.Duration {
	span := s.End.Sub(s.Start.At)
	if span < time.Minute {
		return time.Minute
	}
	return span
}

// BuildSegments derives the chronologically ordered segment list for a
// topic. The reconstruction is idempotent: identical events yield identical
// boundaries.
func BuildSegments(topic *models.Topic, now time.Time) []Segment {
	reviews := models.ReviewedEvents(topic.Events)
	if len(reviews) == 0 {
		return []Segment{syntheticSegment(topic)}
	}

	segments := make([]Segment, 0, len(reviews))
	for i, event := range reviews {
		seg := Segment{
			TopicID:       topic.ID,
			Start:         event,
			StabilityDays: valueOr(event.ResultingStability, topic.Stability),
			Target:        valueOr(event.TargetRetrievability, topic.RetrievabilityTarget),
		}
		if event.NextReviewAt != nil {
			seg.CheckpointAt = *event.NextReviewAt
		} else {
			seg.CheckpointAt = topic.NextReviewDate
		}

		if i+1 < len(reviews) {
			seg.End = reviews[i+1].At
			seg.DisplayEnd = seg.End
			seg.IsHistorical = true
		} else {
			seg.End = now
			seg.DisplayEnd = later(now, seg.CheckpointAt)
		}
		segments = append(segments, seg)
	}
	return segments
}

// syntheticSegment covers a topic with no reviews yet: anchored at the last
// review, start or creation instant and ending at the first scheduled review.
func syntheticSegment(topic *models.Topic) Segment {
	anchor := topic.Anchor()
	start := models.TopicEvent{
		ID:   "synthetic-" + topic.ID,
		Type: models.EventStarted,
		At:   anchor,
	}
	return Segment{
		TopicID:       topic.ID,
		Start:         start,
		End:           topic.NextReviewDate,
		DisplayEnd:    topic.NextReviewDate,
		CheckpointAt:  topic.NextReviewDate,
		StabilityDays: valueOr(nil, topic.Stability),
		Target:        valueOr(nil, topic.RetrievabilityTarget),
	}
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// retention evaluates the segment's decay at an absolute instant.
func (s Segment) retention(at time.Time, floor float64) float64 {
	return curve.Retrievability(s.StabilityDays, at.Sub(s.Start.At), floor)
}
