package timeline

import (
	"math"
	"time"

	"github.com/example/revise/internal/curve"
	"github.com/example/revise/pkg/models"
)

// connectorSpan bounds the short run-in curve drawn right before a stitch.
const connectorSpan = 6 * time.Hour

// connectorPoints is the sample count of one connector.
const connectorPoints = 16

// Stitch describes the instantaneous jump back to full retention at the
// moment of a review, so a renderer can draw the refresh cliff without a
// discontinuity artifact.
type Stitch struct {
	ID   string    `json:"id"`
	T    time.Time `json:"t"`
	From float64   `json:"from"`
	To   float64   `json:"to"`
}

// Connector is the short tail of the previous segment's curve that leads
// into a stitch.
type Connector struct {
	StitchID string  `json:"stitchId"`
	Points   []Point `json:"points"`
}

// NowPoint marks current retention on the active segment. ZeroHorizon is the
// instant the raw decay would reach one percent, useful for x-axis sizing.
type NowPoint struct {
	T           time.Time `json:"t"`
	R           float64   `json:"r"`
	ZeroHorizon time.Time `json:"zeroHorizon"`
}

// Series is everything a renderer needs for one topic: its ordered segments
// plus the stitches and connectors between historical segments and the
// current retention marker.
type Series struct {
	TopicID    string
	TopicTitle string
	Segments   []Segment
	Stitches   []Stitch
	Connectors []Connector
	NowPoint   *NowPoint
	// Skips carries the skipped events so charts can annotate them.
	Skips []models.TopicEvent
}

// BuildSeries assembles the full chart series for a topic at the given
// instant. Floor folds the retention floor into every sampled value; pass
// curve.DefaultRetentionFloor for on-screen charts.
func BuildSeries(topic *models.Topic, now time.Time, floor float64) Series {
	segments := BuildSegments(topic, now)
	series := Series{
		TopicID:    topic.ID,
		TopicTitle: topic.Title,
		Segments:   segments,
	}

	for i := 1; i < len(segments); i++ {
		prev := segments[i-1]
		seg := segments[i]
		reviewAt := seg.Start.At

		stitch := Stitch{
			ID:   "stitch-" + seg.Start.ID,
			T:    reviewAt,
			From: prev.retention(reviewAt, floor),
			To:   1,
		}
		series.Stitches = append(series.Stitches, stitch)
		series.Connectors = append(series.Connectors, connector(prev, stitch, floor))
	}

	active := segments[len(segments)-1]
	if !active.IsHistorical && !now.Before(active.Start.At) {
		stability := math.Max(active.StabilityDays, curve.StabilityMinDays)
		horizonDays := stability * math.Log(100)
		series.NowPoint = &NowPoint{
			T:           now,
			R:           active.retention(now, floor),
			ZeroHorizon: active.Start.At.Add(time.Duration(horizonDays * float64(curve.DayDuration))),
		}
	}

	for _, event := range topic.Events {
		if event.Type == models.EventSkipped {
			series.Skips = append(series.Skips, event)
		}
	}
	return series
}

// connector samples the closing stretch of the previous segment so the curve
// visually runs into the stitch instead of stopping a pixel short.
func connector(prev Segment, stitch Stitch, floor float64) Connector {
	span := connectorSpan
	if total := stitch.T.Sub(prev.Start.At); total < span {
		span = total
	}
	start := stitch.T.Add(-span)

	points := make([]Point, 0, connectorPoints+1)
	step := span / connectorPoints
	if step <= 0 {
		step = time.Second
	}
	for at := start; at.Before(stitch.T); at = at.Add(step) {
		points = append(points, Point{T: at, R: prev.retention(at, floor)})
	}
	points = append(points, Point{T: stitch.T, R: stitch.From})
	return Connector{StitchID: stitch.ID, Points: points}
}
