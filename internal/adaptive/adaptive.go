// Package adaptive projects future review checkpoints from a stability and
// review-trigger pair. The projection is pure and re-entrant: callers rerun it
// freely as preferences change, and a 1-review cap yields "next review only".
package adaptive

import (
	"math"
	"time"

	"github.com/example/revise/internal/curve"
)

const (
	// DefaultGrowthAlpha is the per-review stability growth factor.
	DefaultGrowthAlpha = 0.25
	// DefaultLapseBeta is the stability penalty applied per modeled lapse.
	DefaultLapseBeta = 0.15
	// MaxProjectedReviews caps the projection loop.
	MaxProjectedReviews = 48
)

// Options parameterizes one projection run.
type Options struct {
	// Anchor is the last review (or topic start) the first interval grows from.
	Anchor time.Time
	// StabilityDays is the current memory stability.
	StabilityDays float64
	// ReviewsCount numbers the emitted checkpoints after the reviews so far.
	ReviewsCount int
	// ReviewTrigger is the retention threshold each interval is solved for;
	// clamped to [curve.ReviewTriggerMin, curve.ReviewTriggerMax].
	ReviewTrigger float64
	// ExamDate, when set, is a hard ceiling: no checkpoint is projected past it.
	ExamDate *time.Time
	// MaxReviews bounds the loop; zero means MaxProjectedReviews.
	MaxReviews int
	// Alpha is the stability growth factor; zero means DefaultGrowthAlpha.
	Alpha float64
	// Beta is the lapse penalty, clamped to [0,1]; zero means DefaultLapseBeta.
	Beta float64
	// Lapses is the budget of modeled failed reviews.
	Lapses int
	// Floor is the retention floor used for the predicted pre-review retention.
	Floor float64
}

// Checkpoint is one projected future review with its predicted pre-review
// retention.
type Checkpoint struct {
	Index         int       `json:"index"`
	Date          time.Time `json:"date"`
	IntervalDays  float64   `json:"intervalDays"`
	StabilityDays float64   `json:"stabilityDays"`
	Retention     float64   `json:"retention"`
}

// Project walks the decay model forward and emits up to MaxReviews
// checkpoints. Each iteration solves the interval for the trigger retention,
// stops if the scheduled time would pass the exam date, then grows stability
// by (1+alpha) and burns one lapse from the budget at (1-beta).
func Project(opts Options) []Checkpoint {
	trigger := curve.ClampTrigger(opts.ReviewTrigger)
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = DefaultGrowthAlpha
	}
	alpha = math.Max(0, alpha)
	beta := opts.Beta
	if beta == 0 {
		beta = DefaultLapseBeta
	}
	beta = math.Min(math.Max(beta, 0), 1)

	maxReviews := opts.MaxReviews
	if maxReviews <= 0 || maxReviews > MaxProjectedReviews {
		maxReviews = MaxProjectedReviews
	}

	stability := curve.ClampStability(opts.StabilityDays)
	count := opts.ReviewsCount
	if count < 0 {
		count = 0
	}
	cursor := opts.Anchor
	remainingLapses := opts.Lapses
	if remainingLapses < 0 {
		remainingLapses = 0
	}

	var checkpoints []Checkpoint
	for i := 0; i < maxReviews; i++ {
		intervalDays := curve.IntervalDays(stability, trigger)
		interval := time.Duration(intervalDays * float64(curve.DayDuration))
		scheduled := cursor.Add(interval)
		if opts.ExamDate != nil && scheduled.After(*opts.ExamDate) {
			break
		}

		checkpoints = append(checkpoints, Checkpoint{
			Index:         count + 1,
			Date:          scheduled,
			IntervalDays:  intervalDays,
			StabilityDays: stability,
			Retention:     curve.Retrievability(stability, interval, opts.Floor),
		})

		cursor = scheduled
		count++
		stability = curve.ClampStability(stability * (1 + alpha))
		if remainingLapses > 0 {
			stability = curve.ClampStability(stability * (1 - beta))
			remainingLapses--
		}
	}
	return checkpoints
}

// Next projects only the immediately upcoming checkpoint, or nil when the
// exam ceiling leaves no room for one.
func Next(opts Options) *Checkpoint {
	opts.MaxReviews = 1
	schedule := Project(opts)
	if len(schedule) == 0 {
		return nil
	}
	return &schedule[0]
}
