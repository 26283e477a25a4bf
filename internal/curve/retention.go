// Package curve implements the exponential-decay forgetting model: the
// retention function, its inverse (the required interval), the stability
// transition, and the composite risk score built on top of them.
//
// Everything here is pure. The model is a single exponential on purpose -
// unlike multi-component spaced-repetition algorithms it stays invertible and
// auditable, which is what the scheduler and the curve renderer rely on.
package curve

import (
	"math"
	"time"
)

// DayDuration is one nominal day. Schedule arithmetic works in absolute
// durations, never in calendar days, so DST shifts cannot bend intervals.
const DayDuration = 24 * time.Hour

const (
	// StabilityMinDays is the smallest stability the model operates on.
	// Divisions and clamps floor to it before use.
	StabilityMinDays = 0.25
	// StabilityMaxDays caps stability at ten years.
	StabilityMaxDays = 3650

	// DefaultStabilityDays seeds a freshly created topic.
	DefaultStabilityDays = 1
	// DefaultRetrievabilityTarget is the retention threshold a review is
	// sized for when the user has not chosen one.
	DefaultRetrievabilityTarget = 0.7
	// DefaultRetentionFloor is the asymptote used when charting: the model
	// assumes some residual recognition never decays away.
	DefaultRetentionFloor = 0.2

	// ReviewTriggerMin and ReviewTriggerMax bound the configurable review
	// trigger. Below 0.5 the solved intervals grow absurd; above 0.95 the
	// schedule degenerates toward daily reviews. Tunable, not load-bearing.
	ReviewTriggerMin = 0.5
	ReviewTriggerMax = 0.95

	// minIntervalDays is the smallest interval IntervalDays returns (15 min).
	minIntervalDays = StabilityMinDays / 24
)

func clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}

// Retrievability computes the modeled recall probability after elapsed time.
//
//	R = floor + (1-floor) * exp(-elapsedDays / stability)
//
// Stability is floored to StabilityMinDays before dividing, the floor is
// clamped to [0, 0.95], negative elapsed counts as zero, and the result stays
// within [floor, 1]. A non-finite result degrades to 0 rather than failing:
// this is a best-effort prediction, not a correctness-critical value.
func Retrievability(stabilityDays float64, elapsed time.Duration, floor float64) float64 {
	safeStability := math.Max(stabilityDays, StabilityMinDays)
	elapsedDays := math.Max(0, elapsed.Hours()/24)
	safeFloor := clamp(floor, 0, 0.95)
	retention := safeFloor + (1-safeFloor)*math.Exp(-elapsedDays/safeStability)
	if math.IsNaN(retention) || math.IsInf(retention, 0) {
		return 0
	}
	return clamp(retention, safeFloor, 1)
}

// IntervalDays solves R(t) = target for t:
//
//	t = -stability * ln(target)
//
// The target is clamped to [0.01, 0.99] to keep the logarithm finite and the
// result is floored to a small positive minimum, so an interval is never zero.
func IntervalDays(stabilityDays, targetRetrievability float64) float64 {
	safeTarget := clamp(targetRetrievability, 0.01, 0.99)
	safeStability := math.Max(stabilityDays, StabilityMinDays)
	interval := -safeStability * math.Log(safeTarget)
	return math.Max(interval, minIntervalDays)
}

// Interval is IntervalDays expressed as a duration.
func Interval(stabilityDays, targetRetrievability float64) time.Duration {
	return time.Duration(IntervalDays(stabilityDays, targetRetrievability) * float64(DayDuration))
}

// UpdateStability applies one review outcome to the memory stability:
//
//	S' = S * (1 + alpha*(quality-0.5))
//
// Quality 1 grows stability, 0 shrinks it and 0.5 leaves it untouched. The
// result is clamped to [StabilityMinDays, StabilityMaxDays].
func UpdateStability(stabilityDays, quality, alpha float64) float64 {
	next := stabilityDays * (1 + alpha*(quality-0.5))
	return clamp(next, StabilityMinDays, StabilityMaxDays)
}

// ClampStability bounds a stored stability into the model's working range.
func ClampStability(stabilityDays float64) float64 {
	return clamp(stabilityDays, StabilityMinDays, StabilityMaxDays)
}

// ClampTrigger bounds a configured review trigger.
func ClampTrigger(trigger float64) float64 {
	return clamp(trigger, ReviewTriggerMin, ReviewTriggerMax)
}
