package models

// Quality grades how well a topic was recalled during a review.
// The values are probabilities, not ordinals: they feed directly into
// the stability update and the historical average used by the risk scorer.
type Quality float64

const (
	// QualityForgot - the topic could not be recalled
	QualityForgot Quality = 0
	// QualityHard - recalled with significant effort
	QualityHard Quality = 0.5
	// QualityEasy - recalled without hesitation
	QualityEasy Quality = 1
)

// Valid reports whether q is one of the three supported grades.
func (q Quality) Valid() bool {
	return q == QualityForgot || q == QualityHard || q == QualityEasy
}

// Label returns the human-readable name for the grade.
func (q Quality) Label() string {
	switch q {
	case QualityForgot:
		return "forgot"
	case QualityHard:
		return "hard"
	case QualityEasy:
		return "easy"
	default:
		return "unknown"
	}
}

// ParseQuality converts a user-supplied token into a Quality.
// Accepts the labels, single-letter shortcuts and numeric forms.
func ParseQuality(token string) (Quality, bool) {
	switch token {
	case "easy", "e", "1":
		return QualityEasy, true
	case "hard", "h", "0.5":
		return QualityHard, true
	case "forgot", "f", "0":
		return QualityForgot, true
	}
	return 0, false
}

// AutoAdjustPreference governs whether a review logged before the scheduled
// date is allowed to shift the future plan.
type AutoAdjustPreference string

const (
	AutoAdjustAlways AutoAdjustPreference = "always"
	AutoAdjustNever  AutoAdjustPreference = "never"
	AutoAdjustAsk    AutoAdjustPreference = "ask"
)

// ScheduleMode selects which strategy produces the next review date.
type ScheduleMode string

const (
	// ScheduleAdaptive derives intervals from stability and the review trigger.
	ScheduleAdaptive ScheduleMode = "adaptive"
	// ScheduleFixed walks the topic's fixed interval ladder.
	ScheduleFixed ScheduleMode = "fixed"
)
