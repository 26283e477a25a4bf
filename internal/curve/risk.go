package curve

import (
	"math"
	"time"
)

// Risk weighting. The constants are asserted, not derived; they are kept
// verbatim for behavioral parity with the reference schedule and should be
// treated as tunable.
const (
	weightForgetting = 0.55
	weightOverdue    = 0.25
	weightExam       = 0.15
	weightDifficulty = 0.05

	lowQualityThreshold  = 0.75
	lowQualityBump       = 0.15
	sparseReviewsMax     = 3
	sparseReviewsBump    = 0.05
	overdueSaturationDay = 3
)

// RiskInput is the per-topic snapshot the scorer works from. Now is always
// supplied by the caller; the scorer never reads the clock.
type RiskInput struct {
	Now                  time.Time
	StabilityDays        float64
	TargetRetrievability float64
	LastReviewedAt       *time.Time
	NextReviewAt         time.Time
	ReviewsCount         int
	// AverageQuality is the historical mean review quality; HasAverage is
	// false for topics that have never been graded.
	AverageQuality float64
	HasAverage     bool
	ExamDate       *time.Time
	// DifficultyModifier scales effective stability; nil means 1.
	DifficultyModifier *float64
}

// RiskResult carries the composite score and every component so ranking UIs
// can explain the ordering.
type RiskResult struct {
	Score              float64 `json:"score"`
	ForgettingRisk     float64 `json:"forgettingRisk"`
	OverduePenalty     float64 `json:"overduePenalty"`
	ExamUrgency        float64 `json:"examUrgency"`
	DifficultyBump     float64 `json:"difficultyBump"`
	RetrievabilityNow  float64 `json:"retrievabilityNow"`
	IntervalDays       float64 `json:"intervalDays"`
	EffectiveStability float64 `json:"effectiveStability"`
}

// OverduePenalty saturates at 1 once a topic is three days late.
func OverduePenalty(overdueDays float64) float64 {
	if overdueDays <= 0 {
		return 0
	}
	return math.Min(1, overdueDays/overdueSaturationDay)
}

// ExamUrgency maps days-to-exam onto [0,1]: no exam scores 0, a passed exam
// pins 1, otherwise urgency rises as 1/days when the exam nears.
func ExamUrgency(daysToExam float64, hasExam bool) float64 {
	if !hasExam || math.IsNaN(daysToExam) || math.IsInf(daysToExam, 0) {
		return 0
	}
	if daysToExam < 0 {
		return 1
	}
	return math.Min(1, 1/math.Max(1, daysToExam))
}

// RiskScore combines forgetting risk, overdue penalty, exam urgency and a
// difficulty bump into one priority score. Higher means review sooner.
func RiskScore(in RiskInput) RiskResult {
	modifier := 1.0
	if in.DifficultyModifier != nil {
		modifier = *in.DifficultyModifier
	}
	effectiveStability := math.Max(in.StabilityDays*modifier, StabilityMinDays)

	var elapsed time.Duration
	if in.LastReviewedAt != nil {
		elapsed = in.Now.Sub(*in.LastReviewedAt)
	}
	retrievabilityNow := Retrievability(effectiveStability, elapsed, DefaultRetentionFloor)
	forgettingRisk := 1 - retrievabilityNow

	overdueDays := in.Now.Sub(in.NextReviewAt).Hours() / 24
	overduePenalty := OverduePenalty(overdueDays)

	var daysToExam float64
	hasExam := in.ExamDate != nil
	if hasExam {
		daysToExam = math.Round(in.ExamDate.Sub(in.Now).Hours() / 24)
	}
	examUrgency := ExamUrgency(daysToExam, hasExam)

	var difficultyBump float64
	if in.HasAverage && in.AverageQuality < lowQualityThreshold {
		difficultyBump += lowQualityBump
	}
	if in.ReviewsCount < sparseReviewsMax {
		// New topics are nudged up: the model has too little data on them.
		difficultyBump += sparseReviewsBump
	}

	score := weightForgetting*forgettingRisk +
		weightOverdue*overduePenalty +
		weightExam*examUrgency +
		weightDifficulty*difficultyBump

	return RiskResult{
		Score:              score,
		ForgettingRisk:     forgettingRisk,
		OverduePenalty:     overduePenalty,
		ExamUrgency:        examUrgency,
		DifficultyBump:     difficultyBump,
		RetrievabilityNow:  retrievabilityNow,
		IntervalDays:       IntervalDays(effectiveStability, in.TargetRetrievability),
		EffectiveStability: effectiveStability,
	}
}
