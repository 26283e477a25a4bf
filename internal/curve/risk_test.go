package curve

import (
	"testing"
	"time"
)

func baseRiskInput(now time.Time) RiskInput {
	last := now.Add(-2 * DayDuration)
	return RiskInput{
		Now:                  now,
		StabilityDays:        5,
		TargetRetrievability: 0.7,
		LastReviewedAt:       &last,
		NextReviewAt:         now.Add(DayDuration),
		ReviewsCount:         5,
		AverageQuality:       0.9,
		HasAverage:           true,
	}
}

func TestOverduePenalty(t *testing.T) {
	assertFloat(t, "not overdue", OverduePenalty(-1), 0)
	assertFloat(t, "zero", OverduePenalty(0), 0)
	assertFloat(t, "one day", OverduePenalty(1), 1.0/3)
	assertFloat(t, "saturates", OverduePenalty(10), 1)
}

func TestExamUrgency(t *testing.T) {
	assertFloat(t, "no exam", ExamUrgency(0, false), 0)
	assertFloat(t, "passed", ExamUrgency(-2, true), 1)
	assertFloat(t, "3 days out", ExamUrgency(3, true), 1.0/3)
	assertFloat(t, "today", ExamUrgency(0, true), 1)
	assertFloat(t, "far out", ExamUrgency(100, true), 0.01)
}

func TestRiskScoreMonotonicInOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	prev := -1.0
	// Push the due date further into the past; the score must never drop.
	for _, overdueDays := range []float64{0, 0.5, 1, 2, 3, 5, 10} {
		in := baseRiskInput(now)
		in.NextReviewAt = now.Add(-time.Duration(overdueDays * float64(DayDuration)))
		score := RiskScore(in).Score
		if score < prev {
			t.Fatalf("score dropped at overdue=%v: %v < %v", overdueDays, score, prev)
		}
		prev = score
	}
}

func TestRiskScoreComponents(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	in := baseRiskInput(now)
	got := RiskScore(in)

	if got.OverduePenalty != 0 {
		t.Errorf("not-yet-due topic has overdue penalty %v", got.OverduePenalty)
	}
	if got.ExamUrgency != 0 {
		t.Errorf("no exam date but urgency %v", got.ExamUrgency)
	}
	if got.DifficultyBump != 0 {
		t.Errorf("well-reviewed easy topic has bump %v", got.DifficultyBump)
	}
	want := 0.55 * got.ForgettingRisk
	assertFloat(t, "score is weighted forgetting risk only", got.Score, want)
}

func TestRiskScoreDifficultyBumps(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	in := baseRiskInput(now)
	in.AverageQuality = 0.5 // below the 0.75 threshold
	if got := RiskScore(in); got.DifficultyBump != 0.15 {
		t.Errorf("low quality bump = %v, want 0.15", got.DifficultyBump)
	}

	in = baseRiskInput(now)
	in.ReviewsCount = 2 // sparse history
	if got := RiskScore(in); got.DifficultyBump != 0.05 {
		t.Errorf("sparse reviews bump = %v, want 0.05", got.DifficultyBump)
	}

	in = baseRiskInput(now)
	in.AverageQuality = 0.5
	in.ReviewsCount = 1
	if got := RiskScore(in); got.DifficultyBump != 0.2 {
		t.Errorf("combined bump = %v, want 0.2", got.DifficultyBump)
	}
}

func TestRiskScoreDifficultyModifier(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	harder := 0.5

	in := baseRiskInput(now)
	plain := RiskScore(in)

	in.DifficultyModifier = &harder
	modified := RiskScore(in)

	if modified.EffectiveStability >= plain.EffectiveStability {
		t.Errorf("modifier 0.5 should lower effective stability: %v >= %v",
			modified.EffectiveStability, plain.EffectiveStability)
	}
	if modified.ForgettingRisk <= plain.ForgettingRisk {
		t.Errorf("harder subject should raise forgetting risk")
	}
}

func TestRiskScoreExamUrgencyFeedsScore(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	in := baseRiskInput(now)
	without := RiskScore(in).Score

	exam := now.Add(2 * DayDuration)
	in.ExamDate = &exam
	with := RiskScore(in).Score

	if with <= without {
		t.Errorf("imminent exam should raise the score: %v <= %v", with, without)
	}
}

func TestRiskScoreNeverReviewed(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	in := baseRiskInput(now)
	in.LastReviewedAt = nil
	in.HasAverage = false
	in.ReviewsCount = 0

	got := RiskScore(in)
	// Zero elapsed time: retention sits at 1, all risk comes from the
	// sparse-history bump.
	assertFloat(t, "retention now", got.RetrievabilityNow, 1)
	assertFloat(t, "bump", got.DifficultyBump, 0.05)
}
