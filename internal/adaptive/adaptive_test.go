package adaptive

import (
	"math"
	"testing"
	"time"

	"github.com/example/revise/internal/curve"
)

var anchor = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestProjectEmitsBoundedSchedule(t *testing.T) {
	got := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7})
	if len(got) != MaxProjectedReviews {
		t.Fatalf("unbounded projection emitted %d checkpoints, want %d", len(got), MaxProjectedReviews)
	}
}

func TestProjectChronology(t *testing.T) {
	got := Project(Options{Anchor: anchor, StabilityDays: 2, ReviewTrigger: 0.7, MaxReviews: 10})
	prev := anchor
	for i, cp := range got {
		if !cp.Date.After(prev) {
			t.Fatalf("checkpoint %d not after its predecessor: %v", i, cp.Date)
		}
		if cp.IntervalDays <= 0 {
			t.Fatalf("checkpoint %d has non-positive interval %v", i, cp.IntervalDays)
		}
		prev = cp.Date
	}
}

func TestProjectStabilityGrowth(t *testing.T) {
	got := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7, MaxReviews: 5, Alpha: 0.25})
	for i := 1; i < len(got); i++ {
		if got[i].StabilityDays <= got[i-1].StabilityDays {
			t.Fatalf("stability not growing at %d: %v <= %v", i, got[i].StabilityDays, got[i-1].StabilityDays)
		}
		want := got[i-1].StabilityDays * 1.25
		if math.Abs(got[i].StabilityDays-want) > 1e-9 {
			t.Fatalf("growth factor wrong at %d: got %v want %v", i, got[i].StabilityDays, want)
		}
	}
}

func TestProjectLapseBudget(t *testing.T) {
	plain := Project(Options{Anchor: anchor, StabilityDays: 4, ReviewTrigger: 0.7, MaxReviews: 4})
	lapsed := Project(Options{Anchor: anchor, StabilityDays: 4, ReviewTrigger: 0.7, MaxReviews: 4, Lapses: 1})

	// The first checkpoint is identical; the penalty only shows from the
	// second one on, and exactly one lapse is burned.
	if plain[0].StabilityDays != lapsed[0].StabilityDays {
		t.Fatalf("lapse applied too early")
	}
	if lapsed[1].StabilityDays >= plain[1].StabilityDays {
		t.Fatalf("lapse penalty missing: %v >= %v", lapsed[1].StabilityDays, plain[1].StabilityDays)
	}
	ratio := lapsed[1].StabilityDays / plain[1].StabilityDays
	if math.Abs(ratio-(1-DefaultLapseBeta)) > 1e-9 {
		t.Fatalf("lapse ratio = %v, want %v", ratio, 1-DefaultLapseBeta)
	}
}

func TestProjectExamCeiling(t *testing.T) {
	exam := anchor.Add(30 * 24 * time.Hour)
	got := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7, ExamDate: &exam})
	if len(got) == 0 {
		t.Fatal("expected at least one checkpoint before the exam")
	}
	for _, cp := range got {
		if cp.Date.After(exam) {
			t.Fatalf("checkpoint %d projected past the exam: %v", cp.Index, cp.Date)
		}
	}
}

func TestProjectExamTooCloseForAnyCheckpoint(t *testing.T) {
	// A 10-day stability with a 0.7 trigger wants ~3.6 days; an exam 2 days
	// out leaves no room at all.
	exam := anchor.Add(2 * 24 * time.Hour)
	got := Project(Options{Anchor: anchor, StabilityDays: 10, ReviewTrigger: 0.7, ExamDate: &exam})
	if len(got) != 0 {
		t.Fatalf("expected no checkpoints, got %d", len(got))
	}
}

func TestProjectRetentionMatchesTrigger(t *testing.T) {
	got := Project(Options{Anchor: anchor, StabilityDays: 5, ReviewTrigger: 0.8, MaxReviews: 3, Floor: 0})
	for _, cp := range got {
		if math.Abs(cp.Retention-0.8) > 1e-2 {
			t.Fatalf("pre-review retention %v, want the 0.8 trigger", cp.Retention)
		}
	}
}

func TestProjectIndexContinuesReviewCount(t *testing.T) {
	got := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7, ReviewsCount: 7, MaxReviews: 2})
	if got[0].Index != 8 || got[1].Index != 9 {
		t.Fatalf("indices = %d, %d, want 8, 9", got[0].Index, got[1].Index)
	}
}

func TestProjectClampsTrigger(t *testing.T) {
	wild := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.999, MaxReviews: 1})
	clamped := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: curve.ReviewTriggerMax, MaxReviews: 1})
	if !wild[0].Date.Equal(clamped[0].Date) {
		t.Fatalf("trigger not clamped: %v vs %v", wild[0].Date, clamped[0].Date)
	}
}

func TestNext(t *testing.T) {
	cp := Next(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7})
	if cp == nil {
		t.Fatal("expected a checkpoint")
	}
	full := Project(Options{Anchor: anchor, StabilityDays: 1, ReviewTrigger: 0.7, MaxReviews: 5})
	if !cp.Date.Equal(full[0].Date) {
		t.Fatalf("Next disagrees with Project: %v vs %v", cp.Date, full[0].Date)
	}

	exam := anchor.Add(time.Hour)
	if got := Next(Options{Anchor: anchor, StabilityDays: 10, ReviewTrigger: 0.7, ExamDate: &exam}); got != nil {
		t.Fatalf("expected nil next checkpoint under an immediate exam, got %+v", got)
	}
}
