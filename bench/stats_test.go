package bench

import "testing"

func TestNearestRank(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := nearestRank(values, 50); got != 50 {
		t.Fatalf("expected p50 of 50, got %v", got)
	}
	if got := nearestRank(values, 95); got != 100 {
		t.Fatalf("expected p95 of 100, got %v", got)
	}
	if got := nearestRank(values, 1); got != 10 {
		t.Fatalf("expected p1 of 10, got %v", got)
	}
	if got := nearestRank(nil, 50); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	stats := summarize([]float64{30, 10, 20})
	if stats.N != 3 {
		t.Fatalf("expected 3 samples, got %d", stats.N)
	}
	if stats.MinNSOp != 10 || stats.MaxNSOp != 30 {
		t.Fatalf("unexpected min/max %v/%v", stats.MinNSOp, stats.MaxNSOp)
	}
	if stats.P50NSOp != 20 {
		t.Fatalf("expected p50 of 20, got %v", stats.P50NSOp)
	}
	if stats.MeanNSOp != 20 {
		t.Fatalf("expected mean of 20, got %v", stats.MeanNSOp)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := summarize(nil)
	if stats.N != 0 || stats.MeanNSOp != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
