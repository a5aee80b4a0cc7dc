package report

import (
	"testing"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

func TestCalculateAverage(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{name: "normal scores", scores: []float64{60, 70, 80}, expected: 70},
		{name: "empty scores", scores: []float64{}, expected: 0},
		{name: "single score", scores: []float64{72.5}, expected: 72.5},
		{name: "zeros", scores: []float64{0, 0, 0}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := calculateAverage(tt.scores); result != tt.expected {
				t.Errorf("calculateAverage(%v) = %.2f, want %.2f", tt.scores, result, tt.expected)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	a := sampleAnalytics()
	a.Risk = models.RiskDistribution{
		Labels: []string{"low", "medium", "high", "unknown"},
		Values: []int{10, 5, 3, 2},
		Total:  20,
	}

	s := Summarize(a)
	if s.Subjects != 2 || s.Students != 78 {
		t.Errorf("Expected 2 subjects and 78 students, got %d and %d", s.Subjects, s.Students)
	}
	if s.MeanAverage != 66.25 {
		t.Errorf("Expected mean average 66.25, got %.2f", s.MeanAverage)
	}
	if s.PassReported != 1 || s.MeanPassRate != 85 {
		t.Errorf("Expected one reported pass rate of 85, got %d / %.2f", s.PassReported, s.MeanPassRate)
	}
	if s.Highest.Code != "CS101" || s.Lowest.Code != "CS102" {
		t.Errorf("unexpected extremes %s / %s", s.Highest.Code, s.Lowest.Code)
	}
	if s.AtRisk != 8 || s.AtRiskShare() != 40 {
		t.Errorf("Expected 8 at risk (40%%), got %d (%.1f%%)", s.AtRisk, s.AtRiskShare())
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&models.Analytics{})
	if s.Highest != nil || s.Lowest != nil || s.MeanAverage != 0 || s.AtRiskShare() != 0 {
		t.Errorf("Expected zero summary, got %+v", s)
	}
}
