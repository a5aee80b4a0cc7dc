package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// Summary aggregates a batch's subject cards and risk distribution
type Summary struct {
	Subjects     int
	Students     int
	MeanAverage  float64
	MeanPassRate float64
	// PassReported counts subjects that came with a pass rate
	PassReported int
	Highest      *models.SubjectCard
	Lowest       *models.SubjectCard
	AtRisk       int
	RiskTotal    int
}

// atRiskLabels are the categories counted as at risk
var atRiskLabels = []string{"high", "medium"}

// Summarize aggregates a. Cards are expected in display order, highest
// average first.
func Summarize(a *models.Analytics) Summary {
	s := Summary{Subjects: len(a.Subjects)}

	averages := make([]float64, 0, len(a.Subjects))
	passRates := []float64{}
	for _, c := range a.Subjects {
		s.Students += max(c.Count, 0)
		averages = append(averages, c.Average)
		if c.PassRate != nil {
			passRates = append(passRates, *c.PassRate)
		}
	}
	s.MeanAverage = calculateAverage(averages)
	s.MeanPassRate = calculateAverage(passRates)
	s.PassReported = len(passRates)

	if n := len(a.Subjects); n > 0 {
		s.Highest = &a.Subjects[0]
		s.Lowest = &a.Subjects[n-1]
	}

	for _, label := range atRiskLabels {
		s.AtRisk += a.Risk.Count(label)
	}
	s.RiskTotal = a.Risk.Total

	return s
}

// AtRiskShare is the percentage of students in an at-risk category
func (s Summary) AtRiskShare() float64 {
	if s.RiskTotal <= 0 {
		return 0
	}
	return float64(s.AtRisk) / float64(s.RiskTotal) * 100
}

func (s Summary) write(w io.Writer) {
	fmt.Fprintf(w, "\nSummary\n%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Subjects: %d\n", s.Subjects)
	fmt.Fprintf(w, "Students: %d\n", s.Students)
	fmt.Fprintf(w, "Mean average: %.2f%%\n", s.MeanAverage)
	if s.PassReported > 0 {
		fmt.Fprintf(w, "Mean pass rate: %.2f%% (%d of %d subjects)\n", s.MeanPassRate, s.PassReported, s.Subjects)
	} else {
		fmt.Fprintln(w, "Mean pass rate: N/A")
	}
	if s.Highest != nil {
		fmt.Fprintf(w, "Highest: %s %s\n", s.Highest.ChartLabel(), s.Highest.AverageLabel())
		fmt.Fprintf(w, "Lowest:  %s %s\n", s.Lowest.ChartLabel(), s.Lowest.AverageLabel())
	}
	if s.RiskTotal > 0 {
		fmt.Fprintf(w, "At risk: %d of %d (%.1f%%)\n", s.AtRisk, s.RiskTotal, s.AtRiskShare())
	}
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}
