package models

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoBatch is returned when a view needs a batch and none is selected
var ErrNoBatch = errors.New("no batch selected")

// Batch identifies which cohort's data is in view
type Batch struct {
	Branch   string `json:"branch" yaml:"branch"`
	Year     int    `json:"year" yaml:"year"`
	Semester int    `json:"semester" yaml:"semester"`
}

// Validate checks the batch can be sent to the results backend
func (b Batch) Validate() error {
	if strings.TrimSpace(b.Branch) == "" {
		return fmt.Errorf("branch is required")
	}
	if b.Year <= 0 {
		return fmt.Errorf("year must be a positive integer, got %d", b.Year)
	}
	if b.Semester <= 0 {
		return fmt.Errorf("semester must be a positive integer, got %d", b.Semester)
	}
	return nil
}

// Label is the human readable form shown in page headers
func (b Batch) Label() string {
	return fmt.Sprintf("%s — %d — Sem %d", b.Branch, b.Year, b.Semester)
}

// Query returns the query parameters the graph endpoints expect
func (b Batch) Query() url.Values {
	q := url.Values{}
	q.Set("branch", strings.TrimSpace(b.Branch))
	q.Set("year", strconv.Itoa(b.Year))
	q.Set("semester", strconv.Itoa(b.Semester))
	return q
}

// SubjectCard is one subject's aggregated performance
type SubjectCard struct {
	Code     string   `json:"sub_code" yaml:"sub_code"`
	Name     string   `json:"sub_name" yaml:"sub_name"`
	Average  float64  `json:"average" yaml:"average"`
	PassRate *float64 `json:"pass_rate" yaml:"pass_rate"`
	Count    int      `json:"count" yaml:"count"`
}

// ChartLabel is the x-axis label used for the averages bar chart
func (c SubjectCard) ChartLabel() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Code)
}

// AverageLabel formats the average for display, e.g. "72.50%"
func (c SubjectCard) AverageLabel() string {
	return fmt.Sprintf("%.2f%%", c.Average)
}

// PassLabel formats the pass rate, or N/A when the backend had none
func (c SubjectCard) PassLabel() string {
	if c.PassRate == nil {
		return "Pass: N/A"
	}
	return "Pass: " + strconv.FormatFloat(*c.PassRate, 'f', -1, 64) + "%"
}

func (c SubjectCard) StudentsLabel() string {
	return fmt.Sprintf("Students: %d", max(c.Count, 0))
}

// RiskDistribution maps risk categories to student counts, in payload order
type RiskDistribution struct {
	Labels []string `json:"labels" yaml:"labels"`
	Values []int    `json:"values" yaml:"values"`
	Total  int      `json:"total_students" yaml:"total_students"`
}

// Count returns the count for a category, or 0 if it is not present
func (r RiskDistribution) Count(label string) int {
	for i, l := range r.Labels {
		if l == label && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return 0
}

// Percent returns the share of students in category i
func (r RiskDistribution) Percent(i int) float64 {
	if r.Total <= 0 || i < 0 || i >= len(r.Values) {
		return 0
	}
	return float64(r.Values[i]) / float64(r.Total) * 100
}

// Empty reports whether there is nothing worth charting
func (r RiskDistribution) Empty() bool {
	for _, v := range r.Values {
		if v > 0 {
			return false
		}
	}
	return true
}

// Analytics is the result of one fetch cycle for a batch.
// Subjects and Risk are always produced together and replaced together.
type Analytics struct {
	Batch     Batch            `json:"batch" yaml:"batch"`
	Subjects  []SubjectCard    `json:"subjects" yaml:"subjects"`
	Risk      RiskDistribution `json:"risk" yaml:"risk"`
	FetchedAt time.Time        `json:"fetched_at" yaml:"fetched_at"`
}

// BarSeries returns the labels and values for the averages bar chart
func (a *Analytics) BarSeries() ([]string, []float64) {
	labels := make([]string, 0, len(a.Subjects))
	values := make([]float64, 0, len(a.Subjects))
	for _, c := range a.Subjects {
		labels = append(labels, c.ChartLabel())
		values = append(values, c.Average)
	}
	return labels, values
}
