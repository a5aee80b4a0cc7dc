package render

import (
	"errors"
	"math"
	"testing"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 72.5, want: 72.5},
		{in: 0, want: 0},
		{in: 100, want: 100},
		{in: -5, want: 0},
		{in: 130, want: 100},
		{in: math.NaN(), want: 0},
		{in: math.Inf(1), want: 100},
		{in: math.Inf(-1), want: 0},
	}

	for _, tt := range tests {
		if got := ClampPercent(tt.in); got != tt.want {
			t.Errorf("ClampPercent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorOfCycles(t *testing.T) {
	if ColorOf(0) != ColorOf(len(Palette)) {
		t.Error("Expected palette to cycle")
	}
	if ColorOf(0) == ColorOf(1) {
		t.Error("Expected adjacent indexes to differ")
	}
	if ColorOf(-1) != ColorOf(len(Palette)-1) {
		t.Error("Expected negative indexes to wrap from the end")
	}
	_ = ColorOf(math.MinInt)
	_ = ColorOf(math.MaxInt)

	c := ColorOf(0)
	if c.R != 0x34 || c.G != 0xD3 || c.B != 0x99 {
		t.Errorf("unexpected first palette colour %+v", c)
	}
}

func TestBars(t *testing.T) {
	if _, err := Bars(nil, nil, 400, 300); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if _, err := Bars([]string{"a"}, []float64{1, 2}, 400, 300); err == nil {
		t.Error("Expected mismatched series error")
	}

	img, err := Bars([]string{"Data Structures (CS101)", "Algorithms (CS102)"}, []float64{72.5, 60}, 400, 300)
	if err != nil {
		t.Fatalf("Bars() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("Expected 400x300, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPie(t *testing.T) {
	if _, err := Pie([]string{"low", "high"}, []int{0, 0}, nil, 300, 300); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}

	img, err := Pie([]string{"low", "medium", "high"}, []int{10, 0, 2}, ColorOf, 300, 300)
	if err != nil {
		t.Fatalf("Pie() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 300 {
		t.Errorf("Expected 300x300, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRendererRender(t *testing.T) {
	rate := 90.0
	batch := models.Batch{Branch: "CS", Year: 2024, Semester: 4}
	tests := []struct {
		name string
		view View
	}{
		{
			name: "no analytics",
			view: View{Batch: batch, FacultyName: "Faculty"},
		},
		{
			name: "empty analytics",
			view: View{Batch: batch, Analytics: &models.Analytics{Batch: batch, Risk: models.RiskDistribution{Labels: []string{"low"}, Values: []int{0}}}},
		},
		{
			name: "full analytics",
			view: View{Batch: batch, FacultyName: "Dr. Rao", Analytics: &models.Analytics{
				Batch: batch,
				Subjects: []models.SubjectCard{
					{Code: "CS101", Name: "Data Structures", Average: 72.5, Count: 40, PassRate: &rate},
					{Code: "CS102", Name: "Algorithms", Average: 130, Count: 38},
				},
				Risk: models.RiskDistribution{Labels: []string{"low", "medium"}, Values: []int{10, 5}, Total: 15},
			}},
		},
	}

	r := NewRenderer(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Render(tt.view)
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != baseWidth {
				t.Errorf("Expected width %d, got %d", baseWidth, b.Dx())
			}
			if b.Dy() != r.Height(tt.view) {
				t.Errorf("Expected height %d, got %d", r.Height(tt.view), b.Dy())
			}
		})
	}
}

func TestRendererScale(t *testing.T) {
	v := View{Batch: models.Batch{Branch: "CS", Year: 2024, Semester: 4}}

	one := NewRenderer(1)
	two := NewRenderer(0)
	if two.Scale != DefaultScale {
		t.Errorf("Expected default scale %.1f, got %.1f", DefaultScale, two.Scale)
	}
	if two.Height(v) != 2*one.Height(v) {
		t.Errorf("Expected doubled height, got %d vs %d", two.Height(v), one.Height(v))
	}
}
