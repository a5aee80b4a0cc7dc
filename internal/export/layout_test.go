package export

import (
	"math"
	"testing"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		height   int
		capacity int
		expected []int
	}{
		{name: "three pages with remainder", height: 1000, capacity: 400, expected: []int{400, 400, 200}},
		{name: "exact multiple", height: 800, capacity: 400, expected: []int{400, 400}},
		{name: "fits on one page", height: 399, capacity: 400, expected: []int{399}},
		{name: "single row pages", height: 3, capacity: 1, expected: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := Paginate(tt.height, tt.capacity)
			if err != nil {
				t.Fatalf("Paginate() error: %v", err)
			}
			if len(segments) != len(tt.expected) {
				t.Fatalf("Expected %d segments, got %d", len(tt.expected), len(segments))
			}
			for i, s := range segments {
				if s.Height != tt.expected[i] {
					t.Errorf("segment %d: expected height %d, got %d", i, tt.expected[i], s.Height)
				}
				if s.Index != i {
					t.Errorf("segment %d: expected index %d, got %d", i, i, s.Index)
				}
			}
		})
	}
}

func TestPaginateCoversEveryRowOnce(t *testing.T) {
	for height := 1; height <= 257; height += 17 {
		for capacity := 1; capacity <= 64; capacity += 7 {
			segments, err := Paginate(height, capacity)
			if err != nil {
				t.Fatalf("Paginate(%d, %d) error: %v", height, capacity, err)
			}

			wantPages := int(math.Ceil(float64(height) / float64(capacity)))
			if len(segments) != wantPages {
				t.Errorf("Paginate(%d, %d): expected %d pages, got %d", height, capacity, wantPages, len(segments))
			}

			next, sum := 0, 0
			for _, s := range segments {
				if s.Y != next {
					t.Fatalf("Paginate(%d, %d): segment %d starts at %d, expected %d", height, capacity, s.Index, s.Y, next)
				}
				if s.Height <= 0 || s.Height > capacity {
					t.Fatalf("Paginate(%d, %d): segment %d has height %d", height, capacity, s.Index, s.Height)
				}
				next = s.End()
				sum += s.Height
			}
			if sum != height || next != height {
				t.Errorf("Paginate(%d, %d): covered %d rows ending at %d", height, capacity, sum, next)
			}
		}
	}
}

func TestPaginateRejectsInvalidInput(t *testing.T) {
	if _, err := Paginate(0, 10); err == nil {
		t.Error("Expected error for empty capture")
	}
	if _, err := Paginate(10, 0); err == nil {
		t.Error("Expected error for zero capacity")
	}
}

func TestNewLayoutSinglePage(t *testing.T) {
	g := Geometry{Name: "test", Width: 100, Height: 200}

	// ratio 2, capacity 400
	l, err := NewLayout(200, 300, g)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}

	if l.Ratio != 2 {
		t.Errorf("Expected ratio 2, got %.2f", l.Ratio)
	}
	if l.CapacityPx != 400 {
		t.Errorf("Expected capacity 400, got %d", l.CapacityPx)
	}
	if len(l.Pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(l.Pages))
	}
	p := l.Pages[0]
	if p.Width != 100 || p.Height != 150 {
		t.Errorf("Expected page placed at 100x150, got %.2fx%.2f", p.Width, p.Height)
	}
	if p.Y != 0 || p.Segment.Height != 300 {
		t.Errorf("Expected whole capture on page, got rows %d..%d", p.Y, p.End())
	}
}

func TestNewLayoutMultiPage(t *testing.T) {
	g := Geometry{Name: "test", Width: 100, Height: 200}

	// ratio 2, capacity 400: 1000 rows -> 400, 400, 200
	l, err := NewLayout(200, 1000, g)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}

	if len(l.Pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(l.Pages))
	}
	wantPoints := []float64{200, 200, 100}
	for i, p := range l.Pages {
		if p.Width != 100 {
			t.Errorf("page %d: expected width 100, got %.2f", i, p.Width)
		}
		if p.Height != wantPoints[i] {
			t.Errorf("page %d: expected height %.2f, got %.2f", i, wantPoints[i], p.Height)
		}
	}
}

func TestNewLayoutA4Capacity(t *testing.T) {
	l, err := NewLayout(1600, 5000, A4)
	if err != nil {
		t.Fatalf("NewLayout() error: %v", err)
	}

	ratio := 1600 / A4.Width
	wantCapacity := int(math.Floor(A4.Height * ratio))
	if l.CapacityPx != wantCapacity {
		t.Errorf("Expected capacity %d, got %d", wantCapacity, l.CapacityPx)
	}
	wantPages := (5000 + wantCapacity - 1) / wantCapacity
	if len(l.Pages) != wantPages {
		t.Errorf("Expected %d pages, got %d", wantPages, len(l.Pages))
	}
	for _, p := range l.Pages {
		if p.Height > A4.Height+1e-9 {
			t.Errorf("page %d overflows: %.2f > %.2f", p.Index, p.Height, A4.Height)
		}
	}
}

func TestNewLayoutRejectsInvalidInput(t *testing.T) {
	if _, err := NewLayout(0, 100, A4); err == nil {
		t.Error("Expected error for zero width")
	}
	if _, err := NewLayout(100, 0, A4); err == nil {
		t.Error("Expected error for zero height")
	}
	if _, err := NewLayout(100, 100, Geometry{}); err == nil {
		t.Error("Expected error for empty geometry")
	}
}

func TestPageSize(t *testing.T) {
	g, err := PageSize("letter", false)
	if err != nil {
		t.Fatalf("PageSize() error: %v", err)
	}
	if g.Width != 612 || g.Height != 792 {
		t.Errorf("unexpected Letter size %.2fx%.2f", g.Width, g.Height)
	}

	g, err = PageSize("A4", true)
	if err != nil {
		t.Fatalf("PageSize() error: %v", err)
	}
	if !g.Landscape() {
		t.Error("Expected landscape geometry")
	}

	if _, err := PageSize("B5", false); err == nil {
		t.Error("Expected error for unsupported size")
	}
}
