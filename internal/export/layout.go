package export

import (
	"fmt"
	"math"
	"strings"
)

// Geometry is a fixed page size in points (1/72 inch)
type Geometry struct {
	Name   string
	Width  float64
	Height float64
}

// Landscape reports whether the page is wider than it is tall
func (g Geometry) Landscape() bool {
	return g.Width > g.Height
}

// Rotate swaps width and height
func (g Geometry) Rotate() Geometry {
	return Geometry{Name: g.Name, Width: g.Height, Height: g.Width}
}

var pageSizes = map[string]Geometry{
	"a3":     {Name: "A3", Width: 841.89, Height: 1190.55},
	"a4":     {Name: "A4", Width: 595.28, Height: 841.89},
	"a5":     {Name: "A5", Width: 420.94, Height: 595.28},
	"letter": {Name: "Letter", Width: 612, Height: 792},
	"legal":  {Name: "Legal", Width: 612, Height: 1008},
}

// A4 is the default portrait page
var A4 = pageSizes["a4"]

// PageSize looks up a named portrait page size
func PageSize(name string, landscape bool) (Geometry, error) {
	g, ok := pageSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Geometry{}, fmt.Errorf("unsupported page size: %s (supported: A3, A4, A5, Letter, Legal)", name)
	}
	if landscape {
		g = g.Rotate()
	}
	return g, nil
}

// Segment is a contiguous run of source pixel rows placed on one page
type Segment struct {
	Index  int
	Y      int
	Height int
}

// End is the first row after the segment
func (s Segment) End() int {
	return s.Y + s.Height
}

// Paginate splits height rows into pages holding at most capacity rows each.
// Segments are contiguous, never overlap and cover [0, height) exactly.
func Paginate(height, capacity int) ([]Segment, error) {
	if height <= 0 {
		return nil, fmt.Errorf("capture height must be positive, got %d", height)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("page capacity must be positive, got %d", capacity)
	}

	total := (height + capacity - 1) / capacity
	segments := make([]Segment, 0, total)
	for y := 0; y < height; {
		seg := min(height-y, capacity)
		segments = append(segments, Segment{Index: len(segments), Y: y, Height: seg})
		y += seg
	}
	return segments, nil
}

// PlacedPage is a segment together with where it lands on its page
type PlacedPage struct {
	Segment
	Width  float64 // points
	Height float64 // points
}

// Layout describes how a capture of Width x Height pixels is laid over pages
type Layout struct {
	Geometry   Geometry
	Width      int
	Height     int
	Ratio      float64 // capture pixels per point
	CapacityPx int
	Pages      []PlacedPage
}

// NewLayout computes the page layout for a capture
func NewLayout(width, height int, g Geometry) (Layout, error) {
	if width <= 0 {
		return Layout{}, fmt.Errorf("capture width must be positive, got %d", width)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return Layout{}, fmt.Errorf("invalid page geometry %.2fx%.2f", g.Width, g.Height)
	}

	ratio := float64(width) / g.Width
	capacity := int(math.Floor(g.Height * ratio))

	l := Layout{
		Geometry:   g,
		Width:      width,
		Height:     height,
		Ratio:      ratio,
		CapacityPx: capacity,
	}

	if height > 0 && height <= capacity {
		// whole capture on one page, scaled to page width
		l.Pages = []PlacedPage{{
			Segment: Segment{Index: 0, Y: 0, Height: height},
			Width:   g.Width,
			Height:  float64(height) / ratio,
		}}
		return l, nil
	}

	segments, err := Paginate(height, capacity)
	if err != nil {
		return Layout{}, err
	}
	l.Pages = make([]PlacedPage, 0, len(segments))
	for _, s := range segments {
		l.Pages = append(l.Pages, PlacedPage{
			Segment: s,
			Width:   g.Width,
			Height:  float64(s.Height) / ratio,
		})
	}
	return l, nil
}
