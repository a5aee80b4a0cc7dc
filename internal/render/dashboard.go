package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// DefaultScale is the device scale factor captures are taken at
const DefaultScale = 2.0

const (
	baseWidth    = 960
	pad          = 24
	headerHeight = 104
	rowHeight    = 72
	chartHeight  = 360
	messageLine  = 40
)

// Empty-state messages
const (
	NoSubjectsMessage = "No subject data for this batch."
	NoRiskMessage     = "No risk data for this batch."
)

var (
	textColor  = color.RGBA{R: 0x1F, G: 0x29, B: 0x37, A: 0xFF}
	mutedColor = color.RGBA{R: 0x64, G: 0x74, B: 0x8B, A: 0xFF}
	trackColor = color.RGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF}
)

// View is everything a capture needs. It is passed explicitly per request.
type View struct {
	Title       string
	Batch       models.Batch
	FacultyName string
	Analytics   *models.Analytics
}

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
)

func loadFonts() {
	var err error
	if regularFont, err = opentype.Parse(goregular.TTF); err != nil {
		slog.Warn("Failed to parse regular font, using fallback", "err", err)
	}
	if boldFont, err = opentype.Parse(gobold.TTF); err != nil {
		slog.Warn("Failed to parse bold font, using fallback", "err", err)
	}
}

// Renderer composes captures of the graph analysis view. Font faces are not
// safe for concurrent use, so Render serializes callers.
type Renderer struct {
	Scale float64

	mu    sync.Mutex
	faces map[string]font.Face
}

// NewRenderer creates a renderer at the given device scale
func NewRenderer(scale float64) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	fontsOnce.Do(loadFonts)
	return &Renderer{Scale: scale, faces: make(map[string]font.Face)}
}

func (r *Renderer) px(v float64) int {
	return int(math.Round(v * r.Scale))
}

func (r *Renderer) face(bold bool, size float64) font.Face {
	key := fmt.Sprintf("%t-%.1f", bold, size)
	if f, ok := r.faces[key]; ok {
		return f
	}

	src := regularFont
	if bold {
		src = boldFont
	}
	var f font.Face = basicfont.Face7x13
	if src != nil {
		face, err := opentype.NewFace(src, &opentype.FaceOptions{
			Size:    size * r.Scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			f = face
		}
	}
	r.faces[key] = f
	return f
}

// Height returns the pixel height a capture of v will have
func (r *Renderer) Height(v View) int {
	h := pad + headerHeight
	if v.Analytics == nil || len(v.Analytics.Subjects) == 0 {
		h += messageLine + messageLine
	} else {
		h += messageLine + rowHeight*len(v.Analytics.Subjects) + chartHeight
	}
	if v.Analytics == nil || v.Analytics.Risk.Empty() {
		h += messageLine
	} else {
		h += chartHeight
	}
	return r.px(float64(h + pad))
}

// Render rasterizes v at the renderer's scale
func (r *Renderer) Render(v View) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	width := r.px(baseWidth)
	img := image.NewRGBA(image.Rect(0, 0, width, r.Height(v)))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	title := v.Title
	if title == "" {
		title = "Graph Analysis"
	}
	y := float64(pad)
	r.text(img, title, true, 22, pad, y+28, textColor)
	r.text(img, v.Batch.Label(), false, 14, pad, y+56, mutedColor)
	r.text(img, "Welcome back, "+v.FacultyName, false, 14, pad, y+80, mutedColor)
	y += headerHeight

	var subjects []models.SubjectCard
	var risk models.RiskDistribution
	if v.Analytics != nil {
		subjects = v.Analytics.Subjects
		risk = v.Analytics.Risk
	}

	r.text(img, "Subject performance", true, 16, pad, y+26, textColor)
	y += messageLine
	if len(subjects) == 0 {
		r.text(img, NoSubjectsMessage, false, 14, pad, y+24, mutedColor)
		y += messageLine
	} else {
		for i, c := range subjects {
			r.subjectRow(img, i, c, y)
			y += rowHeight
		}

		labels, values := v.Analytics.BarSeries()
		bars, err := Bars(labels, values, r.px(baseWidth-2*pad), r.px(chartHeight))
		if err != nil {
			return nil, err
		}
		r.paste(img, bars, pad, y)
		y += chartHeight
	}

	if risk.Empty() {
		r.text(img, NoRiskMessage, false, 14, pad, y+24, mutedColor)
	} else {
		pie, err := Pie(risk.Labels, risk.Values, ColorOf, r.px(baseWidth-2*pad), r.px(chartHeight))
		if err != nil {
			return nil, err
		}
		r.paste(img, pie, pad, y)
	}

	slog.Debug("Rendered capture", "batch", v.Batch.Label(), "width", width, "height", img.Bounds().Dy())
	return img, nil
}

func (r *Renderer) subjectRow(img *image.RGBA, i int, c models.SubjectCard, y float64) {
	r.text(img, c.ChartLabel(), true, 14, pad, y+20, textColor)

	avg := c.AverageLabel()
	face := r.face(true, 14)
	w := font.MeasureString(face, avg).Ceil()
	r.textPx(img, avg, face, r.px(baseWidth-pad)-w, r.px(y+20), textColor)

	track := image.Rect(r.px(pad), r.px(y+30), r.px(baseWidth-pad), r.px(y+40))
	draw.Draw(img, track, image.NewUniform(trackColor), image.Point{}, draw.Src)
	fill := track
	fill.Max.X = fill.Min.X + int(math.Round(float64(track.Dx())*ClampPercent(c.Average)/100))
	draw.Draw(img, fill, image.NewUniform(ColorOf(i)), image.Point{}, draw.Src)

	r.text(img, c.StudentsLabel()+"    "+c.PassLabel(), false, 12, pad, y+60, mutedColor)
}

func (r *Renderer) text(img *image.RGBA, s string, bold bool, size, x, y float64, c color.Color) {
	r.textPx(img, s, r.face(bold, size), r.px(x), r.px(y), c)
}

func (r *Renderer) textPx(img *image.RGBA, s string, face font.Face, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (r *Renderer) paste(dst *image.RGBA, src image.Image, x, y float64) {
	at := image.Pt(r.px(x), r.px(y))
	draw.Draw(dst, src.Bounds().Sub(src.Bounds().Min).Add(at), src, src.Bounds().Min, draw.Over)
}
