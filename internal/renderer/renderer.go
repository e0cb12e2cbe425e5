package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/chapterbar/internal/style"
	"github.com/ivlev/chapterbar/internal/timeline"
)

const (
	separatorWidth = 2
	clockPadding   = 20
)

var shadowColor = color.NRGBA{0, 0, 0, 128}

// shadowOffset is the fixed drop shadow displacement in pixels.
var shadowOffset = image.Pt(2, 2)

// RenderError reports a renderer fault. The frame being drawn is discarded.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer draws progress bar frames of a fixed size for one style.
// It holds only read-only state after New, so one Renderer may be used from
// several goroutines.
type Renderer struct {
	style  style.Resolved
	width  int
	height int
	font   *opentype.Font
}

func New(st style.Style, width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, &RenderError{Op: "frame size", Err: fmt.Errorf("invalid dimensions %dx%d", width, height)}
	}
	resolved, err := st.Resolve()
	if err != nil {
		return nil, &RenderError{Op: "style", Err: err}
	}
	f, err := loadFont(st.FontFamily)
	if err != nil {
		return nil, err
	}
	return &Renderer{style: resolved, width: width, height: height, font: f}, nil
}

// Render is the one-shot form: it builds a Renderer and draws a single frame.
func Render(t float64, tl timeline.Timeline, st style.Style, width, height int) (*image.RGBA, error) {
	r, err := New(st, width, height)
	if err != nil {
		return nil, err
	}
	return r.Render(t, tl)
}

func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// Render allocates a new frame and draws t into it.
func (r *Renderer) Render(t float64, tl timeline.Timeline) (*image.RGBA, error) {
	dst := image.NewRGBA(r.Bounds())
	if err := r.RenderInto(dst, t, tl); err != nil {
		return nil, err
	}
	return dst, nil
}

// RenderInto overwrites every pixel of dst with the frame at time t.
// tl must already be validated.
func (r *Renderer) RenderInto(dst *image.RGBA, t float64, tl timeline.Timeline) error {
	if dst.Bounds() != r.Bounds() {
		return &RenderError{Op: "frame size", Err: fmt.Errorf("buffer %v does not match %v", dst.Bounds(), r.Bounds())}
	}
	face, err := newFace(r.font, r.style.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	st := r.style
	total := tl.TotalDuration
	band := image.Rect(0, st.TopMargin, r.width, st.TopMargin+st.BarHeight)

	// 1. прозрачный холст и подложка
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	fill(dst, band, st.Background)

	// 2. прогресс
	progress := band
	progress.Max.X = XAt(r.width, t, total)
	fill(dst, progress, st.Active)

	// 3. разделители глав
	for _, b := range timeline.Boundaries(tl) {
		x := XAt(r.width, b, total)
		sep := image.Rect(x-separatorWidth/2, band.Min.Y, x-separatorWidth/2+separatorWidth, band.Max.Y)
		fill(dst, sep, st.Text)
	}

	baseline := r.baseline(face, band)

	// 4. заголовок активной главы, по центру своего отрезка
	if i, ok := timeline.ChapterActiveAt(tl, t); ok {
		title := tl.Chapters[i].Title
		center := spanCenter(r.width, timeline.StartTimeOf(tl, i), tl.Chapters[i].EndTime, total)
		w := font.MeasureString(face, title)
		x := int(math.Round(center - float64(w)/64/2))
		r.drawText(dst, face, title, x, baseline)
	}

	// 5. прошедшее время, по правому краю
	clock := FormatClock(t, total)
	w := font.MeasureString(face, clock).Ceil()
	r.drawText(dst, face, clock, r.width-clockPadding-w, baseline)

	return nil
}

// baseline vertically centers a line of text inside band.
func (r *Renderer) baseline(face font.Face, band image.Rectangle) int {
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	mid := float64(band.Min.Y) + float64(band.Dy())/2
	return int(math.Round(mid + (ascent-descent)/2))
}

func (r *Renderer) drawText(dst *image.RGBA, face font.Face, s string, x, y int) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(shadowColor),
		Face: face,
		Dot:  fixed.P(x+shadowOffset.X, y+shadowOffset.Y),
	}
	d.DrawString(s)

	d.Src = image.NewUniform(r.style.Text)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func fill(dst *image.RGBA, rect image.Rectangle, c color.NRGBA) {
	if rect.Empty() || c.A == 0 {
		return
	}
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
}
