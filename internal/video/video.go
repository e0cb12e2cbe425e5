package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"sort"
	"strings"
)

// Encoder consumes frames in order and produces one encoded video.
// It must not retain a frame after WriteFrame returns.
type Encoder interface {
	WriteFrame(img *image.RGBA) error
	// Close finalizes the container and returns the encoded bytes.
	Close() ([]byte, error)
	// Abort discards everything written so far. Safe to call more than once
	// and after Close.
	Abort() error
}

// Factory opens an Encoder scoped to one export.
type Factory interface {
	Open(ctx context.Context, spec Spec) (Encoder, error)
}

// Spec describes the stream an Encoder must produce.
type Spec struct {
	Width   int
	Height  int
	FPS     float64
	Format  string // webm, mp4, mov, avi
	Codec   string // empty: chosen per format
	Quality int    // 0: encoder default
}

func (s Spec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", s.Width, s.Height)
	}
	if !(s.FPS > 0) || math.IsInf(s.FPS, 0) {
		return fmt.Errorf("invalid fps %v", s.FPS)
	}
	if _, ok := formats[s.Format]; !ok {
		return fmt.Errorf("unsupported format %q (use %s)", s.Format, strings.Join(Formats(), ", "))
	}
	return nil
}

type formatInfo struct {
	ext   string
	alpha bool
}

var formats = map[string]formatInfo{
	"webm": {ext: ".webm", alpha: true},
	"mp4":  {ext: ".mp4"},
	"mov":  {ext: ".mov", alpha: true},
	"avi":  {ext: ".avi"},
}

// Formats lists supported container names.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for name := range formats {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Ext returns the file extension for a format, including the dot.
func Ext(format string) string {
	if f, ok := formats[format]; ok {
		return f.ext
	}
	return "." + format
}

// KeepsAlpha reports whether the format preserves the transparent area
// around the bar.
func KeepsAlpha(format string) bool {
	return formats[format].alpha
}

// NewFactory picks the implementation for a format: avi is written in
// process, everything else goes through ffmpeg.
func NewFactory(format, ffmpegPath, tempDir string) (Factory, error) {
	if _, ok := formats[format]; !ok {
		return nil, fmt.Errorf("unsupported format %q (use %s)", format, strings.Join(Formats(), ", "))
	}
	if format == "avi" {
		return &MJPEGFactory{TempDir: tempDir}, nil
	}
	return &FFmpegFactory{FFmpegPath: ffmpegPath, TempDir: tempDir}, nil
}

// writeRawNRGBA writes img as tightly packed, non-premultiplied RGBA rows,
// which is what ffmpeg's rawvideo rgba input expects. buf is reused between
// frames and must have img's size.
func writeRawNRGBA(w io.Writer, buf *image.NRGBA, img image.Image) error {
	if buf.Bounds().Size() != img.Bounds().Size() {
		return fmt.Errorf("frame %v does not match stream %v", img.Bounds(), buf.Bounds())
	}
	draw.Draw(buf, buf.Bounds(), img, img.Bounds().Min, draw.Src)
	_, err := w.Write(buf.Pix)
	return err
}
