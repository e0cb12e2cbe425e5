package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/chapterbar/internal/style"
	"github.com/ivlev/chapterbar/internal/video"
)

// Config holds the export settings after flags and the project file are
// merged.
type Config struct {
	InputPath    string
	OutputVideo  string
	Width        int
	Height       int
	FPS          float64
	Format       string
	VideoEncoder string // empty: chosen per format
	Quality      int    // 0: encoder default
	QueueDepth   int    // 0: sized from free memory
	Preset       string
	FFmpegPath   string
	ShowStats    bool
	BuildVersion string
}

func Default() *Config {
	return &Config{
		Width:      1920,
		Height:     1080,
		FPS:        30,
		Format:     "webm",
		QueueDepth: 3,
	}
}

// Presets lists the names accepted by ApplyPreset.
func Presets() []string {
	return []string{"1080p", "720p", "strip"}
}

// ApplyPreset sets the frame size. "strip" keeps the width and shrinks the
// height to the bar plus its margin above and below.
func (c *Config) ApplyPreset(name string, st style.Style) error {
	switch name {
	case "":
		return nil
	case "1080p":
		c.Width, c.Height = 1920, 1080
	case "720p":
		c.Width, c.Height = 1280, 720
	case "strip":
		c.Height = st.BarHeight + 2*st.TopMargin
	default:
		return fmt.Errorf("unknown preset %q (use %s)", name, strings.Join(Presets(), ", "))
	}
	c.Preset = name
	return nil
}

// Normalize rounds the frame size up to even numbers, which every
// yuv420 encoder needs.
func (c *Config) Normalize() {
	if c.Width%2 != 0 {
		c.Width++
	}
	if c.Height%2 != 0 {
		c.Height++
	}
	c.Format = strings.ToLower(strings.TrimPrefix(c.Format, "."))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height))
	}
	if !(c.FPS > 0) || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps must be in (0, 240], got %v", c.FPS))
	}
	if !contains(video.Formats(), c.Format) {
		errs = append(errs, fmt.Errorf("unsupported format %q (use %s)", c.Format, strings.Join(video.Formats(), ", ")))
	}
	if c.Format == "avi" && c.FPS != float64(int(c.FPS)) {
		errs = append(errs, fmt.Errorf("avi needs an integer fps, got %v", c.FPS))
	}
	if c.Quality < 0 {
		errs = append(errs, fmt.Errorf("quality must not be negative, got %d", c.Quality))
	}
	if c.QueueDepth < 0 || c.QueueDepth > 8 {
		errs = append(errs, fmt.Errorf("queue depth must be in [0, 8], got %d", c.QueueDepth))
	}
	return errors.Join(errs...)
}

// Apply copies the non-zero settings of a project's video section.
func (c *Config) Apply(v *Video) {
	if v == nil {
		return
	}
	if v.Width > 0 {
		c.Width = v.Width
	}
	if v.Height > 0 {
		c.Height = v.Height
	}
	if v.FPS > 0 {
		c.FPS = v.FPS
	}
	if v.Format != "" {
		c.Format = v.Format
	}
	if v.Codec != "" {
		c.VideoEncoder = v.Codec
	}
	if v.Quality > 0 {
		c.Quality = v.Quality
	}
	if v.Preset != "" {
		c.Preset = v.Preset
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
