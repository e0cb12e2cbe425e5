package style

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style describes how the progress bar is drawn. Colors are hex strings.
type Style struct {
	BarHeight         int     `yaml:"bar_height"`
	TopMargin         int     `yaml:"top_margin"`
	BackgroundColor   string  `yaml:"background_color"`
	ActiveColor       string  `yaml:"active_color"`
	TextColor         string  `yaml:"text_color"`
	FontFamily        string  `yaml:"font_family"`
	FontSize          float64 `yaml:"font_size"`
	BackgroundOpacity float64 `yaml:"background_opacity"`
}

func Default() Style {
	return Style{
		BarHeight:         40,
		TopMargin:         20,
		BackgroundColor:   "#333333",
		ActiveColor:       "#4A90E2",
		TextColor:         "#FFFFFF",
		FontFamily:        "Microsoft YaHei",
		FontSize:          24,
		BackgroundOpacity: 0.8,
	}
}

// Resolved is a Style with its colors parsed.
type Resolved struct {
	Style
	Background color.NRGBA // alpha already includes BackgroundOpacity
	Active     color.NRGBA
	Text       color.NRGBA
}

// Validate reports every invalid field at once.
func (s Style) Validate() error {
	var errs []error
	if s.BarHeight <= 0 {
		errs = append(errs, fmt.Errorf("bar height must be positive, got %d", s.BarHeight))
	}
	if s.TopMargin < 0 {
		errs = append(errs, fmt.Errorf("top margin must not be negative, got %d", s.TopMargin))
	}
	if s.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font size must be positive, got %v", s.FontSize))
	}
	if !(s.BackgroundOpacity >= 0 && s.BackgroundOpacity <= 1) {
		errs = append(errs, fmt.Errorf("background opacity must be within [0,1], got %v", s.BackgroundOpacity))
	}
	for name, v := range map[string]string{
		"background_color": s.BackgroundColor,
		"active_color":     s.ActiveColor,
		"text_color":       s.TextColor,
	} {
		if _, err := ParseHexColor(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Resolve validates the style and parses its colors.
func (s Style) Resolve() (Resolved, error) {
	if err := s.Validate(); err != nil {
		return Resolved{}, err
	}
	bg, _ := ParseHexColor(s.BackgroundColor)
	active, _ := ParseHexColor(s.ActiveColor)
	text, _ := ParseHexColor(s.TextColor)

	bg.A = uint8(float64(bg.A)*s.BackgroundOpacity + 0.5)

	return Resolved{Style: s, Background: bg, Active: active, Text: text}, nil
}

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA (the leading # is optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
