package renderer

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// bundled maps family names to the Go fonts shipped with x/image.
var bundled = map[string][]byte{
	"go":         goregular.TTF,
	"go regular": goregular.TTF,
	"go medium":  gomedium.TTF,
	"go bold":    gobold.TTF,
	"go mono":    gomono.TTF,
	"monospace":  gomono.TTF,
}

// loadFont resolves a family: a .ttf/.otf path is read from disk, a known
// name maps to a bundled Go font, anything else falls back to Go Regular.
func loadFont(family string) (*opentype.Font, error) {
	data := goregular.TTF

	switch ext := strings.ToLower(filepath.Ext(family)); ext {
	case ".ttf", ".otf":
		b, err := os.ReadFile(family)
		if err != nil {
			return nil, &RenderError{Op: "read font", Err: err}
		}
		data = b
	default:
		if b, ok := bundled[strings.ToLower(strings.TrimSpace(family))]; ok {
			data = b
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &RenderError{Op: "parse font", Err: err}
	}
	return f, nil
}

// newFace builds a face for one render call. Faces keep scratch buffers and
// are not shared between calls.
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &RenderError{Op: "create face", Err: err}
	}
	return face, nil
}
