package preview

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// PNGSurface overwrites one PNG file per frame. The file is replaced
// atomically so a viewer polling it never reads half a frame.
type PNGSurface struct {
	Path string
}

func (s *PNGSurface) Present(frame *image.RGBA, t float64) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".preview_*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, frame); err != nil {
		tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

// MemorySurface keeps a copy of the last presented frame.
type MemorySurface struct {
	mu    sync.Mutex
	last  *image.RGBA
	t     float64
	times []float64
}

func (s *MemorySurface) Present(frame *image.RGBA, t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil || s.last.Rect != frame.Rect {
		s.last = image.NewRGBA(frame.Rect)
	}
	copy(s.last.Pix, frame.Pix)
	s.t = t
	s.times = append(s.times, t)
	return nil
}

// Last returns a copy of the most recent frame and its time, or nil.
func (s *MemorySurface) Last() (*image.RGBA, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, 0
	}
	out := image.NewRGBA(s.last.Rect)
	copy(out.Pix, s.last.Pix)
	return out, s.t
}

// Times lists the cursor time of every presented frame.
func (s *MemorySurface) Times() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.times...)
}
