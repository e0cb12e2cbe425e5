package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/chapterbar/internal/renderer"
	"github.com/ivlev/chapterbar/internal/style"
	"github.com/ivlev/chapterbar/internal/timeline"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleTimeline() timeline.Timeline {
	return timeline.Timeline{
		TotalDuration: 10,
		Chapters: []timeline.Chapter{
			{Title: "Intro", EndTime: 4},
			{Title: "Main", EndTime: 10},
		},
	}
}

func newTestPlayer(t *testing.T) (*Player, *fakeClock, *MemorySurface, *renderer.Renderer) {
	t.Helper()
	r, err := renderer.New(style.Default(), 320, 80)
	if err != nil {
		t.Fatal(err)
	}
	clock := newFakeClock()
	surface := &MemorySurface{}
	return NewPlayer(r, sampleTimeline(), surface, clock), clock, surface, r
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlayAdvancesAndLoops(t *testing.T) {
	p, clock, _, _ := newTestPlayer(t)
	if p.State() != Stopped || p.Position() != 0 {
		t.Fatalf("Expected stopped at 0, got %v at %v", p.State(), p.Position())
	}

	p.Play(2)
	if p.State() != Playing {
		t.Fatalf("Expected playing, got %v", p.State())
	}
	clock.Advance(1500 * time.Millisecond)
	if got := p.Position(); !approx(got, 3.5) {
		t.Errorf("Expected 3.5, got %v", got)
	}

	clock.Advance(7 * time.Second) // 10.5 -> wraps
	if got := p.Position(); !approx(got, 0.5) {
		t.Errorf("Expected wrap to 0.5, got %v", got)
	}

	clock.Advance(25 * time.Second) // 25.5 -> 5.5
	if got := p.Position(); !approx(got, 5.5) {
		t.Errorf("Expected 5.5 after several loops, got %v", got)
	}
}

func TestPauseResume(t *testing.T) {
	p, clock, _, _ := newTestPlayer(t)
	p.Play(0)
	clock.Advance(3 * time.Second)
	p.Pause()
	if p.State() != Paused {
		t.Fatalf("Expected paused, got %v", p.State())
	}

	clock.Advance(time.Hour)
	if got := p.Position(); !approx(got, 3) {
		t.Errorf("Expected paused cursor at 3, got %v", got)
	}

	p.Resume()
	clock.Advance(2 * time.Second)
	if got := p.Position(); !approx(got, 5) {
		t.Errorf("Expected 5 after resume, got %v", got)
	}

	p.Resume() // уже играет
	p.Stop()
	if p.State() != Stopped || p.Position() != 0 {
		t.Errorf("Expected stopped at 0, got %v at %v", p.State(), p.Position())
	}
	p.Pause() // no-op
	if p.State() != Stopped {
		t.Errorf("Pause on stopped player changed state to %v", p.State())
	}
}

func TestSeekIsReflectedByNextTick(t *testing.T) {
	p, clock, surface, r := newTestPlayer(t)
	p.Play(0)
	clock.Advance(time.Second)
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}

	p.Seek(7.25)
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}
	frame, ts := surface.Last()
	if ts != 7.25 {
		t.Fatalf("Expected frame at 7.25, got %v", ts)
	}
	want, err := r.Render(7.25, sampleTimeline())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Pix, want.Pix) {
		t.Error("preview frame differs from a direct render at the seek time")
	}

	// seek keeps playing from the new position
	clock.Advance(500 * time.Millisecond)
	if got := p.Position(); !approx(got, 7.75) {
		t.Errorf("Expected 7.75, got %v", got)
	}
}

func TestSeekClamps(t *testing.T) {
	p, _, _, _ := newTestPlayer(t)
	tests := []struct{ in, want float64 }{
		{-3, 0},
		{4, 4},
		{10, 10},
		{99, 10},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		p.Seek(tt.in)
		if got := p.Position(); got != tt.want {
			t.Errorf("Seek(%v): position %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTickRendersCurrentTimeOnly(t *testing.T) {
	p, clock, surface, _ := newTestPlayer(t)
	p.Play(0)

	// пропущенные тики не догоняются: один Tick = один кадр
	clock.Advance(3 * time.Second)
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(100 * time.Millisecond)
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}

	times := surface.Times()
	if len(times) != 2 || !approx(times[0], 3) || !approx(times[1], 3.1) {
		t.Errorf("Expected frames at [3 3.1], got %v", times)
	}
	if p.Ticks() != 2 {
		t.Errorf("Expected 2 ticks, got %d", p.Ticks())
	}
}

type failingSurface struct{}

func (failingSurface) Present(*image.RGBA, float64) error { return errors.New("display gone") }

func TestTickSurfaceError(t *testing.T) {
	r, err := renderer.New(style.Default(), 64, 80)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(r, sampleTimeline(), failingSurface{}, newFakeClock())
	if err := p.Tick(); err == nil {
		t.Error("Expected surface error")
	}
	if err := p.Run(context.Background(), 30); err == nil {
		t.Error("Expected Run to stop on surface error")
	}
}

func TestRun(t *testing.T) {
	p, _, surface, _ := newTestPlayer(t)
	p.Play(0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx, 100); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n := len(surface.Times()); n < 1 {
		t.Errorf("Expected at least one frame, got %d", n)
	}

	if err := p.Run(context.Background(), 0); err == nil {
		t.Error("Expected error for fps 0")
	}
}

func TestPNGSurface(t *testing.T) {
	r, err := renderer.New(style.Default(), 320, 80)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "preview", "frame.png")
	p := NewPlayer(r, sampleTimeline(), &PNGSurface{Path: path}, newFakeClock())
	p.Seek(5)

	for i := 0; i < 2; i++ {
		if err := p.Tick(); err != nil {
			t.Fatalf("Tick %d failed: %v", i, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 80 {
		t.Errorf("unexpected preview size %v", img.Bounds())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the preview file, found %d entries", len(entries))
	}
}
