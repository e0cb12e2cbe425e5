package preview

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/ivlev/chapterbar/internal/timeline"
)

// Renderer is satisfied by *renderer.Renderer.
type Renderer interface {
	Bounds() image.Rectangle
	RenderInto(dst *image.RGBA, t float64, tl timeline.Timeline) error
}

// Surface receives every rendered preview frame. frame is reused by the
// Player and is only valid until Present returns.
type Surface interface {
	Present(frame *image.RGBA, t float64) error
}

// Clock is the wall-clock source of the cursor.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Player advances a private time cursor from the clock and renders the
// frame at the cursor on every tick. It never shares state with an export.
type Player struct {
	r       Renderer
	tl      timeline.Timeline
	surface Surface
	clock   Clock

	mu     sync.Mutex
	state  State
	base   float64   // cursor at anchor
	anchor time.Time // wall time base was taken, meaningful while playing

	drawMu sync.Mutex
	frame  *image.RGBA
	ticks  int
}

// NewPlayer snapshots tl. A nil clock means the system clock.
func NewPlayer(r Renderer, tl timeline.Timeline, surface Surface, clock Clock) *Player {
	if clock == nil {
		clock = systemClock{}
	}
	return &Player{
		r:       r,
		tl:      tl.Clone(),
		surface: surface,
		clock:   clock,
		frame:   image.NewRGBA(r.Bounds()),
	}
}

// Play starts advancing from the given time, wrapped into [0, total).
func (p *Player) Play(from float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.wrap(from)
	p.anchor = p.clock.Now()
	p.state = Playing
}

// Pause freezes the cursor where it is. No-op unless playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing {
		return
	}
	p.base = p.positionLocked()
	p.state = Paused
}

// Resume continues from the paused position. No-op unless paused.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Paused {
		return
	}
	p.anchor = p.clock.Now()
	p.state = Playing
}

// Seek jumps the cursor. The next Tick renders exactly t, clamped to
// [0, total].
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.clamp(t)
	p.anchor = p.clock.Now()
}

// Stop halts playback and rewinds to 0.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Stopped
	p.base = 0
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position is the cursor time in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// Ticks is the number of frames presented so far.
func (p *Player) Ticks() int {
	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	return p.ticks
}

func (p *Player) positionLocked() float64 {
	if p.state != Playing {
		return p.base
	}
	elapsed := p.clock.Now().Sub(p.anchor).Seconds()
	if elapsed <= 0 {
		return p.base
	}
	return p.wrap(p.base + elapsed)
}

// wrap folds t into [0, total) for looping playback.
func (p *Player) wrap(t float64) float64 {
	total := p.tl.TotalDuration
	if !(total > 0) || math.IsNaN(t) || t <= 0 {
		return 0
	}
	return math.Mod(t, total)
}

func (p *Player) clamp(t float64) float64 {
	total := p.tl.TotalDuration
	if math.IsNaN(t) || t <= 0 || !(total > 0) {
		return 0
	}
	return math.Min(t, total)
}

// Tick renders exactly one frame at the current cursor and presents it.
func (p *Player) Tick() error {
	t := p.Position()

	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	if err := p.r.RenderInto(p.frame, t, p.tl); err != nil {
		return err
	}
	if err := p.surface.Present(p.frame, t); err != nil {
		return fmt.Errorf("present frame at %.3fs: %w", t, err)
	}
	p.ticks++
	return nil
}

// Run ticks at fps until ctx ends. Ticks missed under load are dropped:
// the next one renders whatever time it is then.
func (p *Player) Run(ctx context.Context, fps float64) error {
	if !(fps > 0) || math.IsInf(fps, 0) {
		return fmt.Errorf("invalid preview fps %v", fps)
	}
	interval := time.Duration(float64(time.Second) / fps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := p.Tick(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Tick(); err != nil {
				return err
			}
		}
	}
}
