package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/chapterbar/internal/logging"
	"github.com/ivlev/chapterbar/internal/renderer"
	"github.com/ivlev/chapterbar/internal/style"
	"github.com/ivlev/chapterbar/internal/system"
	"github.com/ivlev/chapterbar/internal/timeline"
	"github.com/ivlev/chapterbar/internal/video"
)

const (
	DefaultQueueDepth = 3
	MaxQueueDepth     = 8

	rssSampleEvery = 30 // frames
)

// Params is the output geometry and frame rate of one export.
type Params struct {
	FPS    float64
	Width  int
	Height int
}

func (p Params) validate() []timeline.Violation {
	var out []timeline.Violation
	if !(p.FPS > 0) || math.IsInf(p.FPS, 0) {
		out = append(out, timeline.Violation{Index: -1, Kind: timeline.KindValue, Reason: fmt.Sprintf("fps must be a positive number, got %v", p.FPS)})
	}
	if p.Width <= 0 || p.Height <= 0 {
		out = append(out, timeline.Violation{Index: -1, Kind: timeline.KindValue, Reason: fmt.Sprintf("invalid frame size %dx%d", p.Width, p.Height)})
	}
	return out
}

// TotalFrames is round(duration*fps), never less than one.
func TotalFrames(duration, fps float64) int {
	n := int(math.Round(duration * fps))
	if n < 1 {
		return 1
	}
	return n
}

// FrameRenderer is the part of *renderer.Renderer the pipeline needs.
type FrameRenderer interface {
	Bounds() image.Rectangle
	RenderInto(dst *image.RGBA, t float64, tl timeline.Timeline) error
}

// Exporter turns a validated timeline into an encoded video. The zero value
// is not usable: Encoders must be set. One Exporter may run several jobs,
// each job owns its own encoder.
type Exporter struct {
	Limits timeline.Limits

	// QueueDepth is the number of rendered frames allowed to wait for the
	// encoder. 0 sizes it from free memory.
	QueueDepth int

	// NewRenderer defaults to renderer.New.
	NewRenderer func(st style.Style, width, height int) (FrameRenderer, error)

	Encoders video.Factory
	Format   string // webm when empty
	Codec    string
	Quality  int

	Logger       *logging.Logger
	ShowStats    bool
	BuildVersion string

	poolOnce sync.Once
	pool     *system.FramePool
}

// NewExporter returns an Exporter with default limits and queue depth.
func NewExporter(encoders video.Factory, format string, logger *logging.Logger) *Exporter {
	return &Exporter{
		Limits:     timeline.DefaultLimits(),
		QueueDepth: DefaultQueueDepth,
		Encoders:   encoders,
		Format:     format,
		Logger:     logger,
	}
}

// Result is the terminal outcome of a Job.
type Result struct {
	Status Status
	Data   []byte
	Frames int // frames handed to the encoder
	// Err is *timeline.ValidationError, *renderer.RenderError or
	// *EncodingError. It is nil on success and on cancellation.
	Err   error
	Stats Stats
}

// AsError folds the status into a single error value.
func (r Result) AsError() error {
	switch r.Status {
	case StatusSuccess:
		return nil
	case StatusCancelled:
		return ErrCancelled
	default:
		return r.Err
	}
}

// Job is one in-flight export.
type Job struct {
	progress chan int
	cancel   context.CancelFunc
	done     chan struct{}
	result   Result
	last     int
}

// Progress yields integer percentages, non-decreasing, 100 only after the
// output is finalized. It is closed when the job ends.
func (j *Job) Progress() <-chan int { return j.progress }

// Cancel requests a cooperative stop. Safe to call at any time.
func (j *Job) Cancel() { j.cancel() }

func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job ends and returns its result.
func (j *Job) Wait() Result {
	<-j.done
	return j.result
}

// report is only called from the job's own goroutines, one at a time per
// stage; the encode stage is the only one that advances progress.
func (j *Job) report(pct int) {
	if pct <= j.last || pct > 100 {
		return
	}
	j.last = pct
	// буфер на 101 значение: отправка никогда не блокируется
	select {
	case j.progress <- pct:
	default:
	}
}

// Start snapshots the timeline and runs the export in the background.
// Cancelling ctx has the same effect as Job.Cancel.
func (e *Exporter) Start(ctx context.Context, tl timeline.Timeline, st style.Style, p Params) *Job {
	snapshot := tl.Clone()
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		progress: make(chan int, 101),
		cancel:   cancel,
		done:     make(chan struct{}),
		last:     -1,
	}

	go func() {
		defer close(job.done)
		defer cancel()
		job.result = e.run(ctx, job, snapshot, st, p)
		close(job.progress)
	}()
	return job
}

// Export is the blocking form of Start.
func (e *Exporter) Export(ctx context.Context, tl timeline.Timeline, st style.Style, p Params) Result {
	return e.Start(ctx, tl, st, p).Wait()
}

func (e *Exporter) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}

func (e *Exporter) framePool() *system.FramePool {
	e.poolOnce.Do(func() {
		e.pool = system.NewFramePool()
	})
	return e.pool
}

func (e *Exporter) queueDepth(frameBytes int) int {
	d := e.QueueDepth
	if d == 0 {
		return system.SuggestQueueDepth(frameBytes)
	}
	if d < 1 {
		return 1
	}
	if d > MaxQueueDepth {
		return MaxQueueDepth
	}
	return d
}

func (e *Exporter) newRenderer(st style.Style, w, h int) (FrameRenderer, error) {
	if e.NewRenderer != nil {
		return e.NewRenderer(st, w, h)
	}
	return renderer.New(st, w, h)
}

func (e *Exporter) run(ctx context.Context, job *Job, tl timeline.Timeline, st style.Style, p Params) Result {
	log := e.logger().Named("engine")
	started := time.Now()

	// 1. Валидация до любых ресурсов
	res := timeline.Validate(tl, e.Limits)
	if vs := p.validate(); len(vs) > 0 {
		res.Violations = append(res.Violations, vs...)
	}
	if !res.OK() {
		log.Debugw("export rejected", "violations", len(res.Violations))
		return Result{Status: StatusValidation, Err: res.Err()}
	}
	if e.Encoders == nil {
		return Result{Status: StatusEncoding, Err: &EncodingError{Op: "open", Cause: errors.New("no encoder factory")}}
	}

	r, err := e.newRenderer(st, p.Width, p.Height)
	if err != nil {
		return Result{Status: StatusRender, Err: asRenderError("setup", err)}
	}

	format := e.Format
	if format == "" {
		format = "webm"
	}
	total := TotalFrames(tl.TotalDuration, p.FPS)
	bounds := r.Bounds()
	depth := e.queueDepth(bounds.Dx() * bounds.Dy() * 4)

	log.Infow("export started",
		"frames", total, "fps", p.FPS, "size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"format", format, "queue", depth)

	// 2. Энкодер живёт ровно одну выгрузку
	enc, err := e.Encoders.Open(ctx, video.Spec{
		Width:   p.Width,
		Height:  p.Height,
		FPS:     p.FPS,
		Format:  format,
		Codec:   e.Codec,
		Quality: e.Quality,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Infow("export cancelled", "frames", 0)
			return Result{Status: StatusCancelled}
		}
		log.Errorw("encoder open failed", "error", err)
		return Result{Status: StatusEncoding, Err: &EncodingError{Op: "open", Cause: err}}
	}
	job.report(0)

	var (
		stats   Stats
		written int
		pool    = e.framePool()
		frames  = make(chan *image.RGBA, depth)
	)
	sampleRSS := func() {
		if rss, err := system.ProcessRSS(); err == nil && rss > stats.PeakRSS {
			stats.PeakRSS = rss
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// 3. Рендер: кадры строго по порядку, блокируется на полной очереди
	g.Go(func() error {
		defer close(frames)
		for k := 0; k < total; k++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			buf := pool.Get(bounds)
			t0 := time.Now()
			if err := r.RenderInto(buf, float64(k)/p.FPS, tl); err != nil {
				pool.Put(buf)
				return asRenderError(fmt.Sprintf("frame %d", k), err)
			}
			stats.Render += time.Since(t0)

			select {
			case frames <- buf:
			case <-gctx.Done():
				pool.Put(buf)
				return gctx.Err()
			}
		}
		return nil
	})

	// 4. Кодирование: единственный потребитель, прогресс считается здесь
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case buf, ok := <-frames:
				if !ok {
					return nil
				}
				t0 := time.Now()
				err := enc.WriteFrame(buf)
				stats.Encode += time.Since(t0)
				pool.Put(buf)
				if err != nil {
					return &EncodingError{Op: fmt.Sprintf("write frame %d", written), Cause: err}
				}
				written++
				if pct := written * 100 / total; pct < 100 {
					job.report(pct)
				} else {
					job.report(99)
				}
				if written%rssSampleEvery == 0 {
					sampleRSS()
				}
			}
		}
	})

	err = g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		enc.Abort()
		return e.failed(ctx, log, err, written, stats, started)
	}

	// 5. Финализация контейнера
	t0 := time.Now()
	data, err := enc.Close()
	stats.Encode += time.Since(t0)
	if err != nil {
		enc.Abort()
		return e.failed(ctx, log, &EncodingError{Op: "finalize", Cause: err}, written, stats, started)
	}
	if ctx.Err() != nil {
		// отмена пришла во время финализации: результат не отдаём
		return e.failed(ctx, log, ctx.Err(), written, stats, started)
	}

	sampleRSS()
	stats.Frames = written
	stats.Total = time.Since(started)
	job.report(100)

	log.Infow("export finished", "frames", written, "bytes", len(data), "elapsed", stats.Total.Round(time.Millisecond))
	if e.ShowStats {
		log.Infow("performance",
			"build", e.BuildVersion,
			"render", stats.Render.Round(time.Millisecond),
			"encode", stats.Encode.Round(time.Millisecond),
			"fps", fmt.Sprintf("%.2f", stats.FPS()),
			"peak_rss_mb", stats.PeakRSS>>20)
	}
	return Result{Status: StatusSuccess, Data: data, Frames: written, Stats: stats}
}

// failed classifies a pipeline error. Cancellation of the job context wins
// over whatever error the stages saw while shutting down.
func (e *Exporter) failed(ctx context.Context, log *logging.Logger, err error, written int, stats Stats, started time.Time) Result {
	stats.Frames = written
	stats.Total = time.Since(started)

	if ctx.Err() != nil {
		log.Infow("export cancelled", "frames", written, "reason", ctx.Err())
		return Result{Status: StatusCancelled, Frames: written, Stats: stats}
	}

	var rerr *renderer.RenderError
	if errors.As(err, &rerr) {
		log.Errorw("render failed", "frames", written, "error", err)
		return Result{Status: StatusRender, Frames: written, Err: rerr, Stats: stats}
	}

	var eerr *EncodingError
	if !errors.As(err, &eerr) {
		eerr = &EncodingError{Op: "pipeline", Cause: err}
	}
	log.Errorw("encoding failed", "frames", written, "error", err)
	return Result{Status: StatusEncoding, Frames: written, Err: eerr, Stats: stats}
}

func asRenderError(op string, err error) *renderer.RenderError {
	var rerr *renderer.RenderError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &renderer.RenderError{Op: op, Err: err}
}
