package engine

import (
	"fmt"
	"os"
	"time"
)

// Stats is the performance report of one export.
type Stats struct {
	Frames  int
	Total   time.Duration
	Render  time.Duration // time spent inside the renderer
	Encode  time.Duration // time spent inside the encoder, finalize included
	PeakRSS uint64        // bytes, 0 when unavailable
}

// FPS is frames per wall-clock second over the whole export.
func (s Stats) FPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

func (s Stats) Report(build string) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"Peak RSS: %.1f MiB\n"+
			"----------------------------\n",
		build, s.Total.Seconds(), s.Render.Seconds(), s.Encode.Seconds(), s.Frames, s.FPS(),
		float64(s.PeakRSS)/(1<<20),
	)
}

// AppendBenchmark adds one line describing the export to a log file.
func AppendBenchmark(path, build, input string, s Stats) error {
	line := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		input,
		s.Frames,
		s.Total.Seconds(),
		s.Render.Seconds(),
		s.Encode.Seconds(),
		s.FPS(),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
