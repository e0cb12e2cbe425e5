package timeline

import "math"

// Chapter is a named span of the timeline. Its start is the previous
// chapter's EndTime (0 for the first chapter).
type Chapter struct {
	ID      string  `yaml:"id,omitempty"`
	Title   string  `yaml:"title"`
	EndTime float64 `yaml:"end_time"` // seconds
}

// Timeline is the ordered chapter list plus the total duration in seconds.
// A Timeline handed to the renderer or the exporter is never mutated.
type Timeline struct {
	TotalDuration float64   `yaml:"total_duration"`
	Chapters      []Chapter `yaml:"chapters"`
}

// Clone returns a deep copy that shares no storage with tl.
func (tl Timeline) Clone() Timeline {
	out := Timeline{TotalDuration: tl.TotalDuration}
	if tl.Chapters != nil {
		out.Chapters = make([]Chapter, len(tl.Chapters))
		copy(out.Chapters, tl.Chapters)
	}
	return out
}

// StartTimeOf returns the implicit start of chapter index.
func StartTimeOf(tl Timeline, index int) float64 {
	if index <= 0 || index > len(tl.Chapters) {
		return 0
	}
	return tl.Chapters[index-1].EndTime
}

// Boundaries returns 0 followed by every chapter end time.
func Boundaries(tl Timeline) []float64 {
	out := make([]float64, 0, len(tl.Chapters)+1)
	out = append(out, 0)
	for _, ch := range tl.Chapters {
		out = append(out, ch.EndTime)
	}
	return out
}

// ChapterActiveAt returns the chapter whose [start, end) span contains t.
//
// Before the first chapter starts the first chapter is reported. At or after
// TotalDuration nothing is active, and neither is the gap between the last
// chapter end and TotalDuration.
func ChapterActiveAt(tl Timeline, t float64) (int, bool) {
	if len(tl.Chapters) == 0 || math.IsNaN(t) || t >= tl.TotalDuration {
		return -1, false
	}
	if t < 0 {
		return 0, true
	}
	// chapters are sorted by end time, so the first end > t wins
	for i, ch := range tl.Chapters {
		if t < ch.EndTime {
			return i, true
		}
	}
	return -1, false
}
