package timeline

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Limits bounds what a Timeline may contain.
type Limits struct {
	MaxChapters    int
	MaxTitleLength int     // runes
	MinDuration    float64 // seconds
	MaxDuration    float64 // seconds
}

// DefaultLimits: 10 chapters, 20-rune titles, at most 999.9 minutes.
// MinDuration is left at 0; the editing form enforces its own lower bound.
func DefaultLimits() Limits {
	return Limits{
		MaxChapters:    10,
		MaxTitleLength: 20,
		MaxDuration:    999.9 * 60,
	}
}

type ViolationKind string

const (
	KindOrder    ViolationKind = "order"
	KindBounds   ViolationKind = "bounds"
	KindCount    ViolationKind = "count"
	KindTitle    ViolationKind = "title"
	KindDuration ViolationKind = "duration"
	KindValue    ViolationKind = "value"
)

// Violation is a single broken invariant. Index is -1 for timeline-wide ones.
type Violation struct {
	Index  int
	Kind   ViolationKind
	Reason string
}

func (v Violation) String() string {
	return v.Reason
}

type ValidationResult struct {
	Violations []Violation
}

func (r ValidationResult) OK() bool {
	return len(r.Violations) == 0
}

// Err returns nil when there are no violations, a *ValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// Has reports whether a violation of kind is recorded for index.
func (r ValidationResult) Has(kind ViolationKind, index int) bool {
	for _, v := range r.Violations {
		if v.Kind == kind && v.Index == index {
			return true
		}
	}
	return false
}

// ValidationError carries every violation found in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		reasons[i] = v.Reason
	}
	return fmt.Sprintf("timeline invalid (%d): %s", len(e.Violations), strings.Join(reasons, "; "))
}

// Validate checks every invariant and collects all violations.
// It never panics, whatever the input.
func Validate(tl Timeline, limits Limits) ValidationResult {
	var res ValidationResult
	add := func(index int, kind ViolationKind, format string, args ...any) {
		res.Violations = append(res.Violations, Violation{Index: index, Kind: kind, Reason: fmt.Sprintf(format, args...)})
	}

	d := tl.TotalDuration
	durationOK := true
	switch {
	case math.IsNaN(d) || math.IsInf(d, 0) || d <= 0:
		add(-1, KindDuration, "total duration must be a positive number, got %v", d)
		durationOK = false
	case limits.MinDuration > 0 && d < limits.MinDuration:
		add(-1, KindDuration, "total duration %.2fs is below minimum %.2fs", d, limits.MinDuration)
	case limits.MaxDuration > 0 && d > limits.MaxDuration:
		add(-1, KindDuration, "total duration %.2fs exceeds maximum %.2fs", d, limits.MaxDuration)
	}

	if limits.MaxChapters > 0 && len(tl.Chapters) > limits.MaxChapters {
		add(-1, KindCount, "chapter count %d exceeds maximum %d", len(tl.Chapters), limits.MaxChapters)
	}

	prev := 0.0
	prevOK := true
	for i, ch := range tl.Chapters {
		if limits.MaxTitleLength > 0 {
			if n := utf8.RuneCountInString(ch.Title); n > limits.MaxTitleLength {
				add(i, KindTitle, "chapter %d title length %d exceeds maximum %d", i, n, limits.MaxTitleLength)
			}
		}

		end := ch.EndTime
		if math.IsNaN(end) || math.IsInf(end, 0) || end < 0 {
			add(i, KindValue, "chapter %d end time must be a non-negative number, got %v", i, end)
			prevOK = false
			continue
		}
		if prevOK && end <= prev {
			if i == 0 {
				add(i, KindOrder, "chapter %d end time not after timeline start", i)
			} else {
				add(i, KindOrder, "chapter %d end time not after chapter %d end time", i, i-1)
			}
		}
		if durationOK && end > d {
			add(i, KindBounds, "chapter %d end time exceeds total duration", i)
		}
		prev, prevOK = end, true
	}

	return res
}
