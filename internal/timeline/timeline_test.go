package timeline

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func sampleTimeline() Timeline {
	return Timeline{
		TotalDuration: 5,
		Chapters: []Chapter{
			{Title: "A", EndTime: 2},
			{Title: "B", EndTime: 5},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	tests := []Timeline{
		sampleTimeline(),
		{TotalDuration: 10},
		{TotalDuration: 10, Chapters: []Chapter{{Title: "Intro", EndTime: 1}, {Title: "Body", EndTime: 7.5}}},
		{TotalDuration: 3600, Chapters: []Chapter{{Title: "Глава первая", EndTime: 3600}}},
	}

	for i, tl := range tests {
		res := Validate(tl, DefaultLimits())
		if !res.OK() {
			t.Errorf("case %d: expected no violations, got %v", i, res.Violations)
		}
		if res.Err() != nil {
			t.Errorf("case %d: expected nil error, got %v", i, res.Err())
		}
	}
}

func TestValidateOrdering(t *testing.T) {
	tests := []struct {
		name  string
		ends  []float64
		index int
	}{
		{"equal", []float64{2, 2}, 1},
		{"decreasing", []float64{3, 1}, 1},
		{"zero first", []float64{0, 4}, 0},
		{"third", []float64{1, 2, 1.5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Timeline{TotalDuration: 5}
			for _, e := range tt.ends {
				tl.Chapters = append(tl.Chapters, Chapter{Title: "x", EndTime: e})
			}
			res := Validate(tl, DefaultLimits())
			if !res.Has(KindOrder, tt.index) {
				t.Errorf("Expected order violation at %d, got %v", tt.index, res.Violations)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	tl := Timeline{
		TotalDuration: 5,
		Chapters: []Chapter{
			{Title: "first", EndTime: 3},
			{Title: "second", EndTime: 2},
			{Title: strings.Repeat("long", 6), EndTime: 9},
		},
	}
	limits := DefaultLimits()
	limits.MaxChapters = 2

	res := Validate(tl, limits)

	checks := []struct {
		kind  ViolationKind
		index int
	}{
		{KindOrder, 1},
		{KindBounds, 2},
		{KindTitle, 2},
		{KindCount, -1},
	}
	for _, c := range checks {
		if !res.Has(c.kind, c.index) {
			t.Errorf("Expected %s violation at %d, got %v", c.kind, c.index, res.Violations)
		}
	}
	if len(res.Violations) != len(checks) {
		t.Errorf("Expected %d violations, got %d: %v", len(checks), len(res.Violations), res.Violations)
	}

	var verr *ValidationError
	if !errors.As(res.Err(), &verr) {
		t.Fatalf("Expected *ValidationError, got %T", res.Err())
	}
	if !strings.Contains(verr.Error(), "chapter 1 end time not after chapter 0 end time") {
		t.Errorf("Unexpected message: %s", verr.Error())
	}
}

func TestValidateBounds(t *testing.T) {
	tl := Timeline{TotalDuration: 5, Chapters: []Chapter{{Title: "A", EndTime: 2}, {Title: "B", EndTime: 5.01}}}
	res := Validate(tl, DefaultLimits())
	if !res.Has(KindBounds, 1) {
		t.Errorf("Expected bounds violation at 1, got %v", res.Violations)
	}
}

func TestValidateMalformed(t *testing.T) {
	tests := []Timeline{
		{TotalDuration: 0},
		{TotalDuration: -1},
		{TotalDuration: math.NaN()},
		{TotalDuration: math.Inf(1)},
		{TotalDuration: 5, Chapters: []Chapter{{EndTime: math.NaN()}, {EndTime: -2}}},
		{TotalDuration: 1e9},
	}

	for i, tl := range tests {
		res := Validate(tl, DefaultLimits())
		if res.OK() {
			t.Errorf("case %d: expected violations", i)
		}
	}
}

func TestStartTimeOf(t *testing.T) {
	tl := sampleTimeline()
	if got := StartTimeOf(tl, 0); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
	if got := StartTimeOf(tl, 1); got != 2 {
		t.Errorf("Expected 2, got %v", got)
	}
}

func TestChapterActiveAt(t *testing.T) {
	tl := sampleTimeline()

	tests := []struct {
		t      float64
		index  int
		active bool
	}{
		{-1, 0, true},
		{0, 0, true},
		{1, 0, true},
		{1.999, 0, true},
		{2, 1, true},
		{3, 1, true},
		{4.999, 1, true},
		{5, -1, false},
		{7, -1, false},
		{math.NaN(), -1, false},
	}

	for _, tt := range tests {
		idx, ok := ChapterActiveAt(tl, tt.t)
		if idx != tt.index || ok != tt.active {
			t.Errorf("At %v: expected (%d, %v), got (%d, %v)", tt.t, tt.index, tt.active, idx, ok)
		}
	}
}

func TestChapterActiveAtGap(t *testing.T) {
	tl := Timeline{TotalDuration: 10, Chapters: []Chapter{{Title: "A", EndTime: 4}}}
	if _, ok := ChapterActiveAt(tl, 6); ok {
		t.Error("Expected no chapter after the last end time")
	}
	if _, ok := ChapterActiveAt(Timeline{TotalDuration: 10}, 1); ok {
		t.Error("Expected no chapter on an empty timeline")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tl := sampleTimeline()
	snap := tl.Clone()
	tl.Chapters[0].Title = "changed"
	if snap.Chapters[0].Title != "A" {
		t.Errorf("Clone shares storage: %q", snap.Chapters[0].Title)
	}
}

func TestTimelineWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	tl := sampleTimeline()

	if err := Write(tl, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.TotalDuration != tl.TotalDuration || len(got.Chapters) != len(tl.Chapters) {
		t.Errorf("Mismatch: %+v", got)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("total_duration: 5\nchapterz: []\n"))
	if err == nil {
		t.Error("Expected error for unknown key")
	}
}
