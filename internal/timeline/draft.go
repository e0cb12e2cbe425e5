package timeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Draft is the editable side of a timeline. Every edit is re-validated from
// scratch and rejected as a whole if any invariant breaks. Exports and
// previews must work on Snapshot(), never on the draft itself.
type Draft struct {
	mu       sync.Mutex
	limits   Limits
	duration float64
	chapters []Chapter
}

func NewDraft(totalDuration float64, limits Limits) *Draft {
	return &Draft{duration: totalDuration, limits: limits}
}

// Add appends a chapter and returns its generated id.
func (d *Draft) Add(title string, endTime float64) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.limits.MaxChapters > 0 && len(d.chapters) >= d.limits.MaxChapters {
		return "", &ValidationError{Violations: []Violation{{
			Index:  -1,
			Kind:   KindCount,
			Reason: fmt.Sprintf("chapter count already at maximum %d", d.limits.MaxChapters),
		}}}
	}

	ch := Chapter{ID: uuid.NewString(), Title: title, EndTime: endTime}
	next := append(d.copyLocked(), ch)
	if err := d.checkLocked(next, d.duration); err != nil {
		return "", err
	}
	d.chapters = next
	return ch.ID, nil
}

// Update replaces title and end time of the chapter with id.
func (d *Draft) Update(id, title string, endTime float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("chapter %q not found", id)
	}
	next := d.copyLocked()
	next[i].Title = title
	next[i].EndTime = endTime
	if err := d.checkLocked(next, d.duration); err != nil {
		return err
	}
	d.chapters = next
	return nil
}

// Remove deletes the chapter with id. Removing never breaks ordering, but
// the result is still validated to keep one rule for every edit.
func (d *Draft) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("chapter %q not found", id)
	}
	next := d.copyLocked()
	next = append(next[:i], next[i+1:]...)
	if err := d.checkLocked(next, d.duration); err != nil {
		return err
	}
	d.chapters = next
	return nil
}

// SetDuration changes the total duration, rejecting it if a chapter would
// end past it.
func (d *Draft) SetDuration(total float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkLocked(d.chapters, total); err != nil {
		return err
	}
	d.duration = total
	return nil
}

// Snapshot returns an immutable copy of the current state.
func (d *Draft) Snapshot() Timeline {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Timeline{TotalDuration: d.duration, Chapters: d.copyLocked()}
}

func (d *Draft) copyLocked() []Chapter {
	out := make([]Chapter, len(d.chapters), len(d.chapters)+1)
	copy(out, d.chapters)
	return out
}

func (d *Draft) indexLocked(id string) int {
	for i, ch := range d.chapters {
		if ch.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) checkLocked(chapters []Chapter, total float64) error {
	return Validate(Timeline{TotalDuration: total, Chapters: chapters}, d.limits).Err()
}
