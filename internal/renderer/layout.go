package renderer

import (
	"fmt"
	"math"
)

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// XAt maps a timeline position to a pixel column of a bar width pixels wide.
func XAt(width int, at, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(width) * Clamp01(at/total)))
}

// spanCenter returns the horizontal center of [start, end) in pixels.
func spanCenter(width int, start, end, total float64) float64 {
	if total <= 0 {
		return 0
	}
	x0 := float64(width) * Clamp01(start/total)
	x1 := float64(width) * Clamp01(end/total)
	return lerp(x0, x1, 0.5)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// FormatClock renders t as MM:SS, or HH:MM:SS when the timeline is an hour
// or longer so the readout keeps one width for the whole video.
func FormatClock(t, total float64) string {
	if t > total {
		t = total
	}
	if !(t > 0) {
		t = 0
	}
	secs := int(math.Floor(t))
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if total >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, s)
}
