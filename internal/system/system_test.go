package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.yaml", "b.YAML", "c.yml", "notes.txt"}
	for i, name := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(p, modTime, modTime)
	}

	latest, err := FindLatest(dir, ".yaml", ".yml")
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}
	if filepath.Base(latest) != "c.yml" {
		t.Errorf("Expected c.yml, got %s", latest)
	}

	if _, err := FindLatest(dir, ".mp4"); err == nil {
		t.Error("Expected error when nothing matches")
	}
}

func TestFramePool(t *testing.T) {
	pool := NewFramePool()
	rect := image.Rect(0, 0, 16, 8)

	img := pool.Get(rect)
	if img.Bounds() != rect {
		t.Fatalf("Expected bounds %v, got %v", rect, img.Bounds())
	}
	pool.Put(img)
	pool.Put(image.NewRGBA(image.Rect(0, 0, 3, 3))) // unknown size, dropped
	pool.Put(nil)

	if got := pool.Get(rect); got.Bounds() != rect {
		t.Errorf("Expected bounds %v, got %v", rect, got.Bounds())
	}
}

func TestSuggestQueueDepth(t *testing.T) {
	for _, size := range []int{0, 1920 * 40 * 4, 1920 * 1080 * 4, 1 << 40} {
		d := SuggestQueueDepth(size)
		if d < 2 || d > 4 {
			t.Errorf("frame %d bytes: depth %d outside [2,4]", size, d)
		}
	}
}
