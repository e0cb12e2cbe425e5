package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/icza/mjpeg"
)

// MJPEGFactory writes Motion-JPEG AVI files in process, no ffmpeg needed.
// AVI has no alpha: frames are flattened onto black.
type MJPEGFactory struct {
	TempDir string
}

func (f *MJPEGFactory) Open(ctx context.Context, spec Spec) (Encoder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Format != "avi" {
		return nil, fmt.Errorf("MJPEGFactory only writes avi, got %q", spec.Format)
	}
	fps := math.Round(spec.FPS)
	if fps != spec.FPS || fps > math.MaxInt32 {
		return nil, fmt.Errorf("avi needs an integer fps, got %v", spec.FPS)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(f.TempDir, "chapterbar_")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	outPath := filepath.Join(tmpDir, "out.avi")

	w, err := mjpeg.New(outPath, int32(spec.Width), int32(spec.Height), int32(fps))
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}

	quality := spec.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	return &mjpegEncoder{
		w:       w,
		tmpDir:  tmpDir,
		outPath: outPath,
		quality: quality,
		flat:    image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height)),
	}, nil
}

type mjpegEncoder struct {
	w       mjpeg.AviWriter
	tmpDir  string
	outPath string
	quality int
	flat    *image.RGBA
	jpg     bytes.Buffer

	closeOnce sync.Once
	closeErr  error
	cleaned   sync.Once
}

func (e *mjpegEncoder) WriteFrame(img *image.RGBA) error {
	if img.Bounds().Size() != e.flat.Bounds().Size() {
		return fmt.Errorf("frame %v does not match stream %v", img.Bounds(), e.flat.Bounds())
	}
	draw.Draw(e.flat, e.flat.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(e.flat, e.flat.Bounds(), img, img.Bounds().Min, draw.Over)

	e.jpg.Reset()
	if err := jpeg.Encode(&e.jpg, e.flat, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("failed to encode frame as JPEG: %w", err)
	}
	// AddFrame копирует данные в файл, буфер можно переиспользовать
	if err := e.w.AddFrame(e.jpg.Bytes()); err != nil {
		return fmt.Errorf("failed to add frame: %w", err)
	}
	return nil
}

func (e *mjpegEncoder) Close() ([]byte, error) {
	defer e.cleanup()

	if err := e.close(); err != nil {
		return nil, fmt.Errorf("finalize avi: %w", err)
	}
	data, err := os.ReadFile(e.outPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}

func (e *mjpegEncoder) Abort() error {
	_ = e.close()
	e.cleanup()
	return nil
}

func (e *mjpegEncoder) close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.w.Close()
	})
	return e.closeErr
}

func (e *mjpegEncoder) cleanup() {
	e.cleaned.Do(func() {
		os.RemoveAll(e.tmpDir)
	})
}
