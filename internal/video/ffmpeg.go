package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/chapterbar/internal/system"
)

// FFmpegFactory encodes through an ffmpeg child process fed raw frames on
// stdin. Output goes to a private temp directory that is always removed.
type FFmpegFactory struct {
	FFmpegPath string // empty: system.FFmpegPath()
	TempDir    string // empty: os.TempDir()
}

func (f *FFmpegFactory) Open(ctx context.Context, spec Spec) (Encoder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Format == "avi" {
		return nil, fmt.Errorf("format avi is written by MJPEGFactory")
	}
	if spec.Format == "mp4" && (spec.Width%2 != 0 || spec.Height%2 != 0) {
		return nil, fmt.Errorf("mp4 (yuv420p) needs even dimensions, got %dx%d", spec.Width, spec.Height)
	}

	bin := f.FFmpegPath
	if bin == "" {
		p, err := system.FFmpegPath()
		if err != nil {
			return nil, err
		}
		bin = p
	}

	tmpDir, err := os.MkdirTemp(f.TempDir, "chapterbar_")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	outPath := filepath.Join(tmpDir, "out"+Ext(spec.Format))

	args := BuildArgs(spec, codecFor(bin, spec), outPath)
	cmd := exec.CommandContext(ctx, bin, args...)
	stderr := &tailBuffer{limit: 8 << 10}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegEncoder{
		cmd:     cmd,
		stdin:   stdin,
		stderr:  stderr,
		tmpDir:  tmpDir,
		outPath: outPath,
		buf:     image.NewNRGBA(image.Rect(0, 0, spec.Width, spec.Height)),
	}, nil
}

// codecFor picks the video codec: explicit Spec.Codec wins, mp4 probes for a
// hardware H.264 encoder.
func codecFor(bin string, spec Spec) string {
	if spec.Codec != "" {
		return spec.Codec
	}
	switch spec.Format {
	case "webm":
		return "libvpx-vp9"
	case "mov":
		return "qtrle"
	default:
		return system.BestH264Encoder(bin)
	}
}

// BuildArgs returns the ffmpeg argument list for one export.
func BuildArgs(spec Spec, codec, outPath string) []string {
	in := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"r":       strconv.FormatFloat(spec.FPS, 'f', -1, 64),
	}

	out := ffmpeg.KwArgs{"c:v": codec, "an": ""}
	switch spec.Format {
	case "webm":
		out["pix_fmt"] = "yuva420p"
		out["auto-alt-ref"] = "0"
	case "mov":
		out["pix_fmt"] = "argb"
	default:
		out["pix_fmt"] = "yuv420p"
		out["movflags"] = "+faststart"
	}
	for k, v := range qualityArgs(codec, spec.Quality) {
		out[k] = v
	}

	args := ffmpeg.Input("pipe:", in).
		Output(outPath, out).
		OverWriteOutput().
		GetArgs()
	return append([]string{"-hide_banner", "-loglevel", "error"}, args...)
}

// qualityArgs: качество в зависимости от энкодера, 0 означает значение по умолчанию.
func qualityArgs(codec string, quality int) ffmpeg.KwArgs {
	switch codec {
	case "h264_videotoolbox":
		if quality == 0 {
			quality = 75
		}
		// VideoToolbox не везде понимает -q:v, используем битрейт
		return ffmpeg.KwArgs{"b:v": fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		if quality == 0 {
			quality = 28
		}
		return ffmpeg.KwArgs{"cq": quality}
	case "libvpx-vp9":
		if quality == 0 {
			quality = 31
		}
		return ffmpeg.KwArgs{"crf": quality, "b:v": "0"}
	case "libx264":
		if quality == 0 {
			quality = 23
		}
		return ffmpeg.KwArgs{"crf": quality, "preset": "medium"}
	default:
		return ffmpeg.KwArgs{}
	}
}

type ffmpegEncoder struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  *tailBuffer
	tmpDir  string
	outPath string
	buf     *image.NRGBA

	waitOnce sync.Once
	waitErr  error
	cleaned  sync.Once
}

func (e *ffmpegEncoder) WriteFrame(img *image.RGBA) error {
	if err := writeRawNRGBA(e.stdin, e.buf, img); err != nil {
		if errors.Is(err, os.ErrClosed) || isBrokenPipe(err) {
			return fmt.Errorf("ffmpeg exited early: %w: %s", err, e.stderr.String())
		}
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

func (e *ffmpegEncoder) Close() ([]byte, error) {
	defer e.cleanup()

	e.stdin.Close()
	if err := e.wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg wait error: %w: %s", err, e.stderr.String())
	}
	data, err := os.ReadFile(e.outPath)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}

func (e *ffmpegEncoder) Abort() error {
	e.stdin.Close()
	if e.cmd.Process != nil {
		// процесс мог уже завершиться, ошибку Kill игнорируем
		_ = e.cmd.Process.Kill()
	}
	_ = e.wait()
	e.cleanup()
	return nil
}

func (e *ffmpegEncoder) wait() error {
	e.waitOnce.Do(func() {
		e.waitErr = e.cmd.Wait()
	})
	return e.waitErr
}

func (e *ffmpegEncoder) cleanup() {
	e.cleaned.Do(func() {
		os.RemoveAll(e.tmpDir)
	})
}

func isBrokenPipe(err error) bool {
	return err != nil && strings.Contains(err.Error(), "broken pipe")
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   bytes.Buffer
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
