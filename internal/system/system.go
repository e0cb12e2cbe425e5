package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// FFmpegEnv overrides the ffmpeg binary lookup.
const FFmpegEnv = "CHAPTERBAR_FFMPEG"

// FFmpegPath returns the ffmpeg binary: $CHAPTERBAR_FFMPEG first, then PATH.
func FFmpegPath() (string, error) {
	if p := os.Getenv(FFmpegEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", FFmpegEnv, p, err)
		}
		return p, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return p, nil
}

var (
	encodersMu    sync.Mutex
	encodersCache = map[string]string{}
)

// ListEncoders returns the `ffmpeg -encoders` output, cached per binary.
func ListEncoders(ffmpegPath string) (string, error) {
	encodersMu.Lock()
	defer encodersMu.Unlock()

	if out, ok := encodersCache[ffmpegPath]; ok {
		return out, nil
	}
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -encoders: %w", err)
	}
	encodersCache[ffmpegPath] = string(out)
	return string(out), nil
}

func HasEncoder(ffmpegPath, name string) bool {
	out, err := ListEncoders(ffmpegPath)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// BestH264Encoder prefers hardware encoders and falls back to libx264.
// Приоритеты: VideoToolbox (macOS), NVENC, затем программный libx264.
func BestH264Encoder(ffmpegPath string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if HasEncoder(ffmpegPath, name) {
			return name
		}
	}
	return "libx264"
}

// FindLatest returns the most recently modified file in dir whose extension
// is one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// SuggestQueueDepth sizes the render/encode queue from available memory:
// at most 1/16 of free RAM goes to queued frames, clamped to [2, 4].
func SuggestQueueDepth(frameBytes int) int {
	const lo, hi, fallback = 2, 4, 3

	vm, err := mem.VirtualMemory()
	if err != nil || frameBytes <= 0 {
		return fallback
	}
	depth := int(vm.Available / 16 / uint64(frameBytes))
	if depth < lo {
		return lo
	}
	if depth > hi {
		return hi
	}
	return depth
}

// ProcessRSS reports the resident set size of the current process in bytes.
func ProcessRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
