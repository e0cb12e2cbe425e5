package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/config"
	"github.com/ivlev/chapterbar/internal/system"
)

const inputDir = "input"

// loadProject opens args[0], or the newest project file in input/.
func loadProject(args []string) (*config.Project, string, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		latest, err := system.FindLatest(inputDir, ".yaml", ".yml")
		if err != nil {
			return nil, "", fmt.Errorf("%w. Create one with `chapterbar init`", err)
		}
		path = latest
		fmt.Printf("[*] Выбран проект: %s\n", path)
	}

	p, err := config.LoadProject(path)
	if err != nil {
		return nil, "", err
	}
	return p, path, nil
}

// addVideoFlags registers the frame geometry flags shared by export,
// snapshot and preview.
func addVideoFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 0, "Frame width (default from project or 1920)")
	cmd.Flags().Int("height", 0, "Frame height (default from project or 1080)")
	cmd.Flags().String("preset", "", "Frame size preset: 1080p, 720p, strip (bar height plus margins)")
}

// buildConfig merges defaults, the project's video section and explicit
// flags, in that order.
func buildConfig(cmd *cobra.Command, p *config.Project) (*config.Config, error) {
	cfg := config.Default()
	cfg.BuildVersion = BuildVersion
	cfg.Apply(p.Video)

	flags := cmd.Flags()
	if flags.Changed("preset") {
		cfg.Preset, _ = flags.GetString("preset")
	}
	if err := cfg.ApplyPreset(cfg.Preset, p.Style); err != nil {
		return nil, err
	}
	if flags.Changed("width") {
		cfg.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		cfg.Height, _ = flags.GetInt("height")
	}
	if f := flags.Lookup("fps"); f != nil && f.Changed {
		cfg.FPS, _ = flags.GetFloat64("fps")
	}
	if f := flags.Lookup("format"); f != nil && f.Changed {
		cfg.Format, _ = flags.GetString("format")
	}
	if f := flags.Lookup("codec"); f != nil && f.Changed {
		cfg.VideoEncoder, _ = flags.GetString("codec")
	}
	if f := flags.Lookup("quality"); f != nil && f.Changed {
		cfg.Quality, _ = flags.GetInt("quality")
	}
	if f := flags.Lookup("queue"); f != nil && f.Changed {
		cfg.QueueDepth, _ = flags.GetInt("queue")
	}
	if f := flags.Lookup("ffmpeg"); f != nil {
		cfg.FFmpegPath, _ = flags.GetString("ffmpeg")
	}
	if f := flags.Lookup("stats"); f != nil {
		cfg.ShowStats, _ = flags.GetBool("stats")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultOutput names an export output/progressbar_<timestamp>.<ext>.
func defaultOutput(ext string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("progressbar_%s%s", timestamp, ext))
}
