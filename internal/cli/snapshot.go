package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/renderer"
	"github.com/ivlev/chapterbar/internal/timeline"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [project.yaml]",
	Short: "Render a single frame to PNG",
	Long: `Render the frame at one point in time, exactly as export would.

Examples:
  chapterbar snapshot --at 12.5
  chapterbar snapshot input/talk.yaml --at 90 --preset strip -o frame.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	addVideoFlags(snapshotCmd)
	snapshotCmd.Flags().Float64("at", 0, "Time in seconds")
	snapshotCmd.Flags().StringP("output", "o", "snapshot.png", "Output PNG")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	project, _, err := loadProject(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, project)
	if err != nil {
		return err
	}
	if err := timeline.Validate(project.Timeline, timeline.DefaultLimits()).Err(); err != nil {
		printViolations(err)
		return err
	}

	at, _ := cmd.Flags().GetFloat64("at")
	out, _ := cmd.Flags().GetString("output")

	img, err := renderer.Render(at, project.Timeline, project.Style, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Debugw("snapshot written", "t", at, "size", img.Bounds().Size(), "path", out)
	fmt.Printf("[+++] Кадр %s сохранён: %s\n", renderer.FormatClock(at, project.Timeline.TotalDuration), out)
	return nil
}
