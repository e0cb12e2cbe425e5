package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/preview"
	"github.com/ivlev/chapterbar/internal/renderer"
	"github.com/ivlev/chapterbar/internal/timeline"
)

var previewCmd = &cobra.Command{
	Use:   "preview [project.yaml]",
	Short: "Play the progress bar in real time into a PNG file",
	Long: `Advance a looping cursor at wall-clock speed and overwrite a PNG on
every tick. Open the file in a viewer that reloads on change.

Examples:
  chapterbar preview
  chapterbar preview --from 30 --fps 5 --for 1m -o /tmp/bar.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	addVideoFlags(previewCmd)
	previewCmd.Flags().Float64("fps", 10, "Ticks per second")
	previewCmd.Flags().Float64("from", 0, "Start time in seconds")
	previewCmd.Flags().Duration("for", 0, "Stop after this long (0 - until Ctrl-C)")
	previewCmd.Flags().StringP("output", "o", "preview.png", "PNG file rewritten on every tick")
}

func runPreview(cmd *cobra.Command, args []string) error {
	project, _, err := loadProject(args)
	if err != nil {
		return err
	}
	fps, _ := cmd.Flags().GetFloat64("fps")
	cfg, err := buildConfig(cmd, project)
	if err != nil {
		return err
	}
	if err := timeline.Validate(project.Timeline, timeline.DefaultLimits()).Err(); err != nil {
		printViolations(err)
		return err
	}

	from, _ := cmd.Flags().GetFloat64("from")
	limit, _ := cmd.Flags().GetDuration("for")
	out, _ := cmd.Flags().GetString("output")

	r, err := renderer.New(project.Style, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	player := preview.NewPlayer(r, project.Timeline, &preview.PNGSurface{Path: out}, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	fmt.Println(processingStyle.Render(fmt.Sprintf("[*] Предпросмотр %dx%d @ %g FPS -> %s (Ctrl-C для выхода)", cfg.Width, cfg.Height, fps, out)))
	player.Play(from)
	if err := player.Run(ctx, fps); err != nil {
		return err
	}
	player.Stop()

	fmt.Printf("[+++] Показано кадров: %d\n", player.Ticks())
	return nil
}
