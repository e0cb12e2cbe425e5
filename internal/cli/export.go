package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/engine"
	"github.com/ivlev/chapterbar/internal/system"
	"github.com/ivlev/chapterbar/internal/timeline"
	"github.com/ivlev/chapterbar/internal/video"
)

var exportCmd = &cobra.Command{
	Use:   "export [project.yaml]",
	Short: "Render the progress bar and encode it to a video file",
	Long: `Render every frame of the project at a fixed frame rate and encode it.

Formats:
  webm  VP9 with alpha (default, for overlay tracks)
  mov   QuickTime Animation with alpha
  mp4   H.264, hardware encoder when available, no alpha
  avi   Motion-JPEG written without ffmpeg, no alpha

Ctrl-C cancels the export; nothing is written in that case.

Examples:
  chapterbar export
  chapterbar export input/talk.yaml -o talk.webm
  chapterbar export --preset strip --fps 25 -f mp4 --timeout 10m`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addVideoFlags(exportCmd)
	exportCmd.Flags().
		StringP("output", "o", "", "Output file (default output/progressbar_<timestamp>.<ext>)")
	exportCmd.Flags().
		StringP("format", "f", "webm", "Container: webm, mov, mp4, avi")
	exportCmd.Flags().Float64("fps", 30, "Frames per second")
	exportCmd.Flags().String("codec", "", "Override the video encoder (e.g. libx264, h264_nvenc)")
	exportCmd.Flags().
		Int("quality", 0, "Quality (0 - auto; x264/vp9: CRF, VideoToolbox: bitrate = Q*100kbit/s, avi: JPEG 1-100)")
	exportCmd.Flags().
		Int("queue", engine.DefaultQueueDepth, "Frames buffered between renderer and encoder (0 - from free memory)")
	exportCmd.Flags().String("ffmpeg", "", "Path to ffmpeg (default $"+system.FFmpegEnv+" or PATH)")
	exportCmd.Flags().Duration("timeout", 0, "Cancel the export after this long (0 - no limit)")
	exportCmd.Flags().Bool("stats", false, "Print a performance report and append it to benchmark.log")
}

func runExport(cmd *cobra.Command, args []string) error {
	project, projectPath, err := loadProject(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, project)
	if err != nil {
		return err
	}
	cfg.InputPath = projectPath

	cfg.OutputVideo, _ = cmd.Flags().GetString("output")
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(video.Ext(cfg.Format))
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	factory, err := video.NewFactory(cfg.Format, cfg.FFmpegPath, "")
	if err != nil {
		return err
	}
	exp := engine.NewExporter(factory, cfg.Format, logger)
	exp.QueueDepth = cfg.QueueDepth
	exp.Codec = cfg.VideoEncoder
	exp.Quality = cfg.Quality
	exp.ShowStats = cfg.ShowStats
	exp.BuildVersion = cfg.BuildVersion

	fmt.Println("--- [CHAPTERBAR EXPORT] ---")
	fmt.Printf("[*] Проект: %s | Глав: %d | Длительность: %.2fs\n",
		cfg.InputPath, len(project.Timeline.Chapters), project.Timeline.TotalDuration)
	fmt.Printf("[*] Разрешение: %dx%d @ %g FPS | Формат: %s\n", cfg.Width, cfg.Height, cfg.FPS, cfg.Format)
	if !video.KeepsAlpha(cfg.Format) {
		fmt.Printf("[!] %s не хранит прозрачность: фон вокруг полосы будет чёрным\n", cfg.Format)
	}
	fmt.Println("---------------------------")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	job := exp.Start(ctx, project.Timeline, project.Style, engine.Params{
		FPS:    cfg.FPS,
		Width:  cfg.Width,
		Height: cfg.Height,
	})

	bar := newProgressBar(os.Stdout)
	for pct := range job.Progress() {
		bar.Update(pct)
	}
	bar.Finish()
	res := job.Wait()

	switch res.Status {
	case engine.StatusSuccess:
	case engine.StatusCancelled:
		fmt.Println(errorStyle.Render("[!] Экспорт отменён, файл не записан"))
		return res.AsError()
	case engine.StatusValidation:
		printViolations(res.Err)
		return res.Err
	default:
		fmt.Println(errorStyle.Render(fmt.Sprintf("[!] Ошибка экспорта (%s): %v", res.Status, res.Err)))
		return res.Err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputVideo), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.OutputVideo, res.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutputVideo, err)
	}

	if cfg.ShowStats {
		fmt.Print(res.Stats.Report(cfg.BuildVersion))
		if err := engine.AppendBenchmark("benchmark.log", cfg.BuildVersion, filepath.Base(cfg.InputPath), res.Stats); err != nil {
			fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		}
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("[+++] Успех! Результат: %s (%d кадров, %s)",
		cfg.OutputVideo, res.Frames, res.Stats.Total.Round(time.Millisecond))))
	return nil
}

// printViolations lists every timeline violation on its own line.
func printViolations(err error) {
	var verr *timeline.ValidationError
	if !errors.As(err, &verr) {
		fmt.Println(errorStyle.Render(fmt.Sprintf("[!] %v", err)))
		return
	}
	for _, v := range verr.Violations {
		fmt.Println(errorStyle.Render(fmt.Sprintf("[!] %s", v.Reason)))
	}
}
