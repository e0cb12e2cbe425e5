package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/config"
	"github.com/ivlev/chapterbar/internal/timeline"
)

var initCmd = &cobra.Command{
	Use:   "init [project.yaml]",
	Short: "Write a project file to start from",
	Long: `Write a project YAML. Without --chapter a sample project is written.

Chapters are given as title@end_time, in order. Every chapter is checked
as it is added, exactly as the editor does.

Examples:
  chapterbar init
  chapterbar init input/talk.yaml --duration 600 \
    --chapter "Intro@45" --chapter "Demo@420" --chapter "Q&A@600"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Float64("duration", 0, "Total duration in seconds")
	initCmd.Flags().StringArray("chapter", nil, "Chapter as title@end_time (repeatable)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		path = filepath.Join(inputDir, fmt.Sprintf("project_%s.yaml", time.Now().Format("2006-01-02_15-04-05")))
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	project := config.SampleProject()
	specs, _ := cmd.Flags().GetStringArray("chapter")
	duration, _ := cmd.Flags().GetFloat64("duration")
	if len(specs) > 0 || duration > 0 {
		tl, err := buildTimeline(duration, specs)
		if err != nil {
			return err
		}
		project.Timeline = tl
	}

	if err := config.SaveProject(project, path); err != nil {
		return err
	}
	logger.Debugw("project written", "path", path, "chapters", len(project.Timeline.Chapters))
	fmt.Printf("[+++] Проект создан: %s\n", path)
	return nil
}

// buildTimeline adds chapters one by one through a Draft, so the first
// invalid chapter is reported with its position.
func buildTimeline(duration float64, specs []string) (timeline.Timeline, error) {
	if duration <= 0 {
		return timeline.Timeline{}, fmt.Errorf("--duration is required with --chapter")
	}
	draft := timeline.NewDraft(duration, timeline.DefaultLimits())
	for i, s := range specs {
		title, end, err := parseChapter(s)
		if err != nil {
			return timeline.Timeline{}, fmt.Errorf("chapter %d: %w", i+1, err)
		}
		if _, err := draft.Add(title, end); err != nil {
			return timeline.Timeline{}, fmt.Errorf("chapter %d %q: %w", i+1, title, err)
		}
	}
	return draft.Snapshot(), nil
}

func parseChapter(s string) (string, float64, error) {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return "", 0, fmt.Errorf("expected title@end_time, got %q", s)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(s[at+1:]), 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad end time in %q: %w", s, err)
	}
	return strings.TrimSpace(s[:at]), end, nil
}
