package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/timeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate [project.yaml]",
	Short: "Check a project and list every problem",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	project, path, err := loadProject(args)
	if err != nil {
		return err
	}

	res := timeline.Validate(project.Timeline, timeline.DefaultLimits())
	styleErr := project.Style.Validate()

	if res.OK() && styleErr == nil {
		fmt.Println(successStyle.Render(fmt.Sprintf("[+++] %s: %d глав, %.2fs, ошибок нет",
			path, len(project.Timeline.Chapters), project.Timeline.TotalDuration)))
		return nil
	}

	for _, v := range res.Violations {
		where := "timeline"
		if v.Index >= 0 {
			where = fmt.Sprintf("chapter %d", v.Index)
		}
		fmt.Println(errorStyle.Render(fmt.Sprintf("[!] %-10s %-8s %s", where, v.Kind, v.Reason)))
	}
	if styleErr != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("[!] style      %v", styleErr)))
	}
	return errors.Join(res.Err(), styleErr)
}
