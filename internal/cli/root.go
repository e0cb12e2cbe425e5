package cli

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/logging"
)

// BuildVersion is stamped at link time with -ldflags "-X ...".
var BuildVersion = "dev"

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chapterbar",
	Short: "Render a chaptered progress bar overlay as a video",
	Long: `chapterbar draws a horizontal progress bar split into named chapters,
with the active chapter title and a running clock, and exports it as a
video track synchronized to the total duration.

Projects are YAML files with a timeline, a style and optional video
settings. Without an explicit path the newest file in input/ is used.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = BuildVersion
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
