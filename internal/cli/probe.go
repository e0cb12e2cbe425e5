package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/chapterbar/internal/video"
)

var probeCmd = &cobra.Command{
	Use:   "probe video_file",
	Short: "Show codec, size, frame count and duration of an exported file (needs ffprobe)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	info, err := video.Inspect(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("[*] %s\n", args[0])
	fmt.Printf("    codec:    %s (%s)\n", info.Codec, info.PixFmt)
	fmt.Printf("    size:     %dx%d\n", info.Width, info.Height)
	fmt.Printf("    frames:   %d\n", info.Frames)
	fmt.Printf("    duration: %.3fs\n", info.Duration)
	return nil
}
