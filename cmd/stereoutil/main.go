// stereoutil inspects stereo frontend data offline: it recovers depth from
// matched rectified keypoints, validates frames, prints diagnostics and
// renders debug overlays.
package main

import (
	"os"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
)

var logger = golog.NewLogger("stereoutil")

var rootCmd = &cobra.Command{
	Use:          "stereoutil",
	Short:        "Offline tools for the stereo VIO frontend",
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(depthCmd, renderCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
