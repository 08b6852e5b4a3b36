package main

import (
	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"

	"github.com/govio/stereo/render"
)

var (
	matchesPath string
	outDir      string
	frameID     uint64
	numLines    int
	randomColor bool
)

var renderCmd = &cobra.Command{
	Use:   "render <left.png> <right.png>",
	Short: "Render stereo debug overlays to PNG files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, err := imaging.Open(args[0])
		if err != nil {
			return err
		}
		right, err := imaging.Open(args[1])
		if err != nil {
			return err
		}

		overlay := render.EpipolarLines(left, right, numLines)
		path, err := render.WritePNG(overlay, outDir, "rectified", frameID)
		if err != nil {
			return err
		}
		logger.Infof("wrote epipolar overlay to %s", path)

		if matchesPath == "" {
			return nil
		}
		obs, err := loadObservation(matchesPath)
		if err != nil {
			return err
		}
		leftKps := make([]r2.Point, len(obs.Left))
		rightKps := make([]r2.Point, len(obs.Right))
		for i := range obs.Left {
			leftKps[i] = obs.Left[i].Point
		}
		for i := range obs.Right {
			rightKps[i] = obs.Right[i].Point
		}
		matchOverlay, err := render.Matches(left, right, leftKps, rightKps, render.SelfMatches(len(leftKps)), randomColor)
		if err != nil {
			return err
		}
		path, err = render.WritePNG(matchOverlay, outDir, "matches", obs.FrameID)
		if err != nil {
			return err
		}
		logger.Infof("wrote match overlay to %s", path)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&matchesPath, "matches", "", "optional observation JSON to draw left/right matches from")
	renderCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory to write PNG files into")
	renderCmd.Flags().Uint64Var(&frameID, "frame-id", 0, "frame id used in output file names")
	renderCmd.Flags().IntVar(&numLines, "lines", 15, "number of epipolar lines to draw")
	renderCmd.Flags().BoolVar(&randomColor, "random-color", false, "draw each match in a random color")
}
