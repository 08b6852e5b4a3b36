package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.viam.com/utils"

	"github.com/govio/stereo/frame"
	"github.com/govio/stereo/telemetry"
	"github.com/govio/stereo/transform"
)

// stereoObservation is the on-disk form of one matched, rectified stereo
// observation as dumped by the tracker.
type stereoObservation struct {
	FrameID    uint64                `json:"frame_id"`
	Timestamp  int64                 `json:"timestamp"`
	IsKeyframe bool                  `json:"is_keyframe"`
	Left       frame.StatusKeypoints `json:"left_rectified"`
	Right      frame.StatusKeypoints `json:"right_rectified"`
	Scores     []float64             `json:"scores"`
	Landmarks  []frame.LandmarkID    `json:"landmarks"`
}

func loadObservation(path string) (*stereoObservation, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening observation file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	obs := &stereoObservation{}
	if err := json.NewDecoder(f).Decode(obs); err != nil {
		return nil, errors.Wrap(err, "error parsing observation file")
	}
	return obs, nil
}

// buildStereoFrame rebuilds a rectified stereo frame from a dumped
// observation. The dump carries rectified pixels only, so those double as
// the raw keypoints.
func buildStereoFrame(obs *stereoObservation) (*frame.StereoFrame, error) {
	if len(obs.Right) != len(obs.Left) {
		return nil, errors.Errorf("%d right keypoints for %d left keypoints", len(obs.Right), len(obs.Left))
	}
	leftKps := make([]r2.Point, len(obs.Left))
	rightKps := make([]r2.Point, len(obs.Right))
	for i := range obs.Left {
		leftKps[i] = obs.Left[i].Point
		rightKps[i] = obs.Right[i].Point
	}
	rightLandmarks := make([]frame.LandmarkID, len(obs.Landmarks))
	copy(rightLandmarks, obs.Landmarks)
	rightScores := make([]float64, len(obs.Scores))
	copy(rightScores, obs.Scores)

	left, err := frame.NewFrame(obs.FrameID, obs.Timestamp, nil, leftKps, obs.Scores, obs.Landmarks)
	if err != nil {
		return nil, err
	}
	right, err := frame.NewFrame(obs.FrameID, obs.Timestamp, nil, rightKps, rightScores, rightLandmarks)
	if err != nil {
		return nil, err
	}
	sf, err := frame.NewStereoFrame(obs.FrameID, obs.Timestamp, left, right)
	if err != nil {
		return nil, err
	}
	sf.LeftRectified = obs.Left
	sf.RightRectified = obs.Right
	sf.IsRectified = true
	sf.SetIsKeyframe(obs.IsKeyframe)
	return sf, nil
}

var (
	modelPath  string
	paramsPath string
	dbPath     string
	useStereo  bool
)

var depthCmd = &cobra.Command{
	Use:   "depth <observation.json>",
	Short: "Recover depth for a dumped stereo observation and print diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := transform.NewStereoCameraModelFromJSONFile(modelPath)
		if err != nil {
			return err
		}
		params, err := frame.LoadMatchingParamsFromJSONFile(paramsPath)
		if err != nil {
			return err
		}
		obs, err := loadObservation(args[0])
		if err != nil {
			return err
		}
		sf, err := buildStereoFrame(obs)
		if err != nil {
			return err
		}
		if err := sf.RecoverDepth(model, params); err != nil {
			return err
		}
		counts, err := frame.CountStatuses(sf.RightRectified)
		if err != nil {
			return err
		}
		sf.Print(logger)
		frame.LogKeypointStats(logger, counts)

		measurements, err := sf.SmartStereoMeasurements(useStereo, logger)
		if err != nil {
			return err
		}
		for _, m := range measurements {
			fmt.Printf("landmark %d: uL=%.3f uR=%.3f v=%.3f\n", m.Landmark, m.UL, m.UR, m.V)
		}

		if dbPath != "" {
			store, err := telemetry.New(dbPath)
			if err != nil {
				return err
			}
			defer utils.UncheckedErrorFunc(store.Close)
			if err := store.RecordFrame(sf.ID, sf.Timestamp, sf.IsKeyframe, counts); err != nil {
				return err
			}
			logger.Infof("recorded frame %d under session %s", sf.ID, store.SessionID)
		}
		return nil
	},
}

func init() {
	depthCmd.Flags().StringVar(&modelPath, "model", "", "stereo camera model JSON file")
	depthCmd.Flags().StringVar(&paramsPath, "params", "", "stereo matching params JSON file")
	depthCmd.Flags().StringVar(&dbPath, "db", "", "optional SQLite database to record diagnostics into")
	depthCmd.Flags().BoolVar(&useStereo, "use-stereo", true, "emit right pixel coordinates in measurements")
	utils.UncheckedError(depthCmd.MarkFlagRequired("model"))
	utils.UncheckedError(depthCmd.MarkFlagRequired("params"))
}
