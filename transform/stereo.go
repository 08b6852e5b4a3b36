package transform

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// StereoCameraModel is a calibrated, rectified stereo rig: one pinhole model
// per eye plus the baseline separating them. After rectification both eyes
// share the same horizontal focal length, which is what relates disparity to
// depth.
type StereoCameraModel struct {
	Left     *PinholeCameraIntrinsics `json:"left"`
	Right    *PinholeCameraIntrinsics `json:"right"`
	Baseline float64                  `json:"baseline_m"`
}

// CheckValid checks that both eyes carry usable intrinsics and that the rig
// geometry is consistent.
func (model *StereoCameraModel) CheckValid() error {
	if model == nil {
		return errors.New("stereo camera model is nil")
	}
	if err := model.Left.CheckValid(); err != nil {
		return errors.Wrap(err, "left camera")
	}
	if err := model.Right.CheckValid(); err != nil {
		return errors.Wrap(err, "right camera")
	}
	if model.Baseline <= 0 {
		return errors.Errorf("invalid baseline %v, must be positive", model.Baseline)
	}
	if math.Abs(model.Left.Fx-model.Right.Fx) > 1e-9 {
		return errors.Errorf("rectified eyes must share fx, got left %v right %v", model.Left.Fx, model.Right.Fx)
	}
	return nil
}

// Fx returns the shared horizontal focal length of the rectified pair.
func (model *StereoCameraModel) Fx() float64 {
	return model.Left.Fx
}

// DisparityToDepth converts a rectified horizontal disparity to metric
// depth. Non-positive disparities carry no depth information and map to 0.
func (model *StereoCameraModel) DisparityToDepth(disparity float64) float64 {
	if disparity <= 0 {
		return 0
	}
	return model.Fx() * model.Baseline / disparity
}

// DepthToDisparity converts a metric depth to the rectified horizontal
// disparity it would produce.
func (model *StereoCameraModel) DepthToDisparity(depth float64) (float64, error) {
	if depth <= 0 {
		return 0, errors.Errorf("depth must be positive, got %v", depth)
	}
	return model.Fx() * model.Baseline / depth, nil
}

// NewStereoCameraModelFromJSONFile loads and validates a stereo camera model
// from a json file.
func NewStereoCameraModelFromJSONFile(jsonPath string) (*StereoCameraModel, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	model := &StereoCameraModel{}
	if err := json.NewDecoder(jsonFile).Decode(model); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := model.CheckValid(); err != nil {
		return nil, err
	}
	return model, nil
}
