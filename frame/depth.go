package frame

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/govio/stereo/transform"
)

// MatchingParams bounds the depths the stereo matcher will accept. Points
// closer than MinPointDist sit in the rig's blind zone; points farther than
// MaxPointDist have disparities too small to be trustworthy.
type MatchingParams struct {
	MinPointDist float64 `json:"min_point_dist_m"`
	MaxPointDist float64 `json:"max_point_dist_m"`
}

// CheckValid checks that the depth range is usable.
func (params *MatchingParams) CheckValid() error {
	if params == nil {
		return errors.New("matching params are nil")
	}
	if params.MinPointDist <= 0 {
		return errors.Errorf("min point distance %v must be positive", params.MinPointDist)
	}
	if params.MaxPointDist <= params.MinPointDist {
		return errors.Errorf("max point distance %v must exceed min point distance %v",
			params.MaxPointDist, params.MinPointDist)
	}
	return nil
}

// LoadMatchingParamsFromJSONFile loads and validates matching parameters
// from a json file.
func LoadMatchingParamsFromJSONFile(jsonPath string) (*MatchingParams, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	params := &MatchingParams{}
	if err := json.NewDecoder(jsonFile).Decode(params); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params, nil
}

// DepthFromRectifiedMatches recovers one metric depth per rectified
// correspondence, depth = fx * baseline / disparity. Right statuses are
// downgraded in place: a non-valid left status propagates to the right (a
// right correspondence cannot be valid without its left), and a negative
// disparity or an out-of-range depth demotes the point to StatusNoDepth with
// depth 0. A status is never upgraded.
//
// The returned slice is always the same length as the inputs.
func DepthFromRectifiedMatches(left, right StatusKeypoints, fx, baseline float64, params *MatchingParams) ([]float64, error) {
	if len(left) != len(right) {
		return nil, newInvariantError("%d left rectified keypoints but %d right", len(left), len(right))
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}

	fxB := fx * baseline
	depths := make([]float64, len(left))
	for i := range left {
		if left[i].Status != StatusValid {
			right[i].Status = left[i].Status
			continue
		}
		if right[i].Status != StatusValid {
			continue
		}
		disparity := left[i].Point.X - right[i].Point.X
		if disparity < 0 {
			// The match sits on the wrong side; geometrically impossible for
			// a rectified pair.
			right[i].Status = StatusNoDepth
			continue
		}
		depth := fxB / disparity
		if depth < params.MinPointDist || depth > params.MaxPointDist {
			right[i].Status = StatusNoDepth
			continue
		}
		depths[i] = depth
	}
	return depths, nil
}

// RecoverDepth runs depth recovery over the frame's own rectified keypoint
// arrays and fills Keypoints3D by backprojecting each left rectified pixel
// through the left intrinsics. Points without a usable depth get the zero
// vector, keeping depth and status in the agreement Check asserts.
func (sf *StereoFrame) RecoverDepth(model *transform.StereoCameraModel, params *MatchingParams) error {
	if err := model.CheckValid(); err != nil {
		return err
	}
	depths, err := DepthFromRectifiedMatches(sf.LeftRectified, sf.RightRectified, model.Fx(), model.Baseline, params)
	if err != nil {
		return err
	}
	sf.Keypoints3D = make([]r3.Vector, len(depths))
	for i, depth := range depths {
		if depth <= 0 {
			continue
		}
		pt := sf.LeftRectified[i].Point
		sf.Keypoints3D[i] = model.Left.PixelToPoint(pt.X, pt.Y, depth)
	}
	return nil
}
