// Package frame implements the stereo observation built by the VIO frontend:
// a pair of monocular frames, the per-keypoint correspondence statuses, depth
// recovery from rectified disparities, and the measurements handed to the
// backend optimizer.
package frame

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrInvariant is the category for consistency violations that indicate a
// logic or data-corruption bug upstream. Callers should treat it as
// unrecoverable; it is never returned for per-point match failures, which
// only demote the point's status.
var ErrInvariant = errors.New("stereo frame invariant violated")

func newInvariantError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvariant, format, args...)
}

// LandmarkID is the stable identity of a tracked 3D point across frames.
type LandmarkID int64

// NoLandmark marks a keypoint that is not associated with any landmark yet.
const NoLandmark LandmarkID = -1

// Present reports whether the id refers to an actual landmark.
func (l LandmarkID) Present() bool {
	return l != NoLandmark
}

// Frame is a single monocular frame: one image plus parallel per-keypoint
// arrays. Index i refers to the same physical point in every array.
type Frame struct {
	ID         uint64
	Timestamp  int64
	Image      image.Image
	IsKeyframe bool
	Keypoints  []r2.Point
	Scores     []float64
	Landmarks  []LandmarkID
}

// NewFrame returns a frame after validating that the per-keypoint arrays are
// parallel.
func NewFrame(id uint64, timestamp int64, img image.Image, kps []r2.Point, scores []float64, landmarks []LandmarkID) (*Frame, error) {
	if len(scores) != len(kps) {
		return nil, newInvariantError("frame %d: %d scores for %d keypoints", id, len(scores), len(kps))
	}
	if len(landmarks) != len(kps) {
		return nil, newInvariantError("frame %d: %d landmark ids for %d keypoints", id, len(landmarks), len(kps))
	}
	return &Frame{
		ID:        id,
		Timestamp: timestamp,
		Image:     img,
		Keypoints: kps,
		Scores:    scores,
		Landmarks: landmarks,
	}, nil
}
