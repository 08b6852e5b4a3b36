package frame

import (
	"image"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
)

// EpipolarTolerancePx is the maximum vertical offset, in pixels, allowed
// between the rectified left and right pixels of a valid correspondence.
// Fixed for now; revisit if a rectification stage with larger residuals ever
// feeds this module.
const EpipolarTolerancePx = 3.0

// StereoFrame pairs two monocular frames taken at the same instant and owns
// the per-keypoint data derived from them. All per-keypoint slices are
// parallel to Left.Keypoints.
//
// A stereo frame is mutable only between construction and publication: the
// frontend sets rectified images, the keyframe flag and recovered depths,
// then hands the frame off. After that every consumer treats it as read-only.
type StereoFrame struct {
	ID        uint64
	Timestamp int64

	Left  Frame
	Right Frame

	IsKeyframe  bool
	IsRectified bool

	// Set by SetRectifiedImages once the rectification stage has run.
	LeftRect  image.Image
	RightRect image.Image

	// Triangulated positions in the left camera frame, one per left
	// keypoint. Zero for points without a valid depth.
	Keypoints3D []r3.Vector

	LeftRectified  StatusKeypoints
	RightRectified StatusKeypoints
}

// NewStereoFrame pairs two monocular frames. The constituent frames must
// carry the same id and timestamp as the stereo frame; a mismatch means the
// synchronizer upstream is broken and is reported as an invariant violation.
func NewStereoFrame(id uint64, timestamp int64, left, right *Frame) (*StereoFrame, error) {
	if left.ID != id {
		return nil, newInvariantError("left frame id %d does not match stereo frame id %d", left.ID, id)
	}
	if right.ID != id {
		return nil, newInvariantError("right frame id %d does not match stereo frame id %d", right.ID, id)
	}
	if left.Timestamp != timestamp {
		return nil, newInvariantError("left frame timestamp %d does not match stereo frame timestamp %d", left.Timestamp, timestamp)
	}
	if right.Timestamp != timestamp {
		return nil, newInvariantError("right frame timestamp %d does not match stereo frame timestamp %d", right.Timestamp, timestamp)
	}
	return &StereoFrame{
		ID:        id,
		Timestamp: timestamp,
		Left:      *left,
		Right:     *right,
	}, nil
}

// SetRectifiedImages stores the rectified image pair. It does not flip
// IsRectified; the rectification stage sets that once the rectified keypoint
// arrays are in place as well.
func (sf *StereoFrame) SetRectifiedImages(left, right image.Image) {
	sf.LeftRect = left
	sf.RightRect = right
}

// SetIsKeyframe flags the stereo frame and mirrors the flag into both owned
// monocular frames so that per-eye consumers see a consistent value.
func (sf *StereoFrame) SetIsKeyframe(isKeyframe bool) {
	sf.IsKeyframe = isKeyframe
	sf.Left.IsKeyframe = isKeyframe
	sf.Right.IsKeyframe = isKeyframe
}

// Check verifies the structural and geometric consistency of the stereo
// frame: every per-keypoint array has one entry per left keypoint, valid
// correspondences sit on the same epipolar line within EpipolarTolerancePx
// and have strictly positive depth, and invalid ones have none. Any failure
// is an ErrInvariant and means the frame must not reach the backend.
//
// This is a full O(N) pass intended for validation points, not for every
// frame on the hot path.
func (sf *StereoFrame) Check() error {
	n := len(sf.Left.Keypoints)
	if len(sf.Left.Scores) != n {
		return newInvariantError("%d left scores for %d left keypoints", len(sf.Left.Scores), n)
	}
	if len(sf.Right.Keypoints) != n {
		return newInvariantError("%d right keypoints for %d left keypoints", len(sf.Right.Keypoints), n)
	}
	if len(sf.Keypoints3D) != n {
		return newInvariantError("%d 3d keypoints for %d left keypoints", len(sf.Keypoints3D), n)
	}
	if len(sf.LeftRectified) != n {
		return newInvariantError("%d left rectified keypoints for %d left keypoints", len(sf.LeftRectified), n)
	}
	if len(sf.RightRectified) != n {
		return newInvariantError("%d right rectified keypoints for %d left keypoints", len(sf.RightRectified), n)
	}

	for i := 0; i < n; i++ {
		depth := sf.Keypoints3D[i].Z
		if sf.RightRectified[i].Status == StatusValid {
			yDiff := math.Abs(sf.RightRectified[i].Point.Y - sf.LeftRectified[i].Point.Y)
			if yDiff > EpipolarTolerancePx {
				return newInvariantError(
					"keypoint %d: rectified y coordinates differ by %.3f (left %.3f, right %.3f)",
					i, yDiff, sf.LeftRectified[i].Point.Y, sf.RightRectified[i].Point.Y)
			}
			rightRaw := sf.Right.Keypoints[i]
			if math.Abs(rightRaw.X)+math.Abs(rightRaw.Y) == 0 {
				return newInvariantError("keypoint %d: valid right correspondence with zero raw pixel", i)
			}
			if depth <= 0 {
				return newInvariantError("keypoint %d: valid right correspondence with non-positive depth %.3f", i, depth)
			}
		} else if depth > 0 {
			return newInvariantError(
				"keypoint %d: positive depth %.3f on point with status %v", i, depth, sf.RightRectified[i].Status)
		}
	}
	return nil
}

// Print logs a summary of the stereo frame.
func (sf *StereoFrame) Print(logger golog.Logger) {
	logger.Infof(
		"stereo frame %d: timestamp=%d keyframe=%t rectified=%t left_keypoints=%d right_keypoints=%d keypoints_3d=%d",
		sf.ID, sf.Timestamp, sf.IsKeyframe, sf.IsRectified,
		len(sf.Left.Keypoints), len(sf.Right.Keypoints), len(sf.Keypoints3D))
}

// LogKeypointStats logs the per-status breakdown of a right keypoint
// sequence.
func LogKeypointStats(logger golog.Logger, counts StatusCounts) {
	logger.Infof(
		"right keypoints: %d total, %d valid, %d no_left_rect, %d no_right_rect, %d no_depth, %d failed_arun",
		counts.Total(), counts.Valid, counts.NoLeftRect, counts.NoRightRect, counts.NoDepth, counts.FailedArun)
}
