package frame

import (
	"encoding/json"

	"github.com/golang/geo/r2"
)

// KeypointStatus classifies the quality of a keypoint's right-camera
// correspondence. The set is closed; code switching over it must handle
// every value and reject anything else.
type KeypointStatus int

// All correspondence statuses a keypoint can be in.
const (
	// StatusValid means both rectified pixels and an in-range positive depth
	// are usable.
	StatusValid KeypointStatus = iota
	// StatusNoLeftRect means the left pixel could not be rectified.
	StatusNoLeftRect
	// StatusNoRightRect means the right pixel could not be rectified or no
	// right match was found.
	StatusNoRightRect
	// StatusNoDepth means rectification succeeded but the recovered depth is
	// invalid or out of the configured range.
	StatusNoDepth
	// StatusFailedArun means a pose-from-points computation using this point
	// failed downstream.
	StatusFailedArun
)

var statusNames = map[KeypointStatus]string{
	StatusValid:       "valid",
	StatusNoLeftRect:  "no_left_rect",
	StatusNoRightRect: "no_right_rect",
	StatusNoDepth:     "no_depth",
	StatusFailedArun:  "failed_arun",
}

func (s KeypointStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the status by name.
func (s KeypointStatus) MarshalJSON() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, newInvariantError("unknown keypoint status value %d", int(s))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a status name.
func (s *KeypointStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for status, n := range statusNames {
		if n == name {
			*s = status
			return nil
		}
	}
	return newInvariantError("unknown keypoint status %q", name)
}

// StatusKeypoint is a rectified pixel together with its correspondence
// status.
type StatusKeypoint struct {
	Status KeypointStatus `json:"status"`
	Point  r2.Point       `json:"point"`
}

// StatusKeypoints is one status keypoint per tracked point, in left-keypoint
// order.
type StatusKeypoints []StatusKeypoint

// StatusCounts tallies how many keypoints are in each status.
type StatusCounts struct {
	Valid       int
	NoLeftRect  int
	NoRightRect int
	NoDepth     int
	FailedArun  int
}

// Total returns the number of keypoints tallied.
func (c StatusCounts) Total() int {
	return c.Valid + c.NoLeftRect + c.NoRightRect + c.NoDepth + c.FailedArun
}

// CountStatuses folds a status keypoint sequence into per-status counts.
// An out-of-range status value is a corruption of the closed enumeration and
// is reported as an invariant violation.
func CountStatuses(kps StatusKeypoints) (StatusCounts, error) {
	var counts StatusCounts
	for i, kp := range kps {
		switch kp.Status {
		case StatusValid:
			counts.Valid++
		case StatusNoLeftRect:
			counts.NoLeftRect++
		case StatusNoRightRect:
			counts.NoRightRect++
		case StatusNoDepth:
			counts.NoDepth++
		case StatusFailedArun:
			counts.FailedArun++
		default:
			return StatusCounts{}, newInvariantError("keypoint %d has unknown status value %d", i, int(kp.Status))
		}
	}
	return counts, nil
}
