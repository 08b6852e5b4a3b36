package frame

import (
	"math"
	"sync/atomic"

	"github.com/edaniels/golog"
)

// StereoMeasurement is one landmark observation for the backend optimizer:
// the left rectified pixel (UL, V) and the right rectified x coordinate UR.
// UR is NaN when no usable right correspondence exists, signalling a
// monocular-only observation.
type StereoMeasurement struct {
	Landmark LandmarkID
	UL       float64
	UR       float64
	V        float64
}

// HasRight reports whether the measurement carries stereo information.
func (m StereoMeasurement) HasRight() bool {
	return !math.IsNaN(m.UR)
}

const droppedStereoLogEveryN = 10

var droppedStereoCount uint64

// SmartStereoMeasurements produces the backend-facing measurement list from
// a rectified stereo frame. Keypoints without a landmark are skipped; the
// rest are emitted in left-keypoint order. UR is filled only when useStereo
// is set and the point's right correspondence is valid.
//
// The frame must be rectified, and the full consistency check runs first, so
// this is an O(N) pass even before measurements are built.
func (sf *StereoFrame) SmartStereoMeasurements(useStereo bool, logger golog.Logger) ([]StereoMeasurement, error) {
	if !sf.IsRectified {
		return nil, newInvariantError("stereo frame %d is not rectified", sf.ID)
	}
	if err := sf.Check(); err != nil {
		return nil, err
	}

	measurements := make([]StereoMeasurement, 0, len(sf.Left.Landmarks))
	for i, lmk := range sf.Left.Landmarks {
		if !lmk.Present() {
			continue
		}
		leftKp := sf.LeftRectified[i].Point
		uR := math.NaN()
		if useStereo {
			if sf.RightRectified[i].Status == StatusValid {
				uR = sf.RightRectified[i].Point.X
			}
		} else if n := atomic.AddUint64(&droppedStereoCount, 1); n%droppedStereoLogEveryN == 1 {
			logger.Warnf("dropping stereo information: uR = NaN (stereo measurements disabled)")
		}
		measurements = append(measurements, StereoMeasurement{
			Landmark: lmk,
			UL:       leftKp.X,
			UR:       uR,
			V:        leftKp.Y,
		})
	}
	return measurements, nil
}
