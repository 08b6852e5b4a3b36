package frame

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestSmartStereoMeasurements(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("requires a rectified frame", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.IsRectified = false
		_, err := sf.SmartStereoMeasurements(true, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvariant), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "not rectified")
	})

	t.Run("runs the consistency check first", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.Keypoints3D = sf.Keypoints3D[:1]
		_, err := sf.SmartStereoMeasurements(true, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("untracked points are excluded", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		measurements, err := sf.SmartStereoMeasurements(true, logger)
		test.That(t, err, test.ShouldBeNil)
		// point 2 has a valid stereo match but no landmark
		test.That(t, measurements, test.ShouldHaveLength, 2)
		test.That(t, measurements[0].Landmark, test.ShouldEqual, LandmarkID(5))
		test.That(t, measurements[1].Landmark, test.ShouldEqual, LandmarkID(7))
	})

	t.Run("valid stereo point carries uR", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		measurements, err := sf.SmartStereoMeasurements(true, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, measurements[0].UL, test.ShouldEqual, 100.0)
		test.That(t, measurements[0].V, test.ShouldEqual, 50.0)
		test.That(t, measurements[0].UR, test.ShouldEqual, 90.0)
		test.That(t, measurements[0].HasRight(), test.ShouldBeTrue)
	})

	t.Run("invalid right correspondence yields NaN uR", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		measurements, err := sf.SmartStereoMeasurements(true, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.IsNaN(measurements[1].UR), test.ShouldBeTrue)
		test.That(t, measurements[1].HasRight(), test.ShouldBeFalse)
		test.That(t, measurements[1].UL, test.ShouldEqual, 200.0)
		test.That(t, measurements[1].V, test.ShouldEqual, 100.0)
	})

	t.Run("disabled stereo forces NaN uR everywhere", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		measurements, err := sf.SmartStereoMeasurements(false, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, measurements, test.ShouldHaveLength, 2)
		for _, m := range measurements {
			test.That(t, math.IsNaN(m.UR), test.ShouldBeTrue)
		}
	})
}
