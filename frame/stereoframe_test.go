package frame

import (
	"image"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

// newTestStereoFrame builds a rectified three-point stereo frame: a tracked
// point with a valid match, a tracked point with no right correspondence,
// and an untracked point with a valid match. Keypoints3D is left for
// RecoverDepth to fill.
func newTestStereoFrame(t *testing.T) *StereoFrame {
	t.Helper()
	leftKps := []r2.Point{{X: 100, Y: 50}, {X: 200, Y: 100}, {X: 150, Y: 80}}
	rightKps := []r2.Point{{X: 90, Y: 50}, {X: 0, Y: 0}, {X: 140, Y: 80}}
	scores := []float64{0.9, 0.8, 0.7}
	landmarks := []LandmarkID{5, 7, NoLandmark}

	left, err := NewFrame(12, 34000, nil, leftKps, scores, landmarks)
	test.That(t, err, test.ShouldBeNil)
	right, err := NewFrame(12, 34000, nil, rightKps, scores, landmarks)
	test.That(t, err, test.ShouldBeNil)

	sf, err := NewStereoFrame(12, 34000, left, right)
	test.That(t, err, test.ShouldBeNil)
	sf.LeftRectified = StatusKeypoints{
		statusKp(StatusValid, 100, 50),
		statusKp(StatusValid, 200, 100),
		statusKp(StatusValid, 150, 80),
	}
	sf.RightRectified = StatusKeypoints{
		statusKp(StatusValid, 90, 50),
		statusKp(StatusNoRightRect, 0, 0),
		statusKp(StatusValid, 140, 80),
	}
	sf.IsRectified = true
	return sf
}

// newCheckedStereoFrame is newTestStereoFrame after depth recovery, so it
// passes Check.
func newCheckedStereoFrame(t *testing.T) *StereoFrame {
	t.Helper()
	sf := newTestStereoFrame(t)
	params := &MatchingParams{MinPointDist: 0.1, MaxPointDist: 100}
	test.That(t, sf.RecoverDepth(testStereoModel(), params), test.ShouldBeNil)
	return sf
}

func TestNewStereoFrame(t *testing.T) {
	left, err := NewFrame(1, 100, nil, nil, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	right, err := NewFrame(1, 100, nil, nil, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	sf, err := NewStereoFrame(1, 100, left, right)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sf.ID, test.ShouldEqual, uint64(1))
	test.That(t, sf.Timestamp, test.ShouldEqual, int64(100))
	test.That(t, sf.IsKeyframe, test.ShouldBeFalse)
	test.That(t, sf.IsRectified, test.ShouldBeFalse)

	for _, tc := range []struct {
		name      string
		id        uint64
		timestamp int64
	}{
		{"id mismatch", 2, 100},
		{"timestamp mismatch", 1, 999},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStereoFrame(tc.id, tc.timestamp, left, right)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrInvariant), test.ShouldBeTrue)
		})
	}
}

func TestNewFrameParallelArrays(t *testing.T) {
	kps := []r2.Point{{X: 1, Y: 2}}
	_, err := NewFrame(1, 100, nil, kps, nil, []LandmarkID{3})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewFrame(1, 100, nil, kps, []float64{0.5}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewFrame(1, 100, nil, kps, []float64{0.5}, []LandmarkID{3})
	test.That(t, err, test.ShouldBeNil)
}

func TestSetIsKeyframeMirrors(t *testing.T) {
	sf := newTestStereoFrame(t)
	sf.SetIsKeyframe(true)
	test.That(t, sf.IsKeyframe, test.ShouldBeTrue)
	test.That(t, sf.Left.IsKeyframe, test.ShouldBeTrue)
	test.That(t, sf.Right.IsKeyframe, test.ShouldBeTrue)

	// repeated calls are safe and commutative
	sf.SetIsKeyframe(true)
	sf.SetIsKeyframe(false)
	test.That(t, sf.IsKeyframe, test.ShouldBeFalse)
	test.That(t, sf.Left.IsKeyframe, test.ShouldBeFalse)
	test.That(t, sf.Right.IsKeyframe, test.ShouldBeFalse)
}

func TestSetRectifiedImages(t *testing.T) {
	sf := newTestStereoFrame(t)
	sf.IsRectified = false
	left := image.NewGray(image.Rect(0, 0, 4, 4))
	right := image.NewGray(image.Rect(0, 0, 4, 4))
	sf.SetRectifiedImages(left, right)
	test.That(t, sf.LeftRect, test.ShouldEqual, left)
	test.That(t, sf.RightRect, test.ShouldEqual, right)
	// storing images does not flip the rectified flag
	test.That(t, sf.IsRectified, test.ShouldBeFalse)
}

func TestCheck(t *testing.T) {
	t.Run("empty frame passes", func(t *testing.T) {
		left, err := NewFrame(1, 100, nil, nil, nil, nil)
		test.That(t, err, test.ShouldBeNil)
		right, err := NewFrame(1, 100, nil, nil, nil, nil)
		test.That(t, err, test.ShouldBeNil)
		sf, err := NewStereoFrame(1, 100, left, right)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sf.Check(), test.ShouldBeNil)
	})

	t.Run("recovered frame passes", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		test.That(t, sf.Check(), test.ShouldBeNil)
	})

	t.Run("length mismatch", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.Left.Scores = sf.Left.Scores[:2]
		err := sf.Check()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrInvariant), test.ShouldBeTrue)

		sf = newCheckedStereoFrame(t)
		sf.Keypoints3D = sf.Keypoints3D[:1]
		test.That(t, sf.Check(), test.ShouldNotBeNil)

		sf = newCheckedStereoFrame(t)
		sf.RightRectified = append(sf.RightRectified, statusKp(StatusNoDepth, 0, 0))
		test.That(t, sf.Check(), test.ShouldNotBeNil)
	})

	t.Run("epipolar tolerance", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.RightRectified[0].Point.Y = sf.LeftRectified[0].Point.Y + EpipolarTolerancePx + 1
		err := sf.Check()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "rectified y coordinates differ")

		// exactly at the tolerance is fine
		sf = newCheckedStereoFrame(t)
		sf.RightRectified[0].Point.Y = sf.LeftRectified[0].Point.Y + EpipolarTolerancePx
		test.That(t, sf.Check(), test.ShouldBeNil)
	})

	t.Run("zero raw right pixel on valid point", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.Right.Keypoints[0] = r2.Point{}
		err := sf.Check()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "zero raw pixel")
	})

	t.Run("depth and validity must agree", func(t *testing.T) {
		sf := newCheckedStereoFrame(t)
		sf.Keypoints3D[0].Z = 0
		err := sf.Check()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "non-positive depth")

		sf = newCheckedStereoFrame(t)
		sf.Keypoints3D[1] = r3.Vector{X: 1, Y: 1, Z: 4}
		err = sf.Check()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "positive depth")
	})
}

func TestPrint(t *testing.T) {
	sf := newCheckedStereoFrame(t)
	logger := golog.NewTestLogger(t)
	sf.Print(logger)
	counts, err := CountStatuses(sf.RightRectified)
	test.That(t, err, test.ShouldBeNil)
	LogKeypointStats(logger, counts)
}
