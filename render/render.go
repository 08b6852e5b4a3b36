// Package render draws debug overlays for stereo frames: side-by-side pairs,
// epipolar-line grids and left/right match visualizations, exportable as PNG
// files named by frame id.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/govio/stereo/frame"
)

// SideBySide concatenates the left and right images horizontally on a black
// canvas tall enough for both.
func SideBySide(left, right image.Image) *image.NRGBA {
	lb, rb := left.Bounds(), right.Bounds()
	h := lb.Dy()
	if rb.Dy() > h {
		h = rb.Dy()
	}
	canvas := imaging.New(lb.Dx()+rb.Dx(), h, color.Black)
	canvas = imaging.Paste(canvas, left, image.Point{0, 0})
	canvas = imaging.Paste(canvas, right, image.Point{lb.Dx(), 0})
	return canvas
}

// EpipolarLines concatenates the rectified pair and draws numLines evenly
// spaced horizontal lines across both images. On a correctly rectified pair
// corresponding points sit on the same line.
func EpipolarLines(left, right image.Image, numLines int) image.Image {
	canvas := SideBySide(left, right)
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	dc := gg.NewContext(w, h)
	dc.DrawImage(canvas, 0, 0)
	dc.SetRGB(0, 1, 0)
	dc.SetLineWidth(1)
	lineGap := float64(h) / float64(numLines+1)
	for l := 1; l <= numLines; l++ {
		y := float64(l) * lineGap
		dc.DrawLine(0, y, float64(w-1), y)
		dc.Stroke()
	}
	return dc.Image()
}

// Matches draws keypoint correspondences between the two images: a circle on
// each matched keypoint and a line connecting the pair across the
// side-by-side canvas. pairs holds (left index, right index) tuples. With
// randomColor unset every match is drawn green.
func Matches(left, right image.Image, leftKps, rightKps []r2.Point, pairs [][2]int, randomColor bool) (image.Image, error) {
	canvas := SideBySide(left, right)
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	xOffset := float64(left.Bounds().Dx())
	dc := gg.NewContext(w, h)
	dc.DrawImage(canvas, 0, 0)
	dc.SetLineWidth(1.25)
	for _, pair := range pairs {
		li, ri := pair[0], pair[1]
		if li < 0 || li >= len(leftKps) {
			return nil, errors.Errorf("match left index %d out of range for %d keypoints", li, len(leftKps))
		}
		if ri < 0 || ri >= len(rightKps) {
			return nil, errors.Errorf("match right index %d out of range for %d keypoints", ri, len(rightKps))
		}
		if randomColor {
			dc.SetRGB(rand.Float64(), rand.Float64(), rand.Float64()) //nolint:gosec
		} else {
			dc.SetRGB(0, 1, 0)
		}
		lp, rp := leftKps[li], rightKps[ri]
		dc.DrawCircle(lp.X, lp.Y, 3)
		dc.Stroke()
		dc.DrawCircle(rp.X+xOffset, rp.Y, 3)
		dc.Stroke()
		dc.DrawLine(lp.X, lp.Y, rp.X+xOffset, rp.Y)
		dc.Stroke()
	}
	return dc.Image(), nil
}

// SelfMatches returns the identity correspondence list for n keypoints, for
// pairs whose arrays are already aligned index to index.
func SelfMatches(n int) [][2]int {
	pairs := make([][2]int, n)
	for i := range pairs {
		pairs[i] = [2]int{i, i}
	}
	return pairs
}

// RectifiedOverlay renders the epipolar-line grid over a frame's rectified
// pair.
func RectifiedOverlay(sf *frame.StereoFrame, numLines int) (image.Image, error) {
	if !sf.IsRectified {
		return nil, errors.Errorf("stereo frame %d is not rectified", sf.ID)
	}
	if sf.LeftRect == nil || sf.RightRect == nil {
		return nil, errors.Errorf("stereo frame %d has no rectified images", sf.ID)
	}
	return EpipolarLines(sf.LeftRect, sf.RightRect, numLines), nil
}

// RectifiedMatches renders the frame's rectified left/right correspondences.
// Keypoint arrays are aligned, so the identity pairing is used.
func RectifiedMatches(sf *frame.StereoFrame, randomColor bool) (image.Image, error) {
	if !sf.IsRectified {
		return nil, errors.Errorf("stereo frame %d is not rectified", sf.ID)
	}
	if sf.LeftRect == nil || sf.RightRect == nil {
		return nil, errors.Errorf("stereo frame %d has no rectified images", sf.ID)
	}
	leftKps := make([]r2.Point, len(sf.LeftRectified))
	rightKps := make([]r2.Point, len(sf.RightRectified))
	for i := range sf.LeftRectified {
		leftKps[i] = sf.LeftRectified[i].Point
		rightKps[i] = sf.RightRectified[i].Point
	}
	return Matches(sf.LeftRect, sf.RightRect, leftKps, rightKps, SelfMatches(len(leftKps)), randomColor)
}

// WritePNG saves an overlay under dir as <prefix>_<frameID>.png and returns
// the path written.
func WritePNG(img image.Image, dir, prefix string, frameID uint64) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", prefix, frameID))
	if err := imaging.Save(img, path); err != nil {
		return "", errors.Wrapf(err, "error writing %s", path)
	}
	return path, nil
}
