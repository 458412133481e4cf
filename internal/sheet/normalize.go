package sheet

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/omr-grader-mcp/internal/detection"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
)

// ErrSheetNotDetected is returned when no four-cornered sheet boundary can be
// found in a photo.
var ErrSheetNotDetected = errors.New("answer sheet not detected")

// Options controls normalization.
type Options struct {
	// Width and Height are the canonical sheet size in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// DetectMaxDim caps the longest side of the image used for boundary
	// detection. Corners are scaled back to the full-resolution photo before
	// warping. 0 disables downscaling.
	DetectMaxDim int `json:"detect_max_dim"`

	// CannyLow and CannyHigh are the edge hysteresis thresholds (0-255).
	CannyLow  int `json:"canny_low"`
	CannyHigh int `json:"canny_high"`

	// Epsilon is the polygon approximation tolerance as a fraction of each
	// contour's perimeter.
	Epsilon float64 `json:"epsilon"`

	// MinContourPixels drops edge fragments smaller than this.
	MinContourPixels int `json:"min_contour_pixels"`

	// ClipLimit and Tiles configure CLAHE on the warped sheet. A negative
	// ClipLimit skips equalization.
	ClipLimit float64 `json:"clip_limit"`
	Tiles     int     `json:"tiles"`

	GrayMode imaging.GrayMode `json:"gray_mode"`
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Width:            600,
		Height:           800,
		DetectMaxDim:     1000,
		CannyLow:         50,
		CannyHigh:        150,
		Epsilon:          0.02,
		MinContourPixels: 10,
		ClipLimit:        3.0,
		Tiles:            8,
		GrayMode:         imaging.GrayLuma,
	}
}

// Sheet is a normalized answer sheet.
type Sheet struct {
	// Gray is the equalized single-channel sheet, exactly Width × Height.
	Gray *image.Gray

	// Warped is the perspective-corrected colour sheet before equalization.
	Warped *image.NRGBA

	// Corners are the sheet corners in the source photo, ordered top-left,
	// top-right, bottom-right, bottom-left.
	Corners [4]imaging.PointF

	SourceWidth  int
	SourceHeight int
}

// Normalizer finds and rectifies answer sheets. It holds no mutable state and
// is safe for concurrent use.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer. Zero fields of opts take their
// defaults.
func NewNormalizer(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.CannyLow <= 0 && opts.CannyHigh <= 0 {
		opts.CannyLow, opts.CannyHigh = def.CannyLow, def.CannyHigh
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = def.Epsilon
	}
	if opts.MinContourPixels <= 0 {
		opts.MinContourPixels = def.MinContourPixels
	}
	if opts.ClipLimit == 0 {
		opts.ClipLimit = def.ClipLimit
	}
	if opts.Tiles <= 0 {
		opts.Tiles = def.Tiles
	}
	if opts.GrayMode == "" {
		opts.GrayMode = def.GrayMode
	}
	return &Normalizer{opts: opts}
}

// Options returns the effective settings.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Locate finds the sheet corners in img, ordered top-left, top-right,
// bottom-right, bottom-left, in img's pixel coordinates.
//
// # Algorithm
//
//  1. Downscale so the longest side is at most DetectMaxDim
//  2. Grayscale, then Canny (which blurs with a 5x5 Gaussian first)
//  3. Dilate the edges by one pixel to close gaps at corners
//  4. Collect 8-connected edge contours, largest enclosed area first
//  5. Approximate each with Douglas-Peucker at Epsilon × perimeter; the
//     first one with exactly four vertices is the sheet
func (n *Normalizer) Locate(img image.Image) ([4]imaging.PointF, error) {
	small, scale := imaging.FitWithin(img, n.opts.DetectMaxDim)

	gray := imaging.Grayscale(small, n.opts.GrayMode)
	edges := imaging.Dilate(imaging.Canny(gray, n.opts.CannyLow, n.opts.CannyHigh))

	contours := detection.FindContours(edges, n.opts.MinContourPixels)
	quad, _, ok := detection.FindQuadrilateral(contours, n.opts.Epsilon)
	if !ok {
		return [4]imaging.PointF{}, ErrSheetNotDetected
	}

	var corners [4]imaging.PointF
	for i, p := range quad {
		corners[i] = imaging.PointF{X: float64(p.X) * scale, Y: float64(p.Y) * scale}
	}
	return OrderCorners(corners), nil
}

// Normalize locates the sheet in img, warps it to the canonical size and
// equalizes its lighting with CLAHE. The equalized image is Sheet.Gray.
func (n *Normalizer) Normalize(img image.Image) (*Sheet, error) {
	corners, err := n.Locate(img)
	if err != nil {
		return nil, err
	}
	return n.Rectify(img, corners)
}

// Rectify warps the quadrilateral corners (ordered top-left, top-right,
// bottom-right, bottom-left) of img to the canonical size and equalizes it.
func (n *Normalizer) Rectify(img image.Image, corners [4]imaging.PointF) (*Sheet, error) {
	warped, err := imaging.WarpPerspective(img, corners, n.opts.Width, n.opts.Height)
	if err != nil {
		if errors.Is(err, imaging.ErrDegenerateQuad) {
			return nil, fmt.Errorf("%w: %v", ErrSheetNotDetected, err)
		}
		return nil, fmt.Errorf("failed to warp sheet: %w", err)
	}

	gray := imaging.Grayscale(warped, n.opts.GrayMode)
	equalized := gray
	if n.opts.ClipLimit > 0 {
		equalized = imaging.CLAHE(gray, n.opts.ClipLimit, n.opts.Tiles, n.opts.Tiles)
	}

	bounds := img.Bounds()
	return &Sheet{
		Gray:         equalized,
		Warped:       warped,
		Corners:      corners,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}, nil
}

// OrderCorners orders four points top-left, top-right, bottom-right,
// bottom-left.
//
// Top-left has the smallest x+y and bottom-right the largest. Top-right has
// the smallest y-x and bottom-left the largest. A quadrilateral rotated by
// about 45° makes these choices ambiguous; the warp then fails as degenerate
// or comes out rotated.
func OrderCorners(pts [4]imaging.PointF) [4]imaging.PointF {
	tl, tr, br, bl := 0, 0, 0, 0
	for i, p := range pts {
		if p.X+p.Y < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if p.X+p.Y > pts[br].X+pts[br].Y {
			br = i
		}
		if p.Y-p.X < pts[tr].Y-pts[tr].X {
			tr = i
		}
		if p.Y-p.X > pts[bl].Y-pts[bl].X {
			bl = i
		}
	}
	return [4]imaging.PointF{pts[tl], pts[tr], pts[br], pts[bl]}
}
