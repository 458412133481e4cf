package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ErrDegenerateQuad is returned when four corners do not span a plane region
// (three or more collinear points), so no perspective transform exists.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// PointF is a sub-pixel 2D coordinate.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Homography is a 3x3 projective transform stored row-major with h[8] == 1.
type Homography [9]float64

// Apply maps p through the transform.
func (h Homography) Apply(p PointF) PointF {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return PointF{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// PerspectiveTransform computes the homography that maps each src[i] onto
// dst[i]. It solves the standard 8x8 linear system with partial pivoting.
func PerspectiveTransform(src, dst [4]PointF) (Homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		u, v := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{u, v, 1, 0, 0, 0, -u * x, -v * x, x}
		a[2*i+1] = [9]float64{0, 0, 0, u, v, 1, -u * y, -v * y, y}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-10 {
			return Homography{}, ErrDegenerateQuad
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			f := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	h[8] = 1
	return h, nil
}

// WarpPerspective resamples the quadrilateral quad of src (ordered top-left,
// top-right, bottom-right, bottom-left) into an axis-aligned width × height
// image.
//
// The quad corners land on (0,0), (width,0), (width,height) and (0,height).
// Each output pixel is mapped back into src and sampled bilinearly; samples
// falling outside src replicate the nearest border pixel.
func WarpPerspective(src image.Image, quad [4]PointF, width, height int) (*image.NRGBA, error) {
	dst := [4]PointF{
		{X: 0, Y: 0},
		{X: float64(width), Y: 0},
		{X: float64(width), Y: float64(height)},
		{X: 0, Y: float64(height)},
	}
	inverse, err := PerspectiveTransform(dst, quad)
	if err != nil {
		return nil, err
	}

	in := imaging.Clone(src)
	inW := in.Bounds().Dx()
	inH := in.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := inverse.Apply(PointF{X: float64(x), Y: float64(y)})
			out.SetNRGBA(x, y, sampleBilinear(in, inW, inH, p.X, p.Y))
		}
	}
	return out, nil
}

func sampleBilinear(img *image.NRGBA, width, height int, fx, fy float64) color.NRGBA {
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return color.NRGBA{}
	}
	fx = math.Max(0, math.Min(fx, float64(width-1)))
	fy = math.Max(0, math.Min(fy, float64(height-1)))

	x0 := int(fx)
	y0 := int(fy)
	x1 := clamp(x0+1, 0, width-1)
	y1 := clamp(y0+1, 0, height-1)
	ax := fx - float64(x0)
	ay := fy - float64(y0)

	var px [4]uint8
	for c := 0; c < 4; c++ {
		p00 := float64(img.Pix[y0*img.Stride+x0*4+c])
		p10 := float64(img.Pix[y0*img.Stride+x1*4+c])
		p01 := float64(img.Pix[y1*img.Stride+x0*4+c])
		p11 := float64(img.Pix[y1*img.Stride+x1*4+c])
		top := p00*(1-ax) + p10*ax
		bottom := p01*(1-ax) + p11*ax
		px[c] = uint8(math.Round(top*(1-ay) + bottom*ay))
	}
	return color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}
