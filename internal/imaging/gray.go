package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// GrayMode selects how colour pixels are reduced to a single channel.
type GrayMode string

const (
	// GrayLuma weights R, G and B by their perceived luminance.
	GrayLuma GrayMode = "luma"

	// GrayLab uses the CIE L* (lightness) component.
	GrayLab GrayMode = "lab"
)

// ParseGrayMode maps a configuration string to a GrayMode. Unknown or empty
// values fall back to GrayLuma.
func ParseGrayMode(s string) GrayMode {
	if GrayMode(s) == GrayLab {
		return GrayLab
	}
	return GrayLuma
}

// Grayscale converts img to a single-channel image using the given mode.
//
// A *image.Gray input with a (0,0) origin is returned as is.
func Grayscale(img image.Image, mode GrayMode) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	if mode == GrayLab {
		return labLightness(img)
	}
	return redChannel(effect.Grayscale(img))
}

// labLightness maps every pixel's CIE L* (0..1) onto 0..255.
// Fully transparent pixels read as white paper.
func labLightness(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				out.SetGray(x, y, color.Gray{Y: 255})
				continue
			}
			l, _, _ := c.Lab()
			out.SetGray(x, y, color.Gray{Y: uint8(clamp(int(math.Round(l*255)), 0, 255))})
		}
	}
	return out
}

// GaussianBlur smooths a grayscale image with a Gaussian kernel of the given
// radius. A radius <= 0 returns the input unchanged.
func GaussianBlur(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return gray
	}
	return redChannel(blur.Gaussian(gray, radius))
}

// redChannel copies the R channel of an RGBA image whose channels are equal
// (bild's grayscale and blur output) into a zero-origin *image.Gray.
func redChannel(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[y*out.Stride+x] = src.Pix[row+4*x]
		}
	}
	return out
}
