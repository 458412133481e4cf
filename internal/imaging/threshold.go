package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
)

// OtsuLevel picks the threshold that best separates a grayscale image into
// two classes by maximising the between-class variance of its histogram.
//
// Pixels <= the returned level form the dark class. An image with a single
// gray value yields 0.
func OtsuLevel(gray *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	total := 0
	var sumAll float64
	for v, n := range bins {
		total += n
		sumAll += float64(v * n)
	}
	if total == 0 {
		return 0
	}

	var (
		best     float64
		level    int
		weightBg int
		sumBg    float64
	)
	for t := 0; t < len(bins); t++ {
		weightBg += bins[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * bins[t])

		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		diff := meanBg - meanFg
		between := float64(weightBg) * float64(weightFg) * diff * diff
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// BinarizeInk marks every pixel <= level as foreground (255) and everything
// brighter as background (0), so dark pencil or ink becomes the foreground.
// The result has a (0,0) origin.
func BinarizeInk(gray *image.Gray, level uint8) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < bounds.Dx(); x++ {
			if gray.Pix[row+x] <= level {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
