package imaging

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization.
//
// The image is divided into tilesX × tilesY tiles. Each tile gets its own
// equalization curve, built from a histogram whose bins are clipped at
// clipLimit times the average bin height with the excess spread evenly over
// all bins. Every output pixel bilinearly blends the curves of the four
// nearest tile centres, so tile borders do not show.
//
// The output has the same size as the input. A tile of uniform value maps to
// itself at full white and near itself elsewhere, which keeps blank paper
// blank.
//
// Parameters:
//   - gray: Source image.
//   - clipLimit: Contrast limit; values <= 0 disable clipping (plain AHE).
//     Typical value: 3.0.
//   - tilesX, tilesY: Tile grid. Typical value: 8 × 8. Values below 1 are
//     treated as 1.
func CLAHE(gray *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out
	}

	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}
	if tilesX > width {
		tilesX = width
	}
	if tilesY > height {
		tilesY = height
	}

	at := func(x, y int) uint8 {
		return gray.Pix[(y+bounds.Min.Y-gray.Rect.Min.Y)*gray.Stride+(x+bounds.Min.X-gray.Rect.Min.X)]
	}

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		y0, y1 := ty*height/tilesY, (ty+1)*height/tilesY
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*width/tilesX, (tx+1)*width/tilesX

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[at(x, y)]++
				}
			}
			luts[ty*tilesX+tx] = tileLUT(hist, (x1-x0)*(y1-y0), clipLimit)
		}
	}

	tileW := float64(width) / float64(tilesX)
	tileH := float64(height) / float64(tilesY)

	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)/tileH - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := clamp(ty0+1, 0, tilesY-1)
		ty0 = clamp(ty0, 0, tilesY-1)

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/tileW - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := clamp(tx0+1, 0, tilesX-1)
			tx0 = clamp(tx0, 0, tilesX-1)

			v := at(x, y)
			top := (1-wx)*float64(luts[ty0*tilesX+tx0][v]) + wx*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-wx)*float64(luts[ty1*tilesX+tx0][v]) + wx*float64(luts[ty1*tilesX+tx1][v])
			out.Pix[y*out.Stride+x] = uint8(clamp(int(math.Round((1-wy)*top+wy*bottom)), 0, 255))
		}
	}

	return out
}

// tileLUT turns one tile's histogram into its clipped equalization curve.
func tileLUT(hist [256]int, area int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	if area == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}

		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}

		spread := excess / 256
		remainder := excess - spread*256
		for i := range hist {
			hist[i] += spread
		}
		if remainder > 0 {
			step := 256 / remainder
			if step < 1 {
				step = 1
			}
			for i := 0; i < 256 && remainder > 0; i += step {
				hist[i]++
				remainder--
			}
		}
	}

	scale := 255.0 / float64(area)
	cdf := 0
	for i := range hist {
		cdf += hist[i]
		lut[i] = uint8(clamp(int(math.Round(float64(cdf)*scale)), 0, 255))
	}
	return lut
}
