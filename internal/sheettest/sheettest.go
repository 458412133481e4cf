// Package sheettest draws synthetic answer-sheet photos for tests.
package sheettest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Bubble is a printed bubble in sheet coordinates.
type Bubble struct {
	X, Y   int
	Filled bool
}

// Photo describes a sheet of paper lying on a darker surface.
type Photo struct {
	// Frame is the photo size before scaling.
	Frame image.Point

	// Sheet is the paper rectangle inside the frame before scaling.
	Sheet image.Rectangle

	// Background is the surface colour around the sheet.
	Background color.Gray

	// Radius is the bubble radius before scaling. Unfilled bubbles are
	// drawn as rings two pixels thick.
	Radius  int
	Bubbles []Bubble

	// Scale multiplies every coordinate; 0 means 1.
	Scale int
}

// Default is a 700×920 photo holding a 600×800 sheet at (50,60).
func Default() Photo {
	return Photo{
		Frame:      image.Pt(700, 920),
		Sheet:      image.Rect(50, 60, 650, 860),
		Background: color.Gray{Y: 40},
		Radius:     12,
	}
}

// Render draws the photo.
func (p Photo) Render() *image.RGBA {
	k := p.Scale
	if k <= 0 {
		k = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, p.Frame.X*k, p.Frame.Y*k))
	bg := color.RGBA{p.Background.Y, p.Background.Y, p.Background.Y, 255}
	fill(img, img.Bounds(), bg)

	sheet := image.Rect(p.Sheet.Min.X*k, p.Sheet.Min.Y*k, p.Sheet.Max.X*k, p.Sheet.Max.Y*k)
	fill(img, sheet, color.RGBA{255, 255, 255, 255})

	ink := color.RGBA{20, 20, 20, 255}
	for _, b := range p.Bubbles {
		cx := (p.Sheet.Min.X + b.X) * k
		cy := (p.Sheet.Min.Y + b.Y) * k
		outer := p.Radius * k
		inner := -1
		if !b.Filled {
			inner = (p.Radius - 2) * k
		}
		Disk(img, cx, cy, outer, inner, ink)
	}
	return img
}

// PNG renders the photo and encodes it.
func (p Photo) PNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Render()); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Disk paints every pixel whose distance d from (cx,cy) satisfies
// inner < d <= outer. An inner radius < 0 paints a solid disk.
func Disk(img *image.RGBA, cx, cy, outer, inner int, c color.RGBA) {
	for y := cy - outer; y <= cy+outer; y++ {
		for x := cx - outer; x <= cx+outer; x++ {
			d := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if d > outer*outer || (inner >= 0 && d <= inner*inner) {
				continue
			}
			if image.Pt(x, y).In(img.Bounds()) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
