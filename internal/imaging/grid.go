package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

// OverlayCell is one bubble position to draw on an overlay.
type OverlayCell struct {
	Center image.Point
	Radius int

	// Marked draws the bubble filled instead of outlined.
	Marked bool

	// Label, when set, is drawn left of the bubble (digits and commas only).
	Label string
}

// OverlayResult contains the annotated image.
type OverlayResult struct {
	EncodedImage
	Cells  int `json:"cells"`
	Marked int `json:"marked"`
}

// GridOverlay draws bubble cells over an image so an operator can check that a
// layout lines up with the printed sheet and see which bubbles were read as
// marked.
//
// Outlines use outlineHex and marked bubbles markHex ("#RRGGBB" or
// "#RRGGBBAA"); invalid colours fall back to red and green.
func GridOverlay(img image.Image, cells []OverlayCell, outlineHex, markHex string) (*OverlayResult, error) {
	bounds := img.Bounds()

	outline, err := parseHexColor(outlineHex)
	if err != nil {
		outline = color.RGBA{255, 0, 0, 255}
	}
	mark, err := parseHexColor(markHex)
	if err != nil {
		mark = color.RGBA{0, 200, 0, 255}
	}

	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	marked := 0
	for _, c := range cells {
		if c.Marked {
			fillCircle(result, c.Center.X, c.Center.Y, c.Radius, mark)
			marked++
		}
		drawCircle(result, c.Center.X, c.Center.Y, c.Radius, outline)
		if c.Label != "" {
			drawLabel(result, c.Center.X-c.Radius-4*len(c.Label)-4, c.Center.Y-3, c.Label, labelColor, bgColor)
		}
	}

	encoded, err := EncodePNG(result)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		EncodedImage: *encoded,
		Cells:        len(cells),
		Marked:       marked,
	}, nil
}

// drawCircle draws a circle outline with the midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	x := radius
	y := 0
	e := 0

	for x >= y {
		setClipped(img, cx+x, cy+y, c)
		setClipped(img, cx+y, cy+x, c)
		setClipped(img, cx-y, cy+x, c)
		setClipped(img, cx-x, cy+y, c)
		setClipped(img, cx-x, cy-y, c)
		setClipped(img, cx-y, cy-x, c)
		setClipped(img, cx+y, cy-x, c)
		setClipped(img, cx+x, cy-y, c)

		if e <= 0 {
			y++
			e += 2*y + 1
		}
		if e > 0 {
			x--
			e -= 2*x + 1
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setClipped(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws a small text label at the given position using a 3x5 pixel
// font for digits and comma.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
