package detection

import (
	"image"
	"sort"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// Both corners are inclusive: a single pixel at (5,5) has X1 == X2 == 5.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (inclusive)
	Y2 int `json:"y2"` // Bottom edge (inclusive)
}

// Width returns the horizontal extent in pixels.
func (b Bounds) Width() int { return b.X2 - b.X1 + 1 }

// Height returns the vertical extent in pixels.
func (b Bounds) Height() int { return b.Y2 - b.Y1 + 1 }

// Area returns Width × Height.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Rect converts the bounds to an image.Rectangle (exclusive max).
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2+1, b.Y2+1)
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is one connected component of a binary mask.
type Contour struct {
	// Pixels are the member pixels in discovery order.
	Pixels []Point `json:"-"`

	// Hull is the convex hull in counter-clockwise order (image axes).
	Hull []Point `json:"hull"`

	// Area is the area enclosed by Hull in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the closed length of Hull.
	Perimeter float64 `json:"perimeter"`

	// Bounds is the bounding box of Pixels.
	Bounds Bounds `json:"bounds"`
}

// Center returns the centre of the contour's bounding box.
func (c Contour) Center() Point {
	return Point{
		X: (c.Bounds.X1 + c.Bounds.X2) / 2,
		Y: (c.Bounds.Y1 + c.Bounds.Y2) / 2,
	}
}

// FindContours groups the foreground pixels of mask into 8-connected
// components and describes each one.
//
// Components with fewer than minPixels pixels are dropped as noise. The
// result is sorted by enclosed area, largest first; ties keep scan order.
// Coordinates are in mask's coordinate space.
func FindContours(mask *image.Gray, minPixels int) []Contour {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	fg := make([][]bool, height)
	for y := 0; y < height; y++ {
		fg[y] = make([]bool, width)
		row := mask.Pix[(y+bounds.Min.Y-mask.Rect.Min.Y)*mask.Stride:]
		for x := 0; x < width; x++ {
			fg[y][x] = row[x+bounds.Min.X-mask.Rect.Min.X] != 0
		}
	}

	components := findComponents(fg, width, height, minPixels)

	contours := make([]Contour, 0, len(components))
	for _, pixels := range components {
		for i := range pixels {
			pixels[i].X += bounds.Min.X
			pixels[i].Y += bounds.Min.Y
		}
		contours = append(contours, describe(pixels))
	}

	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].Area > contours[j].Area
	})
	return contours
}

// describe computes the bounding box and hull of a component.
func describe(pixels []Point) Contour {
	b := Bounds{X1: pixels[0].X, Y1: pixels[0].Y, X2: pixels[0].X, Y2: pixels[0].Y}
	for _, p := range pixels[1:] {
		if p.X < b.X1 {
			b.X1 = p.X
		}
		if p.X > b.X2 {
			b.X2 = p.X
		}
		if p.Y < b.Y1 {
			b.Y1 = p.Y
		}
		if p.Y > b.Y2 {
			b.Y2 = p.Y
		}
	}

	hull := ConvexHull(pixels)
	return Contour{
		Pixels:    pixels,
		Hull:      hull,
		Area:      PolygonArea(hull),
		Perimeter: Perimeter(hull),
		Bounds:    b,
	}
}

// findComponents finds connected components in a binary image.
//
// Uses flood-fill to group connected pixels. Connectivity is 8-connected
// (includes diagonals). Components smaller than minPixels are discarded.
func findComponents(fg [][]bool, width, height, minPixels int) [][]Point {
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	components := make([][]Point, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if fg[y][x] && !visited[y][x] {
				component := make([]Point, 0)
				floodFill(fg, visited, x, y, width, height, &component)
				if len(component) >= minPixels {
					components = append(components, component)
				}
			}
		}
	}

	return components
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components such as a sheet outline.
func floodFill(fg, visited [][]bool, startX, startY, width, height int, component *[]Point) {
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !fg[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*component = append(*component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}
