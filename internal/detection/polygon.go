package detection

import (
	"math"
	"sort"
)

// ConvexHull returns the convex hull of points using Andrew's monotone chain.
//
// The hull starts at the lowest-x (then lowest-y) point and has no repeated
// or collinear vertices. Fewer than three distinct points are returned as
// they are (deduplicated).
func ConvexHull(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// cross returns the z component of (a->b) × (a->c).
func cross(a, b, c Point) int {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// PolygonArea returns the unsigned shoelace area of a closed polygon.
func PolygonArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the length of a closed polygon.
func Perimeter(poly []Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	var total float64
	for i := range poly {
		total += distance(poly[i], poly[(i+1)%len(poly)])
	}
	return total
}

// ApproxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm: no vertex of the input lies farther than epsilon from the
// returned outline.
//
// The ring is split at its first vertex and the vertex farthest from it, and
// both halves are simplified separately. A final pass drops any remaining
// vertex that lies within epsilon of the line through its neighbours, so the
// result does not depend on where the ring happened to start.
func ApproxPolygon(poly []Point, epsilon float64) []Point {
	if len(poly) < 3 {
		out := make([]Point, len(poly))
		copy(out, poly)
		return out
	}

	far := 0
	best := -1.0
	for i, p := range poly {
		if d := distance(poly[0], p); d > best {
			best = d
			far = i
		}
	}

	first := simplify(poly[:far+1], epsilon)
	second := make([]Point, 0, len(poly)-far+1)
	second = append(second, poly[far:]...)
	second = append(second, poly[0])
	second = simplify(second, epsilon)

	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)

	for len(out) > 3 {
		removed := false
		for i := range out {
			prev := out[(i+len(out)-1)%len(out)]
			next := out[(i+1)%len(out)]
			if segmentDistance(out[i], prev, next) <= epsilon {
				out = append(out[:i], out[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}
	return out
}

// simplify is the open-chain Douglas-Peucker recursion. The first and last
// points are always kept.
func simplify(chain []Point, epsilon float64) []Point {
	if len(chain) < 3 {
		out := make([]Point, len(chain))
		copy(out, chain)
		return out
	}

	start, end := chain[0], chain[len(chain)-1]
	index := 0
	maxDist := 0.0
	for i := 1; i < len(chain)-1; i++ {
		if d := segmentDistance(chain[i], start, end); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []Point{start, end}
	}

	left := simplify(chain[:index+1], epsilon)
	right := simplify(chain[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return distance(p, a)
	}
	t := (float64(p.X-a.X)*dx + float64(p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	px := float64(a.X) + t*dx
	py := float64(a.Y) + t*dy
	return math.Hypot(float64(p.X)-px, float64(p.Y)-py)
}

func distance(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// FindQuadrilateral returns the four vertices of the first contour, in the
// given order, whose polygon approximation at epsFrac × perimeter has
// exactly four vertices. Vertices are returned unordered.
//
// ok is false when no contour qualifies.
func FindQuadrilateral(contours []Contour, epsFrac float64) (quad [4]Point, index int, ok bool) {
	for i, c := range contours {
		if len(c.Hull) < 4 {
			continue
		}
		approx := ApproxPolygon(c.Hull, epsFrac*c.Perimeter)
		if len(approx) == 4 {
			copy(quad[:], approx)
			return quad, i, true
		}
	}
	return quad, -1, false
}
