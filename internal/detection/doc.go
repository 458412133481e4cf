// Package detection finds shapes in binary masks.
//
// It works on *image.Gray masks where any non-zero pixel is foreground: an
// edge map from imaging.Canny when locating the sheet boundary, or an
// ink-inverted Otsu binarization when looking for pencil marks.
//
// # Contours
//
// A contour is one 8-connected component of foreground pixels. For each
// component the package keeps the member pixels, the bounding box and the
// convex hull. The hull area is used as the component's enclosed area: for
// the outline of a shape (an edge ring or a printed bubble circle) it equals
// the area the outline encloses, and for a solid blob it equals the blob.
//
// Contours are returned sorted by enclosed area, largest first.
//
// # Polygon approximation
//
// ApproxPolygon reduces a closed polygon with the Douglas-Peucker algorithm.
// FindQuadrilateral runs it over contours in area order and returns the first
// one that collapses to exactly four vertices, which is how a sheet of paper
// is told apart from everything else in a photo.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounds are inclusive on both ends
package detection
