// Package sheet turns a raw photo of an answer sheet into a canonical,
// axis-aligned, contrast-equalized image.
//
// The Normalizer finds the paper in the photo as the largest contour of the
// edge map that reduces to a quadrilateral, orders its corners, and warps it
// onto a fixed rectangle (600×800 by default). Everything downstream (bubble
// grids, header strips) is expressed in that canonical coordinate space, so
// the same layout works for photos of any resolution or angle.
//
// When no quadrilateral is found the result is ErrSheetNotDetected. The
// caller should ask for a new photo; the Normalizer never retries with other
// parameters.
package sheet
