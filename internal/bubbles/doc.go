// Package bubbles reads pencil marks off a normalized answer sheet.
//
// A Layout places the printed bubbles on the canonical sheet as one or more
// blocks of rows (questions) and columns (options). The Extractor binarizes
// the sheet with an automatic threshold, collects ink blobs whose enclosed
// area falls inside a size band, keeps the ones whose fill ratio is high
// enough to count as a mark, and assigns each to the layout cell under it.
//
// Question numbers and options therefore come from where a mark is on the
// page, never from the order blobs are discovered in.
package bubbles
