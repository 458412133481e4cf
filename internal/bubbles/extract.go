package bubbles

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/ironsheep/omr-grader-mcp/internal/detection"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
	"github.com/ironsheep/omr-grader-mcp/internal/sheet"
)

// MultiMark is the policy for a row with more than one filled option.
type MultiMark string

const (
	// MultiMarkReject leaves the question unanswered and reports it as
	// ambiguous.
	MultiMarkReject MultiMark = "reject"

	// MultiMarkMulti records every filled option, joined with "," in layout
	// order ("a,c").
	MultiMarkMulti MultiMark = "multi"
)

// ParseMultiMark validates a policy name. An empty string means
// MultiMarkReject.
func ParseMultiMark(s string) (MultiMark, error) {
	switch MultiMark(strings.ToLower(strings.TrimSpace(s))) {
	case "", MultiMarkReject:
		return MultiMarkReject, nil
	case MultiMarkMulti:
		return MultiMarkMulti, nil
	}
	return "", fmt.Errorf("unknown multi-mark policy %q (want reject or multi)", s)
}

// Answers maps question number to the detected option token. A missing
// question was left blank or marked ambiguously.
type Answers map[int]string

// Options tunes mark detection.
type Options struct {
	// BlurRadius is the Gaussian radius applied before thresholding.
	BlurRadius float64 `json:"blur_radius"`

	// MinArea and MaxArea bound the enclosed area (exclusive) of a blob
	// that can be a bubble, in canonical square pixels.
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`

	// FillThreshold is the fill ratio a blob must exceed to count as marked.
	FillThreshold float64 `json:"fill_threshold"`

	// Tolerance is how far, as a fraction of the pitch, a mark's centre may
	// sit from a cell centre.
	Tolerance float64 `json:"tolerance"`

	MultiMark MultiMark `json:"multi_mark"`
}

// DefaultOptions returns the detection settings used when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		BlurRadius:    1.0,
		MinArea:       300,
		MaxArea:       1200,
		FillThreshold: 0.4,
		Tolerance:     0.4,
		MultiMark:     MultiMarkReject,
	}
}

// Candidate is an ink blob inside the bubble size band.
type Candidate struct {
	Bounds    detection.Bounds `json:"bounds"`
	Center    imaging.PointF   `json:"center"`
	Area      float64          `json:"area"`
	FillRatio float64          `json:"fill_ratio"`
	Filled    bool             `json:"filled"`

	// Question and Option are set when the candidate lies on a layout cell.
	Question int    `json:"question,omitempty"`
	Option   string `json:"option,omitempty"`
}

// Extraction is the full outcome of reading one sheet.
type Extraction struct {
	Answers Answers `json:"answers"`

	// Marks lists the filled options per question, in layout order, before
	// the multi-mark policy is applied.
	Marks map[int][]string `json:"marks"`

	// Ambiguous lists questions dropped by MultiMarkReject, ascending.
	Ambiguous []int `json:"ambiguous"`

	Candidates []Candidate `json:"candidates"`

	// Threshold is the Otsu level used for binarization.
	Threshold uint8 `json:"threshold"`
}

// Extractor reads marks from normalized sheets. It is safe for concurrent
// use.
type Extractor struct {
	layout Layout
	opts   Options
}

// NewExtractor validates layout and returns an Extractor. Zero-valued
// numeric options take their defaults.
func NewExtractor(layout Layout, opts Options) (*Extractor, error) {
	layout = layout.Normalized()
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	def := DefaultOptions()
	if opts.MinArea <= 0 {
		opts.MinArea = def.MinArea
	}
	if opts.MaxArea <= 0 {
		opts.MaxArea = def.MaxArea
	}
	if opts.FillThreshold <= 0 {
		opts.FillThreshold = def.FillThreshold
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	mm, err := ParseMultiMark(string(opts.MultiMark))
	if err != nil {
		return nil, err
	}
	opts.MultiMark = mm

	return &Extractor{layout: layout, opts: opts}, nil
}

// Layout returns the normalized layout in use.
func (e *Extractor) Layout() Layout {
	return e.layout
}

// Options returns the effective settings.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract returns the detected answers of a normalized sheet.
func (e *Extractor) Extract(s *sheet.Sheet) Answers {
	return e.Analyze(s.Gray).Answers
}

// Analyze runs mark detection on a canonical grayscale sheet.
//
// # Algorithm
//
//  1. Gaussian blur, then an Otsu threshold with dark pixels as foreground
//  2. 8-connected foreground blobs
//  3. Blobs with MinArea < enclosed area < MaxArea become candidates
//  4. A candidate is filled when the foreground share of its bounding box
//     exceeds FillThreshold
//  5. Filled candidates are placed on the layout cell under their centre;
//     rows with several filled options follow the MultiMark policy
func (e *Extractor) Analyze(gray *image.Gray) *Extraction {
	blurred := imaging.GaussianBlur(gray, e.opts.BlurRadius)
	level := imaging.OtsuLevel(blurred)
	mask := imaging.BinarizeInk(blurred, level)

	ext := &Extraction{
		Answers:    Answers{},
		Marks:      map[int][]string{},
		Ambiguous:  []int{},
		Candidates: []Candidate{},
		Threshold:  level,
	}

	columns := map[int]map[int]bool{}
	for _, c := range detection.FindContours(mask, 1) {
		if c.Area <= e.opts.MinArea || c.Area >= e.opts.MaxArea {
			continue
		}

		cand := Candidate{
			Bounds:    c.Bounds,
			Center:    imaging.PointF{X: float64(c.Bounds.X1+c.Bounds.X2) / 2, Y: float64(c.Bounds.Y1+c.Bounds.Y2) / 2},
			Area:      c.Area,
			FillRatio: fillRatio(mask, c.Bounds),
		}
		cand.Filled = cand.FillRatio > e.opts.FillThreshold

		if cell, ok := e.layout.Locate(cand.Center.X, cand.Center.Y, e.opts.Tolerance); ok {
			cand.Question = cell.Question
			cand.Option = cell.Option
			if cand.Filled {
				if columns[cell.Question] == nil {
					columns[cell.Question] = map[int]bool{}
				}
				columns[cell.Question][cell.Column] = true
			}
		}
		ext.Candidates = append(ext.Candidates, cand)
	}

	for q, cols := range columns {
		marked := make([]int, 0, len(cols))
		for c := range cols {
			marked = append(marked, c)
		}
		sort.Ints(marked)

		opts := make([]string, len(marked))
		for i, c := range marked {
			opts[i] = e.layout.Options[c]
		}
		ext.Marks[q] = opts

		switch {
		case len(opts) == 1:
			ext.Answers[q] = opts[0]
		case e.opts.MultiMark == MultiMarkMulti:
			ext.Answers[q] = strings.Join(opts, ",")
		default:
			ext.Ambiguous = append(ext.Ambiguous, q)
		}
	}
	sort.Ints(ext.Ambiguous)

	return ext
}

// fillRatio is the share of foreground pixels inside b.
func fillRatio(mask *image.Gray, b detection.Bounds) float64 {
	lit := 0
	for y := b.Y1; y <= b.Y2; y++ {
		for x := b.X1; x <= b.X2; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				lit++
			}
		}
	}
	return float64(lit) / float64(b.Area())
}

// OverlayCells turns the layout and an extraction into overlay markers:
// every layout cell, with the filled ones marked and the first option of
// each row labelled with its question number.
func (e *Extractor) OverlayCells(ext *Extraction) []imaging.OverlayCell {
	filled := map[int]map[string]bool{}
	if ext != nil {
		for q, opts := range ext.Marks {
			filled[q] = map[string]bool{}
			for _, o := range opts {
				filled[q][o] = true
			}
		}
	}

	radius := e.layout.BubbleRadius
	if radius <= 0 {
		radius = 10
	}

	cells := e.layout.Cells()
	out := make([]imaging.OverlayCell, 0, len(cells))
	for _, c := range cells {
		oc := imaging.OverlayCell{
			Center: image.Pt(int(c.Center.X+0.5), int(c.Center.Y+0.5)),
			Radius: radius,
			Marked: filled[c.Question][c.Option],
		}
		if c.Column == 0 {
			oc.Label = fmt.Sprintf("%d", c.Question)
		}
		out = append(out, oc)
	}
	return out
}
