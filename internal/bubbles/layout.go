package bubbles

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
)

// ErrInvalidLayout is wrapped by every Layout validation error.
var ErrInvalidLayout = errors.New("invalid layout")

// Block is a rectangular group of bubble rows sharing one geometry.
//
// Row r of the block is question FirstQuestion+r. The bubble for option c of
// that row is centred at (Left + c*ColPitch, Top + r*RowPitch) in canonical
// sheet coordinates.
type Block struct {
	FirstQuestion int     `yaml:"first_question" json:"first_question"`
	Rows          int     `yaml:"rows" json:"rows"`
	Left          float64 `yaml:"left" json:"left"`
	Top           float64 `yaml:"top" json:"top"`
	RowPitch      float64 `yaml:"row_pitch" json:"row_pitch"`
	ColPitch      float64 `yaml:"col_pitch" json:"col_pitch"`
}

// LastQuestion returns the question number of the block's last row.
func (b Block) LastQuestion() int {
	return b.FirstQuestion + b.Rows - 1
}

// Layout describes where bubbles are printed on the canonical sheet.
type Layout struct {
	// Options are the option labels, left to right. They are compared in
	// lower case.
	Options []string `yaml:"options" json:"options"`

	Blocks []Block `yaml:"blocks" json:"blocks"`

	// BubbleRadius is the printed bubble radius, used for overlays.
	BubbleRadius int `yaml:"bubble_radius" json:"bubble_radius"`

	// HeaderFraction is the share of the sheet height, from the top, that
	// holds the printed header (name, roll number).
	HeaderFraction float64 `yaml:"header_fraction" json:"header_fraction"`
}

// Cell is one bubble position.
type Cell struct {
	Question int            `json:"question"`
	Option   string         `json:"option"`
	Column   int            `json:"column"`
	Center   imaging.PointF `json:"center"`
}

// DefaultLayout is two side-by-side blocks of 15 questions with options a-d
// on a 600×800 sheet.
func DefaultLayout() Layout {
	return Layout{
		Options: []string{"a", "b", "c", "d"},
		Blocks: []Block{
			{FirstQuestion: 1, Rows: 15, Left: 100, Top: 180, RowPitch: 38, ColPitch: 40},
			{FirstQuestion: 16, Rows: 15, Left: 360, Top: 180, RowPitch: 38, ColPitch: 40},
		},
		BubbleRadius:   12,
		HeaderFraction: 0.12,
	}
}

// Normalized returns a copy with option labels trimmed and lower-cased.
func (l Layout) Normalized() Layout {
	out := l
	out.Options = make([]string, len(l.Options))
	for i, o := range l.Options {
		out.Options[i] = strings.ToLower(strings.TrimSpace(o))
	}
	out.Blocks = append([]Block(nil), l.Blocks...)
	return out
}

// Validate checks that the layout is usable. Option labels must already be
// normalized.
func (l Layout) Validate() error {
	if len(l.Options) == 0 {
		return fmt.Errorf("%w: no options", ErrInvalidLayout)
	}
	seen := make(map[string]bool, len(l.Options))
	for _, o := range l.Options {
		if o == "" || strings.ContainsAny(o, ",-") {
			return fmt.Errorf("%w: bad option label %q", ErrInvalidLayout, o)
		}
		if seen[o] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidLayout, o)
		}
		seen[o] = true
	}

	if len(l.Blocks) == 0 {
		return fmt.Errorf("%w: no blocks", ErrInvalidLayout)
	}
	for i, b := range l.Blocks {
		if b.FirstQuestion < 1 || b.Rows < 1 {
			return fmt.Errorf("%w: block %d: first_question and rows must be positive", ErrInvalidLayout, i)
		}
		if b.RowPitch <= 0 || b.ColPitch <= 0 {
			return fmt.Errorf("%w: block %d: pitches must be positive", ErrInvalidLayout, i)
		}
		for j := 0; j < i; j++ {
			o := l.Blocks[j]
			if b.FirstQuestion <= o.LastQuestion() && o.FirstQuestion <= b.LastQuestion() {
				return fmt.Errorf("%w: blocks %d and %d share question numbers", ErrInvalidLayout, j, i)
			}
		}
	}

	if l.HeaderFraction < 0 || l.HeaderFraction >= 1 {
		return fmt.Errorf("%w: header_fraction must be in [0,1)", ErrInvalidLayout)
	}
	return nil
}

// Fits reports an error wrapping ErrInvalidLayout when a bubble centre lies
// outside a width × height sheet.
func (l Layout) Fits(width, height int) error {
	for _, c := range l.Cells() {
		if c.Center.X < 0 || c.Center.Y < 0 || c.Center.X >= float64(width) || c.Center.Y >= float64(height) {
			return fmt.Errorf("%w: question %d option %s at (%.0f, %.0f) is outside the %dx%d sheet",
				ErrInvalidLayout, c.Question, c.Option, c.Center.X, c.Center.Y, width, height)
		}
	}
	return nil
}

// Questions returns the number of questions the layout covers.
func (l Layout) Questions() int {
	n := 0
	for _, b := range l.Blocks {
		n += b.Rows
	}
	return n
}

// Cells lists every bubble position, block by block, row by row.
func (l Layout) Cells() []Cell {
	cells := make([]Cell, 0, l.Questions()*len(l.Options))
	for _, b := range l.Blocks {
		for r := 0; r < b.Rows; r++ {
			for c, opt := range l.Options {
				cells = append(cells, Cell{
					Question: b.FirstQuestion + r,
					Option:   opt,
					Column:   c,
					Center: imaging.PointF{
						X: b.Left + float64(c)*b.ColPitch,
						Y: b.Top + float64(r)*b.RowPitch,
					},
				})
			}
		}
	}
	return cells
}

// Locate returns the cell nearest to (x, y).
//
// A point only belongs to a cell when it lies within tolerance × pitch of the
// cell centre on both axes; ok is false otherwise.
func (l Layout) Locate(x, y, tolerance float64) (cell Cell, ok bool) {
	best := math.Inf(1)
	for _, b := range l.Blocks {
		r := int(math.Round((y - b.Top) / b.RowPitch))
		c := int(math.Round((x - b.Left) / b.ColPitch))
		if r < 0 || r >= b.Rows || c < 0 || c >= len(l.Options) {
			continue
		}

		cx := b.Left + float64(c)*b.ColPitch
		cy := b.Top + float64(r)*b.RowPitch
		dx := math.Abs(x - cx)
		dy := math.Abs(y - cy)
		if dx > tolerance*b.ColPitch || dy > tolerance*b.RowPitch {
			continue
		}

		if d := math.Hypot(dx, dy); d < best {
			best = d
			cell = Cell{
				Question: b.FirstQuestion + r,
				Option:   l.Options[c],
				Column:   c,
				Center:   imaging.PointF{X: cx, Y: cy},
			}
			ok = true
		}
	}
	return cell, ok
}
