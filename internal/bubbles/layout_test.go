package bubbles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()
	require.NoError(t, l.Validate())
	assert.Equal(t, 30, l.Questions())
	assert.Len(t, l.Cells(), 120)
}

func TestLayout_Cells(t *testing.T) {
	cells := DefaultLayout().Cells()

	first := cells[0]
	assert.Equal(t, 1, first.Question)
	assert.Equal(t, "a", first.Option)
	assert.Equal(t, 100.0, first.Center.X)
	assert.Equal(t, 180.0, first.Center.Y)

	// Question 16 starts the second block
	q16 := cells[15*4+3]
	assert.Equal(t, 16, q16.Question)
	assert.Equal(t, "d", q16.Option)
	assert.Equal(t, 480.0, q16.Center.X)
	assert.Equal(t, 180.0, q16.Center.Y)
}

func TestLayout_Locate(t *testing.T) {
	l := DefaultLayout()

	tests := []struct {
		name     string
		x, y     float64
		question int
		option   string
		ok       bool
	}{
		{"exact first cell", 100, 180, 1, "a", true},
		{"slightly off", 146, 185, 1, "b", true},
		{"second block", 400, 218, 17, "b", true},
		{"last row", 220, 180 + 14*38, 15, "d", true},
		{"between columns", 120, 180, 0, "", false},
		{"above the grid", 100, 100, 0, "", false},
		{"between blocks", 300, 300, 0, "", false},
		{"below the grid", 100, 780, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := l.Locate(tt.x, tt.y, 0.4)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.question, cell.Question)
				assert.Equal(t, tt.option, cell.Option)
			}
		})
	}
}

func TestLayout_Normalized(t *testing.T) {
	l := Layout{Options: []string{" A", "b ", "C"}, Blocks: []Block{{FirstQuestion: 1, Rows: 1, RowPitch: 1, ColPitch: 1}}}
	n := l.Normalized()

	assert.Equal(t, []string{"a", "b", "c"}, n.Options)
	assert.Equal(t, " A", l.Options[0], "original must not change")
}

func TestLayout_Validate(t *testing.T) {
	block := Block{FirstQuestion: 1, Rows: 10, Left: 50, Top: 50, RowPitch: 30, ColPitch: 30}

	tests := []struct {
		name   string
		layout Layout
	}{
		{"no options", Layout{Blocks: []Block{block}}},
		{"empty option", Layout{Options: []string{"a", ""}, Blocks: []Block{block}}},
		{"comma option", Layout{Options: []string{"a,b"}, Blocks: []Block{block}}},
		{"duplicate option", Layout{Options: []string{"a", "a"}, Blocks: []Block{block}}},
		{"no blocks", Layout{Options: []string{"a"}}},
		{"zero rows", Layout{Options: []string{"a"}, Blocks: []Block{{FirstQuestion: 1, RowPitch: 1, ColPitch: 1}}}},
		{"zero question", Layout{Options: []string{"a"}, Blocks: []Block{{Rows: 1, RowPitch: 1, ColPitch: 1}}}},
		{"zero pitch", Layout{Options: []string{"a"}, Blocks: []Block{{FirstQuestion: 1, Rows: 1}}}},
		{"overlapping blocks", Layout{Options: []string{"a"}, Blocks: []Block{block, {FirstQuestion: 10, Rows: 5, RowPitch: 1, ColPitch: 1}}}},
		{"bad header", Layout{Options: []string{"a"}, Blocks: []Block{block}, HeaderFraction: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.layout.Validate(), ErrInvalidLayout)
		})
	}
}

func TestLayout_Fits(t *testing.T) {
	l := DefaultLayout()
	assert.NoError(t, l.Fits(600, 800))
	assert.NoError(t, l.Fits(481, 713))

	err := l.Fits(480, 800)
	require.ErrorIs(t, err, ErrInvalidLayout)
	assert.Contains(t, err.Error(), "question 16 option d")

	assert.ErrorIs(t, l.Fits(600, 712), ErrInvalidLayout)
}
