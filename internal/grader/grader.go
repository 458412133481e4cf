// Package grader runs the full answer-sheet pipeline: normalize the photo,
// read the marks, and score them against the active answer key.
package grader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/omr-grader-mcp/internal/answerkey"
	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/config"
	"github.com/ironsheep/omr-grader-mcp/internal/imaging"
	"github.com/ironsheep/omr-grader-mcp/internal/ocr"
	"github.com/ironsheep/omr-grader-mcp/internal/scoring"
	"github.com/ironsheep/omr-grader-mcp/internal/sheet"
)

// ErrKeyRequired is returned by Evaluate when no key was supplied and none
// has been loaded before.
var ErrKeyRequired = errors.New("no answer key loaded")

// KeyInput is an answer key file supplied with an evaluation. Name selects
// the format by extension.
type KeyInput struct {
	Name string
	Data []byte
}

// Evaluation is the outcome of grading one sheet.
type Evaluation struct {
	// Scores is the flat subject -> score map plus "Total".
	Scores scoring.Result `json:"scores"`

	Details   []scoring.QuestionResult `json:"details"`
	Answers   bubbles.Answers          `json:"answers"`
	Ambiguous []int                    `json:"ambiguous"`

	// Label is read from the sheet header; empty when OCR is off or found
	// nothing.
	Label string `json:"label,omitempty"`

	KeySource string   `json:"key_source"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Grader ties the pipeline stages to one answer key store. It is safe for
// concurrent use.
type Grader struct {
	normalizer *sheet.Normalizer
	extractor  *bubbles.Extractor
	keys       *answerkey.Store
	header     *ocr.HeaderReader
	debug      bool
}

// Option configures a Grader.
type Option func(*Grader)

// WithStore shares an existing key store.
func WithStore(s *answerkey.Store) Option {
	return func(g *Grader) { g.keys = s }
}

// WithoutHeader disables header OCR.
func WithoutHeader() Option {
	return func(g *Grader) { g.header = nil }
}

// New builds a Grader from cfg.
func New(cfg *config.Config, opts ...Option) (*Grader, error) {
	extractor, err := bubbles.NewExtractor(cfg.Layout, cfg.Bubbles)
	if err != nil {
		return nil, err
	}

	normalizer := sheet.NewNormalizer(cfg.Sheet)
	size := normalizer.Options()
	if err := extractor.Layout().Fits(size.Width, size.Height); err != nil {
		return nil, err
	}

	header := cfg.Header
	g := &Grader{
		normalizer: normalizer,
		extractor:  extractor,
		keys:       answerkey.NewStore(),
		header:     &header,
		debug:      cfg.Debug(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Keys returns the key store.
func (g *Grader) Keys() *answerkey.Store {
	return g.keys
}

// Extractor returns the mark extractor in use.
func (g *Grader) Extractor() *bubbles.Extractor {
	return g.extractor
}

// LoadKey parses a key file and makes it the active key. On error the
// previous key stays active.
func (g *Grader) LoadKey(name string, r io.Reader) (*answerkey.Key, *answerkey.Report, error) {
	table, err := answerkey.Decode(name, r)
	if err != nil {
		return nil, nil, err
	}

	key, report, err := answerkey.Parse(table)
	for _, w := range report.Warnings {
		log.Printf("answer key %s: %s", name, w)
	}
	if err != nil {
		return nil, report, err
	}

	g.keys.Replace(key, name)
	if g.debug {
		log.Printf("Loaded answer key %s: %d subjects, %d answers", name, len(key.Subjects()), key.Len())
	}
	return key, report, nil
}

// Normalize finds and rectifies the sheet in img.
func (g *Grader) Normalize(img image.Image) (*sheet.Sheet, error) {
	return g.normalizer.Normalize(img)
}

// Detect normalizes img and reads its marks.
func (g *Grader) Detect(img image.Image) (*sheet.Sheet, *bubbles.Extraction, error) {
	s, err := g.normalizer.Normalize(img)
	if err != nil {
		return nil, nil, err
	}
	ext := g.extractor.Analyze(s.Gray)
	if g.debug {
		log.Printf("Detected %d answers, %d ambiguous, %d candidates (threshold %d)",
			len(ext.Answers), len(ext.Ambiguous), len(ext.Candidates), ext.Threshold)
	}
	return s, ext, nil
}

// Overlay draws the layout over the normalized sheet, marking the bubbles
// that were read as filled.
func (g *Grader) Overlay(img image.Image, outlineHex, markHex string) (*imaging.OverlayResult, error) {
	s, ext, err := g.Detect(img)
	if err != nil {
		return nil, err
	}
	return imaging.GridOverlay(s.Warped, g.extractor.OverlayCells(ext), outlineHex, markHex)
}

// ReadHeader normalizes img and recognizes its header strip.
func (g *Grader) ReadHeader(img image.Image) (*ocr.Header, error) {
	if g.header == nil {
		return nil, ocr.ErrUnavailable
	}
	s, err := g.normalizer.Normalize(img)
	if err != nil {
		return nil, err
	}
	return g.header.ReadHeader(s.Warped)
}

// Evaluate grades the sheet in img.
//
// When key is not nil it is parsed while the sheet is processed and, if
// valid, replaces the active key before scoring, even when the sheet itself
// fails. A key error is reported ahead of a sheet error. Without key the
// active key is used; if there is none Evaluate returns ErrKeyRequired.
func (g *Grader) Evaluate(ctx context.Context, img image.Image, key *KeyInput) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == nil && g.keys.Load() == nil {
		return nil, ErrKeyRequired
	}

	var (
		ext      *bubbles.Extraction
		label    string
		warnings []string
		keyErr   error
		sheetErr error
	)

	eg, ctx := errgroup.WithContext(ctx)

	if key != nil {
		eg.Go(func() error {
			_, report, err := g.LoadKey(key.Name, bytes.NewReader(key.Data))
			if report != nil {
				warnings = report.Warnings
			}
			if err != nil {
				keyErr = fmt.Errorf("failed to load answer key: %w", err)
			}
			return keyErr
		})
	}

	eg.Go(func() error {
		s, err := g.normalizer.Normalize(img)
		if err != nil {
			sheetErr = err
			return err
		}
		// Skip the remaining stages once the key has failed
		if err := ctx.Err(); err != nil {
			return err
		}
		ext = g.extractor.Analyze(s.Gray)
		label = g.readLabel(ctx, s)
		return nil
	})

	if err := eg.Wait(); err != nil {
		if keyErr != nil {
			return nil, keyErr
		}
		if sheetErr != nil {
			return nil, sheetErr
		}
		return nil, err
	}

	active, source := g.keys.Snapshot()
	if active == nil {
		return nil, ErrKeyRequired
	}

	result := scoring.Score(ext.Answers, active)
	if g.debug {
		log.Printf("Scored sheet %q against %s: total %d", label, source, result.Total)
	}

	return &Evaluation{
		Scores:    result,
		Details:   result.Details,
		Answers:   ext.Answers,
		Ambiguous: ext.Ambiguous,
		Label:     label,
		KeySource: source,
		Warnings:  warnings,
	}, nil
}

// readLabel returns the header label, or "" when OCR is unavailable or
// fails. A header is never a reason to reject a sheet.
func (g *Grader) readLabel(ctx context.Context, s *sheet.Sheet) string {
	if g.header == nil || !ocr.Available || ctx.Err() != nil {
		return ""
	}
	h, err := g.header.ReadHeader(s.Warped)
	if err != nil {
		log.Printf("Header OCR failed: %v", err)
		return ""
	}
	return h.Label
}
