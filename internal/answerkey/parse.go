package answerkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidKeyFormat means no cell of a key could be parsed.
var ErrInvalidKeyFormat = errors.New("invalid answer key format")

// InvalidKeyFormatError names the first cell that failed to parse in a key
// where nothing parsed. It wraps ErrInvalidKeyFormat.
type InvalidKeyFormatError struct {
	Subject string
	Row     int
	Cell    string
	Reason  string
}

func (e *InvalidKeyFormatError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidKeyFormat, e.Reason)
	}
	return fmt.Sprintf("%v: %s row %d: %q: %s", ErrInvalidKeyFormat, e.Subject, e.Row, e.Cell, e.Reason)
}

func (e *InvalidKeyFormatError) Unwrap() error {
	return ErrInvalidKeyFormat
}

// Separator splits a cell into question and answer.
const Separator = "-"

// ReservedColumn is the result field holding the total score; a key column
// with this name is skipped.
const ReservedColumn = "Total"

// CellResult is the outcome of one non-blank key cell.
type CellResult struct {
	Subject string `json:"subject"`

	// Row is the 1-based data row (the header is row 0).
	Row int    `json:"row"`
	Raw string `json:"raw"`

	Question int    `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`

	// Skip holds the reason the cell was not used; empty when parsed.
	Skip string `json:"skip,omitempty"`
}

// OK reports whether the cell parsed.
func (c CellResult) OK() bool {
	return c.Skip == ""
}

// Report describes how a key table was parsed.
type Report struct {
	Cells    []CellResult `json:"cells"`
	Parsed   int          `json:"parsed"`
	Skipped  int          `json:"skipped"`
	Warnings []string     `json:"warnings"`
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ParseCell parses a single "question-answer" cell.
//
// The cell must contain exactly one separator. The question part must be a
// positive integer. The answer part is lower-cased and split on commas; each
// option is trimmed and must be non-empty, and the options are joined back
// with "," in their original order.
func ParseCell(raw string) (question int, answer string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), Separator)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("want one %q between question and answer, found %d", Separator, len(parts)-1)
	}

	question, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || question < 1 {
		return 0, "", fmt.Errorf("question %q is not a positive integer", strings.TrimSpace(parts[0]))
	}

	answer, err = NormalizeAnswer(parts[1])
	if err != nil {
		return 0, "", err
	}
	return question, answer, nil
}

// NormalizeAnswer lower-cases an answer and trims each comma-separated
// option, keeping their order.
func NormalizeAnswer(s string) (string, error) {
	opts := strings.Split(strings.ToLower(strings.TrimSpace(s)), ",")
	for i, o := range opts {
		opts[i] = strings.TrimSpace(o)
		if opts[i] == "" {
			return "", fmt.Errorf("empty answer option in %q", strings.TrimSpace(s))
		}
	}
	return strings.Join(opts, ","), nil
}

// Parse builds a Key from a table.
//
// Blank cells are ignored. Malformed cells are skipped with a warning, as is
// a column named "Total" (in any case). When one subject gives the same
// question twice, the later cell wins and a warning is recorded. Subjects
// without a single valid cell stay in the key with no questions.
//
// If no cell parses, Parse returns an *InvalidKeyFormatError and no key.
func Parse(t Table) (*Key, *Report, error) {
	report := &Report{Cells: []CellResult{}, Warnings: []string{}}
	subjects := make([]string, 0, len(t.Columns))
	answers := make(map[string]map[int]string, len(t.Columns))
	var firstBad *CellResult

	for _, col := range t.Columns {
		name := strings.TrimSpace(col.Name)
		if strings.EqualFold(name, ReservedColumn) {
			report.warn("column %q is reserved for the total score and was skipped", name)
			continue
		}

		if _, ok := answers[name]; ok {
			report.warn("subject %q appears in more than one column; columns were merged", name)
		} else {
			subjects = append(subjects, name)
			answers[name] = map[int]string{}
		}

		for i, raw := range col.Cells {
			if strings.TrimSpace(raw) == "" {
				continue
			}

			res := CellResult{Subject: name, Row: i + 1, Raw: raw}
			q, a, err := ParseCell(raw)
			if err != nil {
				res.Skip = err.Error()
				report.Skipped++
				report.warn("%s row %d: skipped %q: %s", name, res.Row, raw, res.Skip)
				if firstBad == nil {
					bad := res
					firstBad = &bad
				}
			} else {
				res.Question, res.Answer = q, a
				report.Parsed++
				if prev, ok := answers[name][q]; ok {
					report.warn("%s row %d: question %d given again (%q replaces %q)", name, res.Row, q, a, prev)
				}
				answers[name][q] = a
			}
			report.Cells = append(report.Cells, res)
		}
	}

	if report.Parsed == 0 {
		if firstBad == nil {
			return nil, report, &InvalidKeyFormatError{Reason: "key has no answer cells"}
		}
		return nil, report, &InvalidKeyFormatError{
			Subject: firstBad.Subject,
			Row:     firstBad.Row,
			Cell:    firstBad.Raw,
			Reason:  firstBad.Skip,
		}
	}

	return NewKey(subjects, answers), report, nil
}
