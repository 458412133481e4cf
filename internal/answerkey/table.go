package answerkey

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned by Decode for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported key file format")

// Column is one subject column of a key table.
type Column struct {
	Name  string   `json:"name"`
	Cells []string `json:"cells"`
}

// Table is a key file as named columns of raw cell text, in file order.
type Table struct {
	Columns []Column `json:"columns"`
}

// Decode reads a key table. The format is chosen by the extension of name:
// ".xlsx" (first worksheet, first row is the header), ".csv" (first record
// is the header) or ".json" (an object of subject -> array of cells, in
// document order).
func Decode(name string, r io.Reader) (Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return decodeXLSX(r)
	case ".csv":
		return decodeCSV(r)
	case ".json":
		return decodeJSON(r)
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

func decodeXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

func decodeCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return fromRows(rows), nil
}

// fromRows turns a header row plus data rows into columns. Short rows are
// padded with blanks; blank header cells are named "Unnamed: <index>".
func fromRows(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}

	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	cols := make([]Column, width)
	for i := range cols {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		cols[i].Name = name
		cols[i].Cells = make([]string, 0, len(rows)-1)
	}

	for _, row := range rows[1:] {
		for i := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cols[i].Cells = append(cols[i].Cells, cell)
		}
	}
	return Table{Columns: cols}
}

// decodeJSON reads {"Subject": ["1-a", ...], ...} keeping subject order.
// Cells may be strings, numbers or null (blank).
func decodeJSON(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read json: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Table{}, fmt.Errorf("failed to parse json: key must be an object of subject columns")
	}

	var t Table
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Table{}, fmt.Errorf("failed to parse json: %w", err)
		}
		name, _ := tok.(string)

		var raw []any
		if err := dec.Decode(&raw); err != nil {
			return Table{}, fmt.Errorf("failed to parse json column %q: %w", name, err)
		}

		col := Column{Name: strings.TrimSpace(name), Cells: make([]string, len(raw))}
		for i, v := range raw {
			switch v := v.(type) {
			case nil:
			case string:
				col.Cells[i] = v
			default:
				col.Cells[i] = fmt.Sprint(v)
			}
		}
		t.Columns = append(t.Columns, col)
	}

	if _, err := dec.Token(); err != nil {
		return Table{}, fmt.Errorf("failed to parse json: %w", err)
	}
	return t, nil
}
