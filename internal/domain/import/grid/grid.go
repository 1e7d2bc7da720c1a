// Package grid turns an uploaded statement file into a rectangular grid of
// raw cell strings, first row headers, the shape the mapping and
// reconciliation steps work on.
package grid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// Grid is the raw cell matrix, first row headers
type Grid [][]string

// Headers returns the header row, or nil for an empty grid
func (g Grid) Headers() []string {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// Rows returns the data rows below the header
func (g Grid) Rows() [][]string {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// ErrUnsupportedFormat marks uploads in a format no parser here can read
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parse dispatches on the file extension. CSV is the default for anything
// that is not a spreadsheet.
func Parse(filename string, data []byte) (Grid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseXLSX(bytes.NewReader(data))
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls files are not supported, save the file as .xlsx or .csv first", ErrUnsupportedFormat)
	default:
		return ParseCSV(bytes.NewReader(data))
	}
}

// ParseCSV reads a delimited text file into a grid. The delimiter is sniffed
// from the first line; exports commonly use semicolons or tabs instead of
// commas.
func ParseCSV(r io.Reader) (Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return Grid(records), nil
}

func sniffDelimiter(data []byte) rune {
	line, _, _ := strings.Cut(string(data), "\n")
	for _, candidate := range []rune{',', ';', '\t'} {
		if strings.ContainsRune(line, candidate) {
			return candidate
		}
	}
	return ','
}

// ParseXLSX reads the first sheet of a spreadsheet into a grid
func ParseXLSX(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	// GetRows trims trailing empty cells per row; pad back to the header
	// width so column indexes stay stable.
	grid := Grid(rows)
	width := len(grid.Headers())
	for i, row := range grid {
		for len(row) < width {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid, nil
}

// AutoRow is the typed fast path for files whose headers already use the
// semantic field names. All cells stay strings; coercion happens during
// reconciliation.
type AutoRow struct {
	Date     string `csv:"date"`
	Payee    string `csv:"payee"`
	Amount   string `csv:"amount"`
	Account  string `csv:"account"`
	Category string `csv:"category"`
	Notes    string `csv:"notes"`
}

// DecodeAuto binds a CSV directly to typed rows when its headers name the
// semantic fields. A file with required headers missing, or that is not
// header-bindable at all, returns ok=false and the caller falls back to
// manual column mapping. Header matching is case-insensitive.
func DecodeAuto(data []byte) ([]AutoRow, bool) {
	head, rest, _ := bytes.Cut(data, []byte("\n"))
	normalized := append(bytes.ToLower(head), '\n')
	normalized = append(normalized, rest...)

	// A local reader keeps concurrent decodes with different delimiters
	// independent; gocsv.SetCSVReader is process-global.
	reader := csv.NewReader(bytes.NewReader(normalized))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []AutoRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, false
	}

	for _, row := range rows {
		if row.Date == "" || row.Payee == "" || row.Amount == "" {
			return nil, false
		}
	}
	return rows, len(rows) > 0
}
