// Package xlsx reads product price lists from Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/pharmalens/backend/internal/domain"
)

// DefaultHeaderRow is the 1-based row holding column titles; row 1 is usually a sheet title
const DefaultHeaderRow = 2

// ReadOptions selects what part of the workbook to read
type ReadOptions struct {
	// Sheet defaults to the first sheet of the workbook
	Sheet string
	// HeaderRow is 1-based and defaults to DefaultHeaderRow
	HeaderRow int
}

// RowError reports one skipped spreadsheet row
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e RowError) Unwrap() error {
	return domain.ErrMalformedValue
}

// ImportResult is the outcome of reading a workbook
type ImportResult struct {
	Sheet    string           `json:"sheet"`
	Products []domain.Product `json:"-"`
	Skipped  int              `json:"skipped"`
	Errors   []RowError       `json:"errors"`
}

// ReadProducts parses product rows from an xlsx stream.
// Fully empty rows are dropped; rows without a name are skipped and reported.
func ReadProducts(r io.Reader, opts ReadOptions) (*ImportResult, error) {
	headerRow := opts.HeaderRow
	if headerRow == 0 {
		headerRow = DefaultHeaderRow
	}
	if headerRow < 1 {
		return nil, fmt.Errorf("%w: header row must be at least 1", domain.ErrInvalidRequest)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid Excel file: %v", domain.ErrInvalidRequest, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidRequest)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheet %q not found", domain.ErrInvalidRequest, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrInvalidRequest, sheet, err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("%w: sheet %q has no header at row %d", domain.ErrSchema, sheet, headerRow)
	}

	headers := rows[headerRow-1]
	columns := resolveIndexes(headers)
	if _, ok := columns[domain.FieldName]; !ok {
		return nil, fmt.Errorf("%w: no product name column in %v", domain.ErrSchema, headers)
	}

	result := &ImportResult{Sheet: sheet, Errors: []RowError{}}
	for i := headerRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		var p domain.Product
		for field, idx := range columns {
			if idx < len(row) {
				p.SetValue(field, strings.TrimSpace(row[idx]))
			}
		}
		if p.Name == "" {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: i + 1, Reason: "missing product name"})
			continue
		}
		result.Products = append(result.Products, p)
	}

	log.Debug().
		Str("sheet", sheet).
		Int("rows", len(result.Products)).
		Int("skipped", result.Skipped).
		Msg("workbook parsed")

	return result, nil
}

// resolveIndexes maps canonical fields to column positions through the alias table
func resolveIndexes(headers []string) map[domain.Field]int {
	byHeader := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := byHeader[h]; !dup {
			byHeader[h] = i
		}
	}

	out := make(map[domain.Field]int)
	for field, h := range domain.ResolveColumns(headers) {
		out[field] = byHeader[h]
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
