// Package excel reads customer rows from an xlsx workbook.
package excel

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/logging"
)

// DefaultSheet is the worksheet customers are read from when no other
// name is configured.
const DefaultSheet = "customers"

// Columns recognized in the header row, matched case-insensitively.
const (
	columnName = "name"
	columnTerm = "term"
	columnID   = "id"
)

// Reader loads customers from one worksheet of an xlsx workbook.
type Reader struct {
	path   string
	sheet  string
	logger *zerolog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithSheet overrides the worksheet name.
func WithSheet(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.sheet = name
		}
	}
}

// WithLogger sets the logger used for skipped-row diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a reader for the workbook at path.
func NewReader(path string, opts ...Option) *Reader {
	r := &Reader{
		path:   path,
		sheet:  DefaultSheet,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Customers returns the usable rows in sheet order, tagged origin=excel.
// The first row is headers; columns are located by header name, not
// position. Rows with an empty name or an empty or non-numeric identifier
// are skipped silently (logged at debug only). Identifiers that arrive in
// floating point form are coerced to integer form.
func (r *Reader) Customers() ([]customers.Customer, error) {
	book, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.WrapIO("open", r.path, err)
	}
	defer func() {
		_ = book.Close()
	}()

	rows, err := book.GetRows(r.sheet)
	if err != nil {
		return nil, errors.NewValidationError("sheet", r.sheet,
			fmt.Sprintf("worksheet %q not found in %s", r.sheet, r.path))
	}
	if len(rows) == 0 {
		return []customers.Customer{}, nil
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	list := make([]customers.Customer, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, cols[columnName]))
		if name == "" {
			continue
		}

		id := customers.NormalizeID(cell(row, cols[columnID]))
		if !numericID(id) {
			r.logger.Debug().Int("row", i+2).Str("name", name).Msg("skipping row without numeric identifier")
			continue
		}

		list = append(list, customers.Customer{
			ID:     id,
			Name:   name,
			Term:   strings.TrimSpace(cell(row, cols[columnTerm])),
			Origin: customers.OriginExcel,
		})
	}

	r.logger.Debug().Int("customers", len(list)).Str("sheet", r.sheet).Msg("spreadsheet customers read")
	return list, nil
}

// headerIndex maps recognized column names to their positions. Name and
// ID are required; Term is optional and maps to -1 when absent.
func headerIndex(headers []string) (map[string]int, error) {
	cols := map[string]int{
		columnName: -1,
		columnTerm: -1,
		columnID:   -1,
	}
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if _, known := cols[key]; known && cols[key] == -1 {
			cols[key] = i
		}
	}
	if cols[columnName] == -1 {
		return nil, errors.NewValidationError("columns", headers, "header row missing Name column")
	}
	if cols[columnID] == -1 {
		return nil, errors.NewValidationError("columns", headers, "header row missing ID column")
	}
	return cols, nil
}

// cell returns the trimmed value at idx, tolerating the ragged rows
// excelize produces when trailing cells are empty.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func numericID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
