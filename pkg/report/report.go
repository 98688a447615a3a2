// Package report renders the outcome of a reconciliation run as a
// structured document, JSON by default or YAML on request. A run always
// produces a report: a completed comparison yields a success payload and
// a failed run yields an error payload, so downstream tooling has one
// artifact to inspect either way.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/sync"
)

// Status marks whether the run completed.
type Status string

// Run statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Format selects the report encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name; the empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("format", s, "must be json or yaml")
}

// Summary carries the per-bucket counts of one run.
type Summary struct {
	ExcelTotal  int `json:"excel_total" yaml:"excel_total"`
	QBTotal     int `json:"qb_total" yaml:"qb_total"`
	Matched     int `json:"matched" yaml:"matched"`
	Conflicts   int `json:"conflicts" yaml:"conflicts"`
	OnlyInExcel int `json:"only_in_excel" yaml:"only_in_excel"`
	OnlyInQB    int `json:"only_in_qb" yaml:"only_in_qb"`
}

// WriteBack is the report view of a write-back outcome.
type WriteBack struct {
	Created       int                     `json:"created" yaml:"created"`
	AlreadyExists int                     `json:"already_exists" yaml:"already_exists"`
	Failed        int                     `json:"failed" yaml:"failed"`
	Records       []customers.WriteResult `json:"records" yaml:"records"`
	Error         string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Payload is the serialized form of one reconciliation run.
type Payload struct {
	Status      Status               `json:"status" yaml:"status"`
	RunID       string               `json:"run_id" yaml:"run_id"`
	GeneratedAt string               `json:"generated_at" yaml:"generated_at"`
	Summary     Summary              `json:"summary" yaml:"summary"`
	Conflicts   []customers.Conflict `json:"conflicts" yaml:"conflicts"`
	OnlyInExcel []customers.Customer `json:"only_in_excel" yaml:"only_in_excel"`
	OnlyInQB    []customers.Customer `json:"only_in_qb" yaml:"only_in_qb"`
	WriteBack   *WriteBack           `json:"write_back,omitempty" yaml:"write_back,omitempty"`
	Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// New builds a success payload from a completed run.
func New(result *sync.Result) *Payload {
	comparison := result.Comparison
	payload := &Payload{
		Status:      StatusSuccess,
		RunID:       uuid.NewString(),
		GeneratedAt: timestamp(),
		Summary: Summary{
			ExcelTotal:  result.ExcelCount,
			QBTotal:     result.QBCount,
			Matched:     comparison.Matched,
			Conflicts:   len(comparison.Conflicts),
			OnlyInExcel: len(comparison.OnlyInExcel),
			OnlyInQB:    len(comparison.OnlyInQB),
		},
		Conflicts:   comparison.Conflicts,
		OnlyInExcel: comparison.OnlyInExcel,
		OnlyInQB:    comparison.OnlyInQB,
	}

	if result.WriteBack != nil {
		wb := &WriteBack{
			Created:       result.WriteBack.Created(),
			AlreadyExists: result.WriteBack.AlreadyExists(),
			Failed:        result.WriteBack.Failed(),
			Records:       result.WriteBack.Results,
		}
		if result.WriteBack.Err != nil {
			wb.Error = result.WriteBack.Err.Error()
		}
		payload.WriteBack = wb
	}

	return payload
}

// NewError builds the error-status payload for a run that failed after
// input validation, typically on a transport failure.
func NewError(err error) *Payload {
	return &Payload{
		Status:      StatusError,
		RunID:       uuid.NewString(),
		GeneratedAt: timestamp(),
		Conflicts:   []customers.Conflict{},
		OnlyInExcel: []customers.Customer{},
		OnlyInQB:    []customers.Customer{},
		Error:       err.Error(),
	}
}

// Write renders the payload to w in the given format.
func (p *Payload) Write(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		encoded, err := yaml.Marshal(p)
		if err != nil {
			return errors.WrapParse("yaml", "encoding report", err)
		}
		_, err = w.Write(encoded)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
}

// WriteFile renders the payload to path, creating parent directories.
func (p *Payload) WriteFile(path string, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	if err := p.Write(f, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return f.Close()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
