// Package sync orchestrates a reconciliation run: read the spreadsheet,
// read QuickBooks, compare the two record sets, and optionally push
// spreadsheet-only customers back into QuickBooks.
//
// The stages run strictly in that order with no interleaving; all state is
// local to one Run invocation.
package sync

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ledgermesh/qbsync/internal/gateway"
	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/logging"
	"github.com/ledgermesh/qbsync/pkg/recon"
)

// Reader supplies the spreadsheet side of the comparison.
type Reader interface {
	// Customers returns the spreadsheet records in row order.
	Customers() ([]customers.Customer, error)
}

// Remote supplies the QuickBooks side and receives write-back batches.
// *gateway.Gateway implements it.
type Remote interface {
	Customers(ctx context.Context) ([]customers.Customer, error)
	AddCustomers(ctx context.Context, batch []customers.Customer) ([]gateway.AddResult, error)
}

// Result is the outcome of one reconciliation run.
type Result struct {
	ExcelCount int
	QBCount    int
	Comparison *customers.Comparison

	// WriteBack is nil when write-back was skipped (dry run); it is
	// derived from the comparison, which itself is never mutated.
	WriteBack *customers.WriteOutcome
}

// Pipeline wires a Reader and a Remote into one runnable reconciliation.
type Pipeline struct {
	reader Reader
	remote Remote
	logger *zerolog.Logger
	dryRun bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithDryRun disables write-back; the run compares and reports only.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// New creates a Pipeline.
func New(reader Reader, remote Remote, opts ...Option) *Pipeline {
	p := &Pipeline{
		reader: reader,
		remote: remote,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one reconciliation pass. A spreadsheet with no usable rows
// fails with ErrNoInputData before any remote session is opened. Write
// direction is strictly spreadsheet to QuickBooks: only the comparison's
// OnlyInExcel records are ever submitted, exactly once per run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	excelRecords, err := p.reader.Customers()
	if err != nil {
		return nil, err
	}
	if len(excelRecords) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no usable customer rows", errors.ErrNoInputData)
	}
	p.logger.Info().Int("customers", len(excelRecords)).Msg("spreadsheet customers loaded")

	qbRecords, err := p.remote.Customers(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Info().Int("customers", len(qbRecords)).Msg("QuickBooks customers loaded")

	comparison := recon.Compare(excelRecords, qbRecords)
	p.logger.Info().
		Int("matched", comparison.Matched).
		Int("conflicts", len(comparison.Conflicts)).
		Int("only_in_excel", len(comparison.OnlyInExcel)).
		Int("only_in_qb", len(comparison.OnlyInQB)).
		Msg("comparison complete")

	result := &Result{
		ExcelCount: len(excelRecords),
		QBCount:    len(qbRecords),
		Comparison: comparison,
	}

	if p.dryRun {
		p.logger.Info().Msg("dry run, skipping write-back")
		return result, nil
	}

	result.WriteBack = p.WriteBack(ctx, comparison.OnlyInExcel)
	return result, nil
}
