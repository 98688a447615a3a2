package sync

import (
	"context"

	"github.com/ledgermesh/qbsync/pkg/customers"
)

// WriteBack pushes spreadsheet-only customers into QuickBooks as one
// batch. With no candidates it returns an empty outcome without opening a
// session. Individual rejections are recorded per record and never abort
// the batch; a duplicate name counts as already-exists, not a failure.
// Only a transport-level failure, where no per-item status was obtainable,
// surfaces on the outcome's Err, distinguishing "the batch failed" from
// "nothing needed writing".
func (p *Pipeline) WriteBack(ctx context.Context, candidates []customers.Customer) *customers.WriteOutcome {
	outcome := &customers.WriteOutcome{Results: []customers.WriteResult{}}
	if len(candidates) == 0 {
		return outcome
	}

	results, err := p.remote.AddCustomers(ctx, candidates)
	if err != nil {
		p.logger.Error().Err(err).Int("candidates", len(candidates)).Msg("write-back batch failed")
		outcome.Err = err
		return outcome
	}

	for _, res := range results {
		switch {
		case res.Status.OK():
			outcome.Results = append(outcome.Results, customers.WriteResult{
				Customer: res.Stored,
				Status:   customers.WriteCreated,
			})
		case res.Status.Duplicate():
			p.logger.Debug().
				Str("name", res.Submitted.Name).
				Msg("customer already exists in QuickBooks")
			outcome.Results = append(outcome.Results, customers.WriteResult{
				Customer: res.Stored,
				Status:   customers.WriteAlreadyExists,
				Message:  res.Status.Message,
			})
		default:
			p.logger.Warn().
				Str("name", res.Submitted.Name).
				Int("status", res.Status.Code).
				Str("message", res.Status.Message).
				Msg("QuickBooks rejected customer")
			outcome.Results = append(outcome.Results, customers.WriteResult{
				Customer: res.Submitted,
				Status:   customers.WriteFailed,
				Message:  res.Status.Message,
			})
		}
	}

	p.logger.Info().
		Int("created", outcome.Created()).
		Int("already_exists", outcome.AlreadyExists()).
		Int("failed", outcome.Failed()).
		Msg("write-back complete")

	return outcome
}
