// Package gateway reads and writes QuickBooks customer records over a
// pluggable transport. It owns the session lifecycle: each operation
// acquires a session, performs exactly one request/response exchange, and
// releases the session before returning, error paths included.
package gateway

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ledgermesh/qbsync/internal/qbxml"
	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/logging"
)

// Gateway is the boundary to the QuickBooks company file.
type Gateway struct {
	transport Transport
	logger    *zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for session and per-item diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway over the given transport.
func New(transport Transport, opts ...Option) *Gateway {
	g := &Gateway{
		transport: transport,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddResult pairs one submitted candidate with QuickBooks' verdict.
// Stored carries the record as QuickBooks confirmed it: server-assigned
// values win over the submitted ones, which are retained wherever the
// response omits a field.
type AddResult struct {
	Submitted customers.Customer
	Stored    customers.Customer
	Status    qbxml.Status
}

// Customers returns every customer currently stored in QuickBooks, tagged
// origin=quickbooks. A "no matching objects" status yields an empty slice
// and no error. Records without a usable identifier are skipped.
func (g *Gateway) Customers(ctx context.Context) ([]customers.Customer, error) {
	request, err := qbxml.CustomerQuery()
	if err != nil {
		return nil, err
	}

	raw, err := g.exchange(ctx, request)
	if err != nil {
		return nil, err
	}

	parsed, err := qbxml.ParseQueryResponse(raw)
	if err != nil {
		return nil, err
	}

	list := make([]customers.Customer, 0, len(parsed.Customers))
	for _, ret := range parsed.Customers {
		rec, ok := fromRet(ret)
		if !ok {
			g.logger.Debug().Str("name", ret.DisplayName()).Msg("skipping QuickBooks customer without identifier")
			continue
		}
		list = append(list, rec)
	}

	g.logger.Debug().Int("customers", len(list)).Msg("QuickBooks customers fetched")
	return list, nil
}

// AddCustomers creates the batch in one request under the
// continue-on-error policy and returns one result per candidate, pairing
// positionally with QuickBooks' per-item responses. Per-item rejections
// come back as statuses, never as errors.
func (g *Gateway) AddCustomers(ctx context.Context, batch []customers.Customer) ([]AddResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	request, err := qbxml.CustomerAddBatch(batch)
	if err != nil {
		return nil, err
	}

	raw, err := g.exchange(ctx, request)
	if err != nil {
		return nil, err
	}

	items, err := qbxml.ParseAddResponses(raw)
	if err != nil {
		return nil, err
	}
	if len(items) != len(batch) {
		return nil, &errors.ParseError{
			Format:  "qbxml",
			Message: "add response item count does not match request",
		}
	}

	results := make([]AddResult, len(batch))
	for i, item := range items {
		results[i] = AddResult{
			Submitted: batch[i],
			Stored:    merge(batch[i], item.Customer),
			Status:    item.Status,
		}
	}
	return results, nil
}

// AddCustomer creates a single record under the stop-on-error policy.
// A duplicate-name rejection is a soft success returning the record as
// already stored; other non-zero statuses surface as a GatewayError.
func (g *Gateway) AddCustomer(ctx context.Context, c customers.Customer) (customers.Customer, error) {
	request, err := qbxml.CustomerAdd(c)
	if err != nil {
		return customers.Customer{}, err
	}

	raw, err := g.exchange(ctx, request)
	if err != nil {
		return customers.Customer{}, err
	}

	items, err := qbxml.ParseAddResponses(raw)
	if err != nil {
		return customers.Customer{}, err
	}

	item := items[0]
	if !item.Status.OK() && !item.Status.Duplicate() {
		return customers.Customer{}, item.Status.Err("add")
	}
	return merge(c, item.Customer), nil
}

// exchange runs one request/response roundtrip on a fresh session.
// The session is always closed before exchange returns, so even response
// parsing failures in the callers cannot leak a session.
func (g *Gateway) exchange(ctx context.Context, request []byte) ([]byte, error) {
	session, err := g.transport.Open(ctx)
	if err != nil {
		return nil, &errors.TransportError{Stage: "open", Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			g.logger.Warn().Err(cerr).Msg("closing QuickBooks session")
		}
	}()

	return session.Process(ctx, request)
}

// fromRet converts a wire record to the domain form, reporting false when
// the record carries no usable identifier.
func fromRet(ret qbxml.CustomerRet) (customers.Customer, bool) {
	id := customers.NormalizeID(ret.Fax)
	if id == "" {
		return customers.Customer{}, false
	}
	return customers.Customer{
		ID:     id,
		Name:   ret.DisplayName(),
		Term:   strings.TrimSpace(ret.TermsRef.FullName),
		Origin: customers.OriginQuickBooks,
	}, true
}

// merge applies the optional-field merge policy for add responses: the
// server value wins when present, otherwise the submitted value is kept.
func merge(submitted customers.Customer, ret *qbxml.CustomerRet) customers.Customer {
	stored := submitted
	stored.Origin = customers.OriginQuickBooks
	if ret == nil {
		return stored
	}
	if name := ret.DisplayName(); name != "" {
		stored.Name = name
	}
	if id := customers.NormalizeID(ret.Fax); id != "" {
		stored.ID = id
	}
	if term := strings.TrimSpace(ret.TermsRef.FullName); term != "" {
		stored.Term = term
	}
	return stored
}
