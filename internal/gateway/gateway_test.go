package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
)

// fakeTransport records session lifecycle so tests can assert that every
// Open is paired with exactly one Close.
type fakeTransport struct {
	response []byte
	openErr  error
	procErr  error

	opens     int
	closes    int
	lastSent  []byte
	processed int
}

func (t *fakeTransport) Open(_ context.Context) (Session, error) {
	if t.openErr != nil {
		return nil, t.openErr
	}
	t.opens++
	return &fakeSession{transport: t}, nil
}

type fakeSession struct {
	transport *fakeTransport
}

func (s *fakeSession) Process(_ context.Context, request []byte) ([]byte, error) {
	s.transport.processed++
	s.transport.lastSent = request
	if s.transport.procErr != nil {
		return nil, s.transport.procErr
	}
	return s.transport.response, nil
}

func (s *fakeSession) Close() error {
	s.transport.closes++
	return nil
}

const queryResponse = `<QBXML><QBXMLMsgsRs>
  <CustomerQueryRs statusCode="0" statusSeverity="Info" statusMessage="Status OK">
    <CustomerRet><Name>Acme</Name><Fax>30.0</Fax><TermsRef><FullName>Net 30</FullName></TermsRef></CustomerRet>
    <CustomerRet><Name>No Fax Set</Name></CustomerRet>
    <CustomerRet><FullName>Globex</FullName><Fax> 31 </Fax></CustomerRet>
  </CustomerQueryRs>
</QBXMLMsgsRs></QBXML>`

func TestCustomers(t *testing.T) {
	transport := &fakeTransport{response: []byte(queryResponse)}
	g := New(transport)

	list, err := g.Customers(context.Background())
	require.NoError(t, err)

	require.Len(t, list, 2, "records without an identifier are skipped")
	assert.Equal(t, customers.Customer{
		ID:     "30",
		Name:   "Acme",
		Term:   "Net 30",
		Origin: customers.OriginQuickBooks,
	}, list[0])
	assert.Equal(t, "31", list[1].ID)
	assert.Equal(t, "Globex", list[1].Name)

	assert.Equal(t, 1, transport.opens)
	assert.Equal(t, 1, transport.closes)
	assert.Contains(t, string(transport.lastSent), "<CustomerQueryRq>")
}

func TestCustomersNoMatch(t *testing.T) {
	transport := &fakeTransport{response: []byte(`<QBXML><QBXMLMsgsRs>
	  <CustomerQueryRs statusCode="1" statusSeverity="Info" statusMessage="no match"/>
	</QBXMLMsgsRs></QBXML>`)}
	g := New(transport)

	list, err := g.Customers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, transport.opens, transport.closes)
}

func TestCustomersOpenFailure(t *testing.T) {
	transport := &fakeTransport{openErr: errors.New("bridge down")}
	g := New(transport)

	_, err := g.Customers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.Equal(t, 0, transport.closes)
}

func TestCustomersClosesSessionOnParseFailure(t *testing.T) {
	transport := &fakeTransport{response: []byte(`not xml at all <`)}
	g := New(transport)

	_, err := g.Customers(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, transport.opens)
	assert.Equal(t, 1, transport.closes, "session released even when the response is garbage")
}

const addBatchResponse = `<QBXML><QBXMLMsgsRs>
  <CustomerAddRs statusCode="0" statusSeverity="Info" statusMessage="Status OK">
    <CustomerRet><Name>Acme Inc</Name><Fax>30</Fax><TermsRef><FullName>Net 30</FullName></TermsRef></CustomerRet>
  </CustomerAddRs>
  <CustomerAddRs statusCode="3100" statusSeverity="Error" statusMessage="already in use"/>
</QBXMLMsgsRs></QBXML>`

func TestAddCustomers(t *testing.T) {
	transport := &fakeTransport{response: []byte(addBatchResponse)}
	g := New(transport)

	batch := []customers.Customer{
		{ID: "30", Name: "Acme", Origin: customers.OriginExcel},
		{ID: "31", Name: "Globex", Term: "Net 60", Origin: customers.OriginExcel},
	}

	results, err := g.AddCustomers(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Server-confirmed values win over the submitted ones.
	assert.True(t, results[0].Status.OK())
	assert.Equal(t, "Acme", results[0].Submitted.Name)
	assert.Equal(t, "Acme Inc", results[0].Stored.Name)
	assert.Equal(t, "Net 30", results[0].Stored.Term)
	assert.Equal(t, customers.OriginQuickBooks, results[0].Stored.Origin)

	// Submitted values are retained when the response omits the record.
	assert.True(t, results[1].Status.Duplicate())
	assert.Equal(t, "Globex", results[1].Stored.Name)
	assert.Equal(t, "Net 60", results[1].Stored.Term)

	assert.Contains(t, string(transport.lastSent), `onError="continueOnError"`)
	assert.Equal(t, 1, transport.opens)
	assert.Equal(t, 1, transport.closes)
}

func TestAddCustomersEmptyBatch(t *testing.T) {
	transport := &fakeTransport{}
	g := New(transport)

	results, err := g.AddCustomers(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 0, transport.opens, "no session opened for an empty batch")
}

func TestAddCustomersCountMismatch(t *testing.T) {
	transport := &fakeTransport{response: []byte(addBatchResponse)}
	g := New(transport)

	batch := []customers.Customer{
		{ID: "30", Name: "Acme"},
		{ID: "31", Name: "Globex"},
		{ID: "32", Name: "Initech"},
	}

	_, err := g.AddCustomers(context.Background(), batch)
	require.Error(t, err)

	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, transport.closes)
}

func TestAddCustomerDuplicateIsSoftSuccess(t *testing.T) {
	transport := &fakeTransport{response: []byte(`<QBXML><QBXMLMsgsRs>
	  <CustomerAddRs statusCode="3100" statusSeverity="Error" statusMessage="already in use"/>
	</QBXMLMsgsRs></QBXML>`)}
	g := New(transport)

	submitted := customers.Customer{ID: "30", Name: "Acme", Origin: customers.OriginExcel}
	stored, err := g.AddCustomer(context.Background(), submitted)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Name)
	assert.Equal(t, customers.OriginQuickBooks, stored.Origin)
}

func TestAddCustomerHardError(t *testing.T) {
	transport := &fakeTransport{response: []byte(`<QBXML><QBXMLMsgsRs>
	  <CustomerAddRs statusCode="3140" statusSeverity="Error" statusMessage="Invalid reference"/>
	</QBXMLMsgsRs></QBXML>`)}
	g := New(transport)

	_, err := g.AddCustomer(context.Background(), customers.Customer{ID: "30", Name: "Acme"})
	require.Error(t, err)

	var gatewayErr *errors.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, 3140, gatewayErr.StatusCode)
	assert.Equal(t, 1, transport.closes)
}

func TestHTTPTransportRequiresURL(t *testing.T) {
	transport := NewHTTPTransport("")

	_, err := transport.Open(context.Background())
	require.Error(t, err)

	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}
