package qbxml

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/ledgermesh/qbsync/pkg/errors"
)

// Well-known status codes.
const (
	// StatusOK is returned for a successful operation.
	StatusOK = 0

	// StatusNoMatch means a query matched no objects. It is an empty
	// result, not an error.
	StatusNoMatch = 1

	// StatusDuplicateName means the record's name is already in use.
	// Write-back treats it as a soft success.
	StatusDuplicateName = 3100
)

// Status carries the per-operation status attributes QuickBooks attaches
// to every response element.
type Status struct {
	Code     int
	Severity string
	Message  string
}

// OK reports a successful operation.
func (s Status) OK() bool { return s.Code == StatusOK }

// Empty reports a query that matched no objects.
func (s Status) Empty() bool { return s.Code == StatusNoMatch }

// Duplicate reports a create rejected because the name is already in use.
func (s Status) Duplicate() bool { return s.Code == StatusDuplicateName }

// Err returns the status as a GatewayError when it is a hard error for
// the given operation, and nil otherwise. StatusNoMatch is never an error;
// StatusDuplicateName is not a hard error either, callers inspect it via
// Duplicate.
func (s Status) Err(operation string) error {
	switch s.Code {
	case StatusOK, StatusNoMatch, StatusDuplicateName:
		return nil
	}
	return errors.NewGatewayError(operation, s.Code, s.Message)
}

// CustomerRet is one customer entity as returned by QuickBooks.
type CustomerRet struct {
	Name     string `xml:"Name"`
	FullName string `xml:"FullName"`
	Fax      string `xml:"Fax"`
	TermsRef struct {
		FullName string `xml:"FullName"`
	} `xml:"TermsRef"`
}

// DisplayName returns the customer's name, preferring the short Name
// element and falling back to FullName. Which element a response carries
// depends on the query's IncludeRetElement list, so both are accepted.
func (r CustomerRet) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(r.FullName)
}

// QueryResponse is the decoded result of a CustomerQueryRq.
type QueryResponse struct {
	Status    Status
	Customers []CustomerRet
}

// AddResponse is the decoded result of one CustomerAddRq within a batch.
// Customer is nil when QuickBooks omitted the created object, which it
// does for rejected requests and occasionally for accepted ones.
type AddResponse struct {
	Status   Status
	Customer *CustomerRet
}

type response struct {
	XMLName xml.Name `xml:"QBXML"`
	Msgs    struct {
		QueryRs []operationRs `xml:"CustomerQueryRs"`
		AddRs   []operationRs `xml:"CustomerAddRs"`
	} `xml:"QBXMLMsgsRs"`
}

type operationRs struct {
	StatusCode     string        `xml:"statusCode,attr"`
	StatusSeverity string        `xml:"statusSeverity,attr"`
	StatusMessage  string        `xml:"statusMessage,attr"`
	Customers      []CustomerRet `xml:"CustomerRet"`
}

func (rs operationRs) status() (Status, error) {
	code, err := strconv.Atoi(strings.TrimSpace(rs.StatusCode))
	if err != nil {
		return Status{}, errors.WrapParse("qbxml", "response status code "+strconv.Quote(rs.StatusCode), err)
	}
	return Status{
		Code:     code,
		Severity: rs.StatusSeverity,
		Message:  rs.StatusMessage,
	}, nil
}

// ParseQueryResponse decodes a CustomerQueryRs document. A hard status
// surfaces as a GatewayError; a no-match status yields an empty customer
// list and no error.
func ParseQueryResponse(raw []byte) (*QueryResponse, error) {
	decoded, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if len(decoded.Msgs.QueryRs) == 0 {
		return nil, &errors.ParseError{Format: "qbxml", Message: "response missing CustomerQueryRs"}
	}

	rs := decoded.Msgs.QueryRs[0]
	status, err := rs.status()
	if err != nil {
		return nil, err
	}
	if err := status.Err("query"); err != nil {
		return nil, err
	}

	result := &QueryResponse{Status: status, Customers: rs.Customers}
	if status.Empty() {
		result.Customers = nil
	}
	return result, nil
}

// ParseAddResponses decodes the per-item results of a CustomerAdd batch.
// Hard per-item statuses are returned as data, not errors, so one rejected
// record never hides the others' outcomes.
func ParseAddResponses(raw []byte) ([]AddResponse, error) {
	decoded, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if len(decoded.Msgs.AddRs) == 0 {
		return nil, &errors.ParseError{Format: "qbxml", Message: "response missing CustomerAddRs"}
	}

	results := make([]AddResponse, 0, len(decoded.Msgs.AddRs))
	for _, rs := range decoded.Msgs.AddRs {
		status, err := rs.status()
		if err != nil {
			return nil, err
		}
		item := AddResponse{Status: status}
		if len(rs.Customers) > 0 {
			ret := rs.Customers[0]
			item.Customer = &ret
		}
		results = append(results, item)
	}
	return results, nil
}

func decode(raw []byte) (*response, error) {
	var decoded response
	if err := xml.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.WrapParse("qbxml", "malformed response", err)
	}
	return &decoded, nil
}
