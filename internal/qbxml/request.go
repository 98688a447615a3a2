// Package qbxml builds QBXML requests and decodes QBXML responses for the
// customer operations qbsync performs against QuickBooks Desktop.
//
// Requests are produced by marshaling typed structs with encoding/xml, so
// reserved characters in customer data are escaped exactly once and cannot
// be bypassed by string concatenation.
package qbxml

import (
	"bytes"
	"encoding/xml"

	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
)

// Version is the QBXML dialect version sent with every request.
const Version = "13.0"

// OnError selects the batch error policy QuickBooks applies when one
// request in a message set fails.
type OnError string

// Batch error policies.
const (
	// ContinueOnError processes the remaining requests after a failure.
	// Used for batch adds so one bad record cannot abort the rest.
	ContinueOnError OnError = "continueOnError"

	// StopOnError aborts the message set at the first failure.
	// Used for queries and single adds.
	StopOnError OnError = "stopOnError"
)

// The customer identifier lives in the Fax field of QuickBooks customer
// records. The field is otherwise unused by the company file and survives
// round trips unchanged.

type request struct {
	XMLName xml.Name `xml:"QBXML"`
	Msgs    msgsRq   `xml:"QBXMLMsgsRq"`
}

type msgsRq struct {
	OnError OnError           `xml:"onError,attr"`
	Queries []customerQueryRq `xml:"CustomerQueryRq"`
	Adds    []customerAddRq   `xml:"CustomerAddRq"`
}

type customerQueryRq struct {
	IncludeRetElement []string `xml:"IncludeRetElement"`
}

type customerAddRq struct {
	Add customerAdd `xml:"CustomerAdd"`
}

type customerAdd struct {
	Name     string    `xml:"Name"`
	Fax      string    `xml:"Fax"`
	TermsRef *termsRef `xml:"TermsRef,omitempty"`
}

type termsRef struct {
	FullName string `xml:"FullName"`
}

// CustomerQuery returns the payload that lists all customers, restricted
// to the elements qbsync consumes.
func CustomerQuery() ([]byte, error) {
	return marshal(request{
		Msgs: msgsRq{
			OnError: StopOnError,
			Queries: []customerQueryRq{{
				IncludeRetElement: []string{"Name", "FullName", "TermsRef", "Fax"},
			}},
		},
	})
}

// CustomerAddBatch returns one payload creating every candidate under the
// continue-on-error policy. QuickBooks answers with one CustomerAddRs per
// request, in request order.
func CustomerAddBatch(batch []customers.Customer) ([]byte, error) {
	adds := make([]customerAddRq, 0, len(batch))
	for _, c := range batch {
		adds = append(adds, customerAddRq{Add: newCustomerAdd(c)})
	}
	return marshal(request{
		Msgs: msgsRq{
			OnError: ContinueOnError,
			Adds:    adds,
		},
	})
}

// CustomerAdd returns the payload for a single create under stop-on-error.
func CustomerAdd(c customers.Customer) ([]byte, error) {
	return marshal(request{
		Msgs: msgsRq{
			OnError: StopOnError,
			Adds:    []customerAddRq{{Add: newCustomerAdd(c)}},
		},
	})
}

func newCustomerAdd(c customers.Customer) customerAdd {
	add := customerAdd{
		Name: c.Name,
		Fax:  customers.NormalizeID(c.ID),
	}
	if c.Term != "" {
		add.TermsRef = &termsRef{FullName: c.Term}
	}
	return add
}

// marshal renders the request with the XML declaration and the qbxml
// version processing instruction QuickBooks requires.
func marshal(req request) ([]byte, error) {
	body, err := xml.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, errors.WrapParse("qbxml", "marshaling request", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<?qbxml version="` + Version + `"?>` + "\n")
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
