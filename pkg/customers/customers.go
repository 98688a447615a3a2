// Package customers defines the domain types shared across qbsync:
// customer records from either source, conflicts between them, and the
// aggregate results of a comparison or write-back run.
package customers

import (
	"strings"

	"golang.org/x/text/cases"
)

// Origin identifies which system a customer record was read from.
// It is provenance only and never participates in equality.
type Origin string

// Known origins.
const (
	OriginExcel      Origin = "excel"
	OriginQuickBooks Origin = "quickbooks"
)

// Customer is one customer entity from either source.
type Customer struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Term   string `json:"term,omitempty" yaml:"term,omitempty"`
	Origin Origin `json:"-" yaml:"-"`
}

var fold = cases.Fold()

// NormalizeID canonicalizes an identifier for cross-source joins.
// Surrounding whitespace is stripped and numeric identifiers that arrive
// in floating point form ("30.0") collapse to their integer form ("30").
func NormalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	if dot := strings.IndexByte(id, '.'); dot > 0 {
		if isDigits(id[:dot]) && isZeros(id[dot+1:]) {
			return id[:dot]
		}
	}
	return id
}

// NormalizeName canonicalizes a display attribute for comparison:
// trimmed and Unicode case folded. Raw values stay untouched on the
// record so reports show what each system actually stores.
func NormalizeName(raw string) string {
	return fold.String(strings.TrimSpace(raw))
}

// Key returns the normalized join key for the record.
func (c Customer) Key() string {
	return NormalizeID(c.ID)
}

// EqualAttributes reports whether two records agree on their compared
// attributes after normalization. Origin never participates.
func (c Customer) EqualAttributes(other Customer) bool {
	return NormalizeName(c.Name) == NormalizeName(other.Name) &&
		NormalizeName(c.Term) == NormalizeName(other.Term)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isZeros(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}
