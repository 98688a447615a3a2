// Package recon implements the comparison engine: it classifies customer
// records from the spreadsheet and from QuickBooks into matched,
// conflicting, and single-source buckets.
package recon

import (
	"sort"
	"strconv"

	"github.com/ledgermesh/qbsync/pkg/customers"
)

// Compare joins the two record sets on their normalized identifiers and
// classifies every record. It is pure and deterministic: the same inputs
// always produce a structurally identical Comparison.
//
// Duplicate identifiers within one source resolve first-wins: the earliest
// record in input order is kept and later duplicates are dropped. Attribute
// comparison trims whitespace and ignores case; conflicts retain the raw
// values from both sides for human review.
//
// Records present only in QuickBooks are informational. They appear in
// OnlyInQB and are never duplicated into Conflicts; conflicts are reserved
// for shared identifiers whose attributes disagree.
func Compare(excel, qb []customers.Customer) *customers.Comparison {
	excelByID, excelOrder := index(excel)
	qbByID, qbOrder := index(qb)

	result := &customers.Comparison{
		Conflicts:   []customers.Conflict{},
		OnlyInExcel: []customers.Customer{},
		OnlyInQB:    []customers.Customer{},
	}

	for _, id := range excelOrder {
		excelRec := excelByID[id]
		qbRec, shared := qbByID[id]
		if !shared {
			result.OnlyInExcel = append(result.OnlyInExcel, excelRec)
			continue
		}
		if excelRec.EqualAttributes(qbRec) {
			result.Matched++
			continue
		}
		result.Conflicts = append(result.Conflicts, customers.Conflict{
			ID:        id,
			ExcelName: excelRec.Name,
			QBName:    qbRec.Name,
			ExcelTerm: excelRec.Term,
			QBTerm:    qbRec.Term,
			Reason:    customers.ReasonAttributeMismatch,
		})
	}

	for _, id := range qbOrder {
		if _, shared := excelByID[id]; !shared {
			result.OnlyInQB = append(result.OnlyInQB, qbByID[id])
		}
	}

	sortConflicts(result.Conflicts)

	return result
}

// index builds a first-wins map keyed by normalized identifier, with key
// order preserved from the input slice. Records whose identifier is empty
// after normalization are dropped.
func index(records []customers.Customer) (map[string]customers.Customer, []string) {
	byID := make(map[string]customers.Customer, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, seen := byID[key]; seen {
			continue
		}
		byID[key] = rec
		order = append(order, key)
	}

	return byID, order
}

// sortConflicts orders conflicts by identifier for stable output,
// numerically when both identifiers parse as integers so "9" sorts
// before "10".
func sortConflicts(conflicts []customers.Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		return idLess(conflicts[i].ID, conflicts[j].ID)
	})
}

func idLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
