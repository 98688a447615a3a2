package customers

// ConflictReason explains why the two sources disagree about a customer.
type ConflictReason string

// Known conflict reasons.
const (
	// ReasonAttributeMismatch marks a shared identifier whose compared
	// attributes differ between the two sources.
	ReasonAttributeMismatch ConflictReason = "attribute-mismatch"

	// ReasonMissingInExcel marks an identifier present only in QuickBooks.
	ReasonMissingInExcel ConflictReason = "missing-in-excel"

	// ReasonMissingInQuickBooks marks an identifier present only in the
	// spreadsheet.
	ReasonMissingInQuickBooks ConflictReason = "missing-in-quickbooks"
)

// Conflict records a same-identifier disagreement between the two sources.
// Names and terms are the raw values from each side, not the normalized
// forms, so a reviewer sees exactly what each system stores.
type Conflict struct {
	ID        string         `json:"id" yaml:"id"`
	ExcelName string         `json:"excel_name,omitempty" yaml:"excel_name,omitempty"`
	QBName    string         `json:"qb_name,omitempty" yaml:"qb_name,omitempty"`
	ExcelTerm string         `json:"excel_term,omitempty" yaml:"excel_term,omitempty"`
	QBTerm    string         `json:"qb_term,omitempty" yaml:"qb_term,omitempty"`
	Reason    ConflictReason `json:"reason" yaml:"reason"`
}

// Comparison is the aggregate outcome of one reconciliation pass.
// It is constructed once by recon.Compare and read-only afterwards;
// write-back derives a new WriteOutcome rather than mutating it.
type Comparison struct {
	Matched     int        `json:"matched" yaml:"matched"`
	Conflicts   []Conflict `json:"conflicts" yaml:"conflicts"`
	OnlyInExcel []Customer `json:"only_in_excel" yaml:"only_in_excel"`
	OnlyInQB    []Customer `json:"only_in_qb" yaml:"only_in_qb"`
}

// HasConflicts reports whether any shared identifier disagreed.
func (c *Comparison) HasConflicts() bool {
	return len(c.Conflicts) > 0
}

// InSync reports whether the two sources held exactly the same records.
func (c *Comparison) InSync() bool {
	return len(c.Conflicts) == 0 && len(c.OnlyInExcel) == 0 && len(c.OnlyInQB) == 0
}

// WriteStatus classifies the outcome of one attempted remote create.
type WriteStatus string

// Known write statuses.
const (
	WriteCreated       WriteStatus = "created"
	WriteAlreadyExists WriteStatus = "already-exists"
	WriteFailed        WriteStatus = "failed"
)

// WriteResult is the per-record outcome of a write-back attempt.
// For created records Customer carries the server-confirmed values.
type WriteResult struct {
	Customer Customer    `json:"customer" yaml:"customer"`
	Status   WriteStatus `json:"status" yaml:"status"`
	Message  string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// WriteOutcome aggregates the results of pushing spreadsheet-only records
// into QuickBooks. Zero results with a nil Err means there was nothing to
// write; a non-nil Err means the batch failed before any per-record status
// was available.
type WriteOutcome struct {
	Results []WriteResult `json:"results" yaml:"results"`
	Err     error         `json:"-" yaml:"-"`
}

// Created counts records QuickBooks confirmed as newly created.
func (o *WriteOutcome) Created() int {
	return o.count(WriteCreated)
}

// AlreadyExists counts records QuickBooks rejected as duplicates.
// A duplicate is a soft success, not a failure.
func (o *WriteOutcome) AlreadyExists() int {
	return o.count(WriteAlreadyExists)
}

// Failed counts records QuickBooks rejected with a hard error.
func (o *WriteOutcome) Failed() int {
	return o.count(WriteFailed)
}

func (o *WriteOutcome) count(status WriteStatus) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}
