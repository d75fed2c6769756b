package reconcile

import "encoding/json"

// IssueKind is the closed set of discrepancy kinds a run can report.
type IssueKind int

const (
	MissingTable IssueKind = iota
	MissingColumn
	TypeMismatch
	NullabilityMismatch
	CardinalityMismatch
	ExtraColumn
	DuplicateFieldNumber
)

func (k IssueKind) String() string {
	switch k {
	case MissingTable:
		return "missing table"
	case MissingColumn:
		return "missing column"
	case TypeMismatch:
		return "type mismatch"
	case NullabilityMismatch:
		return "nullability mismatch"
	case CardinalityMismatch:
		return "cardinality mismatch"
	case ExtraColumn:
		return "extra column"
	case DuplicateFieldNumber:
		return "duplicate field number"
	default:
		return "unknown"
	}
}

func (k IssueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Severity splits issues into deploy blockers and loose-contract warnings.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Severity is fixed per kind: a nullable column behind a singular field and
// an unmapped extra column still function, everything else breaks the
// contract.
func (k IssueKind) Severity() Severity {
	switch k {
	case NullabilityMismatch, ExtraColumn:
		return Warning
	default:
		return Error
	}
}

// Issue is one schema discrepancy. Immutable once appended to a report.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`          // IDL message name
	Table    string    `json:"table,omitempty"`  // resolved or expected table
	Field    string    `json:"field,omitempty"`  // IDL field name
	Column   string    `json:"column,omitempty"` // resolved or expected column
	Detail   string    `json:"detail"`
}

// Report is the ordered issue list of one run plus severity tallies.
// Issues appear grouped per message in IDL declaration order; a run that
// completes with issues is a successful run, not an error.
type Report struct {
	Issues   []Issue `json:"issues"`
	Errors   int     `json:"errors"`
	Warnings int     `json:"warnings"`
}

func (r *Report) add(i Issue) {
	i.Severity = i.Kind.Severity()
	r.Issues = append(r.Issues, i)
	if i.Severity == Error {
		r.Errors++
	} else {
		r.Warnings++
	}
}

// HasErrors reports whether any Error-severity issue was found; the CLI
// exit status derives from this.
func (r *Report) HasErrors() bool { return r.Errors > 0 }
