// Package compat decides whether a proto field may be backed by a given
// database column. The scalar matrix is the single source of truth for
// type acceptance and is total over every scalar keyword the parser knows.
package compat

import (
	"fmt"

	"protovet/internal/dialect"
	"protovet/internal/proto"
	"protovet/internal/relation"
)

// VerdictKind classifies the outcome of one field-to-column check.
type VerdictKind int

const (
	Compatible VerdictKind = iota
	TypeMismatch
	NullabilityMismatch
	CardinalityMismatch
)

func (k VerdictKind) String() string {
	switch k {
	case Compatible:
		return "compatible"
	case TypeMismatch:
		return "type mismatch"
	case NullabilityMismatch:
		return "nullability mismatch"
	case CardinalityMismatch:
		return "cardinality mismatch"
	default:
		return "unknown"
	}
}

// Verdict is the result of a single compatibility check.
type Verdict struct {
	Kind   VerdictKind
	Detail string
}

func ok() Verdict { return Verdict{Kind: Compatible} }

func mismatch(k VerdictKind, format string, args ...any) Verdict {
	return Verdict{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

// anyWidth marks an acceptance entry that matches every width of its kind.
const anyWidth = 0

// scalarMatrix maps each scalar type to its acceptable column type tags.
// A Width of anyWidth accepts every width of the kind. 32-bit integer
// types widen into 64-bit columns; the reverse would truncate and is
// rejected.
var scalarMatrix = map[proto.ScalarType][]dialect.ColumnType{
	proto.ScalarInt32:    {dialect.Integer(32), dialect.Integer(64)},
	proto.ScalarUint32:   {dialect.Integer(32), dialect.Integer(64)},
	proto.ScalarSint32:   {dialect.Integer(32), dialect.Integer(64)},
	proto.ScalarFixed32:  {dialect.Integer(32), dialect.Integer(64)},
	proto.ScalarSfixed32: {dialect.Integer(32), dialect.Integer(64)},
	proto.ScalarInt64:    {dialect.Integer(64)},
	proto.ScalarUint64:   {dialect.Integer(64)},
	proto.ScalarSint64:   {dialect.Integer(64)},
	proto.ScalarFixed64:  {dialect.Integer(64)},
	proto.ScalarSfixed64: {dialect.Integer(64)},
	proto.ScalarBool:     {dialect.Simple(dialect.KindBoolean)},
	proto.ScalarString:   {dialect.Simple(dialect.KindText), dialect.Simple(dialect.KindUUID)},
	proto.ScalarBytes:    {dialect.Simple(dialect.KindBinary)},
	proto.ScalarFloat:    {dialect.Float(32), dialect.Float(64)},
	proto.ScalarDouble:   {dialect.Float(64)},
}

// enumAccepted: enums may be stored as labels or as their numeric value.
var enumAccepted = []dialect.ColumnType{
	dialect.Simple(dialect.KindText),
	{Kind: dialect.KindInteger, Width: anyWidth},
}

var timestampAccepted = []dialect.ColumnType{
	dialect.Simple(dialect.KindTimestamp),
}

// Accepted returns the acceptance set for a scalar type. An unmapped
// scalar is a programming error in the matrix, not a validation finding,
// and fails loudly.
func Accepted(s proto.ScalarType) []dialect.ColumnType {
	set, ok := scalarMatrix[s]
	if !ok {
		panic(fmt.Sprintf("compat: no column mapping for scalar type %q", s))
	}
	return set
}

func acceptedFor(t proto.Type) ([]dialect.ColumnType, string) {
	switch t.Kind {
	case proto.KindScalar:
		return Accepted(t.Scalar), string(t.Scalar)
	case proto.KindEnum:
		return enumAccepted, "enum " + t.Ref
	case proto.KindMessage:
		if t.Ref == proto.WellKnownTimestamp {
			return timestampAccepted, t.Ref
		}
		return nil, t.Ref
	default:
		return nil, t.String()
	}
}

func matches(accepted dialect.ColumnType, col dialect.ColumnType) bool {
	if accepted.Kind != col.Kind {
		return false
	}
	return accepted.Width == anyWidth || accepted.Width == col.Width
}

func matchesAny(set []dialect.ColumnType, col dialect.ColumnType) bool {
	for _, a := range set {
		if matches(a, col) {
			return true
		}
	}
	return false
}

// Check is the pure compatibility function for non-embedded fields:
// scalars, enums and the well-known timestamp type. Message-typed fields
// follow the embedding policy in the reconciler and never reach here.
func Check(f *proto.Field, col *relation.Column) Verdict {
	switch f.Type.Kind {
	case proto.KindMap:
		return mismatch(TypeMismatch, "map fields have no relational representation")
	case proto.KindGroup:
		return mismatch(TypeMismatch, "group fields are deprecated and unsupported")
	case proto.KindMessage:
		if f.Type.Ref != proto.WellKnownTimestamp {
			return mismatch(TypeMismatch, "message type %s requires an embedding policy", f.Type.Ref)
		}
	}

	set, typeName := acceptedFor(f.Type)

	if f.Cardinality == proto.Repeated {
		if col.Type.Kind != dialect.KindArray {
			return mismatch(CardinalityMismatch,
				"repeated field requires an array column, found %s", col.Type)
		}
		if col.Type.Elem == nil || !matchesAny(set, *col.Type.Elem) {
			return mismatch(TypeMismatch,
				"repeated %s does not accept column type %s", typeName, col.Type)
		}
		return ok()
	}

	if col.Type.Kind == dialect.KindArray {
		return mismatch(CardinalityMismatch,
			"column is an array but field %s is not repeated", f.Name)
	}

	if !matchesAny(set, col.Type) {
		return mismatch(TypeMismatch, "%s does not accept column type %s", typeName, col.Type)
	}

	// Optional tolerates either nullability; a singular field is always
	// present and demands NOT NULL.
	if f.Cardinality == proto.Singular && col.Nullable {
		return mismatch(NullabilityMismatch,
			"column is nullable but field %s is always present", f.Name)
	}
	return ok()
}
