package proto

// Schema is the merged, immutable model of every parsed proto file.
// It is built once per run (Parse -> Merge -> ResolveTypes) and read-only
// afterwards.
type Schema struct {
	// Package is the package of the first file that declared one.
	Package string
	// Imports are recorded verbatim but never resolved; all declarations
	// live in one flattened namespace.
	Imports  []string
	Messages []*Message
	Enums    []*Enum
}

// Syntax is the proto syntax level of a single file.
type Syntax int

const (
	SyntaxProto2 Syntax = iota
	SyntaxProto3
)

func (s Syntax) String() string {
	if s == SyntaxProto3 {
		return "proto3"
	}
	return "proto2"
}

// Cardinality of a field: exactly-one, zero-or-one, or any-number-of.
type Cardinality int

const (
	Singular Cardinality = iota
	Optional
	Repeated
)

func (c Cardinality) String() string {
	switch c {
	case Optional:
		return "optional"
	case Repeated:
		return "repeated"
	default:
		return "singular"
	}
}

// TypeKind discriminates the closed set of field type variants.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindMessage
	KindEnum
	KindMap
	KindGroup
)

// ScalarType is one of the proto scalar keywords.
type ScalarType string

const (
	ScalarInt32    ScalarType = "int32"
	ScalarInt64    ScalarType = "int64"
	ScalarUint32   ScalarType = "uint32"
	ScalarUint64   ScalarType = "uint64"
	ScalarSint32   ScalarType = "sint32"
	ScalarSint64   ScalarType = "sint64"
	ScalarFixed32  ScalarType = "fixed32"
	ScalarFixed64  ScalarType = "fixed64"
	ScalarSfixed32 ScalarType = "sfixed32"
	ScalarSfixed64 ScalarType = "sfixed64"
	ScalarBool     ScalarType = "bool"
	ScalarString   ScalarType = "string"
	ScalarBytes    ScalarType = "bytes"
	ScalarFloat    ScalarType = "float"
	ScalarDouble   ScalarType = "double"
)

// ScalarTypes lists every scalar keyword the parser recognizes, in a fixed
// order. The compatibility matrix must cover all of them.
var ScalarTypes = []ScalarType{
	ScalarInt32, ScalarInt64, ScalarUint32, ScalarUint64,
	ScalarSint32, ScalarSint64, ScalarFixed32, ScalarFixed64,
	ScalarSfixed32, ScalarSfixed64, ScalarBool, ScalarString,
	ScalarBytes, ScalarFloat, ScalarDouble,
}

// Type is a closed tagged variant over the field type kinds. Message and
// enum references are name-keyed indirections resolved against the flat
// registry after all files are merged, never embedded ownership.
type Type struct {
	Kind   TypeKind
	Scalar ScalarType // KindScalar
	Ref    string     // KindMessage / KindEnum: declared reference name
	// Map key/value types (KindMap). Kept for diagnostics only; maps have
	// no relational representation.
	MapKey   *Type
	MapValue *Type
}

func (t Type) String() string {
	switch t.Kind {
	case KindScalar:
		return string(t.Scalar)
	case KindMap:
		return "map<" + t.MapKey.String() + ", " + t.MapValue.String() + ">"
	case KindGroup:
		return "group"
	default:
		return t.Ref
	}
}

// Field is a single field declaration inside a message.
type Field struct {
	Name        string
	Type        Type
	Cardinality Cardinality
	Number      int
	// HasDefault records a [default = ...] option; the value itself is not
	// modeled.
	HasDefault bool
	Deprecated bool
}

// ReservedRange is an inclusive field-number range from a reserved statement.
type ReservedRange struct {
	From, To int
}

// Message is a message declaration, possibly with nested declarations.
type Message struct {
	Name          string
	Fields        []*Field
	Messages      []*Message
	Enums         []*Enum
	ReservedNums  []ReservedRange
	ReservedNames []string
}

// Enum is an enum declaration.
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue is a single label = number pair.
type EnumValue struct {
	Name   string
	Number int
}

// File is the parse result of a single proto file, before merging.
type File struct {
	Name     string
	Syntax   Syntax
	Package  string
	Imports  []string
	Messages []*Message
	Enums    []*Enum
}

// Message returns the top-level message with the given name, or nil.
func (s *Schema) Message(name string) *Message {
	for _, m := range s.Messages {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Enum returns the top-level enum with the given name, or nil.
func (s *Schema) Enum(name string) *Enum {
	for _, e := range s.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Field returns the field with the given name, or nil.
func (m *Message) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
