package proto

import "fmt"

// WellKnownTimestamp is the one well-known message type the reconciler
// understands without a local declaration; it maps to timestamp columns.
const WellKnownTimestamp = "google.protobuf.Timestamp"

// DuplicateMessageError reports the same top-level message name declared in
// two files of the input set.
type DuplicateMessageError struct {
	Name       string
	FirstFile  string
	SecondFile string
}

func (e *DuplicateMessageError) Error() string {
	return fmt.Sprintf("message %q declared in both %s and %s", e.Name, e.FirstFile, e.SecondFile)
}

// UnresolvedTypeError reports a field referencing a type no file declares.
type UnresolvedTypeError struct {
	Message string
	Field   string
	Ref     string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("field %s.%s references undeclared type %q", e.Message, e.Field, e.Ref)
}

// Merge concatenates per-file parse results into one flat schema, in input
// order, then resolves every type reference. Files must all be supplied in
// one call so the duplicate check sees the whole set.
func Merge(files ...*File) (*Schema, error) {
	s := &Schema{}
	owner := make(map[string]string)
	for _, f := range files {
		if s.Package == "" {
			s.Package = f.Package
		}
		s.Imports = append(s.Imports, f.Imports...)
		for _, m := range f.Messages {
			if first, ok := owner[m.Name]; ok {
				return nil, &DuplicateMessageError{Name: m.Name, FirstFile: first, SecondFile: f.Name}
			}
			owner[m.Name] = f.Name
			s.Messages = append(s.Messages, m)
		}
		s.Enums = append(s.Enums, f.Enums...)
	}
	if err := ResolveTypes(s); err != nil {
		return nil, err
	}
	return s, nil
}

// registry is the flat name index used for second-pass reference
// resolution. Nested declarations register under both their simple name and
// their Outer.Inner qualified name.
type registry struct {
	messages map[string]*Message
	enums    map[string]*Enum
}

func buildRegistry(s *Schema) *registry {
	r := &registry{messages: map[string]*Message{}, enums: map[string]*Enum{}}
	for _, m := range s.Messages {
		r.addMessage("", m)
	}
	for _, e := range s.Enums {
		r.enums[e.Name] = e
	}
	return r
}

func (r *registry) addMessage(prefix string, m *Message) {
	r.messages[m.Name] = m
	if prefix != "" {
		r.messages[prefix+"."+m.Name] = m
	}
	for _, nested := range m.Messages {
		r.addMessage(qualify(prefix, m.Name), nested)
	}
	for _, e := range m.Enums {
		r.enums[e.Name] = e
		r.enums[qualify(prefix, m.Name)+"."+e.Name] = e
	}
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// ResolveTypes walks every field of the schema and settles each name-keyed
// reference as a message or enum reference, failing on the first reference
// with no declaration anywhere in the set. The well-known Timestamp type
// resolves without a declaration.
func ResolveTypes(s *Schema) error {
	r := buildRegistry(s)
	for _, m := range s.Messages {
		if err := resolveMessage(r, m); err != nil {
			return err
		}
	}
	return nil
}

func resolveMessage(r *registry, m *Message) error {
	for _, f := range m.Fields {
		if err := resolveType(r, m, f, &f.Type); err != nil {
			return err
		}
	}
	for _, nested := range m.Messages {
		if err := resolveMessage(r, nested); err != nil {
			return err
		}
	}
	return nil
}

func resolveType(r *registry, m *Message, f *Field, t *Type) error {
	switch t.Kind {
	case KindMap:
		if err := resolveType(r, m, f, t.MapKey); err != nil {
			return err
		}
		return resolveType(r, m, f, t.MapValue)
	case KindMessage:
		if t.Ref == WellKnownTimestamp {
			return nil
		}
		if _, ok := r.messages[t.Ref]; ok {
			return nil
		}
		if _, ok := r.enums[t.Ref]; ok {
			t.Kind = KindEnum
			return nil
		}
		return &UnresolvedTypeError{Message: m.Name, Field: f.Name, Ref: t.Ref}
	default:
		return nil
	}
}

// LookupMessage resolves a message reference against the schema, including
// nested and qualified names.
func (s *Schema) LookupMessage(ref string) *Message {
	return buildRegistry(s).messages[ref]
}

// LookupEnum resolves an enum reference against the schema.
func (s *Schema) LookupEnum(ref string) *Enum {
	return buildRegistry(s).enums[ref]
}
