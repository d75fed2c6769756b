package proto

import "strings"

// Parse parses one proto file into a partial model. References to message
// and enum types are recorded by name only; ResolveTypes checks them after
// all files are merged. Errors are *ParseError carrying line and column.
func Parse(name, src string) (*File, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.bump(); err != nil {
		return nil, tagFile(err, name)
	}
	f := &File{Name: name}
	if err := p.file(f); err != nil {
		return nil, tagFile(err, name)
	}
	return f, nil
}

func tagFile(err error, name string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.File = name
		return pe
	}
	return err
}

var scalarKeywords = func() map[string]ScalarType {
	m := make(map[string]ScalarType, len(ScalarTypes))
	for _, s := range ScalarTypes {
		m[string(s)] = s
	}
	return m
}()

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) bump() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) fail(expected string) error {
	found := p.tok.text
	if p.tok.kind == tokEOF {
		found = "end of input"
	} else if p.tok.kind == tokString {
		found = `"` + found + `"`
	}
	return &ParseError{Line: p.tok.line, Col: p.tok.col, Expected: expected, Found: found}
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *parser) isKeyword(s string) bool {
	return p.tok.kind == tokIdent && p.tok.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.fail("'" + s + "'")
	}
	return p.bump()
}

func (p *parser) expectIdent(what string) (string, error) {
	if p.tok.kind != tokIdent {
		return "", p.fail(what)
	}
	name := p.tok.text
	return name, p.bump()
}

func (p *parser) expectInt(what string) (int, error) {
	if p.tok.kind != tokInt {
		return 0, p.fail(what)
	}
	n := p.tok.num
	return n, p.bump()
}

func (p *parser) file(f *File) error {
	for p.tok.kind != tokEOF {
		switch {
		case p.isKeyword("syntax"):
			if err := p.syntax(f); err != nil {
				return err
			}
		case p.isKeyword("package"):
			if err := p.pkg(f); err != nil {
				return err
			}
		case p.isKeyword("import"):
			if err := p.importDecl(f); err != nil {
				return err
			}
		case p.isKeyword("option"):
			if err := p.skipOption(); err != nil {
				return err
			}
		case p.isKeyword("message"):
			m, err := p.message()
			if err != nil {
				return err
			}
			f.Messages = append(f.Messages, m)
		case p.isKeyword("enum"):
			e, err := p.enum()
			if err != nil {
				return err
			}
			f.Enums = append(f.Enums, e)
		case p.isPunct(";"):
			if err := p.bump(); err != nil {
				return err
			}
		default:
			return p.fail("top-level declaration (message, enum, syntax, package, import or option)")
		}
	}
	return nil
}

func (p *parser) syntax(f *File) error {
	if err := p.bump(); err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if p.tok.kind != tokString {
		return p.fail(`"proto2" or "proto3"`)
	}
	switch p.tok.text {
	case "proto2":
		f.Syntax = SyntaxProto2
	case "proto3":
		f.Syntax = SyntaxProto3
	default:
		return p.fail(`"proto2" or "proto3"`)
	}
	if err := p.bump(); err != nil {
		return err
	}
	return p.expectPunct(";")
}

func (p *parser) pkg(f *File) error {
	if err := p.bump(); err != nil {
		return err
	}
	name, err := p.expectIdent("package name")
	if err != nil {
		return err
	}
	f.Package = name
	return p.expectPunct(";")
}

func (p *parser) importDecl(f *File) error {
	if err := p.bump(); err != nil {
		return err
	}
	// "import public" / "import weak" modifiers
	if p.isKeyword("public") || p.isKeyword("weak") {
		if err := p.bump(); err != nil {
			return err
		}
	}
	if p.tok.kind != tokString {
		return p.fail("import path string")
	}
	f.Imports = append(f.Imports, p.tok.text)
	if err := p.bump(); err != nil {
		return err
	}
	return p.expectPunct(";")
}

// skipOption consumes an option statement through its terminating semicolon.
// Option values are irrelevant to reconciliation.
func (p *parser) skipOption() error {
	for !p.isPunct(";") {
		if p.tok.kind == tokEOF {
			return p.fail("';' terminating option")
		}
		if err := p.bump(); err != nil {
			return err
		}
	}
	return p.bump()
}

func (p *parser) message() (*Message, error) {
	if err := p.bump(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("message name")
	if err != nil {
		return nil, err
	}
	m := &Message{Name: name}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.isPunct("}") {
		switch {
		case p.tok.kind == tokEOF:
			return nil, p.fail("'}' closing message " + name)
		case p.isKeyword("message"):
			nested, err := p.message()
			if err != nil {
				return nil, err
			}
			m.Messages = append(m.Messages, nested)
		case p.isKeyword("enum"):
			nested, err := p.enum()
			if err != nil {
				return nil, err
			}
			m.Enums = append(m.Enums, nested)
		case p.isKeyword("reserved"):
			if err := p.reserved(m); err != nil {
				return nil, err
			}
		case p.isKeyword("option"):
			if err := p.skipOption(); err != nil {
				return nil, err
			}
		case p.isKeyword("oneof"):
			if err := p.oneof(m); err != nil {
				return nil, err
			}
		case p.isPunct(";"):
			if err := p.bump(); err != nil {
				return nil, err
			}
		default:
			line, col := p.tok.line, p.tok.col
			f, err := p.field()
			if err != nil {
				return nil, err
			}
			if m.Field(f.Name) != nil {
				return nil, &ParseError{Line: line, Col: col,
					Expected: "unique field name in message " + name, Found: f.Name}
			}
			m.Fields = append(m.Fields, f)
		}
	}
	if err := p.bump(); err != nil {
		return nil, err
	}
	return m, nil
}

// oneof fields are flattened into the owning message as optional fields:
// at most one of them is present, so each is zero-or-one relationally.
func (p *parser) oneof(m *Message) error {
	if err := p.bump(); err != nil {
		return err
	}
	if _, err := p.expectIdent("oneof name"); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.isPunct("}") {
		if p.tok.kind == tokEOF {
			return p.fail("'}' closing oneof")
		}
		if p.isKeyword("option") {
			if err := p.skipOption(); err != nil {
				return err
			}
			continue
		}
		if p.isPunct(";") {
			if err := p.bump(); err != nil {
				return err
			}
			continue
		}
		f, err := p.field()
		if err != nil {
			return err
		}
		f.Cardinality = Optional
		m.Fields = append(m.Fields, f)
	}
	return p.bump()
}

func (p *parser) reserved(m *Message) error {
	if err := p.bump(); err != nil {
		return err
	}
	if p.tok.kind == tokString {
		for p.tok.kind == tokString {
			m.ReservedNames = append(m.ReservedNames, p.tok.text)
			if err := p.bump(); err != nil {
				return err
			}
			if p.isPunct(",") {
				if err := p.bump(); err != nil {
					return err
				}
			}
		}
		return p.expectPunct(";")
	}
	for {
		from, err := p.expectInt("reserved field number")
		if err != nil {
			return err
		}
		to := from
		if p.isKeyword("to") {
			if err := p.bump(); err != nil {
				return err
			}
			if p.isKeyword("max") {
				to = 536870911 // largest proto field number
				if err := p.bump(); err != nil {
					return err
				}
			} else if to, err = p.expectInt("reserved range end"); err != nil {
				return err
			}
		}
		m.ReservedNums = append(m.ReservedNums, ReservedRange{From: from, To: to})
		if !p.isPunct(",") {
			break
		}
		if err := p.bump(); err != nil {
			return err
		}
	}
	return p.expectPunct(";")
}

func (p *parser) field() (*Field, error) {
	f := &Field{Cardinality: Singular}
	switch {
	case p.isKeyword("optional"):
		f.Cardinality = Optional
		if err := p.bump(); err != nil {
			return nil, err
		}
	case p.isKeyword("repeated"):
		f.Cardinality = Repeated
		if err := p.bump(); err != nil {
			return nil, err
		}
	case p.isKeyword("required"):
		// proto2 required is exactly-one, same as an unmodified proto3 field
		if err := p.bump(); err != nil {
			return nil, err
		}
	}

	typ, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	f.Type = typ

	if typ.Kind == KindGroup {
		// groups carry an inline body instead of a normal declaration tail
		return p.groupTail(f)
	}

	name, err := p.expectIdent("field name")
	if err != nil {
		return nil, err
	}
	f.Name = name
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	if f.Number, err = p.expectInt("field number"); err != nil {
		return nil, err
	}
	if p.isPunct("[") {
		if err := p.fieldOptions(f); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *parser) fieldType() (Type, error) {
	if p.tok.kind != tokIdent {
		return Type{}, p.fail("field type")
	}
	name := p.tok.text
	if s, ok := scalarKeywords[name]; ok {
		return Type{Kind: KindScalar, Scalar: s}, p.bump()
	}
	if name == "map" {
		if err := p.bump(); err != nil {
			return Type{}, err
		}
		if err := p.expectPunct("<"); err != nil {
			return Type{}, err
		}
		key, err := p.fieldType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Type{}, err
		}
		val, err := p.fieldType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expectPunct(">"); err != nil {
			return Type{}, err
		}
		return Type{Kind: KindMap, MapKey: &key, MapValue: &val}, nil
	}
	if name == "group" {
		return Type{Kind: KindGroup}, p.bump()
	}
	// Unresolved reference; KindMessage vs KindEnum is decided by
	// ResolveTypes once the whole input set is known.
	return Type{Kind: KindMessage, Ref: name}, p.bump()
}

// groupTail parses "Name = N { ... }" after a group keyword. The body is
// consumed and discarded: groups are deprecated and have no relational
// mapping, so only the declaration itself is kept for diagnostics.
func (p *parser) groupTail(f *Field) (*Field, error) {
	name, err := p.expectIdent("group name")
	if err != nil {
		return nil, err
	}
	f.Name = lowerFirst(name)
	if err := p.expectPunct("="); err != nil {
		return nil, err
	}
	if f.Number, err = p.expectInt("field number"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	depth := 1
	for depth > 0 {
		if p.tok.kind == tokEOF {
			return nil, p.fail("'}' closing group " + name)
		}
		if p.isPunct("{") {
			depth++
		} else if p.isPunct("}") {
			depth--
		}
		if err := p.bump(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (p *parser) fieldOptions(f *Field) error {
	if err := p.bump(); err != nil { // consume '['
		return err
	}
	for {
		key, err := p.expectIdent("option name")
		if err != nil {
			return err
		}
		if err := p.expectPunct("="); err != nil {
			return err
		}
		// value: one token of any literal kind, or a signed number
		if p.tok.kind != tokIdent && p.tok.kind != tokInt && p.tok.kind != tokFloat && p.tok.kind != tokString {
			return p.fail("option value")
		}
		val := p.tok.text
		if err := p.bump(); err != nil {
			return err
		}
		switch key {
		case "default":
			f.HasDefault = true
		case "deprecated":
			f.Deprecated = strings.EqualFold(val, "true")
		}
		if p.isPunct(",") {
			if err := p.bump(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return p.expectPunct("]")
}

func (p *parser) enum() (*Enum, error) {
	if err := p.bump(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent("enum name")
	if err != nil {
		return nil, err
	}
	e := &Enum{Name: name}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.isPunct("}") {
		switch {
		case p.tok.kind == tokEOF:
			return nil, p.fail("'}' closing enum " + name)
		case p.isKeyword("option"):
			if err := p.skipOption(); err != nil {
				return nil, err
			}
		case p.isPunct(";"):
			if err := p.bump(); err != nil {
				return nil, err
			}
		default:
			line, col := p.tok.line, p.tok.col
			label, err := p.expectIdent("enum value name")
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			num, err := p.expectInt("enum value number")
			if err != nil {
				return nil, err
			}
			if p.isPunct("[") {
				dummy := &Field{}
				if err := p.fieldOptions(dummy); err != nil {
					return nil, err
				}
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			for _, v := range e.Values {
				if v.Number == num {
					return nil, &ParseError{Line: line, Col: col,
						Expected: "unique value in enum " + name, Found: label}
				}
			}
			e.Values = append(e.Values, EnumValue{Name: label, Number: num})
		}
	}
	if err := p.bump(); err != nil {
		return nil, err
	}
	return e, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
