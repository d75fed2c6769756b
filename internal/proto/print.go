package proto

import (
	"fmt"
	"strings"
)

// Print renders the schema back to proto source. Re-parsing the output
// yields a structurally identical model: declaration order, field numbers
// and cardinalities are preserved. Field options and group bodies are not
// modeled and are not printed.
func Print(s *Schema) string {
	var b strings.Builder
	b.WriteString("syntax = \"proto3\";\n")
	if s.Package != "" {
		fmt.Fprintf(&b, "package %s;\n", s.Package)
	}
	for _, imp := range s.Imports {
		fmt.Fprintf(&b, "import %q;\n", imp)
	}
	for _, e := range s.Enums {
		b.WriteString("\n")
		printEnum(&b, e, "")
	}
	for _, m := range s.Messages {
		b.WriteString("\n")
		printMessage(&b, m, "")
	}
	return b.String()
}

func printMessage(b *strings.Builder, m *Message, indent string) {
	fmt.Fprintf(b, "%smessage %s {\n", indent, m.Name)
	inner := indent + "  "
	for _, r := range m.ReservedNums {
		if r.From == r.To {
			fmt.Fprintf(b, "%sreserved %d;\n", inner, r.From)
		} else {
			fmt.Fprintf(b, "%sreserved %d to %d;\n", inner, r.From, r.To)
		}
	}
	for _, name := range m.ReservedNames {
		fmt.Fprintf(b, "%sreserved %q;\n", inner, name)
	}
	for _, e := range m.Enums {
		printEnum(b, e, inner)
	}
	for _, nested := range m.Messages {
		printMessage(b, nested, inner)
	}
	for _, f := range m.Fields {
		printField(b, f, inner)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func printField(b *strings.Builder, f *Field, indent string) {
	mod := ""
	switch f.Cardinality {
	case Optional:
		mod = "optional "
	case Repeated:
		mod = "repeated "
	}
	fmt.Fprintf(b, "%s%s%s %s = %d;\n", indent, mod, f.Type.String(), f.Name, f.Number)
}

func printEnum(b *strings.Builder, e *Enum, indent string) {
	fmt.Fprintf(b, "%senum %s {\n", indent, e.Name)
	for _, v := range e.Values {
		fmt.Fprintf(b, "%s  %s = %d;\n", indent, v.Name, v.Number)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}
