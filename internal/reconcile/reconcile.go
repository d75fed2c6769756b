// Package reconcile cross-references a parsed proto schema with an
// introspected relation model and produces the validation report. The walk
// is deterministic: it follows IDL declaration order everywhere and never
// depends on relation-model row order.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"protovet/internal/compat"
	"protovet/internal/dialect"
	"protovet/internal/naming"
	"protovet/internal/proto"
	"protovet/internal/relation"
)

// EmbeddingPolicy selects how message-typed fields map onto the relation
// model.
type EmbeddingPolicy int

const (
	// ForeignKey expects a reference column (field_id) and reconciles the
	// referenced message against its own table.
	ForeignKey EmbeddingPolicy = iota
	// InlinePrefixed expects the referenced message's fields flattened into
	// the owning table as prefixed columns (field_subfield).
	InlinePrefixed
)

// ParseEmbeddingPolicy maps a config string onto a policy; unknown values
// fall back to the default.
func ParseEmbeddingPolicy(s string) EmbeddingPolicy {
	if strings.ToLower(strings.TrimSpace(s)) == "inline_prefixed" {
		return InlinePrefixed
	}
	return ForeignKey
}

// Options are the reconciliation knobs from configuration.
type Options struct {
	ReportExtraColumns bool
	EmbeddingPolicy    EmbeddingPolicy
	CaseSensitive      bool
}

// fkAccepted are the column types a foreign-key reference column may have.
var fkAccepted = []dialect.ColumnType{
	{Kind: dialect.KindInteger},
	{Kind: dialect.KindUUID},
}

type run struct {
	schema   *proto.Schema
	model    *relation.Model
	resolver naming.Resolver
	opts     Options
	report   *Report

	// nested messages referenced through foreign keys, reconciled after
	// the top-level pass in first-reference order
	queue   []*proto.Message
	visited map[string]bool

	// message refs on the current inline-embedding path; a repeated ref is
	// a cycle and cannot be flattened into columns
	inline map[string]bool
}

// Reconcile walks every top-level message in declaration order and emits
// the ordered validation report. Identical inputs produce identical
// reports regardless of relation-model row order.
func Reconcile(s *proto.Schema, m *relation.Model, r naming.Resolver, opts Options) *Report {
	rn := &run{
		schema:   s,
		model:    m,
		resolver: r,
		opts:     opts,
		report:   &Report{},
		visited:  make(map[string]bool),
		inline:   make(map[string]bool),
	}
	// field numbers are validated up front so nested and inlined messages
	// are covered no matter how the walk reaches them
	for _, msg := range s.Messages {
		rn.numberCheck(msg)
	}
	for _, msg := range s.Messages {
		rn.visited[msg.Name] = true
	}
	for _, msg := range s.Messages {
		rn.message(msg)
	}
	for len(rn.queue) > 0 {
		msg := rn.queue[0]
		rn.queue = rn.queue[1:]
		rn.message(msg)
	}
	return rn.report
}

func (rn *run) message(msg *proto.Message) {
	table := rn.findTable(msg.Name)
	if table == nil {
		rn.report.add(Issue{
			Kind:    MissingTable,
			Message: msg.Name,
			Table:   firstCandidate(rn.resolver.TableCandidates(msg.Name)),
			Detail:  fmt.Sprintf("no table found for message %s (tried %s)", msg.Name, joinCandidates(rn.resolver.TableCandidates(msg.Name))),
		})
		return
	}

	claimed := make(map[string]bool, len(table.Columns))
	// the message itself anchors the inline path: a field chain that leads
	// back to it is a cycle
	rn.inline[msg.Name] = true
	for _, f := range msg.Fields {
		rn.field(msg, f, table, "", claimed)
	}
	delete(rn.inline, msg.Name)

	if rn.opts.ReportExtraColumns {
		// sorted by column name: catalog row order is not stable across
		// query executions and must not leak into the report
		extras := make([]*relation.Column, 0, len(table.Columns))
		for _, col := range table.Columns {
			if !claimed[strings.ToLower(col.Name)] {
				extras = append(extras, col)
			}
		}
		sort.Slice(extras, func(i, j int) bool { return extras[i].Name < extras[j].Name })
		for _, col := range extras {
			rn.report.add(Issue{
				Kind:    ExtraColumn,
				Message: msg.Name,
				Table:   table.Name,
				Column:  col.Name,
				Detail: fmt.Sprintf("column %s (%s, nullable=%t, default=%t) has no corresponding field",
					col.Name, col.Type, col.Nullable, col.HasDefault),
			})
		}
	}
}

// numberCheck enforces the field-number uniqueness invariant the parser
// deliberately leaves to reconciliation, recursing into nested
// declarations.
func (rn *run) numberCheck(msg *proto.Message) {
	seen := make(map[int]string, len(msg.Fields))
	for _, f := range msg.Fields {
		if first, dup := seen[f.Number]; dup {
			rn.report.add(Issue{
				Kind:    DuplicateFieldNumber,
				Message: msg.Name,
				Field:   f.Name,
				Detail:  fmt.Sprintf("field number %d already used by field %s", f.Number, first),
			})
			continue
		}
		seen[f.Number] = f.Name
	}
	for _, nested := range msg.Messages {
		rn.numberCheck(nested)
	}
}

// field checks one field against the table. prefix carries the inline
// embedding column prefix and is empty for direct fields.
func (rn *run) field(msg *proto.Message, f *proto.Field, table *relation.Table, prefix string, claimed map[string]bool) {
	if f.Type.Kind == proto.KindMessage && f.Type.Ref != proto.WellKnownTimestamp {
		rn.embedded(msg, f, table, prefix, claimed)
		return
	}

	candidates := prefixed(prefix, rn.resolver.ColumnCandidates(msg.Name, f.Name))
	col := rn.findColumn(table, candidates)
	if col == nil {
		rn.report.add(Issue{
			Kind:    MissingColumn,
			Message: msg.Name,
			Table:   table.Name,
			Field:   f.Name,
			Column:  firstCandidate(candidates),
			Detail:  fmt.Sprintf("no column found for field %s.%s (tried %s)", msg.Name, f.Name, joinCandidates(candidates)),
		})
		return
	}
	claimed[strings.ToLower(col.Name)] = true

	if v := compat.Check(f, col); v.Kind != compat.Compatible {
		rn.report.add(Issue{
			Kind:    verdictKind(v.Kind),
			Message: msg.Name,
			Table:   table.Name,
			Field:   f.Name,
			Column:  col.Name,
			Detail:  v.Detail,
		})
	}
}

// embedded applies the configured embedding policy to a message-typed
// field.
func (rn *run) embedded(msg *proto.Message, f *proto.Field, table *relation.Table, prefix string, claimed map[string]bool) {
	if f.Cardinality == proto.Repeated {
		rn.report.add(Issue{
			Kind:    TypeMismatch,
			Message: msg.Name,
			Table:   table.Name,
			Field:   f.Name,
			Detail:  fmt.Sprintf("repeated message field %s has no single-table representation", f.Name),
		})
		return
	}

	switch rn.opts.EmbeddingPolicy {
	case InlinePrefixed:
		ref := rn.schema.LookupMessage(f.Type.Ref)
		if ref == nil {
			// resolved earlier; only the well-known types lack a declaration
			rn.report.add(Issue{
				Kind:    TypeMismatch,
				Message: msg.Name,
				Table:   table.Name,
				Field:   f.Name,
				Detail:  fmt.Sprintf("message type %s cannot be inlined", f.Type.Ref),
			})
			return
		}
		if rn.inline[ref.Name] {
			rn.report.add(Issue{
				Kind:    TypeMismatch,
				Message: msg.Name,
				Table:   table.Name,
				Field:   f.Name,
				Detail:  fmt.Sprintf("recursive reference to %s cannot be inlined", ref.Name),
			})
			return
		}
		rn.inline[ref.Name] = true
		sub := prefix + naming.SnakeCase(f.Name) + "_"
		for _, g := range ref.Fields {
			eff := *g
			if f.Cardinality == proto.Optional && eff.Cardinality == proto.Singular {
				// an absent embedded message leaves all its columns NULL
				eff.Cardinality = proto.Optional
			}
			rn.field(ref, &eff, table, sub, claimed)
		}
		delete(rn.inline, ref.Name)

	default: // ForeignKey
		candidates := prefixed(prefix, rn.resolver.ForeignKeyCandidates(msg.Name, f.Name))
		col := rn.findColumn(table, candidates)
		if col == nil {
			rn.report.add(Issue{
				Kind:    MissingColumn,
				Message: msg.Name,
				Table:   table.Name,
				Field:   f.Name,
				Column:  firstCandidate(candidates),
				Detail:  fmt.Sprintf("no reference column found for field %s.%s (tried %s)", msg.Name, f.Name, joinCandidates(candidates)),
			})
			return
		}
		claimed[strings.ToLower(col.Name)] = true

		if !matchesAny(fkAccepted, col.Type) {
			rn.report.add(Issue{
				Kind:    TypeMismatch,
				Message: msg.Name,
				Table:   table.Name,
				Field:   f.Name,
				Column:  col.Name,
				Detail:  fmt.Sprintf("reference column for %s must be integer or uuid, found %s", f.Type.Ref, col.Type),
			})
		} else if f.Cardinality == proto.Singular && col.Nullable {
			rn.report.add(Issue{
				Kind:    NullabilityMismatch,
				Message: msg.Name,
				Table:   table.Name,
				Field:   f.Name,
				Column:  col.Name,
				Detail:  fmt.Sprintf("column is nullable but field %s is always present", f.Name),
			})
		}

		// the referenced message reconciles against its own table; nested
		// declarations are queued since the top-level pass never sees them
		if ref := rn.schema.LookupMessage(f.Type.Ref); ref != nil && !rn.visited[ref.Name] {
			rn.visited[ref.Name] = true
			rn.queue = append(rn.queue, ref)
		}
	}
}

func (rn *run) findTable(message string) *relation.Table {
	for _, cand := range rn.resolver.TableCandidates(message) {
		if t := rn.model.FindTable(cand, rn.opts.CaseSensitive); t != nil {
			return t
		}
	}
	return nil
}

func (rn *run) findColumn(table *relation.Table, candidates []string) *relation.Column {
	for _, cand := range candidates {
		if c := table.FindColumn(cand, rn.opts.CaseSensitive); c != nil {
			return c
		}
	}
	return nil
}

func verdictKind(k compat.VerdictKind) IssueKind {
	switch k {
	case compat.NullabilityMismatch:
		return NullabilityMismatch
	case compat.CardinalityMismatch:
		return CardinalityMismatch
	default:
		return TypeMismatch
	}
}

func matchesAny(set []dialect.ColumnType, col dialect.ColumnType) bool {
	for _, a := range set {
		if a.Kind == col.Kind && (a.Width == 0 || a.Width == col.Width) {
			return true
		}
	}
	return false
}

func prefixed(prefix string, names []string) []string {
	if prefix == "" {
		return names
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

func firstCandidate(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func joinCandidates(names []string) string {
	if len(names) == 0 {
		return "no candidates"
	}
	return strings.Join(names, ", ")
}
