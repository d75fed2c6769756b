// Package naming maps IDL message and field names onto the table and
// column names a database would use for them. Resolvers only compute
// candidates; whether a candidate exists is the reconciler's business.
package naming

import "strings"

// Convention selects how relation names are derived from IDL names.
type Convention int

const (
	// SnakePlural expects tables named after the pluralized snake_case
	// message name (message User -> table users). The default.
	SnakePlural Convention = iota
	// SnakeSingular expects tables named after the snake_case message name
	// without pluralization.
	SnakeSingular
	// Explicit expects every message to be mapped through an override;
	// messages without one yield no candidates.
	Explicit
)

// ParseConvention maps a config string onto a Convention; unknown values
// fall back to the default.
func ParseConvention(s string) Convention {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snake_singular":
		return SnakeSingular
	case "explicit":
		return Explicit
	default:
		return SnakePlural
	}
}

// Resolver computes the ordered list of relation names that would satisfy
// an IDL name. Implementations are pure; candidates are recomputed per
// lookup and never cached.
type Resolver interface {
	// TableCandidates lists table names acceptable for a message.
	TableCandidates(message string) []string
	// ColumnCandidates lists column names acceptable for a field of the
	// given message.
	ColumnCandidates(message, field string) []string
	// ForeignKeyCandidates lists column names acceptable for a
	// message-typed field under the foreign-key embedding policy.
	ForeignKeyCandidates(message, field string) []string
}

// ConventionResolver derives names from a Convention plus per-name
// overrides. Override keys may be plain ("User", "email") or qualified
// ("User.email"); qualified keys win.
type ConventionResolver struct {
	Convention Convention
	Overrides  map[string]string
}

// NewResolver builds a resolver. Override keys are matched
// case-insensitively: config formats (viper among them) case-fold map keys.
func NewResolver(c Convention, overrides map[string]string) *ConventionResolver {
	folded := make(map[string]string, len(overrides))
	for k, v := range overrides {
		folded[strings.ToLower(k)] = v
	}
	return &ConventionResolver{Convention: c, Overrides: folded}
}

var _ Resolver = (*ConventionResolver)(nil)

func (r *ConventionResolver) override(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := r.Overrides[strings.ToLower(k)]; ok {
			return v, true
		}
	}
	return "", false
}

func (r *ConventionResolver) TableCandidates(message string) []string {
	if v, ok := r.override(message); ok {
		return []string{v}
	}
	snake := SnakeCase(message)
	switch r.Convention {
	case SnakeSingular:
		return []string{snake}
	case Explicit:
		return nil
	default:
		// pluralized name first, bare snake name as a second chance
		return dedupe([]string{Pluralize(snake), snake})
	}
}

func (r *ConventionResolver) ColumnCandidates(message, field string) []string {
	if v, ok := r.override(message+"."+field, field); ok {
		return []string{v}
	}
	if r.Convention == Explicit {
		return nil
	}
	return []string{SnakeCase(field)}
}

func (r *ConventionResolver) ForeignKeyCandidates(message, field string) []string {
	if v, ok := r.override(message+"."+field, field); ok {
		return []string{v}
	}
	if r.Convention == Explicit {
		return nil
	}
	snake := SnakeCase(field)
	return []string{snake + "_id", snake}
}

func dedupe(names []string) []string {
	out := names[:0]
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// SnakeCase converts CamelCase or mixedCase to lower_snake_case. Runs of
// capitals stay together: HTTPServer -> http_server.
func SnakeCase(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && isLowerOrDigit(rs[i-1])
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if i > 0 && rs[i-1] != '_' && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLowerOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// irregular plurals the simple suffix rules would get wrong; anything else
// belongs in naming overrides.
var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"mouse":  "mice",
	"foot":   "feet",
	"tooth":  "teeth",
	"goose":  "geese",
	"datum":  "data",
}

// Pluralize applies simple English suffix rules to the last word of a
// snake_case name.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	head, word := "", s
	if i := strings.LastIndex(s, "_"); i >= 0 {
		head, word = s[:i+1], s[i+1:]
	}
	if p, ok := irregularPlurals[word]; ok {
		return head + p
	}
	switch {
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"),
		strings.HasSuffix(word, "z"), strings.HasSuffix(word, "ch"),
		strings.HasSuffix(word, "sh"):
		return head + word + "es"
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(word[len(word)-2]):
		return head + word[:len(word)-1] + "ies"
	default:
		return head + word + "s"
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
