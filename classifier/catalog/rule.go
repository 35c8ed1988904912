package catalog

import (
	"golang.org/x/text/cases"

	"github.com/apicrafter/metacrafter/classifier/grammar"
)

var caseFold = cases.Fold()

// RuleType discriminates whether a rule tests a field's name or its
// sampled values.
type RuleType string

const (
	RuleTypeField RuleType = "field"
	RuleTypeData  RuleType = "data"
)

// MatchKind picks which of the three matcher bodies a rule carries.
type MatchKind string

const (
	MatchText MatchKind = "text"
	MatchPPR  MatchKind = "ppr"
	MatchFunc MatchKind = "func"
)

// body is the tagged variant backing a compiled Rule: exactly one of its
// fields is populated, selected by the owning Rule's MatchKind. This
// mirrors a match over a sum type rather than an inheritance hierarchy.
type body struct {
	tokens  map[string]struct{} // MatchText
	grammar grammar.Matcher     // MatchPPR
	fn      func(string) bool   // MatchFunc
}

func (b body) accepts(s string) bool {
	switch {
	case b.tokens != nil:
		_, ok := b.tokens[lower(s)]
		return ok
	case b.fn != nil:
		return b.fn(s)
	default:
		return b.grammar.MatchEntire(s)
	}
}

// Rule is immutable after Load. Every field mirrors the rule-file schema;
// the matcher fields are the product of compiling RuleBody.
type Rule struct {
	ID      string
	Key     string
	Name    string
	Type    RuleType
	Match   MatchKind
	RuleBody string

	Priority  int
	MinLen    int
	MaxLen    int
	Imprecise bool
	IsPII     bool

	Context      string
	Lang         string
	CountryCodes []string

	FieldRule          string
	FieldRuleMatchKind MatchKind

	ValidatorName string

	File      string
	LoadOrder int

	compiled       body
	fieldCompiled  body
	hasFieldRule   bool
	validator      func(string) bool
	hasValidator   bool
}

// Accepts reports whether candidate s satisfies this rule's primary
// matcher (field-name matcher for a field rule, value matcher for a data
// rule), including the optional validator for data rules.
func (r *Rule) Accepts(s string) bool {
	if !r.compiled.accepts(s) {
		return false
	}
	if r.hasValidator && !r.validator(s) {
		return false
	}
	return true
}

// AcceptsFieldName reports whether this data rule's optional field_rule
// gate accepts the given field name; true with no gate configured.
func (r *Rule) AcceptsFieldName(fieldName string) bool {
	if !r.hasFieldRule {
		return true
	}
	return r.fieldCompiled.accepts(lower(fieldName))
}

// lower case-folds s for matching, using Unicode case folding rather
// than an ASCII-only lowercase so non-Latin field names and catalogs
// loaded with lang/country filters fold consistently.
func lower(s string) string {
	return caseFold.String(s)
}

// Fold exposes the same case folding to callers outside the package,
// such as the engine's field-name pass, which must fold a field name
// once before testing it against rules of any match kind.
func Fold(s string) string {
	return lower(s)
}
