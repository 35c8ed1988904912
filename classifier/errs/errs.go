// Package errs defines the typed error taxonomy shared by the grammar
// compiler, rule catalog, and classification engine. Every kind is a
// distinct Go type implementing error so callers can discriminate with
// errors.As instead of switching on a string tag.
package errs

import "fmt"

// CompileKind enumerates the ways a grammar expression can be rejected.
type CompileKind string

const (
	CompileSyntax     CompileKind = "syntax"
	CompileUnsafe     CompileKind = "unsafe"
	CompileUnsupported CompileKind = "unsupported"
)

// RuleCompileError is returned by the grammar compiler (C1) when a rule
// body cannot be turned into a matcher.
type RuleCompileError struct {
	Kind   CompileKind
	Detail string
}

func (e *RuleCompileError) Error() string {
	return fmt.Sprintf("rule compile error (%s): %s", e.Kind, e.Detail)
}

// RuleResolveError is returned when a func-rule's registration key has no
// entry in the validator table.
type RuleResolveError struct {
	Name   string
	Detail string
}

func (e *RuleResolveError) Error() string {
	return fmt.Sprintf("rule resolve error: %s: %s", e.Name, e.Detail)
}

// RuleValidationError flags a YAML rule definition missing a required
// field or carrying contradictory bounds (e.g. minlen > maxlen).
type RuleValidationError struct {
	RuleID string
	Detail string
}

func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("rule validation error [%s]: %s", e.RuleID, e.Detail)
}

// FileParseError flags a rule path that could not be read, or a rule
// file that failed to parse as YAML or used a disallowed typed tag.
type FileParseError struct {
	File   string
	Detail string
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("file parse error [%s]: %s", e.File, e.Detail)
}

// MatcherRuntimeError records a matcher failing on a single candidate
// value. It never escapes the classification engine: it is absorbed as a
// non-match and surfaced only through the issues side-channel.
type MatcherRuntimeError struct {
	RuleID string
	Detail string
}

func (e *MatcherRuntimeError) Error() string {
	return fmt.Sprintf("matcher runtime error [%s]: %s", e.RuleID, e.Detail)
}

// Cancelled is returned by a scan that observed a tripped cancellation
// signal. No partial ScanReport is returned alongside it.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "scan cancelled" }

// ConfigError is returned synchronously, before a scan begins, when the
// caller supplied an option outside its valid range.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %s", e.Field, e.Detail)
}

// Issue is the serializable projection of any of the above, attached to a
// ScanReport or returned from catalog loading as a side-channel: per-rule
// or per-file problems that do not abort the larger operation.
type Issue struct {
	File   string `json:"file,omitempty"`
	RuleID string `json:"rule_id,omitempty"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// NewIssue builds an Issue from any error produced by this package,
// falling back to a generic "error" kind for anything else.
func NewIssue(file, ruleID string, err error) Issue {
	kind := "error"
	switch err.(type) {
	case *RuleCompileError:
		kind = "rule_compile_error"
	case *RuleResolveError:
		kind = "rule_resolve_error"
	case *RuleValidationError:
		kind = "rule_validation_error"
	case *FileParseError:
		kind = "file_parse_error"
	case *MatcherRuntimeError:
		kind = "matcher_runtime_error"
	}
	return Issue{File: file, RuleID: ruleID, Kind: kind, Detail: err.Error()}
}
