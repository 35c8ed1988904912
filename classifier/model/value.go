// Package model defines the small value sum-type and record shape the
// classifier core operates on, independent of any particular record
// source (file, SQL table, or message stream).
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the primitive shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// Value is the sum type every field value is normalized to before it
// reaches the analyzer or the classification engine. Scalars arriving
// from JSON, SQL rows, or message payloads are converted to a Value at
// the record-source boundary; the core never carries interface{} past
// that point.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

func Null() Value             { return Value{kind: KindNull} }
func Int(v int64) Value       { return Value{kind: KindInt, i: v} }
func Float(v float64) Value   { return Value{kind: KindFloat, f: v} }
func Bool(v bool) Value       { return Value{kind: KindBool, b: v} }
func String(v string) Value   { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// String form used for matching: every rule body, text token set, and
// grammar matcher operates on this normalized string representation.
func (v Value) Str() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return v.s
	}
}

// FromAny converts a loosely-typed scalar (as decoded from JSON, a SQL
// driver, or a message payload) into a Value. Unrecognized types are
// stringified via fmt.Sprintf, matching the fallback every adapter in
// this module uses when it doesn't know a type ahead of time.
func FromAny(a any) Value {
	switch v := a.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// IsEmptyToken reports whether the string form of v should be treated as
// empty given a set of caller-configured empty tokens (beyond null and
// the empty string itself).
func (v Value) IsEmptyToken(emptyTokens map[string]struct{}) bool {
	if v.IsNull() {
		return true
	}
	s := v.Str()
	if strings.TrimSpace(s) == "" {
		return true
	}
	if emptyTokens == nil {
		return false
	}
	_, ok := emptyTokens[s]
	return ok
}
