// Package analyzer computes per-field statistical summaries over a
// bounded sample of records: type inference, length statistics,
// dictionary detection, and emptiness tracking.
package analyzer

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/apicrafter/metacrafter/classifier/dateparser"
	"github.com/apicrafter/metacrafter/classifier/model"
)

// FieldType is the inferred primitive shape of a field's values.
type FieldType string

const (
	TypeStr   FieldType = "str"
	TypeInt   FieldType = "int"
	TypeFloat FieldType = "float"
	TypeBool  FieldType = "bool"
	TypeDate  FieldType = "date"
	TypeOther FieldType = "other"
)

// Options controls sampling and derived-statistic thresholds.
type Options struct {
	Limit       int                 // max rows sampled; 0 means use DefaultLimit
	DictShare   float64             // percentage threshold for dictionary detection; 0 means DefaultDictShare
	EmptyValues map[string]struct{} // extra tokens treated as empty, beyond null/""
	ExceptEmpty bool                // exclude empties from confidence denominators downstream
	DateParser  dateparser.MatchDate
	DictCap     int // max distinct values retained per dictionary field; 0 means DefaultDictCap
}

const (
	DefaultLimit    = 1000
	DefaultDictShare = 10.0
	DefaultDictCap  = 256
)

// DefaultEmptyTokens mirrors the tokens an upstream reader commonly
// emits for missing data beyond null and the empty string.
func DefaultEmptyTokens() map[string]struct{} {
	return map[string]struct{}{"None": {}, "NaN": {}, "-": {}, "N/A": {}}
}

// FieldStat is the statistical summary produced for one field over the
// sample it was computed from.
type FieldStat struct {
	Field         string
	FType         FieldType
	SampleSize    int
	NonEmptyCount int
	UniqueCount   int
	MinLen        int
	MaxLen        int
	AvgLen        float64
	LenStdDev     float64
	HasDigit      bool
	HasAlpha      bool
	HasSpecial    bool
	IsDictionary  bool
	Dictionary    []string

	// Values holds the string form of every sampled value, in sample
	// order, for C4's data-rule pass to reuse without re-reading the
	// source. Empty values are included; filtering is the caller's job.
	Values []string
}

type fieldAcc struct {
	stat FieldStat

	typeSet   bool
	candidate FieldType

	lenSum   int64
	lenCount int64
	lens     []float64

	seen map[string]struct{}
	dict map[string]struct{}
}

// Analyze walks src until it is exhausted or opts.Limit rows have been
// consumed, producing one FieldStat per field observed, in the order
// those fields first appeared.
func Analyze(src model.Source, opts Options) []FieldStat {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	dictShare := opts.DictShare
	if dictShare <= 0 {
		dictShare = DefaultDictShare
	}
	dictCap := opts.DictCap
	if dictCap <= 0 {
		dictCap = DefaultDictCap
	}

	order := make([]string, 0, 16)
	accs := make(map[string]*fieldAcc, 16)

	rows := 0
	for rows < limit {
		rec, ok := src.Next()
		if !ok {
			break
		}
		rows++
		for _, field := range rec.Fields() {
			acc, ok := accs[field]
			if !ok {
				acc = &fieldAcc{
					stat: FieldStat{Field: field},
					seen: make(map[string]struct{}),
					dict: make(map[string]struct{}),
				}
				accs[field] = acc
				order = append(order, field)
			}
			observe(acc, rec.Get(field), opts, dictCap)
		}
	}

	out := make([]FieldStat, 0, len(order))
	for _, field := range order {
		acc := accs[field]
		finalize(acc, dictShare)
		out = append(out, acc.stat)
	}
	return out
}

func observe(acc *fieldAcc, v model.Value, opts Options, dictCap int) {
	acc.stat.SampleSize++
	s := v.Str()
	acc.stat.Values = append(acc.stat.Values, s)

	if v.IsEmptyToken(opts.EmptyValues) {
		return
	}
	acc.stat.NonEmptyCount++

	acc.lenSum += int64(len(s))
	acc.lenCount++
	acc.lens = append(acc.lens, float64(len(s)))
	if acc.stat.NonEmptyCount == 1 || len(s) < acc.stat.MinLen {
		acc.stat.MinLen = len(s)
	}
	if len(s) > acc.stat.MaxLen {
		acc.stat.MaxLen = len(s)
	}

	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			acc.stat.HasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			acc.stat.HasAlpha = true
		default:
			acc.stat.HasSpecial = true
		}
	}

	if _, ok := acc.seen[s]; !ok {
		acc.seen[s] = struct{}{}
		if len(acc.dict) < dictCap {
			acc.dict[s] = struct{}{}
		}
	}

	inferType(acc, v, s, opts.DateParser)
}

func inferType(acc *fieldAcc, v model.Value, s string, dp dateparser.MatchDate) {
	ft := classifyValue(v, s, dp)
	if !acc.typeSet {
		acc.candidate = ft
		acc.typeSet = true
		return
	}
	if acc.candidate != ft {
		acc.candidate = TypeStr
	}
}

func classifyValue(v model.Value, s string, dp dateparser.MatchDate) FieldType {
	switch v.Kind() {
	case model.KindInt:
		return TypeInt
	case model.KindFloat:
		return TypeFloat
	case model.KindBool:
		return TypeBool
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypeInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return TypeFloat
	}
	if isBoolToken(s) {
		return TypeBool
	}
	if dp != nil {
		if _, ok := dp.Match(s); ok {
			return TypeDate
		}
	}
	return TypeStr
}

func isBoolToken(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "0", "1":
		return true
	}
	return false
}

func finalize(acc *fieldAcc, dictShare float64) {
	acc.stat.UniqueCount = len(acc.seen)
	if acc.lenCount > 0 {
		acc.stat.AvgLen = float64(acc.lenSum) / float64(acc.lenCount)
	}
	if len(acc.lens) > 1 {
		_, variance := stat.MeanVariance(acc.lens, nil)
		acc.stat.LenStdDev = math.Sqrt(variance)
	}
	if acc.typeSet {
		acc.stat.FType = acc.candidate
	} else {
		acc.stat.FType = TypeStr
	}
	if acc.stat.NonEmptyCount > 0 {
		ratio := float64(acc.stat.UniqueCount) / float64(acc.stat.NonEmptyCount) * 100
		if ratio <= dictShare {
			acc.stat.IsDictionary = true
			dict := make([]string, 0, len(acc.dict))
			for v := range acc.dict {
				dict = append(dict, v)
			}
			acc.stat.Dictionary = dict
		}
	}
}
