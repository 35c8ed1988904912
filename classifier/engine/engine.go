// Package engine is the classification engine (C4): it composes a rule
// catalog's selected view with field statistics and the sampled values
// behind them to produce a ScanReport.
package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/dateparser"
	"github.com/apicrafter/metacrafter/classifier/errs"
	"github.com/apicrafter/metacrafter/metrics"
)

// Options are the caller-supplied knobs for one Classify call.
type Options struct {
	ConfidenceThreshold float64 // default 5.0
	StopOnMatch         bool
	ParseDates          bool // default true
	IgnoreImprecise     bool // default true
	ExceptEmpty         bool // default true
	Fields              map[string]struct{} // optional allow-list; nil means all fields

	EmptyValues map[string]struct{}
	DateParser  dateparser.MatchDate
}

const DefaultConfidenceThreshold = 5.0

// degradeErrorRatio is the fraction of runtime errors on evaluated
// candidates past which a rule is skipped for the remainder of a field's
// sample, per the degraded-rule policy.
const degradeErrorRatio = 0.5

func (o Options) validate() error {
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 100 {
		return &errs.ConfigError{Field: "confidence_threshold", Detail: "must be within [0, 100]"}
	}
	return nil
}

// Classify evaluates view against stats (the output of analyzer.Analyze
// over the same record sample) and returns the assembled report, or a
// single top-level error (ConfigError or Cancelled).
func Classify(ctx context.Context, view catalog.RuleView, stats []analyzer.FieldStat, opts Options) (*ScanReport, error) {
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	report := &ScanReport{}

	for _, stat := range stats {
		if err := ctx.Err(); err != nil {
			return nil, &errs.Cancelled{}
		}
		if opts.Fields != nil {
			if _, ok := opts.Fields[stat.Field]; !ok {
				continue
			}
		}

		degraded := make(map[string]bool)
		col, issues, touchesPII := classifyField(ctx, stat, view, opts, degraded)
		report.Issues = append(report.Issues, issues...)
		report.Data = append(report.Data, col)
		report.Results = append(report.Results, buildResultRow(col))

		if touchesPII && stat.IsDictionary {
			stat.Dictionary = redactDictionary(stat.Dictionary)
		}
		report.Stats = append(report.Stats, stat)
	}
	if err := ctx.Err(); err != nil {
		return nil, &errs.Cancelled{}
	}
	return report, nil
}

type scoredMatch struct {
	result   MatchResult
	priority int
}

func classifyField(ctx context.Context, stat analyzer.FieldStat, view catalog.RuleView, opts Options, degraded map[string]bool) (ColumnReport, []errs.Issue, bool) {
	var issues []errs.Issue
	var scored []scoredMatch
	touchesPII := false

	lowerField := catalog.Fold(stat.Field)

	// Field-name pass: a passing rule is always reported at 100% confidence.
	for _, rule := range view.FieldRules() {
		if ctx.Err() != nil {
			break
		}
		if safeAccepts(rule, lowerField, degraded, &issues) {
			scored = append(scored, scoredMatch{
				result:   MatchResult{RuleID: rule.ID, Key: rule.Key, RuleType: "field", ConfidencePct: 100.0},
				priority: rule.Priority,
			})
			metrics.ObserveMatch(rule.Key)
			if rule.IsPII {
				touchesPII = true
			}
		}
	}

	// Data-value pass.
	for _, rule := range view.DataRules() {
		if ctx.Err() != nil {
			break
		}
		if !rule.AcceptsFieldName(stat.Field) {
			continue
		}
		if degraded[rule.ID] {
			continue
		}

		hits, considered, errCount := 0, 0, 0
		for _, val := range stat.Values {
			if isEmptyStr(val, opts) {
				continue
			}
			if len(val) < rule.MinLen || (rule.MaxLen > 0 && len(val) > rule.MaxLen) {
				continue
			}
			considered++
			ok, errored := evalSafely(rule, val)
			if errored {
				errCount++
				if considered >= 4 && errCount*2 > considered {
					degraded[rule.ID] = true
					issues = append(issues, errs.NewIssue("", rule.ID, &errs.MatcherRuntimeError{RuleID: rule.ID, Detail: "error rate exceeded degraded-rule threshold"}))
					break
				}
				continue
			}
			if ok {
				hits++
			}
		}

		if considered == 0 {
			continue
		}
		confidence := 100.0 * float64(hits) / float64(considered)
		if confidence >= opts.ConfidenceThreshold {
			scored = append(scored, scoredMatch{
				result:   MatchResult{RuleID: rule.ID, Key: rule.Key, RuleType: "data", ConfidencePct: confidence},
				priority: rule.Priority,
			})
			metrics.ObserveMatch(rule.Key)
			if rule.IsPII {
				touchesPII = true
			}
			if opts.StopOnMatch {
				break
			}
		}
	}

	// Date pass.
	if opts.ParseDates && opts.DateParser != nil {
		scored = append(scored, datePassMatches(stat, opts)...)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].priority != scored[j].priority {
			return scored[i].priority > scored[j].priority
		}
		return scored[i].result.ConfidencePct > scored[j].result.ConfidencePct
	})

	matches := make([]MatchResult, 0, len(scored))
	for _, s := range scored {
		matches = append(matches, s.result)
	}

	tags := deriveTags(stat)
	col := ColumnReport{
		Field:   stat.Field,
		FType:   string(stat.FType),
		Tags:    tags,
		Matches: matches,
	}
	if len(matches) > 0 {
		col.DatatypeURL = datatypeURL(matches[0].Key)
	}
	return col, issues, touchesPII
}

// datatypeURLFormat mirrors the registry lookup URL the original
// classifier resolves a matched data class to, so a ScanReport's
// datatype_url points somewhere a caller can actually look the type up.
const datatypeURLFormat = "https://registry.apicrafter.io/datatype/%s"

func datatypeURL(key string) string {
	return fmt.Sprintf(datatypeURLFormat, key)
}

// redactDictionary replaces a PII-matched field's sampled dictionary
// values with a one-way digest, so a ScanReport (and anything caching
// it) retains the dictionary shape without carrying raw PII values.
func redactDictionary(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		sum := blake2b.Sum256([]byte(v))
		out[i] = hex.EncodeToString(sum[:8])
	}
	return out
}

func datePassMatches(stat analyzer.FieldStat, opts Options) []scoredMatch {
	hitsByPattern := make(map[string]int)
	formatByPattern := make(map[string]string)
	considered := 0

	for _, val := range stat.Values {
		if isEmptyStr(val, opts) {
			continue
		}
		considered++
		pat, ok := opts.DateParser.Match(val)
		if !ok {
			continue
		}
		hitsByPattern[pat.ID]++
		formatByPattern[pat.ID] = pat.Format
	}
	if considered == 0 {
		return nil
	}

	ids := make([]string, 0, len(hitsByPattern))
	for id := range hitsByPattern {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []scoredMatch
	for _, id := range ids {
		confidence := 100.0 * float64(hitsByPattern[id]) / float64(considered)
		if confidence >= opts.ConfidenceThreshold {
			metrics.ObserveMatch(id)
			out = append(out, scoredMatch{
				result: MatchResult{
					RuleID:         id,
					Key:            id,
					RuleType:       "date",
					ConfidencePct:  confidence,
					DatatypeFormat: formatByPattern[id],
				},
			})
		}
	}
	return out
}

func deriveTags(stat analyzer.FieldStat) []string {
	var tags []string
	if stat.NonEmptyCount == 0 {
		tags = append(tags, "empty")
	}
	if stat.NonEmptyCount > 0 && stat.UniqueCount == stat.NonEmptyCount {
		tags = append(tags, "uniq")
	}
	if stat.IsDictionary {
		tags = append(tags, "dict")
	}
	return tags
}

// isEmptyStr reports whether s should be excluded from a rule's
// confidence denominator. When opts.ExceptEmpty is false, empties are
// left in the candidate stream like any other value (and almost always
// fail to match, pulling the confidence down) rather than being
// filtered out before counting.
func isEmptyStr(s string, opts Options) bool {
	if !opts.ExceptEmpty {
		return false
	}
	if s == "" {
		return true
	}
	if opts.EmptyValues == nil {
		return false
	}
	_, ok := opts.EmptyValues[s]
	return ok
}

// safeAccepts wraps Rule.Accepts with panic recovery so a malformed
// matcher never escapes the engine; it is counted as a matcher runtime
// error rather than propagated.
func safeAccepts(rule *catalog.Rule, s string, degraded map[string]bool, issues *[]errs.Issue) bool {
	ok, errored := evalSafely(rule, s)
	if errored {
		*issues = append(*issues, errs.NewIssue("", rule.ID, &errs.MatcherRuntimeError{RuleID: rule.ID, Detail: "matcher panicked"}))
		degraded[rule.ID] = true
		return false
	}
	return ok
}

func evalSafely(rule *catalog.Rule, s string) (matched, errored bool) {
	defer func() {
		if r := recover(); r != nil {
			errored = true
		}
	}()
	return rule.Accepts(s), false
}
