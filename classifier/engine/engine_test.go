package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/model"
)

func writeRuleFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func sourceFrom(rows []map[string]any) model.Source {
	recs := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		order := make([]string, 0, len(row))
		for k := range row {
			order = append(order, k)
		}
		recs = append(recs, model.NewRecord(order, row))
	}
	return model.NewSliceSource(recs)
}

// TestClassify_S1_EmailByFieldName mirrors the catalog's email field-name
// scenario: a field literally named "email" should be reported at 100%.
func TestClassify_S1_EmailByFieldName(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "email.yaml", `
name: email
rules:
  email_field:
    key: email
    type: field
    match: text
    rule: email,e_mail,email_address
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})

	src := sourceFrom([]map[string]any{{"Email": "a@b"}, {"Email": "c@d"}})
	stats := analyzer.Analyze(src, analyzer.Options{})

	report, err := Classify(context.Background(), view, stats, Options{})
	require.NoError(t, err)
	require.Len(t, report.Data, 1)
	col := report.Data[0]
	require.Len(t, col.Matches, 1)
	assert.Equal(t, "email", col.Matches[0].Key)
	assert.Equal(t, 100.0, col.Matches[0].ConfidencePct)
}

// TestClassify_S2_ISOAlpha2 mirrors the 4/5 hit-rate scenario.
func TestClassify_S2_ISOAlpha2(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "geo.yaml", `
name: geo
rules:
  iso_alpha2:
    key: countrycode_alpha2
    type: data
    match: text
    rule: us,ca,de,fr
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})

	src := sourceFrom([]map[string]any{
		{"code": "us"}, {"code": "ca"}, {"code": "de"}, {"code": "zz"}, {"code": "fr"},
	})
	stats := analyzer.Analyze(src, analyzer.Options{})

	report, err := Classify(context.Background(), view, stats, Options{})
	require.NoError(t, err)
	require.Len(t, report.Data, 1)
	require.Len(t, report.Data[0].Matches, 1)
	assert.InDelta(t, 80.0, report.Data[0].Matches[0].ConfidencePct, 0.01)
}

// TestClassify_S3_YearGrammar mirrors the 3/5 grammar-rule scenario.
func TestClassify_S3_YearGrammar(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "year.yaml", `
name: year
rules:
  year4:
    key: year
    type: data
    match: ppr
    rule: "(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word('01', exact=1) + Word(nums, exact=2))"
    minlen: 4
    maxlen: 4
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})

	src := sourceFrom([]map[string]any{
		{"yr": "1999"}, {"yr": "2012"}, {"yr": "2100"}, {"yr": "2200"}, {"yr": "abcd"},
	})
	stats := analyzer.Analyze(src, analyzer.Options{})

	report, err := Classify(context.Background(), view, stats, Options{})
	require.NoError(t, err)
	require.Len(t, report.Data, 1)
	require.Len(t, report.Data[0].Matches, 1)
	assert.InDelta(t, 60.0, report.Data[0].Matches[0].ConfidencePct, 0.01)
}

// TestClassify_S4_ImpreciseGating mirrors S2's rule marked imprecise.
func TestClassify_S4_ImpreciseGating(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "geo_imprecise.yaml", `
name: geo
rules:
  iso_alpha2:
    key: countrycode_alpha2
    type: data
    match: text
    rule: us,ca,de,fr
    imprecise: 1
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)

	src := sourceFrom([]map[string]any{
		{"code": "us"}, {"code": "ca"}, {"code": "de"}, {"code": "zz"}, {"code": "fr"},
	})
	stats := analyzer.Analyze(src, analyzer.Options{})

	withIgnore := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})
	reportIgnored, err := Classify(context.Background(), withIgnore, stats, Options{})
	require.NoError(t, err)
	assert.Empty(t, reportIgnored.Data[0].Matches)

	withoutIgnore := cat.Select(catalog.SelectOptions{IgnoreImprecise: false})
	reportIncluded, err := Classify(context.Background(), withoutIgnore, stats, Options{})
	require.NoError(t, err)
	require.Len(t, reportIncluded.Data[0].Matches, 1)
	assert.InDelta(t, 80.0, reportIncluded.Data[0].Matches[0].ConfidencePct, 0.01)
}

// TestClassify_S5_StopOnMatch mirrors two data rules both matching field x.
func TestClassify_S5_StopOnMatch(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "two_rules.yaml", `
name: two rules
rules:
  high:
    key: k_high
    type: data
    match: text
    rule: a,b,c,d,e,f,g,h,i,j
    priority: 5
  low:
    key: k_low
    type: data
    match: text
    rule: a,b,c,d,e,f,g,h
    priority: 1
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})

	src := sourceFrom([]map[string]any{
		{"x": "a"}, {"x": "b"}, {"x": "c"}, {"x": "d"}, {"x": "e"},
		{"x": "f"}, {"x": "g"}, {"x": "h"}, {"x": "i"}, {"x": "j"},
	})
	stats := analyzer.Analyze(src, analyzer.Options{})

	full, err := Classify(context.Background(), view, stats, Options{})
	require.NoError(t, err)
	assert.Len(t, full.Data[0].Matches, 2)

	stopped, err := Classify(context.Background(), view, stats, Options{StopOnMatch: true})
	require.NoError(t, err)
	require.Len(t, stopped.Data[0].Matches, 1)
	assert.Equal(t, "k_high", stopped.Data[0].Matches[0].Key)
}

// TestClassify_StatsPopulatedAndPIIDictionaryRedacted checks that
// report.Stats carries one FieldStat per field, and that a dictionary
// field matched by an is_pii rule has its sampled values replaced by
// a digest rather than the raw values.
func TestClassify_StatsPopulatedAndPIIDictionaryRedacted(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "pii.yaml", `
name: pii
rules:
  status_field:
    key: status
    type: field
    match: text
    rule: status
    is_pii: true
`)
	cat, issues := catalog.Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(catalog.SelectOptions{IgnoreImprecise: true})

	src := sourceFrom([]map[string]any{
		{"status": "active"}, {"status": "active"}, {"status": "inactive"},
	})
	stats := analyzer.Analyze(src, analyzer.Options{DictShare: 70.0})

	report, err := Classify(context.Background(), view, stats, Options{})
	require.NoError(t, err)
	require.Len(t, report.Stats, 1)

	statOut := report.Stats[0]
	require.True(t, statOut.IsDictionary)
	for _, v := range statOut.Dictionary {
		assert.NotEqual(t, "active", v)
		assert.NotEqual(t, "inactive", v)
	}
}

func TestClassify_ConfigErrorOnInvalidThreshold(t *testing.T) {
	_, err := Classify(context.Background(), catalog.RuleView{}, nil, Options{ConfidenceThreshold: 150})
	require.Error(t, err)
}

func TestClassify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := sourceFrom([]map[string]any{{"x": "1"}})
	stats := analyzer.Analyze(src, analyzer.Options{})
	_, err := Classify(ctx, catalog.RuleView{}, stats, Options{})
	require.Error(t, err)
}

func TestClassify_FieldAllowList(t *testing.T) {
	src := sourceFrom([]map[string]any{{"a": "1", "b": "2"}})
	stats := analyzer.Analyze(src, analyzer.Options{})
	report, err := Classify(context.Background(), catalog.RuleView{}, stats, Options{
		Fields: map[string]struct{}{"a": {}},
	})
	require.NoError(t, err)
	require.Len(t, report.Data, 1)
	assert.Equal(t, "a", report.Data[0].Field)
}
