package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_FieldRuleEmail(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "email.yaml", `
name: email rules
context: pii
lang: common
rules:
  email_field:
    key: email
    name: Email field name
    type: field
    match: text
    rule: email,e_mail,email_address
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(SelectOptions{IgnoreImprecise: true})
	require.Len(t, view.FieldRules(), 1)

	rule := view.FieldRules()[0]
	assert.True(t, rule.Accepts("email"))
	assert.True(t, rule.Accepts("Email"))
	assert.False(t, rule.Accepts("username"))
}

func TestLoad_DataRuleCountryCode(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "geo.yaml", `
name: geo rules
context: geo
lang: common
rules:
  iso_alpha2:
    key: countrycode_alpha2
    name: ISO 3166 alpha-2
    type: data
    match: text
    rule: us,ca,de,fr
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(SelectOptions{IgnoreImprecise: true})
	require.Len(t, view.DataRules(), 1)

	rule := view.DataRules()[0]
	for _, v := range []string{"us", "CA", "de", "fr"} {
		assert.True(t, rule.Accepts(v), v)
	}
	assert.False(t, rule.Accepts("zz"))
}

func TestLoad_GrammarRuleYear(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "year.yaml", `
name: year rules
context: datetime
lang: common
rules:
  year4:
    key: year
    name: Four digit year
    type: data
    match: ppr
    rule: "(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word('01', exact=1) + Word(nums, exact=2))"
    minlen: 4
    maxlen: 4
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(SelectOptions{IgnoreImprecise: true})
	require.Len(t, view.DataRules(), 1)

	rule := view.DataRules()[0]
	assert.True(t, rule.Accepts("1999"))
	assert.True(t, rule.Accepts("2012"))
	assert.True(t, rule.Accepts("2100"))
	assert.False(t, rule.Accepts("2200"))
	assert.False(t, rule.Accepts("abcd"))
	assert.Equal(t, 4, rule.MinLen)
	assert.Equal(t, 4, rule.MaxLen)
}

func TestLoad_ImpreciseGating(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "imprecise.yaml", `
name: imprecise rules
context: geo
rules:
  iso_alpha2_imprecise:
    key: countrycode_alpha2
    type: data
    match: text
    rule: us,ca,de,fr
    imprecise: 1
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)

	withIgnore := cat.Select(SelectOptions{IgnoreImprecise: true})
	assert.Empty(t, withIgnore.DataRules())

	withoutIgnore := cat.Select(SelectOptions{IgnoreImprecise: false})
	require.Len(t, withoutIgnore.DataRules(), 1)
}

func TestLoad_InvalidRuleIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bad.yaml", `
name: bad rules
rules:
  no_key:
    type: field
    match: text
    rule: foo
  contradictory_bounds:
    key: x
    type: data
    match: text
    rule: foo
    minlen: 10
    maxlen: 2
  good_rule:
    key: good
    type: field
    match: text
    rule: good
`)

	cat, issues := Load([]string{dir})
	assert.Len(t, issues, 2)
	view := cat.Select(SelectOptions{})
	require.Len(t, view.FieldRules(), 1)
	assert.Equal(t, "good", view.FieldRules()[0].Key)
}

func TestLoad_UnresolvedFuncRuleIsAnIssue(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "func.yaml", `
name: func rules
rules:
  mystery:
    key: mystery
    type: data
    match: func
    rule: no_such_function
`)

	cat, issues := Load([]string{dir})
	require.Len(t, issues, 1)
	assert.Equal(t, "rule_resolve_error", issues[0].Kind)
	view := cat.Select(SelectOptions{})
	assert.Empty(t, view.DataRules())
}

func TestSelect_PriorityThenLoadOrderTieBreak(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "priority.yaml", `
name: priority rules
rules:
  low:
    key: x
    type: data
    match: text
    rule: a
    priority: 1
  high:
    key: x
    type: data
    match: text
    rule: b
    priority: 5
  zero:
    key: x
    type: data
    match: text
    rule: c
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(SelectOptions{})
	require.Len(t, view.DataRules(), 3)
	assert.Equal(t, "high", view.DataRules()[0].ID)
	assert.Equal(t, "low", view.DataRules()[1].ID)
	assert.Equal(t, "zero", view.DataRules()[2].ID)
}

func TestLoad_FieldRuleGatesDataRule(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "gated.yaml", `
name: gated rules
rules:
  gated_rule:
    key: x
    type: data
    match: text
    rule: a,b,c
    fieldrule: code,country_code
    fieldrulematch: text
`)

	cat, issues := Load([]string{dir})
	require.Empty(t, issues)
	view := cat.Select(SelectOptions{})
	require.Len(t, view.DataRules(), 1)
	rule := view.DataRules()[0]
	assert.True(t, rule.AcceptsFieldName("code"))
	assert.True(t, rule.AcceptsFieldName("Country_Code"))
	assert.False(t, rule.AcceptsFieldName("name"))
}
