// Package catalog loads YAML rule files into compiled, queryable Rule
// sets. Loading never aborts on a single bad file or a single bad rule;
// problems accumulate into an Issue side-channel instead.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apicrafter/metacrafter/classifier/errs"
	"github.com/apicrafter/metacrafter/classifier/grammar"
	"github.com/apicrafter/metacrafter/classifier/validators"
)

// fileDoc mirrors the top-level shape of a rule file. yaml.v3 decodes
// only scalars, mappings, and sequences by default; we never call
// UnmarshalStrict with custom typed tags, which is what keeps the
// loading discipline to "core YAML schema only".
type fileDoc struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Context     string             `yaml:"context"`
	Lang        string             `yaml:"lang"`
	CountryCode string             `yaml:"country_code"`
	Rules       map[string]ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Key            string `yaml:"key"`
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	Match          string `yaml:"match"`
	Rule           string `yaml:"rule"`
	Priority       int    `yaml:"priority"`
	MinLen         *int   `yaml:"minlen"`
	MaxLen         *int   `yaml:"maxlen"`
	Imprecise      int    `yaml:"imprecise"`
	IsPII          bool   `yaml:"is_pii"`
	Validator      string `yaml:"validator"`
	FieldRule      string `yaml:"fieldrule"`
	FieldRuleMatch string `yaml:"fieldrulematch"`

	// Per-rule overrides of the file-level defaults.
	Context     string `yaml:"context"`
	Lang        string `yaml:"lang"`
	CountryCode string `yaml:"country_code"`
}

// Catalog is the immutable, loaded set of rules produced by Load. Every
// Rule in it has already been compiled and validated; callers only ever
// read from it, which is what lets scans share one Catalog across
// goroutines (§5 of the design this mirrors).
type Catalog struct {
	rules []*Rule
}

// Len returns the number of rules held by the catalog, across all types.
func (c *Catalog) Len() int { return len(c.rules) }

// Load walks each path (file or directory) and loads every YAML file
// whose top-level mapping has a "rules" key. It never returns an error
// itself: unreadable paths and malformed files are reported through the
// returned Issue slice and otherwise skipped.
func Load(paths []string) (*Catalog, []errs.Issue) {
	var issues []errs.Issue
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			issues = append(issues, errs.NewIssue(p, "", &errs.FileParseError{File: p, Detail: err.Error()}))
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		_ = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, path)
			}
			return nil
		})
	}

	cat := &Catalog{}
	loadOrder := 0
	for _, f := range files {
		rules, fileIssues := loadFile(f, &loadOrder)
		cat.rules = append(cat.rules, rules...)
		issues = append(issues, fileIssues...)
	}
	return cat, issues
}

func loadFile(path string, loadOrder *int) ([]*Rule, []errs.Issue) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, []errs.Issue{errs.NewIssue(path, "", &errs.FileParseError{File: path, Detail: err.Error()})}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, []errs.Issue{errs.NewIssue(path, "", &errs.FileParseError{File: path, Detail: err.Error()})}
	}
	for stack := []*yaml.Node{&root}; len(stack) > 0; {
		n := stack[len(stack)-1]
		stack = append(stack[:len(stack)-1], n.Content...)
		switch n.ShortTag() {
		case "", "!!str", "!!int", "!!float", "!!bool", "!!null", "!!map", "!!seq", "!!timestamp", "!!merge":
		default:
			detail := fmt.Sprintf("disallowed YAML tag %q at line %d", n.Tag, n.Line)
			return nil, []errs.Issue{errs.NewIssue(path, "", &errs.FileParseError{File: path, Detail: detail})}
		}
	}
	var doc fileDoc
	if err := root.Decode(&doc); err != nil {
		return nil, []errs.Issue{errs.NewIssue(path, "", &errs.FileParseError{File: path, Detail: err.Error()})}
	}
	if doc.Rules == nil {
		// Not a rule file (no "rules:" key); silently not a catalog source.
		return nil, nil
	}

	var rules []*Rule
	var issues []errs.Issue

	ids := make([]string, 0, len(doc.Rules))
	for id := range doc.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rd := doc.Rules[id]
		rule, err := buildRule(path, id, doc, rd, *loadOrder)
		*loadOrder++
		if err != nil {
			issues = append(issues, errs.NewIssue(path, id, err))
			continue
		}
		rules = append(rules, rule)
	}
	return rules, issues
}

func buildRule(file, id string, doc fileDoc, rd ruleDoc, loadOrder int) (*Rule, error) {
	if rd.Key == "" {
		return nil, &errs.RuleValidationError{RuleID: id, Detail: "missing required field \"key\""}
	}
	rtype := RuleType(rd.Type)
	if rtype != RuleTypeField && rtype != RuleTypeData {
		return nil, &errs.RuleValidationError{RuleID: id, Detail: fmt.Sprintf("invalid type %q", rd.Type)}
	}
	mkind := MatchKind(rd.Match)
	if mkind != MatchText && mkind != MatchPPR && mkind != MatchFunc {
		return nil, &errs.RuleValidationError{RuleID: id, Detail: fmt.Sprintf("invalid match kind %q", rd.Match)}
	}
	if rd.Rule == "" {
		return nil, &errs.RuleValidationError{RuleID: id, Detail: "missing required field \"rule\""}
	}

	minLen, maxLen := 0, 0
	if rd.MinLen != nil {
		minLen = *rd.MinLen
	}
	if rd.MaxLen != nil {
		maxLen = *rd.MaxLen
		if minLen > maxLen {
			return nil, &errs.RuleValidationError{RuleID: id, Detail: fmt.Sprintf("minlen %d > maxlen %d", minLen, maxLen)}
		}
	}

	r := &Rule{
		ID:        id,
		Key:       rd.Key,
		Name:      rd.Name,
		Type:      rtype,
		Match:     mkind,
		RuleBody:  rd.Rule,
		Priority:  rd.Priority,
		MinLen:    minLen,
		MaxLen:    maxLen,
		Imprecise: rd.Imprecise != 0,
		IsPII:     rd.IsPII,
		File:      file,
		LoadOrder: loadOrder,
	}

	r.Context = firstNonEmpty(rd.Context, doc.Context)
	r.Lang = firstNonEmpty(rd.Lang, doc.Lang, "common")
	r.CountryCodes = splitCSV(firstNonEmpty(rd.CountryCode, doc.CountryCode))

	compiled, err := compileBody(mkind, rd.Rule)
	if err != nil {
		return nil, err
	}
	r.compiled = compiled

	if rd.Validator != "" {
		fn, ok := validators.Lookup(rd.Validator)
		if !ok {
			return nil, &errs.RuleResolveError{Name: rd.Validator, Detail: "no registered validator with this name"}
		}
		r.validator = fn
		r.hasValidator = true
	}

	if rd.FieldRule != "" {
		fieldMatch := MatchKind(rd.FieldRuleMatch)
		if fieldMatch == "" {
			fieldMatch = MatchText
		}
		fc, err := compileBody(fieldMatch, rd.FieldRule)
		if err != nil {
			return nil, err
		}
		r.fieldCompiled = fc
		r.hasFieldRule = true
		r.FieldRule = rd.FieldRule
		r.FieldRuleMatchKind = fieldMatch
	}

	return r, nil
}

func compileBody(kind MatchKind, raw string) (body, error) {
	switch kind {
	case MatchText:
		tokens := strings.Split(raw, ",")
		set := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			set[lower(t)] = struct{}{}
		}
		if len(set) == 0 {
			return body{}, &errs.RuleValidationError{Detail: "text rule body has no tokens"}
		}
		return body{tokens: set}, nil
	case MatchPPR:
		m, err := grammar.CompileGrammar(raw)
		if err != nil {
			return body{}, err
		}
		return body{grammar: m}, nil
	case MatchFunc:
		fn, ok := validators.Lookup(raw)
		if !ok {
			return body{}, &errs.RuleResolveError{Name: raw, Detail: "no registered function with this name"}
		}
		return body{fn: fn}, nil
	}
	return body{}, &errs.RuleValidationError{Detail: fmt.Sprintf("unknown match kind %q", kind)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, lower(p))
		}
	}
	return out
}
