package catalog

import "sort"

// SelectOptions narrows a Catalog down to the rules applicable to one
// scan. Empty filter slices mean "no restriction on this axis".
type SelectOptions struct {
	ContextFilters []string
	LangFilters    []string
	CountryFilters []string
	IgnoreImprecise bool
}

// RuleView is a projection of a Catalog, built and sorted by Select: the
// rules that pass SelectOptions, grouped by RuleType and ordered by
// (priority desc, load order asc) for deterministic tie-breaks.
type RuleView struct {
	fieldRules []*Rule
	dataRules  []*Rule
}

// FieldRules returns field-name rules in evaluation order.
func (v RuleView) FieldRules() []*Rule { return v.fieldRules }

// DataRules returns value rules in evaluation order.
func (v RuleView) DataRules() []*Rule { return v.dataRules }

// Select builds a RuleView over c honoring opts. The catalog itself is
// untouched; repeated calls with different opts are independent.
func (c *Catalog) Select(opts SelectOptions) RuleView {
	var v RuleView
	for _, r := range c.rules {
		if !passesFilters(r, opts) {
			continue
		}
		switch r.Type {
		case RuleTypeField:
			v.fieldRules = append(v.fieldRules, r)
		case RuleTypeData:
			v.dataRules = append(v.dataRules, r)
		}
	}
	sortRules(v.fieldRules)
	sortRules(v.dataRules)
	return v
}

func passesFilters(r *Rule, opts SelectOptions) bool {
	if opts.IgnoreImprecise && r.Imprecise {
		return false
	}
	if len(opts.ContextFilters) > 0 && !containsFold(opts.ContextFilters, r.Context) {
		return false
	}
	if len(opts.LangFilters) > 0 && r.Lang != "common" && !containsFold(opts.LangFilters, r.Lang) {
		return false
	}
	if len(opts.CountryFilters) > 0 && len(r.CountryCodes) > 0 && !intersects(opts.CountryFilters, r.CountryCodes) {
		return false
	}
	return true
}

func containsFold(list []string, s string) bool {
	s = lower(s)
	for _, v := range list {
		if lower(v) == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[lower(v)] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[lower(v)]; ok {
			return true
		}
	}
	return false
}

func sortRules(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].LoadOrder < rules[j].LoadOrder
	})
}
