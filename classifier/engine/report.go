package engine

import (
	"fmt"
	"strings"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/errs"
)

// MatchResult is one rule (or date pattern) accepting a field, at the
// confidence it earned.
type MatchResult struct {
	RuleID         string  `json:"rule_id"`
	Key            string  `json:"key"`
	RuleType       string  `json:"rule_type"`
	ConfidencePct  float64 `json:"confidence_pct"`
	DatatypeFormat string  `json:"datatype_format,omitempty"`
}

// ColumnReport is the per-field outcome of a scan: its inferred type,
// derived tags, and every match that cleared the confidence threshold.
type ColumnReport struct {
	Field       string        `json:"field"`
	FType       string        `json:"ftype"`
	Tags        []string      `json:"tags"`
	Matches     []MatchResult `json:"matches"`
	DatatypeURL string        `json:"datatype_url,omitempty"`
}

// ResultRow is the flattened projection ScanReport.Results renders, one
// per field, matching the external report shape.
type ResultRow struct {
	Field       string `json:"field"`
	FType       string `json:"ftype"`
	TagsCSV     string `json:"tags_csv"`
	MatchesCSV  string `json:"matches_csv"`
	DatatypeURL string `json:"datatype_url,omitempty"`
}

// ScanReport is the complete output of Classify.
type ScanReport struct {
	Results []ResultRow             `json:"results"`
	Data    []ColumnReport          `json:"data"`
	Stats   []analyzer.FieldStat    `json:"stats"`
	Issues  []errs.Issue            `json:"issues,omitempty"`
}

func buildResultRow(c ColumnReport) ResultRow {
	matchParts := make([]string, 0, len(c.Matches))
	for _, m := range c.Matches {
		part := fmt.Sprintf("%s %.2f", m.Key, m.ConfidencePct)
		if m.DatatypeFormat != "" {
			part = fmt.Sprintf("%s (dt:%s:%s)", part, m.RuleID, m.DatatypeFormat)
		}
		matchParts = append(matchParts, part)
	}
	return ResultRow{
		Field:       c.Field,
		FType:       c.FType,
		TagsCSV:     strings.Join(c.Tags, ","),
		MatchesCSV:  strings.Join(matchParts, ","),
		DatatypeURL: c.DatatypeURL,
	}
}
