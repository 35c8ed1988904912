// Package dateparser provides the capability the classification engine
// consults for date-pattern detection. The pattern set itself is not
// part of the core's contract; this package is one concrete, swappable
// implementation of the MatchDate interface, built on a fixed table of
// layouts rather than a heuristic parser.
package dateparser

import "time"

// Pattern identifies a recognized date/time layout and the format token
// reported alongside a matching field.
type Pattern struct {
	ID     string
	Format string
}

// MatchDate is the capability the classification engine depends on.
// Implementations must be side-effect-free and safe for concurrent use;
// a nil Parser disables the date pass entirely.
type MatchDate interface {
	Match(value string) (Pattern, bool)
}

type layoutEntry struct {
	id     string
	layout string
	format string
}

// TableParser matches against a fixed, ordered list of time.Parse
// layouts. The first layout that parses the whole string wins; order
// matters for ambiguous layouts (e.g. DD/MM/YYYY vs MM/DD/YYYY), so the
// table is checked top to bottom rather than concurrently.
type TableParser struct {
	layouts []layoutEntry
}

// NewTableParser builds a parser over the default layout table: ISO
// 8601 date and date-time variants, and the common slash/dot separated
// regional forms.
func NewTableParser() *TableParser {
	return &TableParser{layouts: []layoutEntry{
		{id: "iso8601_datetime", layout: "2006-01-02T15:04:05Z07:00", format: "YYYY-MM-DDThh:mm:ssZ"},
		{id: "iso8601_datetime_space", layout: "2006-01-02 15:04:05", format: "YYYY-MM-DD hh:mm:ss"},
		{id: "iso8601_date", layout: "2006-01-02", format: "YYYY-MM-DD"},
		{id: "us_date", layout: "01/02/2006", format: "MM/DD/YYYY"},
		{id: "eu_date", layout: "02.01.2006", format: "DD.MM.YYYY"},
		{id: "eu_date_slash", layout: "02/01/2006", format: "DD/MM/YYYY"},
		{id: "rfc1123", layout: time.RFC1123, format: "RFC1123"},
	}}
}

// Match reports the first layout in the table that consumes value
// entirely, or (_, false) if none do.
func (p *TableParser) Match(value string) (Pattern, bool) {
	for _, entry := range p.layouts {
		if _, err := time.Parse(entry.layout, value); err == nil {
			return Pattern{ID: entry.id, Format: entry.format}, true
		}
	}
	return Pattern{}, false
}

// Disabled is a MatchDate that never matches, used when the engine is
// configured with parse_dates=false or no date capability is wired in.
type Disabled struct{}

func (Disabled) Match(string) (Pattern, bool) { return Pattern{}, false }
