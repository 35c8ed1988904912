package dateparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableParser_Match(t *testing.T) {
	p := NewTableParser()

	cases := []struct {
		value   string
		wantID  string
		matches bool
	}{
		{"2024-01-15", "iso8601_date", true},
		{"2024-01-15T10:30:00Z", "iso8601_datetime", true},
		{"15.01.2024", "eu_date", true},
		{"01/15/2024", "us_date", true},
		{"not a date", "", false},
		{"12345", "", false},
	}

	for _, c := range cases {
		pat, ok := p.Match(c.value)
		assert.Equal(t, c.matches, ok, c.value)
		if c.matches {
			assert.Equal(t, c.wantID, pat.ID, c.value)
		}
	}
}

func TestDisabled_NeverMatches(t *testing.T) {
	var d Disabled
	_, ok := d.Match("2024-01-15")
	assert.False(t, ok)
}
