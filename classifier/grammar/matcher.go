package grammar

import "strings"

// matchFn attempts to consume a match starting at pos, returning the
// position just past the consumed prefix and whether it matched at all.
type matchFn func(s string, pos int) (int, bool)

// Matcher is the compiled, executable form of a grammar expression. A
// rule matches a candidate string iff the whole string is consumed
// (lineEnd atoms tolerate trailing whitespace, per the grammar's own
// semantics rather than a special case here).
type Matcher struct {
	fn matchFn
}

// MatchEntire reports whether s matches this grammar from position 0
// through to the end of the string.
func (m Matcher) MatchEntire(s string) bool {
	end, ok := m.fn(s, 0)
	return ok && end == len(s)
}

func literalFn(lit string) matchFn {
	return func(s string, pos int) (int, bool) {
		if pos+len(lit) > len(s) {
			return pos, false
		}
		if s[pos:pos+len(lit)] == lit {
			return pos + len(lit), true
		}
		return pos, false
	}
}

func caselessLiteralFn(lit string) matchFn {
	lowerLit := strings.ToLower(lit)
	return func(s string, pos int) (int, bool) {
		if pos+len(lit) > len(s) {
			return pos, false
		}
		if strings.ToLower(s[pos:pos+len(lit)]) == lowerLit {
			return pos + len(lit), true
		}
		return pos, false
	}
}

// wordFn builds the matcher for Word(charset [, exact=N] [, min=M, max=N]).
// exact takes precedence when set (>0); otherwise min defaults to 1 and
// max defaults to unbounded, matching greedily.
func wordFn(charset string, exact, min, max int) matchFn {
	return func(s string, pos int) (int, bool) {
		if exact > 0 {
			if pos+exact > len(s) {
				return pos, false
			}
			for k := 0; k < exact; k++ {
				if !inCharset(charset, s[pos+k]) {
					return pos, false
				}
			}
			return pos + exact, true
		}
		lo := min
		if lo <= 0 {
			lo = 1
		}
		hi := max
		if hi <= 0 {
			hi = len(s) - pos
		}
		count := 0
		for pos+count < len(s) && count < hi && inCharset(charset, s[pos+count]) {
			count++
		}
		if count < lo {
			return pos, false
		}
		return pos + count, true
	}
}

func optionalFn(inner matchFn) matchFn {
	return func(s string, pos int) (int, bool) {
		if end, ok := inner(s, pos); ok {
			return end, true
		}
		return pos, true
	}
}

// lineEndFn matches the end of the string, or a newline, tolerating a run
// of horizontal whitespace immediately before it.
func lineEndFn() matchFn {
	return func(s string, pos int) (int, bool) {
		p := pos
		for p < len(s) && (s[p] == ' ' || s[p] == '\t' || s[p] == '\r') {
			p++
		}
		if p >= len(s) {
			return p, true
		}
		if s[p] == '\n' {
			return p + 1, true
		}
		return pos, false
	}
}

func sequenceFn(parts []matchFn) matchFn {
	return func(s string, pos int) (int, bool) {
		cur := pos
		for _, part := range parts {
			end, ok := part(s, cur)
			if !ok {
				return pos, false
			}
			cur = end
		}
		return cur, true
	}
}

// longestAltFn evaluates every branch from the same starting position and
// keeps the one that consumes the most characters, matching the
// spec's "longest alternative" semantics for the ^ combinator.
func longestAltFn(branches []matchFn) matchFn {
	return func(s string, pos int) (int, bool) {
		best := pos
		found := false
		for _, b := range branches {
			if end, ok := b(s, pos); ok {
				if !found || end > best {
					best = end
					found = true
				}
			}
		}
		return best, found
	}
}

// firstAltFn returns the leftmost branch that accepts, without
// considering the others.
func firstAltFn(branches []matchFn) matchFn {
	return func(s string, pos int) (int, bool) {
		for _, b := range branches {
			if end, ok := b(s, pos); ok {
				return end, true
			}
		}
		return pos, false
	}
}
