// Package validators holds the registration table that stands in for the
// source system's dotted-path function resolution. Every name a rule file
// can reference under "func" or "validator" is registered here at
// startup; there is no dynamic lookup by string outside this table.
package validators

import (
	"regexp"
	"strconv"
	"strings"
)

// Func is the signature every registered validator or func-rule matcher
// must satisfy: a single candidate string in, a boolean verdict out.
type Func func(string) bool

var registry = map[string]Func{}

// Register adds fn under name, overwriting any previous registration.
// Called from init() in this package and may be called by a host binary
// wiring in additional domain-specific checks before the catalog loads.
func Register(name string, fn Func) {
	registry[name] = fn
}

// Lookup resolves a name from a rule file's func rule body or validator
// field against the registration table. A miss becomes a RuleResolveError at the catalog,
// never a dynamic import attempt.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRURe  = regexp.MustCompile(`^(\+7|7|8)\d{10}$`)
	idCardRe   = regexp.MustCompile(`^(\d{15}|\d{17}[\dXx])$`)
	bankCardRe = regexp.MustCompile(`^\d{16,19}$`)
	ipv4Re     = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

func init() {
	Register("email", isEmail)
	Register("phone_ru", isPhoneRU)
	Register("id_card", isIDCard)
	Register("bank_card", isBankCard)
	Register("ipv4", isIPv4)
	Register("url", isURL)
	Register("uuid", isUUID)
}

func isEmail(s string) bool { return emailRe.MatchString(s) }

func isPhoneRU(s string) bool {
	digits := strings.Map(func(r rune) rune {
		if r == '+' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
	return phoneRURe.MatchString(digits)
}

func isIDCard(s string) bool { return idCardRe.MatchString(s) }

func isBankCard(s string) bool {
	if !bankCardRe.MatchString(s) {
		return false
	}
	return luhnValid(s)
}

// luhnValid implements the Luhn checksum used by bank card numbers; it's
// plain arithmetic over digits, not a domain best served by a library.
func luhnValid(s string) bool {
	sum := 0
	alt := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

func isIPv4(s string) bool {
	if !ipv4Re.MatchString(s) {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func isUUID(s string) bool { return uuidRe.MatchString(s) }
