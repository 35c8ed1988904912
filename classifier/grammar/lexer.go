package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apicrafter/metacrafter/classifier/errs"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPlus
	tokCaret
	tokPipe
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokDot
)

type token struct {
	kind tokenKind
	text string
	num  int
}

// unsafeSubstrings are forbidden inside any identifier token, regardless
// of whether the identifier itself is otherwise recognized.
var unsafeSubstrings = []string{"import", "exec", "eval", "compile", "open", "__"}

// lex tokenizes a grammar expression, rejecting disallowed characters and
// identifiers outright rather than deferring to the parser.
func lex(expr string) ([]token, error) {
	var toks []token
	i := 0
	n := len(expr)
	for i < n {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus})
			i++
		case c == '^':
			toks = append(toks, token{kind: tokCaret})
			i++
		case c == '|':
			toks = append(toks, token{kind: tokPipe})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokEquals})
			i++
		case c == '.':
			toks = append(toks, token{kind: tokDot})
			i++
		case c == '[' || c == ']' || c == '{' || c == '}' || c == ';' || c == ':' || c == '%' || c == '@':
			return nil, &errs.RuleCompileError{Kind: errs.CompileUnsafe, Detail: fmt.Sprintf("disallowed character %q", c)}
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < n {
				if expr[j] == quote {
					closed = true
					j++
					break
				}
				sb.WriteByte(expr[j])
				j++
			}
			if !closed {
				return nil, &errs.RuleCompileError{Kind: errs.CompileSyntax, Detail: "unterminated string literal"}
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < n && expr[j] >= '0' && expr[j] <= '9' {
				j++
			}
			v, _ := strconv.Atoi(expr[i:j])
			toks = append(toks, token{kind: tokNumber, num: v})
			i = j
		case isIdentStart(c):
			j := i
			for j < n && isIdentPart(expr[j]) {
				j++
			}
			name := expr[i:j]
			if err := checkIdentSafe(name); err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokIdent, text: name})
			i = j
		default:
			return nil, &errs.RuleCompileError{Kind: errs.CompileSyntax, Detail: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// allowedIdents is the exact closed namespace grammar expressions may
// reference: character-class constants, lineEnd, the constructor names,
// and Word's keyword-argument names (the parser accepts those only in
// keyword position). "suppress" is reachable only as the postfix
// .suppress() method, never as a bare identifier, so it is deliberately
// absent here.
var allowedIdents = map[string]struct{}{
	"nums": {}, "alphas": {}, "alphanums": {}, "printables": {},
	"hexnums": {}, "punc8bit": {}, "lineEnd": {},
	"Word": {}, "Literal": {}, "CaselessLiteral": {}, "Optional": {}, "Suppress": {},
	"exact": {}, "min": {}, "max": {},
}

func checkIdentSafe(name string) error {
	lower := strings.ToLower(name)
	for _, bad := range unsafeSubstrings {
		if strings.Contains(lower, bad) {
			return &errs.RuleCompileError{Kind: errs.CompileUnsafe, Detail: fmt.Sprintf("identifier %q contains disallowed substring %q", name, bad)}
		}
	}
	if name == "suppress" {
		// Lexed but not in allowedIdents: valid only as the parser's
		// explicit ".suppress()" postfix, never as a bare atom.
		return nil
	}
	if _, ok := allowedIdents[name]; !ok {
		return &errs.RuleCompileError{Kind: errs.CompileUnsafe, Detail: fmt.Sprintf("unknown identifier %q", name)}
	}
	return nil
}
