package grammar

import (
	"fmt"

	"github.com/apicrafter/metacrafter/classifier/errs"
)

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func syntaxErr(format string, a ...any) error {
	return &errs.RuleCompileError{Kind: errs.CompileSyntax, Detail: fmt.Sprintf(format, a...)}
}

func unsafeErr(format string, a ...any) error {
	return &errs.RuleCompileError{Kind: errs.CompileUnsafe, Detail: fmt.Sprintf(format, a...)}
}

func (p *parser) expectKind(k tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, syntaxErr("expected %s", what)
	}
	return p.advance(), nil
}

// parseOr parses the lowest-precedence '|' (first-match) level.
func (p *parser) parseOr() (matchFn, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	branches := []matchFn{left}
	for p.peek().kind == tokPipe {
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		branches = append(branches, right)
	}
	if len(branches) == 1 {
		return left, nil
	}
	return firstAltFn(branches), nil
}

// parseXor parses the '^' (longest-match) level, binding tighter than '|'.
func (p *parser) parseXor() (matchFn, error) {
	left, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	branches := []matchFn{left}
	for p.peek().kind == tokCaret {
		p.advance()
		right, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		branches = append(branches, right)
	}
	if len(branches) == 1 {
		return left, nil
	}
	return longestAltFn(branches), nil
}

// parseSeq parses the '+' (sequence) level, binding tighter than '^'.
func (p *parser) parseSeq() (matchFn, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	parts := []matchFn{left}
	for p.peek().kind == tokPlus {
		p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		parts = append(parts, right)
	}
	if len(parts) == 1 {
		return left, nil
	}
	return sequenceFn(parts), nil
}

// parsePostfix parses a primary atom followed by zero or more
// ".suppress()" postfixes, the only attribute access the grammar
// language permits.
func (p *parser) parsePostfix() (matchFn, error) {
	inner, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokDot {
		p.advance()
		name, err := p.expectKind(tokIdent, "identifier after '.'")
		if err != nil {
			return nil, err
		}
		if name.text != "suppress" {
			return nil, unsafeErr("attribute access .%s is not allowed", name.text)
		}
		if _, err := p.expectKind(tokLParen, "'(' after .suppress"); err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokRParen, "')' closing .suppress()"); err != nil {
			return nil, err
		}
		// Suppression doesn't change match/no-match semantics.
	}
	return inner, nil
}

func (p *parser) parsePrimary() (matchFn, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		switch t.text {
		case identLineEnd:
			p.advance()
			return lineEndFn(), nil
		case "Word", "Literal", "CaselessLiteral", "Optional", "Suppress":
			return p.parseCall(t.text)
		default:
			if _, isClass := charClassConstants[t.text]; isClass {
				return nil, syntaxErr("character class %q may only appear as a Word(...) argument", t.text)
			}
			return nil, unsafeErr("unknown identifier %q", t.text)
		}
	default:
		return nil, syntaxErr("unexpected token in expression")
	}
}

func (p *parser) parseCall(name string) (matchFn, error) {
	p.advance() // consume the constructor identifier
	if _, err := p.expectKind(tokLParen, "'(' after "+name); err != nil {
		return nil, err
	}

	switch name {
	case "Optional", "Suppress":
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokRParen, "')'"); err != nil {
			return nil, err
		}
		if name == "Optional" {
			return optionalFn(inner), nil
		}
		return inner, nil // Suppress: matching is identical, only output differs.

	case "Literal", "CaselessLiteral":
		str, err := p.expectKind(tokString, "string literal")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(tokRParen, "')'"); err != nil {
			return nil, err
		}
		if name == "Literal" {
			return literalFn(str.text), nil
		}
		return caselessLiteralFn(str.text), nil

	case "Word":
		var charset string
		switch {
		case p.peek().kind == tokString:
			charset = p.advance().text
		case p.peek().kind == tokIdent:
			id := p.advance()
			cls, ok := charClassConstants[id.text]
			if !ok {
				return nil, unsafeErr("unknown character class %q", id.text)
			}
			charset = cls
		default:
			return nil, syntaxErr("Word(...) expects a character class or string literal")
		}

		var exact, min, max int
		for p.peek().kind == tokComma {
			p.advance()
			kw, err := p.expectKind(tokIdent, "keyword argument name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKind(tokEquals, "'=' in keyword argument"); err != nil {
				return nil, err
			}
			num, err := p.expectKind(tokNumber, "integer value")
			if err != nil {
				return nil, err
			}
			switch kw.text {
			case "exact":
				exact = num.num
			case "min":
				min = num.num
			case "max":
				max = num.num
			default:
				return nil, unsafeErr("unknown keyword argument %q", kw.text)
			}
		}
		if _, err := p.expectKind(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return wordFn(charset, exact, min, max), nil
	}
	return nil, unsafeErr("unknown constructor %q", name)
}

// CompileExpr parses and compiles a grammar expression without touching
// the shared cache; CompileGrammar (cache.go) is the entry point callers
// should use.
func CompileExpr(expr string) (Matcher, error) {
	toks, err := lex(expr)
	if err != nil {
		return Matcher{}, err
	}
	p := &parser{toks: toks}
	fn, err := p.parseOr()
	if err != nil {
		return Matcher{}, err
	}
	if p.peek().kind != tokEOF {
		return Matcher{}, syntaxErr("unexpected trailing input")
	}
	return Matcher{fn: fn}, nil
}
