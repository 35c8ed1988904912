package grammar

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicrafter/metacrafter/classifier/errs"
)

func TestCompileGrammar_Literal(t *testing.T) {
	m, err := CompileGrammar(`Literal('1')`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("1"))
	assert.False(t, m.MatchEntire("2"))
	assert.False(t, m.MatchEntire("10"))
}

func TestCompileGrammar_CaselessLiteral(t *testing.T) {
	m, err := CompileGrammar(`CaselessLiteral('YES')`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("yes"))
	assert.True(t, m.MatchEntire("Yes"))
	assert.False(t, m.MatchEntire("no"))
}

func TestCompileGrammar_WordExact(t *testing.T) {
	m, err := CompileGrammar(`Word(nums, exact=3)`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("123"))
	assert.False(t, m.MatchEntire("12"))
	assert.False(t, m.MatchEntire("1234"))
	assert.False(t, m.MatchEntire("12a"))
}

func TestCompileGrammar_WordMinMax(t *testing.T) {
	m, err := CompileGrammar(`Word(alphas, min=2, max=4)`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("ab"))
	assert.True(t, m.MatchEntire("abcd"))
	assert.False(t, m.MatchEntire("a"))
	assert.False(t, m.MatchEntire("abcde"))
}

func TestCompileGrammar_Optional(t *testing.T) {
	m, err := CompileGrammar(`Literal('-') + Optional(Literal('x')) + Word(nums, exact=2)`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("-x12"))
	assert.True(t, m.MatchEntire("-12"))
	assert.False(t, m.MatchEntire("-xx12"))
}

func TestCompileGrammar_Suppress(t *testing.T) {
	m, err := CompileGrammar(`Suppress(Literal('(')) + Word(nums, exact=3) + Suppress(Literal(')'))`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("(123)"))
	assert.False(t, m.MatchEntire("123"))
}

func TestCompileGrammar_SuppressPostfix(t *testing.T) {
	m, err := CompileGrammar(`Literal('(').suppress() + Word(nums, exact=3) + Literal(')').suppress()`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("(123)"))
}

func TestCompileGrammar_LineEnd(t *testing.T) {
	m, err := CompileGrammar(`Word(nums, exact=4) + lineEnd`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("2024"))
	assert.False(t, m.MatchEntire("2024x"))
}

// TestCompileGrammar_LongestAlternative exercises the worked example from
// the grammar's own documentation: the ^ combinator takes the longest of
// its accepting branches, not the first.
func TestCompileGrammar_LongestAlternative(t *testing.T) {
	expr := `(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word('01', exact=1) + Word(nums, exact=2))`
	m, err := CompileGrammar(expr)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("1234"))
	assert.True(t, m.MatchEntire("2012"))
	assert.False(t, m.MatchEntire("1"))
}

func TestCompileGrammar_FirstAlternative(t *testing.T) {
	m, err := CompileGrammar(`Literal('a') | Literal('aa')`)
	require.NoError(t, err)
	assert.True(t, m.MatchEntire("a"))
	assert.False(t, m.MatchEntire("aa"))
}

func TestCompileGrammar_RejectsUnsafeIdentifiers(t *testing.T) {
	for _, expr := range []string{
		`__import__('os')`,
		`eval('1')`,
		`exec('1')`,
		`os.system('1')`,
		`Literal('1')[0]`,
	} {
		_, err := CompileGrammar(expr)
		assert.Error(t, err, expr)
		var ce *errs.RuleCompileError
		if assert.ErrorAs(t, err, &ce, expr) {
			assert.Equal(t, errs.CompileUnsafe, ce.Kind, expr)
		}
	}
}

func TestCompileGrammar_RejectsDisallowedPunctuation(t *testing.T) {
	for _, expr := range []string{
		`Word(nums){1,3}`,
		`Literal('1'); Literal('2')`,
	} {
		_, err := CompileGrammar(expr)
		assert.Error(t, err, expr)
	}
}

func TestCompileGrammar_BareSuppressIsUnsafe(t *testing.T) {
	_, err := CompileGrammar(`suppress`)
	require.Error(t, err)
	var ce *errs.RuleCompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errs.CompileUnsafe, ce.Kind)
}

func TestCompileGrammar_CacheReturnsEquivalentMatcher(t *testing.T) {
	expr := `Word(nums, exact=5)`
	m1, err := CompileGrammar(expr)
	require.NoError(t, err)
	m2, err := CompileGrammar(expr)
	require.NoError(t, err)
	assert.Equal(t, m1.MatchEntire("12345"), m2.MatchEntire("12345"))
	assert.Equal(t, m1.MatchEntire("1234"), m2.MatchEntire("1234"))
}

// TestProperty_CompileIsSafe checks that no randomly generated expression
// built only from the closed grammar namespace plus stray punctuation can
// ever panic the compiler; it must always return cleanly with a Matcher
// or an error.
func TestProperty_CompileIsSafe(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	alphabet := []string{
		"Word", "Literal", "CaselessLiteral", "Optional", "Suppress",
		"nums", "alphas", "lineEnd", "(", ")", "+", "^", "|", ",",
		"'a'", "'1'", "exact=1", ".suppress()", "__import__", "os",
	}

	properties.Property("compile never panics", prop.ForAll(
		func(indices []int) bool {
			var sb []byte
			for _, idx := range indices {
				tok := alphabet[idx%len(alphabet)]
				sb = append(sb, tok...)
				sb = append(sb, ' ')
			}
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("CompileGrammar panicked on input %q: %v", string(sb), r)
				}
			}()
			_, _ = CompileGrammar(string(sb))
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(alphabet)-1)),
	))

	properties.TestingRun(t)
}

// TestProperty_CompileIsDeterministic checks that compiling the same
// expression twice always yields matchers that agree on every input they
// are asked to evaluate.
func TestProperty_CompileIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	exprs := []string{
		`Word(nums, exact=3)`,
		`Literal('a') + Word(alphas, min=1, max=3)`,
		`(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word(nums, exact=2))`,
	}

	properties.Property("repeated compiles agree on every candidate", prop.ForAll(
		func(exprIdx int, candidate string) bool {
			expr := exprs[exprIdx%len(exprs)]
			m1, err1 := CompileExpr(expr)
			m2, err2 := CompileExpr(expr)
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return true
			}
			return m1.MatchEntire(candidate) == m2.MatchEntire(candidate)
		},
		gen.IntRange(0, len(exprs)-1),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
