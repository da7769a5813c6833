package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []TokenType
	}{
		{"1+2", []TokenType{TokenNumber, TokenOp, TokenNumber, TokenEOF}},
		{"$1 * 2", []TokenType{TokenCapture, TokenOp, TokenNumber, TokenEOF}},
		{"max(a, 1.5e3)", []TokenType{TokenIdent, TokenLParen, TokenIdent, TokenComma, TokenNumber, TokenRParen, TokenEOF}},
		{"x>=1 ? 2 : 3", []TokenType{TokenIdent, TokenOp, TokenNumber, TokenQuestion, TokenNumber, TokenColon, TokenNumber, TokenEOF}},
		{"2e", []TokenType{TokenNumber, TokenIdent, TokenEOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewTokenizer(tt.input).AllTokens()
			require.NoError(t, err)
			var got []TokenType
			for _, tok := range tokens {
				got = append(got, tok.Type)
			}
			assert.Equal(t, tt.tokens, got)
		})
	}
}

func TestEval(t *testing.T) {
	vars := Vars{"x": 4, "y": -2}
	tests := []struct {
		input string
		want  float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"2 ^ 3 ^ 2", 512},
		{"-2 ^ 2", -4},
		{"2 ^ -1", 0.5},
		{"7 % 4", 3},
		{"x / 8", 0.5},
		{"x > y", 1},
		{"x = 4 && y <> 0", 1},
		{"not x", 0},
		{"x < 0 ? 10 : x < 5 ? 20 : 30", 20},
		{"if(y, 1, 2)", 1},
		{"abs(y) + sqrt(x)", 4},
		{"round(2.346, 2)", 2.35},
		{"round(-2.5)", -3},
		{"trunc(-2.7)", -2},
		{"floor(2.7) + ceil(2.1)", 5},
		{"min(3, x, 1) + max(y, 0)", 1},
		{"sum(1, 2, 3)", 6},
		{"log(1000)", 3},
		{"log(8, 2)", 3},
		{"ln(e)", 1},
		{"exp(0)", 1},
		{"1.5e1", 15},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := Parse(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p.Eval(vars), 1e-9)
		})
	}
}

func TestUnknownNamesAreNaN(t *testing.T) {
	for _, src := range []string{"nosuch", "nosuch(1)", "if(1, 2)", "abs(1, 2)"} {
		p, err := Parse(src)
		require.NoError(t, err, src)
		assert.True(t, math.IsNaN(p.Eval(nil)), src)
	}
}

type history struct {
	calls []string
}

func (h *history) Value(name string) (float64, bool) {
	if name == "this" {
		return 10, true
	}
	return 0, false
}

func (h *history) Call(name string, args []float64) (float64, bool) {
	h.calls = append(h.calls, name)
	switch name {
	case "reg":
		return args[0] * 100, true
	case "last":
		return 7, true
	}
	return 0, false
}

func TestEnvFunctions(t *testing.T) {
	h := &history{}
	p, err := Parse("$2 + reg(1) + last() + this")
	require.NoError(t, err)
	assert.Equal(t, float64(200+100+7+10), p.Eval(h))
	assert.Equal(t, []string{"reg", "reg", "last"}, h.calls)
	assert.Equal(t, "(((reg(2) + reg(1)) + last()) + this)", p.String())
}

func TestSyntaxErrors(t *testing.T) {
	tests := []string{"", "1 +", "(1", "1 2", "max(1,", "$", "1 ? 2", "1.2.3", "#"}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))
		})
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	a, err := c.Compile("1+1")
	require.NoError(t, err)
	b, err := c.Compile("1+1")
	require.NoError(t, err)
	assert.Same(t, a, b)
	_, err = c.Compile("1+")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
	c.Clear()
	assert.Zero(t, c.Len())
}
