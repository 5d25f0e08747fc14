package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lexAll(src string) []token {
	l := newLexer([]byte(src))
	var out []token
	for {
		t := l.next()
		out = append(out, t)
		if t.kind == tokEOF {
			return out
		}
	}
}

func TestLexer_Keywords(t *testing.T) {
	toks := lexAll("module exposing import as")
	for i := 0; i < 4; i++ {
		assert.Equal(t, tokKeyword, toks[i].kind)
	}
}

func TestLexer_IdentCase(t *testing.T) {
	toks := lexAll("foo Bar")
	assert.Equal(t, tokLowerIdent, toks[0].kind)
	assert.Equal(t, tokUpperIdent, toks[1].kind)
}

func TestLexer_Numbers(t *testing.T) {
	toks := lexAll("42 3.14")
	assert.Equal(t, tokInt, toks[0].kind)
	assert.Equal(t, "42", toks[0].text)
	assert.Equal(t, tokFloat, toks[1].kind)
	assert.Equal(t, "3.14", toks[1].text)
}

func TestLexer_StringWithEscape(t *testing.T) {
	toks := lexAll(`"hello \"world\""`)
	assert.Equal(t, tokString, toks[0].kind)
	assert.Equal(t, `"hello \"world\""`, toks[0].text)
}

func TestLexer_Operators(t *testing.T) {
	toks := lexAll("a + b -> c :: d |> e")
	var ops []string
	for _, tok := range toks {
		if tok.kind == tokOperator || tok.kind == tokArrow {
			ops = append(ops, tok.text)
		}
	}
	assert.Equal(t, []string{"+", "->", "::", "|>"}, ops)
}

func TestLexer_LineComment(t *testing.T) {
	toks := lexAll("x -- trailing comment\ny")
	assert.Equal(t, tokLowerIdent, toks[0].kind)
	assert.Equal(t, "x", toks[0].text)
	assert.Equal(t, tokLowerIdent, toks[1].kind)
	assert.Equal(t, "y", toks[1].text)
}

func TestLexer_DotDotVsDot(t *testing.T) {
	toks := lexAll("T(..) A.b")
	var kinds []tokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	assert.Contains(t, kinds, tokDotDot)
	assert.Contains(t, kinds, tokDot)
}

func TestLexer_Positions(t *testing.T) {
	toks := lexAll("ab\ncd")
	assert.Equal(t, Position{0, 0}, toks[0].startPos)
	assert.Equal(t, Position{1, 0}, toks[1].startPos)
}
