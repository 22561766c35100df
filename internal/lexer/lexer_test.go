package lexer

import (
	"testing"

	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src, names.NewPool())
	var toks []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestDefinitionTokens(t *testing.T) {
	toks := lexAll(t, "--- fact (n+1) <= (n+1) * fact n;")
	want := []token.Type{
		token.VALOF, token.IDENT, token.LPAREN, token.IDENT, token.IDENT,
		token.NUM, token.RPAREN, token.IS, token.LPAREN, token.IDENT,
		token.IDENT, token.NUM, token.RPAREN, token.IDENT, token.IDENT,
		token.IDENT, token.SEMI,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v (%q), want %v", i, toks[i].Type, toks[i].Literal, w)
		}
	}
}

func TestReservedSymbolsVersusOperators(t *testing.T) {
	toks := lexAll(t, ":: <= =< == = ++ --- -- ->")
	want := []struct {
		typ token.Type
		lit string
	}{
		{token.IDENT, "::"},
		{token.IS, "<="},
		{token.IDENT, "=<"},
		{token.DEFEQ, "=="},
		{token.IDENT, "="},
		{token.ALT, "++"},
		{token.VALOF, "---"},
		{token.IDENT, "--"},
		{token.IDENT, "->"},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Literal != w.lit {
			t.Errorf("token %d: got %v %q, want %v %q",
				i, toks[i].Type, toks[i].Literal, w.typ, w.lit)
		}
	}
}

func TestInterningIsPointerEquality(t *testing.T) {
	pool := names.NewPool()
	l := New("foo bar foo", pool)
	a := l.NextToken()
	b := l.NextToken()
	c := l.NextToken()
	if a.Name == b.Name {
		t.Errorf("distinct identifiers interned to the same name")
	}
	if a.Name != c.Name {
		t.Errorf("same identifier interned to different names")
	}
}

func TestCommentsAndLiterals(t *testing.T) {
	toks := lexAll(t, "1.5 'a' '\\n' \"hi\\\"there\" ! comment to end\nx")
	if toks[0].Type != token.NUM || toks[0].Num != 1.5 {
		t.Errorf("number literal: %v", toks[0])
	}
	if toks[1].Type != token.CHAR || toks[1].Literal != "a" {
		t.Errorf("char literal: %v", toks[1])
	}
	if toks[2].Type != token.CHAR || toks[2].Literal != "\n" {
		t.Errorf("escaped char literal: %v", toks[2])
	}
	if toks[3].Type != token.STRING || toks[3].Literal != "hi\"there" {
		t.Errorf("string literal: %v", toks[3])
	}
	if toks[4].Type != token.IDENT || toks[4].Literal != "x" {
		t.Errorf("comment did not end at newline: %v", toks[4])
	}
	if len(toks) != 5 {
		t.Errorf("got %d tokens, want 5", len(toks))
	}
}

func TestPrimedIdentifiers(t *testing.T) {
	toks := lexAll(t, "x x' x''")
	if toks[0].Literal != "x" || toks[1].Literal != "x'" || toks[2].Literal != "x''" {
		t.Errorf("primes not attached: %v", toks)
	}
}

func TestMalformedTokenIsReported(t *testing.T) {
	pool := names.NewPool()
	l := New("\"unterminated", pool)
	l.NextToken()
	if len(l.Errors) == 0 {
		t.Fatalf("expected a lexical error")
	}
}
