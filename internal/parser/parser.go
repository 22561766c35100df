// Package parser turns tokens into commands. Statements dispatch on the
// leading keyword; expressions are parsed by precedence climbing over the
// operator table of the module currently being read, so `infix`
// declarations take effect immediately.
package parser

import (
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/lexer"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/token"
)

type Parser struct {
	lex   *lexer.Lexer
	world *module.World
	pool  *names.Pool

	curToken  token.Token
	peekToken token.Token

	// presection scanning state (see parseParen)
	sectionOK bool
	sectionOp *names.Name
}

func New(l *lexer.Lexer, w *module.World) *Parser {
	p := &Parser{lex: l, world: w, pool: w.Pool}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) errf(format string, args ...interface{}) *diag.Error {
	return diag.New(diag.Syn, format, args...).
		WithPos(p.world.ModuleName(), p.curToken.Line)
}

// Line reports the current source line, for positioning diagnostics.
func (p *Parser) Line() int { return p.curToken.Line }

// AtEOF reports whether all input is consumed.
func (p *Parser) AtEOF() bool { return p.curToken.Type == token.EOF }

// SkipToSemi advances past the next semicolon; the error-recovery point
// of every command.
func (p *Parser) SkipToSemi() {
	for p.curToken.Type != token.SEMI && p.curToken.Type != token.EOF {
		p.nextToken()
	}
	if p.curToken.Type == token.SEMI {
		p.nextToken()
	}
}

func (p *Parser) expect(t token.Type) error {
	if p.curToken.Type != t {
		return p.errf("expected %q, found %q", string(t), p.curToken.Literal)
	}
	p.nextToken()
	return nil
}

// expectSemi finishes a command.
func (p *Parser) expectSemi() error { return p.expect(token.SEMI) }

// identName consumes an identifier (alphanumeric or symbolic, possibly
// parenthesized) and returns its interned name.
func (p *Parser) identName() (*names.Name, error) {
	if p.curToken.Type == token.LPAREN && p.peekToken.Type == token.IDENT {
		p.nextToken()
		n := p.curToken.Name
		p.nextToken()
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return n, nil
	}
	if p.curToken.Type != token.IDENT {
		return nil, p.errf("identifier expected, found %q", p.curToken.Literal)
	}
	n := p.curToken.Name
	p.nextToken()
	return n, nil
}

// ParseCommand parses one top-level command, or returns nil at end of
// input.
func (p *Parser) ParseCommand() (Command, error) {
	switch p.curToken.Type {
	case token.EOF:
		return nil, nil

	case token.SEMI: // empty command
		p.nextToken()
		return p.ParseCommand()

	case token.USES:
		p.nextToken()
		ns, err := p.nameList()
		if err != nil {
			return nil, err
		}
		return &UsesCmd{Names: ns}, p.expectSemi()

	case token.TYPEVAR:
		p.nextToken()
		ns, err := p.nameList()
		if err != nil {
			return nil, err
		}
		return &TypevarCmd{Names: ns}, p.expectSemi()

	case token.INFIX, token.INFIXR:
		right := p.curToken.Type == token.INFIXR
		p.nextToken()
		ns, err := p.nameList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		if p.curToken.Type != token.NUM {
			return nil, p.errf("precedence expected")
		}
		prec := int(p.curToken.Num)
		p.nextToken()
		return &InfixCmd{Names: ns, Prec: prec, Right: right}, p.expectSemi()

	case token.DEC:
		p.nextToken()
		return p.parseDec()

	case token.DATA:
		p.nextToken()
		return p.parseData()

	case token.TYPE:
		p.nextToken()
		head, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.DEFEQ); err != nil {
			return nil, err
		}
		rhs, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &SynCmd{Head: head, RHS: rhs}, p.expectSemi()

	case token.ABSTYPE:
		p.nextToken()
		var heads []*TypeExpr
		for {
			h, err := p.parseType()
			if err != nil {
				return nil, err
			}
			heads = append(heads, h)
			if p.curToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		return &AbstypeCmd{Heads: heads}, p.expectSemi()

	case token.VALOF:
		p.nextToken()
		lhs, err := p.parseOpExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.IS); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &DefCmd{LHS: lhs, RHS: rhs}, p.expectSemi()

	case token.DISPLAY:
		p.nextToken()
		return &DisplayCmd{}, p.expectSemi()

	case token.SAVE:
		p.nextToken()
		n, err := p.identName()
		if err != nil {
			return nil, err
		}
		return &SaveCmd{Name: n}, p.expectSemi()

	case token.EXIT:
		p.nextToken()
		return &ExitCmd{}, p.expectSemi()

	case token.PRIVATE:
		p.nextToken()
		return &PrivateCmd{}, p.expectSemi()

	case token.EDIT:
		p.nextToken()
		cmd := &EditCmd{}
		if p.curToken.Type == token.IDENT {
			cmd.Name = p.curToken.Name
			p.nextToken()
		}
		return cmd, p.expectSemi()

	case token.WRITE:
		p.nextToken()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		cmd := &WriteCmd{Expr: e}
		if p.curToken.Type == token.TO {
			p.nextToken()
			if p.curToken.Type != token.STRING {
				return nil, p.errf("file name expected after 'to'")
			}
			cmd.File = p.curToken.Literal
			cmd.HasFile = true
			p.nextToken()
		}
		return cmd, p.expectSemi()

	default:
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ExprCmd{Expr: e}, p.expectSemi()
	}
}

func (p *Parser) nameList() ([]*names.Name, error) {
	var ns []*names.Name
	for {
		n, err := p.identName()
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
		if p.curToken.Type != token.COMMA {
			return ns, nil
		}
		p.nextToken()
	}
}

// parseDec parses `dec f : T;` with comma-separated additional items;
// `dec f, g : T` declares both names at the type.
func (p *Parser) parseDec() (Command, error) {
	var items []DecItem
	for {
		ns, err := p.nameList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			items = append(items, DecItem{Name: n, Type: t})
		}
		if p.curToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	return &DecCmd{Items: items}, p.expectSemi()
}

func (p *Parser) parseData() (Command, error) {
	head, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.DEFEQ); err != nil {
		return nil, err
	}
	var alts []*ConDecl
	for {
		alt, err := p.parseConDecl()
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
		if p.curToken.Type != token.ALT {
			break
		}
		p.nextToken()
	}
	return &DataCmd{Head: head, Alts: alts}, p.expectSemi()
}

// parseConDecl parses one constructor alternative: `c`, `c t1 t2`,
// `c(t1, t2)`, or the infix form `t1 OP t2`.
func (p *Parser) parseConDecl() (*ConDecl, error) {
	left, err := p.parseTypeApp()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.IDENT && p.isPlainSymbol(p.curToken.Name) {
		name := p.curToken.Name
		p.nextToken()
		right, err := p.parseTypeApp()
		if err != nil {
			return nil, err
		}
		return &ConDecl{Name: name, Args: []*TypeExpr{left, right}, Tupled: true}, nil
	}
	if left.Mu || left.Name == nil {
		return nil, p.errf("constructor expected")
	}
	return &ConDecl{Name: left.Name, Args: left.Args, Tupled: left.Tupled}, nil
}

// isPlainSymbol reports a symbolic identifier other than the built-in
// type operators.
func (p *Parser) isPlainSymbol(n *names.Name) bool {
	s := n.String()
	if s == "#" || s == "->" {
		return false
	}
	c := s[0]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_')
}
