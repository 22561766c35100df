package parser

import (
	"github.com/hopelang/hope/internal/token"
)

// Type expressions: `->` binds loosest and associates right, `#` next,
// then application, then atoms.

func (p *Parser) parseType() (*TypeExpr, error) {
	left, err := p.parseProdType()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.IDENT && p.curToken.Name.String() == "->" {
		arrow := p.curToken.Name
		p.nextToken()
		right, err := p.parseType()
		if err != nil {
			return nil, err
		}
		// the built-in type operators take their arguments tupled
		return &TypeExpr{Name: arrow, Args: []*TypeExpr{left, right}, Tupled: true, Line: left.Line}, nil
	}
	return left, nil
}

func (p *Parser) parseProdType() (*TypeExpr, error) {
	left, err := p.parseTypeApp()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.IDENT && p.curToken.Name.String() == "#" {
		prod := p.curToken.Name
		p.nextToken()
		right, err := p.parseProdType()
		if err != nil {
			return nil, err
		}
		return &TypeExpr{Name: prod, Args: []*TypeExpr{left, right}, Tupled: true, Line: left.Line}, nil
	}
	return left, nil
}

// parseTypeApp parses a constructor applied to argument atoms, or the
// tupled form `T(t1, t2)`.
func (p *Parser) parseTypeApp() (*TypeExpr, error) {
	if p.curToken.Type == token.MU {
		return p.parseMuType()
	}
	head, err := p.parseTypeAtom()
	if err != nil {
		return nil, err
	}
	if head.Name == nil || len(head.Args) > 0 {
		return head, nil
	}
	// tupled application: T(t1, t2, ...)
	if p.curToken.Type == token.LPAREN {
		p.nextToken()
		args, err := p.typeList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			head.Args = args
			return head, nil
		}
		head.Args = args
		head.Tupled = true
		return head, nil
	}
	// curried application: T t1 t2
	for p.startsTypeAtom() {
		arg, err := p.parseTypeAtom()
		if err != nil {
			return nil, err
		}
		head.Args = append(head.Args, arg)
	}
	return head, nil
}

func (p *Parser) startsTypeAtom() bool {
	switch p.curToken.Type {
	case token.LPAREN:
		return true
	case token.IDENT:
		return !p.isPlainSymbol(p.curToken.Name) &&
			p.curToken.Name.String() != "#" && p.curToken.Name.String() != "->"
	}
	return false
}

func (p *Parser) parseTypeAtom() (*TypeExpr, error) {
	switch p.curToken.Type {
	case token.IDENT:
		if p.isPlainSymbol(p.curToken.Name) {
			return nil, p.errf("type expected, found %q", p.curToken.Literal)
		}
		t := &TypeExpr{Name: p.curToken.Name, Line: p.curToken.Line}
		p.nextToken()
		return t, nil
	case token.LPAREN:
		p.nextToken()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return t, p.expect(token.RPAREN)
	case token.MU:
		return p.parseMuType()
	}
	return nil, p.errf("type expected, found %q", p.curToken.Literal)
}

func (p *Parser) parseMuType() (*TypeExpr, error) {
	line := p.curToken.Line
	p.nextToken() // mu
	if p.curToken.Type != token.IDENT {
		return nil, p.errf("mu variable expected")
	}
	mv := p.curToken.Name
	p.nextToken()
	if err := p.expect(token.GIVES); err != nil {
		return nil, err
	}
	body, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &TypeExpr{Mu: true, MuVar: mv, Body: body, Line: line}, nil
}

func (p *Parser) typeList() ([]*TypeExpr, error) {
	var out []*TypeExpr
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.curToken.Type != token.COMMA {
			return out, nil
		}
		p.nextToken()
	}
}
