package parser

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/token"
)

// Expressions. Application binds tightest, then the operator table, then
// pair construction with comma; `where` clauses attach loosest.

// parseExpression parses a full expression including where-clauses.
func (p *Parser) parseExpression() (*ast.Expr, error) {
	e, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == token.WHERE || p.curToken.Type == token.WHEREREC {
		rec := p.curToken.Type == token.WHEREREC
		p.nextToken()
		pattern, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.DEFEQ); err != nil {
			return nil, err
		}
		bound, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		e = ast.NewWhere(e, pattern, bound, rec)
	}
	return e, nil
}

// parsePair handles the comma, which nests to the right.
func (p *Parser) parsePair() (*ast.Expr, error) {
	e, err := p.parseOpExpr(0)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type == token.COMMA {
		p.nextToken()
		right, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		return ast.NewPair(e, right), nil
	}
	return e, nil
}

// parseOpExpr climbs operator precedences using the table of the module
// being read. Operator applications are built as applications of the
// operator name to a pair; name resolution later decides whether that
// name is a constructor or a function.
func (p *Parser) parseOpExpr(minPrec int) (*ast.Expr, error) {
	left, err := p.parseApplication()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == token.IDENT {
		op := p.world.LookupOp(p.curToken.Name)
		if op == nil || op.Prec < minPrec {
			break
		}
		if p.sectionOK && p.peekToken.Type == token.RPAREN {
			// a trailing operator inside parentheses is a presection
			p.sectionOp = p.curToken.Name
			p.nextToken()
			break
		}
		name := p.curToken.Name
		line := p.curToken.Line
		p.nextToken()
		next := op.Prec + 1
		if op.Assoc == module.AssocRight {
			next = op.Prec
		}
		right, err := p.parseOpExpr(next)
		if err != nil {
			return nil, err
		}
		opExpr := ast.NewVar(name)
		opExpr.Line = line
		left = ast.NewApply(opExpr, ast.NewPair(left, right))
	}
	return left, nil
}

func (p *Parser) parseApplication() (*ast.Expr, error) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.startsAtom() {
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		e = ast.NewApply(e, arg)
	}
	return e, nil
}

func (p *Parser) startsAtom() bool {
	switch p.curToken.Type {
	case token.NUM, token.CHAR, token.STRING, token.LPAREN, token.LBRACKET,
		token.LAMBDA, token.IF, token.LET, token.LETREC, token.MU:
		return true
	case token.IDENT:
		// an identifier with an operator meaning is an infix occurrence
		return p.world.LookupOp(p.curToken.Name) == nil
	}
	return false
}

func (p *Parser) parseAtom() (*ast.Expr, error) {
	switch p.curToken.Type {
	case token.NUM:
		e := ast.NewNum(p.curToken.Num)
		e.Line = p.curToken.Line
		p.nextToken()
		return e, nil

	case token.CHAR:
		e := ast.NewChar(p.curToken.Literal[0])
		e.Line = p.curToken.Line
		p.nextToken()
		return e, nil

	case token.STRING:
		e := p.textExpr(p.curToken.Literal)
		p.nextToken()
		return e, nil

	case token.IDENT:
		e := ast.NewVar(p.curToken.Name)
		e.Line = p.curToken.Line
		p.nextToken()
		return e, nil

	case token.LPAREN:
		return p.parseParen()

	case token.LBRACKET:
		return p.parseListDisplay()

	case token.LAMBDA:
		return p.parseLambda()

	case token.IF:
		return p.parseIf()

	case token.LET, token.LETREC:
		return p.parseLet()

	case token.MU:
		return p.parseMuExpr()
	}
	return nil, p.errf("expression expected, found %q", p.curToken.Literal)
}

// parseParen handles grouping, pairs, operator values `(op)`, and the
// sections `(e op)` and `(op e)`.
func (p *Parser) parseParen() (*ast.Expr, error) {
	p.nextToken() // (

	// operator value or postsection
	if p.curToken.Type == token.IDENT && p.world.LookupOp(p.curToken.Name) != nil {
		opName := p.curToken.Name
		line := p.curToken.Line
		p.nextToken()
		if p.curToken.Type == token.RPAREN {
			p.nextToken()
			e := ast.NewVar(opName)
			e.Line = line
			return e, nil
		}
		arg, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return p.postsection(opName, arg), nil
	}

	savedOK, savedOp := p.sectionOK, p.sectionOp
	p.sectionOK, p.sectionOp = true, nil
	e, err := p.parsePair()
	section := p.sectionOp
	p.sectionOK, p.sectionOp = savedOK, savedOp
	if err != nil {
		return nil, err
	}
	if section != nil {
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return p.presection(section, e), nil
	}
	return e, p.expect(token.RPAREN)
}

func (p *Parser) parseListDisplay() (*ast.Expr, error) {
	p.nextToken() // [
	if p.curToken.Type == token.RBRACKET {
		p.nextToken()
		return ast.NewVar(p.pool.Intern("nil")), nil
	}
	var elems []*ast.Expr
	for {
		e, err := p.parseOpExpr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.curToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	out := ast.NewVar(p.pool.Intern("nil"))
	for i := len(elems) - 1; i >= 0; i-- {
		out = ast.NewApply(ast.NewVar(p.pool.Intern("::")), ast.NewPair(elems[i], out))
	}
	return out, nil
}

func (p *Parser) parseLambda() (*ast.Expr, error) {
	p.nextToken() // lambda
	var first, last *ast.Branch
	for {
		br, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = br
		} else {
			last.Next = br
		}
		last = br
		if p.curToken.Type != token.BAR {
			break
		}
		p.nextToken()
	}
	return ast.NewFunc(first), nil
}

// parseBranch parses pattern atoms up to `=>` and the body.
func (p *Parser) parseBranch() (*ast.Branch, error) {
	var formals *ast.Expr
	for p.curToken.Type != token.GIVES {
		if !p.startsAtom() {
			return nil, p.errf("pattern expected, found %q", p.curToken.Literal)
		}
		pat, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		formals = ast.NewApply(formals, pat)
	}
	p.nextToken() // =>
	body, err := p.parseOpExpr(0)
	if err != nil {
		return nil, err
	}
	if formals == nil {
		return nil, p.errf("lambda needs at least one pattern")
	}
	return &ast.Branch{Formals: formals, Expr: body}, nil
}

func (p *Parser) parseIf() (*ast.Expr, error) {
	p.nextToken() // if
	cond, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	then, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseOpExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.NewIte(ast.NewVar(p.pool.Intern("if_then_else")), cond, then, els), nil
}

func (p *Parser) parseLet() (*ast.Expr, error) {
	rec := p.curToken.Type == token.LETREC
	p.nextToken()
	pattern, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.DEFEQ); err != nil {
		return nil, err
	}
	bound, err := p.parsePair()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.IN); err != nil {
		return nil, err
	}
	body, err := p.parseOpExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.NewLet(pattern, bound, body, rec), nil
}

func (p *Parser) parseMuExpr() (*ast.Expr, error) {
	p.nextToken() // mu
	pattern, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.GIVES); err != nil {
		return nil, err
	}
	body, err := p.parseOpExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.NewMu(pattern, body), nil
}

// textExpr builds the list-of-characters expression for a string literal.
func (p *Parser) textExpr(s string) *ast.Expr {
	out := ast.NewVar(p.pool.Intern("nil"))
	consName := p.pool.Intern("::")
	for i := len(s) - 1; i >= 0; i-- {
		out = ast.NewApply(ast.NewVar(consName), ast.NewPair(ast.NewChar(s[i]), out))
	}
	return out
}

// presection builds \x' => arg OP x' ; postsection builds \x' => x' OP arg.
func (p *Parser) presection(opName *names.Name, arg *ast.Expr) *ast.Expr {
	bound := p.sectionVar()
	e := ast.NewFunc(ast.NewUnary(
		ast.NewVar(bound),
		ast.NewApply(ast.NewVar(opName), ast.NewPair(arg, ast.NewVar(bound))),
		nil))
	e.Kind = ast.EPresect
	return e
}

func (p *Parser) postsection(opName *names.Name, arg *ast.Expr) *ast.Expr {
	bound := p.sectionVar()
	e := ast.NewFunc(ast.NewUnary(
		ast.NewVar(bound),
		ast.NewApply(ast.NewVar(opName), ast.NewPair(ast.NewVar(bound), arg)),
		nil))
	e.Kind = ast.EPostsect
	return e
}

// sectionVar is the bound variable of a section; the space keeps it
// distinct from anything the lexer can produce.
func (p *Parser) sectionVar() *names.Name {
	return p.pool.Intern(" x'")
}
