// Package printer renders expressions, types, values and whole modules.
// The same renderers serve diagnostics, the interactive `display`
// command, and `save`, whose output must re-parse to the same state.
package printer

import (
	"fmt"
	"strings"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/eval"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
)

// Precedence levels for rendering; operator precedences 0..9 sit between
// comma and application.
const (
	precBody   = 0
	precComma  = 1
	precOpBase = 2 // operator with precedence p prints at precOpBase+p
	precApply  = 12
	precArg    = 13
	precAtomic = 14
)

type Printer struct {
	World *module.World
	Ev    *eval.Evaluator

	tvCount int // inference-variable numbering
}

func New(w *module.World) *Printer {
	return &Printer{World: w}
}

func opPrec(op *module.Op) int { return precOpBase + op.Prec }

func leftPrec(op *module.Op) int {
	if op.Assoc == module.AssocLeft {
		return opPrec(op)
	}
	return opPrec(op) + 1
}

func rightPrec(op *module.Op) int {
	if op.Assoc == module.AssocRight {
		return opPrec(op)
	}
	return opPrec(op) + 1
}

// Expr renders an expression for diagnostics and module dumps.
func (p *Printer) Expr(e *ast.Expr) string {
	var b strings.Builder
	p.expr(&b, e, precBody)
	return b.String()
}

func (p *Printer) expr(b *strings.Builder, e *ast.Expr, context int) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ENum:
		b.WriteString(eval.FormatNum(e.Num))
	case ast.EChar:
		fmt.Fprintf(b, "'%s'", escapeChar(e.Char))
	case ast.ECons:
		p.name(b, e.Con.Name, context)
	case ast.EDefun:
		p.name(b, e.Fn.Name, context)
	case ast.EVar:
		p.name(b, e.VarName, context)
	case ast.EParam:
		p.name(b, e.Patt.VarName, context)
	case ast.EPair:
		p.paren(b, precComma, context, func() {
			p.expr(b, e.Left, precComma+1)
			b.WriteString(", ")
			p.expr(b, e.Right, precComma)
		})
	case ast.EPlus:
		p.paren(b, precOpBase, context, func() {
			p.expr(b, e.Rest, precOpBase+1)
			fmt.Fprintf(b, " + %d", e.Incr)
		})
	case ast.EApply:
		p.apply(b, e, context)
	case ast.EIf:
		p.paren(b, precBody, context, func() {
			b.WriteString("if ")
			p.expr(b, e.Func.Func.Arg, precBody)
			b.WriteString(" then ")
			p.expr(b, e.Func.Arg, precBody)
			b.WriteString(" else ")
			p.expr(b, e.Arg, precBody)
		})
	case ast.ELet, ast.ERLet:
		p.paren(b, precBody, context, func() {
			if e.Kind == ast.ERLet {
				b.WriteString("letrec ")
			} else {
				b.WriteString("let ")
			}
			br := e.Func.Branch
			p.expr(b, br.Formals.Arg, precComma)
			b.WriteString(" == ")
			p.expr(b, e.Arg, precBody)
			b.WriteString(" in ")
			p.expr(b, br.Expr, precBody)
		})
	case ast.EWhere, ast.ERWhere:
		p.paren(b, precBody, context, func() {
			br := e.Func.Branch
			p.expr(b, br.Expr, precComma)
			if e.Kind == ast.ERWhere {
				b.WriteString(" whererec ")
			} else {
				b.WriteString(" where ")
			}
			p.expr(b, br.Formals.Arg, precComma)
			b.WriteString(" == ")
			p.expr(b, e.Arg, precBody)
		})
	case ast.EMu:
		p.paren(b, precBody, context, func() {
			b.WriteString("mu ")
			p.expr(b, e.MuVar.Arg, precComma)
			b.WriteString(" => ")
			p.expr(b, e.Body, precBody)
		})
	case ast.EPresect, ast.EPostsect:
		// print sections back in their surface form
		body := e.Branch.Expr
		if body.Kind == ast.EApply && body.Arg.Kind == ast.EPair {
			opN := headName(body.Func)
			b.WriteString("(")
			if e.Kind == ast.EPresect {
				p.expr(b, body.Arg.Left, precArg)
				fmt.Fprintf(b, " %s", opN)
			} else {
				fmt.Fprintf(b, "%s ", opN)
				p.expr(b, body.Arg.Right, precArg)
			}
			b.WriteString(")")
			return
		}
		fallthrough
	case ast.ELambda, ast.EEqn:
		p.paren(b, precBody, context, func() {
			b.WriteString("lambda ")
			for br := e.Branch; br != nil; br = br.Next {
				if br != e.Branch {
					b.WriteString(" | ")
				}
				p.formals(b, br.Formals)
				b.WriteString(" => ")
				p.expr(b, br.Expr, precBody)
			}
		})
	case ast.EBuiltin, ast.E1Math, ast.E2Math, ast.EReturn:
		b.WriteString("<builtin>")
	}
}

// apply prints an application, rendering operator applications to pairs
// infix.
func (p *Printer) apply(b *strings.Builder, e *ast.Expr, context int) {
	if name := headName(e.Func); name != nil && e.Arg.Kind == ast.EPair {
		if op := p.World.LookupOp(name); op != nil {
			p.paren(b, opPrec(op), context, func() {
				p.expr(b, e.Arg.Left, leftPrec(op))
				fmt.Fprintf(b, " %s ", name)
				p.expr(b, e.Arg.Right, rightPrec(op))
			})
			return
		}
	}
	p.paren(b, precApply, context, func() {
		p.expr(b, e.Func, precApply)
		b.WriteString(" ")
		p.expr(b, e.Arg, precArg)
	})
}

// formals prints the parameter patterns of a branch, outermost first.
func (p *Printer) formals(b *strings.Builder, formals *ast.Expr) {
	if formals == nil || formals.Kind != ast.EApply {
		return
	}
	p.formals(b, formals.Func)
	if formals.Func != nil && formals.Func.Kind == ast.EApply {
		b.WriteString(" ")
	}
	p.expr(b, formals.Arg, precArg)
}

// name prints an identifier, parenthesizing operators in non-operator
// positions.
func (p *Printer) name(b *strings.Builder, n *names.Name, context int) {
	if context > precOpBase+9 && p.World.LookupOp(n) != nil {
		fmt.Fprintf(b, "(%s)", n)
		return
	}
	b.WriteString(n.String())
}

func headName(e *ast.Expr) *names.Name {
	switch e.Kind {
	case ast.EVar:
		return e.VarName
	case ast.ECons:
		return e.Con.Name
	case ast.EDefun:
		return e.Fn.Name
	}
	return nil
}

func (p *Printer) paren(b *strings.Builder, prec, context int, body func()) {
	if prec < context {
		b.WriteString("(")
		body()
		b.WriteString(")")
		return
	}
	body()
}

func escapeChar(c byte) string {
	switch c {
	case '\n':
		return "\\n"
	case '\t':
		return "\\t"
	case '\b':
		return "\\b"
	case '\r':
		return "\\r"
	case '\\':
		return "\\\\"
	case '\'':
		return "\\'"
	}
	return string(c)
}
