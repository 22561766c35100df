package printer

import (
	"fmt"
	"strings"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/eval"
	"github.com/hopelang/hope/internal/names"
)

// Value renders a computed value, forcing as much of it as printing
// needs. Lists and strings display specially when the spine forces
// without error; a failure mid-print leaves what was reached followed by
// an ellipsis, and the error is returned for the caller to report.
func (p *Printer) Value(c *eval.Cell) (string, error) {
	var b strings.Builder
	err := p.value(&b, c, precBody)
	return b.String(), err
}

func (p *Printer) value(b *strings.Builder, c *eval.Cell, context int) error {
	v, err := p.Ev.Force(c)
	if err != nil {
		b.WriteString("...")
		return err
	}
	return p.whnf(b, v, context)
}

func (p *Printer) whnf(b *strings.Builder, v *eval.Cell, context int) error {
	prec := precValue(v)
	var err error
	p.paren(b, prec, context, func() {
		switch v.Kind {
		case eval.KNum:
			b.WriteString(eval.FormatNum(v.Num))
		case eval.KChar:
			fmt.Fprintf(b, "'%s'", escapeChar(v.Char))
		case eval.KConst:
			b.WriteString(v.Con.Name.String())
		case eval.KCons:
			err = p.consValue(b, v, innerPrec(prec, context))
		case eval.KPair:
			if err = p.value(b, v.Left, precComma+1); err != nil {
				return
			}
			b.WriteString(", ")
			err = p.value(b, v.Right, precComma)
		case eval.KPApp:
			err = p.papp(b, v, innerPrec(prec, context))
		}
	})
	return err
}

// innerPrec keeps the context when no parentheses were emitted.
func innerPrec(prec, context int) int {
	if prec < context {
		return precBody
	}
	return context
}

func (p *Printer) consValue(b *strings.Builder, v *eval.Cell, context int) error {
	if v.Con == p.World.ConsC {
		return p.listValue(b, v)
	}
	return p.consApp(b, v.Con.Name, v.Con.NArgs, v.Arg, context)
}

// consApp prints a constructor application; one "argument" cell carries
// several arguments as a pair spine.
func (p *Printer) consApp(b *strings.Builder, name *names.Name, nargs int, arg *eval.Cell, context int) error {
	if op := p.World.LookupOp(name); op != nil {
		av, err := p.Ev.Force(arg)
		if err != nil {
			b.WriteString("...")
			return err
		}
		if av.Kind == eval.KPair {
			var err error
			p.paren(b, opPrec(op), context, func() {
				if err = p.value(b, av.Left, leftPrec(op)); err != nil {
					return
				}
				fmt.Fprintf(b, " %s ", name)
				err = p.value(b, av.Right, rightPrec(op))
			})
			return err
		}
		fmt.Fprintf(b, "(%s) ", name)
		return p.whnf(b, av, precArg)
	}
	b.WriteString(name.String())
	for nargs > 1 {
		av, err := p.Ev.Force(arg)
		if err != nil {
			b.WriteString(" ...")
			return err
		}
		b.WriteString(" ")
		if err := p.value(b, av.Left, precArg); err != nil {
			return err
		}
		arg = av.Right
		nargs--
	}
	b.WriteString(" ")
	return p.value(b, arg, precArg)
}

// listValue prints a forced non-empty list, as a string when every
// element is a character.
func (p *Printer) listValue(b *strings.Builder, v *eval.Cell) error {
	isString, err := p.stringSpine(v)
	if err != nil {
		// print elementwise as far as forcing reaches
		isString = false
	}
	if isString {
		b.WriteString("\"")
		for v.Kind == eval.KCons {
			ch, _ := p.Ev.Force(v.Arg.Left)
			b.WriteString(escapeStringChar(ch.Char))
			if v, err = p.Ev.Force(v.Arg.Right); err != nil {
				return err
			}
		}
		b.WriteString("\"")
		return nil
	}
	b.WriteString("[")
	for {
		if err := p.value(b, v.Arg.Left, precComma+1); err != nil {
			return err
		}
		next, err := p.Ev.Force(v.Arg.Right)
		if err != nil {
			b.WriteString(", ...")
			return err
		}
		if next.Kind == eval.KConst {
			break
		}
		if next.Kind != eval.KCons {
			b.WriteString(", ...]")
			return nil
		}
		b.WriteString(", ")
		v = next
	}
	b.WriteString("]")
	return nil
}

// stringSpine forces the whole list spine and reports whether every
// element is a character.
func (p *Printer) stringSpine(v *eval.Cell) (bool, error) {
	isString := true
	for v.Kind == eval.KCons && v.Con == p.World.ConsC {
		elem, err := p.Ev.Force(v.Arg.Left)
		if err != nil {
			return false, err
		}
		if elem.Kind != eval.KChar {
			isString = false
		}
		if v, err = p.Ev.Force(v.Arg.Right); err != nil {
			return false, err
		}
	}
	return isString && v.Kind == eval.KConst, nil
}

// papp prints a partial application with its collected arguments.
func (p *Printer) papp(b *strings.Builder, v *eval.Cell, context int) error {
	switch v.Expr.Kind {
	case ast.EDefun:
		return p.nameApp(b, v.Expr.Fn.Name, v.Env, v.Expr.Fn.Arity-v.Arity, context)
	case ast.ECons:
		return p.nameApp(b, v.Expr.Con.Name, v.Env, v.Expr.Con.NArgs-v.Arity, context)
	default: // lambda and the like
		return p.lambdaApp(b, v.Expr, v.Env, v.Expr.Arity-v.Arity, context)
	}
}

func (p *Printer) nameApp(b *strings.Builder, name *names.Name, env *eval.Cell, nargs, context int) error {
	if nargs <= 0 {
		p.name(b, name, context)
		return nil
	}
	var err error
	p.paren(b, precApply, context, func() {
		if err = p.nameApp(b, name, env.Right, nargs-1, precApply); err != nil {
			return
		}
		b.WriteString(" ")
		err = p.value(b, env.Left, precArg)
	})
	return err
}

func (p *Printer) lambdaApp(b *strings.Builder, e *ast.Expr, env *eval.Cell, nargs, context int) error {
	if nargs <= 0 {
		p.expr(b, e, context)
		return nil
	}
	var err error
	p.paren(b, precApply, context, func() {
		if err = p.lambdaApp(b, e, env.Right, nargs-1, precApply); err != nil {
			return
		}
		b.WriteString(" ")
		err = p.value(b, env.Left, precArg)
	})
	return err
}

func precValue(v *eval.Cell) int {
	switch v.Kind {
	case eval.KNum, eval.KChar, eval.KConst:
		return precAtomic
	case eval.KCons:
		return precApply
	case eval.KPair:
		return precComma
	case eval.KPApp:
		switch v.Expr.Kind {
		case ast.EDefun:
			if v.Expr.Fn.Arity > v.Arity {
				return precApply
			}
			return precAtomic
		case ast.ECons:
			if v.Expr.Con.NArgs > v.Arity {
				return precApply
			}
			return precAtomic
		default:
			return precApply
		}
	}
	return precAtomic
}

// FMatch renders a function applied to its forced actual parameters for
// a match-failure diagnostic.
func (p *Printer) FMatch(fn *ast.Func, env *eval.Cell) string {
	var b strings.Builder
	_ = p.nameApp(&b, fn.Name, env, fn.Arity, precBody)
	return b.String()
}

// LMatch does the same for a lambda or equation.
func (p *Printer) LMatch(who *ast.Expr, env *eval.Cell) string {
	var b strings.Builder
	if who.Kind == ast.EEqn {
		p.expr(&b, who.Branch.Formals.Arg, precBody)
		b.WriteString(" == ")
		_ = p.value(&b, env.Left, precBody)
	} else {
		_ = p.lambdaApp(&b, who, env, who.Arity, precBody)
	}
	return b.String()
}

func escapeStringChar(c byte) string {
	if c == '"' {
		return "\\\""
	}
	if c == '\\' {
		return "\\\\"
	}
	if c == '\n' {
		return "\\n"
	}
	if c == '\t' {
		return "\\t"
	}
	return string(c)
}
