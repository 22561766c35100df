// Package resolve rewrites identifier occurrences after parsing: pattern
// variables get scope indices and paths, expression variables become
// Param/Cons/Defun references, and n+k patterns are recognized. It runs
// before type checking.
package resolve

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/path"
)

// Printer renders expressions in diagnostics; the real printer is passed
// in to avoid a dependency cycle.
type Printer interface {
	Expr(*ast.Expr) string
}

type Resolver struct {
	World *module.World
	Print Printer

	vars   []*ast.Expr // pattern variable nodes, all open scopes
	levels []int       // start index of each open scope in vars
}

func New(w *module.World, p Printer) *Resolver {
	return &Resolver{World: w, Print: p}
}

// Branch resolves one equation from a clean scope stack.
func (r *Resolver) Branch(br *ast.Branch) error {
	r.vars = r.vars[:0]
	r.levels = append(r.levels[:0], 0)
	return r.branch(br)
}

func (r *Resolver) branch(br *ast.Branch) error {
	if err := r.enterScope(br.Formals); err != nil {
		return err
	}
	if err := r.expr(br.Expr); err != nil {
		return err
	}
	r.leaveScope(br.Formals)
	return nil
}

func (r *Resolver) recEqn(br *ast.Branch, arg *ast.Expr) error {
	if err := r.enterScope(br.Formals); err != nil {
		return err
	}
	if err := r.expr(br.Expr); err != nil {
		return err
	}
	if err := r.expr(arg); err != nil {
		return err
	}
	r.leaveScope(br.Formals)
	return nil
}

func (r *Resolver) muExpr(muvar, body *ast.Expr) error {
	if err := r.enterScope(muvar); err != nil {
		return err
	}
	if err := r.expr(body); err != nil {
		return err
	}
	r.leaveScope(muvar)
	return nil
}

// enterScope opens one scope per formal; the first argument in the
// reversed spine is the innermost scope.
func (r *Resolver) enterScope(formals *ast.Expr) error {
	if formals == nil || formals.Kind != ast.EApply {
		return nil
	}
	if err := r.enterScope(formals.Func); err != nil {
		return err
	}
	if err := r.pattern(formals.Arg, path.Stack{}); err != nil {
		return err
	}
	formals.NVars = len(r.vars) - r.levels[len(r.levels)-1]
	r.levels = append(r.levels, len(r.vars))
	return nil
}

func (r *Resolver) leaveScope(formals *ast.Expr) {
	n := ast.ArityOfFormals(formals)
	r.levels = r.levels[:len(r.levels)-n]
	r.vars = r.vars[:r.levels[len(r.levels)-1]]
}

func (r *Resolver) pattern(p *ast.Expr, pth path.Stack) error {
	switch p.Kind {
	case ast.ENum:
		if p.Num < 0 || p.Num != float64(int(p.Num)) {
			return diag.New(diag.Sem, "number patterns must be natural numbers")
		}
		return nil
	case ast.EChar:
		return nil
	case ast.EPair:
		if err := r.pattern(p.Left, pth.Push(path.Left)); err != nil {
			return err
		}
		return r.pattern(p.Right, pth.Push(path.Right))
	case ast.EApply:
		if arg := p.Arg; p.Func.Kind == ast.EVar &&
			p.Func.VarName.String() == "+" &&
			arg.Kind == ast.EPair && arg.Right.Kind == ast.ENum {
			// change to a plus pattern
			incr := arg.Right.Num
			if incr < 0 || incr != float64(int(incr)) {
				return diag.New(diag.Sem, "number patterns must be natural numbers")
			}
			p.Kind = ast.EPlus
			p.Incr = int(incr)
			p.Rest = arg.Left
			for i := 0; i < p.Incr; i++ {
				pth = pth.Push(path.Pred)
			}
			return r.pattern(p.Rest, pth)
		}
		return r.constructor(p, 0, &pth)
	case ast.EVar:
		if cp := r.World.LookupCons(p.VarName); cp != nil && cp.NArgs == 0 {
			p.Kind = ast.ECons
			p.Con = cp
			return nil
		}
		if p.VarName != r.World.Wildcard() {
			base := r.levels[len(r.levels)-1]
			for _, v := range r.vars[base:] {
				if v.VarName == p.VarName {
					return diag.New(diag.Sem, "%s: occurs twice in pattern", p.VarName)
				}
			}
		}
		p.VarIndex = len(r.vars) - r.levels[len(r.levels)-1]
		p.Dirs = pth.Reverse()
		r.vars = append(r.vars, p)
		return nil
	case ast.ECons:
		if p.Con.NArgs == 0 {
			return nil
		}
	}
	return diag.New(diag.Sem, "illegal pattern").WithDetail(r.Print.Expr(p))
}

// constructor resolves a constructed pattern (...((c p1) p2) ... pn. The
// value it matches is laid out as c(v1, (v2, ... (vn-1, vn)...)), so the
// path for each argument is derived from the previous one, bottom-up.
func (r *Resolver) constructor(p *ast.Expr, level int, pth *path.Stack) error {
	switch p.Kind {
	case ast.EVar:
		cp := r.World.LookupCons(p.VarName)
		if cp == nil {
			return diag.New(diag.Sem, "'%s': unknown constructor", p.VarName)
		}
		if cp.NArgs != level {
			return diag.New(diag.Sem, "'%s': incorrect arity", cp.Name)
		}
		p.Kind = ast.ECons
		p.Con = cp
		if cp == r.World.Succ {
			*pth = pth.Push(path.Pred)
		} else {
			*pth = pth.Push(path.Strip)
		}
		return nil
	case ast.ECons:
		if p.Con.NArgs != level {
			return diag.New(diag.Sem, "'%s': incorrect arity", p.Con.Name)
		}
		if p.Con == r.World.Succ {
			*pth = pth.Push(path.Pred)
		} else {
			*pth = pth.Push(path.Strip)
		}
		return nil
	case ast.EApply:
		if err := r.constructor(p.Func, level+1, pth); err != nil {
			return err
		}
		if level > 0 {
			if err := r.pattern(p.Arg, pth.Push(path.Left)); err != nil {
				return err
			}
			*pth = pth.Push(path.Right)
			return nil
		}
		// last argument
		return r.pattern(p.Arg, *pth)
	}
	return diag.New(diag.Sem, "constructor required").WithDetail(r.Print.Expr(p))
}

func (r *Resolver) expr(e *ast.Expr) error {
	switch e.Kind {
	case ast.ENum, ast.EChar, ast.ECons:
		return nil
	case ast.EPair:
		if err := r.expr(e.Left); err != nil {
			return err
		}
		return r.expr(e.Right)
	case ast.EApply, ast.EIf, ast.EWhere, ast.ELet:
		if err := r.expr(e.Func); err != nil {
			return err
		}
		return r.expr(e.Arg)
	case ast.ERLet, ast.ERWhere:
		return r.recEqn(e.Func.Branch, e.Arg)
	case ast.EMu:
		return r.muExpr(e.MuVar, e.Body)
	case ast.ELambda, ast.EEqn, ast.EPresect, ast.EPostsect:
		for br := e.Branch; br != nil; br = br.Next {
			if ast.ArityOfFormals(br.Formals) != e.Arity {
				return diag.New(diag.Sem, "branches have different arities").
					WithDetail(r.Print.Expr(e))
			}
			if err := r.branch(br); err != nil {
				return err
			}
		}
		return nil
	case ast.EVar:
		return r.variable(e)
	}
	return diag.New(diag.Intern, "unexpected expression in resolver")
}

// variable resolves an identifier occurrence to the innermost enclosing
// binding, a data constructor, or a defined function — in that order.
// succ stays callable: as an expression it is the function, as a pattern
// head it is the constructor.
func (r *Resolver) variable(e *ast.Expr) error {
	name := e.VarName
	for i := len(r.vars) - 1; i >= 0; i-- {
		if r.vars[i].VarName != name {
			continue
		}
		// find the scope that owns index i
		s := 0
		for s < len(r.levels) && r.levels[s] <= i {
			s++
		}
		e.Kind = ast.EParam
		e.Patt = r.vars[i]
		e.Level = len(r.levels) - 1 - s
		e.Where = r.vars[i].Dirs
		return nil
	}
	if cp := r.World.LookupCons(name); cp != nil && cp != r.World.Succ {
		e.Kind = ast.ECons
		e.Con = cp
		return nil
	}
	if fn := r.World.LookupFn(name); fn != nil {
		e.Kind = ast.EDefun
		e.Fn = fn
		return nil
	}
	return diag.New(diag.Sem, "%s: undefined variable", name)
}
