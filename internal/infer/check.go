package infer

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/names"
)

// ExprPrinter renders expressions and inference cells for diagnostics;
// the printer package provides the implementation.
type ExprPrinter interface {
	Expr(*ast.Expr) string
	TypeValue(*Cell) string
	QType(*ast.QType) string
	ResetTypeVars()
}

// Checker infers the types of expressions. Monomorphic within one
// declaration; every reference to a declared name instantiates a fresh
// copy of its scheme.
type Checker struct {
	U     *Unifier
	Print ExprPrinter

	NumType  *ast.DefType
	CharType *ast.DefType
	BoolType *ast.DefType

	// Singleton expressions for the list sugar.
	NilExpr, ConsExpr *ast.Expr

	// scopes of type cells for pattern variables; the last entry is the
	// innermost scope
	scopes [][]*Cell
}

func NewChecker(u *Unifier, p ExprPrinter) *Checker {
	return &Checker{U: u, Print: p}
}

func (ck *Checker) reset() {
	ck.scopes = ck.scopes[:0]
	ck.Print.ResetTypeVars()
}

func (ck *Checker) pushVars(n int) {
	vars := make([]*Cell, n)
	for i := range vars {
		vars[i] = NewTVar()
	}
	ck.scopes = append(ck.scopes, vars)
}

func (ck *Checker) popVars() {
	ck.scopes = ck.scopes[:len(ck.scopes)-1]
}

// scopeAt returns the variable cells at the given distance from the
// innermost scope.
func (ck *Checker) scopeAt(level int) []*Cell {
	return ck.scopes[len(ck.scopes)-1-level]
}

// ChkFunc checks one new equation of a declared function against its
// declaration.
func (ck *Checker) ChkFunc(br *ast.Branch, fn *ast.Func) error {
	ck.reset()
	inferred, err := ck.tyBranch(br)
	if err != nil {
		return err
	}
	return ck.matchType(fn.Name, inferred, fn.QType)
}

// matchType requires the inferred type to be at least as general as the
// declared one.
func (ck *Checker) matchType(name *names.Name, inferred *Cell, declared *ast.QType) error {
	if ck.U.Instance(declared.Type, declared.NTVars, inferred) {
		return nil
	}
	return diag.New(diag.Type, "'%s': does not match declaration", name).
		WithDetail(
			"declared type: "+ck.Print.QType(declared),
			"inferred type: "+ck.Print.TypeValue(inferred),
		)
}

// TyInstance reports whether type1 is an instance of type2 (used when a
// constructor fulfils an implicit declaration).
func (ck *Checker) TyInstance(t1 *ast.Type, n1 int, t2 *ast.Type, n2 int) bool {
	ck.reset()
	return ck.U.Instance(t1, n1, ck.U.CopyType(t2, n2, false))
}

// ChkExpr types a top-level expression. The expression is the body of an
// implicit `input => expr` equation, so the variable `input` is in scope
// with type list char. The inferred type is returned for printing.
func (ck *Checker) ChkExpr(expr *ast.Expr) (*Cell, error) {
	ck.reset()
	ck.pushVars(0)
	ck.scopes[0] = append(ck.scopes[0], ck.U.NewListType(NewConstType(ck.CharType)))
	t, err := ck.tyExpr(expr)
	ck.popVars()
	return t, err
}

// ChkList types a `write` expression, which must produce a list.
func (ck *Checker) ChkList(expr *ast.Expr) (*Cell, error) {
	t, err := ck.ChkExpr(expr)
	if err != nil {
		return nil, err
	}
	if !ck.U.Unify(t, ck.U.NewListType(NewTVar())) {
		return nil, diag.New(diag.Type, "a 'write' expression must produce a list").
			WithDetail(ck.exprType(expr, t))
	}
	return t, nil
}

func (ck *Checker) exprType(e *ast.Expr, t *Cell) string {
	return ck.Print.Expr(e) + " : " + ck.Print.TypeValue(t)
}

func (ck *Checker) tyExpr(e *ast.Expr) (*Cell, error) {
	switch e.Kind {
	case ast.ENum:
		return NewConstType(ck.NumType), nil
	case ast.EChar:
		return NewConstType(ck.CharType), nil

	case ast.EDefun:
		if dt := functorOf(e); dt != nil {
			return ck.functorType(dt), nil
		}
		q := e.Fn.QType
		return ck.U.CopyType(q.Type, q.NTVars, false), nil

	case ast.ECons:
		// list and string sugar keep their restricted types
		if e == ck.NilExpr {
			return ck.U.NewListType(NewTVar()), nil
		}
		if e == ck.ConsExpr {
			elem := NewTVar()
			lst := ck.U.NewListType(elem)
			return ck.U.NewFuncType(ck.U.NewProdType(elem, lst), lst), nil
		}
		return ck.U.CopyType(e.Con.Type, e.Con.NTVars, false), nil

	case ast.ELambda, ast.EPresect, ast.EPostsect:
		return ck.tyList(e.Branch)

	case ast.EParam:
		return ck.tyPattern(e.Patt, e.Level)

	case ast.EPlus:
		numType := NewConstType(ck.NumType)
		argType, err := ck.tyExpr(e.Rest)
		if err != nil {
			return nil, err
		}
		if !ck.U.Unify(numType, argType) {
			return nil, diag.New(diag.Type, "argument has wrong type").
				WithDetail(ck.Print.Expr(e), ck.exprType(e.Rest, argType))
		}
		return numType, nil

	case ast.EVar:
		// a pattern variable inside the pattern being typed
		return ck.scopeAt(0)[e.VarIndex], nil

	case ast.EPair:
		l, err := ck.tyExpr(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := ck.tyExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return ck.U.NewProdType(l, r), nil

	case ast.EIf:
		return ck.tyIf(e)

	case ast.EWhere, ast.ELet:
		return ck.tyEqn(e.Func.Branch, e.Arg)

	case ast.ERWhere, ast.ERLet:
		return ck.tyRecEqn(e.Func.Branch, e.Arg)

	case ast.EMu:
		return ck.tyMuExpr(e.MuVar, e.Body)

	case ast.EApply:
		funcType, err := ck.tyExpr(e.Func)
		if err != nil {
			return nil, err
		}
		argType, err := ck.tyExpr(e.Arg)
		if err != nil {
			return nil, err
		}
		if !ck.U.Unify(funcType, ck.U.NewFuncType(argType, NewTVar())) {
			detail := []string{ck.Print.Expr(e), ck.exprType(e.Func, funcType)}
			// show the operands of an infix application separately
			if e.Arg.Kind == ast.EPair {
				at := Deref(argType)
				if at.Kind == CTCons && Deref(at.Full).TCons == ck.U.Product {
					args := Deref(at.Full).TArg
					detail = append(detail,
						ck.exprType(e.Arg.Left, args.Head),
						ck.exprType(e.Arg.Right, args.Tail.Head))
				} else {
					detail = append(detail, ck.exprType(e.Arg, argType))
				}
			} else {
				detail = append(detail, ck.exprType(e.Arg, argType))
			}
			return nil, diag.New(diag.Type, "argument has wrong type").WithDetail(detail...)
		}
		return Deref(Deref(funcType).Full).TArg.Tail.Head, nil
	}
	return nil, diag.New(diag.Intern, "unexpected expression in checker")
}

// tyPattern types a pattern (or a reference to one of its variables)
// against the scope at the given level.
func (ck *Checker) tyPattern(p *ast.Expr, level int) (*Cell, error) {
	if level == 0 {
		return ck.tyExpr(p)
	}
	// make the target scope innermost for the duration
	saved := ck.scopes
	ck.scopes = ck.scopes[:len(ck.scopes)-level]
	t, err := ck.tyExpr(p)
	ck.scopes = saved
	return t, err
}

func (ck *Checker) tyIf(e *ast.Expr) (*Cell, error) {
	ifExpr := e.Func.Func.Arg
	thenExpr := e.Func.Arg
	elseExpr := e.Arg

	condType, err := ck.tyExpr(ifExpr)
	if err != nil {
		return nil, err
	}
	if !ck.U.Unify(condType, NewConstType(ck.BoolType)) {
		return nil, diag.New(diag.Type, "predicate is not a truth value").
			WithDetail(ck.exprType(ifExpr, condType))
	}
	thenType, err := ck.tyExpr(thenExpr)
	if err != nil {
		return nil, err
	}
	elseType, err := ck.tyExpr(elseExpr)
	if err != nil {
		return nil, err
	}
	if !ck.U.Unify(thenType, elseType) {
		return nil, diag.New(diag.Type, "conflict between branches of conditional").
			WithDetail(ck.exprType(thenExpr, thenType), ck.exprType(elseExpr, elseType))
	}
	return thenType, nil
}

//	A' |- pat: t1   A, A' |- val: t2   A |- exp: t1
//	-----------------------------------------------
//	A |- let pat == exp in val : t2
func (ck *Checker) tyEqn(br *ast.Branch, expr *ast.Expr) (*Cell, error) {
	ck.pushVars(br.Formals.NVars)
	patType, err := ck.tyPattern(br.Formals.Arg, 0)
	if err != nil {
		return nil, err
	}
	valType, err := ck.tyExpr(br.Expr)
	if err != nil {
		return nil, err
	}
	ck.popVars()
	expType, err := ck.tyExpr(expr)
	if err != nil {
		return nil, err
	}
	if !ck.U.Unify(patType, expType) {
		return nil, diag.New(diag.Type, "sides of equation have conflicting types").
			WithDetail(ck.exprType(br.Formals.Arg, patType), ck.exprType(expr, expType))
	}
	return valType, nil
}

// The recursive variant checks the bound expression with the pattern
// variables still in scope.
func (ck *Checker) tyRecEqn(br *ast.Branch, expr *ast.Expr) (*Cell, error) {
	ck.pushVars(br.Formals.NVars)
	patType, err := ck.tyPattern(br.Formals.Arg, 0)
	if err != nil {
		return nil, err
	}
	valType, err := ck.tyExpr(br.Expr)
	if err != nil {
		return nil, err
	}
	expType, err := ck.tyExpr(expr)
	if err != nil {
		return nil, err
	}
	ck.popVars()
	if !ck.U.Unify(patType, expType) {
		return nil, diag.New(diag.Type, "sides of equation have conflicting types").
			WithDetail(ck.exprType(br.Formals.Arg, patType), ck.exprType(expr, expType))
	}
	return valType, nil
}

func (ck *Checker) tyMuExpr(muvar, body *ast.Expr) (*Cell, error) {
	ck.pushVars(muvar.NVars)
	patType, err := ck.tyPattern(muvar.Arg, 0)
	if err != nil {
		return nil, err
	}
	expType, err := ck.tyExpr(body)
	if err != nil {
		return nil, err
	}
	ck.popVars()
	if !ck.U.Unify(patType, expType) {
		return nil, diag.New(diag.Type, "pattern and body have conflicting types").
			WithDetail(ck.exprType(muvar.Arg, patType), ck.exprType(body, expType))
	}
	return expType, nil
}

// tyList requires the alternatives of a lambda to share one type.
func (ck *Checker) tyList(br *ast.Branch) (*Cell, error) {
	t, err := ck.tyBranch(br)
	if err != nil {
		return nil, err
	}
	for b := br.Next; b != nil; b = b.Next {
		bt, err := ck.tyBranch(b)
		if err != nil {
			return nil, err
		}
		if !ck.U.Unify(t, bt) {
			return nil, diag.New(diag.Type, "alternatives have incompatible types").
				WithDetail(ck.exprType(b.Expr, bt))
		}
	}
	return t, nil
}

//	A1 |- p1: t1 ... An |- pn: tn   A, A1..An |- e: t
//	-------------------------------------------------
//	A |- (p1 ... pn => e) : t1 -> ... -> tn -> t
//
// Because the last formal is at the front of the spine and the body must
// be checked after all the patterns, the formals are typed on the way
// back out of the recursion: the innermost parameter's scope is pushed
// first, leaving the last parameter's scope innermost.
func (ck *Checker) tyBranch(br *ast.Branch) (*Cell, error) {
	t, err := ck.tyFormals(br.Formals, nil)
	if err != nil {
		return nil, err
	}
	bodyType, err := ck.tyExpr(br.Expr)
	if err != nil {
		return nil, err
	}
	for f := br.Formals; f != nil && f.Kind == ast.EApply; f = f.Func {
		ck.popVars()
	}
	if t == nil {
		return bodyType, nil
	}
	// plug the result slot at the end of the arrow chain
	cur := t
	for {
		args := Deref(cur).Full.TArg
		if args.Tail.Head == nil {
			args.Tail.Head = bodyType
			return t, nil
		}
		cur = args.Tail.Head
	}
}

// tyFormals builds t1 -> ... -> tn -> <hole> with fresh arrows, typing
// each pattern into its argument slot.
func (ck *Checker) tyFormals(formals *ast.Expr, rest *Cell) (*Cell, error) {
	if formals == nil || formals.Kind != ast.EApply {
		return rest, nil
	}
	arrow := ck.U.NewFuncType(nil, rest)
	top, err := ck.tyFormals(formals.Func, arrow)
	if err != nil {
		return nil, err
	}
	ck.pushVars(formals.NVars)
	patType, err := ck.tyPattern(formals.Arg, 0)
	if err != nil {
		return nil, err
	}
	arrow.Full.TArg.Head = patType
	return top, nil
}
