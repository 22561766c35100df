// Package ast holds the program representation shared by the resolver,
// type checker, pattern compiler and evaluator: expressions, branches,
// declared types and data constructors, and the compiled decision trees
// attached to functions and lambdas.
package ast

import (
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/path"
)

type ExprKind int

const (
	ENum ExprKind = iota
	EChar
	ECons   // data constructor reference
	EVar    // unresolved identifier
	EDefun  // resolved reference to a user function
	EParam  // resolved variable reference: (scope level, path)
	EPair
	EApply
	EPlus // n+k pattern
	EIf
	ELet
	ERLet
	EWhere
	ERWhere
	EMu
	ELambda
	EEqn
	EPresect
	EPostsect
	EBuiltin // native hook taking one forced argument
	E1Math   // native unary arithmetic
	E2Math   // native binary arithmetic
	EReturn  // identity; post-print continuation
)

// Expr is a tagged-variant expression node. Which fields are meaningful
// depends on Kind; the layout mirrors the union in the reference
// implementation.
type Expr struct {
	Kind ExprKind

	Num  float64     // ENum
	Char byte        // EChar
	Con  *Con        // ECons
	Fn   *Func       // EDefun

	// EVar, and pattern variables after resolution.
	VarName  *names.Name
	VarIndex int       // index of the variable within its scope
	Dirs     path.Path // location of the variable inside its pattern

	// EParam.
	Level int       // scope-level distance to the binding formal
	Where path.Path // path to the value inside that formal
	Patt  *Expr     // the pattern variable node this reference resolves to

	Left, Right *Expr // EPair
	Func, Arg   *Expr // EApply and the sugared forms

	Incr int   // EPlus: the literal increment k
	Rest *Expr // EPlus: the sub-pattern / argument

	MuVar *Expr // EMu: unary formal (Apply with nil function)
	Body  *Expr // EMu

	// ELambda, EEqn, EPresect, EPostsect.
	Branch *Branch
	Arity  int
	Code   *UCase // compiled decision tree

	// NVars is set on formals Apply nodes: the number of program
	// variables the pattern binds.
	NVars int

	// Native hook for EBuiltin (owned by the evaluator), and the
	// arithmetic functions for E1Math/E2Math.
	Native interface{}
	Fn1    func(float64) float64
	Fn2    func(float64, float64) (float64, error)

	Line int
}

// Branch is one equation: formals => body. Formals is a reversed
// application spine; the outer argument is the innermost parameter.
type Branch struct {
	Formals *Expr
	Expr    *Expr
	Next    *Branch
}

// Func is a defined value name.
type Func struct {
	Name        *names.Name
	Arity       int
	ExplicitDec bool
	ExplicitDef bool
	QType       *QType   // declared type, when ExplicitDec
	TyCons      *DefType // set for implicitly declared functor names
	Branch      *Branch
	Code        *UCase
}

func NewNum(n float64) *Expr        { return &Expr{Kind: ENum, Num: n} }
func NewChar(c byte) *Expr         { return &Expr{Kind: EChar, Char: c} }
func NewCons(c *Con) *Expr         { return &Expr{Kind: ECons, Con: c} }
func NewVar(n *names.Name) *Expr   { return &Expr{Kind: EVar, VarName: n} }
func NewDefun(f *Func) *Expr       { return &Expr{Kind: EDefun, Fn: f} }
func NewPair(l, r *Expr) *Expr     { return &Expr{Kind: EPair, Left: l, Right: r} }
func NewApply(f, a *Expr) *Expr    { return &Expr{Kind: EApply, Func: f, Arg: a} }

// NewParam builds a resolved reference at the given scope distance.
func NewParam(level int, where path.Path) *Expr {
	return &Expr{Kind: EParam, Level: level, Where: where}
}

// NewFunc builds a lambda-like expression from its branches; the first
// branch fixes the arity, which the resolver checks against the rest.
func NewFunc(branches *Branch) *Expr {
	e := &Expr{Kind: ELambda, Branch: branches}
	for f := branches.Formals; f != nil && f.Kind == EApply; f = f.Func {
		e.Arity++
	}
	return e
}

// NewUnary wraps a single pattern as a one-formal branch.
func NewUnary(pattern, body *Expr, next *Branch) *Branch {
	return &Branch{Formals: NewApply(nil, pattern), Expr: body, Next: next}
}

// NewIte represents if-then-else as the application chain
// if_then_else c t e, retagged so the checker and printer can see the
// conditional structure.
func NewIte(ifThenElse, cond, then, els *Expr) *Expr {
	e := NewApply(NewApply(NewApply(ifThenElse, cond), then), els)
	e.Kind = EIf
	return e
}

// NewLet builds let/letrec: an equation lambda applied to the bound value.
func NewLet(pattern, bound, body *Expr, recursive bool) *Expr {
	e := NewApply(NewFunc(NewUnary(pattern, body, nil)), bound)
	if recursive {
		e.Kind = ERLet
	} else {
		e.Kind = ELet
	}
	e.Func.Kind = EEqn
	return e
}

// NewWhere is let with the equation written after the body.
func NewWhere(body, pattern, bound *Expr, recursive bool) *Expr {
	e := NewLet(pattern, bound, body, recursive)
	if recursive {
		e.Kind = ERWhere
	} else {
		e.Kind = EWhere
	}
	return e
}

// NewMu builds a value-level mu expression; the bound pattern is wrapped
// as a unary formal so scope handling is uniform with lambdas.
func NewMu(pattern, body *Expr) *Expr {
	return &Expr{Kind: EMu, MuVar: NewApply(nil, pattern), Body: body}
}

// ArityOfFormals counts the formals of a branch spine.
func ArityOfFormals(formals *Expr) int {
	n := 0
	for f := formals; f != nil && f.Kind == EApply; f = f.Func {
		n++
	}
	return n
}

// IsLambdaLike reports whether the node carries branches and compiled code.
func (e *Expr) IsLambdaLike() bool {
	switch e.Kind {
	case ELambda, EEqn, EPresect, EPostsect:
		return true
	}
	return false
}
