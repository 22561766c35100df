// Package eval implements the lazy evaluator: call-by-need cells reduced
// to weak head normal form in place, driven by the compiled decision
// trees.
package eval

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/path"
)

type Kind int

const (
	KNum Kind = iota
	KChar
	KConst  // nullary data constructor
	KCons   // constructor application
	KPair
	KDirs   // pending projection
	KSusp   // unevaluated thunk
	KPApp   // partial application awaiting arguments
	KUCase  // decision tree being driven
	KStream // external character source
)

// Cell is one evaluation cell. Forcing overwrites the cell with its weak
// head normal form, so sharing is memoized.
//
// Environments are right-nested Pair chains of actual parameters: Left is
// the (lazily evaluated) value, Right the rest. A constructor's argument
// cell is either the single argument or a Pair spine (v1, (v2, ... vk)).
type Cell struct {
	Kind Kind

	Num  float64
	Char byte

	Con *ast.Con // KConst, KCons
	Arg *Cell    // KCons payload

	Left, Right *Cell // KPair

	Path path.Path // KDirs
	Val  *Cell     // KDirs

	Expr *ast.Expr // KSusp, KPApp
	Env  *Cell     // KSusp, KPApp, KUCase
	// KPApp: number of arguments still missing.
	Arity int

	Code *ast.UCase // KUCase

	Str *Stream // KStream
}

func NewNum(n float64) *Cell  { return &Cell{Kind: KNum, Num: n} }
func NewChar(c byte) *Cell    { return &Cell{Kind: KChar, Char: c} }
func NewConst(c *ast.Con) *Cell { return &Cell{Kind: KConst, Con: c} }

func NewCons(c *ast.Con, arg *Cell) *Cell {
	return &Cell{Kind: KCons, Con: c, Arg: arg}
}

func NewPair(left, right *Cell) *Cell {
	return &Cell{Kind: KPair, Left: left, Right: right}
}

func NewDirs(p path.Path, val *Cell) *Cell {
	return &Cell{Kind: KDirs, Path: p, Val: val}
}

func NewSusp(expr *ast.Expr, env *Cell) *Cell {
	return &Cell{Kind: KSusp, Expr: expr, Env: env}
}

func NewPApp(expr *ast.Expr, env *Cell, arity int) *Cell {
	return &Cell{Kind: KPApp, Expr: expr, Env: env, Arity: arity}
}

func NewUCase(code *ast.UCase, env *Cell) *Cell {
	return &Cell{Kind: KUCase, Code: code, Env: env}
}

func NewStreamCell(s *Stream) *Cell { return &Cell{Kind: KStream, Str: s} }

// WHNF reports whether the cell needs no further forcing.
func (c *Cell) WHNF() bool {
	switch c.Kind {
	case KNum, KChar, KConst, KCons, KPair, KPApp:
		return true
	}
	return false
}

// EnvSlot returns the actual parameter at the given level: entry `level`
// counting from the tip of the environment chain.
func EnvSlot(env *Cell, level int) *Cell {
	for i := 0; i < level; i++ {
		env = env.Right
	}
	return env.Left
}
