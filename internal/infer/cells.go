// Package infer implements type inference: mutable inference cells,
// unification of regular trees with trail-based undo, instantiation of
// declared types, and memoized expansion of type synonyms.
package infer

import (
	"github.com/hopelang/hope/internal/ast"
)

type CellKind int

const (
	CTVar   CellKind = iota // uninstantiated inference variable
	CFrozen                 // non-instantiable variable (declared generality)
	CTCons                  // constructed type: shallow + expanded views
	CTRef                   // reference to another cell
	CTSub                   // constructor application payload
	CTList                  // argument list link
	CVoid                   // self-reference left by a mu fixpoint
	cVisited                // transient marker during expansion
)

// Cell is one node of the inference graph. TCons cells carry two views of
// the same application: Abbr, the shallowest synonym-equivalent seen so
// far (used for printing), and Full, the fully-expanded form (used for
// unification).
type Cell struct {
	Kind CellKind

	VarNo int // printer numbering; 0 = unassigned

	Ref        *Cell // CTRef
	Abbr, Full *Cell // CTCons: both point at CTSub cells

	TCons *ast.DefType // CTSub
	TArg  *Cell        // CTSub: CTList chain or nil

	Head, Tail *Cell // CTList
}

func NewTVar() *Cell   { return &Cell{Kind: CTVar} }
func NewFrozen() *Cell { return &Cell{Kind: CFrozen} }
func NewVoid() *Cell   { return &Cell{Kind: CVoid} }

func NewTSub(dt *ast.DefType, targ *Cell) *Cell {
	return &Cell{Kind: CTSub, TCons: dt, TArg: targ}
}

func NewTList(head, tail *Cell) *Cell {
	return &Cell{Kind: CTList, Head: head, Tail: tail}
}

// NewTCons builds a constructed type whose shallow and expanded views
// coincide (expansion refines Full later).
func NewTCons(dt *ast.DefType, targ *Cell) *Cell {
	sub := NewTSub(dt, targ)
	return &Cell{Kind: CTCons, Abbr: sub, Full: sub}
}

// Deref follows a chain of instantiated variables to a constructor or an
// uninstantiated variable.
func Deref(c *Cell) *Cell {
	for c.Kind == CTRef {
		c = c.Ref
	}
	return c
}

// Unifier owns the trail and the primitive type hooks needed to build
// composite types.
type Unifier struct {
	Function *ast.DefType
	Product  *ast.DefType
	List     *ast.DefType

	trail []trailEntry
}

type trailEntry struct {
	cell *Cell
	old  Cell
}

func NewUnifier(function, product, list *ast.DefType) *Unifier {
	return &Unifier{Function: function, Product: product, List: list}
}

func (u *Unifier) addTrail(c *Cell) {
	u.trail = append(u.trail, trailEntry{cell: c, old: *c})
}

func (u *Unifier) untrail(mark int) {
	for len(u.trail) > mark {
		e := u.trail[len(u.trail)-1]
		*e.cell = e.old
		u.trail = u.trail[:len(u.trail)-1]
	}
}

// Unify unifies two inference cells by direct modification. When it
// fails, every cell is restored to its previous contents.
func (u *Unifier) Unify(t1, t2 *Cell) bool {
	mark := len(u.trail)
	if u.realUnify(t1, t2) {
		u.trail = u.trail[:mark]
		return true
	}
	u.untrail(mark)
	return false
}

func (u *Unifier) realUnify(t1, t2 *Cell) bool {
	t1 = Deref(t1)
	t2 = Deref(t2)
	if t1 == t2 {
		return true
	}
	// a variable unifies by instantiation
	if t1.Kind == CTVar {
		u.assign(t1, t2)
		return true
	}
	if t2.Kind == CTVar {
		u.assign(t2, t1)
		return true
	}
	// distinct frozen variables never unify
	if t1.Kind == CFrozen || t2.Kind == CFrozen {
		return false
	}
	if t1.Kind == CVoid {
		return t2.Kind == CVoid
	}
	if t2.Kind == CVoid {
		return false
	}
	// both are constructed types
	tc1 := Deref(t1.Full).TCons
	tc2 := Deref(t2.Full).TCons
	if tc1 != tc2 {
		return false // different data type constructors
	}
	// Unification of regular trees: identify the two cells before
	// looking at the arguments, so cyclic types terminate. Undone by the
	// trail if anything below fails.
	targ1 := Deref(t1.Full).TArg
	targ2 := Deref(t2.Full).TArg
	u.identify(t1, t2)
	for targ1 != nil {
		if !u.realUnify(targ1.Head, targ2.Head) {
			return false
		}
		targ1 = targ1.Tail
		targ2 = targ2.Tail
	}
	return true
}

// identify points the cell whose shallow view is deeper in synonyms at
// the other, keeping printed forms compact.
func (u *Unifier) identify(t1, t2 *Cell) {
	if t1.Abbr.TCons.SynDepth < t2.Abbr.TCons.SynDepth {
		u.assign(t1, t2)
	} else {
		u.assign(t2, t1)
	}
}

// assign overwrites a cell with a reference, trailing the old contents. A
// cell assigned to itself becomes Void.
func (u *Unifier) assign(v, t *Cell) {
	u.addTrail(v)
	if t == v {
		v.Kind = CVoid
		v.Ref = nil
	} else {
		v.Kind = CTRef
		v.Ref = t
	}
}

// assignNoTrail links a synonym occurrence to its expansion permanently.
func assignNoTrail(abbr, full *Cell) {
	if abbr == full {
		abbr.Kind = CVoid
		abbr.Ref = nil
		return
	}
	if full.Kind == CTCons &&
		full.Abbr.TCons.SynDepth < abbr.Abbr.TCons.SynDepth {
		full.Abbr = abbr.Abbr
	}
	abbr.Kind = CTRef
	abbr.Ref = full
}

// Instance reports whether the inferred type is at least as general as the
// declared one: they must unify without instantiating the declared type's
// variables.
func (u *Unifier) Instance(declared *ast.Type, ntvars int, inferred *Cell) bool {
	return u.Unify(inferred, u.CopyType(declared, ntvars, true))
}

// Composite type constructors.

func (u *Unifier) NewFuncType(from, to *Cell) *Cell {
	return NewTCons(u.Function, NewTList(from, NewTList(to, nil)))
}

func (u *Unifier) NewProdType(left, right *Cell) *Cell {
	return NewTCons(u.Product, NewTList(left, NewTList(right, nil)))
}

func (u *Unifier) NewListType(elem *Cell) *Cell {
	return u.ExpandType(NewTCons(u.List, NewTList(elem, nil)))
}

func NewConstType(dt *ast.DefType) *Cell { return NewTCons(dt, nil) }
