package ast

import "github.com/hopelang/hope/internal/path"

// Decision trees. A UCase node dispatches on the value found at
// (Level, Path); its LCase payload selects a limb per outcome. Case nodes
// are shared between trees and counted by Refs; mutation during merging
// copies nodes whose count exceeds one.

type UCaseKind int

const (
	UCCase UCaseKind = iota
	UCFNoMatch // match failure in a named function
	UCLNoMatch // match failure in a lambda
	UCSuccess
	UCStrict // opaque body: builtin / native hook
)

type UCase struct {
	Kind UCaseKind

	// UCCase
	Refs  int
	Level int
	Path  path.Path
	Cases *LCase

	Defun *Func // UCFNoMatch
	Who   *Expr // UCLNoMatch

	// UCSuccess; Size is the number of match atoms consumed on the way
	// here and orders equations by specificity.
	Body *Expr
	Size int

	Real *Expr // UCStrict
}

func NewCase(level int, p path.Path, cases *LCase) *UCase {
	return &UCase{Kind: UCCase, Refs: 1, Level: level, Path: p, Cases: cases}
}

func NewFNoMatch(fn *Func) *UCase  { return &UCase{Kind: UCFNoMatch, Defun: fn} }
func NewLNoMatch(who *Expr) *UCase { return &UCase{Kind: UCLNoMatch, Who: who} }

func NewSuccess(body *Expr, size int) *UCase {
	return &UCase{Kind: UCSuccess, Body: body, Size: size}
}

func NewStrict(real *Expr) *UCase { return &UCase{Kind: UCStrict, Real: real} }

// Copy makes a shallow copy of a node; Case children of a copied Case gain
// a reference.
func (u *UCase) Copy() *UCase {
	c := *u
	if u.Kind == UCCase {
		c.Refs = 1
		c.Cases = u.Cases.copy()
	}
	return &c
}

// Ref notes another pointer to the node.
func (u *UCase) Ref() *UCase {
	if u.Kind == UCCase {
		u.Refs++
	}
	return u
}

type LCaseKind int

const (
	LCAlgebraic LCaseKind = iota
	LCNumeric
	LCCharacter
)

// Limb indices of a numeric dispatch (value compared against zero).
const (
	NumLess = iota
	NumEqual
	NumGreater
)

// LCase carries the limbs of a dispatch: one per constructor, the three
// sign outcomes, or a sparse character table with a shared default.
type LCase struct {
	Kind  LCaseKind
	Arity int
	Limbs []*UCase

	// LCCharacter: populated entries only; Default covers the rest.
	CharLimbs map[byte]*UCase
	Default   *UCase
}

// NewAlgCase builds an algebraic dispatch with every limb defaulted.
func NewAlgCase(arity int, def *UCase) *LCase {
	limbs := make([]*UCase, arity)
	for i := range limbs {
		limbs[i] = def
	}
	return &LCase{Kind: LCAlgebraic, Arity: arity, Limbs: limbs}
}

// NewNumCase builds the three-limb sign dispatch.
func NewNumCase(def *UCase) *LCase {
	lc := NewAlgCase(3, def)
	lc.Kind = LCNumeric
	return lc
}

// NewCharCase builds a character dispatch; only populated entries are
// stored.
func NewCharCase(def *UCase) *LCase {
	return &LCase{
		Kind:      LCCharacter,
		Arity:     256,
		CharLimbs: make(map[byte]*UCase),
		Default:   def,
	}
}

// CharLimb returns the limb for a byte, falling back to the default.
func (lc *LCase) CharLimb(c byte) *UCase {
	if u, ok := lc.CharLimbs[c]; ok {
		return u
	}
	return lc.Default
}

// SetCharLimb populates one character entry.
func (lc *LCase) SetCharLimb(c byte, u *UCase) { lc.CharLimbs[c] = u }

// MapLimbs rewrites every limb (including the character default) through f.
func (lc *LCase) MapLimbs(f func(*UCase) *UCase) {
	if lc.Kind == LCCharacter {
		for c, u := range lc.CharLimbs {
			lc.CharLimbs[c] = f(u)
		}
		lc.Default = f(lc.Default)
		return
	}
	for i, u := range lc.Limbs {
		lc.Limbs[i] = f(u)
	}
}

func (lc *LCase) copy() *LCase {
	c := &LCase{Kind: lc.Kind, Arity: lc.Arity}
	switch lc.Kind {
	case LCCharacter:
		c.CharLimbs = make(map[byte]*UCase, len(lc.CharLimbs))
		for b, u := range lc.CharLimbs {
			c.CharLimbs[b] = u.Ref()
		}
		c.Default = lc.Default.Ref()
	default:
		c.Limbs = make([]*UCase, len(lc.Limbs))
		for i, u := range lc.Limbs {
			c.Limbs[i] = u.Ref()
		}
	}
	return c
}
