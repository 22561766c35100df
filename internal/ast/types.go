package ast

import "github.com/hopelang/hope/internal/names"

type TyKind int

const (
	TyVar TyKind = iota
	TyMu
	TyCons
)

// Type is a declared type term. Variables carry their index among the free
// variables of the enclosing qualified type, or — when mu-bound — the
// de Bruijn distance to the binding mu.
type Type struct {
	Kind TyKind

	// TyVar
	Var     *names.Name
	MuBound bool
	Index   int

	// TyMu; the bound variable name appears in diagnostics only.
	MuName *names.Name
	Body   *Type

	// TyCons
	DefType *DefType
	Args    []*Type
	Tupled  bool
}

func NewTypeVar(n *names.Name) *Type { return &Type{Kind: TyVar, Var: n} }

func NewMuType(muName *names.Name, body *Type) *Type {
	return &Type{Kind: TyMu, MuName: muName, Body: body}
}

// NewDefTypeRef applies a declared constructor to arguments.
func NewDefTypeRef(dt *DefType, args []*Type) *Type {
	return &Type{Kind: TyCons, DefType: dt, Args: args}
}

// QType is a qualified type: a type term together with the number of its
// free variables, numbered left to right.
type QType struct {
	Type   *Type
	NTVars int
}

// Polarity of a type parameter's occurrences.
type Polarity int

const (
	PolNone Polarity = 0
	PolPos  Polarity = 1
	PolNeg  Polarity = 2
	PolBoth Polarity = 3
)

func (p Polarity) String() string {
	switch p {
	case PolPos:
		return "pos"
	case PolNeg:
		return "neg"
	case PolBoth:
		return "both"
	}
	return "none"
}

// Flip swaps positive and negative occurrence information.
func (p Polarity) Flip() Polarity {
	q := p &^ 3
	if p&PolPos != 0 {
		q |= PolNeg
	}
	if p&PolNeg != 0 {
		q |= PolPos
	}
	return q
}

// DefType records a declared type constructor: a data type, a synonym, or
// an abstract type awaiting its definition.
type DefType struct {
	Name   *names.Name
	Arity  int
	Tupled bool

	// SynDepth is 0 for data and abstract types; for synonyms it is one
	// more than the depth of the expansion head. It bounds every chain of
	// synonym-to-head expansions.
	SynDepth int

	Cons    *Con  // first data constructor, or nil
	Type    *Type // synonym right-hand side, or nil
	VarList []*Type
	Pols    []Polarity

	// Private marks an abstract type whose body must be reset when a
	// private module section ends.
	Private    bool
	OldVarList []*Type
}

func (dt *DefType) IsData() bool     { return dt.Cons != nil }
func (dt *DefType) IsSynonym() bool  { return dt.SynDepth > 0 }
func (dt *DefType) IsAbstract() bool { return dt.Cons == nil && dt.SynDepth == 0 }

// Con is a data constructor. Index is its zero-based position within the
// parent data type; Type is the full arrow type t1 -> ... -> tn -> D a...
type Con struct {
	Name   *names.Name
	NArgs  int
	Index  int
	NTVars int
	Type   *Type
	Next   *Con
}

// NumCases returns the number of constructors in the constructor's data
// type, by walking to the last sibling.
func (c *Con) NumCases() int {
	for c.Next != nil {
		c = c.Next
	}
	return c.Index + 1
}
