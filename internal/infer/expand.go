package infer

import (
	"github.com/hopelang/hope/internal/ast"
)

// Memoized expansion of type synonyms. The memo is keyed on the synonym
// and its (pointer-identical) argument list, so an equirecursive synonym
// expands into a cyclic cell graph instead of diverging.

type memoEntry struct {
	syn   *ast.DefType
	args  *Cell
	value *Cell
}

// ExpandType rewrites every synonym application reachable from the cell
// into its expansion, in place, and returns the dereferenced result.
func (u *Unifier) ExpandType(t *Cell) *Cell {
	memo := make([]memoEntry, 0, 8)
	u.expandAux(t, &memo, 0)
	return Deref(t)
}

func (u *Unifier) expandAux(t *Cell, memo *[]memoEntry, visible int) {
	t = Deref(t)
	if t.Kind != CTCons {
		return
	}
	tcons := Deref(t.Full).TCons
	targ := Deref(t.Full).TArg
	if tcons.SynDepth == 0 {
		// data type constructor: expand the arguments, marking the cell
		// in case it is encountered recursively
		t.Kind = cVisited
		for a := targ; a != nil; a = a.Tail {
			u.expandAux(a.Head, memo, visible)
		}
		t.Kind = CTCons
		return
	}
	// type synonym: expanded before with the same arguments?
	for i := 0; i < visible; i++ {
		m := (*memo)[i]
		if m.syn == tcons && sameArgs(targ, m.args) {
			assignNoTrail(t, Deref(m.value))
			return
		}
	}
	newType := u.cpType(tcons.Type, targ)
	assignNoTrail(t, newType)
	// remember it for next time
	if len(*memo) > visible {
		(*memo)[visible] = memoEntry{syn: tcons, args: targ, value: newType}
	} else {
		*memo = append(*memo, memoEntry{syn: tcons, args: targ, value: newType})
	}
	u.expandAux(newType, memo, visible+1)
}

// sameArgs compares argument lists elementwise by cell identity; the
// lists are known to have the same length.
func sameArgs(a, b *Cell) bool {
	for a != nil {
		if b == nil || a.Head != b.Head {
			return false
		}
		a = a.Tail
		b = b.Tail
	}
	return b == nil
}

// CopyType instantiates a declared type: a fresh cell graph where
// variable i is the i-th of n fresh inference variables — frozen ones
// when the instance must not specialize — with synonyms expanded on the
// way out.
func (u *Unifier) CopyType(t *ast.Type, ntvars int, frozen bool) *Cell {
	mk := NewTVar
	if frozen {
		mk = NewFrozen
	}
	var args *Cell
	for i := 0; i < ntvars; i++ {
		args = NewTList(mk(), args)
	}
	return u.ExpandType(u.cpType(t, args))
}

// cpType copies a declared type term into cells; the result is never a
// reference. Mu-bound variables index a stack of placeholder cells that
// are tied back once the body exists.
func (u *Unifier) cpType(t *ast.Type, args *Cell) *Cell {
	var muStack []*Cell
	return cpTypeAux(t, args, &muStack)
}

func cpTypeAux(t *ast.Type, args *Cell, muStack *[]*Cell) *Cell {
	switch t.Kind {
	case ast.TyVar:
		if t.MuBound {
			return Deref((*muStack)[len(*muStack)-1-t.Index])
		}
		return Deref(argLookup(args, t.Index))
	case ast.TyMu:
		hole := NewVoid()
		*muStack = append(*muStack, hole)
		val := cpTypeAux(t.Body, args, muStack)
		*muStack = (*muStack)[:len(*muStack)-1]
		if val != hole {
			hole.Kind = CTRef
			hole.Ref = val
		}
		return val
	case ast.TyCons:
		return NewTCons(t.DefType, cpList(t.Args, args, muStack))
	}
	return nil
}

func argLookup(args *Cell, n int) *Cell {
	for i := 0; i < n; i++ {
		args = args.Tail
	}
	return args.Head
}

func cpList(types []*ast.Type, args *Cell, muStack *[]*Cell) *Cell {
	if len(types) == 0 {
		return nil
	}
	return NewTList(cpTypeAux(types[0], args, muStack),
		cpList(types[1:], args, muStack))
}
