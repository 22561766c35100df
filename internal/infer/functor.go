package infer

import "github.com/hopelang/hope/internal/ast"

// A type name used as a value denotes the map derived from its
// definition. References to such implicitly declared names type-check
// against the functor type built here rather than a stored scheme.

// functorOf returns the type constructor behind an implicitly declared
// function name, or nil.
func functorOf(e *ast.Expr) *ast.DefType {
	if e.Kind == ast.EDefun && !e.Fn.ExplicitDec && e.Fn.TyCons != nil {
		return e.Fn.TyCons
	}
	return nil
}

// functorType builds the type of the functor for dt:
//
//	arity 0:  T -> T
//	arity n:  (a1->b1) -> ... -> (an->bn) -> T a... -> T b...
//
// with the argument functions tupled when the type was declared tupled.
func (ck *Checker) functorType(dt *ast.DefType) *Cell {
	if dt.Arity == 0 {
		t := ck.U.ExpandType(NewTCons(dt, nil))
		return ck.U.NewFuncType(t, t)
	}
	as := make([]*Cell, dt.Arity)
	bs := make([]*Cell, dt.Arity)
	fs := make([]*Cell, dt.Arity)
	for i := range as {
		as[i] = NewTVar()
		bs[i] = NewTVar()
		fs[i] = ck.U.NewFuncType(as[i], bs[i])
	}
	src := ck.U.ExpandType(NewTCons(dt, cellList(as)))
	dst := ck.U.ExpandType(NewTCons(dt, cellList(bs)))
	result := ck.U.NewFuncType(src, dst)
	if dt.Tupled {
		return ck.U.NewFuncType(ck.multiProd(fs), result)
	}
	for i := len(fs) - 1; i >= 0; i-- {
		result = ck.U.NewFuncType(fs[i], result)
	}
	return result
}

func (ck *Checker) multiProd(cells []*Cell) *Cell {
	if len(cells) == 1 {
		return cells[0]
	}
	return ck.U.NewProdType(cells[0], ck.multiProd(cells[1:]))
}

func cellList(cells []*Cell) *Cell {
	var out *Cell
	for i := len(cells) - 1; i >= 0; i-- {
		out = NewTList(cells[i], out)
	}
	return out
}
