package infer

import (
	"testing"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/names"
)

// a small universe of declared types for exercising the cells directly
type universe struct {
	pool     *names.Pool
	function *ast.DefType
	product  *ast.DefType
	list     *ast.DefType
	num      *ast.DefType
	u        *Unifier
}

func newUniverse() *universe {
	pool := names.NewPool()
	tv := func(s string, i int) *ast.Type {
		t := ast.NewTypeVar(pool.Intern(s))
		t.Index = i
		return t
	}
	uv := &universe{
		pool: pool,
		function: &ast.DefType{Name: pool.Intern("->"), Arity: 2,
			VarList: []*ast.Type{tv("a", 0), tv("b", 1)},
			Pols:    []ast.Polarity{ast.PolNeg, ast.PolPos}},
		product: &ast.DefType{Name: pool.Intern("#"), Arity: 2,
			VarList: []*ast.Type{tv("a", 0), tv("b", 1)},
			Pols:    []ast.Polarity{ast.PolPos, ast.PolPos}},
		list: &ast.DefType{Name: pool.Intern("list"), Arity: 1,
			VarList: []*ast.Type{tv("a", 0)},
			Pols:    []ast.Polarity{ast.PolPos}},
		num: &ast.DefType{Name: pool.Intern("num")},
	}
	uv.u = NewUnifier(uv.function, uv.product, uv.list)
	return uv
}

func (uv *universe) numType() *ast.Type { return ast.NewDefTypeRef(uv.num, nil) }

func (uv *universe) varType(name string, idx int) *ast.Type {
	t := ast.NewTypeVar(uv.pool.Intern(name))
	t.Index = idx
	return t
}

func (uv *universe) fn(from, to *ast.Type) *ast.Type {
	return ast.NewDefTypeRef(uv.function, []*ast.Type{from, to})
}

func (uv *universe) listOf(elem *ast.Type) *ast.Type {
	return ast.NewDefTypeRef(uv.list, []*ast.Type{elem})
}

// snapshot the reachable graph so undo can be verified
func snapshot(c *Cell, into map[*Cell]Cell) {
	if c == nil {
		return
	}
	if _, ok := into[c]; ok {
		return
	}
	into[c] = *c
	snapshot(c.Ref, into)
	snapshot(c.Abbr, into)
	snapshot(c.Full, into)
	snapshot(c.TArg, into)
	snapshot(c.Head, into)
	snapshot(c.Tail, into)
}

func TestUnifySimple(t *testing.T) {
	uv := newUniverse()
	v := NewTVar()
	n := NewConstType(uv.num)
	if !uv.u.Unify(v, n) {
		t.Fatalf("variable should unify with num")
	}
	if Deref(v) != Deref(n) {
		t.Errorf("variable not instantiated")
	}
}

func TestUnifyFailureUndoesAllInstantiations(t *testing.T) {
	uv := newUniverse()
	// (t1 -> num) against (num -> (t2 -> t3)): after t1 has been bound to
	// num, the result types num and t2 -> t3 clash
	v1 := NewTVar()
	left := uv.u.NewFuncType(v1, NewConstType(uv.num))
	right := uv.u.NewFuncType(NewConstType(uv.num),
		uv.u.NewFuncType(NewTVar(), NewTVar()))

	before := map[*Cell]Cell{}
	snapshot(left, before)
	snapshot(right, before)

	if uv.u.Unify(left, right) {
		t.Fatalf("unify should fail")
	}
	after := map[*Cell]Cell{}
	snapshot(left, after)
	snapshot(right, after)
	for c, old := range before {
		if got, ok := after[c]; ok && got != old {
			t.Errorf("cell %p changed after failed unify: %+v -> %+v", c, old, got)
		}
	}
}

func TestFrozenVariablesOnlyUnifyWithThemselves(t *testing.T) {
	uv := newUniverse()
	f1 := NewFrozen()
	f2 := NewFrozen()
	if uv.u.Unify(f1, f2) {
		t.Errorf("distinct frozen variables unified")
	}
	if !uv.u.Unify(f1, f1) {
		t.Errorf("a frozen variable should unify with itself")
	}
	v := NewTVar()
	if !uv.u.Unify(v, f1) {
		t.Errorf("an ordinary variable should bind to a frozen one")
	}
}

func TestInstanceReflexivity(t *testing.T) {
	uv := newUniverse()
	// T = (a -> b) -> list a -> list b
	a := uv.varType("a", 0)
	b := uv.varType("b", 1)
	typ := uv.fn(uv.fn(a, b), uv.fn(uv.listOf(a), uv.listOf(b)))
	if !uv.u.Instance(typ, 2, uv.u.CopyType(typ, 2, false)) {
		t.Errorf("every declared type should be an instance of itself")
	}
}

func TestInstanceRejectsSpecialization(t *testing.T) {
	uv := newUniverse()
	a := uv.varType("a", 0)
	general := uv.fn(a, a) // a -> a
	// an inferred num -> num cannot meet a declared a -> a; an inferred
	// a -> a meets a declared num -> num
	specific := uv.fn(uv.numType(), uv.numType())
	if uv.u.Instance(general, 1, uv.u.CopyType(specific, 0, false)) {
		t.Errorf("an inferred num -> num must not meet a declared a -> a")
	}
	if !uv.u.Instance(specific, 0, uv.u.CopyType(general, 1, false)) {
		t.Errorf("an inferred a -> a should meet a declared num -> num")
	}
}

func TestSynonymExpansionIsIdempotentAndMemoized(t *testing.T) {
	uv := newUniverse()
	// type str == list num (num standing in for char here)
	str := &ast.DefType{Name: uv.pool.Intern("str"), SynDepth: 1}
	str.Type = uv.listOf(uv.numType())

	c := NewTCons(str, nil)
	out1 := uv.u.ExpandType(c)
	if Deref(out1.Full).TCons != uv.list {
		t.Fatalf("expansion did not reach the data constructor")
	}
	// the shallow view stays on the synonym for printing
	if out1.Abbr.TCons != str {
		t.Errorf("abbr lost by expansion: %v", out1.Abbr.TCons.Name)
	}
	out2 := uv.u.ExpandType(out1)
	if out2 != Deref(out1) {
		t.Errorf("expansion is not idempotent")
	}
}

func TestRecursiveSynonymTiesACycle(t *testing.T) {
	uv := newUniverse()
	// type t == list t
	rec := &ast.DefType{Name: uv.pool.Intern("t"), SynDepth: 1}
	self := ast.NewDefTypeRef(rec, nil)
	rec.Type = uv.listOf(self)

	out := uv.u.ExpandType(NewTCons(rec, nil))
	full := Deref(out.Full)
	if full.TCons != uv.list {
		t.Fatalf("head not expanded to list")
	}
	elem := Deref(full.TArg.Head)
	if Deref(elem.Full) != full && elem != out {
		// the element must alias the expansion itself
		t.Errorf("recursive synonym did not tie the knot")
	}
	// unifying the cyclic type with itself terminates
	if !uv.u.Unify(out, out) {
		t.Errorf("cyclic type should unify with itself")
	}
}

func TestMuTypeCopyAndUnify(t *testing.T) {
	uv := newUniverse()
	// mu x => num -> x  unified against a fresh copy of itself
	x := ast.NewTypeVar(uv.pool.Intern("x"))
	x.MuBound = true
	x.Index = 0
	mu := ast.NewMuType(uv.pool.Intern("x"), uv.fn(uv.numType(), x))

	c1 := uv.u.CopyType(mu, 0, false)
	c2 := uv.u.CopyType(mu, 0, false)
	if !uv.u.Unify(c1, c2) {
		t.Errorf("equal mu types should unify")
	}
	// and against its own unrolling: num -> (mu x => num -> x)
	c3 := uv.u.NewFuncType(NewConstType(uv.num), uv.u.CopyType(mu, 0, false))
	if !uv.u.Unify(uv.u.CopyType(mu, 0, false), c3) {
		t.Errorf("a mu type should unify with its unrolling")
	}
}

func TestBadRecTypeAndIsHeader(t *testing.T) {
	uv := newUniverse()
	syn := &ast.DefType{Name: uv.pool.Intern("s"), SynDepth: 1}
	self := ast.NewDefTypeRef(syn, nil)

	if !IsHeader(self, syn) {
		t.Errorf("a direct self reference is its own header")
	}
	if IsHeader(uv.listOf(self), syn) {
		t.Errorf("a guarded reference is not the header")
	}
	if err := BadRecType(syn, self); err == nil {
		t.Errorf("unguarded synonym recursion should be rejected")
	}
	if err := BadRecType(syn, uv.listOf(self)); err != nil {
		t.Errorf("guarded recursion should be allowed: %v", err)
	}

	data := &ast.DefType{Name: uv.pool.Intern("d")}
	if err := BadRecType(data, ast.NewDefTypeRef(data, nil)); err != nil {
		t.Errorf("data types may recurse directly: %v", err)
	}
}

func TestPolarities(t *testing.T) {
	uv := newUniverse()
	a := uv.varType("a", 0)
	dt := &ast.DefType{Name: uv.pool.Intern("t"), Arity: 1}
	pol := StartPolarities(dt, []*ast.Type{a})
	// a -> list a : one negative and one positive occurrence
	pol.Compute(uv.fn(a, uv.listOf(a)))
	got := pol.Finish()
	if got[0] != ast.PolBoth {
		t.Errorf("polarity = %v, want both", got[0])
	}

	pol = StartPolarities(dt, []*ast.Type{a})
	pol.Compute(uv.listOf(a))
	if got := pol.Finish(); got[0] != ast.PolPos {
		t.Errorf("polarity = %v, want pos", got[0])
	}
}
