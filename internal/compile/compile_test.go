package compile

import (
	"testing"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/path"
)

// unary builds the formals spine for one pattern.
func unary(p *ast.Expr) *ast.Expr { return ast.NewApply(nil, p) }

func numPat(n float64) *ast.Expr { return ast.NewNum(n) }

func varPat(pool *names.Pool, s string) *ast.Expr {
	v := ast.NewVar(pool.Intern(s))
	v.Dirs = path.Path{}
	return v
}

func TestLiteralThenDefaultMergesIntoOneTree(t *testing.T) {
	pool := names.NewPool()
	c := New(nil)
	fn := &ast.Func{Name: pool.Intern("f"), Arity: 1}

	// f 0 <= 1
	code := c.Branch(ast.NewFNoMatch(fn),
		&ast.Branch{Formals: unary(numPat(0)), Expr: ast.NewNum(1)})
	// f n <= 2
	code = c.Branch(code,
		&ast.Branch{Formals: unary(varPat(pool, "n")), Expr: ast.NewNum(2)})

	if code.Kind != ast.UCCase || code.Cases.Kind != ast.LCNumeric {
		t.Fatalf("root is not a numeric case: %+v", code)
	}
	eq := code.Cases.Limbs[ast.NumEqual]
	if eq.Kind != ast.UCSuccess || eq.Body.Num != 1 || eq.Size != 1 {
		t.Errorf("equal limb: %+v", eq)
	}
	for _, i := range []int{ast.NumLess, ast.NumGreater} {
		limb := code.Cases.Limbs[i]
		if limb.Kind != ast.UCSuccess || limb.Body.Num != 2 {
			t.Errorf("limb %d is not the default equation: %+v", i, limb)
		}
	}
	// both side limbs share one success node
	if code.Cases.Limbs[ast.NumLess] != code.Cases.Limbs[ast.NumGreater] {
		t.Errorf("side limbs do not share the default")
	}
}

func TestMoreSpecificLaterEquationTakesItsLimb(t *testing.T) {
	pool := names.NewPool()
	c := New(nil)
	fn := &ast.Func{Name: pool.Intern("f"), Arity: 1}

	// f n <= 1  first, then  f 0 <= 2: the later, more specific equation
	// replaces the wildcard's success on the equal limb only; the other
	// limbs keep the earlier equation
	code := c.Branch(ast.NewFNoMatch(fn),
		&ast.Branch{Formals: unary(varPat(pool, "n")), Expr: ast.NewNum(1)})
	code = c.Branch(code,
		&ast.Branch{Formals: unary(numPat(0)), Expr: ast.NewNum(2)})

	if code.Kind != ast.UCCase {
		t.Fatalf("root: %+v", code)
	}
	eq := code.Cases.Limbs[ast.NumEqual]
	if eq.Kind != ast.UCSuccess || eq.Body.Num != 2 {
		t.Errorf("the more specific equation should take the equal limb: %+v", eq)
	}
	gt := code.Cases.Limbs[ast.NumGreater]
	if gt.Kind != ast.UCSuccess || gt.Body.Num != 1 {
		t.Errorf("other limbs keep the earlier equation: %+v", gt)
	}
}

func TestEqualSpecificityKeepsSourceOrder(t *testing.T) {
	pool := names.NewPool()
	c := New(nil)
	fn := &ast.Func{Name: pool.Intern("f"), Arity: 1}

	code := c.Branch(ast.NewFNoMatch(fn),
		&ast.Branch{Formals: unary(numPat(0)), Expr: ast.NewNum(1)})
	code = c.Branch(code,
		&ast.Branch{Formals: unary(numPat(0)), Expr: ast.NewNum(2)})

	eq := code.Cases.Limbs[ast.NumEqual]
	if eq.Body.Num != 1 {
		t.Errorf("the first of two equally specific equations should win, got %v", eq.Body.Num)
	}
}

func TestRefcountIntegrity(t *testing.T) {
	pool := names.NewPool()
	c := New(nil)
	fn := &ast.Func{Name: pool.Intern("f"), Arity: 2}

	// f 0 0 <= 1 ; f n 0 <= 2 ; f n m <= 3  builds shared sub-trees
	two := func(a, b *ast.Expr) *ast.Expr {
		return ast.NewApply(ast.NewApply(nil, a), b)
	}
	code := c.Branch(ast.NewFNoMatch(fn),
		&ast.Branch{Formals: two(numPat(0), numPat(0)), Expr: ast.NewNum(1)})
	code = c.Branch(code,
		&ast.Branch{Formals: two(varPat(pool, "n"), numPat(0)), Expr: ast.NewNum(2)})
	code = c.Branch(code,
		&ast.Branch{Formals: two(varPat(pool, "n"), varPat(pool, "m")), Expr: ast.NewNum(3)})

	// count every stored pointer into each case node
	counts := map[*ast.UCase]int{}
	var walk func(u *ast.UCase)
	visited := map[*ast.UCase]bool{}
	walk = func(u *ast.UCase) {
		if visited[u] || u.Kind != ast.UCCase {
			return
		}
		visited[u] = true
		if u.Cases.Kind == ast.LCCharacter {
			for _, l := range u.Cases.CharLimbs {
				counts[l]++
				walk(l)
			}
			counts[u.Cases.Default]++
			walk(u.Cases.Default)
			return
		}
		for _, l := range u.Cases.Limbs {
			counts[l]++
			walk(l)
		}
	}
	counts[code]++ // the root pointer held by the function
	walk(code)

	for u, n := range counts {
		if u.Kind == ast.UCCase && u.Refs != n {
			t.Errorf("case node has refcount %d but %d stored pointers", u.Refs, n)
		}
	}
}
