package eval

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/path"
)

func newTestEvaluator() (*Evaluator, *names.Pool) {
	pool := names.NewPool()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	w := module.NewWorld(pool, nil, log)
	return New(w, NewStreamTable(true)), pool
}

func TestForceLiteralAndIdempotence(t *testing.T) {
	ev, _ := newTestEvaluator()
	c := NewSusp(ast.NewNum(42), nil)
	v, err := ev.Force(c)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KNum || v.Num != 42 {
		t.Fatalf("forced to %+v", v)
	}
	if v != c {
		t.Errorf("force should update the cell in place")
	}
	v2, err := ev.Force(c)
	if err != nil || v2 != v || v2.Num != 42 {
		t.Errorf("force is not idempotent: %+v %v", v2, err)
	}
}

func TestDirsProjectionForcesInPlace(t *testing.T) {
	ev, _ := newTestEvaluator()
	pairCell := NewSusp(ast.NewPair(ast.NewNum(1), ast.NewNum(2)), nil)

	left, err := ev.Force(NewDirs(path.Path{path.Unroll, path.Left}, pairCell))
	if err != nil {
		t.Fatal(err)
	}
	if left.Kind != KNum || left.Num != 1 {
		t.Fatalf("left projection: %+v", left)
	}
	// the original suspension was overwritten with the pair, and its
	// left component was forced through the shared cell
	if pairCell.Kind != KPair {
		t.Errorf("projection did not memoize the pair: %v", pairCell.Kind)
	}
	if pairCell.Left.Kind != KNum {
		t.Errorf("component not forced in place: %v", pairCell.Left.Kind)
	}
}

func TestConstructorSaturationLayout(t *testing.T) {
	ev, pool := newTestEvaluator()
	con := &ast.Con{Name: pool.Intern("mk"), NArgs: 2}

	expr := ast.NewApply(ast.NewApply(ast.NewCons(con), ast.NewNum(1)), ast.NewNum(2))
	v, err := ev.Force(NewSusp(expr, nil))
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KCons || v.Con != con {
		t.Fatalf("not a construction: %+v", v)
	}
	// layout is (v1, v2): first argument on the left
	first, err := ev.Force(v.Arg.Left)
	if err != nil || first.Num != 1 {
		t.Errorf("first argument: %+v %v", first, err)
	}
	second, err := ev.Force(v.Arg.Right)
	if err != nil || second.Num != 2 {
		t.Errorf("second argument: %+v %v", second, err)
	}
}

func TestPartialApplicationStaysInWHNF(t *testing.T) {
	ev, pool := newTestEvaluator()
	con := &ast.Con{Name: pool.Intern("mk"), NArgs: 2}

	expr := ast.NewApply(ast.NewCons(con), ast.NewNum(1))
	v, err := ev.Force(NewSusp(expr, nil))
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KPApp || v.Arity != 1 {
		t.Fatalf("partial application: %+v", v)
	}
}

func TestStripAndPredDirectives(t *testing.T) {
	ev, pool := newTestEvaluator()
	con := &ast.Con{Name: pool.Intern("wrap"), NArgs: 1}
	wrapped := NewCons(con, NewNum(3))

	v, err := ev.Force(NewDirs(path.Path{path.Strip}, wrapped))
	if err != nil || v.Num != 3 {
		t.Fatalf("strip: %+v %v", v, err)
	}
	v, err = ev.Force(NewDirs(path.Path{path.Pred}, NewNum(3)))
	if err != nil || v.Num != 2 {
		t.Fatalf("pred: %+v %v", v, err)
	}
}

func TestInterruptStopsEvaluation(t *testing.T) {
	ev, _ := newTestEvaluator()
	ev.Interrupt()
	_, err := ev.Force(NewSusp(ast.NewNum(1), nil))
	if err == nil {
		t.Fatalf("expected an interruption error")
	}
	ev.ResetInterrupt()
	if _, err := ev.Force(NewSusp(ast.NewNum(1), nil)); err != nil {
		t.Fatalf("interrupt not cleared: %v", err)
	}
}
