package eval

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
)

// Structural comparison. The argument is a pair of values compared
// lexicographically, forcing only as much of each as the comparison
// needs. Function values cannot be compared; meeting one is a runtime
// error rather than a type error, by design.

// cmpOrder caches the constructors of the ordering type once the
// Standard module has defined them.
type cmpOrder struct {
	less, equal, greater *ast.Con
}

// InitCompare resolves the ordering constructors; called when the
// Standard module finishes.
func InitCompare(ev *Evaluator) error {
	find := func(s string) (*ast.Con, error) {
		c := ev.World.LookupCons(ev.World.Pool.Intern(s))
		if c == nil {
			return nil, diag.New(diag.Lib, "'%s': standard constructor not defined", s)
		}
		return c, nil
	}
	var err error
	if ev.ordering.less, err = find("LESS"); err != nil {
		return err
	}
	if ev.ordering.equal, err = find("EQUAL"); err != nil {
		return err
	}
	if ev.ordering.greater, err = find("GREATER"); err != nil {
		return err
	}
	return nil
}

func compare(ev *Evaluator, arg *Cell) (*Cell, error) {
	if arg.Kind != KPair {
		return nil, diag.New(diag.Intern, "compare of non-pair")
	}
	c, err := ev.cmpValues(arg.Left, arg.Right)
	if err != nil {
		return nil, err
	}
	return NewConst(c), nil
}

func (ev *Evaluator) cmpValues(a, b *Cell) (*ast.Con, error) {
	x, err := ev.Force(a)
	if err != nil {
		return nil, err
	}
	y, err := ev.Force(b)
	if err != nil {
		return nil, err
	}
	switch x.Kind {
	case KNum:
		return ev.cmpOrdered(x.Num, y.Num), nil
	case KChar:
		return ev.cmpOrdered(float64(x.Char), float64(y.Char)), nil
	case KConst:
		return ev.cmpOrdered(float64(x.Con.Index), float64(y.Con.Index)), nil
	case KCons:
		if x.Con != y.Con {
			return ev.cmpOrdered(float64(x.Con.Index), float64(y.Con.Index)), nil
		}
		return ev.cmpValues(x.Arg, y.Arg)
	case KPair:
		c, err := ev.cmpValues(x.Left, y.Left)
		if err != nil {
			return nil, err
		}
		if c != ev.ordering.equal {
			return c, nil
		}
		return ev.cmpValues(x.Right, y.Right)
	case KPApp:
		return nil, diag.New(diag.Exec, "cannot compare functions")
	}
	return nil, diag.New(diag.Intern, "compare of unexpected value")
}

func (ev *Evaluator) cmpOrdered(x, y float64) *ast.Con {
	switch {
	case x < y:
		return ev.ordering.less
	case x > y:
		return ev.ordering.greater
	}
	return ev.ordering.equal
}
