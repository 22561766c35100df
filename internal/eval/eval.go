package eval

import (
	"sync/atomic"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/path"
)

// Interruption reasons; the signal handler and the time limit set the
// flag, the evaluator checks it at every reduction step.
const (
	intNone int32 = iota
	intSignal
	intTimeout
)

// DiagPrinter renders values for match-failure diagnostics; the printer
// package supplies the implementation.
type DiagPrinter interface {
	FMatch(fn *ast.Func, env *Cell) string
	LMatch(who *ast.Expr, env *Cell) string
}

type Evaluator struct {
	World   *module.World
	Print   DiagPrinter
	Streams *StreamTable

	ordering cmpOrder
	flag     atomic.Int32
}

func New(w *module.World, streams *StreamTable) *Evaluator {
	return &Evaluator{World: w, Streams: streams}
}

// Interrupt requests cancellation at the next suspension point.
func (ev *Evaluator) Interrupt() { ev.flag.CompareAndSwap(intNone, intSignal) }

// Timeout requests cancellation with a time-limit diagnostic.
func (ev *Evaluator) Timeout() { ev.flag.CompareAndSwap(intNone, intTimeout) }

// ResetInterrupt clears a pending cancellation before a new evaluation.
func (ev *Evaluator) ResetInterrupt() { ev.flag.Store(intNone) }

func (ev *Evaluator) checkInterrupt() error {
	switch ev.flag.Load() {
	case intSignal:
		return diag.New(diag.Exec, "interrupted")
	case intTimeout:
		return diag.New(diag.Exec, "time limit exceeded")
	}
	return nil
}

// Force reduces the cell to weak head normal form, updating it in place
// so later forces are O(1). The returned cell is the argument.
func (ev *Evaluator) Force(c *Cell) (*Cell, error) {
	for {
		if err := ev.checkInterrupt(); err != nil {
			return nil, err
		}
		switch c.Kind {
		case KNum, KChar, KConst, KCons, KPair, KPApp:
			return c, nil

		case KDirs:
			r, err := ev.walkPath(c.Path, c.Val)
			if err != nil {
				return nil, err
			}
			// force the addressed cell in place first, so sharing through
			// other paths sees the memoized result
			if r, err = ev.Force(r); err != nil {
				return nil, err
			}
			*c = *r

		case KSusp:
			if err := ev.reduce(c); err != nil {
				return nil, err
			}

		case KUCase:
			if err := ev.drive(c); err != nil {
				return nil, err
			}

		case KStream:
			if err := ev.readStream(c); err != nil {
				return nil, err
			}

		default:
			return nil, diag.New(diag.Intern, "bad cell in evaluator")
		}
	}
}

// walkPath forces the base value and follows the directives down to the
// addressed sub-value.
func (ev *Evaluator) walkPath(p path.Path, val *Cell) (*Cell, error) {
	v, err := ev.Force(val)
	if err != nil {
		return nil, err
	}
	for _, d := range p {
		switch d {
		case path.Unroll:
			// force before projecting into a value no dispatch reached
			if v, err = ev.Force(v); err != nil {
				return nil, err
			}
		case path.Left:
			if v.Kind != KPair {
				return nil, diag.New(diag.Intern, "path projection into non-pair")
			}
			v = v.Left
		case path.Right:
			if v.Kind != KPair {
				return nil, diag.New(diag.Intern, "path projection into non-pair")
			}
			v = v.Right
		case path.Pred:
			if v, err = ev.Force(v); err != nil {
				return nil, err
			}
			if v.Kind != KNum || v.Num <= 0 {
				return nil, diag.New(diag.Intern, "pred of non-positive value")
			}
			v = NewNum(v.Num - 1)
		case path.Strip:
			if v, err = ev.Force(v); err != nil {
				return nil, err
			}
			if v.Kind != KCons {
				return nil, diag.New(diag.Intern, "strip of non-construction")
			}
			v = v.Arg
		}
	}
	return v, nil
}

// reduce performs one step on a suspension; the cell is left either in
// WHNF or as another reducible form for Force's loop.
func (ev *Evaluator) reduce(c *Cell) error {
	expr, env := c.Expr, c.Env
	switch expr.Kind {
	case ast.ENum:
		*c = Cell{Kind: KNum, Num: expr.Num}

	case ast.EChar:
		*c = Cell{Kind: KChar, Char: expr.Char}

	case ast.ECons:
		if expr.Con.NArgs == 0 {
			*c = Cell{Kind: KConst, Con: expr.Con}
		} else {
			*c = Cell{Kind: KPApp, Expr: expr, Env: env, Arity: expr.Con.NArgs}
		}

	case ast.EDefun:
		fn := expr.Fn
		if fn.Code == nil {
			return diag.New(diag.Exec, "'%s': used before being defined", fn.Name)
		}
		if fn.Arity == 0 {
			*c = Cell{Kind: KUCase, Code: fn.Code, Env: env}
		} else {
			*c = Cell{Kind: KPApp, Expr: expr, Env: env, Arity: fn.Arity}
		}

	case ast.ELambda, ast.EEqn, ast.EPresect, ast.EPostsect:
		*c = Cell{Kind: KPApp, Expr: expr, Env: env, Arity: expr.Arity}

	case ast.EPair:
		*c = Cell{Kind: KPair, Left: NewSusp(expr.Left, env), Right: NewSusp(expr.Right, env)}

	case ast.EParam:
		*c = Cell{Kind: KDirs, Path: expr.Where, Val: EnvSlot(env, expr.Level)}

	case ast.EApply, ast.EIf, ast.ELet, ast.EWhere:
		fv, err := ev.Force(NewSusp(expr.Func, env))
		if err != nil {
			return err
		}
		return ev.apply(c, fv, NewSusp(expr.Arg, env))

	case ast.ERLet, ast.ERWhere:
		// tie the knot: the bound expression sees its own value at
		// level 0
		bound := &Cell{}
		recEnv := NewPair(bound, env)
		*bound = Cell{Kind: KSusp, Expr: expr.Arg, Env: recEnv}
		*c = Cell{Kind: KUCase, Code: expr.Func.Code, Env: recEnv}

	case ast.EPlus:
		av, err := ev.Force(NewSusp(expr.Rest, env))
		if err != nil {
			return err
		}
		if av.Kind != KNum {
			return diag.New(diag.Intern, "plus of non-number")
		}
		*c = Cell{Kind: KNum, Num: av.Num + float64(expr.Incr)}

	case ast.EMu:
		// the sole slot of the new environment is the cell itself
		*c = Cell{Kind: KSusp, Expr: expr.Body, Env: NewPair(c, env)}

	default:
		return diag.New(diag.Intern, "unexpected expression in evaluator")
	}
	return nil
}

// apply grafts one pending argument onto a function value, writing the
// outcome into c.
func (ev *Evaluator) apply(c, fv, arg *Cell) error {
	if fv.Kind != KPApp {
		return diag.New(diag.Exec, "attempt to apply a non-function value")
	}
	newEnv := NewPair(arg, fv.Env)
	if fv.Arity > 1 {
		*c = Cell{Kind: KPApp, Expr: fv.Expr, Env: newEnv, Arity: fv.Arity - 1}
		return nil
	}
	// saturated
	switch fv.Expr.Kind {
	case ast.EDefun:
		*c = Cell{Kind: KUCase, Code: fv.Expr.Fn.Code, Env: newEnv}
	case ast.ECons:
		*c = Cell{Kind: KCons, Con: fv.Expr.Con, Arg: consPayload(newEnv, fv.Expr.Con.NArgs)}
	default: // lambda and the like
		*c = Cell{Kind: KUCase, Code: fv.Expr.Code, Env: newEnv}
	}
	return nil
}

// consPayload lays the k collected arguments out as
// (v1, (v2, ... (vk-1, vk)...)); the environment holds them in reverse.
func consPayload(env *Cell, k int) *Cell {
	acc := env.Left
	env = env.Right
	for i := 1; i < k; i++ {
		acc = NewPair(env.Left, acc)
		env = env.Right
	}
	return acc
}

// drive advances a decision tree one node.
func (ev *Evaluator) drive(c *Cell) error {
	node, env := c.Code, c.Env
	switch node.Kind {
	case ast.UCCase:
		scrut, err := ev.Force(NewDirs(node.Path, EnvSlot(env, node.Level)))
		if err != nil {
			return err
		}
		limb, err := selectLimb(node.Cases, scrut)
		if err != nil {
			return err
		}
		c.Code = limb

	case ast.UCSuccess:
		*c = Cell{Kind: KSusp, Expr: node.Body, Env: env}

	case ast.UCFNoMatch:
		return diag.New(diag.Exec, "no equation matches in '%s'", node.Defun.Name).
			WithDetail(ev.Print.FMatch(node.Defun, env))

	case ast.UCLNoMatch:
		return diag.New(diag.Exec, "no case matches").
			WithDetail(ev.Print.LMatch(node.Who, env))

	case ast.UCStrict:
		return ev.strict(c, node.Real, env)
	}
	return nil
}

func selectLimb(lc *ast.LCase, scrut *Cell) (*ast.UCase, error) {
	switch lc.Kind {
	case ast.LCAlgebraic:
		switch scrut.Kind {
		case KConst, KCons:
			return lc.Limbs[scrut.Con.Index], nil
		}
	case ast.LCNumeric:
		if scrut.Kind == KNum {
			switch {
			case scrut.Num < 0:
				return lc.Limbs[ast.NumLess], nil
			case scrut.Num == 0:
				return lc.Limbs[ast.NumEqual], nil
			default:
				return lc.Limbs[ast.NumGreater], nil
			}
		}
	case ast.LCCharacter:
		if scrut.Kind == KChar {
			return lc.CharLimb(scrut.Char), nil
		}
	}
	return nil, diag.New(diag.Intern, "case scrutinee has unexpected form")
}

// strict evaluates a native body on its already-reduced arguments.
func (ev *Evaluator) strict(c *Cell, real *ast.Expr, env *Cell) error {
	arg, err := ev.Force(EnvSlot(env, 0))
	if err != nil {
		return err
	}
	switch real.Kind {
	case ast.EBuiltin:
		fn := real.Native.(Native)
		r, err := fn(ev, arg)
		if err != nil {
			return err
		}
		*c = *r

	case ast.E1Math:
		if arg.Kind != KNum {
			return diag.New(diag.Intern, "arithmetic on non-number")
		}
		*c = Cell{Kind: KNum, Num: real.Fn1(arg.Num)}

	case ast.E2Math:
		if arg.Kind != KPair {
			return diag.New(diag.Intern, "arithmetic on non-pair")
		}
		x, err := ev.Force(arg.Left)
		if err != nil {
			return err
		}
		y, err := ev.Force(arg.Right)
		if err != nil {
			return err
		}
		if x.Kind != KNum || y.Kind != KNum {
			return diag.New(diag.Intern, "arithmetic on non-number")
		}
		n, err := real.Fn2(x.Num, y.Num)
		if err != nil {
			return err
		}
		*c = Cell{Kind: KNum, Num: n}

	default:
		return diag.New(diag.Intern, "unexpected strict body")
	}
	return nil
}

// readStream turns one character of input into a list cell.
func (ev *Evaluator) readStream(c *Cell) error {
	b, ok, err := c.Str.ReadChar()
	if err != nil {
		return err
	}
	if !ok {
		*c = Cell{Kind: KConst, Con: ev.World.Nil}
		return nil
	}
	rest := NewStreamCell(c.Str)
	*c = Cell{Kind: KCons, Con: ev.World.ConsC, Arg: NewPair(NewChar(b), rest)}
	return nil
}
