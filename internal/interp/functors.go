package interp

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
)

// A type declaration also defines its name as a value: the map derived
// from its structure. A nullary type is the identity on itself; a
// synonym maps as its body; a data type maps argument functions over
// each constructor. The generated equations flow through the normal
// definition pipeline.

// functor argument variables; data constructors take at most this many
// arguments.
var functorVars = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
}

func (s *Session) functorVar(i int) *ast.Expr {
	return ast.NewVar(s.Pool.Intern(functorVars[i]))
}

func (s *Session) defFunctor(dt *ast.DefType) error {
	switch {
	case dt.Arity == 0:
		//	--- T x <= x;
		x := s.functorVar(0)
		if err := s.defValue(ast.NewApply(ast.NewVar(dt.Name), x), s.functorVar(0)); err != nil {
			return err
		}

	case dt.IsSynonym():
		//	type T(a1, ..., an) == t   gives   --- T(a1, ..., an) <= t;
		lhs := s.functorHead(dt)
		if err := s.defValue(lhs, s.exprOfType(dt.Type)); err != nil {
			return err
		}

	default:
		//	data T a == ... ++ c t1 ... tk ++ ...
		// gives, per constructor,
		//	--- T a (c x1 ... xk) <= c ((t1 a) x1) ... ((tk a) xk);
		for cp := dt.Cons; cp != nil; cp = cp.Next {
			if cp.NArgs > len(functorVars) {
				return diag.New(diag.Sem, "'%s': too many constructor arguments", cp.Name)
			}
			lhs := ast.NewApply(s.functorHead(dt), s.patOfConstr(cp))
			if err := s.defValue(lhs, s.bodyOfConstr(cp)); err != nil {
				return err
			}
		}
	}
	if fn := s.World.LocalFn(dt.Name); fn != nil {
		fn.ExplicitDef = false
	}
	return nil
}

// functorHead builds `T(a1, ..., an)` or `T a1 ... an`.
func (s *Session) functorHead(dt *ast.DefType) *ast.Expr {
	head := ast.NewVar(dt.Name)
	if dt.Arity == 0 {
		return head
	}
	if dt.Tupled {
		return ast.NewApply(head, s.exprOfVarTuple(dt.VarList))
	}
	e := head
	for _, v := range dt.VarList {
		e = ast.NewApply(e, ast.NewVar(v.Var))
	}
	return e
}

func (s *Session) patOfConstr(cp *ast.Con) *ast.Expr {
	pat := ast.NewCons(cp)
	var e *ast.Expr = pat
	for i := 0; i < cp.NArgs; i++ {
		e = ast.NewApply(e, s.functorVar(i))
	}
	return e
}

func (s *Session) bodyOfConstr(cp *ast.Con) *ast.Expr {
	body := ast.NewCons(cp)
	t := cp.Type
	for i := 0; i < cp.NArgs; i++ {
		body = ast.NewApply(body,
			ast.NewApply(s.exprOfType(t.Args[0]), s.functorVar(i)))
		t = t.Args[1]
	}
	return body
}

// exprOfType renders a type term as the expression computing its map.
func (s *Session) exprOfType(t *ast.Type) *ast.Expr {
	switch t.Kind {
	case ast.TyVar:
		return ast.NewVar(t.Var)
	case ast.TyMu:
		return ast.NewMu(ast.NewVar(t.MuName), s.exprOfType(t.Body))
	default:
		head := ast.NewVar(t.DefType.Name)
		if len(t.Args) == 0 {
			return head
		}
		// the declaration syntax of the constructor decides how its map
		// takes the argument maps
		if t.DefType.Tupled {
			return ast.NewApply(head, s.exprOfTypeTuple(t.Args))
		}
		e := head
		for _, a := range t.Args {
			e = ast.NewApply(e, s.exprOfType(a))
		}
		return e
	}
}

func (s *Session) exprOfTypeTuple(args []*ast.Type) *ast.Expr {
	if len(args) == 1 {
		return s.exprOfType(args[0])
	}
	return ast.NewPair(s.exprOfType(args[0]), s.exprOfTypeTuple(args[1:]))
}

func (s *Session) exprOfVarTuple(vars []*ast.Type) *ast.Expr {
	if len(vars) == 1 {
		return ast.NewVar(vars[0].Var)
	}
	return ast.NewPair(ast.NewVar(vars[0].Var), s.exprOfVarTuple(vars[1:]))
}
