package interp

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/infer"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/parser"
)

// Declaration handling: `dec`, `---`, `data`, `type`, `abstype`. Types
// arrive as syntax and are resolved against the current module here.

// typeContext carries the binding context while a syntactic type is
// turned into a type term: the type being defined (if any), its
// parameters, and the mu variables in scope.
type typeContext struct {
	s       *Session
	cur     *ast.DefType
	varlist []*ast.Type
	muStack []*names.Name
}

func (tc *typeContext) build(te *parser.TypeExpr) (*ast.Type, error) {
	if te.Mu {
		if len(tc.muStack) >= config.MaxMuDepth {
			return nil, diag.New(diag.Sem, "mu types nested too deeply")
		}
		tc.muStack = append(tc.muStack, te.MuVar)
		body, err := tc.build(te.Body)
		tc.muStack = tc.muStack[:len(tc.muStack)-1]
		if err != nil {
			return nil, err
		}
		return ast.NewMuType(te.MuVar, body), nil
	}

	if len(te.Args) == 0 {
		// a nullary name may be a mu-bound variable, a parameter of the
		// definition, or a declared type variable
		for i := len(tc.muStack) - 1; i >= 0; i-- {
			if tc.muStack[i] == te.Name {
				t := ast.NewTypeVar(te.Name)
				t.MuBound = true
				t.Index = len(tc.muStack) - 1 - i
				return t, nil
			}
		}
		if tc.cur != nil {
			for _, param := range tc.varlist {
				if param.Var == te.Name {
					return param, nil
				}
			}
		} else if tc.s.World.LookupTVar(te.Name) {
			return ast.NewTypeVar(te.Name), nil
		}
	}

	var dt *ast.DefType
	if tc.cur != nil && te.Name == tc.cur.Name {
		dt = tc.cur
	} else if dt = tc.s.World.LookupType(te.Name); dt == nil {
		return nil, diag.New(diag.Sem, "'%s' is not a defined type", te.Name)
	}
	if dt.Arity != len(te.Args) {
		return nil, diag.New(diag.Sem, "'%s': wrong number of type arguments", te.Name)
	}
	if dt.Arity > 0 && dt.Tupled != te.Tupled {
		return nil, diag.New(diag.Sem, "'%s': different argument syntax", te.Name)
	}
	args := make([]*ast.Type, len(te.Args))
	for i, a := range te.Args {
		t, err := tc.build(a)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	t := ast.NewDefTypeRef(dt, args)
	t.Tupled = te.Tupled
	return t, nil
}

// qualify numbers the free variables of a declared type in order of
// first appearance.
func qualify(t *ast.Type) *ast.QType {
	seen := map[*names.Name]int{}
	var number func(*ast.Type)
	number = func(t *ast.Type) {
		switch t.Kind {
		case ast.TyVar:
			if t.MuBound {
				return
			}
			idx, ok := seen[t.Var]
			if !ok {
				idx = len(seen)
				seen[t.Var] = idx
			}
			t.Index = idx
		case ast.TyMu:
			number(t.Body)
		case ast.TyCons:
			for _, a := range t.Args {
				number(a)
			}
		}
	}
	number(t)
	return &ast.QType{Type: t, NTVars: len(seen)}
}

// declValue executes one item of a `dec` command.
func (s *Session) declValue(name *names.Name, te *parser.TypeExpr) error {
	tc := &typeContext{s: s}
	t, err := tc.build(te)
	if err != nil {
		return err
	}
	qt := qualify(t)

	if fn := s.World.LocalFn(name); fn != nil && fn.ExplicitDec {
		return diag.New(diag.Sem, "'%s': value identifier already declared", name)
	} else if cp := s.World.LocalCons(name); cp != nil && cp != s.World.Succ {
		return diag.New(diag.Sem, "'%s': value identifier already declared", name)
	} else if fn != nil {
		// replace the implicit declaration
		s.World.DeleteFn(fn)
	}
	s.World.DeclareFn(&ast.Func{Name: name, ExplicitDec: true, QType: qt})
	return nil
}

// defValue executes a `---` definition: resolve, check against the
// declaration, and merge the new equation into the decision tree.
func (s *Session) defValue(lhs, rhs *ast.Expr) error {
	// if-then-else may be redefined; its sugar node is a plain
	// application here
	if lhs.Kind == ast.EIf {
		lhs.Kind = ast.EApply
	}

	arity := 0
	head := lhs
	for head.Kind == ast.EApply {
		arity++
		head = head.Func
	}
	if head.Kind != ast.EVar {
		return diag.New(diag.Sem, "illegal left-hand-side")
	}
	fn := s.World.LocalFn(head.VarName)
	if fn == nil {
		return diag.New(diag.Sem, "'%s': value identifier not locally declared", head.VarName)
	}
	if fn.ExplicitDef && fn.Arity != arity {
		return diag.New(diag.Sem,
			"'%s': attempted redefinition with a different arity", head.VarName)
	}
	if fn.Code != nil && arity == 0 {
		return diag.New(diag.Sem,
			"'%s': attempt to redefine value identifier", head.VarName)
	}

	branch := &ast.Branch{Formals: lhs, Expr: rhs}
	if err := s.Resolver.Branch(branch); err != nil {
		return err
	}
	if fn.ExplicitDec {
		if err := s.Check.ChkFunc(branch, fn); err != nil {
			return err
		}
	}
	if !fn.ExplicitDef {
		// drop any generated (functor) equations on first user equation
		fn.Code = nil
		fn.Branch = nil
		fn.ExplicitDef = true
	}
	head.Kind = ast.EDefun
	head.Fn = fn
	fn.Arity = arity

	// append the branch at the end
	if fn.Branch == nil {
		fn.Branch = branch
	} else {
		br := fn.Branch
		for br.Next != nil {
			br = br.Next
		}
		br.Next = branch
	}
	if fn.Code == nil && arity > 0 {
		fn.Code = ast.NewFNoMatch(fn)
	}
	fn.Code = s.Comp.Branch(fn.Code, branch)
	return nil
}

// headDefType interprets the head of a type declaration and finds or
// creates its DefType.
func (s *Session) headDefType(head *parser.TypeExpr) (*ast.DefType, []*ast.Type, bool, error) {
	if head.Mu || head.Name == nil {
		return nil, nil, false, diag.New(diag.Sem, "illegal type declaration head")
	}
	varlist := make([]*ast.Type, 0, len(head.Args))
	for i, a := range head.Args {
		if a.Mu || len(a.Args) > 0 {
			return nil, nil, false, diag.New(diag.Sem,
				"'%s': type parameters must be variables", head.Name)
		}
		for _, prev := range varlist {
			if prev.Var == a.Name {
				return nil, nil, false, diag.New(diag.Sem,
					"'%s': parameter is repeated", a.Name)
			}
		}
		v := ast.NewTypeVar(a.Name)
		v.Index = i
		varlist = append(varlist, v)
	}

	dt := s.World.LocalType(head.Name)
	already := dt != nil
	if already {
		if !dt.IsAbstract() {
			return nil, nil, false, diag.New(diag.Sem,
				"'%s': attempt to redefine type", head.Name)
		}
		if dt.Arity != len(varlist) {
			return nil, nil, false, diag.New(diag.Sem,
				"'%s': wrong number of type arguments", head.Name)
		}
		if dt.Arity > 0 && dt.Tupled != head.Tupled {
			return nil, nil, false, diag.New(diag.Sem,
				"'%s': different argument syntax", head.Name)
		}
	} else {
		dt = &ast.DefType{
			Name:   head.Name,
			Arity:  len(varlist),
			Tupled: head.Tupled,
		}
	}
	return dt, varlist, already, nil
}

// declareType enters a type into the current module together with the
// implicitly declared functor name.
func (s *Session) declareType(dt *ast.DefType) {
	s.World.DeclareType(dt)
	s.World.DeclareFn(&ast.Func{Name: dt.Name, TyCons: dt})
}

// execAbstype executes one head of an `abstype` command.
func (s *Session) execAbstype(head *parser.TypeExpr) error {
	dt, varlist, already, err := s.headDefType(head)
	if err != nil {
		return err
	}
	if already {
		return nil // reaffirming an abstract type is a no-op
	}
	dt.VarList = varlist
	s.declareType(dt)
	return nil
}

// execSyn executes a `type T == t` command.
func (s *Session) execSyn(cmd *parser.SynCmd) error {
	dt, varlist, already, err := s.headDefType(cmd.Head)
	if err != nil {
		return err
	}
	tc := &typeContext{s: s, cur: dt, varlist: varlist}
	rhs, err := tc.build(cmd.RHS)
	if err != nil {
		return err
	}
	if infer.IsHeader(rhs, dt) {
		return diag.New(diag.Sem, "'%s': left-recursive type definition", dt.Name)
	}
	if err := infer.BadRecType(dt, rhs); err != nil {
		return err
	}
	pol := infer.StartPolarities(dt, varlist)
	pol.Compute(rhs)
	newPols := pol.Finish()
	if already {
		if err := infer.CheckPolarities(dt, newPols); err != nil {
			return err
		}
	}

	dt.VarList = varlist
	dt.Pols = newPols
	dt.Type = rhs

	// expansion depth: one more than the depth of the head
	t := rhs
	for t.Kind == ast.TyMu {
		t = t.Body
	}
	dt.SynDepth = 1
	if t.Kind == ast.TyCons {
		dt.SynDepth += t.DefType.SynDepth
	}
	if dt.SynDepth > config.MaxSynDepth {
		return diag.New(diag.Sem, "type synonyms nested too deeply")
	}

	if already {
		s.World.FixSynonyms()
	} else {
		s.declareType(dt)
	}
	return s.defFunctor(dt)
}

// execData executes a `data` command.
func (s *Session) execData(cmd *parser.DataCmd) error {
	dt, varlist, already, err := s.headDefType(cmd.Head)
	if err != nil {
		return err
	}
	tc := &typeContext{s: s, cur: dt, varlist: varlist}
	newType := ast.NewDefTypeRef(dt, varlist)
	newType.Tupled = dt.Tupled

	pol := infer.StartPolarities(dt, varlist)
	var first, last *ast.Con
	index := 0
	for _, alt := range cmd.Alts {
		if s.World.LocalCons(alt.Name) != nil {
			return diag.New(diag.Sem, "'%s': attempt to redefine constructor", alt.Name)
		}
		args := make([]*ast.Type, len(alt.Args))
		for i, a := range alt.Args {
			if args[i], err = tc.build(a); err != nil {
				return err
			}
		}
		cp := &ast.Con{Name: alt.Name, Index: index, NTVars: dt.Arity}
		index++
		if alt.Tupled && len(args) > 0 {
			cp.NArgs = 1
			cp.Type = funcType(s, multiPairType(s, args), newType)
		} else {
			cp.NArgs = len(args)
			cp.Type = multiFuncType(s, args, newType)
		}
		// recursion and polarity checks per argument
		t := cp.Type
		for i := 0; i < cp.NArgs; i++ {
			if err := infer.BadRecType(dt, t.Args[0]); err != nil {
				return err
			}
			pol.Compute(t.Args[0])
			t = t.Args[1]
		}
		if err := s.checkConsDecl(cp); err != nil {
			return err
		}
		if first == nil {
			first = cp
		} else {
			last.Next = cp
		}
		last = cp
	}
	newPols := pol.Finish()
	if already {
		if err := infer.CheckPolarities(dt, newPols); err != nil {
			return err
		}
	}

	dt.VarList = varlist
	dt.Pols = newPols
	dt.Cons = first

	// constructors may fulfil earlier value declarations
	for cp := first; cp != nil; cp = cp.Next {
		if fn := s.World.LocalFn(cp.Name); fn != nil {
			if err := s.defValue(ast.NewVar(cp.Name), ast.NewCons(cp)); err != nil {
				return err
			}
			fn.ExplicitDef = false
		}
	}
	if !already {
		s.declareType(dt)
	}
	return s.defFunctor(dt)
}

// checkConsDecl validates a constructor against an earlier value
// declaration of the same name.
func (s *Session) checkConsDecl(cp *ast.Con) error {
	fn := s.World.LocalFn(cp.Name)
	if fn == nil {
		return nil
	}
	if fn.Code != nil {
		return diag.New(diag.Sem, "'%s': attempt to redefine value identifier", cp.Name)
	}
	if fn.ExplicitDec &&
		!s.Check.TyInstance(fn.QType.Type, fn.QType.NTVars, cp.Type, cp.NTVars) {
		return diag.New(diag.Sem, "'%s': type does not match declaration", cp.Name)
	}
	return nil
}

func funcType(s *Session, from, to *ast.Type) *ast.Type {
	return ast.NewDefTypeRef(s.World.Function, []*ast.Type{from, to})
}

func pairType(s *Session, left, right *ast.Type) *ast.Type {
	return ast.NewDefTypeRef(s.World.Product, []*ast.Type{left, right})
}

func multiPairType(s *Session, args []*ast.Type) *ast.Type {
	if len(args) == 1 {
		return args[0]
	}
	return pairType(s, args[0], multiPairType(s, args[1:]))
}

func multiFuncType(s *Session, args []*ast.Type, result *ast.Type) *ast.Type {
	if len(args) == 0 {
		return result
	}
	return funcType(s, args[0], multiFuncType(s, args[1:], result))
}
