package interp

import (
	"github.com/hopelang/hope/internal/ast"
)

// registerPrimitives installs the primitive types and constructors into
// the Standard module before its source is read: the type checker, the
// pattern compiler and the list sugar need direct handles on them.
func (s *Session) registerPrimitives() {
	intern := s.Pool.Intern

	tv := func(name string, idx int) *ast.Type {
		t := ast.NewTypeVar(intern(name))
		t.Index = idx
		return t
	}
	ref := func(dt *ast.DefType, args ...*ast.Type) *ast.Type {
		return ast.NewDefTypeRef(dt, args)
	}

	// function and product types; their parameter polarities are fixed
	function := &ast.DefType{
		Name:    intern("->"),
		Arity:   2,
		Tupled:  true,
		VarList: []*ast.Type{tv("alpha", 0), tv("beta", 1)},
		Pols:    []ast.Polarity{ast.PolNeg, ast.PolPos},
	}
	product := &ast.DefType{
		Name:    intern("#"),
		Arity:   2,
		Tupled:  true,
		VarList: []*ast.Type{tv("alpha", 0), tv("beta", 1)},
		Pols:    []ast.Polarity{ast.PolPos, ast.PolPos},
	}
	fn := func(from, to *ast.Type) *ast.Type { return ref(function, from, to) }
	pair := func(l, r *ast.Type) *ast.Type { return ref(product, l, r) }

	// num with its matching constructor
	num := &ast.DefType{Name: intern("num")}
	num.Cons = &ast.Con{
		Name:  intern("succ"),
		NArgs: 1,
		Type:  fn(ref(num), ref(num)),
	}

	char := &ast.DefType{Name: intern("char")}

	boolType := &ast.DefType{Name: intern("bool")}
	trueCon := &ast.Con{Name: intern("true"), Index: 1, Type: ref(boolType)}
	boolType.Cons = &ast.Con{
		Name:  intern("false"),
		Index: 0,
		Type:  ref(boolType),
		Next:  trueCon,
	}

	listAlpha := tv("alpha", 0)
	list := &ast.DefType{
		Name:    intern("list"),
		Arity:   1,
		VarList: []*ast.Type{listAlpha},
		Pols:    []ast.Polarity{ast.PolPos},
	}
	listRef := ref(list, listAlpha)
	consCon := &ast.Con{
		Name:   intern("::"),
		NArgs:  1,
		Index:  1,
		NTVars: 1,
		Type:   fn(pair(listAlpha, listRef), listRef),
	}
	list.Cons = &ast.Con{
		Name:   intern("nil"),
		Index:  0,
		NTVars: 1,
		Type:   listRef,
		Next:   consCon,
	}

	for _, dt := range []*ast.DefType{function, product, num, char, boolType, list} {
		s.declareType(dt)
	}
}
