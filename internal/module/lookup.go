package module

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/names"
)

// lookHere searches the current module and, for a private shadow, its
// public part.
func lookHere[T any](w *World, find func(*Module) (T, bool)) (T, bool) {
	if v, ok := find(w.Current()); ok {
		return v, true
	}
	if pub := w.Current().Public; pub != nil {
		return find(pub)
	}
	var zero T
	return zero, false
}

// lookEverywhere additionally searches the transitively used modules in
// reverse declaration order, so the most recently mentioned module wins
// on ties.
func lookEverywhere[T any](w *World, find func(*Module) (T, bool)) (T, bool) {
	if v, ok := lookHere(w, find); ok {
		return v, true
	}
	all := w.Current().AllUses
	for i := len(w.list) - 1; i >= Standard; i-- {
		if !all[i] {
			continue
		}
		if v, ok := find(w.list[i]); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func findOp(name *names.Name) func(*Module) (*Op, bool) {
	return func(m *Module) (*Op, bool) {
		for _, op := range m.Ops {
			if op.Name == name {
				return op, true
			}
		}
		return nil, false
	}
}

func findType(name *names.Name) func(*Module) (*ast.DefType, bool) {
	return func(m *Module) (*ast.DefType, bool) {
		for _, dt := range m.Types {
			if dt.Name == name {
				return dt, true
			}
		}
		return nil, false
	}
}

func findCons(name *names.Name) func(*Module) (*ast.Con, bool) {
	return func(m *Module) (*ast.Con, bool) {
		for _, dt := range m.Types {
			if !dt.IsData() {
				continue
			}
			for c := dt.Cons; c != nil; c = c.Next {
				if c.Name == name {
					return c, true
				}
			}
		}
		return nil, false
	}
}

func findFn(name *names.Name) func(*Module) (*ast.Func, bool) {
	return func(m *Module) (*ast.Func, bool) {
		for _, fn := range m.Fns {
			if fn.Name == name {
				return fn, true
			}
		}
		return nil, false
	}
}

// DeclareOp records an operator in the current module, clamping its
// precedence.
func (w *World) DeclareOp(name *names.Name, prec int, assoc Assoc) {
	if prec < 0 {
		prec = 0
	}
	if prec > 9 {
		prec = 9
	}
	w.Current().Ops = append(w.Current().Ops, &Op{Name: name, Prec: prec, Assoc: assoc})
}

// LookupOp finds an operator visible from the current module.
func (w *World) LookupOp(name *names.Name) *Op {
	op, _ := lookEverywhere(w, findOp(name))
	return op
}

// DeclareType records a type in the current module.
func (w *World) DeclareType(dt *ast.DefType) {
	w.Current().Types = append(w.Current().Types, dt)
	if w.InStandard() {
		w.rememberType(dt)
	}
}

// LookupType finds a type visible from the current module.
func (w *World) LookupType(name *names.Name) *ast.DefType {
	dt, _ := lookEverywhere(w, findType(name))
	return dt
}

// LocalType finds a type in the current module only.
func (w *World) LocalType(name *names.Name) *ast.DefType {
	dt, _ := lookHere(w, findType(name))
	return dt
}

// LookupCons finds a data constructor visible from the current module.
func (w *World) LookupCons(name *names.Name) *ast.Con {
	c, _ := lookEverywhere(w, findCons(name))
	return c
}

// LocalCons finds a data constructor in the current module only.
func (w *World) LocalCons(name *names.Name) *ast.Con {
	c, _ := lookHere(w, findCons(name))
	return c
}

// DeclareFn records a function in the current module.
func (w *World) DeclareFn(fn *ast.Func) {
	w.Current().Fns = append(w.Current().Fns, fn)
}

// DeleteFn removes a function from the current module (redeclaration of
// an implicitly declared name).
func (w *World) DeleteFn(fn *ast.Func) {
	fns := w.Current().Fns
	for i, f := range fns {
		if f == fn {
			w.Current().Fns = append(fns[:i:i], fns[i+1:]...)
			return
		}
	}
}

// LookupFn finds a function visible from the current module.
func (w *World) LookupFn(name *names.Name) *ast.Func {
	fn, _ := lookEverywhere(w, findFn(name))
	return fn
}

// LocalFn finds a function in the current module only.
func (w *World) LocalFn(name *names.Name) *ast.Func {
	fn, _ := lookHere(w, findFn(name))
	return fn
}

// rememberType caches the primitive types and constructors as the
// Standard module declares them. The host registers these itself before
// reading Standard, but redeclarations there (abstract types fulfilled
// later) must keep the cache current.
func (w *World) rememberType(dt *ast.DefType) {
	switch dt.Name.String() {
	case "->":
		w.Function = dt
	case "#":
		w.Product = dt
	case "bool":
		w.BoolType = dt
	case "num":
		w.NumType = dt
	case "list":
		w.ListType = dt
	case "char":
		w.CharType = dt
	}
	if !dt.IsData() {
		return
	}
	for c := dt.Cons; c != nil; c = c.Next {
		switch c.Name.String() {
		case "nil":
			w.Nil = c
		case "::":
			w.ConsC = c
		case "succ":
			w.Succ = c
		case "true":
			w.TrueC = c
		case "false":
			w.FalseC = c
		}
	}
}
