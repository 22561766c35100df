package module

import (
	"strings"

	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/names"
)

// Type variables are registered globally and made visible per module.
// Primes are ignored when declaring or checking: the system prints primed
// variables when the known ones run out, and reads them back the same way.

// trimPrimes removes trailing primes from a type-variable identifier.
func (w *World) trimPrimes(name *names.Name) *names.Name {
	s := name.String()
	if i := strings.IndexByte(s, '\''); i >= 0 {
		return w.Pool.Intern(s[:i])
	}
	return name
}

// DeclareTVar registers a type variable in the current module.
func (w *World) DeclareTVar(name *names.Name) error {
	name = w.trimPrimes(name)
	n := -1
	for i, tv := range w.tvarNames {
		if tv == name {
			n = i
			break
		}
	}
	if n < 0 {
		n = len(w.tvarNames)
		w.tvarNames = append(w.tvarNames, name)
	}
	cur := w.Current()
	cur.TVars[n] = true
	cur.AllTVars[n] = true
	return nil
}

// LookupTVar reports whether name is a declared type variable visible
// from the current module.
func (w *World) LookupTVar(name *names.Name) bool {
	name = w.trimPrimes(name)
	for n, tv := range w.tvarNames {
		if tv == name && w.Current().AllTVars[n] {
			return true
		}
	}
	return false
}

// TVarName renders inference variable number n using the type variables
// visible in the current module, adding primes when they run out.
func (w *World) TVarName(n int) (string, error) {
	visible := w.Current().AllTVars
	ntvars := len(visible)
	if ntvars == 0 {
		return "", diag.New(diag.Lib, "no type variables declared")
	}
	var b strings.Builder
	b.WriteString(w.nthVisibleTVar(n % ntvars).String())
	for n = n / ntvars; n > 0; n-- {
		b.WriteByte('\'')
	}
	return b.String(), nil
}

func (w *World) nthVisibleTVar(n int) *names.Name {
	visible := w.Current().AllTVars
	i := len(w.tvarNames) - 1
	for {
		i = (i + 1) % len(w.tvarNames)
		for !visible[i] {
			i = (i + 1) % len(w.tvarNames)
		}
		if n == 0 {
			return w.tvarNames[i]
		}
		n--
	}
}

// TVarIndices returns the names of the type variables declared directly
// in m, in registry order.
func (w *World) TVarIndices(m *Module) []*names.Name {
	var out []*names.Name
	for i, tv := range w.tvarNames {
		if m.TVars[i] {
			out = append(out, tv)
		}
	}
	return out
}
