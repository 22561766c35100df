package infer

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
)

// Declaration-time checks on recursive types and parameter polarities.

// IsHeader reports whether the expansion of t is headed by dt: the body
// is peeled through mu binders and synonym definitions until a variable
// or a data constructor is reached.
func IsHeader(t *ast.Type, dt *ast.DefType) bool {
	for {
		switch t.Kind {
		case ast.TyVar:
			return false
		case ast.TyMu:
			t = t.Body
		case ast.TyCons:
			if t.DefType == dt {
				return true
			}
			if !t.DefType.IsSynonym() {
				return false
			}
			t = t.DefType.Type
		}
	}
}

// BadRecType rejects a reference to the type being defined that could
// surface as the head of the term through a synonym chain: such a
// reference is not guarded by any constructor, so expansion would never
// produce structure. Recursion under a data constructor (including
// products and functions) is productive and allowed.
func BadRecType(dt *ast.DefType, t *ast.Type) error {
	through := 0
	for {
		switch t.Kind {
		case ast.TyVar:
			return nil
		case ast.TyMu:
			t = t.Body
		case ast.TyCons:
			if t.DefType == dt {
				if through > 0 || dt.IsSynonym() {
					return diag.New(diag.Sem,
						"'%s': unguarded recursive reference", dt.Name)
				}
				return nil
			}
			if !t.DefType.IsSynonym() {
				return nil
			}
			through++
			if through > 64 {
				return diag.New(diag.Sem, "type synonyms nested too deeply")
			}
			t = t.DefType.Type
		}
	}
}

// Polarities walks declaration bodies and accumulates, per parameter of
// the type being defined, the polarity of its occurrences. Parameters
// occurring under a mu binder count as both (conservative).
type Polarities struct {
	dt      *ast.DefType
	varlist []*ast.Type
	pols    []ast.Polarity
}

// StartPolarities begins accumulation for a definition of dt with the
// given parameter list.
func StartPolarities(dt *ast.DefType, varlist []*ast.Type) *Polarities {
	return &Polarities{dt: dt, varlist: varlist, pols: make([]ast.Polarity, len(varlist))}
}

// Compute adds the occurrences in one body or constructor-argument type.
func (p *Polarities) Compute(t *ast.Type) {
	p.walk(t, ast.PolPos, false)
}

func (p *Polarities) walk(t *ast.Type, ctx ast.Polarity, underMu bool) {
	switch t.Kind {
	case ast.TyVar:
		if t.MuBound {
			return
		}
		for i, v := range p.varlist {
			if v.Var == t.Var {
				if underMu {
					p.pols[i] |= ast.PolBoth
				} else {
					p.pols[i] |= ctx
				}
				return
			}
		}
	case ast.TyMu:
		p.walk(t.Body, ctx, true)
	case ast.TyCons:
		pols := t.DefType.Pols
		for i, arg := range t.Args {
			pi := ast.PolBoth
			if t.DefType != p.dt && i < len(pols) {
				// recursive references to the type being defined are
				// conservative: its polarities are still being computed
				pi = pols[i]
			}
			switch pi {
			case ast.PolNone:
				// parameter never used; occurrences cannot surface
			case ast.PolPos:
				p.walk(arg, ctx, underMu)
			case ast.PolNeg:
				p.walk(arg, ctx.Flip(), underMu)
			default:
				p.walk(arg, ast.PolBoth, underMu)
			}
		}
	}
}

// Finish returns the computed polarities.
func (p *Polarities) Finish() []ast.Polarity { return p.pols }

// CheckPolarities verifies that a redeclaration preserves every
// parameter's polarity.
func CheckPolarities(dt *ast.DefType, newPols []ast.Polarity) error {
	if len(dt.Pols) == 0 {
		return nil
	}
	for i, old := range dt.Pols {
		if i < len(newPols) && newPols[i] != old {
			return diag.New(diag.Sem,
				"'%s': polarity of parameter %d changed by redeclaration",
				dt.Name, i+1)
		}
	}
	return nil
}
