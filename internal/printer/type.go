package printer

import (
	"strings"

	"github.com/hopelang/hope/internal/ast"
)

// Type renders a declared type term.
func (p *Printer) Type(t *ast.Type) string {
	var b strings.Builder
	p.typ(&b, t, tprecArrow)
	return b.String()
}

// QType renders a qualified type (the variable count is implicit in the
// names).
func (p *Printer) QType(q *ast.QType) string { return p.Type(q.Type) }

func (p *Printer) typ(b *strings.Builder, t *ast.Type, context int) {
	switch t.Kind {
	case ast.TyVar:
		b.WriteString(t.Var.String())
	case ast.TyMu:
		p.paren(b, tprecArrow, context, func() {
			b.WriteString("mu ")
			b.WriteString(t.MuName.String())
			b.WriteString(" => ")
			p.typ(b, t.Body, tprecArrow)
		})
	case ast.TyCons:
		p.typeCons(b, t, context)
	}
}

func (p *Printer) typeCons(b *strings.Builder, t *ast.Type, context int) {
	dt := t.DefType
	switch {
	case dt == p.World.Function && len(t.Args) == 2:
		p.paren(b, tprecArrow, context, func() {
			p.typ(b, t.Args[0], tprecArrow+1)
			b.WriteString(" -> ")
			p.typ(b, t.Args[1], tprecArrow)
		})
	case dt == p.World.Product && len(t.Args) == 2:
		p.paren(b, tprecProd, context, func() {
			p.typ(b, t.Args[0], tprecProd+1)
			b.WriteString(" # ")
			p.typ(b, t.Args[1], tprecProd)
		})
	case len(t.Args) == 0:
		b.WriteString(dt.Name.String())
	case t.Tupled:
		b.WriteString(dt.Name.String())
		b.WriteString("(")
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			p.typ(b, a, tprecArrow)
		}
		b.WriteString(")")
	default:
		p.paren(b, tprecApply, context, func() {
			b.WriteString(dt.Name.String())
			for _, a := range t.Args {
				b.WriteString(" ")
				p.typ(b, a, tprecAtomic)
			}
		})
	}
}
