package printer

import (
	"fmt"
	"strings"

	"github.com/hopelang/hope/internal/infer"
)

// Rendering of inference cells. Variables are numbered in order of first
// appearance and shown using the type variables visible in the current
// module; cycles (mu types) are detected on the fly and printed as
// mu-bound variables.

// Type precedence: -> binds loosest, then #, then application.
const (
	tprecArrow  = 1
	tprecProd   = 2
	tprecApply  = 3
	tprecAtomic = 4
)

// ResetTypeVars restarts variable numbering; called per checked
// declaration.
func (p *Printer) ResetTypeVars() { p.tvCount = 0 }

type tyPrinter struct {
	p       *Printer
	muNames map[*infer.Cell]string
	onStack map[*infer.Cell]bool
	muCount int
}

// TypeValue renders one inference cell graph.
func (p *Printer) TypeValue(c *infer.Cell) string {
	tp := &tyPrinter{
		p:       p,
		muNames: map[*infer.Cell]string{},
		onStack: map[*infer.Cell]bool{},
	}
	var b strings.Builder
	tp.cell(&b, c, tprecArrow)
	return b.String()
}

func (tp *tyPrinter) cell(b *strings.Builder, c *infer.Cell, context int) {
	c = infer.Deref(c)
	switch c.Kind {
	case infer.CTVar, infer.CFrozen, infer.CVoid:
		b.WriteString(tp.p.varName(c))
		return
	}
	// a constructed type revisited while printing is recursive: print
	// the mu variable here and bind it at the outer occurrence
	if tp.onStack[c] {
		if _, ok := tp.muNames[c]; !ok {
			tp.muCount++
			tp.muNames[c] = fmt.Sprintf("t%d", tp.muCount)
		}
		b.WriteString(tp.muNames[c])
		return
	}
	tp.onStack[c] = true
	var inner strings.Builder
	tp.cons(&inner, c, context)
	delete(tp.onStack, c)
	if name, ok := tp.muNames[c]; ok {
		tp.p.paren(b, tprecArrow, context, func() {
			fmt.Fprintf(b, "mu %s => %s", name, inner.String())
		})
		delete(tp.muNames, c)
		return
	}
	b.WriteString(inner.String())
}

func (tp *tyPrinter) cons(b *strings.Builder, c *infer.Cell, context int) {
	sub := infer.Deref(c.Abbr)
	dt := sub.TCons
	args := collectArgs(sub.TArg)

	switch {
	case dt == tp.p.World.Function && len(args) == 2:
		tp.p.paren(b, tprecArrow, context, func() {
			tp.cell(b, args[0], tprecArrow+1)
			b.WriteString(" -> ")
			tp.cell(b, args[1], tprecArrow)
		})
	case dt == tp.p.World.Product && len(args) == 2:
		tp.p.paren(b, tprecProd, context, func() {
			tp.cell(b, args[0], tprecProd+1)
			b.WriteString(" # ")
			tp.cell(b, args[1], tprecProd)
		})
	case len(args) == 0:
		b.WriteString(dt.Name.String())
	case dt.Tupled:
		b.WriteString(dt.Name.String())
		b.WriteString("(")
		for i, a := range args {
			if i > 0 {
				b.WriteString(", ")
			}
			tp.cell(b, a, tprecArrow)
		}
		b.WriteString(")")
	default:
		tp.p.paren(b, tprecApply, context, func() {
			b.WriteString(dt.Name.String())
			for _, a := range args {
				b.WriteString(" ")
				tp.cell(b, a, tprecAtomic)
			}
		})
	}
}

// varName numbers a variable cell on first sight and renders it via the
// module's declared type variables.
func (p *Printer) varName(c *infer.Cell) string {
	if c.VarNo == 0 {
		p.tvCount++
		c.VarNo = p.tvCount
	}
	name, err := p.World.TVarName(c.VarNo - 1)
	if err != nil {
		return fmt.Sprintf("t%d", c.VarNo)
	}
	return name
}

func collectArgs(list *infer.Cell) []*infer.Cell {
	var out []*infer.Cell
	for l := list; l != nil; l = l.Tail {
		out = append(out, l.Head)
	}
	return out
}
