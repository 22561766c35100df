package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/module"
)

// Module dumping, shared by `display` (full form) and `save` (re-parsable
// source form). The emitted text round-trips: reading it back yields the
// same declarations in the same order.

// DumpOptions selects what Dump emits.
type DumpOptions struct {
	// Header is emitted first as a comment, when non-empty (save mode).
	Header string
}

// Dump writes the session module as source text.
func (p *Printer) Dump(w io.Writer, opts DumpOptions) error {
	world := p.World
	sess := world.SessionModule()

	if opts.Header != "" {
		fmt.Fprintf(w, "! %s\n", opts.Header)
	}
	p.dumpUses(w, sess)
	p.dumpTVars(w, sess)
	for _, op := range sess.Ops {
		assoc := "infix"
		if op.Assoc == module.AssocRight {
			assoc = "infixr"
		}
		fmt.Fprintf(w, "%s %s : %d;\n", assoc, op.Name, op.Prec)
	}
	// abstract views first so later definitions can refer to the names
	for _, dt := range sess.Types {
		fmt.Fprintf(w, "%s;\n", p.abstypeHead(dt))
	}
	for _, dt := range sess.Types {
		if !dt.IsAbstract() {
			fmt.Fprintf(w, "%s;\n", p.DefTypeBody(dt))
		}
	}
	for _, fn := range sess.Fns {
		if fn.ExplicitDec {
			fmt.Fprintf(w, "dec %s : %s;\n", p.opName(fn.Name.String()), p.QType(fn.QType))
		}
	}
	for _, fn := range sess.Fns {
		if fn.ExplicitDef {
			fmt.Fprintln(w)
			p.dumpFnDef(w, fn)
		}
	}
	return nil
}

// Display lists the session's declarations on w, including function
// declarations and definitions together.
func (p *Printer) Display(w io.Writer) {
	world := p.World
	sess := world.SessionModule()
	p.dumpUses(w, sess)
	p.dumpTVars(w, sess)
	for _, op := range sess.Ops {
		assoc := "infix"
		if op.Assoc == module.AssocRight {
			assoc = "infixr"
		}
		fmt.Fprintf(w, "%s %s : %d;\n", assoc, op.Name, op.Prec)
	}
	for _, dt := range sess.Types {
		fmt.Fprintf(w, "%s;\n", p.DefTypeBody(dt))
	}
	for _, fn := range sess.Fns {
		if !fn.ExplicitDec && !fn.ExplicitDef {
			continue
		}
		fmt.Fprintln(w)
		if fn.ExplicitDec {
			fmt.Fprintf(w, "dec %s : %s;\n", p.opName(fn.Name.String()), p.QType(fn.QType))
		}
		if fn.ExplicitDef {
			p.dumpFnDef(w, fn)
		}
	}
}

func (p *Printer) dumpUses(w io.Writer, m *module.Module) {
	var used []string
	for _, other := range p.World.List()[module.Ordinary:] {
		if m.Uses[other.Num] {
			used = append(used, other.Name.String())
		}
	}
	if len(used) > 0 {
		fmt.Fprintf(w, "uses %s;\n", strings.Join(used, ", "))
	}
}

func (p *Printer) dumpTVars(w io.Writer, m *module.Module) {
	tvs := p.World.TVarIndices(m)
	if len(tvs) == 0 {
		return
	}
	parts := make([]string, len(tvs))
	for i, tv := range tvs {
		parts[i] = tv.String()
	}
	fmt.Fprintf(w, "typevar %s;\n", strings.Join(parts, ", "))
}

// abstypeHead renders "abstype T a1 a2" (or the tupled form).
func (p *Printer) abstypeHead(dt *ast.DefType) string {
	return "abstype " + p.typeHead(dt)
}

func (p *Printer) typeHead(dt *ast.DefType) string {
	var b strings.Builder
	b.WriteString(p.opName(dt.Name.String()))
	if len(dt.VarList) == 0 {
		return b.String()
	}
	if dt.Tupled {
		b.WriteString("(")
		for i, v := range dt.VarList {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Var.String())
		}
		b.WriteString(")")
		return b.String()
	}
	for _, v := range dt.VarList {
		b.WriteString(" ")
		b.WriteString(v.Var.String())
	}
	return b.String()
}

// DefTypeBody renders a full type declaration without the closing
// semicolon.
func (p *Printer) DefTypeBody(dt *ast.DefType) string {
	switch {
	case dt.IsData():
		var parts []string
		for c := dt.Cons; c != nil; c = c.Next {
			parts = append(parts, p.conDecl(c))
		}
		return "data " + p.typeHead(dt) + " == " + strings.Join(parts, " ++ ")
	case dt.IsSynonym():
		return "type " + p.typeHead(dt) + " == " + p.Type(dt.Type)
	default:
		return p.abstypeHead(dt)
	}
}

// conDecl renders one constructor alternative from its arrow type.
func (p *Printer) conDecl(c *ast.Con) string {
	if c.NArgs == 0 {
		return c.Name.String()
	}
	// peel the argument types off the arrow
	t := c.Type
	var args []*ast.Type
	for i := 0; i < c.NArgs; i++ {
		args = append(args, t.Args[0])
		t = t.Args[1]
	}
	if op := p.World.LookupOp(c.Name); op != nil && c.NArgs == 1 && len(args) == 1 &&
		args[0].Kind == ast.TyCons && args[0].DefType == p.World.Product {
		pair := args[0]
		var b strings.Builder
		p.typ(&b, pair.Args[0], tprecProd+1)
		b.WriteString(" ")
		b.WriteString(c.Name.String())
		b.WriteString(" ")
		p.typ(&b, pair.Args[1], tprecProd+1)
		return b.String()
	}
	var b strings.Builder
	b.WriteString(c.Name.String())
	for _, a := range args {
		b.WriteString(" ")
		p.typ(&b, a, tprecAtomic)
	}
	return b.String()
}

func (p *Printer) dumpFnDef(w io.Writer, fn *ast.Func) {
	for br := fn.Branch; br != nil; br = br.Next {
		var b strings.Builder
		b.WriteString("--- ")
		b.WriteString(p.opName(fn.Name.String()))
		if br.Formals != nil && br.Formals.Kind == ast.EApply {
			b.WriteString(" ")
			p.formals(&b, br.Formals)
		}
		b.WriteString(" <= ")
		p.expr(&b, br.Expr, precBody)
		fmt.Fprintf(w, "%s;\n", b.String())
	}
}

// opName parenthesizes operator names in declaration position.
func (p *Printer) opName(s string) string {
	if s == "" {
		return s
	}
	c := s[0]
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' {
		return s
	}
	return "(" + s + ")"
}
