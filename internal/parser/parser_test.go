package parser

import (
	"testing"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/lexer"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
	"github.com/sirupsen/logrus"
)

func newTestParser(src string) (*Parser, *module.World) {
	pool := names.NewPool()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	w := module.NewWorld(pool, nil, log)
	w.DeclareOp(pool.Intern("+"), 5, module.AssocLeft)
	w.DeclareOp(pool.Intern("*"), 6, module.AssocLeft)
	w.DeclareOp(pool.Intern("::"), 4, module.AssocRight)
	return New(lexer.New(src, pool), w), w
}

func parseOne(t *testing.T, src string) Command {
	t.Helper()
	p, _ := newTestParser(src)
	cmd, err := p.ParseCommand()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return cmd
}

func TestParseDefinition(t *testing.T) {
	cmd := parseOne(t, "--- fact (n+1) <= (n+1) * fact n;")
	def, ok := cmd.(*DefCmd)
	if !ok {
		t.Fatalf("not a definition: %T", cmd)
	}
	// lhs is fact applied to the (n+1) pattern
	if def.LHS.Kind != ast.EApply || def.LHS.Func.Kind != ast.EVar {
		t.Fatalf("lhs shape: %+v", def.LHS)
	}
	if def.LHS.Func.VarName.String() != "fact" {
		t.Errorf("lhs head = %s", def.LHS.Func.VarName)
	}
	// rhs is the operator application (* applied to a pair)
	if def.RHS.Kind != ast.EApply || def.RHS.Arg.Kind != ast.EPair {
		t.Errorf("rhs shape: %+v", def.RHS)
	}
}

func TestOperatorPrecedenceAndAssociativity(t *testing.T) {
	cmd := parseOne(t, "1 + 2 * 3 + 4;")
	e := cmd.(*ExprCmd).Expr
	// ((1 + (2*3)) + 4)
	if e.Func.VarName.String() != "+" {
		t.Fatalf("root operator: %v", e.Func.VarName)
	}
	left := e.Arg.Left
	if left.Func.VarName.String() != "+" {
		t.Fatalf("left operator: %v", left.Func.VarName)
	}
	inner := left.Arg.Right
	if inner.Func.VarName.String() != "*" {
		t.Errorf("inner operator: %v", inner.Func.VarName)
	}

	cmd = parseOne(t, "1 :: 2 :: nil;")
	e = cmd.(*ExprCmd).Expr
	// right-associative: 1 :: (2 :: nil)
	if e.Arg.Right.Kind != ast.EApply || e.Arg.Right.Func.VarName.String() != "::" {
		t.Errorf("right operand should be the nested cons: %+v", e.Arg.Right)
	}
}

func TestApplicationBindsTighterThanOperators(t *testing.T) {
	cmd := parseOne(t, "f x + g y;")
	e := cmd.(*ExprCmd).Expr
	if e.Func.VarName.String() != "+" {
		t.Fatalf("root: %+v", e)
	}
	if e.Arg.Left.Kind != ast.EApply || e.Arg.Right.Kind != ast.EApply {
		t.Errorf("operands should be applications")
	}
}

func TestParseLambdaArityAndAlternatives(t *testing.T) {
	cmd := parseOne(t, `lambda x y => x | a b => b;`)
	e := cmd.(*ExprCmd).Expr
	if e.Kind != ast.ELambda || e.Arity != 2 {
		t.Fatalf("lambda: kind %v arity %d", e.Kind, e.Arity)
	}
	if e.Branch.Next == nil || e.Branch.Next.Next != nil {
		t.Errorf("expected exactly two branches")
	}
}

func TestParseSections(t *testing.T) {
	e := parseOne(t, "(2 *);").(*ExprCmd).Expr
	if e.Kind != ast.EPresect {
		t.Errorf("(2 *) should be a presection, got %v", e.Kind)
	}
	e = parseOne(t, "(* 2);").(*ExprCmd).Expr
	if e.Kind != ast.EPostsect {
		t.Errorf("(* 2) should be a postsection, got %v", e.Kind)
	}
	e = parseOne(t, "(*);").(*ExprCmd).Expr
	if e.Kind != ast.EVar || e.VarName.String() != "*" {
		t.Errorf("(*) should be the bare operator, got %+v", e)
	}
}

func TestParseDataDeclaration(t *testing.T) {
	cmd := parseOne(t, "data tree alpha == leaf ++ node (tree alpha # alpha # tree alpha);")
	data := cmd.(*DataCmd)
	if data.Head.Name.String() != "tree" || len(data.Head.Args) != 1 {
		t.Fatalf("head: %+v", data.Head)
	}
	if len(data.Alts) != 2 {
		t.Fatalf("alternatives: %d", len(data.Alts))
	}
	if data.Alts[0].Name.String() != "leaf" || len(data.Alts[0].Args) != 0 {
		t.Errorf("first alternative: %+v", data.Alts[0])
	}
	if data.Alts[1].Name.String() != "node" || len(data.Alts[1].Args) != 1 {
		t.Errorf("second alternative: %+v", data.Alts[1])
	}
}

func TestParseTypeOperators(t *testing.T) {
	cmd := parseOne(t, "dec f : num # num -> list num;")
	dec := cmd.(*DecCmd)
	typ := dec.Items[0].Type
	if typ.Name.String() != "->" {
		t.Fatalf("arrow should bind loosest: %+v", typ)
	}
	if typ.Args[0].Name.String() != "#" {
		t.Errorf("left of arrow should be the product: %+v", typ.Args[0])
	}
	if typ.Args[1].Name.String() != "list" {
		t.Errorf("right of arrow should be the list application: %+v", typ.Args[1])
	}
}

func TestParseMuType(t *testing.T) {
	cmd := parseOne(t, "type s == mu x => num # x;")
	syn := cmd.(*SynCmd)
	if !syn.RHS.Mu || syn.RHS.MuVar.String() != "x" {
		t.Fatalf("mu type: %+v", syn.RHS)
	}
}

func TestDecWithoutNameIsSyntaxError(t *testing.T) {
	p, _ := newTestParser("dec : ;")
	_, err := p.ParseCommand()
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
}
