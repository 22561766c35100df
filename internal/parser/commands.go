package parser

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/names"
)

// Commands are the units of top-level input: declarations, definitions,
// expressions and session directives. The interpreter executes them one
// at a time.

type Command interface{ isCommand() }

// TypeExpr is a syntactic type term; binding of variables and lookup of
// constructors happens when the enclosing declaration is executed.
type TypeExpr struct {
	Name   *names.Name // constructor or variable
	Args   []*TypeExpr
	Tupled bool

	Mu    bool
	MuVar *names.Name
	Body  *TypeExpr

	Line int
}

// ConDecl is one constructor alternative of a data declaration. An infix
// or tupled constructor takes its arguments as one pair.
type ConDecl struct {
	Name   *names.Name
	Args   []*TypeExpr
	Tupled bool
}

type DecItem struct {
	Name *names.Name
	Type *TypeExpr
}

type (
	UsesCmd struct{ Names []*names.Name }

	TypevarCmd struct{ Names []*names.Name }

	InfixCmd struct {
		Names []*names.Name
		Prec  int
		Right bool
	}

	DecCmd struct{ Items []DecItem }

	DataCmd struct {
		Head *TypeExpr
		Alts []*ConDecl
	}

	SynCmd struct {
		Head *TypeExpr
		RHS  *TypeExpr
	}

	AbstypeCmd struct{ Heads []*TypeExpr }

	DefCmd struct {
		LHS *ast.Expr
		RHS *ast.Expr
	}

	ExprCmd struct{ Expr *ast.Expr }

	WriteCmd struct {
		Expr    *ast.Expr
		File    string
		HasFile bool
	}

	DisplayCmd struct{}
	SaveCmd    struct{ Name *names.Name }
	ExitCmd    struct{}
	PrivateCmd struct{}
	EditCmd    struct{ Name *names.Name }
)

func (*UsesCmd) isCommand()    {}
func (*TypevarCmd) isCommand() {}
func (*InfixCmd) isCommand()   {}
func (*DecCmd) isCommand()     {}
func (*DataCmd) isCommand()    {}
func (*SynCmd) isCommand()     {}
func (*AbstypeCmd) isCommand() {}
func (*DefCmd) isCommand()     {}
func (*ExprCmd) isCommand()    {}
func (*WriteCmd) isCommand()   {}
func (*DisplayCmd) isCommand() {}
func (*SaveCmd) isCommand()    {}
func (*ExitCmd) isCommand()    {}
func (*PrivateCmd) isCommand() {}
func (*EditCmd) isCommand()    {}
