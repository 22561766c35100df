package module

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/names"
)

func newTestWorld() (*World, *names.Pool) {
	pool := names.NewPool()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewWorld(pool, nil, log), pool
}

func TestOperatorPrecedenceIsClamped(t *testing.T) {
	w, pool := newTestWorld()
	w.DeclareOp(pool.Intern("@@"), 42, AssocLeft)
	op := w.LookupOp(pool.Intern("@@"))
	if op == nil || op.Prec != 9 {
		t.Fatalf("precedence not clamped: %+v", op)
	}
	w.DeclareOp(pool.Intern("@!"), -3, AssocRight)
	if op := w.LookupOp(pool.Intern("@!")); op.Prec != 0 {
		t.Errorf("negative precedence not clamped: %+v", op)
	}
}

func TestTypeVariablePrimesAreIgnored(t *testing.T) {
	w, pool := newTestWorld()
	if err := w.DeclareTVar(pool.Intern("alpha")); err != nil {
		t.Fatal(err)
	}
	if !w.LookupTVar(pool.Intern("alpha''")) {
		t.Errorf("primed occurrence of a declared variable not recognized")
	}
	if w.LookupTVar(pool.Intern("beta")) {
		t.Errorf("undeclared variable recognized")
	}
}

func TestTVarNamesWrapWithPrimes(t *testing.T) {
	w, pool := newTestWorld()
	for _, v := range []string{"alpha", "beta"} {
		if err := w.DeclareTVar(pool.Intern(v)); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	for i := 0; i < 4; i++ {
		n, err := w.TVarName(i)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, n)
	}
	if got[0] == got[1] {
		t.Errorf("first two variables should differ: %v", got)
	}
	if got[2] != got[0]+"'" {
		t.Errorf("wrap-around should add a prime: %v", got)
	}
}

func TestLocalLookupIsRestrictedToCurrentModule(t *testing.T) {
	w, pool := newTestWorld()
	fn := &ast.Func{Name: pool.Intern("f"), ExplicitDec: true}
	w.DeclareFn(fn)
	if w.LocalFn(pool.Intern("f")) != fn {
		t.Errorf("local lookup failed")
	}
	if w.LocalFn(pool.Intern("g")) != nil {
		t.Errorf("found an undeclared function")
	}
}

func TestRepeatedUseOfQueuedModuleIsAccepted(t *testing.T) {
	w, pool := newTestWorld()
	// a use of a module that is queued but not being read is not a cycle;
	// use a fresh name twice
	if err := w.Use(pool.Intern("M")); err != nil {
		t.Fatalf("first use: %v", err)
	}
	// M is queued but not on the stack, so using it again is fine
	if err := w.Use(pool.Intern("M")); err != nil {
		t.Fatalf("repeated use: %v", err)
	}
}

func TestFixSynonymsRecomputesDepth(t *testing.T) {
	w, pool := newTestWorld()
	base := &ast.DefType{Name: pool.Intern("b")}
	syn1 := &ast.DefType{Name: pool.Intern("s1"), SynDepth: 1}
	syn1.Type = ast.NewDefTypeRef(base, nil)
	syn2 := &ast.DefType{Name: pool.Intern("s2"), SynDepth: 1}
	syn2.Type = ast.NewDefTypeRef(syn1, nil)
	w.DeclareType(base)
	w.DeclareType(syn1)
	w.DeclareType(syn2)
	w.FixSynonyms()
	if syn1.SynDepth != 1 || syn2.SynDepth != 2 {
		t.Errorf("depths: s1=%d s2=%d", syn1.SynDepth, syn2.SynDepth)
	}
}

func TestTVarNameOrderFollowsDeclaration(t *testing.T) {
	w, pool := newTestWorld()
	for _, v := range []string{"alpha", "beta", "gamma"} {
		if err := w.DeclareTVar(pool.Intern(v)); err != nil {
			t.Fatal(err)
		}
	}
	n0, _ := w.TVarName(0)
	n1, _ := w.TVarName(1)
	n2, _ := w.TVarName(2)
	if n0 != "alpha" || n1 != "beta" || n2 != "gamma" {
		t.Errorf("order: %s %s %s", n0, n1, n2)
	}
}
