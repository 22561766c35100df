package interp

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/path"
	"github.com/hopelang/hope/internal/printer"
)

type testSession struct {
	*Session
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestSession(t *testing.T, cfg *config.Config) *testSession {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{Path: []string{"."}}
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	s := NewSession(cfg, log, nil)
	ts := &testSession{Session: s, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	s.Out = ts.out
	s.Err = ts.err
	require.NoError(t, s.Bootstrap(), "bootstrap: %s", ts.err.String())
	return ts
}

func (ts *testSession) run(t *testing.T, src string) (string, string) {
	t.Helper()
	ts.out.Reset()
	ts.err.Reset()
	require.NoError(t, ts.RunFile(src))
	return ts.out.String(), ts.err.String()
}

func TestFactorial(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
dec fact : num -> num;
--- fact 0 <= 1;
--- fact (n+1) <= (n+1) * fact n;
fact 5;
`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 120 : num\n", out)
}

func TestMapWithLambda(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `map (\x => x * x) [1, 2, 3, 4];`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> [1, 4, 9, 16] : list num\n", out)
}

func TestStringRoundTrip(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `num2str (str2num "3.14");`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> \"3.14\" : list char\n", out)
}

func TestLazyInfiniteList(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `letrec ones == 1 :: ones in head (tail ones);`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 1 : num\n", out)

	out, errs = ts.run(t, `head (tail (mu xs => 1 :: xs));`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 1 : num\n", out)
}

func TestPatternMerge(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `
dec f : alpha # num -> list char;
--- f (x, 0) <= "a";
--- f (x, y) <= "b";
`)
	require.Empty(t, errs)

	out, errs := ts.run(t, `f (5, 0);`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> \"a\" : list char\n", out)

	out, errs = ts.run(t, `f (5, 1);`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> \"b\" : list char\n", out)

	// the compiled tree has a single top-level case at the right of
	// formal 0, with the equal limb special and the other two shared
	fn := ts.World.LookupFn(ts.Pool.Intern("f"))
	require.NotNil(t, fn)
	code := fn.Code
	require.Equal(t, ast.UCCase, code.Kind)
	assert.Equal(t, 0, code.Level)
	assert.Equal(t, path.Path{path.Unroll, path.Right}, code.Path)
	require.Equal(t, ast.LCNumeric, code.Cases.Kind)
	eq := code.Cases.Limbs[ast.NumEqual]
	assert.Equal(t, ast.UCSuccess, eq.Kind)
	assert.Equal(t, 1, eq.Size)
	assert.Same(t, code.Cases.Limbs[ast.NumLess], code.Cases.Limbs[ast.NumGreater])
}

func TestTypeError(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `true + 1;`)
	assert.Empty(t, out)
	assert.Contains(t, errs, "type error")
	assert.Contains(t, errs, "bool")
	assert.Contains(t, errs, "num")
}

func TestMatchFailure(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `head nil;`)
	assert.Empty(t, out)
	assert.Contains(t, errs, "no equation matches in 'head'")
	assert.Contains(t, errs, "head nil")
}

func TestCannotCompareFunctions(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `id = id;`)
	assert.Contains(t, errs, "cannot compare functions")
}

func TestCharacterDispatch(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
dec vowel : char -> bool;
--- vowel 'a' <= true;
--- vowel 'e' <= true;
--- vowel c <= false;
vowel 'e';
vowel 'x';
`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> true : bool\n>> false : bool\n", out)
}

func TestComparisonOperators(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
3 < 4;
"abc" < "abd";
(1, 2) = (1, 2);
`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> true : bool\n>> true : bool\n>> true : bool\n", out)
}

func TestUserDataTypeAndFunctor(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
data box alpha == empty ++ full alpha;
full 3;
box (\x => x + 1) (full 3);
box succ empty;
`)
	assert.Empty(t, errs)
	assert.Equal(t,
		">> full 3 : box num\n>> full 4 : box num\n>> empty : box num\n",
		out)
}

func TestInfixConstructor(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
infixr &> : 4;
data nest alpha == unit ++ alpha &> nest alpha;
dec depth : nest alpha -> num;
--- depth unit <= 0;
--- depth (x &> r) <= 1 + depth r;
depth (1 &> 2 &> unit);
`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 2 : num\n", out)
}

func TestTypeSynonymPrintsShallowForm(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
type str == list char;
dec shout : str -> str;
--- shout s <= s <> "!";
shout "hi";
`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> \"hi!\" : str\n", out)
}

func TestRecursiveSynonymViaMu(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `
type stream == num # stream;
dec firsts : stream -> num;
--- firsts (x, r) <= x;
firsts (mu s => (7, s));
`)
	assert.Empty(t, errs)
	assert.Contains(t, ts.out.String(), ">> 7 : ")
}

func TestLetWhereAndSections(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
let (a, b) == (1, 2) in a + b;
y * 2 where y == 21;
map (2 *) [1, 2];
map (* 2) [3, 4];
`)
	assert.Empty(t, errs)
	assert.Equal(t,
		">> 3 : num\n>> 42 : num\n>> [2, 4] : list num\n>> [6, 8] : list num\n",
		out)
}

func TestLambdaAlternatives(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `map (\0 => 100 | n => n) [0, 5];`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> [100, 5] : list num\n", out)
}

func TestDivideByZero(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `1 / 0;`)
	assert.Contains(t, errs, "divide by zero")

	out, errs := ts.run(t, `7 div 2; 7 mod 2;`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 3 : num\n>> 1 : num\n", out)
}

func TestUserError(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `error "boom";`)
	assert.Contains(t, errs, "boom")
}

func TestUndefinedVariableRecoversAtSemicolon(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `nosuch + 1; 2 + 2;`)
	assert.Contains(t, errs, "undefined variable")
	assert.Equal(t, ">> 4 : num\n", out)
}

func TestArityMismatchAcrossEquations(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `
dec g : num -> num -> num;
--- g 0 0 <= 0;
--- g 1 <= succ;
`)
	assert.Contains(t, errs, "different arity")
}

func TestDeclaredTypeMismatch(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `
dec h : num -> num;
--- h x <= "nope";
`)
	assert.Contains(t, errs, "does not match declaration")
}

func TestDisplayShowsSessionDeclarations(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `
dec double : num -> num;
--- double x <= x * 2;
display;
`)
	assert.Empty(t, errs)
	assert.Contains(t, out, "dec double : num -> num;")
	assert.Contains(t, out, "--- double x <= x * 2;")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	src := `
typevar epsilon;
infixr +++ : 4;
dec double : num -> num;
--- double x <= x * 2;
dec twice : (epsilon -> epsilon) -> epsilon -> epsilon;
--- twice f x <= f (f x);
`
	ts := newTestSession(t, &config.Config{Path: []string{dir}})
	_, errs := ts.run(t, src)
	require.Empty(t, errs)

	var first bytes.Buffer
	require.NoError(t, ts.Printer.Dump(&first, printer.DumpOptions{}))

	// feed the dump to a fresh session and dump again: the module
	// format round-trips
	ts2 := newTestSession(t, &config.Config{Path: []string{dir}})
	_, errs = ts2.run(t, first.String())
	require.Empty(t, errs)
	var second bytes.Buffer
	require.NoError(t, ts2.Printer.Dump(&second, printer.DumpOptions{}))

	if first.String() != second.String() {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(first.String()),
			B:        difflib.SplitLines(second.String()),
			FromFile: "first dump",
			ToFile:   "second dump",
			Context:  2,
		})
		t.Fatalf("dump does not round-trip:\n%s", diff)
	}

	// save moves the session into a loadable module
	_, errs = ts.run(t, `save roundtrip;`)
	require.Empty(t, errs)
	data, err := os.ReadFile(filepath.Join(dir, "roundtrip.hop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dec double : num -> num;")

	out, errs := ts.run(t, `double 4;`)
	assert.Empty(t, errs)
	assert.Equal(t, ">> 8 : num\n", out)
}

func TestUsesLoadsModuleFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	modSrc := `
dec triple : num -> num;
--- triple x <= x * 3;
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Arith.hop"), []byte(modSrc), 0o644))

	ts := newTestSession(t, &config.Config{Path: []string{dir}})
	out, errs := ts.run(t, "uses Arith;\ntriple 5;")
	assert.Empty(t, errs)
	assert.Equal(t, ">> 15 : num\n", out)
}

func TestCyclicUsesIsRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.hop"), []byte("uses B;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.hop"), []byte("uses A;\n"), 0o644))

	ts := newTestSession(t, &config.Config{Path: []string{dir}})
	_, errs := ts.run(t, "uses A;")
	assert.Contains(t, errs, "cyclic 'uses' reference")
}

func TestPrivateDeclarationsAreHidden(t *testing.T) {
	dir := t.TempDir()
	modSrc := `
dec visible : num -> num;
private;
dec hidden : num -> num;
--- hidden x <= x + 1;
--- visible x <= hidden (hidden x);
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Priv.hop"), []byte(modSrc), 0o644))

	ts := newTestSession(t, &config.Config{Path: []string{dir}})
	out, errs := ts.run(t, "uses Priv;\nvisible 1;")
	assert.Empty(t, errs)
	assert.Equal(t, ">> 3 : num\n", out)

	_, errs = ts.run(t, "hidden 1;")
	assert.Contains(t, errs, "undefined variable")
}

func TestRestrictedModeDisablesReadAndSave(t *testing.T) {
	ts := newTestSession(t, &config.Config{Path: []string{"."}, Restricted: true})
	_, errs := ts.run(t, `read "somefile";`)
	assert.Contains(t, errs, "read function disabled")

	_, errs = ts.run(t, `save m;`)
	assert.Contains(t, errs, "'save' command disabled")
}

func TestWriteCommand(t *testing.T) {
	ts := newTestSession(t, nil)
	out, errs := ts.run(t, `write "ok";`)
	assert.Empty(t, errs)
	assert.Equal(t, "ok", out)

	out, errs = ts.run(t, `write [1, 2, 3];`)
	assert.Empty(t, errs)
	assert.Equal(t, "1\n2\n3\n", out)

	_, errs = ts.run(t, `write 5;`)
	assert.Contains(t, errs, "must produce a list")
}

func TestTimeLimit(t *testing.T) {
	ts := newTestSession(t, &config.Config{Path: []string{"."}, TimeLimit: 1})
	_, errs := ts.run(t, `letrec loop == \n => loop (n + 1) in loop 0;`)
	assert.Contains(t, errs, "time limit exceeded")
}

// Decision-tree correctness: evaluating through the compiled tree gives
// the same results as trying the source equations in order.
func TestDecisionTreeMatchesSequentialSemantics(t *testing.T) {
	ts := newTestSession(t, nil)
	_, errs := ts.run(t, `
dec cls : num # num -> num;
--- cls (0, 0) <= 1;
--- cls (0, y) <= 2;
--- cls (x, 0) <= 3;
--- cls (x, y) <= 4;
`)
	require.Empty(t, errs)

	sequential := func(x, y float64) int {
		switch {
		case x == 0 && y == 0:
			return 1
		case x == 0:
			return 2
		case y == 0:
			return 3
		default:
			return 4
		}
	}
	for _, in := range [][2]float64{{0, 0}, {0, 7}, {7, 0}, {7, 7}} {
		out, errs := ts.run(t, fmt.Sprintf("cls (%v, %v);", in[0], in[1]))
		require.Empty(t, errs)
		want := sequential(in[0], in[1])
		got := strings.TrimPrefix(strings.Split(out, " :")[0], ">> ")
		assert.Equal(t, strconv.Itoa(want), got, "input %v", in)
	}
}
