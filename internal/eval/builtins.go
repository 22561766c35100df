package eval

import (
	"math"
	"strconv"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/module"
)

// Native is the signature of a one-argument builtin; it receives its
// argument already in WHNF.
type Native func(*Evaluator, *Cell) (*Cell, error)

// InstallBuiltins fills in the native bodies of the functions the
// Standard module declares. Every builtin must have been declared there;
// a missing declaration is a broken library.
func InstallBuiltins(w *module.World) error {
	builtins := map[string]Native{
		"ord":     ord,
		"chr":     chr,
		"read":    readFile,
		"num2str": num2str,
		"str2num": str2num,
		"error":   userError,
		"compare": compare,
	}
	for name, fn := range builtins {
		if err := installStrict(w, name, &ast.Expr{Kind: ast.EBuiltin, Native: Native(fn)}); err != nil {
			return err
		}
	}

	binary := map[string]func(float64, float64) (float64, error){
		"+":     func(x, y float64) (float64, error) { return x + y, nil },
		"-":     func(x, y float64) (float64, error) { return x - y, nil },
		"*":     func(x, y float64) (float64, error) { return x * y, nil },
		"/":     divide,
		"div":   intDiv,
		"mod":   floatMod,
		"pow":   func(x, y float64) (float64, error) { return math.Pow(x, y), nil },
		"atan2": func(x, y float64) (float64, error) { return math.Atan2(x, y), nil },
	}
	for name, fn := range binary {
		if err := installStrict(w, name, &ast.Expr{Kind: ast.E2Math, Fn2: fn}); err != nil {
			return err
		}
	}

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"acos":  math.Acos,
		"asin":  math.Asin,
		"atan":  math.Atan,
		"ceil":  math.Ceil,
		"cos":   math.Cos,
		"cosh":  math.Cosh,
		"exp":   math.Exp,
		"floor": math.Floor,
		"log":   math.Log,
		"log10": math.Log10,
		"sin":   math.Sin,
		"sinh":  math.Sinh,
		"sqrt":  math.Sqrt,
		"tan":   math.Tan,
		"tanh":  math.Tanh,
	}
	for name, fn := range unary {
		if err := installStrict(w, name, &ast.Expr{Kind: ast.E1Math, Fn1: fn}); err != nil {
			return err
		}
	}
	return nil
}

func installStrict(w *module.World, name string, body *ast.Expr) error {
	fn := w.LookupFn(w.Pool.Intern(name))
	if fn == nil {
		return diag.New(diag.Lib, "'%s': undeclared built-in", name)
	}
	fn.Code = ast.NewStrict(body)
	fn.Arity = 1
	fn.Branch = nil
	return nil
}

func ord(ev *Evaluator, arg *Cell) (*Cell, error) {
	if arg.Kind != KChar {
		return nil, diag.New(diag.Intern, "ord of non-character")
	}
	return NewNum(float64(arg.Char)), nil
}

func chr(ev *Evaluator, arg *Cell) (*Cell, error) {
	if arg.Kind != KNum {
		return nil, diag.New(diag.Intern, "chr of non-number")
	}
	if arg.Num < 0 || arg.Num > 255 {
		return nil, diag.New(diag.Exec, "chr(%v): value out of range", arg.Num)
	}
	return NewChar(byte(arg.Num)), nil
}

func num2str(ev *Evaluator, arg *Cell) (*Cell, error) {
	if arg.Kind != KNum {
		return nil, diag.New(diag.Intern, "num2str of non-number")
	}
	return ev.StringCell(FormatNum(arg.Num)), nil
}

func str2num(ev *Evaluator, arg *Cell) (*Cell, error) {
	s, err := ev.StringValue(arg)
	if err != nil {
		return nil, err
	}
	n, _ := strconv.ParseFloat(s, 64)
	return NewNum(n), nil
}

func userError(ev *Evaluator, arg *Cell) (*Cell, error) {
	s, err := ev.StringValue(arg)
	if err != nil {
		return nil, err
	}
	return nil, diag.New(diag.User, "%s", s)
}

func readFile(ev *Evaluator, arg *Cell) (*Cell, error) {
	name, err := ev.StringValue(arg)
	if err != nil {
		return nil, err
	}
	s, err := ev.Streams.Open(name)
	if err != nil {
		return nil, err
	}
	return NewStreamCell(s), nil
}

func divide(x, y float64) (float64, error) {
	if y == 0 {
		return 0, diag.New(diag.Exec, "attempt to divide by zero")
	}
	return x / y, nil
}

func intDiv(x, y float64) (float64, error) {
	if y == 0 {
		return 0, diag.New(diag.Exec, "attempt to divide by zero")
	}
	return math.Floor(x / y), nil
}

func floatMod(x, y float64) (float64, error) {
	if y == 0 {
		return 0, diag.New(diag.Exec, "attempt to divide by zero")
	}
	return math.Mod(x, y), nil
}

// FormatNum prints a number the way values are printed: integers without
// a fraction, everything else in shortest form.
func FormatNum(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// StringCell converts a Go string to a list-of-characters value.
func (ev *Evaluator) StringCell(s string) *Cell {
	out := NewConst(ev.World.Nil)
	for i := len(s) - 1; i >= 0; i-- {
		out = NewCons(ev.World.ConsC, NewPair(NewChar(s[i]), out))
	}
	return out
}

// StringValue forces a list-of-characters value into a Go string.
func (ev *Evaluator) StringValue(arg *Cell) (string, error) {
	var b []byte
	v, err := ev.Force(arg)
	if err != nil {
		return "", err
	}
	for v.Kind == KCons {
		ch, err := ev.Force(v.Arg.Left)
		if err != nil {
			return "", err
		}
		if ch.Kind != KChar {
			return "", diag.New(diag.Intern, "string contains a non-character")
		}
		b = append(b, ch.Char)
		if v, err = ev.Force(v.Arg.Right); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
