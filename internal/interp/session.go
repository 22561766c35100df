// Package interp ties the pipeline together: it reads commands, runs
// them through resolution, type checking and pattern compilation, and
// drives the evaluator, handling recovery, interrupts and the module
// reading stack.
package interp

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/compile"
	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/eval"
	"github.com/hopelang/hope/internal/infer"
	"github.com/hopelang/hope/internal/lexer"
	"github.com/hopelang/hope/internal/module"
	"github.com/hopelang/hope/internal/names"
	"github.com/hopelang/hope/internal/parser"
	"github.com/hopelang/hope/internal/printer"
	"github.com/hopelang/hope/internal/resolve"
	"github.com/hopelang/hope/lib"
)

const prompt = ">: "

type Session struct {
	Cfg  *config.Config
	Pool *names.Pool

	World    *module.World
	Printer  *printer.Printer
	Streams  *eval.StreamTable
	Ev       *eval.Evaluator
	U        *infer.Unifier
	Check    *infer.Checker
	Resolver *resolve.Resolver
	Comp     *compile.Compiler

	Log *logrus.Logger
	Out io.Writer
	Err io.Writer

	// Listing mode copies input to Err with error messages flagged.
	Listing bool

	ID   uuid.UUID
	Args []string // becomes argv

	exiting bool

	// listing state for the source currently being read
	srcLines []string
	echoed   int
}

func NewSession(cfg *config.Config, log *logrus.Logger, args []string) *Session {
	s := &Session{
		Cfg:  cfg,
		Pool: names.NewPool(),
		Log:  log,
		Out:  os.Stdout,
		Err:  os.Stderr,
		ID:   uuid.New(),
		Args: args,
	}
	s.World = module.NewWorld(s.Pool, cfg.Path, log)
	s.Printer = printer.New(s.World)
	s.Streams = eval.NewStreamTable(cfg.Restricted)
	s.Ev = eval.New(s.World, s.Streams)
	s.Ev.Print = s.Printer
	s.Printer.Ev = s.Ev
	s.Resolver = resolve.New(s.World, s.Printer)
	return s
}

// Bootstrap loads the Standard module and installs the native pieces.
// It must run before any user input is processed.
func (s *Session) Bootstrap() error {
	if err := s.World.UseStandard(); err != nil {
		return err
	}
	if _, ok := s.World.ProvideSource(s.Pool.Intern(module.StandardName)); !ok {
		return diag.New(diag.Lib, "cannot enter standard module")
	}
	s.registerPrimitives()

	s.U = infer.NewUnifier(s.World.Function, s.World.Product, s.World.ListType)
	s.Check = infer.NewChecker(s.U, s.Printer)
	s.Check.NumType = s.World.NumType
	s.Check.CharType = s.World.CharType
	s.Check.BoolType = s.World.BoolType
	s.Comp = compile.New(s.World.Succ)

	if err := s.runSource(lib.Standard); err != nil {
		return err
	}
	// native installation happens while Standard is still the current
	// module, so argv lands there
	if err := s.afterStandard(); err != nil {
		return err
	}
	s.World.Finish()
	return nil
}

// afterStandard verifies the library and installs the native bodies.
func (s *Session) afterStandard() error {
	if err := eval.InstallBuiltins(s.World); err != nil {
		return err
	}
	if err := eval.InitCompare(s.Ev); err != nil {
		return err
	}
	for _, required := range []string{"id", "if_then_else", "argv"} {
		if s.World.LookupFn(s.Pool.Intern(required)) == nil {
			return diag.New(diag.Lib, "'%s': standard function not defined", required)
		}
	}
	// define argv from the command line
	return s.defValue(ast.NewVar(s.Pool.Intern("argv")), s.textList(s.Args))
}

func (s *Session) textList(items []string) *ast.Expr {
	nilName := s.Pool.Intern("nil")
	consName := s.Pool.Intern("::")
	out := ast.NewVar(nilName)
	for i := len(items) - 1; i >= 0; i-- {
		text := ast.NewVar(nilName)
		str := items[i]
		for j := len(str) - 1; j >= 0; j-- {
			text = ast.NewApply(ast.NewVar(consName),
				ast.NewPair(ast.NewChar(str[j]), text))
		}
		out = ast.NewApply(ast.NewVar(consName), ast.NewPair(text, out))
	}
	return out
}

// RunFile processes a whole source file.
func (s *Session) RunFile(src string) error { return s.runSource(src) }

// RunInteractive reads commands from in, prompting when it is a
// terminal.
func (s *Session) RunInteractive(in io.Reader, tty bool) error {
	buf := ""
	line := make([]byte, 0, 256)
	rd := newLineReader(in)
	for !s.exiting {
		if tty && strings.TrimSpace(buf) == "" {
			fmt.Fprint(s.Out, prompt)
		}
		var ok bool
		line, ok = rd.readLine()
		if !ok {
			break
		}
		buf += string(line) + "\n"
		n := completeCommands(buf)
		if n == 0 {
			continue
		}
		if err := s.runSource(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	if strings.TrimSpace(buf) != "" && !s.exiting {
		return s.runSource(buf)
	}
	return nil
}

// Exiting reports whether an `exit;` command was executed.
func (s *Session) Exiting() bool { return s.exiting }

// completeCommands returns the length of the prefix of buf that ends at
// the last top-level semicolon, skipping string and character literals
// and comments.
func completeCommands(buf string) int {
	last := 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case ';':
			last = i + 1
		case '!':
			for i < len(buf) && buf[i] != '\n' {
				i++
			}
		case '"':
			i++
			for i < len(buf) && buf[i] != '"' && buf[i] != '\n' {
				if buf[i] == '\\' {
					i++
				}
				i++
			}
		case '\'':
			if i+2 < len(buf) {
				if buf[i+1] == '\\' && i+3 < len(buf) && buf[i+3] == '\'' {
					i += 3
				} else if buf[i+2] == '\'' {
					i += 2
				}
			}
		}
	}
	return last
}

// runSource processes every command in one source text.
func (s *Session) runSource(src string) error {
	savedLines, savedEchoed := s.srcLines, s.echoed
	if s.Listing {
		s.srcLines = strings.Split(src, "\n")
		s.echoed = 0
	}
	defer func() { s.srcLines, s.echoed = savedLines, savedEchoed }()

	lx := lexer.New(src, s.Pool)
	p := parser.New(lx, s.World)
	reported := 0
	for !s.exiting {
		cmd, err := p.ParseCommand()
		// lexical errors surface before syntax errors
		for ; reported < len(lx.Errors); reported++ {
			s.report(lx.Errors[reported])
		}
		if err != nil {
			de := diag.AsError(err)
			s.report(de)
			if !de.Recoverable() {
				return de
			}
			p.SkipToSemi()
			continue
		}
		if cmd == nil {
			break
		}
		if err := s.Execute(cmd, p.Line()); err != nil {
			de := diag.AsError(err)
			s.report(de)
			if !de.Recoverable() {
				return de
			}
		}
	}
	if s.Listing {
		s.echoLines(len(s.srcLines))
	}
	return nil
}

func (s *Session) echoLines(upto int) {
	for ; s.echoed < upto && s.echoed < len(s.srcLines); s.echoed++ {
		fmt.Fprintln(s.Err, s.srcLines[s.echoed])
	}
}

func (s *Session) report(err *diag.Error) {
	if s.Listing {
		if err.Line > 0 {
			s.echoLines(err.Line)
		}
		for _, ln := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(s.Err, "@ %s\n", ln)
		}
		return
	}
	fmt.Fprintln(s.Err, err.Error())
}

// Execute runs one parsed command.
func (s *Session) Execute(cmd parser.Command, line int) error {
	switch c := cmd.(type) {
	case *parser.UsesCmd:
		for _, n := range c.Names {
			if err := s.World.Use(n); err != nil {
				return err
			}
		}
		return s.loadPending()

	case *parser.TypevarCmd:
		for _, n := range c.Names {
			if err := s.World.DeclareTVar(n); err != nil {
				return err
			}
		}
		return nil

	case *parser.InfixCmd:
		assoc := module.AssocLeft
		if c.Right {
			assoc = module.AssocRight
		}
		for _, n := range c.Names {
			s.World.DeclareOp(n, c.Prec, assoc)
		}
		return nil

	case *parser.DecCmd:
		for _, item := range c.Items {
			if err := s.declValue(item.Name, item.Type); err != nil {
				return s.position(err, line)
			}
		}
		return nil

	case *parser.DataCmd:
		return s.position(s.execData(c), line)

	case *parser.SynCmd:
		return s.position(s.execSyn(c), line)

	case *parser.AbstypeCmd:
		for _, h := range c.Heads {
			if err := s.execAbstype(h); err != nil {
				return s.position(err, line)
			}
		}
		return nil

	case *parser.DefCmd:
		s.Log.WithField("line", line).Debug("definition")
		return s.position(s.defValue(c.LHS, c.RHS), line)

	case *parser.ExprCmd:
		return s.position(s.evalPrint(c.Expr), line)

	case *parser.WriteCmd:
		return s.position(s.evalWrite(c), line)

	case *parser.DisplayCmd:
		if !s.World.AtSession() {
			return diag.New(diag.Sem, "'display' not permitted in module")
		}
		s.Printer.Display(s.Out)
		return nil

	case *parser.SaveCmd:
		return s.save(c.Name)

	case *parser.ExitCmd:
		s.exiting = true
		return nil

	case *parser.PrivateCmd:
		s.World.Private()
		return nil

	case *parser.EditCmd:
		return diag.New(diag.Sem, "'edit' is not supported")
	}
	return diag.New(diag.Intern, "unknown command")
}

func (s *Session) position(err error, line int) error {
	if err == nil {
		return nil
	}
	de := diag.AsError(err)
	if de.Line == 0 {
		de.WithPos(s.World.ModuleName(), line)
	}
	return de
}

// loadPending reads modules queued by `uses` until none remain.
func (s *Session) loadPending() error {
	for {
		mod, src, err := s.World.Fetch()
		if err != nil {
			return err
		}
		if mod == nil {
			return nil
		}
		if err := s.runSource(src); err != nil {
			return err
		}
		s.World.Finish()
	}
}

// prepare runs an expression through resolution, checking and
// compilation, returning its inferred type.
func (s *Session) prepare(expr *ast.Expr, list bool) (*infer.Cell, error) {
	br := ast.NewUnary(ast.NewVar(s.Pool.Intern("input")), expr, nil)
	if err := s.Resolver.Branch(br); err != nil {
		return nil, err
	}
	var t *infer.Cell
	var err error
	if list {
		t, err = s.Check.ChkList(expr)
	} else {
		t, err = s.Check.ChkExpr(expr)
	}
	if err != nil {
		return nil, err
	}
	s.Comp.Expr(expr)
	return t, nil
}

// evaluate forces a prepared expression with interrupts armed.
func (s *Session) evaluate(expr *ast.Expr) (*eval.Cell, func(), error) {
	s.Streams.Reset()
	s.Ev.ResetInterrupt()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			s.Ev.Interrupt()
		}
	}()
	var timer *time.Timer
	if s.Cfg.TimeLimit > 0 {
		timer = time.AfterFunc(time.Duration(s.Cfg.TimeLimit)*time.Second, s.Ev.Timeout)
	}
	cleanup := func() {
		signal.Stop(sig)
		close(sig)
		if timer != nil {
			timer.Stop()
		}
		s.Streams.CloseAll()
	}

	env := eval.NewPair(eval.NewStreamCell(s.Streams.Stdin()), nil)
	root := eval.NewSusp(expr, env)
	v, err := s.Ev.Force(root)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return v, cleanup, nil
}

// evalPrint evaluates an expression command and prints `>> value : type`.
func (s *Session) evalPrint(expr *ast.Expr) error {
	t, err := s.prepare(expr, false)
	if err != nil {
		return err
	}
	v, cleanup, err := s.evaluate(expr)
	if err != nil {
		return err
	}
	defer cleanup()
	str, perr := s.Printer.Value(v)
	if perr != nil {
		fmt.Fprintf(s.Out, ">> %s\n", str)
		return perr
	}
	fmt.Fprintf(s.Out, ">> %s : %s\n", str, s.Printer.TypeValue(t))
	return nil
}

// evalWrite writes a list-valued expression element by element, to the
// terminal or to a file.
func (s *Session) evalWrite(cmd *parser.WriteCmd) error {
	if _, err := s.prepare(cmd.Expr, true); err != nil {
		return err
	}
	out := s.Out
	var file *os.File
	if cmd.HasFile {
		if s.Cfg.Restricted {
			return diag.New(diag.Exec, "file output disabled")
		}
		var err error
		if file, err = os.Create(cmd.File); err != nil {
			return diag.New(diag.Exec, "'%s': cannot create file", cmd.File)
		}
		out = file
	}
	v, cleanup, err := s.evaluate(cmd.Expr)
	if err != nil {
		if file != nil {
			file.Close()
			os.Remove(cmd.File)
		}
		return err
	}
	defer cleanup()
	werr := s.writeElements(out, v)
	if file != nil {
		file.Close()
		if werr != nil {
			os.Remove(cmd.File)
		}
	}
	return werr
}

func (s *Session) writeElements(out io.Writer, v *eval.Cell) error {
	var err error
	for v.Kind == eval.KCons {
		elem, err2 := s.Ev.Force(v.Arg.Left)
		if err2 != nil {
			return err2
		}
		if elem.Kind == eval.KChar {
			fmt.Fprintf(out, "%c", elem.Char)
		} else {
			str, perr := s.Printer.Value(elem)
			fmt.Fprintln(out, str)
			if perr != nil {
				return perr
			}
		}
		if v, err = s.Ev.Force(v.Arg.Right); err != nil {
			return err
		}
	}
	return nil
}

// save writes the session as a module file and turns the session into a
// user of that module.
func (s *Session) save(name *names.Name) error {
	if s.Cfg.Restricted {
		return diag.New(diag.Sem, "'save' command disabled")
	}
	if !s.World.AtSession() {
		return diag.New(diag.Sem, "'save' not permitted in module")
	}
	fname := name.String() + config.SourceFileExt
	if _, err := os.Stat(fname); err == nil {
		return diag.New(diag.Sem, "'%s': a module with this name already exists", name)
	}
	f, err := os.Create(fname)
	if err != nil {
		return diag.New(diag.Sem, "'%s': can't save module", name)
	}
	header := fmt.Sprintf("module %s written by hope session %s on %s",
		name, s.ID, time.Now().Format(time.RFC3339))
	if err := s.Printer.Dump(f, printer.DumpOptions{Header: header}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return diag.New(diag.Fatal, "'%s': %s", name, err)
	}
	s.Log.WithField("module", name).Debug("session saved")
	return s.World.SaveSession(name)
}

// lineReader reads input line by line without buffering ahead, so that
// stream input and command input can share a terminal.
type lineReader struct {
	in io.Reader
}

func newLineReader(in io.Reader) *lineReader { return &lineReader{in: in} }

func (r *lineReader) readLine() ([]byte, bool) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := r.in.Read(buf)
		if n == 0 {
			return line, len(line) > 0
		}
		if buf[0] == '\n' {
			return line, true
		}
		line = append(line, buf[0])
		if err != nil {
			return line, true
		}
	}
}
