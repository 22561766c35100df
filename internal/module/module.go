// Package module maintains the module graph: which modules exist, which
// are loaded, what each declares, and how names are looked up across
// `uses` edges. The bottom of the module stack is the interactive
// session; module 1 is the Standard environment every other module uses
// implicitly.
package module

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/config"
	"github.com/hopelang/hope/internal/diag"
	"github.com/hopelang/hope/internal/names"
)

const (
	SessionName  = "<Session>"
	StandardName = "Standard"
)

// Indices of the special modules.
const (
	Session  = 0
	Standard = 1
	Ordinary = 2
)

type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
)

// Op is a declared infix operator.
type Op struct {
	Name  *names.Name
	Prec  int
	Assoc Assoc
}

// Module is one node of the module graph.
type Module struct {
	Name *names.Name
	Num  int

	Uses     map[int]bool // immediate uses
	AllUses  map[int]bool // transitive closure
	TVars    map[int]bool // declared type variables (indices into the registry)
	AllTVars map[int]bool // includes those of used modules

	// Ordered declaration tables; insertion order is preserved so that
	// display/save round-trip deterministically.
	Ops   []*Op
	Types []*ast.DefType
	Fns   []*ast.Func

	// Public is set on the shadow module installed by `private`; it
	// points at the part that outlives the module.
	Public *Module
}

func (m *Module) clear() {
	m.Uses = map[int]bool{}
	m.AllUses = map[int]bool{}
	m.TVars = map[int]bool{}
	m.AllTVars = map[int]bool{}
	m.Ops = nil
	m.Types = nil
	m.Fns = nil
	m.Public = nil
}

func union(dst, src map[int]bool) {
	for k := range src {
		dst[k] = true
	}
}

// World is the module graph plus the stack of modules being read. It also
// caches the primitive types and constructors that the interpreter core
// needs direct access to.
type World struct {
	Pool *names.Pool
	Dirs []string // module search path
	Log  *logrus.Logger

	list   []*Module
	unread map[int]bool
	stack  []*Module

	tvarNames []*names.Name // global type-variable registry

	standardName *names.Name
	wildcard     *names.Name

	// Primitive types and constructors, registered before the Standard
	// module is read.
	Product, Function, ListType, NumType, BoolType, CharType *ast.DefType
	Nil, ConsC, Succ, TrueC, FalseC                          *ast.Con
}

// NewWorld sets up the session and queues the Standard module for
// reading.
func NewWorld(pool *names.Pool, dirs []string, log *logrus.Logger) *World {
	w := &World{
		Pool:         pool,
		Dirs:         dirs,
		Log:          log,
		unread:       map[int]bool{},
		standardName: pool.Intern(StandardName),
		wildcard:     pool.Intern("_"),
	}
	sess := w.newModule(pool.Intern(SessionName))
	w.stack = []*Module{sess}
	return w
}

func (w *World) newModule(name *names.Name) *Module {
	m := &Module{Name: name, Num: len(w.list)}
	m.clear()
	w.list = append(w.list, m)
	return m
}

// Current returns the module currently being read (the session when no
// module file is open).
func (w *World) Current() *Module { return w.stack[len(w.stack)-1] }

// SessionModule returns the interactive session.
func (w *World) SessionModule() *Module { return w.list[Session] }

// InStandard reports whether the Standard module is being read.
func (w *World) InStandard() bool { return w.Current().Num == Standard }

// AtSession reports whether input is currently the interactive session.
func (w *World) AtSession() bool { return w.Current().Num == Session }

// ModuleName returns the current module's name, or "" for the session.
func (w *World) ModuleName() string {
	if w.AtSession() {
		return ""
	}
	return w.Current().Name.String()
}

// module finds or registers a module by name; newly named modules are
// queued for reading.
func (w *World) module(name *names.Name) *Module {
	for _, m := range w.list[Standard:] {
		if m.Name == name && m.Public == nil {
			return m
		}
	}
	m := w.newModule(name)
	w.unread[m.Num] = true
	return m
}

// Use records a `uses` reference from the current module, rejecting
// cycles through the reading stack.
func (w *World) Use(name *names.Name) error {
	mod := w.module(name)
	for _, m := range w.stack {
		if m == mod || m.Public == mod {
			return diag.New(diag.Sem, "'%s': cyclic 'uses' reference", mod.Name)
		}
	}
	cur := w.Current()
	cur.Uses[mod.Num] = true
	cur.AllUses[mod.Num] = true
	union(cur.AllUses, mod.AllUses)
	union(cur.AllTVars, mod.AllTVars)
	return nil
}

// UseStandard queues the Standard module below the session; called once
// at startup.
func (w *World) UseStandard() error { return w.Use(w.standardName) }

// Fetch opens the next unread module that the current module uses,
// pushes it onto the reading stack, and returns it with its source text.
// It returns nil when nothing is pending.
func (w *World) Fetch() (*Module, string, error) {
	for i := Standard; i < len(w.list); i++ {
		if !w.unread[i] || !w.Current().Uses[i] {
			continue
		}
		mod := w.list[i]
		src, fname, err := w.readFile(mod.Name)
		if err != nil {
			delete(w.Current().Uses, i)
			sev := diag.Sem
			if i == Standard {
				sev = diag.Lib
			}
			return nil, "", diag.New(sev, "'%s': can't read module", mod.Name)
		}
		delete(w.unread, i)
		w.stack = append(w.stack, mod)
		if i != Standard {
			if err := w.Use(w.standardName); err != nil {
				return nil, "", err
			}
		}
		w.Log.WithFields(logrus.Fields{"module": mod.Name, "file": fname}).
			Debug("reading module")
		return mod, src, nil
	}
	return nil, "", nil
}

// readFile searches each directory of the path in turn for name.hop.
func (w *World) readFile(name *names.Name) (string, string, error) {
	var lastErr error
	for _, dir := range w.Dirs {
		fname := filepath.Join(dir, name.String()+config.SourceFileExt)
		data, err := os.ReadFile(fname)
		if err == nil {
			return string(data), fname, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = os.ErrNotExist
	}
	return "", "", lastErr
}

// ProvideSource pushes a module whose text is supplied by the caller
// (the embedded Standard module).
func (w *World) ProvideSource(name *names.Name) (*Module, bool) {
	for i := Standard; i < len(w.list); i++ {
		if w.unread[i] && w.list[i].Name == name && w.Current().Uses[i] {
			delete(w.unread, i)
			w.stack = append(w.stack, w.list[i])
			return w.list[i], true
		}
	}
	return nil, false
}

// Private installs a shadow module: everything declared from here to the
// end of the module is discarded at Finish, and abstract types defined in
// the hidden part are reset to abstract.
func (w *World) Private() {
	if w.AtSession() { // no effect at top level
		return
	}
	cur := w.Current()
	priv := w.newModule(cur.Name)
	union(priv.Uses, cur.Uses)
	union(priv.AllUses, cur.AllUses)
	union(priv.TVars, cur.TVars)
	union(priv.AllTVars, cur.AllTVars)
	priv.Public = cur
	for _, dt := range cur.Types {
		dt.Private = dt.IsAbstract()
		if dt.Private {
			dt.OldVarList = dt.VarList
		}
	}
	w.stack[len(w.stack)-1] = priv
}

// Finish closes the module being read: private definitions are dropped,
// the public closure is propagated into every module that uses it, and
// reading of further queued modules can resume.
func (w *World) Finish() {
	cur := w.Current()
	if cur.Public != nil {
		cur = cur.Public
		for _, dt := range cur.Types {
			if dt.Private {
				dt.VarList = dt.OldVarList
				dt.SynDepth = 0
				dt.Cons = nil
				dt.Private = false
			}
		}
		w.FixSynonyms()
	}
	for _, m := range w.stack[:len(w.stack)-1] {
		if m.Uses[cur.Num] {
			union(m.AllUses, cur.AllUses)
			union(m.AllTVars, cur.AllTVars)
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// FixSynonyms recomputes the expansion depth of every synonym in the
// current module. Needed when an abstract type is fulfilled by a synonym
// and when privately-defined abstract types are reset.
func (w *World) FixSynonyms() {
	cur := w.Current()
	for _, dt := range cur.Types {
		fixSynDepth(dt)
	}
	if cur.Public != nil {
		for _, dt := range cur.Public.Types {
			fixSynDepth(dt)
		}
	}
}

func fixSynDepth(dt *ast.DefType) {
	n := 0
	for syn := dt; syn.IsSynonym(); {
		n++
		t := syn.Type
		for t.Kind == ast.TyMu {
			t = t.Body
		}
		if t.Kind == ast.TyVar {
			break
		}
		syn = t.DefType
	}
	dt.SynDepth = n
}

// SaveSession moves the session's declarations into a fresh module named
// name, so that subsequent sessions can `uses` it. The caller has already
// written the module file.
func (w *World) SaveSession(name *names.Name) error {
	mod := w.newModule(name)
	sess := w.SessionModule()
	union(mod.Uses, sess.Uses)
	union(mod.AllUses, sess.AllUses)
	union(mod.TVars, sess.TVars)
	union(mod.AllTVars, sess.AllTVars)
	mod.Ops = sess.Ops
	mod.Types = sess.Types
	mod.Fns = sess.Fns
	sess.clear()
	if err := w.UseStandard(); err != nil {
		return err
	}
	return w.Use(name)
}

// List returns all modules, session first.
func (w *World) List() []*Module { return w.list }

// Wildcard is the interned "_".
func (w *World) Wildcard() *names.Name { return w.wildcard }
