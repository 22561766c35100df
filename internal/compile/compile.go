// Package compile turns the equations of a function or lambda into a
// single decision tree. Each equation yields a flat match list — one
// (level, path, discriminator) triple per atomic test — which is then
// merged into the tree built from the previous equations. Merging keeps
// the tree ordered by (level, path), shares side branches, and uses the
// success-node size as a specificity score.
package compile

import (
	"github.com/hopelang/hope/internal/ast"
	"github.com/hopelang/hope/internal/path"
)

// Discriminator classes are encoded in NCases; ordinary algebraic matches
// store the constructor count there.
const (
	numCase  = -1
	charCase = -2
)

type match struct {
	level  int
	where  path.Path
	ncases int
	index  int
}

// Compiler compiles branches against a module's notion of the succ
// constructor (number patterns dispatch through it).
type Compiler struct {
	Succ *ast.Con

	matches []match
	cur     int
	size    int
	newBody *ast.UCase
}

func New(succ *ast.Con) *Compiler {
	return &Compiler{Succ: succ}
}

// Branch merges one equation into oldBody. The branch body is compiled
// first so nested lambdas get their own trees.
func (c *Compiler) Branch(oldBody *ast.UCase, br *ast.Branch) *ast.UCase {
	c.Expr(br.Expr)
	return c.compile(oldBody, br.Formals, br.Expr)
}

// Expr compiles every lambda-like node inside expr.
func (c *Compiler) Expr(expr *ast.Expr) {
	switch expr.Kind {
	case ast.ELambda, ast.EEqn, ast.EPresect, ast.EPostsect:
		expr.Code = ast.NewLNoMatch(expr)
		for br := expr.Branch; br != nil; br = br.Next {
			expr.Code = c.Branch(expr.Code, br)
		}
	case ast.EPair:
		c.Expr(expr.Left)
		c.Expr(expr.Right)
	case ast.EApply, ast.EIf, ast.EWhere, ast.ELet, ast.ERWhere, ast.ERLet:
		c.Expr(expr.Func)
		c.Expr(expr.Arg)
	case ast.EMu:
		c.Expr(expr.Body)
	}
}

func (c *Compiler) compile(oldBody *ast.UCase, formals, newExpr *ast.Expr) *ast.UCase {
	c.matches = c.matches[:0]
	c.scanFormals(0, formals)
	c.cur = 0
	c.size = sizeFormals(formals)
	c.newBody = ast.NewSuccess(newExpr, c.size)
	if oldBody == nil {
		return c.newBody
	}
	return c.merge(oldBody)
}

func (c *Compiler) addMatch(level int, where path.Stack, ncases, index int) {
	c.matches = append(c.matches, match{
		level:  level,
		where:  where.Reverse(),
		ncases: ncases,
		index:  index,
	})
}

// scanFormals walks the reversed formals spine; the outermost application
// holds the last parameter, which is level 0.
func (c *Compiler) scanFormals(level int, formals *ast.Expr) {
	if formals != nil && formals.Kind == ast.EApply {
		c.scanFormals(level+1, formals.Func)
		c.genMatches(level, path.Stack{}, formals.Arg)
	}
}

// genMatches emits the discriminators for one pattern.
func (c *Compiler) genMatches(level int, here path.Stack, p *ast.Expr) {
	switch p.Kind {
	case ast.EChar:
		c.addMatch(level, here, charCase, int(p.Char))
	case ast.ENum:
		c.genNumMatch(level, here, p.Num)
	case ast.ECons:
		c.addMatch(level, here, p.Con.NumCases(), p.Con.Index)
	case ast.EApply:
		c.genMatchConstr(level, &here, 0, p)
	case ast.EPlus:
		for i := 0; i < p.Incr; i++ {
			c.addMatch(level, here, numCase, ast.NumGreater)
			here = here.Push(path.Pred)
		}
		c.genMatches(level, here, p.Rest)
	case ast.EPair:
		c.genMatches(level, here.Push(path.Left), p.Left)
		c.genMatches(level, here.Push(path.Right), p.Right)
	case ast.EVar:
		// variables match anything
	}
}

// A literal n is decomposed into n successive "greater than zero" tests
// along pred paths, ending in an equality test against zero.
func (c *Compiler) genNumMatch(level int, here path.Stack, n float64) {
	if n > 0 {
		c.addMatch(level, here, numCase, ast.NumGreater)
		c.genNumMatch(level, here.Push(path.Pred), n-1)
	} else {
		c.addMatch(level, here, numCase, ast.NumEqual)
	}
}

// genMatchConstr handles a constructor application c p1 ... pk, whose
// value is laid out as c(v1, (v2, ... (vk-1, vk)...)): the path for each
// argument is derived from the previous one.
func (c *Compiler) genMatchConstr(level int, here *path.Stack, arity int, p *ast.Expr) {
	if p.Kind == ast.ECons {
		if p.Con == c.Succ {
			c.addMatch(level, *here, numCase, ast.NumGreater)
			*here = here.Push(path.Pred)
		} else {
			c.addMatch(level, *here, p.Con.NumCases(), p.Con.Index)
			*here = here.Push(path.Strip)
		}
		return
	}
	c.genMatchConstr(level, here, arity+1, p.Func)
	if arity > 0 {
		c.genMatches(level, here.Push(path.Left), p.Arg)
		*here = here.Push(path.Right)
	} else { // last argument
		c.genMatches(level, *here, p.Arg)
	}
}

// sizeFormals scores the specificity of an equation: the number of atomic
// discriminations its patterns require.
func sizeFormals(formals *ast.Expr) int {
	n := 0
	for f := formals; f != nil && f.Kind == ast.EApply; f = f.Func {
		n += sizePattern(f.Arg)
	}
	return n
}

func sizePattern(p *ast.Expr) int {
	switch p.Kind {
	case ast.EApply:
		return sizePattern(p.Func) + sizePattern(p.Arg)
	case ast.EPair:
		return sizePattern(p.Left) + sizePattern(p.Right)
	case ast.EPlus:
		return sizePattern(p.Rest) + p.Incr
	case ast.ENum:
		return int(p.Num) + 1
	case ast.ECons, ast.EChar:
		return 1
	default: // variables
		return 0
	}
}

// genTree builds the skinny matching tree for the remaining matches,
// patching the new success node in at the leaf and the given failure tree
// at each side branch.
func (c *Compiler) genTree(i int, failure *ast.UCase) *ast.UCase {
	if i == len(c.matches) {
		return c.newBody
	}
	return c.newNode(&c.matches[i], failure, c.genTree(i+1, failure))
}

func (c *Compiler) newNode(m *match, failure, subtree *ast.UCase) *ast.UCase {
	var limbs *ast.LCase
	switch m.ncases {
	case charCase:
		limbs = ast.NewCharCase(failure)
		limbs.SetCharLimb(byte(m.index), subtree)
	case numCase:
		limbs = ast.NewNumCase(failure)
		limbs.Limbs[m.index] = subtree
	default:
		limbs = ast.NewAlgCase(m.ncases, failure)
		limbs.Limbs[m.index] = subtree
	}
	return ast.NewCase(m.level, m.where, limbs)
}

// insertRefs counts the default slots of the node a match will build: the
// default lands in every limb but the matched one for dense dispatches,
// and in the single shared-default slot of the sparse character table.
func insertRefs(m *match) int {
	switch m.ncases {
	case charCase:
		return 1
	case numCase:
		return 2
	default:
		return m.ncases - 1
	}
}

// merge combines the tree generated from the current match list with the
// existing tree rooted at old.
func (c *Compiler) merge(old *ast.UCase) *ast.UCase {
	switch old.Kind {
	case ast.UCFNoMatch, ast.UCLNoMatch:
		// do all the matching
		return c.genTree(c.cur, old)

	case ast.UCSuccess:
		if old.Size < c.size { // maybe more specific
			return c.genTree(c.cur, old)
		}
		return old

	case ast.UCCase:
		if c.cur < len(c.matches) && c.beforeCurrent(old) {
			// The new equation tests an earlier position: insert a new
			// case above old, with old as the shared side-branch default.
			m := &c.matches[c.cur]
			old.Refs += insertRefs(m)
			return c.newNode(m, old, c.subMerge(old))
		}
		return c.mergeCase(old)
	}
	return old
}

func (c *Compiler) beforeCurrent(old *ast.UCase) bool {
	m := &c.matches[c.cur]
	return m.level < old.Level ||
		(m.level == old.Level && path.Less(m.where, old.Path))
}

func (c *Compiler) afterCurrent(old *ast.UCase) bool {
	m := &c.matches[c.cur]
	return old.Level < m.level ||
		(old.Level == m.level && path.Less(old.Path, m.where))
}

func (c *Compiler) subMerge(old *ast.UCase) *ast.UCase {
	c.cur++
	old = c.merge(old)
	c.cur--
	return old
}

func (c *Compiler) mergeCase(old *ast.UCase) *ast.UCase {
	if old.Refs > 1 {
		old.Refs--
		old = old.Copy()
	}
	lc := old.Cases
	if c.cur == len(c.matches) || c.afterCurrent(old) {
		lc.MapLimbs(c.merge)
		return old
	}
	// same place: keep following the matched limb only
	m := &c.matches[c.cur]
	if lc.Kind == ast.LCCharacter {
		b := byte(m.index)
		base, ok := lc.CharLimbs[b]
		if !ok {
			// populating a fresh entry adds a pointer to the shared
			// default
			base = lc.Default.Ref()
		}
		lc.SetCharLimb(b, c.subMerge(base))
	} else {
		lc.Limbs[m.index] = c.subMerge(lc.Limbs[m.index])
	}
	return old
}
