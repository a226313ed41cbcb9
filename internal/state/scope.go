package state

import "argon/internal/ir"

// Scope is the append-only log of symbols staged while a lexical region
// was active.
type Scope struct {
	parent  *Scope
	symbols []*ir.Sym
	depth   int
}

func newScope(parent *Scope) *Scope {
	s := &Scope{parent: parent}
	if parent != nil {
		s.depth = parent.depth + 1
	}
	return s
}

func (s *Scope) Parent() *Scope { return s.parent }

// Symbols returns the log in staging order. The slice is shared; callers
// must not append to it.
func (s *Scope) Symbols() []*ir.Sym { return s.symbols }

func (s *Scope) Depth() int { return s.depth }

func (s *Scope) Len() int { return len(s.symbols) }

// Block seals the log into a Block yielding result.
func (s *Scope) Block(result *ir.Sym) *ir.Block {
	return ir.NewBlock(s.symbols, result)
}

// ScopeContext guards one child scope. Enter swaps it into the State,
// Exit restores whatever was current before Enter.
type ScopeContext struct {
	st      *State
	scope   *Scope
	prev    *Scope
	entered bool
}

func (c *ScopeContext) Scope() *Scope { return c.scope }

func (c *ScopeContext) Enter() *Scope {
	if c.entered {
		panic("state: scope entered twice")
	}
	c.entered = true
	c.prev = c.st.scope
	c.st.scope = c.scope
	c.st.stats.Scopes++
	return c.scope
}

// Exit is idempotent so it can be deferred next to an explicit call.
func (c *ScopeContext) Exit() {
	if !c.entered {
		return
	}
	c.entered = false
	c.st.scope = c.prev
}
