package state

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
	"github.com/google/uuid"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/trace"
	"argon/internal/types"
)

// Stats counts what a State has staged.
type Stats struct {
	Nodes  int
	Bounds int
	Scopes int
	Funcs  int
}

// State is the graph under construction for one capture. It is not safe
// for concurrent staging; only the function cache is locked.
type State struct {
	next    uint64
	root    *Scope
	scope   *Scope
	types   *types.Interner
	tracer  trace.Tracer
	session uuid.UUID
	stats   Stats

	mu      sync.Mutex
	funcs   map[any]*ir.Sym
	staging map[any]struct{}
}

// Option configures New.
type Option func(*State)

// WithInterner shares an interner across States. The interner itself is
// not goroutine-safe.
func WithInterner(in *types.Interner) Option {
	return func(s *State) { s.types = in }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *State) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSession fixes the session id, mostly for reproducible output.
func WithSession(id uuid.UUID) Option {
	return func(s *State) { s.session = id }
}

// New creates a State whose current scope is a fresh root scope.
func New(opts ...Option) *State {
	s := &State{
		tracer:  trace.Nop,
		session: uuid.New(),
		funcs:   make(map[any]*ir.Sym),
		staging: make(map[any]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.types == nil {
		s.types = types.NewInterner()
	}
	s.root = newScope(nil)
	s.scope = s.root
	return s
}

func (s *State) Types() *types.Interner { return s.types }
func (s *State) Tracer() trace.Tracer   { return s.tracer }
func (s *State) Session() uuid.UUID     { return s.session }
func (s *State) Root() *Scope           { return s.root }
func (s *State) Current() *Scope        { return s.scope }
func (s *State) Stats() Stats           { return s.stats }

func (s *State) nextID() ir.ID {
	s.next++
	id, err := safecast.Conv[uint32](s.next)
	if err != nil {
		panic(fmt.Sprintf("state: id space exhausted: %v", err))
	}
	return ir.ID(id)
}

// NewScope allocates a child of the current scope. It is not active
// until Enter.
func (s *State) NewScope() *ScopeContext {
	return &ScopeContext{st: s, scope: newScope(s.scope)}
}

// Enter makes sc current and returns the function that restores the
// previous scope.
func (s *State) Enter(sc *Scope) (restore func()) {
	prev := s.scope
	s.scope = sc
	return func() { s.scope = prev }
}

// Stage appends a node for op to the current scope.
func (s *State) Stage(op ir.Op, span source.Span) *ir.Sym {
	id := s.nextID()
	sym := ir.NewSym(s.types, op.Type(), span)
	sym.Assign(ir.NewNodeDef(id, op))
	s.scope.symbols = append(s.scope.symbols, sym)
	s.stats.Nodes++
	if s.tracer.Enabled() {
		trace.Point(s.tracer, trace.ScopeNode, op.Name(), sym.String()+" : "+s.types.Name(op.Type()), 0)
	}
	return sym
}

// Bound appends a free parameter to the current scope.
func (s *State) Bound(name string, typ types.TypeID, span source.Span) *ir.Sym {
	id := s.nextID()
	sym := ir.NewSym(s.types, typ, span)
	sym.Assign(ir.NewBoundDef(id, name))
	s.scope.symbols = append(s.scope.symbols, sym)
	s.stats.Bounds++
	if s.tracer.Enabled() {
		trace.Point(s.tracer, trace.ScopeNode, "bound", sym.String()+" "+name, 0)
	}
	return sym
}

// Capture runs fn inside a fresh child scope and seals the scope into a
// Block yielding fn's result. The previous scope is restored even when fn
// fails.
func (s *State) Capture(fn func() (*ir.Sym, error)) (*ir.Block, error) {
	sc := s.NewScope()
	scope := sc.Enter()
	defer sc.Exit()
	result, err := fn()
	if err != nil {
		return nil, err
	}
	return scope.Block(result), nil
}

// Func returns the cached definition for key.
func (s *State) Func(key any) (*ir.Sym, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sym, ok := s.funcs[key]
	return sym, ok
}

// BeginFunc marks key as being staged. Staging the same function again
// before EndFunc is a recursive definition, which cannot be staged.
func (s *State) BeginFunc(key any, name string, span source.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.staging[key]; busy {
		return diag.Errorf(diag.StgRecursiveCall, span, "function %s calls itself while being staged", name)
	}
	s.staging[key] = struct{}{}
	return nil
}

// EndFunc finishes BeginFunc. A nil sym records nothing.
func (s *State) EndFunc(key any, sym *ir.Sym) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staging, key)
	if sym != nil {
		s.funcs[key] = sym
		s.stats.Funcs++
	}
}
