package stage

import (
	"context"
	"maps"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/state"
)

// Resolver maps a callee name to its definition.
type Resolver interface {
	Resolve(name string) (*Func, bool)
}

// Funcs is a map-backed Resolver.
type Funcs map[string]*Func

func (m Funcs) Resolve(name string) (*Func, bool) {
	f, ok := m[name]
	return f, ok
}

// Frame is the variable environment of one function activation.
type Frame struct {
	ctx   context.Context
	st    *state.State
	vars  map[string]*ir.Sym
	funcs Resolver
	wl    *Whitelist
}

// NewFrame binds a frame to the State installed in ctx. A nil whitelist
// means no host calls.
func NewFrame(ctx context.Context, funcs Resolver, wl *Whitelist) (*Frame, error) {
	st, err := state.From(ctx)
	if err != nil {
		return nil, err
	}
	if wl == nil {
		wl = NewWhitelist()
	}
	if funcs == nil {
		funcs = Funcs(nil)
	}
	return &Frame{ctx: ctx, st: st, vars: make(map[string]*ir.Sym), funcs: funcs, wl: wl}, nil
}

// callee returns a fresh frame sharing everything but the variables.
func (f *Frame) callee() *Frame {
	return &Frame{ctx: f.ctx, st: f.st, vars: make(map[string]*ir.Sym), funcs: f.funcs, wl: f.wl}
}

func (f *Frame) Context() context.Context { return f.ctx }
func (f *Frame) State() *state.State      { return f.st }
func (f *Frame) Whitelist() *Whitelist    { return f.wl }

// Lookup returns the current binding of name.
func (f *Frame) Lookup(name string) (*ir.Sym, bool) {
	s, ok := f.vars[name]
	return s, ok
}

// Get is Lookup for expression reads; an unbound name is an error.
func (f *Frame) Get(name string, span source.Span) (*ir.Sym, error) {
	if s, ok := f.vars[name]; ok {
		return s, nil
	}
	return nil, diag.Errorf(diag.StgUndefined, span, "undefined: %s", name)
}

func (f *Frame) Set(name string, s *ir.Sym) {
	f.vars[name] = s
}

func (f *Frame) snapshot() map[string]*ir.Sym {
	return maps.Clone(f.vars)
}

func (f *Frame) restore(snap map[string]*ir.Sym) {
	f.vars = maps.Clone(snap)
}
