package eval

import (
	"fmt"
	"io"
	"strings"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/trace"
	"argon/internal/types"
)

// DefaultMaxSteps bounds the total number of loop iterations of one run.
const DefaultMaxSteps = 1 << 24

// Machine interprets staged graphs.
type Machine struct {
	Types    *types.Interner
	Out      io.Writer
	Tracer   trace.Tracer
	MaxSteps int

	steps int
}

func New(in *types.Interner, out io.Writer) *Machine {
	return &Machine{Types: in, Out: out, Tracer: trace.Nop, MaxSteps: DefaultMaxSteps}
}

// env holds the values of one activation; loop iterations chain to the
// enclosing activation.
type env struct {
	parent *env
	vals   map[ir.ID]Value
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vals: make(map[ir.ID]Value)}
}

func (e *env) lookup(id ir.ID) (Value, bool) {
	for c := e; c != nil; c = c.parent {
		if v, ok := c.vals[id]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Call evaluates the function defined by fn with args.
func (m *Machine) Call(fn *ir.Sym, args []Value) (Value, error) {
	def, ok := fn.Op().(*ir.FunctionNew)
	if !ok {
		return Value{}, diag.Errorf(diag.StgNotCallable, fn.Span, "%s is not a function definition", fn)
	}
	sp := trace.Begin(m.Tracer, trace.ScopeCapture, "eval "+def.Func, 0)
	m.steps = 0
	v, err := m.call(def, args, fn.Span)
	sp.SetInt("steps", m.steps)
	if err != nil {
		sp.End("error")
		return v, err
	}
	sp.End(v.String())
	return v, nil
}

// Run evaluates a block with no inputs, such as a whole root scope.
func (m *Machine) Run(b *ir.Block) (Value, error) {
	if len(b.Inputs) > 0 {
		return Value{}, diag.Errorf(diag.EvalBadInput, source.NoSpan, "block has %d free inputs", len(b.Inputs))
	}
	m.steps = 0
	e := newEnv(nil)
	if err := m.block(b, e); err != nil {
		return Value{}, err
	}
	return m.result(b, e)
}

func (m *Machine) call(def *ir.FunctionNew, args []Value, span source.Span) (Value, error) {
	if len(args) != len(def.Bound) {
		return Value{}, diag.Errorf(diag.EvalBadInput, span, "%s takes %d arguments, got %d", def.Func, len(def.Bound), len(args))
	}
	e := newEnv(nil)
	for i, p := range def.Bound {
		e.vals[p.Def.ID] = args[i]
	}
	if err := m.block(def.Body, e); err != nil {
		return Value{}, fmt.Errorf("in %s: %w", def.Func, err)
	}
	v, err := m.result(def.Body, e)
	if err != nil {
		return Value{}, fmt.Errorf("in %s: %w", def.Func, err)
	}
	return v, nil
}

// result demands the block result as a concrete value.
func (m *Machine) result(b *ir.Block, e *env) (Value, error) {
	if b.Result == nil {
		return Null(), nil
	}
	return m.demand(b.Result, e)
}

func (m *Machine) block(b *ir.Block, e *env) error {
	for _, s := range b.Stmts {
		if s.IsBound() {
			continue
		}
		v, err := m.stmt(s, e)
		if err != nil {
			return err
		}
		e.vals[s.Def.ID] = v
	}
	return nil
}

// operand fetches an already computed value; it may be undefined.
func (m *Machine) operand(s *ir.Sym, e *env) (Value, error) {
	if s.IsConst() {
		return constValue(s), nil
	}
	if fn, ok := s.Op().(*ir.FunctionNew); ok {
		return Value{Kind: VKFunc, Fn: fn}, nil
	}
	if v, ok := e.lookup(s.Def.ID); ok {
		return v, nil
	}
	return Value{}, diag.Errorf(diag.EvalBadInput, s.Span, "value %s was never computed", s)
}

// demand is operand for consumers that need a concrete value.
func (m *Machine) demand(s *ir.Sym, e *env) (Value, error) {
	v, err := m.operand(s, e)
	if err != nil {
		return Value{}, err
	}
	if v.Kind == VKUndefined {
		return Value{}, diag.Errorf(diag.EvalUndefined, s.Span, "undefined variable %s", v.Var)
	}
	return v, nil
}

func (m *Machine) demandAll(syms []*ir.Sym, e *env) ([]Value, error) {
	out := make([]Value, len(syms))
	for i, s := range syms {
		v, err := m.demand(s, e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Machine) stmt(s *ir.Sym, e *env) (Value, error) {
	switch op := s.Op().(type) {
	case *ir.Binary:
		x, err := m.demand(op.X, e)
		if err != nil {
			return Value{}, err
		}
		y, err := m.demand(op.Y, e)
		if err != nil {
			return Value{}, err
		}
		return binary(op.Kind, x, y, s.Span)
	case *ir.Unary:
		x, err := m.demand(op.X, e)
		if err != nil {
			return Value{}, err
		}
		return unary(op.Kind, x, s.Span)
	case *ir.Convert:
		x, err := m.demand(op.X, e)
		if err != nil {
			return Value{}, err
		}
		return convert(m.Types, x, op.To), nil
	case *ir.Print:
		vals, err := m.demandAll(op.Args, e)
		if err != nil {
			return Value{}, err
		}
		return Null(), m.print(vals, op.Newline)
	case *ir.IfThenElse:
		return Null(), m.ifThenElse(op, e)
	case *ir.Phi:
		return m.selectValue(op.Cond, op.A, op.B, e)
	case *ir.Mux:
		if _, err := m.operand(op.A, e); err != nil {
			return Value{}, err
		}
		if _, err := m.operand(op.B, e); err != nil {
			return Value{}, err
		}
		return m.selectValue(op.Cond, op.A, op.B, e)
	case *ir.Undefined:
		return Value{Kind: VKUndefined, Var: op.Var}, nil
	case *ir.Loop:
		return m.loop(op, e, s.Span)
	case *ir.Record:
		fields := make([]Value, len(op.Values))
		for i, v := range op.Values {
			fv, err := m.operand(v, e)
			if err != nil {
				return Value{}, err
			}
			fields[i] = fv
		}
		return Value{Kind: VKRecord, Fields: fields}, nil
	case *ir.Field:
		rec, err := m.demand(op.Rec, e)
		if err != nil {
			return Value{}, err
		}
		return rec.Fields[op.Index], nil
	case *ir.FunctionNew:
		return Value{Kind: VKFunc, Fn: op}, nil
	case *ir.FunctionCall:
		fn, err := m.demand(op.Fn, e)
		if err != nil {
			return Value{}, err
		}
		args, err := m.demandAll(op.Args, e)
		if err != nil {
			return Value{}, err
		}
		return m.call(fn.Fn, args, s.Span)
	default:
		return Value{}, diag.Errorf(diag.EvalBadInput, s.Span, "cannot evaluate %s", s.Op().Name())
	}
}

func (m *Machine) selectValue(cond, a, b *ir.Sym, e *env) (Value, error) {
	c, err := m.demand(cond, e)
	if err != nil {
		return Value{}, err
	}
	if c.Bool {
		return m.operand(a, e)
	}
	return m.operand(b, e)
}

// ifThenElse runs the condition block and then only the selected branch.
// Branch values land in the enclosing env so the Phis after the node can
// see them.
func (m *Machine) ifThenElse(op *ir.IfThenElse, e *env) error {
	if err := m.block(op.Cond, e); err != nil {
		return err
	}
	c, err := m.result(op.Cond, e)
	if err != nil {
		return err
	}
	if c.Bool {
		return m.block(op.Then, e)
	}
	return m.block(op.Else, e)
}

func (m *Machine) loop(op *ir.Loop, e *env, span source.Span) (Value, error) {
	rec, ok := m.Types.RecordInfo(op.Type())
	if !ok {
		return Value{}, diag.Errorf(diag.EvalBadInput, span, "loop result is not a record")
	}
	carried := make([]Value, len(op.Binds))
	for i, init := range op.Initial {
		v, err := m.operand(init, e)
		if err != nil {
			return Value{}, err
		}
		carried[i] = v
	}

	out := make([]Value, len(rec.Fields))
	for i, f := range rec.Fields {
		out[i] = Value{Kind: VKUndefined, Var: f.Name}
		for j, b := range op.Binds {
			if b.Def.Name == f.Name {
				out[i] = carried[j]
			}
		}
	}

	for {
		iter := newEnv(e)
		for i, b := range op.Binds {
			iter.vals[b.Def.ID] = carried[i]
		}
		if err := m.block(op.Cond, iter); err != nil {
			return Value{}, err
		}
		c, err := m.result(op.Cond, iter)
		if err != nil {
			return Value{}, err
		}
		if !c.Bool {
			break
		}
		m.steps++
		if m.MaxSteps > 0 && m.steps > m.MaxSteps {
			return Value{}, diag.Errorf(diag.EvalStepLimit, span, "more than %d loop iterations", m.MaxSteps)
		}
		if err := m.block(op.Body, iter); err != nil {
			return Value{}, err
		}
		body, err := m.operand(op.Body.Result, iter)
		if err != nil {
			return Value{}, err
		}
		out = body.Fields
		for i, b := range op.Binds {
			if idx := rec.Index(b.Def.Name); idx >= 0 {
				carried[i] = out[idx]
			}
		}
	}
	return Value{Kind: VKRecord, Fields: out}, nil
}

func (m *Machine) print(vals []Value, newline bool) error {
	if m.Out == nil {
		return nil
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	line := strings.Join(parts, " ")
	if newline {
		line += "\n"
	}
	_, err := io.WriteString(m.Out, line)
	return err
}
