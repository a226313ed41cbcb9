package ir

import (
	"fmt"
	"strconv"

	"argon/internal/source"
	"argon/internal/types"
)

// Sym is the handle of a staged value. Two Syms denote the same graph
// value iff they share a Def.
type Sym struct {
	Def  *Def
	Type types.TypeID // staged type
	Host types.Host   // denotational type
	Span source.Span
}

// NewSym returns an unassigned handle of the given type.
func NewSym(in *types.Interner, typ types.TypeID, span source.Span) *Sym {
	return &Sym{Type: typ, Host: in.Host(typ), Span: span}
}

// Assign sets the definition of a handle created by NewSym.
func (s *Sym) Assign(d *Def) {
	if s.Def != nil {
		panic("ir: symbol already assigned")
	}
	s.Def = d
}

// Same reports whether s and o share a definition.
func (s *Sym) Same(o *Sym) bool {
	return s != nil && o != nil && s.Def != nil && s.Def == o.Def
}

// ID returns the graph id; consts and unassigned handles have none.
func (s *Sym) ID() (ID, bool) {
	if s == nil || s.Def == nil || s.Def.Kind == DefConst {
		return 0, false
	}
	return s.Def.ID, true
}

func (s *Sym) IsConst() bool { return s != nil && s.Def != nil && s.Def.Kind == DefConst }
func (s *Sym) IsBound() bool { return s != nil && s.Def != nil && s.Def.Kind == DefBound }
func (s *Sym) IsNode() bool  { return s != nil && s.Def != nil && s.Def.Kind == DefNode }

// Op returns the operation of a Node symbol, or nil.
func (s *Sym) Op() Op {
	if !s.IsNode() {
		return nil
	}
	return s.Def.Op
}

// String renders the operand form: %id for nodes and bounds, the literal
// for constants.
func (s *Sym) String() string {
	if s == nil || s.Def == nil {
		return "<unassigned>"
	}
	switch s.Def.Kind {
	case DefConst:
		return formatConst(s.Def.Value)
	default:
		return "%" + strconv.FormatUint(uint64(s.Def.ID), 10)
	}
}

func formatConst(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Const wraps a literal of type typ. It has no graph side effect.
func Const(in *types.Interner, typ types.TypeID, value any, span source.Span) *Sym {
	s := NewSym(in, typ, span)
	s.Assign(NewConstDef(value))
	return s
}

func ConstInt(in *types.Interner, v int64, span source.Span) *Sym {
	return Const(in, in.Builtins().Int, v, span)
}

func ConstBool(in *types.Interner, v bool, span source.Span) *Sym {
	return Const(in, in.Builtins().Bool, v, span)
}

func ConstFloat(in *types.Interner, v float64, span source.Span) *Sym {
	return Const(in, in.Builtins().Float, v, span)
}

// Null is the "no value" sentinel yielded by statement-only blocks.
func Null(in *types.Interner) *Sym {
	return Const(in, in.Builtins().Null, nil, source.NoSpan)
}
