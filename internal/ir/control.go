package ir

import (
	"argon/internal/diag"
	"argon/internal/source"
	"argon/internal/types"
)

// IfThenElse holds the three blocks of a staged branch. Its result is
// null; merged values are produced by Phi nodes that follow it.
type IfThenElse struct {
	Cond *Block
	Then *Block
	Else *Block
	typ  types.TypeID
}

func NewIfThenElse(in *types.Interner, cond, then, els *Block) *IfThenElse {
	return &IfThenElse{Cond: cond, Then: then, Else: els, typ: in.Builtins().Null}
}

func (o *IfThenElse) Name() string       { return "ifthenelse" }
func (o *IfThenElse) Type() types.TypeID { return o.typ }
func (o *IfThenElse) Inputs() []*Sym {
	return unionInputs(o.Cond, o.Then, o.Else)
}
func (o *IfThenElse) Blocks() []NamedBlock {
	return []NamedBlock{{"cond", o.Cond}, {"then", o.Then}, {"else", o.Else}}
}

// Phi selects one of two branch values by the branch condition. Only
// the selected side is meaningful.
type Phi struct {
	Cond *Sym
	A, B *Sym
	typ  types.TypeID
}

// NewPhi requires A and B to share a staged type. An operand of the
// undefined type takes the type of the other side.
func NewPhi(in *types.Interner, cond, a, b *Sym, span source.Span) (*Phi, error) {
	if cond.Type != in.Builtins().Bool {
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "branch condition has type %s, want bool", in.Name(cond.Type))
	}
	undef := in.Builtins().Undefined
	typ := a.Type
	switch {
	case a.Type == b.Type:
	case a.Type == undef:
		typ = b.Type
	case b.Type == undef:
	default:
		return nil, diag.Errorf(diag.StgTypeMismatch, span,
			"branches yield %s and %s", in.Name(a.Type), in.Name(b.Type))
	}
	return &Phi{Cond: cond, A: a, B: b, typ: typ}, nil
}

func (o *Phi) Name() string       { return "phi" }
func (o *Phi) Inputs() []*Sym     { return []*Sym{o.Cond, o.A, o.B} }
func (o *Phi) Type() types.TypeID { return o.typ }
func (o *Phi) mergesBranches()    {}

// Mux is the eager select: both operands are computed, then one is
// picked.
type Mux struct {
	Cond *Sym
	A, B *Sym
	typ  types.TypeID
}

func NewMux(in *types.Interner, cond, a, b *Sym, span source.Span) (*Mux, error) {
	p, err := NewPhi(in, cond, a, b, span)
	if err != nil {
		return nil, err
	}
	return &Mux{Cond: p.Cond, A: p.A, B: p.B, typ: p.typ}, nil
}

func (o *Mux) Name() string       { return "mux" }
func (o *Mux) Inputs() []*Sym     { return []*Sym{o.Cond, o.A, o.B} }
func (o *Mux) Type() types.TypeID { return o.typ }
func (o *Mux) mergesBranches()    {}

// Undefined stands for a variable that has no value on some path.
type Undefined struct {
	Var string
	typ types.TypeID
}

func NewUndefined(name string, typ types.TypeID) *Undefined {
	return &Undefined{Var: name, typ: typ}
}

func (o *Undefined) Name() string       { return "undefined" }
func (o *Undefined) Inputs() []*Sym     { return nil }
func (o *Undefined) Type() types.TypeID { return o.typ }

// Loop is a staged while loop. Binds are the loop-carried parameters,
// initialised from Initial; Body yields a Record of the written
// variables, which is also the Loop's result.
type Loop struct {
	Initial []*Sym
	Binds   []*Sym
	Cond    *Block
	Body    *Block
	typ     types.TypeID
}

// NewLoop checks that every carried variable keeps its type across an
// iteration.
func NewLoop(in *types.Interner, initial, binds []*Sym, cond, body *Block, span source.Span) (*Loop, error) {
	if len(initial) != len(binds) {
		return nil, diag.Errorf(diag.StgArity, span, "loop has %d binds and %d initial values", len(binds), len(initial))
	}
	if cond.Result == nil || cond.Result.Type != in.Builtins().Bool {
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "loop condition is not bool")
	}
	rec, ok := in.RecordInfo(body.Result.Type)
	if !ok {
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "loop body must yield a record")
	}
	for i, b := range binds {
		if initial[i].Type != b.Type {
			return nil, diag.Errorf(diag.StgTypeMismatch, span,
				"loop variable %s starts as %s, bound as %s", b.Def.Name, in.Name(initial[i].Type), in.Name(b.Type))
		}
		idx := rec.Index(b.Def.Name)
		if idx < 0 {
			continue
		}
		if got := rec.Fields[idx].Type; got != b.Type {
			return nil, diag.Errorf(diag.StgTypeMismatch, span,
				"loop variable %s changes type from %s to %s", b.Def.Name, in.Name(b.Type), in.Name(got))
		}
	}
	return &Loop{Initial: initial, Binds: binds, Cond: cond, Body: body, typ: body.Result.Type}, nil
}

func (o *Loop) Name() string       { return "loop" }
func (o *Loop) Type() types.TypeID { return o.typ }
func (o *Loop) Params() []*Sym     { return o.Binds }
func (o *Loop) Inputs() []*Sym {
	out := unionInputs(o.Cond, o.Body)
	for _, s := range o.Initial {
		if _, ok := s.ID(); ok {
			out = appendUnique(out, s)
		}
	}
	return out
}
func (o *Loop) Blocks() []NamedBlock {
	return []NamedBlock{{"cond", o.Cond}, {"body", o.Body}}
}

// Record packs named values.
type Record struct {
	Names  []string
	Values []*Sym
	typ    types.TypeID
}

func NewRecord(in *types.Interner, names []string, values []*Sym) *Record {
	fields := make([]types.Field, len(names))
	for i, n := range names {
		fields[i] = types.Field{Name: n, Type: values[i].Type}
	}
	return &Record{Names: names, Values: values, typ: in.Record(fields)}
}

func (o *Record) Name() string       { return "record" }
func (o *Record) Inputs() []*Sym     { return o.Values }
func (o *Record) Type() types.TypeID { return o.typ }

// Field projects one member out of a record value.
type Field struct {
	Rec   *Sym
	Field string
	Index int
	typ   types.TypeID
}

func NewField(in *types.Interner, rec *Sym, name string, span source.Span) (*Field, error) {
	info, ok := in.RecordInfo(rec.Type)
	if !ok {
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "%s is not a record", in.Name(rec.Type))
	}
	idx := info.Index(name)
	if idx < 0 {
		return nil, diag.Errorf(diag.StgUndefined, span, "record %s has no field %s", in.Name(rec.Type), name)
	}
	return &Field{Rec: rec, Field: name, Index: idx, typ: info.Fields[idx].Type}, nil
}

func (o *Field) Name() string       { return "field." + o.Field }
func (o *Field) Inputs() []*Sym     { return []*Sym{o.Rec} }
func (o *Field) Type() types.TypeID { return o.typ }

func unionInputs(blocks ...*Block) []*Sym {
	var out []*Sym
	for _, b := range blocks {
		for _, s := range b.Inputs {
			out = appendUnique(out, s)
		}
	}
	return out
}

func appendUnique(out []*Sym, s *Sym) []*Sym {
	for _, o := range out {
		if o.Same(s) {
			return out
		}
	}
	return append(out, s)
}
