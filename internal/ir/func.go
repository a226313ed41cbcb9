package ir

import (
	"argon/internal/diag"
	"argon/internal/source"
	"argon/internal/types"
)

// FunctionNew defines a staged function. Bound holds the parameter symbols the
// body was staged against.
type FunctionNew struct {
	Func  string
	Bound []*Sym
	Body  *Block
	typ   types.TypeID
}

func NewFunction(in *types.Interner, name string, params []*Sym, body *Block) *FunctionNew {
	pt := make([]types.TypeID, len(params))
	for i, p := range params {
		pt[i] = p.Type
	}
	return &FunctionNew{Func: name, Bound: params, Body: body, typ: in.Func(pt, body.Result.Type)}
}

func (o *FunctionNew) Name() string       { return "function" }
func (o *FunctionNew) Inputs() []*Sym     { return o.Body.Inputs }
func (o *FunctionNew) Type() types.TypeID { return o.typ }
func (o *FunctionNew) Params() []*Sym     { return o.Bound }
func (o *FunctionNew) Blocks() []NamedBlock {
	return []NamedBlock{{"body", o.Body}}
}

// FunctionCall applies a staged function.
type FunctionCall struct {
	Fn   *Sym
	Args []*Sym
	typ  types.TypeID
}

func NewCall(in *types.Interner, fn *Sym, args []*Sym, span source.Span) (*FunctionCall, error) {
	info, ok := in.FuncInfo(fn.Type)
	if !ok {
		return nil, diag.Errorf(diag.StgNotCallable, span, "%s is not a function", in.Name(fn.Type))
	}
	if len(info.Params) != len(args) {
		return nil, diag.Errorf(diag.StgArity, span, "call passes %d arguments, want %d", len(args), len(info.Params))
	}
	for i, a := range args {
		if a.Type != info.Params[i] {
			return nil, diag.Errorf(diag.StgTypeMismatch, span,
				"argument %d has type %s, want %s", i+1, in.Name(a.Type), in.Name(info.Params[i]))
		}
	}
	return &FunctionCall{Fn: fn, Args: args, typ: info.Result}, nil
}

func (o *FunctionCall) Name() string       { return "call" }
func (o *FunctionCall) Type() types.TypeID { return o.typ }
func (o *FunctionCall) Inputs() []*Sym {
	return append([]*Sym{o.Fn}, o.Args...)
}
