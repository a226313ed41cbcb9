package stage

import (
	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/trace"
	"argon/internal/types"
)

// Param is a declared function parameter. Type is a type name the
// interner understands (int, bool, float64).
type Param struct {
	Name string
	Type string
}

// Func is a stageable function definition. Body receives a frame holding
// the parameters and returns the result value, or nil when Result is
// empty.
type Func struct {
	Name   string
	Params []Param
	Result string
	Span   source.Span
	Body   func(fr *Frame) (*ir.Sym, error)
}

// Signature resolves the declared parameter and result types.
func (f *Func) Signature(in *types.Interner) ([]types.TypeID, types.TypeID, error) {
	params := make([]types.TypeID, len(f.Params))
	for i, p := range f.Params {
		t, ok := in.ByName(p.Type)
		if !ok {
			return nil, 0, diag.Errorf(diag.RwUnknownType, f.Span, "parameter %s of %s has unknown type %s", p.Name, f.Name, p.Type)
		}
		params[i] = t
	}
	result := in.Builtins().Null
	if f.Result != "" {
		t, ok := in.ByName(f.Result)
		if !ok {
			return nil, 0, diag.Errorf(diag.RwUnknownType, f.Span, "%s has unknown result type %s", f.Name, f.Result)
		}
		result = t
	}
	return params, result, nil
}

// Define stages f into the root scope the first time it is needed and
// returns the FunctionNew symbol. Later calls reuse the cached symbol.
func Define(fr *Frame, f *Func) (*ir.Sym, error) {
	st := fr.st
	if sym, ok := st.Func(f); ok {
		return sym, nil
	}
	if err := st.BeginFunc(f, f.Name, f.Span); err != nil {
		return nil, err
	}
	var defined *ir.Sym
	defer func() { st.EndFunc(f, defined) }()

	sp := trace.Begin(st.Tracer(), trace.ScopeCapture, "define "+f.Name, 0)
	before := st.Stats().Nodes
	defer func() { sp.SetInt("nodes", st.Stats().Nodes-before).End("") }()

	in := st.Types()
	paramTypes, resultType, err := f.Signature(in)
	if err != nil {
		return nil, err
	}

	restore := st.Enter(st.Root())
	defer restore()

	callee := fr.callee()
	var params []*ir.Sym
	body, err := st.Capture(func() (*ir.Sym, error) {
		for i, p := range f.Params {
			sym := st.Bound(p.Name, paramTypes[i], f.Span)
			params = append(params, sym)
			callee.Set(p.Name, sym)
		}
		res, err := f.Body(callee)
		if err != nil {
			return nil, err
		}
		return checkResult(in, f, res, resultType)
	})
	if err != nil {
		return nil, err
	}

	defined = st.Stage(ir.NewFunction(in, f.Name, params, body), f.Span)
	return defined, nil
}

func checkResult(in *types.Interner, f *Func, res *ir.Sym, want types.TypeID) (*ir.Sym, error) {
	if f.Result == "" {
		if res != nil && res.Type != in.Builtins().Null {
			return nil, diag.Errorf(diag.StgTypeMismatch, f.Span, "%s returns a value but declares no result", f.Name)
		}
		return ir.Null(in), nil
	}
	if res == nil {
		return nil, diag.Errorf(diag.StgMissingReturn, f.Span, "%s must return %s", f.Name, f.Result)
	}
	if res.Type != want {
		return nil, diag.Errorf(diag.StgTypeMismatch, f.Span, "%s returns %s, declared %s", f.Name, in.Name(res.Type), in.Name(want))
	}
	return res, nil
}

// Call dispatches a call by name: whitelisted host functions run now,
// everything else is staged as a FunctionCall.
func Call(fr *Frame, span source.Span, name string, args []*ir.Sym) (*ir.Sym, error) {
	if host, ok := fr.wl.Lookup(name); ok {
		return host(fr, span, args)
	}
	f, ok := fr.funcs.Resolve(name)
	if !ok {
		return nil, diag.Errorf(diag.RwUnknownFunc, span, "call to unknown function %s", name)
	}
	return CallFunc(fr, span, f, args)
}

// CallFunc stages a call of a known definition.
func CallFunc(fr *Frame, span source.Span, f *Func, args []*ir.Sym) (*ir.Sym, error) {
	fn, err := Define(fr, f)
	if err != nil {
		return nil, err
	}
	call, err := ir.NewCall(fr.st.Types(), fn, args, span)
	if err != nil {
		return nil, err
	}
	return fr.st.Stage(call, span), nil
}
