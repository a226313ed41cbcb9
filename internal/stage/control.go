package stage

import (
	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/state"
	"argon/internal/types"
)

// If stages a conditional statement. names are the variables either
// branch may write; each one is rebound to a Phi after the IfThenElse
// node. A name one branch leaves unbound gets an Undefined staged in that
// branch's block. els may be nil.
func If(fr *Frame, span source.Span, names []string, cond func() (*ir.Sym, error), then, els func() error) error {
	st := fr.st
	in := st.Types()

	condBlk, err := captureCond(st, span, cond)
	if err != nil {
		return err
	}
	c := condBlk.Result

	pre := fr.snapshot()
	var thenVals, elseVals []*ir.Sym
	thenBlk, err := st.Capture(func() (*ir.Sym, error) {
		if err := then(); err != nil {
			return nil, err
		}
		thenVals = settle(fr, names, nil, span)
		return ir.Null(in), nil
	})
	if err != nil {
		return err
	}
	fr.restore(pre)

	elseBlk, err := st.Capture(func() (*ir.Sym, error) {
		if els != nil {
			if err := els(); err != nil {
				return nil, err
			}
		}
		elseVals = settle(fr, names, thenVals, span)
		return ir.Null(in), nil
	})
	if err != nil {
		return err
	}
	fr.restore(pre)

	st.Stage(ir.NewIfThenElse(in, condBlk, thenBlk, elseBlk), span)

	for i, name := range names {
		phi, err := ir.NewPhi(in, c, thenVals[i], elseVals[i], span)
		if err != nil {
			return diag.Errorf(diag.StgTypeMismatch, span, "variable %s: %s", name, err)
		}
		fr.Set(name, st.Stage(phi, span))
	}
	return nil
}

// settle returns the current value of each name, staging an Undefined in
// the current scope for names without one. The Undefined takes the type of
// the matching other value when there is one.
func settle(fr *Frame, names []string, other []*ir.Sym, span source.Span) []*ir.Sym {
	out := make([]*ir.Sym, len(names))
	for i, name := range names {
		if v, ok := fr.Lookup(name); ok {
			out[i] = v
			continue
		}
		typ := types.NoTypeID
		if other != nil {
			typ = other[i].Type
		}
		out[i] = undefined(fr.st, name, typ, span)
	}
	return out
}

// IfExpr stages a conditional expression: both branch blocks yield their
// value and the result is one Phi.
func IfExpr(fr *Frame, span source.Span, cond, then, els func() (*ir.Sym, error)) (*ir.Sym, error) {
	st := fr.st
	in := st.Types()

	condBlk, err := captureCond(st, span, cond)
	if err != nil {
		return nil, err
	}
	thenBlk, err := st.Capture(then)
	if err != nil {
		return nil, err
	}
	elseBlk, err := st.Capture(els)
	if err != nil {
		return nil, err
	}
	phi, err := ir.NewPhi(in, condBlk.Result, thenBlk.Result, elseBlk.Result, span)
	if err != nil {
		return nil, err
	}
	st.Stage(ir.NewIfThenElse(in, condBlk, thenBlk, elseBlk), span)
	return st.Stage(phi, span), nil
}

// Select stages the eager two-way select of already computed values.
func Select(fr *Frame, span source.Span, c, a, b *ir.Sym) (*ir.Sym, error) {
	mux, err := ir.NewMux(fr.st.Types(), c, a, b, span)
	if err != nil {
		return nil, err
	}
	return fr.st.Stage(mux, span), nil
}

// While stages a loop. binds are the candidate loop-carried variables;
// those without a value before the loop are dropped. writes are the
// variables the body may assign, in output order. The body runs once.
func While(fr *Frame, span source.Span, binds, writes []string, cond func() (*ir.Sym, error), body func() error) error {
	st := fr.st
	in := st.Types()

	var initial, params []*ir.Sym
	for _, name := range binds {
		init, ok := fr.Lookup(name)
		if !ok {
			continue
		}
		p := st.Bound(name, init.Type, span)
		initial = append(initial, init)
		params = append(params, p)
		fr.Set(name, p)
	}

	condBlk, err := captureCond(st, span, cond)
	if err != nil {
		return err
	}

	var outNames []string
	bodyBlk, err := st.Capture(func() (*ir.Sym, error) {
		if err := body(); err != nil {
			return nil, err
		}
		var values []*ir.Sym
		for _, name := range writes {
			v, ok := fr.Lookup(name)
			if !ok {
				continue
			}
			outNames = append(outNames, name)
			values = append(values, v)
		}
		return st.Stage(ir.NewRecord(in, outNames, values), span), nil
	})
	if err != nil {
		return err
	}

	loop, err := ir.NewLoop(in, initial, params, condBlk, bodyBlk, span)
	if err != nil {
		return err
	}
	out := st.Stage(loop, span)
	for _, name := range outNames {
		field, err := ir.NewField(in, out, name, span)
		if err != nil {
			return err
		}
		fr.Set(name, st.Stage(field, span))
	}
	return nil
}

func captureCond(st *state.State, span source.Span, cond func() (*ir.Sym, error)) (*ir.Block, error) {
	blk, err := st.Capture(cond)
	if err != nil {
		return nil, err
	}
	if blk.Result == nil || blk.Result.Type != st.Types().Builtins().Bool {
		got := "nothing"
		if blk.Result != nil {
			got = st.Types().Name(blk.Result.Type)
		}
		return nil, diag.Errorf(diag.StgTypeMismatch, span, "condition has type %s, want bool", got)
	}
	return blk, nil
}

func undefined(st *state.State, name string, typ types.TypeID, span source.Span) *ir.Sym {
	if typ == types.NoTypeID {
		typ = st.Types().Builtins().Undefined
	}
	return st.Stage(ir.NewUndefined(name, typ), span)
}
