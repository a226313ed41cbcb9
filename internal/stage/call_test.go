package stage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/state"
)

func doubleFunc() *Func {
	return &Func{
		Name:   "double",
		Params: []Param{{Name: "n", Type: "int"}},
		Result: "int",
		Body: func(fr *Frame) (*ir.Sym, error) {
			n, err := fr.Get("n", source.NoSpan)
			if err != nil {
				return nil, err
			}
			return binary(fr, ir.BinAdd, n, n)
		},
	}
}

func TestCall_StagesFunctionOnce(t *testing.T) {
	fr, st := newFrame(t, Funcs{"double": doubleFunc()})

	sc := st.NewScope()
	sc.Enter()
	first, err := Call(fr, source.NoSpan, "double", []*ir.Sym{intc(fr, 2)})
	require.NoError(t, err)
	second, err := Call(fr, source.NoSpan, "double", []*ir.Sym{intc(fr, 3)})
	require.NoError(t, err)
	sc.Exit()

	c1 := first.Op().(*ir.FunctionCall)
	c2 := second.Op().(*ir.FunctionCall)
	assert.True(t, c1.Fn.Same(c2.Fn), "both calls share one definition")

	rootSyms := st.Root().Symbols()
	require.Len(t, rootSyms, 1, "the definition lives in the root scope")
	fn := rootSyms[0].Op().(*ir.FunctionNew)
	assert.Equal(t, "double", fn.Func)
	require.Len(t, fn.Params(), 1)
	assert.Equal(t, "n", fn.Params()[0].Def.Name)
	assert.Equal(t, "func(int) int", st.Types().Name(rootSyms[0].Type))
	assert.Len(t, sc.Scope().Symbols(), 2)
	assert.Equal(t, 1, st.Stats().Funcs)
}

func TestCall_Errors(t *testing.T) {
	recursive := &Func{Name: "loop", Result: "int"}
	recursive.Body = func(fr *Frame) (*ir.Sym, error) {
		return Call(fr, source.NoSpan, "loop", nil)
	}
	noReturn := &Func{Name: "nothing", Result: "int", Body: func(*Frame) (*ir.Sym, error) { return nil, nil }}
	badType := &Func{Name: "bad", Params: []Param{{Name: "s", Type: "string"}}}
	wrongResult := &Func{Name: "wrong", Result: "bool", Body: func(fr *Frame) (*ir.Sym, error) {
		return intc(fr, 1), nil
	}}

	funcs := Funcs{"loop": recursive, "nothing": noReturn, "bad": badType, "wrong": wrongResult, "double": doubleFunc()}
	tests := []struct {
		name string
		call string
		args func(fr *Frame) []*ir.Sym
		code diag.Code
	}{
		{"recursive", "loop", nil, diag.StgRecursiveCall},
		{"missing return", "nothing", nil, diag.StgMissingReturn},
		{"unknown param type", "bad", nil, diag.RwUnknownType},
		{"wrong result", "wrong", nil, diag.StgTypeMismatch},
		{"unknown callee", "nope", nil, diag.RwUnknownFunc},
		{"arity", "double", nil, diag.StgArity},
		{"arg type", "double", func(fr *Frame) []*ir.Sym {
			return []*ir.Sym{ir.ConstBool(fr.State().Types(), true, source.NoSpan)}
		}, diag.StgTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, _ := newFrame(t, funcs)
			var args []*ir.Sym
			if tt.args != nil {
				args = tt.args(fr)
			}
			_, err := Call(fr, source.NoSpan, tt.call, args)
			require.Error(t, err)
			de, ok := diag.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestCall_WhitelistRunsEagerly(t *testing.T) {
	var out bytes.Buffer
	st := state.New()
	fr, err := NewFrame(state.With(context.Background(), st), nil, DefaultWhitelist(&out))
	require.NoError(t, err)

	x := st.Bound("x", st.Types().Builtins().Int, source.NoSpan)
	res, err := Call(fr, source.NoSpan, "println", []*ir.Sym{x, intc(fr, 4)})
	require.NoError(t, err)

	assert.Equal(t, "%1 4\n", out.String())
	assert.True(t, res.IsConst())
	assert.Equal(t, 1, st.Root().Len(), "nothing is staged for a host call")
	assert.True(t, fr.Whitelist().Contains("print"))
}
