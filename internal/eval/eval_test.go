package eval

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/stage"
	"argon/internal/state"
	"argon/internal/virt"
)

type staged struct {
	st *state.State
	fn *ir.Sym
}

func stageSource(t *testing.T, src, name string) staged {
	t.Helper()
	mod, err := virt.ParseSource(source.NewFileSet(), "t.go", []byte("package p\n\n"+src), virt.Options{})
	require.NoError(t, err)
	st := state.New()
	fr, err := stage.NewFrame(state.With(context.Background(), st), mod, stage.DefaultWhitelist(io.Discard))
	require.NoError(t, err)
	fn, err := stage.Define(fr, mod.Funcs[name])
	require.NoError(t, err)
	return staged{st: st, fn: fn}
}

func (s staged) call(t *testing.T, args ...Value) (Value, error) {
	t.Helper()
	return New(s.st.Types(), io.Discard).Call(s.fn, args)
}

// if cond { x = a } else { x = b } with a literal condition.
func TestEval_IfElseRoundTrip(t *testing.T) {
	for _, cond := range []bool{true, false} {
		st := state.New()
		fr, err := stage.NewFrame(state.With(context.Background(), st), nil, nil)
		require.NoError(t, err)
		in := st.Types()
		a := ir.ConstInt(in, 10, source.NoSpan)
		b := ir.ConstInt(in, 20, source.NoSpan)

		err = stage.If(fr, source.NoSpan, []string{"x"},
			func() (*ir.Sym, error) { return ir.ConstBool(in, cond, source.NoSpan), nil },
			func() error { fr.Set("x", a); return nil },
			func() error { fr.Set("x", b); return nil },
		)
		require.NoError(t, err)
		x, _ := fr.Lookup("x")

		got, err := New(in, io.Discard).Run(st.Root().Block(x))
		require.NoError(t, err)
		want := int64(20)
		if cond {
			want = 10
		}
		assert.Equal(t, MakeInt(want), got)
	}
}

func TestEval_IfExprProperty(t *testing.T) {
	s := stageSource(t, `
func pick(c bool, a int, b int) int {
	return ifelse(c, a+b, a-b)
}`, "pick")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	properties.Property("ifelse selects the live branch", prop.ForAll(
		func(c bool, a, b int32) bool {
			got, err := s.call(t, MakeBool(c), MakeInt(int64(a)), MakeInt(int64(b)))
			if err != nil {
				return false
			}
			want := int64(a) - int64(b)
			if c {
				want = int64(a) + int64(b)
			}
			return got.Int == want
		},
		gen.Bool(), gen.Int32(), gen.Int32(),
	))
	properties.TestingRun(t)
}

func TestEval_Programs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		args []Value
		want Value
	}{
		{"sum", `
func sum(n int) int {
	s := 0
	for i := 1; i <= n; i++ {
		s += i
	}
	return s
}`, "sum", []Value{MakeInt(10)}, MakeInt(55)},
		{"zero trip keeps value", `
func f(n int) int {
	x := 7
	for n > 100 {
		x = 1
	}
	return x
}`, "f", []Value{MakeInt(3)}, MakeInt(7)},
		{"abs", `
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}`, "abs", []Value{MakeInt(-4)}, MakeInt(4)},
		{"nested", `
func collatz(n int) int {
	steps := 0
	for n != 1 {
		if n%2 == 0 {
			n = n / 2
		} else {
			n = 3*n + 1
		}
		steps++
	}
	return steps
}`, "collatz", []Value{MakeInt(6)}, MakeInt(8)},
		{"calls", `
func sq(x float64) float64 { return x * x }
func hyp(a float64, b float64) float64 { return sq(a) + sq(b) }`, "hyp", []Value{MakeFloat(3), MakeFloat(4)}, MakeFloat(25)},
		{"else if chain", `
func sign(x int) int {
	if x > 0 {
		return 1
	} else if x < 0 {
		return -1
	}
	return 0
}`, "sign", []Value{MakeInt(-9)}, MakeInt(-1)},
		{"mux", `
func m(c bool) int { return mux(c, 1, 2) }`, "m", []Value{MakeBool(false)}, MakeInt(2)},
		{"convert", `
func avg(a int, b int) float64 { return float64(a+b) / 2 }`, "avg", []Value{MakeInt(3), MakeInt(4)}, MakeFloat(3.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stageSource(t, tt.src, tt.fn).call(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_UndefinedOnlyWhenDemanded(t *testing.T) {
	// if c { y = 1 }; return y, with y bound on the then path only.
	f := &stage.Func{
		Name:   "f",
		Params: []stage.Param{{Name: "c", Type: "bool"}},
		Result: "int",
		Body: func(fr *stage.Frame) (*ir.Sym, error) {
			err := stage.If(fr, source.NoSpan, []string{"y"},
				func() (*ir.Sym, error) { return fr.Get("c", source.NoSpan) },
				func() error {
					fr.Set("y", ir.ConstInt(fr.State().Types(), 1, source.NoSpan))
					return nil
				},
				nil,
			)
			if err != nil {
				return nil, err
			}
			return fr.Get("y", source.NoSpan)
		},
	}
	st := state.New()
	fr, err := stage.NewFrame(state.With(context.Background(), st), nil, nil)
	require.NoError(t, err)
	fn, err := stage.Define(fr, f)
	require.NoError(t, err)
	s := staged{st: st, fn: fn}

	got, err := s.call(t, MakeBool(true))
	require.NoError(t, err)
	assert.Equal(t, MakeInt(1), got)

	_, err = s.call(t, MakeBool(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrUndefined)
	assert.Contains(t, err.Error(), "undefined variable y")
}

func TestEval_ShadowedVariable(t *testing.T) {
	s := stageSource(t, `
func sh(c bool) int {
	x := 1
	if c {
		x := 2
		emit(x)
	}
	return x
}`, "sh")

	for _, c := range []bool{true, false} {
		var out bytes.Buffer
		got, err := New(s.st.Types(), &out).Call(s.fn, []Value{MakeBool(c)})
		require.NoError(t, err)
		assert.Equal(t, MakeInt(1), got, "c=%v", c)
		if c {
			assert.Equal(t, "2\n", out.String())
		} else {
			assert.Empty(t, out.String())
		}
	}
}

func TestEval_Constants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		args []Value
		want Value
	}{
		{"folded conversion", `
func fc(a float64) float64 { return a + float64(1+2) }`, "fc", []Value{MakeFloat(0.5)}, MakeFloat(3.5)},
		{"typed by declaration", `
func fv() float64 {
	var f float64 = 2 * 3
	return f / 4
}`, "fv", nil, MakeFloat(1.5)},
		{"typed by operand", `
func fo(a float64) float64 { return a * (1 + 1) }`, "fo", []Value{MakeFloat(1.25)}, MakeFloat(2.5)},
		{"typed by assignment", `
func fa(a float64) float64 {
	x := a
	x = 7 / 2
	return x
}`, "fa", []Value{MakeFloat(1)}, MakeFloat(3)},
		{"typed by parameter", `
func half(x float64) float64 { return x / 2 }
func g() float64 { return half(5) }`, "g", nil, MakeFloat(2.5)},
		{"float constant as int", `
func fi(n int) int { return n * 2.0 }`, "fi", []Value{MakeInt(4)}, MakeInt(8)},
		{"most negative int", `
func mn() int { return -9223372036854775808 }`, "mn", nil, MakeInt(-9223372036854775808)},
		{"negative hex", `
func mh() int { return -0x10 }`, "mh", nil, MakeInt(-16)},
		{"constant comparison", `
func cc(n int) int { return ifelse(1 < 2.5, n, 0) }`, "cc", []Value{MakeInt(7)}, MakeInt(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stageSource(t, tt.src, tt.fn).call(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_ConstantErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"truncated", "func f(n int) int { return n * 2.5 }", diag.StgTypeMismatch},
		{"overflow", "func f() int { return 9223372036854775808 }", diag.StgTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := virt.ParseSource(source.NewFileSet(), "t.go", []byte("package p\n\n"+tt.src), virt.Options{})
			require.NoError(t, err)
			st := state.New()
			fr, err := stage.NewFrame(state.With(context.Background(), st), mod, nil)
			require.NoError(t, err)
			_, err = stage.Define(fr, mod.Funcs["f"])
			assert.ErrorIs(t, err, &diag.Error{Code: tt.code})
		})
	}
}

func TestEval_RuntimeErrors(t *testing.T) {
	div := stageSource(t, "func d(a int, b int) int { return a / b }", "d")
	_, err := div.call(t, MakeInt(1), MakeInt(0))
	assert.ErrorIs(t, err, &diag.Error{Code: diag.EvalDivZero})

	add := stageSource(t, "func d(a int) int { return a + 1 }", "d")
	_, err = add.call(t, MakeInt(41))
	require.NoError(t, err)
	_, err = add.call(t, MakeInt(9223372036854775807))
	assert.ErrorIs(t, err, &diag.Error{Code: diag.EvalOverflow})

	spin := stageSource(t, "func s(n int) int { for n > 0 { n = n + 1 }; return n }", "s")
	m := New(spin.st.Types(), io.Discard)
	m.MaxSteps = 100
	_, err = m.Call(spin.fn, []Value{MakeInt(1)})
	assert.ErrorIs(t, err, &diag.Error{Code: diag.EvalStepLimit})
}

func TestEval_EmitPrintsWhenLowered(t *testing.T) {
	s := stageSource(t, `
func f(n int) {
	for n > 0 {
		emit(n)
		n--
	}
}`, "f")

	var out bytes.Buffer
	got, err := New(s.st.Types(), &out).Call(s.fn, []Value{MakeInt(3)})
	require.NoError(t, err)
	assert.Equal(t, Null(), got)
	assert.Equal(t, "3\n2\n1\n", out.String())
}

func TestParseArg(t *testing.T) {
	in := state.New().Types()
	b := in.Builtins()

	v, err := ParseArg(in, b.Int, "0x10")
	require.NoError(t, err)
	assert.Equal(t, MakeInt(16), v)

	v, err = ParseArg(in, b.Float, "2.5")
	require.NoError(t, err)
	assert.Equal(t, MakeFloat(2.5), v)

	_, err = ParseArg(in, b.Bool, "maybe")
	assert.Error(t, err)
}
