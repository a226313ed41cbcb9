package state

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/diag"
	"argon/internal/ir"
	"argon/internal/source"
	"argon/internal/trace"
)

func addOp(t *testing.T, st *State, x, y *ir.Sym) ir.Op {
	t.Helper()
	op, err := ir.NewBinary(st.Types(), ir.BinAdd, x, y, source.NoSpan)
	require.NoError(t, err)
	return op
}

func TestFrom_NoState(t *testing.T) {
	_, err := From(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrNoState)
}

func TestWith_NestedShadowsAndRestores(t *testing.T) {
	outer, inner := New(), New()
	ctx := With(context.Background(), outer)
	nested := With(ctx, inner)

	got, err := From(nested)
	require.NoError(t, err)
	assert.Same(t, inner, got)

	got, err = From(ctx)
	require.NoError(t, err)
	assert.Same(t, outer, got)
}

func TestStage_AppendsToCurrentScope(t *testing.T) {
	st := New()
	in := st.Types()
	x := st.Bound("x", in.Builtins().Int, source.NoSpan)

	sc := st.NewScope()
	child := sc.Enter()
	y := st.Stage(addOp(t, st, x, x), source.NoSpan)
	sc.Exit()
	z := st.Stage(addOp(t, st, x, y), source.NoSpan)

	assert.Same(t, st.Root(), st.Current())
	assert.Equal(t, []*ir.Sym{y}, child.Symbols())
	assert.Equal(t, []*ir.Sym{x, z}, st.Root().Symbols())
	assert.Same(t, st.Root(), child.Parent())
	assert.Equal(t, 1, child.Depth())

	ids := []ir.ID{x.Def.ID, y.Def.ID, z.Def.ID}
	assert.Equal(t, []ir.ID{1, 2, 3}, ids)
	assert.Equal(t, Stats{Nodes: 2, Bounds: 1, Scopes: 1}, st.Stats())
}

func TestEnter_RootFromNestedScope(t *testing.T) {
	st := New()
	sc := st.NewScope()
	child := sc.Enter()

	restore := st.Enter(st.Root())
	b := st.Bound("p", st.Types().Builtins().Int, source.NoSpan)
	restore()

	assert.Same(t, child, st.Current())
	assert.Equal(t, []*ir.Sym{b}, st.Root().Symbols())
	assert.Empty(t, child.Symbols())
	sc.Exit()
}

func TestCapture_BuildsBlockAndRestoresOnError(t *testing.T) {
	st := New()
	in := st.Types()
	x := st.Bound("x", in.Builtins().Int, source.NoSpan)

	blk, err := st.Capture(func() (*ir.Sym, error) {
		return st.Stage(addOp(t, st, x, ir.ConstInt(in, 2, source.NoSpan)), source.NoSpan), nil
	})
	require.NoError(t, err)
	require.Len(t, blk.Stmts, 1)
	require.Len(t, blk.Inputs, 1)
	assert.True(t, blk.Inputs[0].Same(x))
	assert.True(t, blk.Result.Same(blk.Stmts[0]))

	_, err = st.Capture(func() (*ir.Sym, error) {
		st.Stage(addOp(t, st, x, x), source.NoSpan)
		return nil, diag.ErrTypeMismatch
	})
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
	assert.Same(t, st.Root(), st.Current())
}

func TestFuncCache_DetectsRecursion(t *testing.T) {
	st := New()
	key := new(int)

	require.NoError(t, st.BeginFunc(key, "f", source.NoSpan))
	err := st.BeginFunc(key, "f", source.NoSpan)
	assert.ErrorIs(t, err, &diag.Error{Code: diag.StgRecursiveCall})

	sym := st.Bound("f", st.Types().Builtins().Int, source.NoSpan)
	st.EndFunc(key, sym)
	got, ok := st.Func(key)
	require.True(t, ok)
	assert.Same(t, sym, got)
	assert.Equal(t, 1, st.Stats().Funcs)
}

func TestStage_TracesNodes(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	st := New(WithTracer(ring))
	x := st.Bound("x", st.Types().Builtins().Int, source.NoSpan)
	st.Stage(addOp(t, st, x, x), source.NoSpan)

	events := ring.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "bound", events[0].Name)
	assert.Equal(t, "add", events[1].Name)
	assert.Equal(t, "%2 : int", events[1].Detail)
}

// Ids stay unique and increasing across arbitrary scope nesting.
func TestStage_IDsUniqueProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ids strictly increase in staging order", prop.ForAll(
		func(script []int) bool {
			st := New()
			x := st.Bound("x", st.Types().Builtins().Int, source.NoSpan)
			var open []*ScopeContext
			var staged []*ir.Sym
			for _, step := range script {
				switch step % 3 {
				case 0:
					sc := st.NewScope()
					sc.Enter()
					open = append(open, sc)
				case 1:
					if n := len(open); n > 0 {
						open[n-1].Exit()
						open = open[:n-1]
					}
				default:
					op, err := ir.NewBinary(st.Types(), ir.BinAdd, x, x, source.NoSpan)
					if err != nil {
						return false
					}
					staged = append(staged, st.Stage(op, source.NoSpan))
				}
			}
			last := x.Def.ID
			for _, s := range staged {
				if s.Def.ID <= last {
					return false
				}
				last = s.Def.ID
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 8)),
	))

	properties.TestingRun(t)
}
