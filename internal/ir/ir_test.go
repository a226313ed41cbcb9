package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/diag"
	"argon/internal/source"
	"argon/internal/types"
)

type graphBuilder struct {
	in   *types.Interner
	next ID
}

func newBuilder() *graphBuilder {
	return &graphBuilder{in: types.NewInterner()}
}

func (g *graphBuilder) bound(name string, typ types.TypeID) *Sym {
	g.next++
	s := NewSym(g.in, typ, source.NoSpan)
	s.Assign(NewBoundDef(g.next, name))
	return s
}

func (g *graphBuilder) node(op Op) *Sym {
	g.next++
	s := NewSym(g.in, op.Type(), source.NoSpan)
	s.Assign(NewNodeDef(g.next, op))
	return s
}

func (g *graphBuilder) add(t *testing.T, x, y *Sym) *Sym {
	t.Helper()
	op, err := NewBinary(g.in, BinAdd, x, y, source.NoSpan)
	require.NoError(t, err)
	return g.node(op)
}

func TestNewBlock_InputsExcludeLocalsAndConsts(t *testing.T) {
	g := newBuilder()
	intT := g.in.Builtins().Int
	x := g.bound("x", intT)
	y := g.bound("y", intT)

	a := g.add(t, x, ConstInt(g.in, 1, source.NoSpan))
	b := g.add(t, a, y)
	c := g.add(t, b, x)

	blk := NewBlock([]*Sym{a, b, c}, c)
	require.Len(t, blk.Inputs, 2)
	assert.True(t, blk.Inputs[0].Same(x))
	assert.True(t, blk.Inputs[1].Same(y))
}

func TestNewBlock_OuterResultIsAnInput(t *testing.T) {
	g := newBuilder()
	x := g.bound("x", g.in.Builtins().Int)

	blk := NewBlock(nil, x)
	require.Len(t, blk.Inputs, 1)
	assert.True(t, blk.Inputs[0].Same(x))

	blk = NewBlock(nil, ConstInt(g.in, 3, source.NoSpan))
	assert.Empty(t, blk.Inputs)
}

func TestNewBlock_SkipsMergeOperands(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	x := g.bound("x", b.Int)
	cond := g.bound("c", b.Bool)
	thenV := g.add(t, x, x)

	phiOp, err := NewPhi(g.in, cond, thenV, x, source.NoSpan)
	require.NoError(t, err)
	phi := g.node(phiOp)

	blk := NewBlock([]*Sym{phi}, phi)
	assert.Empty(t, blk.Inputs)
}

func TestNewPhi_UndefinedTakesOtherType(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	cond := g.bound("c", b.Bool)
	i := g.bound("i", b.Int)
	f := g.bound("f", b.Float)
	undef := g.node(NewUndefined("y", b.Undefined))
	typedUndef := g.node(NewUndefined("y", b.Int))

	tests := []struct {
		name string
		a, b *Sym
		want types.TypeID
		err  bool
	}{
		{"same", i, i, b.Int, false},
		{"undefined then", undef, f, b.Float, false},
		{"undefined else", i, undef, b.Int, false},
		{"typed undefined", i, typedUndef, b.Int, false},
		{"both undefined", undef, undef, b.Undefined, false},
		{"mismatch", i, f, types.NoTypeID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phi, err := NewPhi(g.in, cond, tt.a, tt.b, source.NoSpan)
			if tt.err {
				assert.ErrorIs(t, err, &diag.Error{Code: diag.StgTypeMismatch})
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, phi.Type())
		})
	}
}

func TestNewBinary_Typing(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	i := ConstInt(in, 1, source.NoSpan)
	f := ConstFloat(in, 1.5, source.NoSpan)
	tr := ConstBool(in, true, source.NoSpan)

	tests := []struct {
		name string
		kind BinaryKind
		x, y *Sym
		want types.TypeID
		err  bool
	}{
		{"int add", BinAdd, i, i, b.Int, false},
		{"float mul", BinMul, f, f, b.Float, false},
		{"mixed add", BinAdd, i, f, 0, true},
		{"compare", BinLt, i, i, b.Bool, false},
		{"bool eq", BinEq, tr, tr, b.Bool, false},
		{"bool add", BinAdd, tr, tr, 0, true},
		{"float rem", BinRem, f, f, 0, true},
		{"logic", BinAnd, tr, tr, b.Bool, false},
		{"int and", BinAnd, i, i, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewBinary(in, tt.kind, tt.x, tt.y, source.NoSpan)
			if tt.err {
				require.Error(t, err)
				assert.ErrorIs(t, err, diag.ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, op.Type())
		})
	}
}

func TestNewCall_Checks(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	p := g.bound("n", b.Int)
	body := NewBlock([]*Sym{p}, p)
	fn := g.node(NewFunction(g.in, "id", []*Sym{p}, body))

	_, err := NewCall(g.in, fn, nil, source.NoSpan)
	assert.ErrorIs(t, err, &diag.Error{Code: diag.StgArity})

	_, err = NewCall(g.in, fn, []*Sym{ConstBool(g.in, true, source.NoSpan)}, source.NoSpan)
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)

	_, err = NewCall(g.in, p, nil, source.NoSpan)
	assert.ErrorIs(t, err, &diag.Error{Code: diag.StgNotCallable})

	call, err := NewCall(g.in, fn, []*Sym{ConstInt(g.in, 4, source.NoSpan)}, source.NoSpan)
	require.NoError(t, err)
	assert.Equal(t, b.Int, call.Type())
}

func TestNewLoop_RejectsTypeChange(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	x := g.bound("x", b.Int)

	cmp, err := NewBinary(g.in, BinLt, x, ConstInt(g.in, 3, source.NoSpan), source.NoSpan)
	require.NoError(t, err)
	c := g.node(cmp)
	cond := NewBlock([]*Sym{c}, c)

	rec := g.node(NewRecord(g.in, []string{"x"}, []*Sym{ConstFloat(g.in, 1, source.NoSpan)}))
	body := NewBlock([]*Sym{rec}, rec)

	_, err = NewLoop(g.in, []*Sym{ConstInt(g.in, 0, source.NoSpan)}, []*Sym{x}, cond, body, source.NoSpan)
	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
}

func TestValidate_DetectsInvisibleOperand(t *testing.T) {
	g := newBuilder()
	x := g.bound("x", g.in.Builtins().Int)
	inner := g.add(t, x, x)
	// inner is never placed in any block, so the outer use is dangling.
	outer := g.add(t, inner, x)
	blk := NewBlock([]*Sym{x, outer}, outer)

	err := Validate(blk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not visible")
}

func TestDump(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	x := g.bound("x", b.Int)
	y := g.bound("y", b.Int)
	s := g.add(t, x, y)
	blk := NewBlock([]*Sym{s}, s)

	want := "block(%1, %2) {\n" +
		"  %3 = add %1, %2 : int\n" +
		"  yield %3\n" +
		"}\n"
	assert.Equal(t, want, DumpString(blk, g.in))
	require.NoError(t, Validate(NewBlock([]*Sym{x, y, s}, s)))
}

func TestExport_CountsNested(t *testing.T) {
	g := newBuilder()
	b := g.in.Builtins()
	p := g.bound("n", b.Int)
	sum := g.add(t, p, p)
	body := NewBlock([]*Sym{p, sum}, sum)
	fn := g.node(NewFunction(g.in, "double", []*Sym{p}, body))
	root := NewBlock([]*Sym{fn}, fn)

	graph := Export("double", root, g.in)
	assert.Equal(t, 3, graph.Count())
	require.Len(t, graph.Root.Stmts, 1)
	assert.Equal(t, "double", graph.Root.Stmts[0].Name)
	assert.Equal(t, "func(int) int", graph.Root.Stmts[0].Type)

	var sb strings.Builder
	require.NoError(t, graph.WriteText(&sb))
	assert.Equal(t, DumpString(root, g.in), sb.String())
}
