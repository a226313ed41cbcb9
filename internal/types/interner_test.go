package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/types"
)

func TestInterner_BuiltinsStableAcrossInterners(t *testing.T) {
	a, b := types.NewInterner(), types.NewInterner()
	assert.Equal(t, a.Builtins(), b.Builtins())
	assert.NotEqual(t, types.NoTypeID, a.Builtins().Null)
	assert.Equal(t, types.KindInt, a.Kind(a.Builtins().Int))
}

func TestInterner_FuncDedup(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	f1 := in.Func([]types.TypeID{bi.Int, bi.Bool}, bi.Int)
	f2 := in.Func([]types.TypeID{bi.Int, bi.Bool}, bi.Int)
	f3 := in.Func([]types.TypeID{bi.Int}, bi.Int)
	assert.Equal(t, f1, f2)
	assert.NotEqual(t, f1, f3)

	fi, ok := in.FuncInfo(f1)
	require.True(t, ok)
	assert.Equal(t, bi.Int, fi.Result)
	assert.Equal(t, "func(int, bool) int", in.Name(f1))
	assert.Equal(t, types.HostFunc, in.Host(f1))
}

func TestInterner_Record(t *testing.T) {
	in := types.NewInterner()
	bi := in.Builtins()

	r := in.Record([]types.Field{{Name: "x", Type: bi.Int}, {Name: "done", Type: bi.Bool}})
	assert.Equal(t, r, in.Record([]types.Field{{Name: "x", Type: bi.Int}, {Name: "done", Type: bi.Bool}}))
	assert.NotEqual(t, r, in.Record([]types.Field{{Name: "done", Type: bi.Bool}, {Name: "x", Type: bi.Int}}))

	ri, ok := in.RecordInfo(r)
	require.True(t, ok)
	assert.Equal(t, 1, ri.Index("done"))
	assert.Equal(t, -1, ri.Index("y"))
	assert.Equal(t, "{x: int, done: bool}", in.Name(r))

	_, ok = in.RecordInfo(bi.Int)
	assert.False(t, ok)
}

func TestInterner_ByNameAndHost(t *testing.T) {
	in := types.NewInterner()
	for name, host := range map[string]types.Host{
		"int":     types.HostInt,
		"bool":    types.HostBool,
		"float64": types.HostFloat,
	} {
		id, ok := in.ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, host, in.Host(id), name)
	}
	_, ok := in.ByName("string")
	assert.False(t, ok)
	assert.Equal(t, "<invalid>", in.Name(types.NoTypeID))
}
