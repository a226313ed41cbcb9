package source_test

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/source"
)

func TestFileSet_ResolveAcrossLines(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("prog.go", []byte("package p\n\nfunc f() {\n\tx := 1\n}\n"))

	start, end := fs.Resolve(source.Span{File: id, Start: 0, End: 7})
	assert.Equal(t, source.LineCol{Line: 1, Col: 1}, start)
	assert.Equal(t, source.LineCol{Line: 1, Col: 8}, end)

	// "x" on line 4 after a tab
	start, _ = fs.Resolve(source.Span{File: id, Start: 23, End: 24})
	assert.Equal(t, source.LineCol{Line: 4, Col: 2}, start)
	assert.Equal(t, "prog.go:4:2", fs.Position(source.Span{File: id, Start: 23, End: 24}))
}

func TestFileSet_GetLine(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("a.go", []byte("one\ntwo\nthree")))
	require.NotNil(t, f)

	assert.Equal(t, "one", f.GetLine(1))
	assert.Equal(t, "two", f.GetLine(2))
	assert.Equal(t, "three", f.GetLine(3))
	assert.Empty(t, f.GetLine(4))
	assert.Empty(t, f.GetLine(0))
}

func TestFileSet_LoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.go")
	require.NoError(t, os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600))

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	require.NoError(t, err)

	f := fs.Get(id)
	assert.Equal(t, "a\nb\n", string(f.Content))
	assert.NotZero(t, f.Flags&source.FileHadBOM)
	assert.NotZero(t, f.Flags&source.FileNormalizedCRLF)

	got, ok := fs.Lookup(path)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
}

func TestFileSet_SpanOf(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.go", []byte("package x"))
	sp := fs.SpanOf(id, 10, token.Pos(18), token.Pos(19))
	assert.Equal(t, source.Span{File: id, Start: 8, End: 9}, sp)

	// inverted ranges collapse to the start
	sp = fs.SpanOf(id, 10, token.Pos(18), token.Pos(12))
	assert.True(t, sp.Empty())
}

func TestSpan_Cover(t *testing.T) {
	a := source.Span{File: 1, Start: 10, End: 20}
	b := source.Span{File: 1, Start: 5, End: 12}
	assert.Equal(t, source.Span{File: 1, Start: 5, End: 20}, a.Cover(b))
	assert.Equal(t, a, a.Cover(source.Span{File: 2, Start: 0, End: 100}))
	assert.True(t, a.Cover(b).Contains(a))
}
