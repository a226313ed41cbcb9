package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/ir"
)

const sumSrc = `package p

func sum(n int) int {
	s := 0
	i := 1
	for i <= n {
		s = s + i
		i++
	}
	return s
}

func countdown(n int) int {
	for n > 0 {
		emit(n)
		n--
	}
	return n
}
`

type project struct {
	t   *testing.T
	dir string
	cfg string
}

func newProject(t *testing.T, manifest string) *project {
	t.Helper()
	dir := t.TempDir()
	p := &project{t: t, dir: dir, cfg: filepath.Join(dir, "argon.toml")}
	require.NoError(t, os.WriteFile(p.cfg, []byte(manifest), 0o600))
	return p
}

func (p *project) file(name, body string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, "src", name)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (p *project) run(args ...string) (int, string, string) {
	p.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{args[0], "--config", p.cfg, "--color", "off"}, args[1:]...)
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestStage_Text(t *testing.T) {
	p := newProject(t, "")
	path := p.file("sum.go", sumSrc)

	code, out, errOut := p.run("stage", "--entry", "sum", path)
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "block() {\n"))
	assert.Contains(t, out, "= function @sum : func(int) int")
	assert.Contains(t, out, "= loop : {")
	assert.NotContains(t, out, "@countdown")
}

func TestStage_JSONDirectory(t *testing.T) {
	p := newProject(t, "")
	p.file("a.go", sumSrc)
	p.file("b.go", "package p\n\nfunc id(x int) int { return x }\n")

	code, out, errOut := p.run("stage", "--format", "json", "--ui", "off", filepath.Join(p.dir, "src"))
	require.Equal(t, 0, code, errOut)

	var graphs []ir.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &graphs))
	require.Len(t, graphs, 2)
	assert.True(t, strings.HasSuffix(graphs[0].Name, "a.go"))
	assert.Len(t, graphs[0].Root.Stmts, 2)
}

func TestStage_CacheReplaysText(t *testing.T) {
	p := newProject(t, "[cache]\nenabled = true\ndir = \"cache\"\n")
	path := p.file("sum.go", sumSrc)

	code, first, errOut := p.run("stage", path)
	require.Equal(t, 0, code, errOut)
	entries, err := os.ReadDir(filepath.Join(p.dir, "cache", "graphs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	code, second, errOut := p.run("stage", path)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, first, second)
}

func TestCheck_ReportsFailures(t *testing.T) {
	p := newProject(t, "")
	p.file("ok.go", sumSrc)
	p.file("bad.go", "package p\n\nfunc f(n int) int {\n\tfor n > 0 {\n\t\tbreak\n\t}\n\treturn n\n}\n")

	code, out, errOut := p.run("check", filepath.Join(p.dir, "src"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "bad.go:5:3: error[RW2001]")
	assert.Contains(t, errOut, "checked 2 files, 1 failed")
}

func TestCheck_Sarif(t *testing.T) {
	p := newProject(t, "")
	path := p.file("bad.go", "package p\n\nfunc f() { for {} }\n")

	code, out, _ := p.run("check", "--format", "sarif", path)
	assert.Equal(t, 1, code)
	var log map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	assert.Equal(t, "2.1.0", log["version"])
}

func TestRun_Evaluates(t *testing.T) {
	p := newProject(t, "[stage]\nentry = \"sum\"\n")
	path := p.file("sum.go", sumSrc)

	code, out, errOut := p.run("run", path, "10")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "55\n", out)

	code, out, errOut = p.run("run", "--entry", "countdown", path, "3")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "3\n2\n1\n0\n", out)
}

func TestRun_Errors(t *testing.T) {
	p := newProject(t, "[stage]\nmax_steps = 5\n")
	path := p.file("sum.go", sumSrc)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no entry", []string{"run", path}, "missing [stage].entry"},
		{"arity", []string{"run", "--entry", "sum", path}, "takes 1 arguments, got 0"},
		{"bad arg", []string{"run", "--entry", "sum", path, "ten"}, "argument 1"},
		{"step limit", []string{"run", "--entry", "sum", path, "100"}, "error[EV3005]"},
		{"unknown entry", []string{"run", "--entry", "nope", path}, "error[RW2005]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := p.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestTimings(t *testing.T) {
	p := newProject(t, "")
	path := p.file("sum.go", sumSrc)
	code, _, errOut := p.run("stage", "--timings", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "timings:")
	assert.Contains(t, errOut, "rewrite")
}

func TestVersion_JSON(t *testing.T) {
	p := newProject(t, "")
	code, out, _ := p.run("version", "--format", "json")
	require.Equal(t, 0, code)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
}

func TestBadConfig(t *testing.T) {
	p := newProject(t, "[output]\nformat = \"xml\"\n")
	code, _, errOut := p.run("version")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "[output].format")
}

func TestCheck_ExamplePrograms(t *testing.T) {
	p := newProject(t, "")
	code, out, errOut := p.run("check", "--quiet", filepath.Join("..", "..", "testdata", "programs"))
	require.Equal(t, 0, code, out+errOut)
	assert.Empty(t, out)
}

func TestRun_ExamplePrograms(t *testing.T) {
	p := newProject(t, "")
	dir := filepath.Join("..", "..", "testdata", "programs")
	tests := []struct {
		file, entry string
		args        []string
		want        string
	}{
		{"sum.go", "sum", []string{"100"}, "5050\n"},
		{"collatz.go", "collatz", []string{"27"}, "111\n"},
		{"geometry.go", "hyp2", []string{"3", "4"}, "25\n"},
		{"geometry.go", "clamp", []string{"7.5", "0", "5"}, "5\n"},
		{"sign.go", "sign", []string{"-4"}, "-1\n"},
		{"sign.go", "countdown", []string{"2"}, "0\n2\n1\n0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			args := append([]string{"run", "--entry", tt.entry, filepath.Join(dir, tt.file)}, tt.args...)
			code, out, errOut := p.run(args...)
			require.Equal(t, 0, code, errOut)
			assert.Equal(t, tt.want, out)
		})
	}
}
