package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/trace"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[stage]
entry = "sum"
whitelist = ["println"]
max_steps = 1000

[trace]
level = "detail"
mode = "ring"
ring_size = 64

[output]
format = "yaml"
color = "off"

[cache]
enabled = true
dir = ".argon-cache"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sum", cfg.Stage.Entry)
	assert.Equal(t, []string{"println"}, cfg.Stage.Whitelist)
	assert.Equal(t, int64(1000), cfg.Stage.MaxSteps)
	assert.Equal(t, 100, cfg.Stage.MaxDiagnostics, "defaults survive partial tables")
	assert.Equal(t, "yaml", cfg.Output.Format)

	tc, err := cfg.TraceConfig()
	require.NoError(t, err)
	assert.Equal(t, trace.LevelDetail, tc.Level)
	assert.Equal(t, trace.ModeRing, tc.Mode)
	assert.Equal(t, 64, tc.RingSize)

	cacheDir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".argon-cache"), cacheDir)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "[stage\nentry = 1"},
		{"unknown key", "[stage]\nentri = \"f\""},
		{"bad level", "[trace]\nlevel = \"loud\""},
		{"bad mode", "[trace]\nmode = \"tape\""},
		{"bad format", "[output]\nformat = \"xml\""},
		{"bad color", "[output]\ncolor = \"maybe\""},
		{"negative steps", "[stage]\nmax_steps = -1"},
		{"empty whitelist name", "[stage]\nwhitelist = [\" \"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDiscover_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[stage]\nentry = \"main\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Stage.Entry)
	assert.Equal(t, filepath.Join(root, FileName), cfg.Path)
}

func TestEntryOr(t *testing.T) {
	cfg := Default()
	_, err := cfg.EntryOr("")
	assert.ErrorIs(t, err, ErrEntryMissing)

	name, err := cfg.EntryOr("f")
	require.NoError(t, err)
	assert.Equal(t, "f", name)

	cfg.Stage.Entry = "g"
	name, err = cfg.EntryOr("")
	require.NoError(t, err)
	assert.Equal(t, "g", name)
}

func TestCacheDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := Default().CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "argon"), dir)
}
