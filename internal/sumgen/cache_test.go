package sumgen

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheTestConfig = `types:
  - name: AB
    alternatives: [A, B]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func cacheFixture(t *testing.T) (*Config, *Cache) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sumgen.yaml"), cacheTestConfig)
	writeFile(t, filepath.Join(dir, "types.go"), "package p\n\ntype A struct{}\ntype B struct{}\n")
	cfg, err := LoadConfig(filepath.Join(dir, "sumgen.yaml"))
	require.NoError(t, err)
	return cfg, NewCache(dir)
}

func TestCache_KeyStable(t *testing.T) {
	cfg, cache := cacheFixture(t)

	k1, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	k2, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)

	k3, err := cache.Key(context.Background(), cfg, "other/rt")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestCache_KeyInputs(t *testing.T) {
	cfg, cache := cacheFixture(t)
	base, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)

	// Generated output and tests do not feed the key.
	writeFile(t, cfg.OutputPath(), "package p\n")
	writeFile(t, filepath.Join(cfg.PackageDir(), "types_test.go"), "package p\n")
	k, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.Equal(t, base, k)

	// Trailing whitespace in the config does not either.
	writeFile(t, cfg.Path(), "types:   \n  - name: AB\n    alternatives: [A, B]\t\n\n\n")
	k, err = cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.Equal(t, base, k)

	// Sources do.
	writeFile(t, filepath.Join(cfg.PackageDir(), "types.go"), "package p\n\ntype A struct{ X int }\ntype B struct{}\n")
	k, err = cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.NotEqual(t, base, k)
}

func TestCache_LookupStore(t *testing.T) {
	cfg, cache := cacheFixture(t)
	key, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)

	content := []byte("// generated\npackage p\n")
	assert.False(t, cache.Lookup(key, cfg.OutputPath()), "empty cache")

	require.NoError(t, cache.Store(key, content))
	assert.False(t, cache.Lookup(key, cfg.OutputPath()), "output missing")

	writeFile(t, cfg.OutputPath(), string(content))
	assert.True(t, cache.Lookup(key, cfg.OutputPath()))

	writeFile(t, cfg.OutputPath(), "// edited by hand\npackage p\n")
	assert.False(t, cache.Lookup(key, cfg.OutputPath()), "output edited")
}

func TestCache_Clean(t *testing.T) {
	cfg, cache := cacheFixture(t)
	require.NoError(t, cache.Store("k", []byte("x")))
	_, err := os.Stat(cache.CacheDir())
	require.NoError(t, err)

	require.NoError(t, cache.Clean())
	_, err = os.Stat(cache.CacheDir())
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, filepath.Join(cfg.Dir(), ".sumgen", "cache"), cache.CacheDir())
}

func TestCache_KeyCoversImports(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/app\n\ngo 1.22\n")
	writeFile(t, filepath.Join(dir, "ext", "ext.go"), "package ext\n\ntype Payload struct{}\n")
	writeFile(t, filepath.Join(dir, "types.go"), "package app\n\ntype A struct{}\n")
	writeFile(t, filepath.Join(dir, "sumgen.yaml"), `imports: [example.com/app/ext]
types:
  - name: AP
    alternatives: [A, ext.Payload]
`)
	cfg, err := LoadConfig(filepath.Join(dir, "sumgen.yaml"))
	require.NoError(t, err)
	cache := NewCache(dir)

	base, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "ext", "ext.go"),
		"package ext\n\ntype Payload struct{ N int }\n\nfunc (p *Payload) Default() { p.N = 1 }\n")
	k, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.NotEqual(t, base, k, "imported package changed")

	// Tests of the imported package do not feed the key.
	writeFile(t, filepath.Join(dir, "ext", "ext_test.go"), "package ext\n")
	k2, err := cache.Key(context.Background(), cfg, "rt")
	require.NoError(t, err)
	assert.Equal(t, k, k2)
}

func TestCache_KeyUnknownImport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/app\n\ngo 1.22\n")
	writeFile(t, filepath.Join(dir, "types.go"), "package app\n\ntype A struct{}\n")
	writeFile(t, filepath.Join(dir, "sumgen.yaml"), "imports: [example.com/app/missing]\ntypes:\n  - name: AA\n    alternatives: [A]\n")
	cfg, err := LoadConfig(filepath.Join(dir, "sumgen.yaml"))
	require.NoError(t, err)

	_, err = NewCache(dir).Key(context.Background(), cfg, "rt")
	assert.Error(t, err)
}
