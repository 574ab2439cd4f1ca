package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/funvibe/variant/internal/sumgen"
)

const testConfig = `types:
  - name: AB
    alternatives: [A, B]
  - name: ABC
    alternatives: [A, B, C]
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":      "module example.com/abc\n\ngo 1.22\n",
		"sumgen.yaml": testConfig,
		"types.go":    "package abc\n\ntype A struct{}\ntype B struct{}\ntype C struct{}\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func testCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestResolveConfigs(t *testing.T) {
	dir := writeProject(t)

	paths, err := resolveConfigs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sumgen.yaml")}, paths)

	paths, err = resolveConfigs([]string{filepath.Join(dir, "sumgen.yaml")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sumgen.yaml")}, paths)

	_, err = resolveConfigs([]string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sumgen.yaml in")

	_, err = resolveConfigs([]string{filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestGenerate_WatchFlagConflicts(t *testing.T) {
	logger = zap.NewNop()
	dir := writeProject(t)
	defer func() { genWatch, genDryRun = false, false }()

	genWatch, genDryRun = true, true
	err := runGenerate(testCmd(&bytes.Buffer{}), []string{dir})
	require.EqualError(t, err, "--watch and --dry-run cannot be combined")

	genDryRun = false
	err = runGenerate(testCmd(&bytes.Buffer{}), []string{dir, dir})
	require.EqualError(t, err, "--watch takes a single config")
}

func TestCacheClean(t *testing.T) {
	logger = zap.NewNop()
	dir := writeProject(t)
	cache := sumgen.NewCache(dir)
	require.NoError(t, cache.Store("k", []byte("x")))

	require.NoError(t, runCacheClean(testCmd(&bytes.Buffer{}), []string{dir}))
	_, err := os.Stat(cache.CacheDir())
	assert.True(t, os.IsNotExist(err))
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "sumgen dev\n", out.String())
}

func TestPrintRelations(t *testing.T) {
	var out bytes.Buffer
	printRelations(&out, sumgen.Result{
		ConfigPath: "sumgen.yaml",
		Types:      2,
		Relations: []sumgen.Relation{
			{From: "AB", To: "ABC", Kind: sumgen.Widening, Shared: []string{"A", "B"}},
			{From: "ABC", To: "AB", Kind: sumgen.Narrowing, Shared: []string{"A", "B"}},
			{From: "AB", To: "X", Kind: sumgen.Disjoint},
		},
	})
	want := "sumgen.yaml: 2 types\n" +
		"  AB -> ABC  widening   A, B\n" +
		"  ABC -> AB  narrowing  A, B\n"
	assert.Equal(t, want, out.String())
}

func TestCheckAndGenerate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	logger = zap.NewNop()
	dir := writeProject(t)

	var out bytes.Buffer
	require.NoError(t, runCheck(testCmd(&out), []string{dir}))
	assert.Contains(t, out.String(), "AB -> ABC")
	assert.Contains(t, out.String(), "widening")

	require.NoError(t, runGenerate(testCmd(&bytes.Buffer{}), []string{dir}))
	src, err := os.ReadFile(filepath.Join(dir, "variants_gen.go"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by sumgen. DO NOT EDIT."))
	assert.Contains(t, string(src), "func (v AB) ToABC() ABC {")
	_, err = os.Stat(filepath.Join(dir, ".sumgen", "cache"))
	assert.NoError(t, err, "cache entry written")
}
