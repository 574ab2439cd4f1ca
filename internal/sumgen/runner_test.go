package sumgen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerGenerate_OrderAndConcurrency(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner()
	r.generate = func(_ context.Context, path string) (Result, error) {
		calls.Add(1)
		return Result{ConfigPath: path, Types: len(path)}, nil
	}

	results, err := r.Generate(context.Background(), "a.yaml", "bb.yaml", "ccc.yaml")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
	for i, want := range []string{"a.yaml", "bb.yaml", "ccc.yaml"} {
		assert.Equal(t, want, results[i].ConfigPath)
	}
}

func TestRunnerGenerate_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner()
	r.generate = func(ctx context.Context, path string) (Result, error) {
		if path == "bad.yaml" {
			return Result{}, boom
		}
		<-ctx.Done()
		return Result{}, ctx.Err()
	}

	_, err := r.Generate(context.Background(), "ok.yaml", "bad.yaml")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad.yaml: boom")
}

func TestRunnerGenerate_MissingConfig(t *testing.T) {
	_, err := NewRunner().Generate(context.Background(), "does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestWriteIfChanged(t *testing.T) {
	path := t.TempDir() + "/out.go"
	file := GeneratedFile{Filename: path, Content: "package p\n"}

	changed, err := writeIfChanged(file)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = writeIfChanged(file)
	require.NoError(t, err)
	assert.False(t, changed)
}
