package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesSimplePattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"test1.go", "test2.go", "test.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o644))
	}

	out, err := (&FindFilesTool{}).Execute(context.Background(), FindFilesInput{
		Pattern: "*.go", Path: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "test1.go")
	assert.Contains(t, out, "test2.go")
	assert.NotContains(t, out, "test.txt")
}

func TestFindFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "pkg", "deep.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.go"), []byte("x"), 0o644))

	out, err := (&FindFilesTool{}).Execute(context.Background(), FindFilesInput{
		Pattern: "**/*.go", Path: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("src", "pkg", "deep.go"))
	assert.Contains(t, out, "top.go")
}

func TestFindFilesNoMatches(t *testing.T) {
	out, err := (&FindFilesTool{}).Execute(context.Background(), FindFilesInput{
		Pattern: "*.nonexistent", Path: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No files or directories found")
}

func TestFindFilesMaxResults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	out, err := (&FindFilesTool{}).Execute(context.Background(), FindFilesInput{
		Pattern: "*.go", Path: dir, MaxResults: intPtr(2),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "showing first 2")
	assert.NotContains(t, out, "c.go")
}

func TestFindFilesMissingPattern(t *testing.T) {
	_, err := (&FindFilesTool{}).Execute(context.Background(), FindFilesInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")
}
