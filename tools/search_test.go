package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSearchBackend(t *testing.T) {
	t.Helper()
	if !commandExists("rg") && !commandExists("grep") {
		t.Skip("neither rg nor grep available")
	}
}

func TestSearchFileContents(t *testing.T) {
	requireSearchBackend(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("needle in here\nnothing\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("no match\n"), 0o644))

	out, err := (&SearchFileContentsTool{}).Execute(context.Background(), SearchFileContentsInput{
		Query: "needle", Path: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt:1")
	assert.Contains(t, out, "needle in here")
	assert.NotContains(t, out, "b.txt")
}

func TestSearchFileContentsCaseInsensitiveDefault(t *testing.T) {
	requireSearchBackend(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("NEEDLE\n"), 0o644))

	out, err := (&SearchFileContentsTool{}).Execute(context.Background(), SearchFileContentsInput{
		Query: "needle", Path: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "NEEDLE")
}

func TestSearchFileContentsNoMatches(t *testing.T) {
	requireSearchBackend(t)

	out, err := (&SearchFileContentsTool{}).Execute(context.Background(), SearchFileContentsInput{
		Query: "absent-string", Path: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No matches found")
}

func TestSearchFileContentsMissingQuery(t *testing.T) {
	_, err := (&SearchFileContentsTool{}).Execute(context.Background(), SearchFileContentsInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestFormatSearchResults(t *testing.T) {
	out := formatSearchResults("./src/main.go:10:fmt.Println(x)\nlib/util.go:3:return nil\n", 30)
	assert.Contains(t, out, "Found 2 matches")
	assert.Contains(t, out, "src/main.go:10")
	assert.Contains(t, out, "fmt.Println(x)")
	assert.Contains(t, out, "lib/util.go:3")
}
