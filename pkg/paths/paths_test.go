package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, targetDir, fileName string, content string) string {
	t.Helper()
	filePath := filepath.Join(targetDir, fileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0644), "Failed to create temp file: %s", fileName)
	return filePath
}

func TestListings(t *testing.T) {
	dir := t.TempDir()
	a := createTempFile(t, dir, "a.json", "[]")
	b := createTempFile(t, dir, "nested/b.JSON", "[]")
	createTempFile(t, dir, "notes.txt", "hello")

	found, err := Listings(dir, ".json")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, a, found[0].Path)
	assert.Equal(t, b, found[1].Path)
	assert.Equal(t, "b.JSON", found[1].FileName)
	assert.Equal(t, int64(2), found[0].Size)
}

func TestListings_NoFilter(t *testing.T) {
	dir := t.TempDir()
	createTempFile(t, dir, "a.json", "[]")
	createTempFile(t, dir, "notes.txt", "hello")

	found, err := Listings(dir)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestListings_MissingFolder(t *testing.T) {
	_, err := Listings(filepath.Join(t.TempDir(), "missing"), ".json")
	assert.Error(t, err)
}
