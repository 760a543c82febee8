package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestFindWorkbooks(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	touch(t, dir, "St105_ME0002_AUDUBON_6-2-2025.xlsx", base.Add(24*time.Hour))
	touch(t, dir, "St105_ME0001_AUDUBON_6-1-2025.xlsx", base)
	touch(t, dir, "~$St105_ME0001_AUDUBON_6-1-2025.xlsx", base)
	touch(t, dir, "notes.txt", base)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	found, err := FindWorkbooks(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)

	// Oldest first.
	assert.Equal(t, "St105_ME0001_AUDUBON_6-1-2025.xlsx", found[0].Name)
	assert.Equal(t, "St105_ME0002_AUDUBON_6-2-2025.xlsx", found[1].Name)
	assert.Equal(t, filepath.Join(dir, found[0].Name), found[0].Path)
}

func TestFindWorkbooksMissingDir(t *testing.T) {
	_, err := FindWorkbooks(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLatestWorkbook(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	touch(t, dir, "a.xlsx", base)
	touch(t, dir, "b.xlsx", base.Add(time.Hour))

	found, err := FindWorkbooks(dir)
	require.NoError(t, err)

	latest, ok := LatestWorkbook(found)
	require.True(t, ok)
	assert.Equal(t, "b.xlsx", latest.Name)

	_, ok = LatestWorkbook(nil)
	assert.False(t, ok)
}
