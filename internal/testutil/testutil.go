// Package testutil provides helpers shared by the package tests: source file
// fixtures and a decoder for the archives the writer produces.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// FixtureTime is the modification time given to files created by WriteFile.
var FixtureTime = time.Date(2024, 3, 9, 16, 20, 11, 0, time.UTC)

// WriteFile creates dir/name with content and mtime FixtureTime and returns
// its path.
func WriteFile(tb testing.TB, dir, name string, content []byte) string {
	tb.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tb, os.WriteFile(path, content, 0o644))
	require.NoError(tb, os.Chtimes(path, FixtureTime, FixtureTime))
	return path
}

// WriteFiles creates every file in files under dir and returns their paths
// keyed by name.
func WriteFiles(tb testing.TB, dir string, files map[string][]byte) map[string]string {
	tb.Helper()
	paths := make(map[string]string, len(files))
	for name, content := range files {
		paths[name] = WriteFile(tb, dir, name, content)
	}
	return paths
}

// ReadArchive reads and decodes the archive at path.
func ReadArchive(tb testing.TB, path string) *Archive {
	tb.Helper()
	b, err := os.ReadFile(path) //nolint:gosec // test paths
	require.NoError(tb, err)
	a, err := ParseArchive(b)
	require.NoError(tb, err)
	return a
}
