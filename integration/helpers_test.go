//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bodgit/sevenzip"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"

	"github.com/meigma/sevenz"
)

// --- 7-Zip Container Setup ---

var (
	sevenZipOnce      sync.Once
	sevenZipContainer testcontainers.Container
	sevenZipErr       error
)

// getSevenZip returns the shared container with 7-Zip installed, starting it
// if needed. The container is shared across all tests for performance.
func getSevenZip(tb testing.TB) testcontainers.Container {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	sevenZipOnce.Do(func() {
		sevenZipContainer, sevenZipErr = startSevenZipContainer(context.Background())
	})

	if sevenZipErr != nil {
		tb.Fatalf("start 7-zip container: %v", sevenZipErr)
	}

	return sevenZipContainer
}

// startSevenZipContainer starts an idle alpine container and installs 7-Zip.
func startSevenZipContainer(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image: "alpine:3.20",
		Cmd:   []string{"sleep", "infinity"},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	// Note: Container cleanup is handled by testcontainers Reaper.

	code, out, err := container.Exec(ctx, []string{"apk", "add", "--no-cache", "7zip"}, tcexec.Multiplexed())
	if err != nil {
		return nil, fmt.Errorf("install 7zip: %w", err)
	}
	if code != 0 {
		logs, _ := io.ReadAll(out)
		return nil, fmt.Errorf("install 7zip: exit %d: %s", code, logs)
	}

	return container, nil
}

// sevenZipTest copies the archive into the container and runs `7z t` on it.
// It returns the exit code and combined output.
func sevenZipTest(tb testing.TB, archive string) (int, string) {
	tb.Helper()

	ctx := context.Background()
	container := getSevenZip(tb)

	target := path.Join("/tmp", tb.Name(), filepath.Base(archive))
	code, _, err := container.Exec(ctx, []string{"mkdir", "-p", path.Dir(target)})
	require.NoError(tb, err)
	require.Zero(tb, code)
	require.NoError(tb, container.CopyFileToContainer(ctx, archive, target, 0o644))

	code, out, err := container.Exec(ctx, []string{"7z", "t", target}, tcexec.Multiplexed())
	require.NoError(tb, err)
	logs, err := io.ReadAll(out)
	require.NoError(tb, err)

	return code, string(logs)
}

// --- Archive Helpers ---

// createFiles writes test files to a directory and returns their paths in
// the order of names.
func createFiles(tb testing.TB, dir string, names []string, files map[string][]byte) []string {
	tb.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		fullPath := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(tb, os.WriteFile(fullPath, files[name], 0o644))
		paths = append(paths, fullPath)
	}
	return paths
}

// createArchive adds every file to a new archive, naming entries by their
// key in files, and returns the archive path.
func createArchive(tb testing.TB, names []string, files map[string][]byte, opts ...sevenz.Option) string {
	tb.Helper()

	paths := createFiles(tb, tb.TempDir(), names, files)
	archive := filepath.Join(tb.TempDir(), "test.7z")

	w, err := sevenz.Create(archive, opts...)
	require.NoError(tb, err)
	for i, p := range paths {
		_, err := w.Add(context.Background(), p, sevenz.AddWithName(names[i]))
		require.NoError(tb, err, "Add(%q)", names[i])
	}
	require.NoError(tb, w.Close())
	return archive
}

// extractAll reads every file of the archive with an independent reader.
func extractAll(tb testing.TB, archive string) ([]string, map[string][]byte) {
	tb.Helper()

	r, err := sevenzip.OpenReader(archive)
	require.NoError(tb, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	contents := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(tb, err, "open %q", f.Name)
		var buf bytes.Buffer
		_, err = io.Copy(&buf, rc)
		require.NoError(tb, err, "read %q", f.Name)
		require.NoError(tb, rc.Close())
		names = append(names, f.Name)
		contents[f.Name] = buf.Bytes()
	}
	return names, contents
}

// --- Test Data Helpers ---

// makeCompressibleContent creates content that benefits from compression.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// makeRandomContent creates random binary content.
func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}
