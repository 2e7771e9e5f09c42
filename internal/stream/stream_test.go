package stream

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"

	"github.com/meigma/sevenz/internal/coder"
	"github.com/meigma/sevenz/internal/sztype"
)

func newCompressor(t *testing.T, method sztype.Method, opts ...Option) *Compressor {
	t.Helper()
	c, err := New(coder.Config{Method: method}, opts...)
	require.NoError(t, err)
	return c
}

func TestCompress_LZMA2(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("lorem ipsum dolor sit amet "), 5000)
	c := newCompressor(t, sztype.MethodLZMA2, WithChunkSize(4096))

	var out bytes.Buffer
	res, err := c.Compress(context.Background(), "lorem.txt", bytes.NewReader(content), &out, 32, int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, uint64(len(content)), res.Size)
	assert.Equal(t, uint64(out.Len()), res.PackedSize)
	assert.Equal(t, crc32.ChecksumIEEE(content), res.CRC)
	assert.Less(t, res.PackedSize, res.Size)

	dec, err := lzma.NewReader2(&out)
	require.NoError(t, err)
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestCompress_Copy(t *testing.T) {
	t.Parallel()

	content := []byte("stored verbatim")
	c := newCompressor(t, sztype.MethodCopy)

	var out bytes.Buffer
	res, err := c.Compress(context.Background(), "a.txt", bytes.NewReader(content), &out, 32, int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, content, out.Bytes())
	assert.Equal(t, res.Size, res.PackedSize)
}

func TestCompress_Empty(t *testing.T) {
	t.Parallel()

	c := newCompressor(t, sztype.MethodLZMA2)

	var out bytes.Buffer
	res, err := c.Compress(context.Background(), "empty", strings.NewReader(""), &out, 32, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), res.Size)
	assert.Equal(t, uint32(0), res.CRC)
	assert.Equal(t, uint64(1), res.PackedSize)
}

func TestCompress_Progress(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte{'x'}, 10_000)
	var seen []uint64
	c := newCompressor(t, sztype.MethodCopy, WithChunkSize(3000), WithProgress(func(n uint64) {
		seen = append(seen, n)
	}))

	_, err := c.Compress(context.Background(), "x", bytes.NewReader(content), io.Discard, 32, int64(len(content)))
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, uint64(len(content)), seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestCompress_SizeChanged(t *testing.T) {
	t.Parallel()

	c := newCompressor(t, sztype.MethodLZMA2)
	_, err := c.Compress(context.Background(), "short.txt", strings.NewReader("abc"), io.Discard, 32, 10)
	require.Error(t, err)
	assert.True(t, sztype.ErrIO.Is(err))
	assert.Contains(t, err.Error(), "short.txt")
	assert.Contains(t, err.Error(), "expected 10, got 3")
}

func TestCompress_SizeGrew(t *testing.T) {
	t.Parallel()

	for _, method := range []sztype.Method{sztype.MethodCopy, sztype.MethodLZMA2} {
		c := newCompressor(t, method)
		var out bytes.Buffer
		_, err := c.Compress(context.Background(), "grown.txt", strings.NewReader("abcdefghij"), &out, 32, 3)
		require.Error(t, err, method.String())
		assert.True(t, sztype.ErrIO.Is(err), "%s: %v", method, err)
		assert.Contains(t, err.Error(), "grown.txt")
		assert.Contains(t, err.Error(), "expected 3, got more than 3")
	}
}

func TestCompress_ExactSizeAtLimit(t *testing.T) {
	t.Parallel()

	// A source holding exactly the expected bytes is not mistaken for one
	// that grew, whatever the chunk size.
	content := bytes.Repeat([]byte("z"), 4096)
	for _, chunk := range []int{1, 4095, 4096, 4097} {
		c := newCompressor(t, sztype.MethodCopy, WithChunkSize(chunk))
		var out bytes.Buffer
		res, err := c.Compress(context.Background(), "exact", bytes.NewReader(content), &out, 32, int64(len(content)))
		require.NoError(t, err, "chunk %d", chunk)
		assert.Equal(t, uint64(len(content)), res.Size)
		assert.Equal(t, content, out.Bytes())
	}
}

func TestCompress_NegativeSize(t *testing.T) {
	t.Parallel()

	c := newCompressor(t, sztype.MethodCopy)
	_, err := c.Compress(context.Background(), "neg", strings.NewReader(""), io.Discard, 32, -1)
	assert.True(t, sztype.ErrIO.Is(err))
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestCompress_ReadError(t *testing.T) {
	t.Parallel()

	readErr := errors.New("disk on fire")
	c := newCompressor(t, sztype.MethodLZMA2)
	_, err := c.Compress(context.Background(), "src.bin", failingReader{readErr}, io.Discard, 32, 100)
	require.Error(t, err)
	assert.True(t, sztype.ErrIO.Is(err))
	assert.Contains(t, err.Error(), "src.bin")
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestCompress_WriteError(t *testing.T) {
	t.Parallel()

	content := []byte("some bytes")
	c := newCompressor(t, sztype.MethodCopy)
	_, err := c.Compress(context.Background(), "src.bin", bytes.NewReader(content), failingWriter{errors.New("no space")}, 4096, int64(len(content)))
	require.Error(t, err)
	assert.True(t, sztype.ErrIO.Is(err))
	assert.Contains(t, err.Error(), "offset 4096")
}

func TestCompress_WriteErrorOnFlush(t *testing.T) {
	t.Parallel()

	// LZMA2 buffers everything until Close, so the failure surfaces during
	// the final flush.
	content := []byte("buffered until close")
	c := newCompressor(t, sztype.MethodLZMA2)
	_, err := c.Compress(context.Background(), "src.bin", bytes.NewReader(content), failingWriter{errors.New("no space")}, 32, int64(len(content)))
	require.Error(t, err)
	assert.True(t, sztype.ErrIO.Is(err))
}

func TestCompress_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newCompressor(t, sztype.MethodLZMA2)
	_, err := c.Compress(ctx, "src", strings.NewReader("data"), io.Discard, 32, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(coder.Config{Method: sztype.MethodZstd, Level: 99})
	require.Error(t, err)
	assert.True(t, sztype.ErrCodec.Is(err))
}

func TestCountingWriter_ShortWrite(t *testing.T) {
	t.Parallel()

	cw := &CountingWriter{W: shortWriter{}}
	n, err := cw.Write([]byte("abcd"))
	assert.Equal(t, 2, n)
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.ErrorIs(t, cw.Err, io.ErrShortWrite)
	assert.Equal(t, uint64(2), cw.N)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestCheckFileUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	before, err := f.Stat()
	require.NoError(t, err)

	require.NoError(t, CheckFileUnchanged(f, path, before, true))

	require.NoError(t, os.WriteFile(path, []byte("one plus more"), 0o644))
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Hour)))

	// Non-strict mode never looks.
	require.NoError(t, CheckFileUnchanged(f, path, before, false))

	err = CheckFileUnchanged(f, path, before, true)
	require.Error(t, err)
	assert.True(t, sztype.ErrIO.Is(err))
}

func TestValidateFileInfo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	ia, err := os.Stat(a)
	require.NoError(t, err)
	ib, err := os.Stat(b)
	require.NoError(t, err)

	require.NoError(t, ValidateFileInfo(a, ia, ia, true))
	require.NoError(t, ValidateFileInfo(a, ia, ib, false))
	assert.True(t, sztype.ErrIO.Is(ValidateFileInfo(a, ia, ib, true)))
	assert.True(t, sztype.ErrIO.Is(ValidateFileInfo(a, nil, ib, true)))
}
