// Package stream packs one source into a 7z pack stream while collecting
// the statistics the end header needs.
package stream

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"strconv"

	"github.com/meigma/sevenz/internal/coder"
	"github.com/meigma/sevenz/internal/sztype"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// Result describes a finished pack stream.
type Result struct {
	// PackedSize is the number of bytes the encoder emitted.
	PackedSize uint64

	// Size is the number of uncompressed bytes consumed.
	Size uint64

	// CRC is the CRC-32 (IEEE) of the uncompressed bytes.
	CRC uint32
}

// Compressor packs sources with a single coder configuration.
// The read buffer is reused across calls, so a Compressor must not be
// shared between goroutines.
type Compressor struct {
	cfg      coder.Config
	buf      []byte
	progress func(n uint64)
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithChunkSize sets the size of each read from the source.
func WithChunkSize(n int) Option {
	return func(c *Compressor) {
		if n > 0 {
			c.buf = make([]byte, n)
		}
	}
}

// WithProgress registers a callback invoked with the running count of
// uncompressed bytes after every chunk.
func WithProgress(fn func(n uint64)) Option {
	return func(c *Compressor) {
		c.progress = fn
	}
}

// New creates a Compressor for cfg.
func New(cfg coder.Config, opts ...Option) (*Compressor, error) {
	if err := cfg.Verify(); err != nil {
		return nil, sztype.ErrCodec.Wrap(err, cfg.Method)
	}
	c := &Compressor{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.buf == nil {
		c.buf = make([]byte, DefaultChunkSize)
	}
	return c, nil
}

// Method returns the coder method used by the Compressor.
func (c *Compressor) Method() sztype.Method {
	return c.cfg.Method
}

// Properties returns the coder properties for the folder record.
func (c *Compressor) Properties() []byte {
	return c.cfg.Properties()
}

// Compress streams exactly expectedSize bytes of src through a CRC-32 and
// the encoder into dst. Every emitted byte, including the encoder's final
// flush, is counted in the result's PackedSize. A source that ends early
// or holds more than expectedSize bytes fails with ErrIO.
//
// path names the source in errors; at is the archive offset where dst
// begins and is used to report write failures.
//
// Stream: src → pump(crc, progress) → encoder → CountingWriter(dst)
func (c *Compressor) Compress(ctx context.Context, path string, src io.Reader, dst io.Writer, at, expectedSize int64) (Result, error) {
	if expectedSize < 0 {
		return Result{}, sztype.ErrIO.Wrap(errors.New("negative file size"), path)
	}

	crc := crc32.NewIEEE()
	cw := &CountingWriter{W: dst}

	enc, err := c.cfg.NewEncoder(cw)
	if err != nil {
		return Result{}, sztype.ErrCodec.Wrap(err, c.cfg.Method)
	}

	// One byte past the expected size is enough to see that the source grew.
	limit := expectedSize
	if limit < math.MaxInt64 {
		limit++
	}
	read, err := c.pump(ctx, enc, io.LimitReader(src, limit), crc)
	if err != nil {
		enc.Close()
		return Result{}, c.classify(err, path, cw, at)
	}
	if read != uint64(expectedSize) {
		enc.Close()
		return Result{}, sztype.ErrIO.Wrap(
			fmt.Errorf("file size changed during archive creation: expected %d, got %s", expectedSize, sizeRead(read, expectedSize)), path)
	}
	if err := enc.Close(); err != nil {
		return Result{}, c.classify(err, path, cw, at)
	}
	if cw.Err != nil {
		return Result{}, c.classify(cw.Err, path, cw, at)
	}

	return Result{PackedSize: cw.N, Size: read, CRC: crc.Sum32()}, nil
}

// sizeRead describes how much of the source was read. Reading stops one
// byte past the expected size, so a larger count only means "more".
func sizeRead(read uint64, expectedSize int64) string {
	if read > uint64(expectedSize) {
		return fmt.Sprintf("more than %d", expectedSize)
	}
	return strconv.FormatUint(read, 10)
}

// classify maps a copy failure to the error kind of the side that caused it.
func (c *Compressor) classify(err error, path string, cw *CountingWriter, at int64) error {
	var rerr *readError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrOverflow) || errors.Is(cw.Err, ErrOverflow):
		return sztype.ErrSizeOverflow.New(uint64(at) + cw.N) //nolint:gosec // at is a non-negative file offset
	case errors.As(err, &rerr):
		return sztype.ErrIO.Wrap(rerr.err, path)
	case cw.Err != nil:
		return sztype.ErrIO.Wrap(cw.Err, fmt.Sprintf("archive at offset %d", uint64(at)+cw.N)) //nolint:gosec // at is a non-negative file offset
	default:
		return sztype.ErrCodec.Wrap(err, c.cfg.Method)
	}
}
