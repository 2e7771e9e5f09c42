package sevenz

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/sevenz/internal/coder"
	"github.com/meigma/sevenz/internal/header"
	"github.com/meigma/sevenz/internal/stream"
)

// Writer writes a 7z archive to a file, one entry per Add call.
//
// Each source is compressed into its own folder as soon as it is added; the
// end header describing all entries is written by Close (or after every Add
// with WithFinalizeOnAdd). A Writer is not safe for concurrent use.
type Writer struct {
	cfg    writerConfig
	logger *slog.Logger

	f    *os.File
	name string
	comp *stream.Compressor

	// next is the absolute offset where the next pack stream (or the end
	// header) is written.
	next       int64
	sigWritten bool
	entries    []Entry
	hdrSize    int64
	dirty      bool
	failed     error
	closed     bool
	digest     digest.Digest

	// cur describes the Add in progress for progress reporting.
	cur struct {
		path  string
		total uint64
	}
}

// Create creates the archive file at path, truncating any existing file, and
// returns a Writer for it.
func Create(path string, opts ...Option) (*Writer, error) {
	w, err := newWriter(opts)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // archive path is caller-provided
	if err != nil {
		return nil, ErrIO.Wrap(err, path)
	}
	w.attach(f)
	return w, nil
}

// NewWriter returns a Writer that writes the archive to f starting at
// offset 0. The Writer takes ownership of f and closes it in Close, or
// immediately if the options are invalid. f must be open for reading and
// writing when WithDigest is used.
func NewWriter(f *os.File, opts ...Option) (*Writer, error) {
	w, err := newWriter(opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.attach(f)
	return w, nil
}

func newWriter(opts []Option) (*Writer, error) {
	cfg := writerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxEntries == 0 {
		cfg.maxEntries = DefaultMaxEntries
	}
	if cfg.digest != "" && !cfg.digest.Available() {
		return nil, ErrFormat.New(fmt.Sprintf("digest algorithm %q unavailable", cfg.digest))
	}

	w := &Writer{cfg: cfg, logger: cfg.logger, next: header.SignatureSize}
	comp, err := stream.New(
		coder.Config{Method: cfg.method, Level: cfg.level, DictSize: cfg.dictSize},
		stream.WithChunkSize(cfg.chunkSize),
		stream.WithProgress(w.onBytes),
	)
	if err != nil {
		return nil, err
	}
	w.comp = comp
	return w, nil
}

func (w *Writer) attach(f *os.File) {
	w.f = f
	w.name = f.Name()
	w.log().Info("creating archive", "path", w.name, "method", w.cfg.method.String())
}

// Add compresses the file at path into a new entry appended to the archive.
//
// The signature header is reserved on the first call. Failures that happen
// before any of the source's bytes reach the archive (a missing source, an
// invalid name, the entry limit) leave the Writer usable. Any later failure
// aborts the archive: subsequent calls to Add fail and Close returns
// ErrAborted without writing an end header.
//
// The context is checked between chunks of the source.
func (w *Writer) Add(ctx context.Context, path string, opts ...AddOption) (Entry, error) {
	if w.closed {
		return Entry{}, ErrClosed.New()
	}
	if w.failed != nil {
		return Entry{}, ErrAborted.Wrap(w.failed, w.name)
	}

	cfg := addConfig{name: entryName(path)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := header.EncodeName(cfg.name); err != nil {
		return Entry{}, err
	}
	if w.cfg.maxEntries > 0 && len(w.entries) >= w.cfg.maxEntries {
		return Entry{}, ErrTooManyEntries.New(w.cfg.maxEntries)
	}

	strict := w.cfg.changeDetection == ChangeDetectionStrict
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, ErrIO.Wrap(err, path)
	}
	if !info.Mode().IsRegular() {
		return Entry{}, ErrIO.Wrap(errors.New("not a regular file"), path)
	}
	src, err := os.Open(path) //nolint:gosec // source path is caller-provided
	if err != nil {
		return Entry{}, ErrIO.Wrap(err, path)
	}
	defer src.Close()

	finfo, err := src.Stat()
	if err != nil {
		return Entry{}, ErrIO.Wrap(err, path)
	}
	if err := stream.ValidateFileInfo(path, info, finfo, strict); err != nil {
		return Entry{}, err
	}

	if !w.sigWritten {
		sig := header.Placeholder()
		if _, err := w.f.WriteAt(sig[:], 0); err != nil {
			return Entry{}, w.fail(ErrIO.Wrap(err, w.name))
		}
		w.sigWritten = true
	}

	size := uint64(finfo.Size()) //nolint:gosec // regular file sizes are non-negative
	w.cur.path, w.cur.total = path, size
	w.reportProgress(StageCompressing, path, 0, size)

	dst := io.NewOffsetWriter(w.f, w.next)
	res, err := w.comp.Compress(ctx, path, src, dst, w.next, finfo.Size())
	if err != nil {
		return Entry{}, w.fail(err)
	}
	if err := stream.CheckFileUnchanged(src, path, finfo, strict); err != nil {
		return Entry{}, w.fail(err)
	}
	if res.PackedSize > uint64(math.MaxInt64-w.next) {
		return Entry{}, w.fail(ErrSizeOverflow.New(w.next))
	}

	entry := Entry{
		Name:       cfg.name,
		ModTime:    finfo.ModTime(),
		Offset:     uint64(w.next - header.SignatureSize),
		Size:       res.Size,
		PackedSize: res.PackedSize,
		CRC:        res.CRC,
		Attributes: DefaultAttributes,
		Method:     w.cfg.method,
	}
	w.entries = append(w.entries, entry)
	w.next += int64(res.PackedSize) //nolint:gosec // overflow checked above
	w.dirty = true

	w.log().Debug("added entry",
		"name", entry.Name,
		"size", entry.Size,
		"packed_size", entry.PackedSize,
		"offset", entry.Offset,
		"crc", fmt.Sprintf("%08x", entry.CRC))

	if w.cfg.finalizeOnAdd {
		if err := w.finalize(); err != nil {
			return Entry{}, w.fail(err)
		}
	}

	w.reportProgress(StageCompressing, path, res.Size, size)
	return entry, nil
}

// Close writes the end header, patches the signature header, syncs and
// closes the file. Calling Close again is a no-op that returns nil.
//
// If an earlier Add failed, Close closes the file without finalizing and
// returns ErrAborted. Closing a Writer with no entries fails with ErrFormat.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.failed != nil {
		_ = w.f.Close()
		w.log().Info("archive aborted", "path", w.name, "cause", w.failed)
		return ErrAborted.Wrap(w.failed, w.name)
	}

	err := w.finish()
	if cerr := w.f.Close(); err == nil && cerr != nil {
		err = ErrIO.Wrap(cerr, w.name)
	}
	if err != nil {
		return err
	}

	w.log().Info("archive written", "path", w.name, "entries", len(w.entries), "size", w.size())
	return nil
}

func (w *Writer) finish() error {
	if w.dirty || len(w.entries) == 0 {
		if err := w.finalize(); err != nil {
			return err
		}
	}
	if err := w.f.Sync(); err != nil {
		return ErrIO.Wrap(err, w.name)
	}
	if w.cfg.digest != "" {
		d, err := w.cfg.digest.FromReader(io.NewSectionReader(w.f, 0, w.size()))
		if err != nil {
			return ErrIO.Wrap(err, w.name)
		}
		w.digest = d
		w.log().Debug("archive digest computed", "digest", d.String())
	}
	return nil
}

// finalize writes the end header at the cursor and patches the signature
// trailer to point at it. The cursor does not move, so a later Add
// overwrites the end header with its pack stream.
func (w *Writer) finalize() error {
	w.reportProgress(StageFinalizing, "", 0, 0)

	hdr, err := header.Assemble(w.entries, header.Coder{
		ID:         w.comp.Method().ID(),
		Properties: w.comp.Properties(),
	})
	if err != nil {
		return err
	}

	if _, err := w.f.WriteAt(hdr, w.next); err != nil {
		return ErrIO.Wrap(err, fmt.Sprintf("%s at offset %d", w.name, w.next))
	}
	end := w.next + int64(len(hdr))
	if err := w.f.Truncate(end); err != nil {
		return ErrIO.Wrap(err, w.name)
	}

	sig := header.Signature{
		NextHeaderOffset: uint64(w.next - header.SignatureSize),
		NextHeaderSize:   uint64(len(hdr)),
		NextHeaderCRC:    crc32.ChecksumIEEE(hdr),
	}
	b := sig.Marshal()
	if _, err := w.f.WriteAt(b[header.TrailerOffset:], header.TrailerOffset); err != nil {
		return ErrIO.Wrap(err, fmt.Sprintf("%s at offset %d", w.name, header.TrailerOffset))
	}

	w.hdrSize = int64(len(hdr))
	w.dirty = false
	w.log().Debug("end header written", "offset", w.next, "size", len(hdr), "entries", len(w.entries))
	return nil
}

// Entries returns a copy of the entries added so far, in archive order.
func (w *Writer) Entries() []Entry {
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// Digest returns the digest of the finished archive. It is empty unless
// WithDigest was set and Close succeeded.
func (w *Writer) Digest() digest.Digest {
	return w.digest
}

func (w *Writer) size() int64 {
	return w.next + w.hdrSize
}

func (w *Writer) fail(err error) error {
	w.failed = err
	return err
}

func (w *Writer) onBytes(n uint64) {
	w.reportProgress(StageCompressing, w.cur.path, n, w.cur.total)
}

// reportProgress sends a progress event if a callback is configured.
func (w *Writer) reportProgress(stage ProgressStage, path string, bytesDone, bytesTotal uint64) {
	if w.cfg.progress == nil {
		return
	}
	w.cfg.progress(ProgressEvent{
		Stage:      stage,
		Path:       path,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
		FilesDone:  len(w.entries),
	})
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// entryName derives the archive name for a source path: the cleaned path
// with forward slashes, or the base name when the path is absolute or
// climbs out of the working directory.
func entryName(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	if filepath.IsAbs(path) || clean == ".." || strings.HasPrefix(clean, "../") {
		return filepath.Base(path)
	}
	return clean
}
