package sevenz

import (
	_ "crypto/sha256" // register digest algorithms
	_ "crypto/sha512"
	"log/slog"

	"github.com/opencontainers/go-digest"
)

// DefaultMaxEntries is the default limit used when no WithMaxEntries option is set.
const DefaultMaxEntries = 200_000

// ChangeDetection controls how strictly source changes are detected while
// they are packed.
type ChangeDetection uint8

const (
	ChangeDetectionNone ChangeDetection = iota
	ChangeDetectionStrict
)

// writerConfig holds configuration for a Writer.
type writerConfig struct {
	method          Method
	level           int
	dictSize        int
	chunkSize       int
	changeDetection ChangeDetection
	finalizeOnAdd   bool
	digest          digest.Algorithm
	maxEntries      int
	logger          *slog.Logger
	progress        ProgressFunc
}

// Option configures a Writer.
type Option func(*writerConfig)

// WithMethod sets the coder used for every entry. The default is MethodLZMA2.
func WithMethod(m Method) Option {
	return func(cfg *writerConfig) {
		cfg.method = m
	}
}

// WithLevel sets a method-specific compression level. Zero selects the
// method's default. LZMA2 and Copy ignore it.
func WithLevel(level int) Option {
	return func(cfg *writerConfig) {
		cfg.level = level
	}
}

// WithDictSize sets the LZMA2 dictionary size in bytes.
func WithDictSize(n int) Option {
	return func(cfg *writerConfig) {
		cfg.dictSize = n
	}
}

// WithChunkSize sets the size of each read from a source file.
// The archive layout does not depend on it.
func WithChunkSize(n int) Option {
	return func(cfg *writerConfig) {
		cfg.chunkSize = n
	}
}

// WithChangeDetection controls whether the writer verifies sources did not
// change while they were packed. The zero value disables the extra stat
// calls; ChangeDetectionStrict fails Add when a source moved underneath it.
func WithChangeDetection(cd ChangeDetection) Option {
	return func(cfg *writerConfig) {
		cfg.changeDetection = cd
	}
}

// WithFinalizeOnAdd rewrites the end header and signature trailer after
// every successful Add, so the archive is readable after any prefix of
// calls. By default the end header is written once, by Close.
func WithFinalizeOnAdd(enabled bool) Option {
	return func(cfg *writerConfig) {
		cfg.finalizeOnAdd = enabled
	}
}

// WithDigest makes Close compute a digest of the finished archive with alg,
// available afterwards from Writer.Digest.
func WithDigest(alg digest.Algorithm) Option {
	return func(cfg *writerConfig) {
		cfg.digest = alg
	}
}

// WithMaxEntries limits the number of entries in the archive.
// Zero uses DefaultMaxEntries. Negative means no limit.
func WithMaxEntries(n int) Option {
	return func(cfg *writerConfig) {
		cfg.maxEntries = n
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *writerConfig) {
		cfg.logger = logger
	}
}

// WithProgress sets a callback to receive progress updates.
// The callback receives events for each source as it is packed and once
// when the end header is written.
func WithProgress(fn ProgressFunc) Option {
	return func(cfg *writerConfig) {
		cfg.progress = fn
	}
}

// addConfig holds per-call configuration for Add.
type addConfig struct {
	name string
}

// AddOption configures a single Add call.
type AddOption func(*addConfig)

// AddWithName stores the entry under name instead of the name derived from
// the source path. Use forward slashes as separators.
func AddWithName(name string) AddOption {
	return func(cfg *addConfig) {
		cfg.name = name
	}
}
