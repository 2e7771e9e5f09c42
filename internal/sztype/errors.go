package sztype

import errors "gopkg.in/src-d/go-errors.v1"

// Error kinds for archive operations. Match with Kind.Is.
var (
	// ErrIO is returned when a source cannot be read or the archive cannot be written.
	ErrIO = errors.NewKind("sevenz: i/o failure on %s")

	// ErrCodec is returned when an encoder fails.
	ErrCodec = errors.NewKind("sevenz: %s encoder failed")

	// ErrFormat is returned when data cannot be represented in (or parsed from) the 7z format.
	ErrFormat = errors.NewKind("sevenz: invalid format: %s")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.NewKind("sevenz: size overflow at offset %d")

	// ErrClosed is returned when a closed writer is used.
	ErrClosed = errors.NewKind("sevenz: writer is closed")

	// ErrAborted is returned by Close when an earlier Add failed and the
	// archive was left unfinished.
	ErrAborted = errors.NewKind("sevenz: archive %s not finalized after failed add")

	// ErrTooManyEntries is returned when the configured entry limit is reached.
	ErrTooManyEntries = errors.NewKind("sevenz: too many entries (limit %d)")
)
