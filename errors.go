package sevenz

import "github.com/meigma/sevenz/internal/sztype"

// Error kinds re-exported from sztype. Match errors with Kind.Is, for
// example ErrIO.Is(err). Errors of these kinds do not unwrap, so
// errors.Is(err, context.Canceled) is false for an ErrAborted whose cause
// was a cancellation; use the Cause method of *errors.Error instead.
var (
	// ErrIO is returned when a source cannot be read or the archive cannot
	// be written. The message names the path, and the offset for archive
	// writes.
	ErrIO = sztype.ErrIO

	// ErrCodec is returned when an encoder fails or is misconfigured.
	ErrCodec = sztype.ErrCodec

	// ErrFormat is returned for data the format cannot represent: an archive
	// without entries, or an entry name that is empty, contains NUL or is not
	// valid UTF-8.
	ErrFormat = sztype.ErrFormat

	// ErrSizeOverflow is returned when archive offsets exceed supported limits.
	ErrSizeOverflow = sztype.ErrSizeOverflow

	// ErrClosed is returned by Add after Close.
	ErrClosed = sztype.ErrClosed

	// ErrAborted is returned by Add and Close after an Add failed part way
	// through. Its cause is the original failure.
	ErrAborted = sztype.ErrAborted

	// ErrTooManyEntries is returned when the archive already holds the
	// maximum number of entries.
	ErrTooManyEntries = sztype.ErrTooManyEntries
)
