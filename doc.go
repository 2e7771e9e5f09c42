// Package sevenz writes archives in the 7z format.
//
// Every file added to an archive is compressed into its own folder with a
// single coder. The packed streams follow the 32-byte signature header
// back to back, and the end header describing them is appended after the
// last one.
//
// # Quick Start
//
// Create an archive from a few files:
//
//	w, err := sevenz.Create("out.7z")
//	if err != nil {
//	    return err
//	}
//	for _, path := range []string{"README.md", "src/main.go"} {
//	    if _, err := w.Add(ctx, path); err != nil {
//	        w.Close()
//	        return err
//	    }
//	}
//	return w.Close()
//
// Entries default to LZMA2 with an 8 MiB dictionary. Use [WithMethod] to
// select Copy, Deflate, Zstd or LZ4 instead. Zstd and LZ4 use the method ids
// of the 7-Zip zstd fork and need a reader that supports them.
//
// # Finalization
//
// The end header is written once, by [Writer.Close]. Until then the file
// is not a readable archive. [WithFinalizeOnAdd] rewrites the end header
// after every Add instead, trading extra writes for an archive that is
// valid after each call.
//
// # Errors
//
// Errors are go-errors kinds ([ErrIO], [ErrCodec], [ErrFormat], ...) and
// are matched with their Is method, for example ErrIO.Is(err). The
// returned values do not implement Unwrap, so errors.Is and errors.As from
// the standard library do not see through them: Kind.Is follows causes
// only while they are themselves go-errors values, and the original
// failure behind [ErrAborted] is reached through the Cause method:
//
//	// errors is gopkg.in/src-d/go-errors.v1
//	if e, ok := err.(*errors.Error); ok && ErrAborted.Is(err) {
//	    log.Printf("archive discarded: %v", e.Cause())
//	}
//
// Context cancellation is the exception: an Add interrupted by its context
// returns the context's error unwrapped.
//
// A failed Add that already wrote to the archive leaves it unusable: the
// caller must discard the file.
package sevenz
