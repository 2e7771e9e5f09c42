package stream

import (
	"context"
	"hash"
	"io"
)

// readError marks a failure of the source, as opposed to the encoder or
// the archive behind it.
type readError struct {
	err error
}

func (e *readError) Error() string { return e.err.Error() }

func (e *readError) Unwrap() error { return e.err }

// pump feeds src into dst in chunks of the Compressor's buffer size until
// EOF, checking ctx before every read. Each chunk is hashed into crc before
// it reaches dst, and the running total is reported to the progress
// callback. Source failures are returned as *readError.
func (c *Compressor) pump(ctx context.Context, dst io.Writer, src io.Reader, crc hash.Hash32) (uint64, error) {
	var read uint64
	for {
		if err := ctx.Err(); err != nil {
			return read, err
		}
		nr, er := src.Read(c.buf)
		if nr > 0 {
			chunk := c.buf[:nr]
			if read > ^uint64(0)-uint64(nr) { //nolint:gosec // nr is non-negative per the io.Reader contract
				return read, ErrOverflow
			}
			read += uint64(nr) //nolint:gosec // overflow checked above
			crc.Write(chunk)   //nolint:errcheck // hash.Hash never returns an error
			if c.progress != nil {
				c.progress(read)
			}

			nw, ew := dst.Write(chunk)
			if ew != nil {
				return read, ew
			}
			if nw != nr {
				return read, io.ErrShortWrite
			}
		}
		switch {
		case er == io.EOF:
			return read, nil
		case er != nil:
			return read, &readError{err: er}
		}
	}
}
