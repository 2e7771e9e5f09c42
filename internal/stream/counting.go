package stream

import (
	"errors"
	"io"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// CountingWriter wraps a writer and counts bytes written.
//
// Err holds the first write error. Some encoders drop errors from their
// final flush, so callers check Err after closing the encoder.
type CountingWriter struct {
	W   io.Writer
	N   uint64
	Err error
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if n > 0 {
		//nolint:gosec // n is guaranteed non-negative by io.Writer contract
		if cw.N > ^uint64(0)-uint64(n) {
			err = ErrOverflow
		} else {
			cw.N += uint64(n) //nolint:gosec // overflow checked above
		}
	}
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && cw.Err == nil {
		cw.Err = err
	}
	return n, err
}
