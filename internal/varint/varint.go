// Package varint implements the variable-length unsigned integer encoding
// used by 7z headers.
//
// The first byte carries a unary length prefix in its high bits: each set bit
// (starting at 0x80) announces one more little-endian byte after it. The
// remaining low bits of the first byte hold the most significant bits of the
// value. A first byte of 0xFF is followed by the full 64-bit value.
//
// The package is the complete codec. The header builder only needs Append;
// the decoding half serves readers of the format, such as the test decoder.
package varint

import (
	"io"

	"github.com/meigma/sevenz/internal/sztype"
)

// MaxLen is the longest encoding of a uint64.
const MaxLen = 9

// Len returns the number of bytes Append would emit for v.
func Len(v uint64) int {
	for i := range 8 {
		if v < 1<<(7*(i+1)) {
			return i + 1
		}
	}
	return MaxLen
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append(dst []byte, v uint64) []byte {
	var first byte
	mask := byte(0x80)
	i := 0
	for ; i < 8; i++ {
		if v < 1<<(7*(i+1)) {
			first |= byte(v >> (8 * i))
			break
		}
		first |= mask
		mask >>= 1
	}

	dst = append(dst, first)
	for ; i > 0; i-- {
		dst = append(dst, byte(v))
		v >>= 8
	}
	return dst
}

// Encode returns the encoding of v.
func Encode(v uint64) []byte {
	return Append(make([]byte, 0, Len(v)), v)
}

// Write writes the encoding of v to w.
func Write(w io.ByteWriter, v uint64) error {
	var buf [MaxLen]byte
	for _, b := range Append(buf[:0], v) {
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one encoded value from r.
//
// A stream that ends before the announced number of bytes fails with
// sztype.ErrFormat.
func Decode(r io.ByteReader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, sztype.ErrFormat.Wrap(err, "varint: missing length byte")
	}

	mask := byte(0x80)
	var v uint64
	for i := range 8 {
		if first&mask == 0 {
			high := uint64(first & (mask - 1))
			return v | high<<(8*i), nil
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, sztype.ErrFormat.Wrap(err, "varint: truncated value")
		}
		v |= uint64(b) << (8 * i)
		mask >>= 1
	}
	return v, nil
}

// Parse decodes one value from the start of b and reports how many bytes
// it consumed.
func Parse(b []byte) (v uint64, n int, err error) {
	r := &sliceReader{b: b}
	v, err = Decode(r)
	if err != nil {
		return 0, 0, err
	}
	return v, r.off, nil
}

type sliceReader struct {
	b   []byte
	off int
}

func (r *sliceReader) ReadByte() (byte, error) {
	if r.off >= len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	c := r.b[r.off]
	r.off++
	return c, nil
}
