// Package sztype defines shared types used across the sevenz package and its
// internal packages. This avoids circular imports between sevenz and the
// header and stream packages.
package sztype

import "time"

// DefaultAttributes is the attribute word recorded for every entry.
// No platform attribute mapping is performed.
const DefaultAttributes uint32 = 0x00202000

// Entry represents a file in the archive.
type Entry struct {
	// Name is the path stored in the archive (e.g., "src/main.go").
	Name string

	// ModTime is the source file's modification time.
	ModTime time.Time

	// Offset is the position of the entry's packed stream, relative to the
	// end of the signature header.
	Offset uint64

	// Size is the uncompressed size in bytes.
	Size uint64

	// PackedSize is the size in bytes of the entry's packed stream.
	PackedSize uint64

	// CRC is the CRC-32 (IEEE) of the uncompressed content.
	CRC uint32

	// Attributes is the Windows attribute word stored for the entry.
	Attributes uint32

	// Method is the coder the entry was packed with.
	Method Method
}

// epochOffset is the Unix time of the FILETIME epoch (1601-01-01 UTC).
const epochOffset = -11644473600

// ticksPerSecond is the number of FILETIME ticks (100ns) per second.
const ticksPerSecond = 10_000_000

// FileTime converts t to a FILETIME tick count. Times before 1601 clamp to 0.
func FileTime(t time.Time) uint64 {
	secs := t.Unix() - epochOffset
	if secs < 0 {
		return 0
	}
	return uint64(secs)*ticksPerSecond + uint64(t.Nanosecond())/100 //nolint:gosec // secs checked non-negative
}

// TimeFromFileTime converts a FILETIME tick count back to UTC time.
func TimeFromFileTime(ticks uint64) time.Time {
	secs := int64(ticks/ticksPerSecond) + epochOffset //nolint:gosec // ticks/1e7 fits in int64
	nsec := int64(ticks%ticksPerSecond) * 100         //nolint:gosec // remainder is small
	return time.Unix(secs, nsec).UTC()
}
