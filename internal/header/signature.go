package header

import (
	"encoding/binary"
	"hash/crc32"
)

// SignatureSize is the fixed size of the signature header at offset 0.
const SignatureSize = 32

// Format version written to every archive.
const (
	VersionMajor = 0
	VersionMinor = 4
)

// Magic identifies a 7z archive.
var Magic = [6]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}

// Signature is the trailer of the signature header: where the end header
// lives and how to verify it.
type Signature struct {
	// NextHeaderOffset is the end header's offset relative to the end of
	// the signature header.
	NextHeaderOffset uint64

	// NextHeaderSize is the end header's length in bytes.
	NextHeaderSize uint64

	// NextHeaderCRC is the CRC-32 of the end header bytes.
	NextHeaderCRC uint32
}

// StartHeader returns the 20 trailer bytes covered by the start header CRC.
func (s Signature) StartHeader() [20]byte {
	var b [20]byte
	binary.LittleEndian.PutUint64(b[0:], s.NextHeaderOffset)
	binary.LittleEndian.PutUint64(b[8:], s.NextHeaderSize)
	binary.LittleEndian.PutUint32(b[16:], s.NextHeaderCRC)
	return b
}

// StartHeaderCRC returns the CRC-32 of StartHeader.
func (s Signature) StartHeaderCRC() uint32 {
	b := s.StartHeader()
	return crc32.ChecksumIEEE(b[:])
}

// Marshal returns the complete signature header.
func (s Signature) Marshal() [SignatureSize]byte {
	b := Placeholder()
	binary.LittleEndian.PutUint32(b[8:], s.StartHeaderCRC())
	start := s.StartHeader()
	copy(b[12:], start[:])
	return b
}

// Placeholder returns a signature header with magic and version set and
// the trailer fields zeroed, to reserve space before the end header exists.
func Placeholder() [SignatureSize]byte {
	var b [SignatureSize]byte
	copy(b[:], Magic[:])
	b[6] = VersionMajor
	b[7] = VersionMinor
	return b
}

// TrailerOffset is the position of the start header CRC, the first field
// patched when an archive is finalized.
const TrailerOffset = 8
