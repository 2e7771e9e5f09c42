// Package header serializes the 7z signature header and the end header
// that describes every pack stream, folder and file of an archive.
//
// Every entry is its own folder with a single coder. Blocks are emitted in
// entry order; the format has no per-block index, so all blocks must agree
// on that order.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/sevenz/internal/sztype"
	"github.com/meigma/sevenz/internal/varint"
)

// Property IDs.
const (
	idEnd              = 0x00
	idHeader           = 0x01
	idMainStreamsInfo  = 0x04
	idFilesInfo        = 0x05
	idPackInfo         = 0x06
	idUnpackInfo       = 0x07
	idSubStreamsInfo   = 0x08
	idSize             = 0x09
	idCRC              = 0x0a
	idFolder           = 0x0b
	idCodersUnpackSize = 0x0c
	idName             = 0x11
	idMTime            = 0x14
	idWinAttributes    = 0x15
)

// Coder info flags.
const (
	coderIDSizeMask      = 0x0f
	coderHasProperties   = 0x20
	maxCoderIDSize       = coderIDSizeMask
	allDefined           = 0x01
	notExternal          = 0x00
	propertiesHeaderSize = 2 // all-defined flag + external flag
)

// Coder describes the coder shared by every folder.
type Coder struct {
	// ID is the 7z method identifier.
	ID []byte

	// Properties are the coder properties; nil when the method takes none.
	Properties []byte
}

// Assemble serializes the end header for entries, in entry order.
//
// The result is freshly allocated on every call; nothing is retained
// between calls.
func Assemble(entries []sztype.Entry, c Coder) ([]byte, error) {
	if len(entries) == 0 {
		return nil, sztype.ErrFormat.New("archive has no entries")
	}
	if len(c.ID) == 0 || len(c.ID) > maxCoderIDSize {
		return nil, sztype.ErrFormat.New(fmt.Sprintf("coder id length %d", len(c.ID)))
	}

	names := make([][]byte, len(entries))
	namesSize := uint64(1) // external flag
	for i := range entries {
		name, err := EncodeName(entries[i].Name)
		if err != nil {
			return nil, err
		}
		names[i] = name
		namesSize += uint64(len(name))
	}

	n := uint64(len(entries))
	b := &builder{buf: make([]byte, 0, 64+len(entries)*(24+len(c.ID)+len(c.Properties))+int(namesSize))} //nolint:gosec // namesSize is bounded by in-memory names

	b.id(idHeader)

	b.id(idMainStreamsInfo)
	writePackInfo(b, entries)
	writeUnpackInfo(b, entries, c)
	writeSubStreamsInfo(b, entries)
	b.id(idEnd)

	b.id(idFilesInfo)
	b.num(n)

	b.id(idName)
	b.num(namesSize)
	b.raw(notExternal)
	for _, name := range names {
		b.raw(name...)
	}

	b.id(idMTime)
	b.num(propertiesHeaderSize + 8*n)
	b.raw(allDefined, notExternal)
	for i := range entries {
		b.le64(sztype.FileTime(entries[i].ModTime))
	}

	b.id(idWinAttributes)
	b.num(propertiesHeaderSize + 4*n)
	b.raw(allDefined, notExternal)
	for i := range entries {
		b.le32(entries[i].Attributes)
	}

	b.id(idEnd) // files info
	b.id(idEnd) // header

	return b.buf, nil
}

// writePackInfo records one pack stream per entry, packed back to back
// from the start of the data region.
func writePackInfo(b *builder, entries []sztype.Entry) {
	b.id(idPackInfo)
	b.num(0)
	b.num(uint64(len(entries)))
	b.id(idSize)
	for i := range entries {
		b.num(entries[i].PackedSize)
	}
	b.id(idEnd)
}

// writeUnpackInfo records one single-coder folder per entry. Folder CRCs
// are not written; per-file CRCs live in the substreams block.
func writeUnpackInfo(b *builder, entries []sztype.Entry, c Coder) {
	b.id(idUnpackInfo)
	b.id(idFolder)
	b.num(uint64(len(entries)))
	b.raw(notExternal)

	info := byte(len(c.ID)) & coderIDSizeMask
	if len(c.Properties) > 0 {
		info |= coderHasProperties
	}
	for range entries {
		b.num(1) // coders in folder
		b.raw(info)
		b.raw(c.ID...)
		if len(c.Properties) > 0 {
			b.num(uint64(len(c.Properties)))
			b.raw(c.Properties...)
		}
	}

	b.id(idCodersUnpackSize)
	for i := range entries {
		b.num(entries[i].Size)
	}
	b.id(idEnd)
}

// writeSubStreamsInfo records the CRC of every entry. Each folder holds one
// substream, so no stream counts or sizes are needed.
func writeSubStreamsInfo(b *builder, entries []sztype.Entry) {
	b.id(idSubStreamsInfo)
	b.id(idCRC)
	b.raw(allDefined)
	for i := range entries {
		b.le32(entries[i].CRC)
	}
	b.id(idEnd)
}

type builder struct {
	buf []byte
}

func (b *builder) id(v byte) {
	b.buf = append(b.buf, v)
}

func (b *builder) num(v uint64) {
	b.buf = varint.Append(b.buf, v)
}

func (b *builder) raw(p ...byte) {
	b.buf = append(b.buf, p...)
}

func (b *builder) le32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

func (b *builder) le64(v uint64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
}
