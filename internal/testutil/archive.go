package testutil

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/sevenz/internal/header"
	"github.com/meigma/sevenz/internal/sztype"
	"github.com/meigma/sevenz/internal/varint"
)

// Folder is a decoded single-coder folder record.
type Folder struct {
	CoderID    []byte
	Properties []byte
}

// Archive is a decoded archive as written by this module. It understands
// only the subset of the format the writer emits.
type Archive struct {
	// Raw is the full archive.
	Raw []byte

	// Major and Minor are the format version bytes.
	Major, Minor byte

	// StartCRC is the stored start header CRC.
	StartCRC uint32

	// Signature is the decoded signature trailer.
	Signature header.Signature

	// Header is the raw end header.
	Header []byte

	PackPos     uint64
	PackSizes   []uint64
	Folders     []Folder
	UnpackSizes []uint64
	CRCs        []uint32
	Names       []string
	MTimes      []time.Time
	Attributes  []uint32
}

// ParseArchive decodes b and verifies the start header and end header CRCs.
func ParseArchive(b []byte) (*Archive, error) {
	if len(b) < header.SignatureSize {
		return nil, fmt.Errorf("archive too short: %d bytes", len(b))
	}
	if !bytes.Equal(b[:6], header.Magic[:]) {
		return nil, errors.New("bad magic")
	}

	a := &Archive{
		Raw:      b,
		Major:    b[6],
		Minor:    b[7],
		StartCRC: binary.LittleEndian.Uint32(b[8:]),
		Signature: header.Signature{
			NextHeaderOffset: binary.LittleEndian.Uint64(b[12:]),
			NextHeaderSize:   binary.LittleEndian.Uint64(b[20:]),
			NextHeaderCRC:    binary.LittleEndian.Uint32(b[28:]),
		},
	}
	if got := crc32.ChecksumIEEE(b[12:32]); got != a.StartCRC {
		return nil, fmt.Errorf("start header crc %08x, stored %08x", got, a.StartCRC)
	}

	start := header.SignatureSize + a.Signature.NextHeaderOffset
	end := start + a.Signature.NextHeaderSize
	if end > uint64(len(b)) || start > end {
		return nil, fmt.Errorf("end header [%d, %d) outside archive of %d bytes", start, end, len(b))
	}
	a.Header = b[start:end]
	if got := crc32.ChecksumIEEE(a.Header); got != a.Signature.NextHeaderCRC {
		return nil, fmt.Errorf("end header crc %08x, stored %08x", got, a.Signature.NextHeaderCRC)
	}

	if err := a.parseHeader(); err != nil {
		return nil, err
	}
	return a, nil
}

// PackStream returns the packed bytes of entry i.
func (a *Archive) PackStream(i int) []byte {
	off := uint64(header.SignatureSize) + a.PackPos
	for _, s := range a.PackSizes[:i] {
		off += s
	}
	return a.Raw[off : off+a.PackSizes[i]]
}

type parser struct {
	r *bufio.Reader
}

func (p *parser) expect(want byte) error {
	got, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("property id %#02x, want %#02x", got, want)
	}
	return nil
}

func (p *parser) num() (uint64, error) {
	return varint.Decode(p.r)
}

func (p *parser) bytes(n uint64) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(p.r, b)
	return b, err
}

func (p *parser) u32() (uint32, error) {
	b, err := p.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p *parser) u64() (uint64, error) {
	b, err := p.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (p *parser) nums(n uint64) ([]uint64, error) {
	out := make([]uint64, n)
	for i := range out {
		v, err := p.num()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a *Archive) parseHeader() error {
	p := &parser{r: bufio.NewReader(bytes.NewReader(a.Header))}

	for _, step := range []func(*parser) error{
		func(p *parser) error { return p.expect(0x01) },
		func(p *parser) error { return p.expect(0x04) },
		a.parsePackInfo,
		a.parseUnpackInfo,
		a.parseSubStreamsInfo,
		func(p *parser) error { return p.expect(0x00) },
		a.parseFilesInfo,
		func(p *parser) error { return p.expect(0x00) },
	} {
		if err := step(p); err != nil {
			return err
		}
	}
	if _, err := p.r.ReadByte(); err != io.EOF {
		return errors.New("trailing bytes after end header")
	}
	return nil
}

func (a *Archive) parsePackInfo(p *parser) error {
	if err := p.expect(0x06); err != nil {
		return err
	}
	var err error
	if a.PackPos, err = p.num(); err != nil {
		return err
	}
	n, err := p.num()
	if err != nil {
		return err
	}
	if err := p.expect(0x09); err != nil {
		return err
	}
	if a.PackSizes, err = p.nums(n); err != nil {
		return err
	}
	return p.expect(0x00)
}

func (a *Archive) parseUnpackInfo(p *parser) error {
	if err := p.expect(0x07); err != nil {
		return err
	}
	if err := p.expect(0x0b); err != nil {
		return err
	}
	n, err := p.num()
	if err != nil {
		return err
	}
	if err := p.expect(0x00); err != nil {
		return err
	}
	a.Folders = make([]Folder, n)
	for i := range a.Folders {
		coders, err := p.num()
		if err != nil {
			return err
		}
		if coders != 1 {
			return fmt.Errorf("folder %d has %d coders", i, coders)
		}
		info, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		if a.Folders[i].CoderID, err = p.bytes(uint64(info & 0x0f)); err != nil {
			return err
		}
		if info&0x20 != 0 {
			size, err := p.num()
			if err != nil {
				return err
			}
			if a.Folders[i].Properties, err = p.bytes(size); err != nil {
				return err
			}
		}
	}
	if err := p.expect(0x0c); err != nil {
		return err
	}
	if a.UnpackSizes, err = p.nums(n); err != nil {
		return err
	}
	return p.expect(0x00)
}

func (a *Archive) parseSubStreamsInfo(p *parser) error {
	for _, id := range []byte{0x08, 0x0a, 0x01} {
		if err := p.expect(id); err != nil {
			return err
		}
	}
	a.CRCs = make([]uint32, len(a.Folders))
	for i := range a.CRCs {
		v, err := p.u32()
		if err != nil {
			return err
		}
		a.CRCs[i] = v
	}
	return p.expect(0x00)
}

func (a *Archive) parseFilesInfo(p *parser) error {
	if err := p.expect(0x05); err != nil {
		return err
	}
	n, err := p.num()
	if err != nil {
		return err
	}

	for {
		id, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		if id == 0x00 {
			return nil
		}
		size, err := p.num()
		if err != nil {
			return err
		}
		payload, err := p.bytes(size)
		if err != nil {
			return err
		}
		switch id {
		case 0x11:
			a.Names, err = parseNames(payload, n)
		case 0x14:
			a.MTimes, err = parseTimes(payload, n)
		case 0x15:
			a.Attributes, err = parseAttributes(payload, n)
		default:
			err = fmt.Errorf("unexpected file property %#02x", id)
		}
		if err != nil {
			return err
		}
	}
}

func parseNames(b []byte, n uint64) ([]string, error) {
	if len(b) == 0 || b[0] != 0 {
		return nil, errors.New("external names")
	}
	b = b[1:]
	names := make([]string, 0, n)
	for len(b) > 0 {
		end := -1
		for i := 0; i+1 < len(b); i += 2 {
			if b[i] == 0 && b[i+1] == 0 {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, errors.New("unterminated name")
		}
		name, err := decodeName(b[:end+2])
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		b = b[end+2:]
	}
	if uint64(len(names)) != n {
		return nil, fmt.Errorf("%d names for %d files", len(names), n)
	}
	return names, nil
}

func parseTimes(b []byte, n uint64) ([]time.Time, error) {
	if uint64(len(b)) != 2+8*n || b[0] != 1 || b[1] != 0 {
		return nil, fmt.Errorf("malformed mtime property of %d bytes", len(b))
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = sztype.TimeFromFileTime(binary.LittleEndian.Uint64(b[2+8*i:]))
	}
	return out, nil
}

func parseAttributes(b []byte, n uint64) ([]uint32, error) {
	if uint64(len(b)) != 2+4*n || b[0] != 1 || b[1] != 0 {
		return nil, fmt.Errorf("malformed attribute property of %d bytes", len(b))
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[2+4*i:])
	}
	return out, nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeName decodes a UTF-16LE name. A trailing terminator is optional.
func decodeName(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.New("odd-length UTF-16 name")
	}
	if n := len(b); n >= 2 && b[n-2] == 0 && b[n-1] == 0 {
		b = b[:n-2]
	}
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode name: %w", err)
	}
	if bytes.IndexByte(s, 0) >= 0 {
		return "", errors.New("name contains NUL")
	}
	return string(s), nil
}
