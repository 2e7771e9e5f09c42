// Package coder builds the stream encoders used to pack archive entries and
// describes them the way a 7z folder records its coder.
package coder

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/meigma/sevenz/internal/sztype"
)

// DefaultDictSize is the LZMA2 dictionary size used when none is configured.
const DefaultDictSize = 8 << 20

// DefaultZstdLevel is the zstd level used when none is configured.
const DefaultZstdLevel = 3

// Config selects and tunes a coder.
type Config struct {
	// Method is the coder to use.
	Method sztype.Method

	// Level is a method-specific compression level. Zero selects the
	// method's default. Ignored by LZMA2 and Copy.
	Level int

	// DictSize is the LZMA2 dictionary capacity in bytes. Zero selects
	// DefaultDictSize.
	DictSize int
}

// Verify checks that the configuration can produce an encoder.
func (c Config) Verify() error {
	switch c.Method {
	case sztype.MethodLZMA2:
		d := c.dictSize()
		if d < lzma.MinDictCap || int64(d) > lzma.MaxDictCap {
			return fmt.Errorf("lzma2 dictionary size %d out of range", d)
		}
	case sztype.MethodCopy:
	case sztype.MethodDeflate:
		if c.Level < 0 || c.Level > flate.BestCompression {
			return fmt.Errorf("deflate level %d out of range", c.Level)
		}
	case sztype.MethodZstd:
		if c.Level < 0 || c.Level > 22 {
			return fmt.Errorf("zstd level %d out of range", c.Level)
		}
	case sztype.MethodLZ4:
		if c.Level < 0 || c.Level > 9 {
			return fmt.Errorf("lz4 level %d out of range", c.Level)
		}
	default:
		return fmt.Errorf("unknown method %d", c.Method)
	}
	return nil
}

// NewEncoder returns an encoder that writes packed output to w. Closing the
// encoder flushes any buffered output; it does not close w.
func (c Config) NewEncoder(w io.Writer) (io.WriteCloser, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}

	switch c.Method {
	case sztype.MethodLZMA2:
		cfg := lzma.Writer2Config{DictCap: c.dictSize()}
		enc, err := cfg.NewWriter2(w)
		if err != nil {
			return nil, fmt.Errorf("create lzma2 encoder: %w", err)
		}
		return enc, nil
	case sztype.MethodCopy:
		return nopCloser{w}, nil
	case sztype.MethodDeflate:
		level := c.Level
		if level == 0 {
			level = flate.DefaultCompression
		}
		enc, err := flate.NewWriter(w, level)
		if err != nil {
			return nil, fmt.Errorf("create deflate encoder: %w", err)
		}
		return enc, nil
	case sztype.MethodZstd:
		enc, err := zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.zstdLevel())),
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, nil
	default: // sztype.MethodLZ4, Verify rejected everything else
		enc := lz4.NewWriter(w)
		if err := enc.Apply(lz4.CompressionLevelOption(lz4Level(c.Level)), lz4.ConcurrencyOption(1)); err != nil {
			return nil, fmt.Errorf("create lz4 encoder: %w", err)
		}
		return enc, nil
	}
}

// Properties returns the coder properties recorded in the folder, or nil
// when the method takes none.
func (c Config) Properties() []byte {
	switch c.Method {
	case sztype.MethodLZMA2:
		return []byte{DictSizeProperty(uint32(c.dictSize()))} //nolint:gosec // Verify bounds the size to uint32
	case sztype.MethodZstd:
		return []byte{1, 5, byte(c.zstdLevel()), 0, 0}
	case sztype.MethodLZ4:
		return []byte{1, 10, byte(c.Level), 0, 0} //nolint:gosec // Verify bounds the level
	default:
		return nil
	}
}

// DictSizeProperty encodes an LZMA2 dictionary size as the one-byte
// property: the smallest p with size <= (2 | p&1) << (p/2 + 11), or 40 for
// sizes above 3 GiB.
func DictSizeProperty(size uint32) byte {
	for p := range byte(40) {
		if uint64(size) <= uint64(2|p&1)<<(p/2+11) {
			return p
		}
	}
	return 40
}

// DictSizeFromProperty is the inverse of DictSizeProperty.
func DictSizeFromProperty(p byte) uint32 {
	if p >= 40 {
		return 0xffffffff
	}
	return uint32(2|p&1) << (p/2 + 11)
}

func (c Config) dictSize() int {
	if c.DictSize == 0 {
		return DefaultDictSize
	}
	return c.DictSize
}

func (c Config) zstdLevel() int {
	if c.Level == 0 {
		return DefaultZstdLevel
	}
	return c.Level
}

func lz4Level(level int) lz4.CompressionLevel {
	if level == 0 {
		return lz4.Fast
	}
	return lz4.CompressionLevel(1 << (8 + level))
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
