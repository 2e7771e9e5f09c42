package sztype

// Method identifies the coder used to pack entries.
type Method uint8

const (
	MethodLZMA2 Method = iota
	MethodCopy
	MethodDeflate
	MethodZstd
	MethodLZ4
)

// String returns the human-readable name of the method.
func (m Method) String() string {
	switch m {
	case MethodLZMA2:
		return "lzma2"
	case MethodCopy:
		return "copy"
	case MethodDeflate:
		return "deflate"
	case MethodZstd:
		return "zstd"
	case MethodLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ID returns the 7z method identifier, or nil for an unknown method.
func (m Method) ID() []byte {
	switch m {
	case MethodLZMA2:
		return []byte{0x21}
	case MethodCopy:
		return []byte{0x00}
	case MethodDeflate:
		return []byte{0x04, 0x01, 0x08}
	case MethodZstd:
		return []byte{0x04, 0xf7, 0x11, 0x01}
	case MethodLZ4:
		return []byte{0x04, 0xf7, 0x11, 0x04}
	default:
		return nil
	}
}

// ParseMethod returns the method with the given name.
func ParseMethod(name string) (Method, bool) {
	for m := MethodLZMA2; m <= MethodLZ4; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}
