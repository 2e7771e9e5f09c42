package sevenz

import "github.com/meigma/sevenz/internal/sztype"

// --- Re-exports from sztype ---

// Entry describes a file stored in the archive.
type Entry = sztype.Entry

// Method identifies the coder used to pack entries.
type Method = sztype.Method

// Method constants.
const (
	MethodLZMA2   = sztype.MethodLZMA2
	MethodCopy    = sztype.MethodCopy
	MethodDeflate = sztype.MethodDeflate
	MethodZstd    = sztype.MethodZstd
	MethodLZ4     = sztype.MethodLZ4
)

// ParseMethod returns the method with the given name ("lzma2", "copy",
// "deflate", "zstd" or "lz4").
var ParseMethod = sztype.ParseMethod

// DefaultAttributes is the attribute word recorded for every entry.
const DefaultAttributes = sztype.DefaultAttributes

// Re-export progress types.
type (
	// ProgressEvent represents a progress update while an archive is written.
	ProgressEvent = sztype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = sztype.ProgressStage

	// ProgressFunc receives progress updates. It is called synchronously
	// from the goroutine calling Add or Close.
	ProgressFunc = sztype.ProgressFunc
)

// Progress stage constants.
const (
	// StageCompressing indicates a source file is being packed.
	StageCompressing = sztype.StageCompressing

	// StageFinalizing indicates the end header is being written.
	StageFinalizing = sztype.StageFinalizing
)
