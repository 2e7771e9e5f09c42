package sztype

// ProgressEvent represents a progress update while an archive is written.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the source file currently being processed, if applicable.
	Path string

	// BytesDone is the number of uncompressed bytes consumed so far.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of entries completed.
	FilesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for archive creation.
const (
	// StageCompressing indicates a source file is being packed.
	StageCompressing ProgressStage = iota

	// StageFinalizing indicates the end header is being written.
	StageFinalizing
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageCompressing:
		return "compressing"
	case StageFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// It is called synchronously from the writer's goroutine.
type ProgressFunc func(ProgressEvent)
