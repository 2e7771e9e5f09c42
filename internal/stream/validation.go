package stream

import (
	"errors"
	"io/fs"
	"os"

	"github.com/meigma/sevenz/internal/sztype"
)

// CheckFileUnchanged verifies a file wasn't modified while it was packed.
// In strict mode, it compares size, mtime, and permissions before/after.
func CheckFileUnchanged(f *os.File, path string, before fs.FileInfo, strict bool) error {
	if !strict {
		return nil
	}
	after, err := f.Stat()
	if err != nil {
		return sztype.ErrIO.Wrap(err, path)
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) || after.Mode().Perm() != before.Mode().Perm() {
		return sztype.ErrIO.Wrap(errors.New("file changed during archive creation"), path)
	}
	return nil
}

// ValidateFileInfo checks that the opened file is the one that was stat'ed
// by path. It is a no-op outside strict mode.
func ValidateFileInfo(path string, info, finfo fs.FileInfo, strict bool) error {
	if !strict {
		return nil
	}
	if info == nil {
		return sztype.ErrIO.Wrap(errors.New("missing file info"), path)
	}
	if !os.SameFile(info, finfo) {
		return sztype.ErrIO.Wrap(errors.New("file replaced during archive creation"), path)
	}
	return nil
}
