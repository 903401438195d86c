// Package bytesize provides byte counts for files and directory trees along
// with human-readable formatting. Sizes are plain int64 byte counts; unit
// selection happens only at display time.
package bytesize

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Size is a byte count. Arithmetic is done directly on the underlying
// integer; only formatting is unit-aware.
type Size int64

const kb = 1024

// suffixes in ascending unit order. The scale jumps from GB straight to PB,
// matching the historical log output this package replaces.
var suffixes = [...]string{"B", "KB", "MB", "GB", "PB"}

var divisors = [...]float64{1, kb, kb * kb, kb * kb * kb, kb * kb * kb * kb}

// String formats the size using the largest unit for which the scaled value
// is at least 1 and below 1024, falling back to PB for anything larger.
func (s Size) String() string {
	return s.Format("%.2f")
}

// Format is like String but with a caller-supplied numeric format verb.
func (s Size) Format(verb string) string {
	idx := len(suffixes) - 1
	for i := range suffixes[:len(suffixes)-1] {
		v := float64(s) / divisors[i]
		if v < kb {
			idx = i
			break
		}
	}
	return fmt.Sprintf(verb+" %s", float64(s)/divisors[idx], suffixes[idx])
}

// NotAFileError reports that a path handed to FileSize is not a regular file.
type NotAFileError struct {
	Path string
}

func (e *NotAFileError) Error() string {
	return fmt.Sprintf("%s is not a file", e.Path)
}

// NotADirectoryError reports that a path handed to FolderSize is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("%s is not a directory", e.Path)
}

// FileSize returns the size of a regular file from filesystem metadata.
func FileSize(path string) (Size, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, &NotAFileError{Path: path}
	}
	return Size(info.Size()), nil
}

// FolderSize returns the total size of all regular files reachable under the
// directory. Symlinks and the directory entries themselves are excluded.
func FolderSize(path string) (Size, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return 0, &NotADirectoryError{Path: path}
	}

	var total Size
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += Size(fi.Size())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure directory %s: %w", path, err)
	}
	return total, nil
}
