// Package preflight provides validation checks that run before a batch
// begins. The checks are stateless and give friendlier errors than letting
// os.MkdirAll or the archive writers fail mid-run.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckOutputDir verifies that outputDir either is a directory or can be
// created as one (its deepest existing ancestor must be an accessible
// directory).
func CheckOutputDir(outputDir string) error {
	info, err := os.Stat(outputDir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access output path: %w", err)
	}

	// Find the deepest existing ancestor and make sure it is a directory.
	ancestor := outputDir
	for {
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break // Hit root
		}
		ancestor = parent
		if info, err := os.Stat(ancestor); err == nil {
			if !info.IsDir() {
				return fmt.Errorf("ancestor of output path is not a directory: %s", ancestor)
			}
			break
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access ancestor %s: %w", ancestor, err)
		}
	}
	return nil
}

// FreeSpace reports the bytes available to the current user on the volume
// holding path. The path must exist; pass the deepest existing directory.
func FreeSpace(path string) (uint64, error) {
	return platformFreeSpace(path)
}
