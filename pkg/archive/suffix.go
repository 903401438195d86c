package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// knownSuffixes is the set of filename suffixes recognized as belonging to an
// archive. Compound suffixes like ".tar.gz" appear here as their parts.
var knownSuffixes = map[string]struct{}{
	".zip": {},
	".tar": {},
	".gz":  {},
	".bz2": {},
	".xz":  {},
}

// StripSuffixes removes the contiguous trailing run of known archive suffixes
// from a filename, right to left, so "backup.tar.gz" becomes "backup" while
// "notes.txt" is returned unchanged. It is idempotent.
func StripSuffixes(name string) string {
	for {
		ext := filepath.Ext(name)
		if ext == "" {
			return name
		}
		if _, ok := knownSuffixes[ext]; !ok {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}

// DetectFormat infers the archive format from a filename's suffix. Compound
// suffixes are checked before their single-suffix prefixes so that
// "data.tar.gz" resolves to gztar, not tar.
func DetectFormat(filename string) (Format, error) {
	name := strings.ToLower(filename)
	for _, f := range [...]Format{GzTar, BzTar, XzTar, Zip, Tar} {
		if strings.HasSuffix(name, f.Suffix()) {
			return f, nil
		}
	}
	return "", fmt.Errorf("cannot determine archive format of %q", filename)
}
