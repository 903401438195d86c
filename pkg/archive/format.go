package archive

import (
	"fmt"
	"strings"

	"arcbatch/pkg/util"
)

// Format represents a supported archive encoding.
type Format string

const (
	Zip   Format = "zip"
	Tar   Format = "tar"
	GzTar Format = "gztar"
	BzTar Format = "bztar"
	XzTar Format = "xztar"
)

var formatToSuffix = map[Format]string{
	Zip:   ".zip",
	Tar:   ".tar",
	GzTar: ".tar.gz",
	BzTar: ".tar.bz2",
	XzTar: ".tar.xz",
}

var suffixToFormat map[string]Format

func init() {
	// Inverting the map at runtime ensures formatToSuffix is fully loaded
	suffixToFormat = util.InvertMap(formatToSuffix)
}

func (f Format) String() string {
	if _, ok := formatToSuffix[f]; ok {
		return string(f)
	}
	return fmt.Sprintf("unknown_archive_format(%s)", string(f))
}

// Suffix returns the canonical filename suffix for the format, including the
// leading dot (e.g. ".tar.gz").
func (f Format) Suffix() string {
	return formatToSuffix[f]
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if _, ok := formatToSuffix[f]; ok {
		return f, nil
	}
	return "", fmt.Errorf("invalid archive format: %q. Must be 'zip', 'tar', 'gztar', 'bztar', or 'xztar'", s)
}
