//go:build !windows

package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func platformFreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs failed for %s: %w", path, err)
	}
	// Bavail is the space available to unprivileged users, which is what an
	// archive write will actually get.
	return stat.Bavail * uint64(stat.Bsize), nil
}
