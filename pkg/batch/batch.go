// Package batch implements the per-entry orchestration loops for bulk
// archiving and bulk unpacking: derive the destination path, skip or
// overwrite, process, report sizes, optionally delete the source. Failures
// are confined to their entry; the batch always runs to the end of the list.
package batch

import (
	"fmt"
	"time"

	"arcbatch/pkg/pool"
)

// copyBufferSize is the size of the pooled I/O buffers used for archive reads
// and writes.
const copyBufferSize = 256 * 1024

// Summary is the per-run accounting for a batch.
type Summary struct {
	Created int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// FormatElapsed renders a duration as "H Hours, MM Minutes, SS Seconds".
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d Hours, %02d Minutes, %02d Seconds", h, m, s)
}

func newCopyBuffers() *pool.FixedBufferPool {
	return pool.NewFixedBuffer(copyBufferSize)
}

// formatRatio renders a compression or decompression ratio for logging.
func formatRatio(r float64) string {
	return fmt.Sprintf("%.2f", r)
}
