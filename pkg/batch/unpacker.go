package batch

import (
	"os"
	"path/filepath"
	"time"

	"arcbatch/pkg/archive"
	"arcbatch/pkg/bytesize"
	"arcbatch/pkg/plog"
	"arcbatch/pkg/pool"
)

// Unpacker extracts an ordered list of source archive files into OutputDir.
// The format of each archive is inferred from its filename suffix.
type Unpacker struct {
	OutputDir    string
	Overwrite    bool
	DeleteSource bool

	// Buffers is optional; Run creates a default pool when nil.
	Buffers *pool.FixedBufferPool
}

// Run processes every source archive in order. Per-entry failures are logged
// and counted but never abort the remaining entries.
func (u *Unpacker) Run(log *plog.Logger, sources []string) Summary {
	start := time.Now()
	var sum Summary

	if u.Buffers == nil {
		u.Buffers = newCopyBuffers()
	}

	if !ensureOutputDir(log, u.OutputDir) {
		sum.Failed = len(sources)
		sum.Elapsed = time.Since(start)
		return sum
	}

	log.Info("Unpacking archives", "count", len(sources))
	if u.Overwrite {
		log.Warn("Overwriting existing unpacked archives")
	}
	if u.DeleteSource {
		log.Warn("Deleting source archives after unpacking")
	}

	for _, src := range sources {
		// The expected extraction directory is the archive name with every
		// trailing archive suffix removed.
		extractedDir := filepath.Join(u.OutputDir, archive.StripSuffixes(filepath.Base(src)))

		if !u.Overwrite {
			if info, err := os.Stat(extractedDir); err == nil && info.IsDir() {
				log.Info("Unpacked archive already exists, skipping", "source", src, "directory", extractedDir)
				sum.Skipped++
				continue
			}
		}

		if err := u.unpackOne(log, src, extractedDir); err != nil {
			log.Error("An error occurred during unpacking", "source", src, "error", err)
			sum.Failed++
			continue
		}
		sum.Created++
	}

	sum.Elapsed = time.Since(start)
	log.Info("Unpacking archives finished", "created", sum.Created, "skipped", sum.Skipped, "failed", sum.Failed)
	log.Info("Total time elapsed", "duration", FormatElapsed(sum.Elapsed))
	return sum
}

// unpackOne extracts a single archive into the output directory.
func (u *Unpacker) unpackOne(log *plog.Logger, src, extractedDir string) error {
	log.Info("Starting unpacking archive from file", "source", src)

	archiveSize, sizeErr := bytesize.FileSize(src)
	if sizeErr != nil {
		log.Warn("Could not measure archive", "source", src, "error", sizeErr)
	} else {
		log.Info("Original archive size", "size", archiveSize)
	}

	if err := archive.Extract(src, u.OutputDir, u.Buffers); err != nil {
		return err
	}
	log.Info("Unpacked archive created at", "directory", extractedDir)

	if extractedSize, err := bytesize.FolderSize(extractedDir); err != nil {
		log.Warn("Could not measure unpacked archive", "directory", extractedDir, "error", err)
	} else {
		log.Info("Unpacked archive size", "size", extractedSize)
		if sizeErr == nil && archiveSize > 0 {
			ratio := float64(extractedSize) / float64(archiveSize)
			log.Info("Decompression ratio", "ratio", formatRatio(ratio))
		}
	}

	if u.DeleteSource {
		log.Info("Deleting source archive file", "source", src)
		if err := os.Remove(src); err != nil {
			return err
		}
	}
	return nil
}
