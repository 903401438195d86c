package batch

import (
	"os"
	"path/filepath"
	"time"

	"arcbatch/pkg/archive"
	"arcbatch/pkg/bytesize"
	"arcbatch/pkg/plog"
	"arcbatch/pkg/pool"
	"arcbatch/pkg/preflight"
	"arcbatch/pkg/util"
)

// Archiver archives an ordered list of source directories into OutputDir.
type Archiver struct {
	OutputDir    string
	Format       archive.Format
	Overwrite    bool
	DeleteSource bool

	// Buffers is optional; Run creates a default pool when nil.
	Buffers *pool.FixedBufferPool
}

// Run processes every source directory in order. Per-entry failures are
// logged and counted but never abort the remaining entries.
func (a *Archiver) Run(log *plog.Logger, sources []string) Summary {
	start := time.Now()
	var sum Summary

	if a.Buffers == nil {
		a.Buffers = newCopyBuffers()
	}

	if !a.ensureOutputDir(log) {
		sum.Failed = len(sources)
		sum.Elapsed = time.Since(start)
		return sum
	}

	log.Info("Archiving directories", "count", len(sources), "format", a.Format)
	if a.Overwrite {
		log.Warn("Overwriting existing archives")
	}
	if a.DeleteSource {
		log.Warn("Deleting source directories after archiving")
	}

	for _, src := range sources {
		baseName := filepath.Base(filepath.Clean(src))
		dest := filepath.Join(a.OutputDir, baseName+a.Format.Suffix())

		if !a.Overwrite {
			if _, err := os.Stat(dest); err == nil {
				log.Info("Archive already exists, skipping", "source", src, "archive", dest)
				sum.Skipped++
				continue
			}
		}

		if err := a.archiveOne(log, src, dest, baseName); err != nil {
			log.Error("An error occurred during archiving", "source", src, "error", err)
			sum.Failed++
			continue
		}
		sum.Created++
	}

	sum.Elapsed = time.Since(start)
	log.Info("Archiving directories finished", "created", sum.Created, "skipped", sum.Skipped, "failed", sum.Failed)
	log.Info("Total time elapsed", "duration", FormatElapsed(sum.Elapsed))
	return sum
}

// archiveOne archives a single source directory. The archive is rooted at the
// source's parent so its internal top-level entry equals baseName.
func (a *Archiver) archiveOne(log *plog.Logger, src, dest, baseName string) error {
	log.Info("Starting archive creation from source directory", "source", src)

	// Size reporting is best effort; a failure here never fails the entry.
	sourceSize, sizeErr := bytesize.FolderSize(src)
	if sizeErr != nil {
		log.Warn("Could not measure source directory", "source", src, "error", sizeErr)
	} else {
		log.Info("Original directory size", "size", sourceSize)
	}

	rootDir := filepath.Dir(filepath.Clean(src))
	if err := archive.Create(dest, rootDir, baseName, a.Format, a.Buffers); err != nil {
		return err
	}
	log.Info("Archive created at", "archive", dest)

	if archiveSize, err := bytesize.FileSize(dest); err != nil {
		log.Warn("Could not measure archive", "archive", dest, "error", err)
	} else {
		log.Info("Archive size", "size", archiveSize)
		if sizeErr == nil && archiveSize > 0 {
			ratio := float64(sourceSize) / float64(archiveSize)
			log.Info("Compression ratio", "ratio", formatRatio(ratio))
		}
	}

	if a.DeleteSource {
		log.Info("Deleting source directory", "source", src)
		if err := os.RemoveAll(src); err != nil {
			return err
		}
	}
	return nil
}

// ensureOutputDir validates and creates the output directory, logging the
// outcome. It returns false when the batch cannot proceed at all.
func (a *Archiver) ensureOutputDir(log *plog.Logger) bool {
	return ensureOutputDir(log, a.OutputDir)
}

func ensureOutputDir(log *plog.Logger, outputDir string) bool {
	if err := preflight.CheckOutputDir(outputDir); err != nil {
		log.Error("Output directory is not usable", "error", err)
		return false
	}

	if _, err := os.Stat(outputDir); err == nil {
		log.Info("Output directory exists at", "path", outputDir)
	} else {
		if err := os.MkdirAll(outputDir, util.UserWritableDirPerms); err != nil {
			log.Error("Failed to create output directory", "path", outputDir, "error", err)
			return false
		}
		log.Info("Output directory created at", "path", outputDir)
	}

	if free, err := preflight.FreeSpace(outputDir); err != nil {
		log.Warn("Could not determine free space on output volume", "error", err)
	} else {
		log.Info("Free space on output volume", "available", bytesize.Size(free))
	}
	return true
}
