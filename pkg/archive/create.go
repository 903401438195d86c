package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"arcbatch/pkg/pool"
	"arcbatch/pkg/util"
)

// writeBufferSize is the bufio buffer between the archive writer and the disk.
const writeBufferSize = 256 * 1024

// archiveWriter defines an interface for a generic archive creation utility.
// This allows the main creation logic to be format-agnostic.
type archiveWriter interface {
	// AddFile adds a file from the filesystem to the archive using a pre-calculated relative path.
	AddFile(absPath, relPath string, info os.FileInfo, buf []byte) error
	// AddDir adds a directory entry to the archive.
	AddDir(relPath string, info os.FileInfo) error
	// AddSymlink adds a symbolic link to the archive.
	AddSymlink(absPath, relPath string, info os.FileInfo) error
	// Close finalizes and closes the archive writer.
	Close() error
}

// Create builds an archive at absArchivePath containing the single top-level
// entry baseDir, read from rootDir/baseDir. The archive is written to a
// temporary file in the destination directory and renamed into place only
// after a fully successful write, so a crash never leaves a partial file at
// the final path.
func Create(absArchivePath, rootDir, baseDir string, format Format, buffers *pool.FixedBufferPool) (retErr error) {
	absSourcePath := filepath.Join(rootDir, baseDir)
	info, err := os.Stat(absSourcePath)
	if err != nil {
		return fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", absSourcePath)
	}

	targetF, err := os.CreateTemp(filepath.Dir(absArchivePath), "arcbatch-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	tempName := targetF.Name()

	// Ensure cleanup on error
	defer func() {
		if retErr != nil {
			targetF.Close()
			os.Remove(tempName)
		}
	}()

	if err := writeArchive(absSourcePath, rootDir, targetF, format, buffers); err != nil {
		return err
	}

	// Close explicitly to flush to disk before rename
	if err := targetF.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename is atomic on POSIX and uses MoveFileEx with MOVEFILE_REPLACE_EXISTING on Windows.
	if err := os.Rename(tempName, absArchivePath); err != nil {
		return fmt.Errorf("failed to rename temp archive to final path: %w", err)
	}
	return nil
}

func writeArchive(absSourcePath, rootDir string, targetF *os.File, format Format, buffers *pool.FixedBufferPool) (retErr error) {
	bufWriter := bufio.NewWriterSize(targetF, writeBufferSize)

	var aw archiveWriter
	if format == Zip {
		zipWriter := zip.NewWriter(bufWriter)
		zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.DefaultCompression)
		})
		aw = &zipArchiveWriter{zipWriter: zipWriter}
	} else {
		compressedWriter, err := newCompressionWriter(format, bufWriter)
		if err != nil {
			return err
		}
		aw = &tarArchiveWriter{tarWriter: tar.NewWriter(compressedWriter), compressedWriter: compressedWriter}
	}

	// Robust cleanup
	defer func() {
		if err := aw.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("archive writer close failed: %w", err)
		}
		if err := bufWriter.Flush(); err != nil && retErr == nil {
			retErr = fmt.Errorf("buffer flush failed: %w", err)
		}
	}()

	return filepath.WalkDir(absSourcePath, func(absEntryPath string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", absEntryPath, err)
		}

		relPath, err := filepath.Rel(rootDir, absEntryPath)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", absEntryPath, err)
		}
		// Normalize to forward slashes for archive compatibility.
		relPath = util.NormalizePath(relPath)

		switch {
		case d.IsDir():
			return aw.AddDir(relPath, info)
		case info.Mode()&os.ModeSymlink != 0:
			return aw.AddSymlink(absEntryPath, relPath, info)
		case info.Mode().IsRegular():
			// Use a closure to ensure the buffer is returned to the pool
			// immediately after the file is processed, NOT after the walk ends.
			return func() error {
				bufPtr := buffers.Get()
				defer buffers.Put(bufPtr)
				return aw.AddFile(absEntryPath, relPath, info, *bufPtr)
			}()
		default:
			// Sockets, devices and other irregular entries are not archivable.
			return nil
		}
	})
}

// newCompressionWriter wraps w with the compression stream for a tar-family
// format. Plain tar gets a no-op wrapper.
func newCompressionWriter(format Format, w io.Writer) (io.WriteCloser, error) {
	switch format {
	case Tar:
		return nopWriteCloser{w}, nil
	case GzTar:
		return pgzip.NewWriter(w), nil
	case BzTar:
		bzWriter, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return nil, fmt.Errorf("failed to create bzip2 writer: %w", err)
		}
		return bzWriter, nil
	case XzTar:
		xzWriter, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
