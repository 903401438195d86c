package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"arcbatch/pkg/pool"
	"arcbatch/pkg/util"
)

// Extract unpacks the archive at absArchivePath into destDir. The format is
// auto-detected from the filename suffix.
func Extract(absArchivePath, destDir string, buffers *pool.FixedBufferPool) error {
	format, err := DetectFormat(absArchivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}
	if format == Zip {
		return extractZip(absArchivePath, destDir, buffers)
	}
	return extractTar(absArchivePath, destDir, format, buffers)
}

// containedTarget resolves an archive entry name below destDir and rejects
// entries that would escape it via relative path components ("Zip Slip").
func containedTarget(destDir, entryName string) (string, error) {
	relPath := util.NormalizePath(entryName)
	absTarget := filepath.Join(destDir, relPath)
	if absTarget != filepath.Clean(destDir) &&
		!strings.HasPrefix(absTarget, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", entryName)
	}
	return absTarget, nil
}

func extractZip(absArchivePath, destDir string, buffers *pool.FixedBufferPool) error {
	r, err := zip.OpenReader(absArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		absTarget, err := containedTarget(destDir, f.Name)
		if err != nil {
			return err
		}

		// Security: Strip SUID and SGID bits to prevent privilege escalation.
		mode := f.Mode() &^ (os.ModeSetuid | os.ModeSetgid)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(absTarget, mode.Perm()); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(absTarget), util.UserWritableDirPerms); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}

		// Handle Symlinks
		if f.Mode()&os.ModeSymlink != 0 {
			linkTarget, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return err
			}
			_ = os.Remove(absTarget) // Remove existing if any
			if err := os.Symlink(string(linkTarget), absTarget); err != nil {
				return err
			}
			continue
		}

		// Handle Regular Files
		// Security: Remove the file if it exists to prevent following a symlink
		// created by a previous entry (Symlink Interception).
		_ = os.Remove(absTarget)

		outFile, err := os.OpenFile(absTarget, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
		if err != nil {
			rc.Close()
			return err
		}

		bufPtr := buffers.Get()
		_, err = io.CopyBuffer(outFile, rc, *bufPtr)
		buffers.Put(bufPtr)
		outFile.Close()
		rc.Close()
		if err != nil {
			return err
		}

		os.Chtimes(absTarget, f.Modified, f.Modified)
	}
	return nil
}

func extractTar(absArchivePath, destDir string, format Format, buffers *pool.FixedBufferPool) error {
	f, err := os.Open(absArchivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case GzTar:
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	case BzTar:
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return err
		}
		defer bz.Close()
		r = bz
	case XzTar:
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return err
		}
		r = xzReader
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		absTarget, err := containedTarget(destDir, header.Name)
		if err != nil {
			return err
		}

		// Security: Strip SUID and SGID bits to prevent privilege escalation.
		mode := os.FileMode(header.Mode) &^ (os.ModeSetuid | os.ModeSetgid)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(absTarget, mode.Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(absTarget), util.UserWritableDirPerms); err != nil {
				return err
			}
			// Security: Remove the file if it exists to prevent following a symlink
			// created by a previous entry (Symlink Interception).
			_ = os.Remove(absTarget)

			outFile, err := os.OpenFile(absTarget, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
			if err != nil {
				return err
			}
			bufPtr := buffers.Get()
			_, err = io.CopyBuffer(outFile, tr, *bufPtr)
			buffers.Put(bufPtr)
			outFile.Close()
			if err != nil {
				return err
			}
			os.Chtimes(absTarget, header.AccessTime, header.ModTime)
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(absTarget), util.UserWritableDirPerms); err != nil {
				return err
			}
			_ = os.Remove(absTarget)
			if err := os.Symlink(header.Linkname, absTarget); err != nil {
				return err
			}
		}
	}
	return nil
}
