package batch_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arcbatch/pkg/archive"
	"arcbatch/pkg/batch"
	"arcbatch/pkg/plog"
	"arcbatch/pkg/pool"
	"arcbatch/pkg/util"
)

// createArchiveFile archives a small fixture directory named baseName and
// returns the resulting archive path.
func createArchiveFile(t *testing.T, parent, baseName string, format archive.Format) string {
	t.Helper()
	src := createSourceDir(t, parent, baseName)
	archivePath := filepath.Join(parent, baseName+format.Suffix())
	if err := archive.Create(archivePath, parent, baseName, format, pool.NewFixedBuffer(64*1024)); err != nil {
		t.Fatalf("failed to create fixture archive: %v", err)
	}
	if err := os.RemoveAll(src); err != nil {
		t.Fatalf("failed to remove fixture source: %v", err)
	}
	return archivePath
}

func TestUnpackerRun(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		// Arrange
		tempDir := t.TempDir()
		arcA := createArchiveFile(t, tempDir, "a", archive.GzTar)
		arcB := createArchiveFile(t, tempDir, "b", archive.Zip)
		outputDir := filepath.Join(tempDir, "out")

		log, err := plog.New(outputDir, "decompression", true)
		if err != nil {
			t.Fatalf("failed to create logger: %v", err)
		}
		defer log.Close()

		u := &batch.Unpacker{OutputDir: outputDir}

		// Act
		sum := u.Run(log, []string{arcA, arcB})

		// Assert
		if sum.Created != 2 || sum.Skipped != 0 || sum.Failed != 0 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		for _, name := range []string{"a", "b"} {
			unpacked := filepath.Join(outputDir, name, "notes.txt")
			content, err := os.ReadFile(unpacked)
			if err != nil {
				t.Errorf("expected unpacked file %s: %v", unpacked, err)
				continue
			}
			if want := "some notes for " + name; string(content) != want {
				t.Errorf("unpacked content = %q, want %q", content, want)
			}
		}

		logContent, err := os.ReadFile(log.Path())
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if got := strings.Count(string(logContent), "Unpacked archive created at"); got != 2 {
			t.Errorf("expected 2 'Unpacked archive created at' log lines, got %d", got)
		}
		if !strings.Contains(string(logContent), "Decompression ratio") {
			t.Error("expected a decompression ratio to be logged")
		}

		// Source archives survive without the delete flag.
		if _, err := os.Stat(arcA); err != nil {
			t.Errorf("source archive should be untouched: %v", err)
		}
	})

	t.Run("skip leaves existing directory unmodified", func(t *testing.T) {
		tempDir := t.TempDir()
		arc := createArchiveFile(t, tempDir, "a", archive.GzTar)
		outputDir := filepath.Join(tempDir, "out")

		existing := filepath.Join(outputDir, "a")
		if err := os.MkdirAll(existing, util.UserWritableDirPerms); err != nil {
			t.Fatalf("failed to create existing dir: %v", err)
		}
		sentinel := filepath.Join(existing, "keep.txt")
		if err := os.WriteFile(sentinel, []byte("keep me"), util.UserWritableFilePerms); err != nil {
			t.Fatalf("failed to write sentinel: %v", err)
		}

		var logBuf bytes.Buffer
		log := plog.NewWithWriter(&logBuf, true)
		u := &batch.Unpacker{OutputDir: outputDir, Overwrite: false}

		sum := u.Run(log, []string{arc})

		if sum.Skipped != 1 || sum.Created != 0 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(sentinel); err != nil {
			t.Errorf("sentinel file was disturbed by a skipped entry: %v", err)
		}
		if _, err := os.Stat(filepath.Join(existing, "notes.txt")); !os.IsNotExist(err) {
			t.Error("skipped entry still extracted files")
		}
		if !strings.Contains(logBuf.String(), "skipping") {
			t.Errorf("expected a skip notice in the log, got %q", logBuf.String())
		}
	})

	t.Run("overwrite extracts over existing directory", func(t *testing.T) {
		tempDir := t.TempDir()
		arc := createArchiveFile(t, tempDir, "a", archive.Zip)
		outputDir := filepath.Join(tempDir, "out")

		existing := filepath.Join(outputDir, "a")
		if err := os.MkdirAll(existing, util.UserWritableDirPerms); err != nil {
			t.Fatalf("failed to create existing dir: %v", err)
		}

		log := plog.NewWithWriter(&bytes.Buffer{}, false)
		u := &batch.Unpacker{OutputDir: outputDir, Overwrite: true}

		sum := u.Run(log, []string{arc})

		if sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(filepath.Join(existing, "notes.txt")); err != nil {
			t.Errorf("expected extraction into existing directory: %v", err)
		}
	})

	t.Run("delete source removes the archive file", func(t *testing.T) {
		tempDir := t.TempDir()
		arc := createArchiveFile(t, tempDir, "a", archive.BzTar)
		outputDir := filepath.Join(tempDir, "out")

		log := plog.NewWithWriter(&bytes.Buffer{}, false)
		u := &batch.Unpacker{OutputDir: outputDir, DeleteSource: true}

		sum := u.Run(log, []string{arc})

		if sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(arc); !os.IsNotExist(err) {
			t.Error("source archive still exists after delete_source run")
		}
		if _, err := os.Stat(filepath.Join(outputDir, "a", "notes.txt")); err != nil {
			t.Errorf("expected unpacked content: %v", err)
		}
	})

	t.Run("per-entry failure does not abort the batch", func(t *testing.T) {
		tempDir := t.TempDir()
		arc := createArchiveFile(t, tempDir, "good", archive.Zip)
		outputDir := filepath.Join(tempDir, "out")

		// An unknown suffix fails format detection for that entry only.
		bogus := filepath.Join(tempDir, "bogus.rar")
		if err := os.WriteFile(bogus, []byte("not an archive"), util.UserWritableFilePerms); err != nil {
			t.Fatalf("failed to write bogus file: %v", err)
		}

		var logBuf bytes.Buffer
		log := plog.NewWithWriter(&logBuf, false)
		u := &batch.Unpacker{OutputDir: outputDir}

		sum := u.Run(log, []string{bogus, arc})

		if sum.Failed != 1 || sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(filepath.Join(outputDir, "good", "notes.txt")); err != nil {
			t.Errorf("entry after the failing one was not processed: %v", err)
		}
		if !strings.Contains(logBuf.String(), "bogus.rar") {
			t.Errorf("error log should reference the failing source, got %q", logBuf.String())
		}
	})
}
