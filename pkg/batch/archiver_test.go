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

// createSourceDir creates a directory with a couple of files and returns its path.
func createSourceDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(filepath.Join(dir, "sub"), util.UserWritableDirPerms); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("some notes for "+name), util.UserWritableFilePerms); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "data.bin"), bytes.Repeat([]byte{0xAB}, 2048), util.UserWritableFilePerms); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return dir
}

func TestArchiverRun(t *testing.T) {
	t.Run("end to end", func(t *testing.T) {
		// Arrange
		tempDir := t.TempDir()
		srcA := createSourceDir(t, tempDir, "a")
		srcB := createSourceDir(t, tempDir, "b")
		outputDir := filepath.Join(tempDir, "out")

		log, err := plog.New(outputDir, "compression", true)
		if err != nil {
			t.Fatalf("failed to create logger: %v", err)
		}
		defer log.Close()

		a := &batch.Archiver{OutputDir: outputDir, Format: archive.Zip}

		// Act
		sum := a.Run(log, []string{srcA, srcB})

		// Assert
		if sum.Created != 2 || sum.Skipped != 0 || sum.Failed != 0 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		for _, name := range []string{"a.zip", "b.zip"} {
			if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
				t.Errorf("expected archive %s to exist: %v", name, err)
			}
		}

		// The log file records one creation line per archive.
		content, err := os.ReadFile(log.Path())
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if got := strings.Count(string(content), "Archive created at"); got != 2 {
			t.Errorf("expected 2 'Archive created at' log lines, got %d", got)
		}
		if !strings.Contains(string(content), "Compression ratio") {
			t.Error("expected a compression ratio to be logged")
		}

		// Sources are untouched without the delete flag.
		if _, err := os.Stat(srcA); err != nil {
			t.Errorf("source directory should be untouched: %v", err)
		}
	})

	t.Run("skip leaves existing archive unmodified", func(t *testing.T) {
		tempDir := t.TempDir()
		src := createSourceDir(t, tempDir, "a")
		outputDir := filepath.Join(tempDir, "out")
		if err := os.MkdirAll(outputDir, util.UserWritableDirPerms); err != nil {
			t.Fatalf("failed to create output dir: %v", err)
		}

		existing := filepath.Join(outputDir, "a.zip")
		sentinel := []byte("pre-existing bytes, not a real zip")
		if err := os.WriteFile(existing, sentinel, util.UserWritableFilePerms); err != nil {
			t.Fatalf("failed to write existing archive: %v", err)
		}
		before, err := os.Stat(existing)
		if err != nil {
			t.Fatalf("failed to stat existing archive: %v", err)
		}

		var logBuf bytes.Buffer
		log := plog.NewWithWriter(&logBuf, true)
		a := &batch.Archiver{OutputDir: outputDir, Format: archive.Zip, Overwrite: false}

		sum := a.Run(log, []string{src})

		if sum.Skipped != 1 || sum.Created != 0 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		got, err := os.ReadFile(existing)
		if err != nil {
			t.Fatalf("failed to read archive: %v", err)
		}
		if !bytes.Equal(got, sentinel) {
			t.Error("existing archive bytes were modified by a skipped entry")
		}
		after, err := os.Stat(existing)
		if err != nil {
			t.Fatalf("failed to stat archive: %v", err)
		}
		if !after.ModTime().Equal(before.ModTime()) {
			t.Error("existing archive modification time changed on skip")
		}
		if !strings.Contains(logBuf.String(), "skipping") {
			t.Errorf("expected a skip notice in the log, got %q", logBuf.String())
		}
	})

	t.Run("overwrite replaces existing archive", func(t *testing.T) {
		tempDir := t.TempDir()
		src := createSourceDir(t, tempDir, "a")
		outputDir := filepath.Join(tempDir, "out")
		if err := os.MkdirAll(outputDir, util.UserWritableDirPerms); err != nil {
			t.Fatalf("failed to create output dir: %v", err)
		}

		existing := filepath.Join(outputDir, "a.zip")
		sentinel := []byte("stale bytes")
		if err := os.WriteFile(existing, sentinel, util.UserWritableFilePerms); err != nil {
			t.Fatalf("failed to write existing archive: %v", err)
		}

		log := plog.NewWithWriter(&bytes.Buffer{}, false)
		a := &batch.Archiver{OutputDir: outputDir, Format: archive.Zip, Overwrite: true}

		sum := a.Run(log, []string{src})

		if sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		got, err := os.ReadFile(existing)
		if err != nil {
			t.Fatalf("failed to read archive: %v", err)
		}
		if bytes.Equal(got, sentinel) {
			t.Error("archive was not replaced despite overwrite")
		}
		// The replacement is a real archive that extracts cleanly.
		if err := archive.Extract(existing, filepath.Join(tempDir, "check"), pool.NewFixedBuffer(64*1024)); err != nil {
			t.Errorf("replaced archive does not extract: %v", err)
		}
	})

	t.Run("delete source removes the directory", func(t *testing.T) {
		tempDir := t.TempDir()
		src := createSourceDir(t, tempDir, "a")
		outputDir := filepath.Join(tempDir, "out")

		log := plog.NewWithWriter(&bytes.Buffer{}, false)
		a := &batch.Archiver{OutputDir: outputDir, Format: archive.GzTar, DeleteSource: true}

		sum := a.Run(log, []string{src})

		if sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(src); !os.IsNotExist(err) {
			t.Error("source directory still exists after delete_source run")
		}
		if _, err := os.Stat(filepath.Join(outputDir, "a.tar.gz")); err != nil {
			t.Errorf("expected archive to exist: %v", err)
		}
	})

	t.Run("per-entry failure does not abort the batch", func(t *testing.T) {
		tempDir := t.TempDir()
		src := createSourceDir(t, tempDir, "good")
		missing := filepath.Join(tempDir, "does-not-exist")
		outputDir := filepath.Join(tempDir, "out")

		var logBuf bytes.Buffer
		log := plog.NewWithWriter(&logBuf, false)
		a := &batch.Archiver{OutputDir: outputDir, Format: archive.Zip}

		sum := a.Run(log, []string{missing, src})

		if sum.Failed != 1 || sum.Created != 1 {
			t.Errorf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(filepath.Join(outputDir, "good.zip")); err != nil {
			t.Errorf("entry after the failing one was not processed: %v", err)
		}
		if !strings.Contains(logBuf.String(), "does-not-exist") {
			t.Errorf("error log should reference the failing source, got %q", logBuf.String())
		}
	})
}
