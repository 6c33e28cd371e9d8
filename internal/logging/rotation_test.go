package logging

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "test.log")

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	data := []byte("test message\n")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected to write %d bytes, wrote %d", len(data), n)
	}
	if rw.Size() != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), rw.Size())
	}
	if rw.Path() != path {
		t.Errorf("expected path %q, got %q", path, rw.Path())
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Errorf("expected %q, got %q", data, content)
	}

	if _, err := rw.Write(data); err == nil {
		t.Error("expected write after Close to fail")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestRotatingWriterAppendsToExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	if rw.Size() != 4 {
		t.Errorf("expected initial size 4, got %d", rw.Size())
	}
}

// fill writes chunk count times.
func fill(t *testing.T, rw *RotatingWriter, chunk []byte, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	// Each chunk is just over half the limit, so every second write rotates.
	chunk := bytes.Repeat([]byte("a"), (1<<20)/2+1)
	fill(t, rw, chunk, 4)
	rw.Close()

	for _, name := range []string{"test.log", "test.log.1", "test.log.2"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "test.log.3")); !os.IsNotExist(err) {
		t.Errorf("expected only 2 backups, found test.log.3")
	}
}

func TestRotatingWriterNoBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	chunk := bytes.Repeat([]byte("b"), (1<<20)/2+1)
	fill(t, rw, chunk, 3)
	rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("expected no backup files when MaxBackups is 0")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("expected current file to hold one chunk, got %d bytes", info.Size())
	}
}

func TestRotatingWriterCompression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	chunk := bytes.Repeat([]byte("c"), (1<<20)/2+1)
	fill(t, rw, chunk, 3)
	rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("expected uncompressed backup to be removed")
	}
	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading gzip failed: %v", err)
	}
	if len(data) != len(chunk) {
		t.Errorf("expected %d decompressed bytes, got %d", len(chunk), len(data))
	}
}

func TestRotatingWriterSync(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "test.log"), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}
	rw.Close()
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close should be a no-op, got %v", err)
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 10 || cfg.MaxBackups != 3 || cfg.Compress {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
