package logging

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig controls size-based log rotation.
type RotationConfig struct {
	// MaxSizeMB is the size at which the file is rotated. 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig returns the rotation settings used when none are
// configured.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

var errWriterClosed = errors.New("log file is closed")

// RotatingWriter is an io.WriteCloser over a file that is rotated once it
// grows past a size limit. It is safe for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	path     string
	limit    int64
	backups  int
	compress bool

	f    *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:     path,
		limit:    int64(cfg.MaxSizeMB) << 20,
		backups:  cfg.MaxBackups,
		compress: cfg.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open opens the current file. The caller must hold mu.
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rw.f = f
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first if p would push the file past the limit.
// A failed rotation is reported on stderr and the write still goes to the
// current file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return 0, errWriterClosed
	}
	if rw.limit > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "autoplan: log rotation failed: %v\n", err)
			if rw.f == nil {
				return 0, err
			}
		}
	}
	n, err := rw.f.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate closes the current file, shifts backups and reopens. The caller
// must hold mu.
func (rw *RotatingWriter) rotate() error {
	if err := rw.f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rw.f = nil

	if rw.backups <= 0 {
		if err := os.Remove(rw.path); err != nil && !os.IsNotExist(err) {
			return errors.Join(fmt.Errorf("failed to truncate log file: %w", err), rw.open())
		}
		return rw.open()
	}

	rw.shiftBackups()

	first := rw.backupName(1)
	if err := os.Rename(rw.path, first); err != nil {
		return errors.Join(fmt.Errorf("failed to rename log file: %w", err), rw.open())
	}
	if rw.compress {
		if err := gzipFile(first); err != nil {
			fmt.Fprintf(os.Stderr, "autoplan: log compression failed: %v\n", err)
		}
	}
	return rw.open()
}

// shiftBackups renames .N-1 to .N down to .1 to .2, dropping the oldest.
func (rw *RotatingWriter) shiftBackups() {
	oldest := rw.backupName(rw.backups)
	_ = os.Remove(oldest)
	_ = os.Remove(oldest + ".gz")

	for i := rw.backups - 1; i >= 1; i-- {
		from, to := rw.backupName(i), rw.backupName(i+1)
		for _, ext := range []string{"", ".gz"} {
			if _, err := os.Stat(from + ext); err == nil {
				_ = os.Rename(from+ext, to+ext)
			}
		}
	}
}

func (rw *RotatingWriter) backupName(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(dst)
	_, copyErr := io.Copy(zw, src)
	closeErr := errors.Join(zw.Close(), dst.Close())
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path + ".gz")
		return err
	}
	return os.Remove(path)
}

// Sync flushes the current file.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.f == nil {
		return nil
	}
	return rw.f.Sync()
}

// Close syncs and closes the current file. Further writes fail.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.f == nil {
		return nil
	}
	err := errors.Join(rw.f.Sync(), rw.f.Close())
	rw.f = nil
	return err
}

// Size returns the number of bytes in the current file.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Path returns the path of the current file.
func (rw *RotatingWriter) Path() string {
	return rw.path
}
