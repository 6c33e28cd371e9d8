package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/autoplan/internal/logging"
	"gopkg.in/yaml.v3"
)

// ErrPlanLocked is returned by AcquireLock when another live process is
// running the same plan.
var ErrPlanLocked = errors.New("plan is being run by another process")

// lockGracePeriod is how long an unreadable lock file is assumed to be
// mid-write by its owner. After that it is treated as stale.
const lockGracePeriod = 10 * time.Second

// RunLock marks a plan document as in use by one autoplan process.
type RunLock struct {
	RunID     string    `yaml:"run_id"`
	PID       int       `yaml:"pid"`
	Hostname  string    `yaml:"hostname"`
	StartedAt time.Time `yaml:"started_at"`

	path   string
	logger *logging.Logger
}

// LockPath returns the lock file used for the plan at location: a hidden
// sibling of the document.
func LockPath(location string) string {
	dir, base := filepath.Split(location)
	return filepath.Join(dir, "."+base+".lock")
}

// AcquireLock takes the run lock for location. A lock left behind by a
// process that no longer exists is replaced, as is one that stayed
// unreadable for longer than lockGracePeriod.
func AcquireLock(location, runID string, logger *logging.Logger) (*RunLock, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	path := LockPath(location)

	held, err := ReadLock(path)
	switch {
	case err == nil:
		if processAlive(held.PID) {
			return nil, fmt.Errorf("%w: PID %d on %s since %s",
				ErrPlanLocked, held.PID, held.Hostname, held.StartedAt.Format(time.Kitchen))
		}
		if err := removeStale(path); err != nil {
			return nil, err
		}
		logger.Warn("stale plan lock removed", "path", path, "old_pid", held.PID)
	case !os.IsNotExist(err):
		info, statErr := os.Stat(path)
		if statErr != nil || time.Since(info.ModTime()) < lockGracePeriod {
			return nil, fmt.Errorf("%w: lock file %s is unreadable", ErrPlanLocked, path)
		}
		if err := removeStale(path); err != nil {
			return nil, err
		}
		logger.Warn("unreadable plan lock removed", "path", path, "error", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	lock := &RunLock{
		RunID:     runID,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		path:      path,
		logger:    logger,
	}
	data, err := yaml.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lock: %w", err)
	}

	// O_EXCL settles the race between two processes that both saw no lock.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrPlanLocked
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	logger.Debug("plan lock acquired", "path", path, "pid", lock.PID)
	return lock, nil
}

// Release removes the lock file if this process still owns it. It is safe
// to call more than once and on a nil lock.
func (l *RunLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	held, err := ReadLock(l.path)
	if err != nil || held.PID != l.PID || held.RunID != l.RunID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if l.logger != nil {
		l.logger.Debug("plan lock released", "path", l.path)
	}
	return nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return nil
}

// ReadLock reads the lock file at path.
func ReadLock(path string) (*RunLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lock RunLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	if lock.PID == 0 {
		return nil, errors.New("lock file is incomplete")
	}
	lock.path = path
	return &lock, nil
}

// processAlive reports whether pid exists. Signal 0 checks without
// delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
