// Package store reads and writes plan documents.
//
// The document on disk is the only source of truth. Every Load parses the
// file afresh and every MarkChecked re-reads, patches and atomically
// replaces it, so an interrupted run can always resume from what is on disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan"
)

// ErrPhaseNotFound is wrapped by MarkChecked when the phase index does not
// exist in the document.
var ErrPhaseNotFound = errors.New("phase not found in plan")

// Store loads plan documents and persists checkbox state.
type Store interface {
	Load(ctx context.Context, location string) (*plan.Plan, error)
	MarkChecked(ctx context.Context, location string, phaseIndex int, descriptions []string) error
}

// Watcher reports changes to a plan document.
type Watcher interface {
	Watch(ctx context.Context, location string) (<-chan struct{}, error)
}

// FileStore is a Store backed by the local filesystem. Locations are file
// paths.
type FileStore struct {
	mu     sync.Mutex
	logger *logging.Logger
}

// NewFileStore creates a FileStore. A nil logger discards output.
func NewFileStore(logger *logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &FileStore{logger: logger}
}

// Load reads and parses the document at location. Read failures are
// *errors.IOError; parse failures are returned unchanged.
func (s *FileStore) Load(ctx context.Context, location string) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := readDocument(location)
	if err != nil {
		return nil, err
	}
	p, err := plan.Parse(text)
	if err != nil {
		return nil, err
	}
	p.Location = location
	return p, nil
}

// MarkChecked checks every unchecked item of the phase whose description
// matches one of descriptions. Items already checked are left alone and
// descriptions that match nothing are ignored. The file is only rewritten
// when at least one marker changes.
func (s *FileStore) MarkChecked(ctx context.Context, location string, phaseIndex int, descriptions []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := readDocument(location)
	if err != nil {
		return err
	}
	p, err := plan.Parse(text)
	if err != nil {
		return err
	}
	ph, ok := p.Lookup(phaseIndex)
	if !ok {
		return apperrors.NewIOError(apperrors.ReasonWriteFailed, location,
			fmt.Errorf("%w: %d", ErrPhaseNotFound, phaseIndex))
	}

	if unmatched := unmatchedDescriptions(ph, descriptions); len(unmatched) > 0 {
		s.logger.Debug("descriptions matched no checklist line",
			"path", location, "phase", phaseIndex, "descriptions", unmatched)
	}

	patched, changed := plan.Patch(text, ph, descriptions)
	if changed == 0 {
		return nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return classifyError(apperrors.ReasonWriteFailed, location, err)
	}
	if err := atomicWriteFile(location, []byte(patched), info.Mode().Perm()); err != nil {
		return classifyError(apperrors.ReasonWriteFailed, location, err)
	}
	s.logger.Debug("checked items", "path", location, "phase", phaseIndex, "count", changed)
	return nil
}

// unmatchedDescriptions returns the descriptions that name no item of ph,
// checked or not.
func unmatchedDescriptions(ph plan.Phase, descriptions []string) []string {
	known := make(map[string]bool)
	for _, it := range ph.Items() {
		known[plan.NormalizeDescription(it.Description)] = true
	}
	var out []string
	for _, d := range descriptions {
		if !known[plan.NormalizeDescription(d)] {
			out = append(out, d)
		}
	}
	return out
}

// readDocument reads location as UTF-8 text.
func readDocument(location string) (string, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return "", classifyError(apperrors.ReasonUnreadable, location, err)
	}
	if !utf8.Valid(data) {
		return "", apperrors.NewIOError(apperrors.ReasonUnreadable, location, nil).
			WithMessage("document is not valid UTF-8")
	}
	return string(data), nil
}

// classifyError maps filesystem errors onto IOError reasons. Errors that are
// neither "not found" nor "permission denied" get the fallback reason.
func classifyError(fallback apperrors.Reason, location string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperrors.NewIOError(apperrors.ReasonNotFound, location, err)
	case errors.Is(err, fs.ErrPermission):
		return apperrors.NewIOError(apperrors.ReasonPermissionDenied, location, err)
	default:
		return apperrors.NewIOError(fallback, location, err)
	}
}

// atomicWriteFile writes data to a temp file in the target's directory and
// renames it over path, so readers never observe a partial document.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
