// Package errors provides the error taxonomy for autoplan. Every fatal
// outcome of a run is one of four typed errors, each carrying a
// machine-readable reason and the process exit code it maps to.
//
// # Error Types
//
//   - ParseError: the plan document could not be turned into phases
//   - IOError: the plan document could not be read or written
//   - PhaseError: the phase implementer reported a failure
//   - AbortError: the human declined the manual gate or interrupted the run
//
// # Usage
//
//	err := errors.NewParseError(errors.ReasonDuplicateIndex, "phase 2 declared twice").
//	    WithLine(14).WithPhase(2)
//
//	if errors.Is(err, errors.ErrDuplicateIndex) { ... }
//
//	var perr *errors.ParseError
//	if errors.As(err, &perr) { ... }
//
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Process exit codes. Each fatal error type has its own code so wrapper
// scripts can tell a malformed plan from a failed phase.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitParse       = 2
	ExitIO          = 3
	ExitPhaseFailed = 4
	ExitUserAbort   = 5
)

// Reason is the machine-readable cause of a halt.
type Reason int

const (
	ReasonUnknown Reason = iota
	// Parse reasons
	ReasonNoPhasesFound
	ReasonDuplicateIndex
	ReasonMalformedChecklist
	// I/O reasons
	ReasonNotFound
	ReasonPermissionDenied
	ReasonUnreadable
	ReasonWriteFailed
	// Execution reasons
	ReasonPhaseImplementationFailed
	ReasonUserAbort
)

// String returns the snake_case form used in logs and reports.
func (r Reason) String() string {
	switch r {
	case ReasonNoPhasesFound:
		return "no_phases_found"
	case ReasonDuplicateIndex:
		return "duplicate_index"
	case ReasonMalformedChecklist:
		return "malformed_checklist"
	case ReasonNotFound:
		return "not_found"
	case ReasonPermissionDenied:
		return "permission_denied"
	case ReasonUnreadable:
		return "unreadable"
	case ReasonWriteFailed:
		return "write_failed"
	case ReasonPhaseImplementationFailed:
		return "phase_implementation_failed"
	case ReasonUserAbort:
		return "user_abort"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Parse sentinels
var (
	// ErrNoPhasesFound indicates the document contains no phase headings.
	ErrNoPhasesFound = New("no phases found")
	// ErrDuplicateIndex indicates two phase headings share an index.
	ErrDuplicateIndex = New("duplicate phase index")
	// ErrMalformedChecklist indicates a checklist line with an unknown marker.
	ErrMalformedChecklist = New("malformed checklist item")
)

// I/O sentinels
var (
	// ErrNotFound indicates the plan document does not exist.
	ErrNotFound = New("plan not found")
	// ErrPermissionDenied indicates the plan document is not accessible.
	ErrPermissionDenied = New("permission denied")
	// ErrUnreadable indicates the plan document exists but cannot be read as text.
	ErrUnreadable = New("plan unreadable")
	// ErrWriteFailed indicates the updated plan could not be persisted.
	ErrWriteFailed = New("plan write failed")
)

// Execution sentinels
var (
	// ErrPhaseImplementationFailed indicates the implementer reported failure.
	ErrPhaseImplementationFailed = New("phase implementation failed")
	// ErrUserAbort indicates the run was stopped by the human.
	ErrUserAbort = New("aborted by user")
)

func sentinelFor(r Reason) error {
	switch r {
	case ReasonNoPhasesFound:
		return ErrNoPhasesFound
	case ReasonDuplicateIndex:
		return ErrDuplicateIndex
	case ReasonMalformedChecklist:
		return ErrMalformedChecklist
	case ReasonNotFound:
		return ErrNotFound
	case ReasonPermissionDenied:
		return ErrPermissionDenied
	case ReasonUnreadable:
		return ErrUnreadable
	case ReasonWriteFailed:
		return ErrWriteFailed
	case ReasonPhaseImplementationFailed:
		return ErrPhaseImplementationFailed
	case ReasonUserAbort:
		return ErrUserAbort
	}
	return nil
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	reason  Reason
	cause   error
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Reason returns the machine-readable halt reason.
func (e *baseError) Reason() Reason {
	return e.reason
}

// is matches the reason sentinel first, then the cause chain.
func (e *baseError) is(target error) bool {
	if s := sentinelFor(e.reason); s != nil && target == s {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	msg := e.message
	if msg == "" {
		if s := sentinelFor(e.reason); s != nil {
			msg = s.Error()
		}
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// -----------------------------------------------------------------------------
// ParseError
// -----------------------------------------------------------------------------

// ParseError reports a plan document that cannot be turned into phases.
// Line is 1-based; zero means the error is not tied to a line.
type ParseError struct {
	baseError
	Line       int
	PhaseIndex int
}

// NewParseError creates a ParseError with the given reason.
func NewParseError(reason Reason, message string) *ParseError {
	return &ParseError{baseError: baseError{message: message, reason: reason}}
}

// WithLine records the 1-based source line.
func (e *ParseError) WithLine(line int) *ParseError {
	e.Line = line
	return e
}

// WithPhase records the phase the error belongs to.
func (e *ParseError) WithPhase(index int) *ParseError {
	e.PhaseIndex = index
	return e
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	var parts []string
	parts = append(parts, "reason="+e.reason.String())
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line=%d", e.Line))
	}
	if e.PhaseIndex > 0 {
		parts = append(parts, fmt.Sprintf("phase=%d", e.PhaseIndex))
	}
	return e.format("parse error", parts)
}

// Is checks if this error matches the target.
func (e *ParseError) Is(target error) bool {
	if _, ok := target.(*ParseError); ok {
		return true
	}
	return e.is(target)
}

// ExitCode returns the process exit code for this error.
func (e *ParseError) ExitCode() int { return ExitParse }

// -----------------------------------------------------------------------------
// IOError
// -----------------------------------------------------------------------------

// IOError reports a failure to read or persist the plan document.
type IOError struct {
	baseError
	Path string
}

// NewIOError creates an IOError with the given reason and cause.
func NewIOError(reason Reason, path string, cause error) *IOError {
	return &IOError{baseError: baseError{reason: reason, cause: cause}, Path: path}
}

// WithMessage overrides the default message derived from the reason.
func (e *IOError) WithMessage(msg string) *IOError {
	e.message = msg
	return e
}

// Error returns the formatted error message.
func (e *IOError) Error() string {
	parts := []string{"reason=" + e.reason.String()}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	return e.format("io error", parts)
}

// Is checks if this error matches the target.
func (e *IOError) Is(target error) bool {
	if _, ok := target.(*IOError); ok {
		return true
	}
	return e.is(target)
}

// ExitCode returns the process exit code for this error.
func (e *IOError) ExitCode() int { return ExitIO }

// -----------------------------------------------------------------------------
// PhaseError
// -----------------------------------------------------------------------------

// PhaseError reports that the phase implementer could not complete a phase.
// Detail is the implementer's own description of what went wrong.
type PhaseError struct {
	baseError
	PhaseIndex int
	Detail     string
}

// NewPhaseError creates a PhaseImplementationFailed error for a phase.
func NewPhaseError(phaseIndex int, detail string) *PhaseError {
	return &PhaseError{
		baseError:  baseError{reason: ReasonPhaseImplementationFailed},
		PhaseIndex: phaseIndex,
		Detail:     detail,
	}
}

// WithCause attaches an underlying error, e.g. a process exit error.
func (e *PhaseError) WithCause(cause error) *PhaseError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *PhaseError) Error() string {
	parts := []string{fmt.Sprintf("phase=%d", e.PhaseIndex)}
	msg := e.format("phase error", parts)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s\ndetail: %s", msg, e.Detail)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *PhaseError) Is(target error) bool {
	if _, ok := target.(*PhaseError); ok {
		return true
	}
	return e.is(target)
}

// ExitCode returns the process exit code for this error.
func (e *PhaseError) ExitCode() int { return ExitPhaseFailed }

// -----------------------------------------------------------------------------
// AbortError
// -----------------------------------------------------------------------------

// AbortError reports a run stopped by the human, either by declining the
// manual gate or by interrupting the process.
type AbortError struct {
	baseError
	PhaseIndex int
}

// NewAbortError creates a UserAbort error. cause may be nil or the
// context error that interrupted the run.
func NewAbortError(phaseIndex int, cause error) *AbortError {
	return &AbortError{
		baseError:  baseError{reason: ReasonUserAbort, cause: cause},
		PhaseIndex: phaseIndex,
	}
}

// Error returns the formatted error message.
func (e *AbortError) Error() string {
	var parts []string
	if e.PhaseIndex > 0 {
		parts = append(parts, fmt.Sprintf("phase=%d", e.PhaseIndex))
	}
	return e.format("aborted", parts)
}

// Is checks if this error matches the target.
func (e *AbortError) Is(target error) bool {
	if _, ok := target.(*AbortError); ok {
		return true
	}
	return e.is(target)
}

// ExitCode returns the process exit code for this error.
func (e *AbortError) ExitCode() int { return ExitUserAbort }

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// ExitCode returns the exit code for err. nil maps to ExitOK and errors
// outside the taxonomy map to ExitGeneric.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return ExitGeneric
}

// ReasonOf returns the halt reason carried by err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var r interface{ Reason() Reason }
	if errors.As(err, &r) {
		return r.Reason()
	}
	return ReasonUnknown
}
