package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestReason_String(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{ReasonNoPhasesFound, "no_phases_found"},
		{ReasonDuplicateIndex, "duplicate_index"},
		{ReasonMalformedChecklist, "malformed_checklist"},
		{ReasonNotFound, "not_found"},
		{ReasonPermissionDenied, "permission_denied"},
		{ReasonUnreadable, "unreadable"},
		{ReasonWriteFailed, "write_failed"},
		{ReasonPhaseImplementationFailed, "phase_implementation_failed"},
		{ReasonUserAbort, "user_abort"},
		{Reason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.reason.String(); got != tt.want {
				t.Errorf("Reason.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ParseError Tests
// -----------------------------------------------------------------------------

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "reason only uses sentinel text",
			err:  NewParseError(ReasonNoPhasesFound, ""),
			want: "parse error [reason=no_phases_found]: no phases found",
		},
		{
			name: "line and phase",
			err:  NewParseError(ReasonDuplicateIndex, "phase 2 declared twice").WithLine(14).WithPhase(2),
			want: "parse error [reason=duplicate_index, line=14, phase=2]: phase 2 declared twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseError_Is(t *testing.T) {
	err := fmt.Errorf("load: %w", NewParseError(ReasonDuplicateIndex, "dup"))

	if !Is(err, ErrDuplicateIndex) {
		t.Error("expected errors.Is to match ErrDuplicateIndex")
	}
	if Is(err, ErrNoPhasesFound) {
		t.Error("did not expect errors.Is to match ErrNoPhasesFound")
	}
	var perr *ParseError
	if !As(err, &perr) {
		t.Fatal("expected errors.As to find *ParseError")
	}
	if perr.Reason() != ReasonDuplicateIndex {
		t.Errorf("Reason() = %v, want %v", perr.Reason(), ReasonDuplicateIndex)
	}
}

// -----------------------------------------------------------------------------
// IOError Tests
// -----------------------------------------------------------------------------

func TestIOError_WrapsCause(t *testing.T) {
	err := NewIOError(ReasonNotFound, "plan.md", os.ErrNotExist)

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected match on reason sentinel")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected match on cause")
	}
	if !strings.Contains(err.Error(), "path=plan.md") {
		t.Errorf("Error() = %q, want path in context", err.Error())
	}
}

func TestIOError_WithMessage(t *testing.T) {
	err := NewIOError(ReasonWriteFailed, "p.md", nil).WithMessage("rename failed")
	want := "io error [reason=write_failed, path=p.md]: rename failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// PhaseError / AbortError Tests
// -----------------------------------------------------------------------------

func TestPhaseError_Error(t *testing.T) {
	err := NewPhaseError(3, "tests failed")
	got := err.Error()

	if !strings.HasPrefix(got, "phase error [phase=3]: phase implementation failed") {
		t.Errorf("Error() = %q", got)
	}
	if !strings.Contains(got, "detail: tests failed") {
		t.Errorf("Error() = %q, want detail", got)
	}
	if !errors.Is(err, ErrPhaseImplementationFailed) {
		t.Error("expected match on ErrPhaseImplementationFailed")
	}
}

func TestAbortError_ContextCause(t *testing.T) {
	err := NewAbortError(2, context.Canceled)

	if !errors.Is(err, ErrUserAbort) {
		t.Error("expected match on ErrUserAbort")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected match on context.Canceled")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", New("boom"), ExitGeneric},
		{"parse", NewParseError(ReasonNoPhasesFound, ""), ExitParse},
		{"io", NewIOError(ReasonUnreadable, "x", nil), ExitIO},
		{"phase", NewPhaseError(1, ""), ExitPhaseFailed},
		{"abort", NewAbortError(1, nil), ExitUserAbort},
		{"wrapped phase", fmt.Errorf("run: %w", NewPhaseError(1, "")), ExitPhaseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCodesDistinct(t *testing.T) {
	seen := map[int]bool{}
	for _, code := range []int{ExitOK, ExitGeneric, ExitParse, ExitIO, ExitPhaseFailed, ExitUserAbort} {
		if seen[code] {
			t.Fatalf("exit code %d used twice", code)
		}
		seen[code] = true
	}
}

func TestReasonOf(t *testing.T) {
	if got := ReasonOf(NewIOError(ReasonPermissionDenied, "", nil)); got != ReasonPermissionDenied {
		t.Errorf("ReasonOf() = %v, want %v", got, ReasonPermissionDenied)
	}
	if got := ReasonOf(New("x")); got != ReasonUnknown {
		t.Errorf("ReasonOf() = %v, want %v", got, ReasonUnknown)
	}
}
