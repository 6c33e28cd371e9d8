// Package executor drives a plan through its phases one at a time.
//
// The Controller re-reads the plan document before every step, hands
// unfinished phases to a PhaseImplementer, waits at a Gate for manual
// verification, and stops at the first phase that cannot be completed so a
// later run can resume from the document alone.
package executor

import (
	"context"

	"github.com/Iron-Ham/autoplan/internal/gate"
)

// ImplementRequest asks an implementer to complete one phase. Each request
// is self-contained; implementers keep no state between phases.
type ImplementRequest struct {
	PlanLocation string
	PhaseIndex   int
	PhaseName    string
}

// ImplementResult is the implementer's report for one phase.
type ImplementResult struct {
	OK bool
	// CheckedAutomatedItems are descriptions of automated items the
	// implementer considers satisfied.
	CheckedAutomatedItems []string
	// ErrorDetail describes the failure when OK is false.
	ErrorDetail string
}

// PhaseImplementer performs the work of a phase.
type PhaseImplementer interface {
	Implement(ctx context.Context, req ImplementRequest) ImplementResult
}

// ImplementerFunc adapts a function to PhaseImplementer.
type ImplementerFunc func(ctx context.Context, req ImplementRequest) ImplementResult

// Implement calls f.
func (f ImplementerFunc) Implement(ctx context.Context, req ImplementRequest) ImplementResult {
	return f(ctx, req)
}

// Gate asks the human to confirm a phase's manual verification.
type Gate interface {
	Confirm(ctx context.Context, req gate.Request) (gate.Decision, error)
}
