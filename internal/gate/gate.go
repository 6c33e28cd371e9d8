// Package gate implements the human confirmation step that follows a
// phase's automated verification.
//
// A gate blocks until the human confirms or declines that the phase's
// manual verification items hold. It has no timeout; the caller's context
// is the only way to give up waiting.
package gate

import (
	"context"

	"github.com/Iron-Ham/autoplan/internal/plan"
)

// Request describes the phase awaiting confirmation.
type Request struct {
	PhaseIndex int
	PhaseName  string
	// Items are the phase's manual verification items.
	Items []plan.VerificationItem
	// Content is the raw Markdown body of the phase.
	Content      string
	PlanLocation string
}

// NewRequest builds a Request for ph.
func NewRequest(location string, ph plan.Phase) Request {
	return Request{
		PhaseIndex:   ph.Index,
		PhaseName:    ph.Name,
		Items:        ph.Manual,
		Content:      ph.Content,
		PlanLocation: location,
	}
}

// Pending returns the descriptions of the unchecked items.
func (r Request) Pending() []string {
	var out []string
	for _, it := range r.Items {
		if !it.Checked {
			out = append(out, it.Description)
		}
	}
	return out
}

// Decision is the human's answer.
type Decision struct {
	Confirmed bool
}

// Confirmer blocks until the human answers a Request.
type Confirmer interface {
	Confirm(ctx context.Context, req Request) (Decision, error)
}

// AutoGate confirms every request without asking.
type AutoGate struct{}

// Confirm returns a positive decision unless ctx is already done.
func (AutoGate) Confirm(ctx context.Context, _ Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	return Decision{Confirmed: true}, nil
}

var (
	_ Confirmer = AutoGate{}
	_ Confirmer = (*PromptGate)(nil)
	_ Confirmer = (*WatchGate)(nil)
)
