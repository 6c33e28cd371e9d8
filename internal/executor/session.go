package executor

import (
	"time"

	"github.com/google/uuid"
)

// Mode describes how a session treats side effects.
type Mode string

const (
	ModeRun    Mode = "run"
	ModeDryRun Mode = "dry-run"
)

// Session identifies one invocation of the controller.
type Session struct {
	ID           string
	Mode         Mode
	PlanLocation string
	// StartPhase and EndPhase are the requested range. 0 means the resume
	// point and the last phase respectively.
	StartPhase int
	EndPhase   int
	StartedAt  time.Time
}

func newSession(opts Options, now time.Time) Session {
	mode := ModeRun
	if opts.DryRun {
		mode = ModeDryRun
	}
	id := opts.RunID
	if id == "" {
		id = uuid.New().String()
	}
	return Session{
		ID:           id,
		Mode:         mode,
		PlanLocation: opts.PlanLocation,
		StartPhase:   opts.StartPhase,
		EndPhase:     opts.EndPhase,
		StartedAt:    now,
	}
}
