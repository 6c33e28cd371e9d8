package executor

import (
	"bytes"
	"strings"
	"testing"
	"time"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/plan"
)

func samplePhases() []plan.PhaseSummary {
	return []plan.PhaseSummary{
		{Index: 1, Name: "Schema", Status: plan.StatusComplete, AutomatedDone: 1, AutomatedTotal: 1, ManualDone: 1, ManualTotal: 1},
		{Index: 2, Name: "A phase name far too long to fit in its column", Status: plan.StatusInProgress, AutomatedDone: 1, AutomatedTotal: 2},
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, samplePhases())
	out := buf.String()

	for _, want := range []string{"Phase", "Status", "Schema", "complete", "in_progress", "1/2", "0/0", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteSummary() missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("WriteSummary() wrote %d lines, want 3", got)
	}
}

func TestReport_RenderFinished(t *testing.T) {
	r := &Report{
		Session: Session{Mode: ModeDryRun},
		State:   StateFinished,
		Phases:  samplePhases(),
		Ran:     []int{1, 2},
		Elapsed: 3 * time.Second,
	}
	var buf bytes.Buffer
	r.Render(&buf)

	out := buf.String()
	if !strings.Contains(out, "[dry run] Finished in 3s. Phases run: 1, 2") {
		t.Errorf("Render() =\n%s", out)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestReport_RenderStopped(t *testing.T) {
	err := apperrors.NewPhaseError(2, "boom")
	r := &Report{
		Session:   Session{Mode: ModeRun},
		State:     StateStopped,
		Reason:    apperrors.ReasonOf(err),
		LastPhase: 2,
		Phases:    samplePhases(),
		err:       err,
	}
	var buf bytes.Buffer
	r.Render(&buf)

	out := buf.String()
	for _, want := range []string{"Stopped at phase 2 (phase_implementation_failed)", "Phases run: none", "--start-phase 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if r.Err() != err {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}
