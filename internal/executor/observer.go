package executor

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
)

// Observer receives progress notifications from the Controller. Calls are
// made synchronously from the controller's goroutine.
type Observer interface {
	OnTransition(from, to State)
	OnPhaseStart(ph plan.Phase, status plan.Status)
	OnPhaseDone(index int, status plan.Status)
}

// LogObserver records progress through a logger.
type LogObserver struct {
	Logger *logging.Logger
}

func (o LogObserver) OnTransition(from, to State) {
	o.Logger.Debug("state transition", "from", from.String(), "to", to.String())
}

func (o LogObserver) OnPhaseStart(ph plan.Phase, status plan.Status) {
	o.Logger.WithPhase(ph.Index).Info("phase started", "name", ph.Name, "status", status.String())
}

func (o LogObserver) OnPhaseDone(index int, status plan.Status) {
	o.Logger.WithPhase(index).Info("phase done", "status", status.String())
}

// ProgressObserver prints per-phase progress for humans.
type ProgressObserver struct {
	W io.Writer
	// Transitions also prints every state change.
	Transitions bool
}

func (o ProgressObserver) OnTransition(from, to State) {
	if o.Transitions {
		fmt.Fprintln(o.W, styles.Muted.Render(fmt.Sprintf("  %s -> %s", from, to)))
	}
}

func (o ProgressObserver) OnPhaseStart(ph plan.Phase, status plan.Status) {
	fmt.Fprintf(o.W, "%s %s\n",
		styles.Title.Render(fmt.Sprintf("Phase %d: %s", ph.Index, ph.Name)),
		styles.Status(status))
}

func (o ProgressObserver) OnPhaseDone(index int, status plan.Status) {
	fmt.Fprintf(o.W, "%s %s\n",
		styles.Secondary.Render(fmt.Sprintf("Phase %d done", index)),
		styles.Status(status))
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (obs Observers) OnTransition(from, to State) {
	for _, o := range obs {
		o.OnTransition(from, to)
	}
}

func (obs Observers) OnPhaseStart(ph plan.Phase, status plan.Status) {
	for _, o := range obs {
		o.OnPhaseStart(ph, status)
	}
}

func (obs Observers) OnPhaseDone(index int, status plan.Status) {
	for _, o := range obs {
		o.OnPhaseDone(index, status)
	}
}

var (
	_ Observer = LogObserver{}
	_ Observer = ProgressObserver{}
	_ Observer = Observers(nil)
)
