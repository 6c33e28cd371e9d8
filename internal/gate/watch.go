package gate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
)

// ErrWatchStopped is returned when the document watcher ends before the
// manual items are checked.
var ErrWatchStopped = errors.New("plan watcher stopped")

// WatchGate confirms once the human has checked every manual item of the
// phase in the plan document itself. There is no decline path; the human
// interrupts the run to stop.
type WatchGate struct {
	store   store.Store
	watcher store.Watcher
	out     io.Writer
	logger  *logging.Logger
}

// NewWatchGate creates a WatchGate. out receives instructions and may be
// nil. A nil logger discards output.
func NewWatchGate(s store.Store, w store.Watcher, out io.Writer, logger *logging.Logger) *WatchGate {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &WatchGate{store: s, watcher: w, out: out, logger: logger}
}

// Confirm waits until every manual item of the phase is checked on disk.
// Documents that fail to load while the human is mid-edit are ignored
// until the next change.
func (g *WatchGate) Confirm(ctx context.Context, req Request) (Decision, error) {
	log := g.logger.WithPhase(req.PhaseIndex)

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := g.watcher.Watch(watchCtx, req.PlanLocation)
	if err != nil {
		cancel()
		return Decision{}, fmt.Errorf("failed to watch plan: %w", err)
	}
	defer func() {
		cancel()
		for range events {
		}
	}()

	if g.out != nil {
		fmt.Fprintln(g.out, styles.Title.Render(fmt.Sprintf("Phase %d: %s", req.PhaseIndex, req.PhaseName)))
		fmt.Fprintln(g.out, styles.Subtitle.Render("Check off the manual verification items in "+req.PlanLocation+" to continue:"))
		for _, it := range req.Items {
			fmt.Fprintf(g.out, "  %s %s\n", styles.Checkbox(it.Checked), it.Description)
		}
	}

	if g.satisfied(ctx, req, log) {
		return Decision{Confirmed: true}, nil
	}
	for {
		select {
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		case _, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return Decision{}, err
				}
				return Decision{}, ErrWatchStopped
			}
			if g.satisfied(ctx, req, log) {
				return Decision{Confirmed: true}, nil
			}
		}
	}
}

func (g *WatchGate) satisfied(ctx context.Context, req Request, log *logging.Logger) bool {
	p, err := g.store.Load(ctx, req.PlanLocation)
	if err != nil {
		log.Debug("plan not loadable while waiting for manual verification", "error", err)
		return false
	}
	ph, ok := p.Lookup(req.PhaseIndex)
	if !ok {
		log.Debug("phase missing from plan while waiting for manual verification")
		return false
	}
	pending := ph.UncheckedManual()
	log.Debug("manual verification progress", "pending", len(pending), "total", len(ph.Manual))
	return len(pending) == 0
}
