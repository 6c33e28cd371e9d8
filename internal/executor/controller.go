package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/gate"
	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
)

// ErrInvalidRange is returned by Options.Validate for an impossible phase
// range.
var ErrInvalidRange = errors.New("invalid phase range")

// Options configures one Run.
type Options struct {
	PlanLocation string
	// RunID becomes the Session ID. Empty generates one.
	RunID string
	// StartPhase sets the first phase, re-running it if it is complete.
	// 0 starts at the resume point.
	StartPhase int
	// EndPhase is the last phase to run, inclusive. 0 runs to the end.
	EndPhase int
	// DryRun reports what would happen without invoking the implementer,
	// the gate or the store's write path.
	DryRun                 bool
	SkipManualVerification bool
	// PauseBetweenPhases is slept after each completed phase.
	PauseBetweenPhases time.Duration
}

// Validate checks the phase range.
func (o Options) Validate() error {
	if o.PlanLocation == "" {
		return fmt.Errorf("%w: plan location is required", ErrInvalidRange)
	}
	if o.StartPhase < 0 || o.EndPhase < 0 {
		return fmt.Errorf("%w: phase numbers must not be negative", ErrInvalidRange)
	}
	if o.StartPhase > 0 && o.EndPhase > 0 && o.StartPhase > o.EndPhase {
		return fmt.Errorf("%w: start phase %d is after end phase %d", ErrInvalidRange, o.StartPhase, o.EndPhase)
	}
	return nil
}

// Config holds the Controller's collaborators.
type Config struct {
	Store       store.Store
	Implementer PhaseImplementer
	Gate        Gate
	// Observer defaults to a LogObserver over Logger.
	Observer Observer
	Logger   *logging.Logger
}

// Controller runs plans phase by phase. A Controller may be reused for
// several sequential runs but not concurrently.
type Controller struct {
	store       store.Store
	implementer PhaseImplementer
	gate        Gate
	observer    Observer
	logger      *logging.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Controller.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = LogObserver{Logger: cfg.Logger}
	}
	if cfg.Gate == nil {
		cfg.Gate = gate.AutoGate{}
	}
	return &Controller{
		store:       cfg.Store,
		implementer: cfg.Implementer,
		gate:        cfg.Gate,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// run is the mutable state of one Run.
type run struct {
	opts   Options
	logger *logging.Logger
	report *Report
	state  State

	cursor int
	end    int
	// forced is the explicit start phase until it has been reached.
	forced int
}

// Run drives the plan until every phase in range is complete or a phase
// cannot be completed. The returned error is non-nil only for invalid
// options; halts are described by the Report and Report.Err.
func (c *Controller) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	started := c.now()
	session := newSession(opts, started)
	r := &run{
		opts:   opts,
		logger: c.logger.WithRun(session.ID),
		report: &Report{Session: session},
		state:  StateIdle,
		forced: opts.StartPhase,
	}
	r.logger.Info("run started",
		"plan", opts.PlanLocation,
		"mode", string(session.Mode),
		"start_phase", opts.StartPhase,
		"end_phase", opts.EndPhase)

	c.execute(ctx, r)

	r.report.Elapsed = c.now().Sub(started)
	if p, err := c.store.Load(context.WithoutCancel(ctx), opts.PlanLocation); err == nil {
		r.report.Phases = p.Summary()
	}
	if r.report.err != nil {
		r.logger.Error("run stopped",
			"phase", r.report.LastPhase,
			"reason", r.report.Reason.String(),
			"error", r.report.err)
	} else {
		r.logger.Info("run finished", "phases_run", r.report.Ran, "elapsed", r.report.Elapsed)
	}
	return r.report, nil
}

func (c *Controller) execute(ctx context.Context, r *run) {
	c.transition(r, StateSelectingPhase)

	p, err := c.store.Load(ctx, r.opts.PlanLocation)
	if err != nil {
		c.stop(ctx, r, err)
		return
	}
	r.end = r.opts.EndPhase
	if r.end == 0 {
		indices := p.Indices()
		r.end = indices[len(indices)-1]
	}
	if r.opts.StartPhase > 0 {
		r.cursor = r.opts.StartPhase
	} else {
		resume, ok := p.ResumePoint()
		if !ok {
			r.logger.Info("all phases already complete")
			c.finish(r)
			return
		}
		r.cursor = resume
	}
	r.logger.Debug("phase range selected", "from", r.cursor, "to", r.end)

	for {
		if ctx.Err() != nil {
			c.stop(ctx, r, ctx.Err())
			return
		}
		if r.state != StateSelectingPhase {
			c.transition(r, StateSelectingPhase)
		}

		p, err := c.store.Load(ctx, r.opts.PlanLocation)
		if err != nil {
			c.stop(ctx, r, err)
			return
		}
		ph, ok := nextPhase(p, r.cursor, r.end)
		if !ok {
			c.finish(r)
			return
		}

		if err := c.drive(ctx, r, ph); err != nil {
			c.stop(ctx, r, err)
			return
		}
	}
}

// nextPhase returns the lowest-index phase in [cursor, end].
func nextPhase(p *plan.Plan, cursor, end int) (plan.Phase, bool) {
	for _, idx := range p.Indices() {
		if idx >= cursor && idx <= end {
			return p.Lookup(idx)
		}
	}
	return plan.Phase{}, false
}

// drive takes ph through the automated and manual gates and advances the
// cursor past it. A returned error halts the run.
func (c *Controller) drive(ctx context.Context, r *run, ph plan.Phase) error {
	log := r.logger.WithPhase(ph.Index)
	status := ph.Status()

	// An explicit start phase re-runs a Complete phase. Any other status is
	// driven exactly as a resume would drive it.
	rerun := r.forced == ph.Index && status == plan.StatusComplete
	r.forced = 0

	if len(ph.Items()) == 0 {
		log.Info("phase has no verification items, skipping", "name", ph.Name)
		r.cursor = ph.Index + 1
		return nil
	}
	if status == plan.StatusComplete && !rerun {
		log.Debug("phase already complete, skipping", "name", ph.Name)
		r.cursor = ph.Index + 1
		return nil
	}

	r.report.LastPhase = ph.Index
	c.observer.OnPhaseStart(ph, status)

	if status != plan.StatusAwaitingManualVerification {
		next, err := c.runAutomated(ctx, r, ph)
		if err != nil {
			return err
		}
		ph = next
	}

	if ph.Status() == plan.StatusAwaitingManualVerification {
		if err := c.awaitManual(ctx, r, ph); err != nil {
			return err
		}
	}

	return c.advance(ctx, r, ph.Index)
}

// runAutomated invokes the implementer and returns the phase as re-read
// from the document afterwards.
func (c *Controller) runAutomated(ctx context.Context, r *run, ph plan.Phase) (plan.Phase, error) {
	c.transition(r, StateRunningAutomated)
	log := r.logger.WithPhase(ph.Index)

	if r.opts.DryRun {
		log.Info("dry run: would implement phase",
			"name", ph.Name,
			"unchecked_automated", ph.UncheckedAutomated())
		return simulateAutomated(ph), nil
	}

	res := c.implementer.Implement(ctx, ImplementRequest{
		PlanLocation: r.opts.PlanLocation,
		PhaseIndex:   ph.Index,
		PhaseName:    ph.Name,
	})
	if err := ctx.Err(); err != nil {
		return ph, err
	}
	if !res.OK {
		return ph, apperrors.NewPhaseError(ph.Index, res.ErrorDetail)
	}

	if len(res.CheckedAutomatedItems) > 0 {
		if err := c.store.MarkChecked(ctx, r.opts.PlanLocation, ph.Index, res.CheckedAutomatedItems); err != nil {
			return ph, err
		}
	}

	p, err := c.store.Load(ctx, r.opts.PlanLocation)
	if err != nil {
		return ph, err
	}
	after, ok := p.Lookup(ph.Index)
	if !ok {
		return ph, apperrors.NewPhaseError(ph.Index, "phase disappeared from the plan during implementation")
	}

	switch after.Status() {
	case plan.StatusNotStarted, plan.StatusInProgress:
		detail := "automated verification items still unchecked: " + strings.Join(after.UncheckedAutomated(), "; ")
		return after, apperrors.NewPhaseError(ph.Index, detail)
	}
	log.Info("automated verification passed", "status", after.Status().String())
	return after, nil
}

// simulateAutomated marks the automated items of ph as checked without
// touching the document.
func simulateAutomated(ph plan.Phase) plan.Phase {
	items := make([]plan.VerificationItem, len(ph.Automated))
	for i, it := range ph.Automated {
		it.Checked = true
		items[i] = it
	}
	ph.Automated = items
	return ph
}

func (c *Controller) awaitManual(ctx context.Context, r *run, ph plan.Phase) error {
	c.transition(r, StateAwaitingManualGate)
	log := r.logger.WithPhase(ph.Index)

	if r.opts.DryRun {
		log.Info("dry run: would ask for manual verification", "items", ph.UncheckedManual())
		return nil
	}
	if r.opts.SkipManualVerification {
		log.Info("manual verification skipped", "items", ph.UncheckedManual())
		return nil
	}

	log.Info("waiting for manual verification", "items", ph.UncheckedManual())
	decision, err := c.gate.Confirm(ctx, gate.NewRequest(r.opts.PlanLocation, ph))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("manual verification failed: %w", err)
	}
	if !decision.Confirmed {
		log.Info("manual verification declined")
		return apperrors.NewAbortError(ph.Index, nil)
	}

	if err := c.store.MarkChecked(ctx, r.opts.PlanLocation, ph.Index, ph.UncheckedManual()); err != nil {
		return err
	}
	log.Info("manual verification confirmed")
	return nil
}

func (c *Controller) advance(ctx context.Context, r *run, index int) error {
	c.transition(r, StateAdvancing)

	r.report.Ran = append(r.report.Ran, index)
	status := plan.StatusComplete
	if !r.opts.DryRun && !r.opts.SkipManualVerification {
		if p, err := c.store.Load(ctx, r.opts.PlanLocation); err == nil {
			if ph, ok := p.Lookup(index); ok {
				status = ph.Status()
			}
		}
	}
	c.observer.OnPhaseDone(index, status)
	r.cursor = index + 1

	if r.opts.PauseBetweenPhases > 0 && r.cursor <= r.end {
		if err := c.sleep(ctx, r.opts.PauseBetweenPhases); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) transition(r *run, to State) {
	from := r.state
	r.state = to
	c.observer.OnTransition(from, to)
}

// stop records err as the halt cause. Context errors become UserAbort.
func (c *Controller) stop(ctx context.Context, r *run, err error) {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = apperrors.NewAbortError(r.report.LastPhase, err)
	}
	r.report.State = StateStopped
	r.report.Reason = apperrors.ReasonOf(err)
	r.report.err = err
	c.transition(r, StateStopped)
}

func (c *Controller) finish(r *run) {
	r.report.State = StateFinished
	c.transition(r, StateFinished)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
