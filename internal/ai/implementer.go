package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Iron-Ham/autoplan/internal/executor"
	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	"github.com/Iron-Ham/autoplan/internal/util"
)

// Output markers the agent uses to report progress.
var (
	// phaseCompleteRe matches a line that starts with "Phase 2 Complete" or
	// "Phase Complete", optionally behind Markdown heading or bold marks.
	phaseCompleteRe = regexp.MustCompile(`(?im)^[\s#*>]*phase(?:\s+\d+)?:?\s+complete\b`)
	readyManualRe   = regexp.MustCompile(`(?i)ready for manual verification`)
	checkedLineRe   = regexp.MustCompile(`(?m)^\s*CHECKED:\s*(.+?)\s*$`)
)

// detailLines bounds how much agent output ends up in an error detail.
const (
	detailLines = 20
	detailRunes = 2000
)

// CLIImplementer implements phases by running an agent CLI once per phase.
type CLIImplementer struct {
	backend Backend
	store   store.Store
	runner  CommandRunner
	command *SlashCommand
	timeout time.Duration
	logger  *logging.Logger
}

// ImplementerOptions configures NewCLIImplementer.
type ImplementerOptions struct {
	Backend Backend
	Store   store.Store
	// Runner defaults to ExecRunner{}.
	Runner CommandRunner
	// SlashCommand supplies the prompt instructions. Nil uses the built-in
	// instructions.
	SlashCommand *SlashCommand
	// Timeout bounds each run. 0 means no limit.
	Timeout time.Duration
	Logger  *logging.Logger
}

// NewCLIImplementer creates a CLIImplementer.
func NewCLIImplementer(opts ImplementerOptions) *CLIImplementer {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &CLIImplementer{
		backend: opts.Backend,
		store:   opts.Store,
		runner:  opts.Runner,
		command: opts.SlashCommand,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Implement runs the agent for one phase and reports which automated items
// are checked afterwards. The run succeeds when the process exits cleanly
// and its output carries a completion marker.
func (im *CLIImplementer) Implement(ctx context.Context, req executor.ImplementRequest) executor.ImplementResult {
	log := im.logger.WithPhase(req.PhaseIndex)

	before, err := im.phase(ctx, req)
	if err != nil {
		return executor.ImplementResult{ErrorDetail: err.Error()}
	}

	var instructions string
	if im.command != nil {
		instructions = im.command.Body
	}
	prompt, err := RenderImplementPrompt(ImplementPromptData{
		Instructions: instructions,
		PlanPath:     req.PlanLocation,
		PhaseIndex:   req.PhaseIndex,
		PhaseName:    req.PhaseName,
	})
	if err != nil {
		return executor.ImplementResult{ErrorDetail: err.Error()}
	}

	runCtx := ctx
	if im.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, im.timeout)
		defer cancel()
	}

	name, args := im.backend.OneShotCommand(prompt)
	log.Info("starting agent", "backend", im.backend.Name(), "command", name)
	start := time.Now()
	stdout, stderr, runErr := im.runner.Run(runCtx, name, args)
	log.Info("agent finished", "duration", time.Since(start).Round(time.Millisecond), "error", runErr)

	if runErr != nil {
		return executor.ImplementResult{ErrorDetail: runFailureDetail(runErr, im.timeout, stdout, stderr)}
	}

	after, err := im.phase(ctx, req)
	if err != nil {
		return executor.ImplementResult{ErrorDetail: err.Error()}
	}

	checked := checkedItems(after, stdout)
	if newly := newlyChecked(before, after); len(newly) > 0 {
		log.Debug("agent checked items in the plan", "items", newly)
	}

	if !hasCompletionMarker(stdout) {
		return executor.ImplementResult{
			CheckedAutomatedItems: checked,
			ErrorDetail:           withOutput("agent output contained no phase completion marker", stdout, stderr),
		}
	}
	return executor.ImplementResult{OK: true, CheckedAutomatedItems: checked}
}

func (im *CLIImplementer) phase(ctx context.Context, req executor.ImplementRequest) (plan.Phase, error) {
	p, err := im.store.Load(ctx, req.PlanLocation)
	if err != nil {
		return plan.Phase{}, fmt.Errorf("failed to load plan: %w", err)
	}
	ph, ok := p.Lookup(req.PhaseIndex)
	if !ok {
		return plan.Phase{}, fmt.Errorf("phase %d is no longer in the plan", req.PhaseIndex)
	}
	return ph, nil
}

// checkedItems merges the automated items checked in the document with
// the automated items the agent named in CHECKED lines.
func checkedItems(ph plan.Phase, stdout string) []string {
	automated := make(map[string]string, len(ph.Automated))
	for _, it := range ph.Automated {
		automated[plan.NormalizeDescription(it.Description)] = it.Description
	}

	seen := make(map[string]bool)
	var out []string
	add := func(desc string) {
		key := plan.NormalizeDescription(desc)
		if _, ok := automated[key]; !ok || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, automated[key])
	}

	for _, it := range ph.Automated {
		if it.Checked {
			add(it.Description)
		}
	}
	for _, m := range checkedLineRe.FindAllStringSubmatch(stdout, -1) {
		add(m[1])
	}
	return out
}

func newlyChecked(before, after plan.Phase) []string {
	was := make(map[int]bool)
	for _, it := range before.Items() {
		was[it.Line] = it.Checked
	}
	var out []string
	for _, it := range after.Items() {
		if it.Checked && !was[it.Line] {
			out = append(out, it.Description)
		}
	}
	return out
}

func hasCompletionMarker(stdout string) bool {
	return phaseCompleteRe.MatchString(stdout) || readyManualRe.MatchString(stdout)
}

func runFailureDetail(err error, timeout time.Duration, stdout, stderr string) string {
	var msg string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = fmt.Sprintf("agent timed out after %s", timeout)
	case errors.Is(err, context.Canceled):
		msg = "agent run cancelled"
	default:
		msg = fmt.Sprintf("agent failed: %v", err)
	}
	return withOutput(msg, stdout, stderr)
}

func withOutput(msg, stdout, stderr string) string {
	tail := util.TailLines(stderr, detailLines)
	if tail == "" {
		tail = util.TailLines(stdout, detailLines)
	}
	if tail == "" {
		return msg
	}
	return msg + "\n" + util.TruncateString(tail, detailRunes)
}

var _ executor.PhaseImplementer = (*CLIImplementer)(nil)

// DescribeCommand renders the command line for display in dry runs and
// logs. The prompt argument is elided.
func DescribeCommand(b Backend) string {
	name, args := b.OneShotCommand("<prompt>")
	return strings.Join(append([]string{name}, args...), " ")
}
