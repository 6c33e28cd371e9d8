package ai

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Iron-Ham/autoplan/internal/logging"
)

// ErrPlanPathNotFound is returned when the agent output names no plan file.
var ErrPlanPathNotFound = errors.New("no plan path found in agent output")

// DryRunPlanName is the file name CreatePlan reports in dry-run mode.
const DryRunPlanName = "dry-run-plan.md"

// Planner asks the agent to write a new plan document.
type Planner struct {
	backend      Backend
	runner       CommandRunner
	slashCommand string
	plansDir     string
	dryRun       bool
	logger       *logging.Logger
}

// PlannerOptions configures NewPlanner.
type PlannerOptions struct {
	Backend      Backend
	Runner       CommandRunner
	SlashCommand string
	// PlansDir is the directory, relative to the working directory, that
	// the agent writes plans into.
	PlansDir string
	DryRun   bool
	Logger   *logging.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(opts PlannerOptions) *Planner {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Planner{
		backend:      opts.Backend,
		runner:       opts.Runner,
		slashCommand: opts.SlashCommand,
		plansDir:     strings.TrimSuffix(opts.PlansDir, "/"),
		dryRun:       opts.DryRun,
		logger:       opts.Logger,
	}
}

// CreatePlan runs the plan-creation command for description and returns
// the path of the plan the agent wrote. The path is the first
// backtick-quoted Markdown file under the plans directory in the output.
func (p *Planner) CreatePlan(ctx context.Context, description string) (string, error) {
	prompt, err := RenderCreatePrompt(CreatePromptData{
		SlashCommand: p.slashCommand,
		Description:  description,
	})
	if err != nil {
		return "", err
	}

	if p.dryRun {
		p.logger.Info("dry run: would create plan", "prompt", prompt)
		return path.Join(p.plansDir, DryRunPlanName), nil
	}

	name, args := p.backend.OneShotCommand(prompt)
	p.logger.Info("creating plan", "backend", p.backend.Name())
	stdout, stderr, err := p.runner.Run(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("plan creation failed: %w%s", err, withOutput("", stdout, stderr))
	}

	planPath, ok := extractPlanPath(stdout, p.plansDir)
	if !ok {
		return "", fmt.Errorf("%w (expected `%s/<name>.md`)", ErrPlanPathNotFound, p.plansDir)
	}
	p.logger.Info("plan created", "path", planPath)
	return planPath, nil
}

func extractPlanPath(output, plansDir string) (string, bool) {
	re := regexp.MustCompile("`(" + regexp.QuoteMeta(plansDir) + "/[^`]+\\.md)`")
	m := re.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}
