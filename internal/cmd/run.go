package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/Iron-Ham/autoplan/internal/ai"
	"github.com/Iron-Ham/autoplan/internal/config"
	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/executor"
	"github.com/Iron-Ham/autoplan/internal/gate"
	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type runFlags struct {
	plan       string
	startPhase int
	endPhase   int
	verbose    bool
	dryRun     bool
	create     string
	yes        bool
	skipManual bool
	gateMode   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.plan, "plan", "", "path to the plan document")
	flags.IntVar(&f.startPhase, "start-phase", 0, "phase to start at, re-running it if already complete (default: resume point)")
	flags.IntVar(&f.endPhase, "end-phase", 0, "last phase to run (default: last phase in the plan)")
	flags.StringVar(&f.create, "create", "", "create a plan from this description first, then implement it")
	flags.BoolVar(&f.yes, "yes", false, "with --create, implement the new plan without asking")
	f.registerSession(cmd)
}

// registerSession adds the flags that shape how phases run, shared by the
// root command and the interactive session.
func (f *runFlags) registerSession(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print every step and debug logs to stderr")
	flags.BoolVar(&f.dryRun, "dry-run", false, "show what would run without invoking the agent or editing the plan")
	flags.BoolVar(&f.skipManual, "skip-manual-verification", false, "do not stop for manual verification")
	flags.StringVar(&f.gateMode, "gate", "", "manual verification gate: prompt, tui or watch")
}

// errPlanRequired is returned when neither --plan nor --create is given.
var errPlanRequired = errors.New("either --plan or --create is required")

func runPlan(cmd *cobra.Command, f *runFlags) error {
	if f.plan == "" && f.create == "" {
		return errPlanRequired
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newRunEnv(cmd, f)
	if err != nil {
		return err
	}
	defer env.logger.Close()

	planPath := f.plan
	if f.create != "" {
		planPath, err = env.createPlan(ctx, f.create)
		if err != nil {
			return err
		}
		if f.dryRun {
			// The dry-run plan does not exist, so there is nothing to simulate.
			return nil
		}
		if !f.yes {
			ok, err := askYesNo(ctx, env.lines, env.out, "Implement now? (y/n): ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(env.out, "Run later with: autoplan --plan %s\n", planPath)
				return nil
			}
		}
	}

	report, err := env.implement(ctx, planPath, f.startPhase, f.endPhase)
	if err != nil {
		return err
	}
	return report.Err()
}

// runEnv is what one invocation needs to create and implement plans.
type runEnv struct {
	cfg     *config.Config
	logger  *logging.Logger
	backend ai.Backend
	store   *store.FileStore
	in      io.Reader
	lines   *gate.LineReader
	out     io.Writer
	stderr  io.Writer
	verbose bool
	dryRun  bool
}

// newRunEnv loads configuration and builds the shared collaborators. The
// caller closes env.logger.
func newRunEnv(cmd *cobra.Command, f *runFlags) (*runEnv, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, f.verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	backend, err := ai.NewFromConfig(cfg.Implementer)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &runEnv{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		store:   store.NewFileStore(logger),
		in:      cmd.InOrStdin(),
		lines:   gate.NewLineReader(cmd.InOrStdin()),
		out:     cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
		verbose: f.verbose,
		dryRun:  f.dryRun,
	}, nil
}

// implement runs phases start..end of the plan at planPath and prints the
// report. The returned error covers failures before the run produced a
// report; report.Err carries the run's own outcome.
func (e *runEnv) implement(ctx context.Context, planPath string, start, end int) (*executor.Report, error) {
	runID := uuid.New().String()
	// A missing plan is left for the run to report.
	if _, statErr := os.Stat(planPath); statErr == nil && !e.dryRun {
		lock, err := store.AcquireLock(planPath, runID, e.logger)
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	slash, err := ai.LoadSlashCommand(e.cfg.Implementer.SlashCommand)
	switch {
	case errors.Is(err, ai.ErrSlashCommandNotFound):
		e.logger.Warn("slash command not found, using built-in instructions", "command", e.cfg.Implementer.SlashCommand)
		slash = nil
	case err != nil:
		return nil, err
	}

	runner := ai.ExecRunner{}
	if e.verbose {
		runner.Echo = e.stderr
	}
	implementer := ai.NewCLIImplementer(ai.ImplementerOptions{
		Backend:      e.backend,
		Store:        e.store,
		Runner:       runner,
		SlashCommand: slash,
		Timeout:      e.cfg.Implementer.PhaseTimeout,
		Logger:       e.logger,
	})

	confirmer, err := newGate(e.cfg.Gate.Mode, e.store, e.in, e.lines, e.out, e.logger)
	if err != nil {
		return nil, err
	}

	if e.dryRun {
		fmt.Fprintln(e.out, styles.Warning.Render("Dry run: no agent runs and no plan edits."))
		fmt.Fprintf(e.out, "Agent command: %s\n\n", ai.DescribeCommand(e.backend))
	}

	ctrl := executor.New(executor.Config{
		Store:       e.store,
		Implementer: implementer,
		Gate:        confirmer,
		Observer: executor.Observers{
			executor.LogObserver{Logger: e.logger},
			executor.ProgressObserver{W: e.out, Transitions: e.verbose},
		},
		Logger: e.logger,
	})

	report, err := ctrl.Run(ctx, executor.Options{
		PlanLocation:           planPath,
		RunID:                  runID,
		StartPhase:             start,
		EndPhase:               end,
		DryRun:                 e.dryRun,
		SkipManualVerification: e.cfg.Run.SkipManualVerification,
		PauseBetweenPhases:     e.cfg.Run.PauseBetweenPhases,
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(e.out)
	report.Render(e.out)
	return report, nil
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cmd.Flags().Changed("skip-manual-verification") {
		cfg.Run.SkipManualVerification = f.skipManual
	}
	if cmd.Flags().Changed("gate") {
		if !slices.Contains(config.ValidGateModes(), strings.ToLower(f.gateMode)) {
			return nil, fmt.Errorf("invalid --gate %q: must be one of %s", f.gateMode, strings.Join(config.ValidGateModes(), ", "))
		}
		cfg.Gate.Mode = strings.ToLower(f.gateMode)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool, stderr io.Writer) (*logging.Logger, error) {
	opts := logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: verbose,
		Stderr:  stderr,
		Rotation: logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		},
	}
	if cfg.Logging.Enabled {
		opts.Dir = cfg.Logging.ResolveDir()
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}

// createPlan runs plan generation for description and returns the new
// plan's path. Interrupting generation is a user abort.
func (e *runEnv) createPlan(ctx context.Context, description string) (string, error) {
	planner := ai.NewPlanner(ai.PlannerOptions{
		Backend:      e.backend,
		SlashCommand: e.cfg.Create.SlashCommand,
		PlansDir:     e.cfg.Create.PlansDir,
		DryRun:       e.dryRun,
		Logger:       e.logger,
	})

	fmt.Fprintln(e.out, styles.Muted.Render("Creating plan..."))
	path, err := planner.CreatePlan(ctx, description)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperrors.NewAbortError(0, ctxErr)
		}
		return "", err
	}
	fmt.Fprintf(e.out, "Created plan: %s\n", styles.Primary.Render(path))
	return path, nil
}

// askYesNo re-asks until it reads y/yes or n/no. End of input means no.
func askYesNo(ctx context.Context, lines *gate.LineReader, out io.Writer, question string) (bool, error) {
	for {
		fmt.Fprint(out, question)
		line, err := lines.ReadLine(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			fmt.Fprintln(out)
			return false, apperrors.NewAbortError(0, ctxErr)
		}
		if answer, ok := gate.ParseAnswer(line); ok {
			return answer, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return false, nil
			}
			return false, err
		}
		fmt.Fprintln(out, styles.Warning.Render("Please answer y or n."))
	}
}
