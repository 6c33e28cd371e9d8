package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newInteractiveCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Create and implement plans from a command prompt",
		Long: `Start a session that reads commands from standard input:

  create     describe a task and generate a plan for it
  implement  run one phase of a plan, or all of them
  quit       end the session

A failed or declined phase ends that command, not the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, f)
		},
	}
	f.registerSession(cmd)
	return cmd
}

func runInteractive(cmd *cobra.Command, f *runFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newRunEnv(cmd, f)
	if err != nil {
		return err
	}
	defer env.logger.Close()

	s := &interactiveSession{env: env}
	for {
		command, err := env.ask(ctx, "\nCommand (create/implement/quit): ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(env.out)
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(command) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "create":
			err = s.create(ctx)
		case "implement":
			err = s.implement(ctx)
		default:
			fmt.Fprintln(env.out, styles.Warning.Render(fmt.Sprintf("Unknown command %q", command)))
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.NewAbortError(0, ctxErr)
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(env.out)
			return nil
		}
		if err != nil {
			env.logger.Warn("interactive command failed", "command", command, "error", err)
			fmt.Fprintln(env.out, styles.Error.Render("Error: "+err.Error()))
		}
	}
}

// interactiveSession remembers the last plan created so implement can
// offer it as the default.
type interactiveSession struct {
	env      *runEnv
	lastPlan string
}

func (s *interactiveSession) create(ctx context.Context) error {
	description, err := s.env.ask(ctx, "Task description: ")
	if err != nil {
		return err
	}
	if description == "" {
		fmt.Fprintln(s.env.out, styles.Warning.Render("A task description is required."))
		return nil
	}
	path, err := s.env.createPlan(ctx, description)
	if err != nil {
		return err
	}
	if !s.env.dryRun {
		s.lastPlan = path
	}
	return nil
}

func (s *interactiveSession) implement(ctx context.Context) error {
	question := "Plan path: "
	if s.lastPlan != "" {
		question = fmt.Sprintf("Plan path [%s]: ", s.lastPlan)
	}
	planPath, err := s.env.ask(ctx, question)
	if err != nil {
		return err
	}
	if planPath == "" {
		planPath = s.lastPlan
	}
	if planPath == "" {
		fmt.Fprintln(s.env.out, styles.Warning.Render("A plan path is required."))
		return nil
	}

	answer, err := s.env.ask(ctx, "Phase number (or 'all'): ")
	if err != nil {
		return err
	}
	phase, ok := parsePhaseChoice(answer)
	if !ok {
		fmt.Fprintln(s.env.out, styles.Warning.Render(fmt.Sprintf("%q is not a phase number.", answer)))
		return nil
	}

	// One phase runs as the range [phase, phase]; "all" leaves both open.
	report, err := s.env.implement(ctx, planPath, phase, phase)
	if err != nil {
		return err
	}
	return report.Err()
}

// parsePhaseChoice maps "all" or an empty answer to 0 and a positive
// integer to itself.
func parsePhaseChoice(answer string) (int, bool) {
	if answer == "" || strings.EqualFold(answer, "all") {
		return 0, true
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ask prints question and returns the trimmed answer. End of input with
// nothing typed is io.EOF and an interrupt is a user abort.
func (e *runEnv) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(e.out, question)
	line, err := e.lines.ReadLine(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		fmt.Fprintln(e.out)
		return "", apperrors.NewAbortError(0, ctxErr)
	}
	answer := strings.TrimSpace(line)
	if err != nil && (answer == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return answer, nil
}
