package cmd

import (
	"errors"
	"fmt"

	"github.com/Iron-Ham/autoplan/internal/executor"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of every phase in a plan",
		Long: `Show the status of every phase in a plan and the phase a run would
start at. Nothing is executed and the plan is not modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				return errors.New("--plan is required")
			}
			return runStatus(cmd, planPath)
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "path to the plan document")
	return cmd
}

func runStatus(cmd *cobra.Command, planPath string) error {
	out := cmd.OutOrStdout()

	p, err := store.NewFileStore(nil).Load(cmd.Context(), planPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, styles.Title.Render(planPath))
	executor.WriteSummary(out, p.Summary())
	fmt.Fprintln(out)

	if resume, ok := p.ResumePoint(); ok {
		ph, _ := p.Lookup(resume)
		fmt.Fprintf(out, "Resume point: phase %d (%s)\n", resume, ph.Name)
	} else {
		fmt.Fprintln(out, styles.Secondary.Render("All phases complete."))
	}
	return nil
}
