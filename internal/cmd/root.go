// Package cmd implements the autoplan command line.
package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/Iron-Ham/autoplan/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree so flag state never leaks between executions.
func NewRootCmd() *cobra.Command {
	f := &runFlags{}
	rootCmd := &cobra.Command{
		Use:   "autoplan",
		Short: "Implement a phased Markdown plan, one phase at a time",
		Long: `autoplan drives an AI coding agent through a Markdown implementation plan.

Each "## Phase N: Name" section is handed to the agent in turn. A phase is
done when every item under "Automated Verification" is checked and a human
has confirmed the items under "Manual Verification". Progress lives in the
plan file itself, so an interrupted run resumes where it stopped.`,
		Example: `  autoplan --plan thoughts/shared/plans/2026-10-19-oauth.md
  autoplan --plan plan.md --start-phase 2 --end-phase 3
  autoplan --create "Add OAuth login" --yes
  autoplan status --plan plan.md
  autoplan interactive`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, f)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/autoplan/config.yaml)")
	f.register(rootCmd)
	rootCmd.MarkFlagsMutuallyExclusive("plan", "create")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInteractiveCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/autoplan")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("AUTOPLAN")
	// e.g. AUTOPLAN_GATE_MODE for gate.mode
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine unless it was named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
