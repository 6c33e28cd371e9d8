package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/autoplan/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify autoplan configuration",
		Long: `View or modify autoplan configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
		RunE: runConfigShow,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  autoplan config set gate.mode tui
  autoplan config set implementer.backend codex
  autoplan config set run.pause_between_phases 5s

Valid keys:
  run.skip_manual_verification  - Never stop for manual verification (true/false)
  run.pause_between_phases      - Pause after each phase (duration, e.g. 1s)
  implementer.backend           - Agent CLI. Options: claude, codex
  implementer.command           - Agent executable path
  implementer.skip_permissions  - Let the agent act without asking (true/false)
  implementer.slash_command     - Command file used for phase prompts
  implementer.phase_timeout     - Limit per agent run (duration, 0 = none)
  create.slash_command          - Command file used by --create
  create.plans_dir              - Directory new plans are written to
  gate.mode                     - Manual gate. Options: prompt, tui, watch
  logging.enabled               - Write a log file (true/false)
  logging.level                 - Options: debug, info, warn, error
  logging.dir                   - Log directory
  logging.max_size_mb           - Rotate the log at this size
  logging.max_backups           - Rotated logs to keep
  logging.compress              - Gzip rotated logs (true/false)`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a default config file at ~/.config/autoplan/config.yaml with all available options.`,
		RunE:  runConfigInit,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE:  runConfigPath,
	})
	return configCmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// configKeyKinds lists the keys accepted by "config set" and their value
// kinds.
var configKeyKinds = map[string]string{
	"run.skip_manual_verification": "bool",
	"run.pause_between_phases":     "duration",
	"implementer.backend":          "backend",
	"implementer.command":          "string",
	"implementer.skip_permissions": "bool",
	"implementer.slash_command":    "string",
	"implementer.phase_timeout":    "duration",
	"create.slash_command":         "string",
	"create.plans_dir":             "string",
	"gate.mode":                    "gate",
	"logging.enabled":              "bool",
	"logging.level":                "level",
	"logging.dir":                  "string",
	"logging.max_size_mb":          "int",
	"logging.max_backups":          "int",
	"logging.compress":             "bool",
}

func parseConfigValue(key, value string) (any, error) {
	kind, ok := configKeyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'autoplan config set --help' to see valid keys", key)
	}

	oneOf := func(valid []string) (any, error) {
		v := strings.ToLower(value)
		if !slices.Contains(valid, v) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s", key, value, strings.Join(valid, ", "))
		}
		return v, nil
	}

	switch kind {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return n, nil
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected duration such as 1s or 10m", key)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return value, nil
	case "backend":
		return oneOf(config.ValidBackends())
	case "gate":
		return oneOf(config.ValidGateModes())
	case "level":
		return oneOf(config.ValidLogLevels())
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	typedValue, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typedValue)

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const configHeader = `# autoplan configuration
#
# run.pause_between_phases and implementer.phase_timeout take durations
# such as 1s or 30m. gate.mode is one of: prompt, tui, watch.
# Every key can be overridden with an AUTOPLAN_ environment variable,
# e.g. AUTOPLAN_GATE_MODE=watch.

`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'autoplan config set' to modify values", configFile)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to encode default configuration: %w", err)
	}
	if err := os.WriteFile(configFile, append([]byte(configHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize autoplan's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. $HOME/.config/autoplan/config.yaml")
	fmt.Fprintln(out, "  3. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: AUTOPLAN_* (e.g., AUTOPLAN_GATE_MODE)")
	return nil
}
