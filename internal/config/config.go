package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete autoplan configuration
type Config struct {
	Run         RunConfig         `mapstructure:"run" yaml:"run"`
	Implementer ImplementerConfig `mapstructure:"implementer" yaml:"implementer"`
	Create      CreateConfig      `mapstructure:"create" yaml:"create"`
	Gate        GateConfig        `mapstructure:"gate" yaml:"gate"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// RunConfig controls how phases are driven
type RunConfig struct {
	// SkipManualVerification confirms every manual gate without asking
	SkipManualVerification bool `mapstructure:"skip_manual_verification" yaml:"skip_manual_verification"`
	// PauseBetweenPhases is slept after a phase completes, before the next
	// one is selected (default: 1s)
	PauseBetweenPhases time.Duration `mapstructure:"pause_between_phases" yaml:"pause_between_phases"`
}

// ImplementerConfig controls the agent CLI that implements each phase
type ImplementerConfig struct {
	// Backend selects the agent CLI: "claude" or "codex" (default: "claude")
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Command overrides the executable name or path. Empty uses the
	// backend's own name.
	Command string `mapstructure:"command" yaml:"command"`
	// SkipPermissions lets the agent edit files and run commands without
	// asking (default: true)
	SkipPermissions bool `mapstructure:"skip_permissions" yaml:"skip_permissions"`
	// SlashCommand is the command file whose body prefixes each phase
	// prompt (default: "implement_plan")
	SlashCommand string `mapstructure:"slash_command" yaml:"slash_command"`
	// PhaseTimeout bounds a single agent run. 0 means no limit.
	PhaseTimeout time.Duration `mapstructure:"phase_timeout" yaml:"phase_timeout"`
	// ExtraArgs are appended to the agent command line before the prompt
	ExtraArgs []string `mapstructure:"extra_args" yaml:"extra_args"`
}

// CreateConfig controls plan generation with --create
type CreateConfig struct {
	// SlashCommand is invoked with the task description (default: "create_plan")
	SlashCommand string `mapstructure:"slash_command" yaml:"slash_command"`
	// PlansDir is where generated plans are expected to be written
	// (default: "thoughts/shared/plans")
	PlansDir string `mapstructure:"plans_dir" yaml:"plans_dir"`
}

// GateConfig controls the manual verification gate
type GateConfig struct {
	// Mode is "prompt", "tui" or "watch" (default: "prompt")
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// LoggingConfig controls the run log
type LoggingConfig struct {
	// Enabled writes a JSON log file (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is "debug", "info", "warn" or "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir holds autoplan.log. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the size at which the log rotates (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated logs kept (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated logs (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// ResolveDir returns the directory the log file is written to.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	if l.Dir == "~" || len(l.Dir) > 1 && l.Dir[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, l.Dir[1:])
		}
	}
	return l.Dir
}

// Gate modes
const (
	GateModePrompt = "prompt"
	GateModeTUI    = "tui"
	GateModeWatch  = "watch"
)

// Backends
const (
	BackendClaude = "claude"
	BackendCodex  = "codex"
)

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Run: RunConfig{
			SkipManualVerification: false,
			PauseBetweenPhases:     time.Second,
		},
		Implementer: ImplementerConfig{
			Backend:         BackendClaude,
			SkipPermissions: true,
			SlashCommand:    "implement_plan",
		},
		Create: CreateConfig{
			SlashCommand: "create_plan",
			PlansDir:     "thoughts/shared/plans",
		},
		Gate: GateConfig{
			Mode: GateModePrompt,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("run.skip_manual_verification", defaults.Run.SkipManualVerification)
	viper.SetDefault("run.pause_between_phases", defaults.Run.PauseBetweenPhases)

	viper.SetDefault("implementer.backend", defaults.Implementer.Backend)
	viper.SetDefault("implementer.command", defaults.Implementer.Command)
	viper.SetDefault("implementer.skip_permissions", defaults.Implementer.SkipPermissions)
	viper.SetDefault("implementer.slash_command", defaults.Implementer.SlashCommand)
	viper.SetDefault("implementer.phase_timeout", defaults.Implementer.PhaseTimeout)
	viper.SetDefault("implementer.extra_args", defaults.Implementer.ExtraArgs)

	viper.SetDefault("create.slash_command", defaults.Create.SlashCommand)
	viper.SetDefault("create.plans_dir", defaults.Create.PlansDir)

	viper.SetDefault("gate.mode", defaults.Gate.Mode)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autoplan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".autoplan"
	}
	return filepath.Join(home, ".config", "autoplan")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
