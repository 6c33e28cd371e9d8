package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "gate.mode")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidGateModes returns the list of valid gate modes
func ValidGateModes() []string {
	return []string{GateModePrompt, GateModeTUI, GateModeWatch}
}

// ValidBackends returns the list of supported implementer backends
func ValidBackends() []string {
	return []string{BackendClaude, BackendCodex}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateImplementer()...)
	errors = append(errors, c.validateCreate()...)
	errors = append(errors, c.validateGate()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError
	if c.Run.PauseBetweenPhases < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.pause_between_phases",
			Value:   c.Run.PauseBetweenPhases,
			Message: "must be non-negative",
		})
	}
	return errors
}

func (c *Config) validateImplementer() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), strings.ToLower(c.Implementer.Backend)) {
		errors = append(errors, ValidationError{
			Field:   "implementer.backend",
			Value:   c.Implementer.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	if strings.TrimSpace(c.Implementer.SlashCommand) == "" {
		errors = append(errors, ValidationError{
			Field:   "implementer.slash_command",
			Value:   c.Implementer.SlashCommand,
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(c.Implementer.SlashCommand, `/\ `) {
		errors = append(errors, ValidationError{
			Field:   "implementer.slash_command",
			Value:   c.Implementer.SlashCommand,
			Message: "must be a bare command name without slashes or spaces",
		})
	}

	if c.Implementer.PhaseTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "implementer.phase_timeout",
			Value:   c.Implementer.PhaseTimeout,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}

	return errors
}

func (c *Config) validateCreate() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Create.SlashCommand) == "" {
		errors = append(errors, ValidationError{
			Field:   "create.slash_command",
			Value:   c.Create.SlashCommand,
			Message: "must not be empty",
		})
	}
	if strings.TrimSpace(c.Create.PlansDir) == "" {
		errors = append(errors, ValidationError{
			Field:   "create.plans_dir",
			Value:   c.Create.PlansDir,
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateGate() []ValidationError {
	var errors []ValidationError
	if !slices.Contains(ValidGateModes(), c.Gate.Mode) {
		errors = append(errors, ValidationError{
			Field:   "gate.mode",
			Value:   c.Gate.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidGateModes(), ", ")),
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
