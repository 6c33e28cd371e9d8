// Package ai drives the agent CLI that implements plan phases and writes
// new plans.
package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Iron-Ham/autoplan/internal/config"
)

// BackendName identifies a supported agent CLI.
type BackendName string

const (
	BackendClaude BackendName = "claude"
	BackendCodex  BackendName = "codex"
)

// Backend knows how to launch one non-interactive agent run.
type Backend interface {
	Name() BackendName
	DisplayName() string
	// OneShotCommand returns the executable and arguments that run prompt
	// to completion and exit.
	OneShotCommand(prompt string) (name string, args []string)
}

// ErrUnknownBackend is returned when the configured backend is unsupported.
var ErrUnknownBackend = errors.New("unknown AI backend")

// NewFromConfig builds a Backend from implementer configuration.
func NewFromConfig(cfg config.ImplementerConfig) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case string(BackendClaude), "":
		return NewClaudeBackend(cfg), nil
	case string(BackendCodex):
		return NewCodexBackend(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// ClaudeBackend runs Claude Code in print mode.
type ClaudeBackend struct {
	command         string
	skipPermissions bool
	extraArgs       []string
}

// NewClaudeBackend creates a Claude backend from config.
func NewClaudeBackend(cfg config.ImplementerConfig) *ClaudeBackend {
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	return &ClaudeBackend{
		command:         command,
		skipPermissions: cfg.SkipPermissions,
		extraArgs:       cfg.ExtraArgs,
	}
}

func (c *ClaudeBackend) Name() BackendName { return BackendClaude }

func (c *ClaudeBackend) DisplayName() string { return "Claude" }

func (c *ClaudeBackend) OneShotCommand(prompt string) (string, []string) {
	args := []string{"--print"}
	if c.skipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	args = append(args, c.extraArgs...)
	return c.command, append(args, prompt)
}

// CodexBackend runs the Codex CLI with "exec".
type CodexBackend struct {
	command         string
	skipPermissions bool
	extraArgs       []string
}

// NewCodexBackend creates a Codex backend from config.
func NewCodexBackend(cfg config.ImplementerConfig) *CodexBackend {
	command := cfg.Command
	if command == "" {
		command = "codex"
	}
	return &CodexBackend{
		command:         command,
		skipPermissions: cfg.SkipPermissions,
		extraArgs:       cfg.ExtraArgs,
	}
}

func (c *CodexBackend) Name() BackendName { return BackendCodex }

func (c *CodexBackend) DisplayName() string { return "Codex" }

func (c *CodexBackend) OneShotCommand(prompt string) (string, []string) {
	args := []string{"exec", c.approvalFlag()}
	args = append(args, c.extraArgs...)
	return c.command, append(args, prompt)
}

func (c *CodexBackend) approvalFlag() string {
	if c.skipPermissions {
		return "--dangerously-bypass-approvals-and-sandbox"
	}
	return "--full-auto"
}
