package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSlashCommandNotFound is returned when no command file exists in any
// search directory.
var ErrSlashCommandNotFound = errors.New("slash command not found")

// SlashCommand is a Claude Code command file: optional YAML frontmatter
// followed by a Markdown prompt body.
type SlashCommand struct {
	Name         string   `yaml:"-"`
	Path         string   `yaml:"-"`
	Body         string   `yaml:"-"`
	Description  string   `yaml:"description"`
	Model        string   `yaml:"model"`
	AllowedTools toolList `yaml:"allowed-tools"`
	ArgumentHint string   `yaml:"argument-hint"`
}

// toolList accepts both "Bash(git:*), Read" and a YAML sequence.
type toolList []string

func (t *toolList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(value.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	default:
		return fmt.Errorf("allowed-tools: unsupported YAML node kind %d", value.Kind)
	}
}

// CommandDirs returns the directories searched for command files, in
// order: the user's ~/.claude/commands, then ./.claude/commands.
func CommandDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".claude", "commands"))
	}
	return append(dirs, filepath.Join(".claude", "commands"))
}

// LoadSlashCommand loads name from the default CommandDirs.
func LoadSlashCommand(name string) (*SlashCommand, error) {
	return LoadSlashCommandFrom(CommandDirs(), name)
}

// LoadSlashCommandFrom loads <dir>/<name>.md from the first directory that
// has it.
func LoadSlashCommandFrom(dirs []string, name string) (*SlashCommand, error) {
	name = strings.TrimPrefix(name, "/")
	for _, dir := range dirs {
		path := filepath.Join(dir, name+".md")
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read slash command %s: %w", path, err)
		}
		cmd, err := ParseSlashCommand(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse slash command %s: %w", path, err)
		}
		cmd.Name = name
		cmd.Path = path
		return cmd, nil
	}
	return nil, fmt.Errorf("%w: %s (searched %s)", ErrSlashCommandNotFound, name, strings.Join(dirs, ", "))
}

// ParseSlashCommand splits data into frontmatter and body. A document that
// does not open with a "---" line has no frontmatter.
func ParseSlashCommand(data []byte) (*SlashCommand, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	cmd := &SlashCommand{}

	front, body, ok := splitFrontmatter(text)
	if ok {
		if err := yaml.Unmarshal([]byte(front), cmd); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	cmd.Body = strings.TrimSpace(body)
	return cmd, nil
}

func splitFrontmatter(text string) (front, body string, ok bool) {
	if !strings.HasPrefix(text, "---\n") {
		return "", text, false
	}
	rest := text[len("---\n"):]
	if strings.HasPrefix(rest, "---\n") || rest == "---" {
		return "", strings.TrimPrefix(rest, "---"), true
	}
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", text, false
	}
	front = rest[:end]
	body = rest[end+len("\n---"):]
	// The closing fence must be a line of its own.
	if body != "" && body[0] != '\n' {
		return "", text, false
	}
	return front, body, true
}
