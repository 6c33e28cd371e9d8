package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/autoplan/internal/config"
	"github.com/Iron-Ham/autoplan/internal/executor"
	"github.com/Iron-Ham/autoplan/internal/gate"
	"github.com/Iron-Ham/autoplan/internal/logging"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	tuigate "github.com/Iron-Ham/autoplan/internal/tui/gate"
	"golang.org/x/term"
)

// markdownWidth caps the width phase bodies are wrapped to at the prompt.
const markdownWidth = 100

// newGate builds the manual verification gate for mode. Prompting gates
// read answers through lines, which must wrap in.
func newGate(mode string, fs *store.FileStore, in io.Reader, lines *gate.LineReader, out io.Writer, logger *logging.Logger) (executor.Gate, error) {
	prompt := func() *gate.PromptGate {
		opts := append(promptOptions(out), gate.WithLineReader(lines))
		return gate.NewPromptGate(in, out, opts...)
	}
	switch mode {
	case config.GateModePrompt, "":
		return prompt(), nil
	case config.GateModeTUI:
		return tuigate.NewTUIGate(in, out, prompt()), nil
	case config.GateModeWatch:
		return gate.NewWatchGate(fs, fs, out, logger), nil
	default:
		return nil, fmt.Errorf("unknown gate mode %q", mode)
	}
}

// promptOptions renders phase bodies as Markdown when out is a terminal.
func promptOptions(out io.Writer) []gate.PromptOption {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	width := markdownWidth
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w-4 < width {
		width = w - 4
	}
	return []gate.PromptOption{gate.WithMarkdown(width)}
}
