package gate

import (
	"context"
	"fmt"
	"io"
	"os"

	basegate "github.com/Iron-Ham/autoplan/internal/gate"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// TUIGate asks for confirmation with a full-screen Model when the input
// is a terminal, and with a line prompt otherwise.
type TUIGate struct {
	in       io.Reader
	out      io.Writer
	fallback basegate.Confirmer

	isTerminal func() bool
}

// NewTUIGate creates a TUIGate over in and out. fallback answers when in
// is not a terminal; nil uses a PromptGate over the same streams.
func NewTUIGate(in io.Reader, out io.Writer, fallback basegate.Confirmer) *TUIGate {
	if fallback == nil {
		fallback = basegate.NewPromptGate(in, out)
	}
	g := &TUIGate{in: in, out: out, fallback: fallback}
	g.isTerminal = func() bool {
		f, ok := in.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
	return g
}

// Confirm implements gate.Confirmer.
func (g *TUIGate) Confirm(ctx context.Context, req basegate.Request) (basegate.Decision, error) {
	if !g.isTerminal() {
		return g.fallback.Confirm(ctx, req)
	}

	p := tea.NewProgram(
		NewModel(req),
		tea.WithContext(ctx),
		tea.WithInput(g.in),
		tea.WithOutput(g.out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return basegate.Decision{}, ctxErr
	}
	if err != nil {
		return basegate.Decision{}, fmt.Errorf("gate UI failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return basegate.Decision{}, fmt.Errorf("gate UI returned unexpected model %T", final)
	}
	d, _ := m.Decision()
	return d, nil
}

var _ basegate.Confirmer = (*TUIGate)(nil)
