package gate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/charmbracelet/glamour"
)

// PromptGate asks for confirmation on a line-oriented terminal.
type PromptGate struct {
	lines  *LineReader
	out    io.Writer
	render func(string) (string, error)
}

// PromptOption configures a PromptGate.
type PromptOption func(*PromptGate)

// WithMarkdown renders the phase body with glamour before the checklist,
// wrapped at width columns.
func WithMarkdown(width int) PromptOption {
	return func(g *PromptGate) {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return
		}
		g.render = r.Render
	}
}

// WithRenderer sets the function used to render the phase body.
func WithRenderer(render func(string) (string, error)) PromptOption {
	return func(g *PromptGate) {
		g.render = render
	}
}

// WithLineReader makes the gate read answers from lines instead of its
// own reader over in.
func WithLineReader(lines *LineReader) PromptOption {
	return func(g *PromptGate) {
		g.lines = lines
	}
}

// NewPromptGate creates a PromptGate reading answers from in and writing
// prompts to out.
func NewPromptGate(in io.Reader, out io.Writer, opts ...PromptOption) *PromptGate {
	g := &PromptGate{
		lines: NewLineReader(in),
		out:   out,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Confirm prints the manual checklist and waits for y/yes or n/no. Any
// other answer re-prompts. End of input declines.
func (g *PromptGate) Confirm(ctx context.Context, req Request) (Decision, error) {
	g.printRequest(req)

	for {
		fmt.Fprint(g.out, styles.HelpKey.Render("Manual verification complete? (y/n): "))

		line, err := g.lines.ReadLine(ctx)
		if err != nil && line == "" {
			if ctx.Err() != nil {
				return Decision{}, ctx.Err()
			}
			if err == io.EOF {
				fmt.Fprintln(g.out)
				return Decision{Confirmed: false}, nil
			}
			return Decision{}, fmt.Errorf("failed to read answer: %w", err)
		}

		if confirmed, ok := ParseAnswer(line); ok {
			return Decision{Confirmed: confirmed}, nil
		}
		fmt.Fprintln(g.out, styles.Warning.Render("Please answer y or n."))
	}
}

// ParseAnswer interprets a yes/no reply. ok is false for anything else.
func ParseAnswer(line string) (confirmed, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}

func (g *PromptGate) printRequest(req Request) {
	fmt.Fprintln(g.out)
	fmt.Fprintln(g.out, styles.Title.Render(fmt.Sprintf("Phase %d: %s", req.PhaseIndex, req.PhaseName)))
	fmt.Fprintln(g.out, styles.Subtitle.Render("Automated verification passed. Please verify manually:"))

	if g.render != nil && strings.TrimSpace(req.Content) != "" {
		if rendered, err := g.render(req.Content); err == nil {
			fmt.Fprintln(g.out, rendered)
		}
	}

	for _, it := range req.Items {
		fmt.Fprintf(g.out, "  %s %s\n", styles.Checkbox(it.Checked), it.Description)
	}
	if req.PlanLocation != "" {
		fmt.Fprintln(g.out, styles.Muted.Render("Plan: "+req.PlanLocation))
	}
}
