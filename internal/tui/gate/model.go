// Package gate provides a full-screen Bubble Tea manual verification gate.
package gate

import (
	"fmt"
	"strings"

	basegate "github.com/Iron-Ham/autoplan/internal/gate"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/Iron-Ham/autoplan/internal/util"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Lines reserved around the viewport: title, subtitle, checklist heading,
// help line and spacing.
const chromeLines = 6

// Model shows the phase body in a scrollable viewport above the manual
// checklist and waits for a decision.
type Model struct {
	req      basegate.Request
	viewport viewport.Model

	width  int
	height int
	ready  bool

	decided   bool
	confirmed bool
}

// NewModel creates a Model for req.
func NewModel(req basegate.Request) Model {
	vp := viewport.New(80, 10)
	vp.SetContent(req.Content)
	return Model{req: req, viewport: vp}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.decided, m.confirmed = true, true
			return m, tea.Quit
		case "n", "N", "esc", "ctrl+c":
			m.decided, m.confirmed = true, false
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	// ContentBox adds a border on every side.
	m.viewport.Width = max(width-4, 10)
	m.viewport.Height = max(height-chromeLines-len(m.req.Items)-2, 3)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.decided {
		return ""
	}

	var b strings.Builder
	title := fmt.Sprintf("Phase %d: %s", m.req.PhaseIndex, m.req.PhaseName)
	if m.ready {
		title = util.TruncateANSI(title, m.width)
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Automated verification passed. Verify the items below."))
	b.WriteString("\n")

	if strings.TrimSpace(m.req.Content) != "" {
		b.WriteString(styles.ContentBox.Render(m.viewport.View()))
		b.WriteString("\n")
	}

	b.WriteString(styles.Primary.Render("Manual verification"))
	b.WriteString("\n")
	for _, it := range m.req.Items {
		line := fmt.Sprintf("  %s %s", styles.Checkbox(it.Checked), it.Description)
		if m.ready {
			line = util.TruncateANSI(line, m.width)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpLine())
	return b.String()
}

func helpLine() string {
	keys := []struct{ key, desc string }{
		{"y/enter", "confirm"},
		{"n/esc", "stop run"},
		{"↑/↓", "scroll"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = styles.HelpKey.Render(k.key) + " " + styles.Help.Render(k.desc)
	}
	return strings.Join(parts, styles.Help.Render("  •  "))
}

// Decision returns the human's answer. ok is false until a key decides.
func (m Model) Decision() (d basegate.Decision, ok bool) {
	return basegate.Decision{Confirmed: m.confirmed}, m.decided
}
