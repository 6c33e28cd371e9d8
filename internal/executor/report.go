package executor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/Iron-Ham/autoplan/internal/plan"
	"github.com/Iron-Ham/autoplan/internal/tui/styles"
	"github.com/Iron-Ham/autoplan/internal/util"
	"github.com/charmbracelet/lipgloss"
)

// Report is the outcome of a Controller run.
type Report struct {
	Session Session
	// State is StateStopped or StateFinished.
	State State
	// Reason is the machine-readable halt reason. ReasonUnknown when the
	// run finished.
	Reason apperrors.Reason
	// LastPhase is the index of the last phase attempted, 0 if none.
	LastPhase int
	// Phases is the status of every phase as last read from the document.
	Phases []plan.PhaseSummary
	// Ran lists the phases driven to completion by this run, in order.
	Ran     []int
	Elapsed time.Duration

	err error
}

// Err returns the typed error that stopped the run, or nil if it finished.
func (r *Report) Err() error {
	return r.err
}

// Render writes the phase table and the outcome to w.
func (r *Report) Render(w io.Writer) {
	WriteSummary(w, r.Phases)
	fmt.Fprintln(w)

	ran := "none"
	if len(r.Ran) > 0 {
		ids := make([]string, len(r.Ran))
		for i, idx := range r.Ran {
			ids[i] = strconv.Itoa(idx)
		}
		ran = strings.Join(ids, ", ")
	}
	prefix := ""
	if r.Session.Mode == ModeDryRun {
		prefix = "[dry run] "
	}

	switch r.State {
	case StateFinished:
		fmt.Fprintln(w, styles.Secondary.Render(fmt.Sprintf("%sFinished in %s. Phases run: %s", prefix, r.Elapsed.Round(time.Second), ran)))
	default:
		fmt.Fprintln(w, styles.Error.Render(fmt.Sprintf("%sStopped at phase %d (%s) after %s. Phases run: %s",
			prefix, r.LastPhase, r.Reason, r.Elapsed.Round(time.Second), ran)))
		if r.LastPhase > 0 {
			fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("Resume with --start-phase %d", r.LastPhase)))
		}
	}
}

var summaryColumns = []struct {
	title string
	width int
}{
	{"Phase", 6},
	{"Name", 32},
	{"Status", 30},
	{"Automated", 10},
	{"Manual", 8},
}

// WriteSummary writes a per-phase status table to w.
func WriteSummary(w io.Writer, phases []plan.PhaseSummary) {
	cell := func(s string, col int) string {
		width := summaryColumns[col].width
		return lipgloss.NewStyle().Width(width).Render(util.TruncateANSI(s, width-1))
	}

	header := make([]string, len(summaryColumns))
	for i, c := range summaryColumns {
		header[i] = styles.TableHeader.Render(cell(c.title, i))
	}
	fmt.Fprintln(w, strings.Join(header, ""))

	for _, ph := range phases {
		row := []string{
			cell(strconv.Itoa(ph.Index), 0),
			cell(ph.Name, 1),
			lipgloss.NewStyle().Foreground(styles.StatusColor(ph.Status)).Render(cell(ph.Status.String(), 2)),
			cell(fmt.Sprintf("%d/%d", ph.AutomatedDone, ph.AutomatedTotal), 3),
			cell(fmt.Sprintf("%d/%d", ph.ManualDone, ph.ManualTotal), 4),
		}
		fmt.Fprintln(w, strings.Join(row, ""))
	}
}
