// Package plan models a phased implementation plan written as Markdown.
//
// A plan document is a sequence of "## Phase N: Name" sections. Each phase
// may carry an "Automated Verification" and a "Manual Verification"
// checklist. The package parses documents into [Plan] values, derives each
// phase's [Status] from its checkbox state, and patches checkbox markers in
// the original text without touching anything else.
//
// Everything here is pure: no I/O, no caching. Callers re-parse the
// document after every mutation so the text on disk stays the single
// source of truth.
package plan

import (
	"slices"
	"strings"
)

// VerificationItem is one checklist line inside a verification section.
type VerificationItem struct {
	// Description is the text before the first colon outside inline code.
	Description string
	// Command is the literal command after that colon with surrounding
	// backticks removed. Empty when the line has no command.
	Command string
	// Checked reports whether the marker is [x] or [X].
	Checked bool
	// Line is the 0-based line number of the item in the source text.
	Line int
}

// Phase is one "## Phase N: Name" section of a plan.
type Phase struct {
	Index     int
	Name      string
	Automated []VerificationItem
	Manual    []VerificationItem

	// HasAutomatedSection and HasManualSection report whether the section
	// labels were present at all, independent of how many items they hold.
	HasAutomatedSection bool
	HasManualSection    bool

	// Content is the raw text of the phase body, heading excluded.
	Content string

	// Line is the 0-based line number of the phase heading.
	Line int
}

// Plan is a parsed plan document.
type Plan struct {
	// Location identifies where the document came from. The parser leaves
	// it empty; the store fills it in.
	Location string
	Phases   []Phase
}

// Lookup returns the phase with the given index.
func (p *Plan) Lookup(index int) (Phase, bool) {
	for _, ph := range p.Phases {
		if ph.Index == index {
			return ph, true
		}
	}
	return Phase{}, false
}

// Indices returns all phase indices in ascending order.
func (p *Plan) Indices() []int {
	out := make([]int, 0, len(p.Phases))
	for _, ph := range p.Phases {
		out = append(out, ph.Index)
	}
	slices.Sort(out)
	return out
}

// ResumePoint returns the lowest phase index whose status is not Complete.
// ok is false when every phase is complete.
func (p *Plan) ResumePoint() (index int, ok bool) {
	for _, idx := range p.Indices() {
		ph, _ := p.Lookup(idx)
		if ph.Status() != StatusComplete {
			return idx, true
		}
	}
	return 0, false
}

// PhaseSummary is a one-line status view of a phase.
type PhaseSummary struct {
	Index          int
	Name           string
	Status         Status
	AutomatedDone  int
	AutomatedTotal int
	ManualDone     int
	ManualTotal    int
}

// Summary returns a status summary for every phase in ascending index order.
func (p *Plan) Summary() []PhaseSummary {
	out := make([]PhaseSummary, 0, len(p.Phases))
	for _, idx := range p.Indices() {
		ph, _ := p.Lookup(idx)
		out = append(out, PhaseSummary{
			Index:          ph.Index,
			Name:           ph.Name,
			Status:         ph.Status(),
			AutomatedDone:  countChecked(ph.Automated),
			AutomatedTotal: len(ph.Automated),
			ManualDone:     countChecked(ph.Manual),
			ManualTotal:    len(ph.Manual),
		})
	}
	return out
}

// UncheckedAutomated returns the descriptions of automated items not yet checked.
func (ph Phase) UncheckedAutomated() []string {
	return unchecked(ph.Automated)
}

// UncheckedManual returns the descriptions of manual items not yet checked.
func (ph Phase) UncheckedManual() []string {
	return unchecked(ph.Manual)
}

// Items returns automated items followed by manual items.
func (ph Phase) Items() []VerificationItem {
	out := make([]VerificationItem, 0, len(ph.Automated)+len(ph.Manual))
	out = append(out, ph.Automated...)
	return append(out, ph.Manual...)
}

func unchecked(items []VerificationItem) []string {
	var out []string
	for _, it := range items {
		if !it.Checked {
			out = append(out, it.Description)
		}
	}
	return out
}

func countChecked(items []VerificationItem) int {
	n := 0
	for _, it := range items {
		if it.Checked {
			n++
		}
	}
	return n
}

// NormalizeDescription collapses internal whitespace so descriptions
// reported by an implementer match the document even when spacing differs.
// Matching stays case-sensitive.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
