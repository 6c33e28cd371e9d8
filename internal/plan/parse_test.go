package plan

import (
	"strings"
	"testing"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const samplePlan = `# Auth Service Implementation Plan

## Overview

Checklists up here are not part of any phase:
- [ ] Not a phase item

## Phase 1: Database Schema

### Changes Required
- [ ] Loose item before any section label

### Success Criteria:

#### Automated Verification:
- [x] Migration applies cleanly: ` + "`make migrate`" + `
- [x] Unit tests pass: ` + "`go test ./...`" + `

#### Manual Verification:
- [x] Schema reviewed in psql

---

## Phase 2: API Handlers

#### Automated Verification:
- [x] Tests pass: ` + "`make test`" + `
- [ ] Lint passes: ` + "`make lint`" + `

#### Manual Verification:
- [ ] Login works from the UI
- [ ] Error messages are readable

## Phase 3: Docs

Nothing to verify here.
`

func ignoreContent() cmp.Option {
	return cmpopts.IgnoreFields(Phase{}, "Content")
}

func TestParse_SamplePlan(t *testing.T) {
	got, err := Parse(samplePlan)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &Plan{
		Phases: []Phase{
			{
				Index: 1,
				Name:  "Database Schema",
				Line:  7,
				Automated: []VerificationItem{
					{Description: "Migration applies cleanly", Command: "make migrate", Checked: true, Line: 15},
					{Description: "Unit tests pass", Command: "go test ./...", Checked: true, Line: 16},
				},
				Manual: []VerificationItem{
					{Description: "Schema reviewed in psql", Checked: true, Line: 19},
				},
				HasAutomatedSection: true,
				HasManualSection:    true,
			},
			{
				Index: 2,
				Name:  "API Handlers",
				Line:  23,
				Automated: []VerificationItem{
					{Description: "Tests pass", Command: "make test", Checked: true, Line: 26},
					{Description: "Lint passes", Command: "make lint", Checked: false, Line: 27},
				},
				Manual: []VerificationItem{
					{Description: "Login works from the UI", Line: 30},
					{Description: "Error messages are readable", Line: 31},
				},
				HasAutomatedSection: true,
				HasManualSection:    true,
			},
			{
				Index: 3,
				Name:  "Docs",
				Line:  33,
			},
		},
	}

	if diff := cmp.Diff(want, got, ignoreContent()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_PhaseContent(t *testing.T) {
	p, err := Parse(samplePlan)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ph, ok := p.Lookup(3)
	if !ok {
		t.Fatal("phase 3 not found")
	}
	if !strings.Contains(ph.Content, "Nothing to verify here.") {
		t.Errorf("Content = %q, want phase body", ph.Content)
	}
	ph2, _ := p.Lookup(2)
	if strings.Contains(ph2.Content, "Phase 3") {
		t.Errorf("phase 2 content leaked into next phase: %q", ph2.Content)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, err := Parse(samplePlan)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	b, err := Parse(samplePlan)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Parse() not deterministic (-first +second):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		line     int
	}{
		{
			name:     "empty document",
			input:    "",
			sentinel: apperrors.ErrNoPhasesFound,
		},
		{
			name:     "no phase headings",
			input:    "# Plan\n\n- [ ] something\n",
			sentinel: apperrors.ErrNoPhasesFound,
		},
		{
			name:     "duplicate index",
			input:    "## Phase 1: A\n\n## Phase 2: B\n\n## Phase 1: C\n",
			sentinel: apperrors.ErrDuplicateIndex,
			line:     5,
		},
		{
			name:     "unknown marker inside a section",
			input:    "## Phase 1: A\n#### Automated Verification:\n- [-] half done\n",
			sentinel: apperrors.ErrMalformedChecklist,
			line:     3,
		},
		{
			name:     "empty marker inside a section",
			input:    "## Phase 1: A\n#### Manual Verification:\n- [] nothing\n",
			sentinel: apperrors.ErrMalformedChecklist,
			line:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !apperrors.Is(err, tt.sentinel) {
				t.Errorf("Parse() error = %v, want %v", err, tt.sentinel)
			}
			var perr *apperrors.ParseError
			if !apperrors.As(err, &perr) {
				t.Fatalf("Parse() error type = %T, want *ParseError", err)
			}
			if tt.line != 0 && perr.Line != tt.line {
				t.Errorf("ParseError.Line = %d, want %d", perr.Line, tt.line)
			}
		})
	}
}

func TestParse_MalformedMarkerOutsideSectionIgnored(t *testing.T) {
	input := "## Phase 1: A\n- [-] not in a section\n#### Automated Verification:\n- [ ] ok\n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Phases[0].Automated) != 1 {
		t.Errorf("Automated = %+v, want one item", p.Phases[0].Automated)
	}
}

func TestParse_SectionLabelVariants(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		automated bool
	}{
		{"canonical", "#### Automated Verification:", true},
		{"lowercase", "### automated verification", true},
		{"no colon upper", "#### AUTOMATED VERIFICATION", true},
		{"bold label", "**Automated Verification:**", true},
		{"bold with trailing colon", "**Manual Verification**:", false},
		{"manual heading", "#### Manual verification -", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "## Phase 1: A\n" + tt.label + "\n- [ ] item\n"
			p, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			ph := p.Phases[0]
			if tt.automated && len(ph.Automated) != 1 {
				t.Errorf("expected automated item, got %+v", ph)
			}
			if !tt.automated && len(ph.Manual) != 1 {
				t.Errorf("expected manual item, got %+v", ph)
			}
		})
	}
}

func TestParse_SectionEndsAtSiblingHeading(t *testing.T) {
	input := `## Phase 1: A
### Success Criteria
#### Automated Verification:
- [ ] build
#### Notes
- [ ] not a verification item
#### Manual Verification:
##### Details
- [ ] still manual
`
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ph := p.Phases[0]
	if len(ph.Automated) != 1 || ph.Automated[0].Description != "build" {
		t.Errorf("Automated = %+v", ph.Automated)
	}
	if len(ph.Manual) != 1 || ph.Manual[0].Description != "still manual" {
		t.Errorf("Manual = %+v", ph.Manual)
	}
}

func TestParse_FencedCodeIgnored(t *testing.T) {
	input := "## Phase 1: Real\n#### Automated Verification:\n```markdown\n## Phase 2: Example\n- [ ] fenced\n```\n- [x] real item\n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Phases) != 1 {
		t.Fatalf("got %d phases, want 1", len(p.Phases))
	}
	if len(p.Phases[0].Automated) != 1 || p.Phases[0].Automated[0].Description != "real item" {
		t.Errorf("Automated = %+v", p.Phases[0].Automated)
	}
}

func TestParse_HeadingVariants(t *testing.T) {
	input := "# phase 4: Lower case\n### PHASE 7:   Spaced name  \n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := []string{p.Phases[0].Name, p.Phases[1].Name}
	want := []string{"Lower case", "Spaced name"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{4, 7}, p.Indices()); diff != "" {
		t.Errorf("Indices() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_OutOfOrderHeadings(t *testing.T) {
	input := "## Phase 3: C\n- [ ] c\n## Phase 1: A\n- [ ] a\n## Phase 2: B\n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var docOrder []int
	for _, ph := range p.Phases {
		docOrder = append(docOrder, ph.Index)
	}
	if diff := cmp.Diff([]int{3, 1, 2}, docOrder); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, p.Indices()); diff != "" {
		t.Errorf("Indices() mismatch (-want +got):\n%s", diff)
	}
	ph, _ := p.Lookup(1)
	if ph.Name != "A" || ph.Line != 2 {
		t.Errorf("Lookup(1) = %q at line %d, want \"A\" at line 2", ph.Name, ph.Line)
	}
}

func TestParse_CRLF(t *testing.T) {
	input := "## Phase 1: A\r\n#### Automated Verification:\r\n- [X] done: `make`\r\n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []VerificationItem{{Description: "done", Command: "make", Checked: true, Line: 2}}
	if diff := cmp.Diff(want, p.Phases[0].Automated); diff != "" {
		t.Errorf("Automated mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitItemText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDesc string
		wantCmd  string
	}{
		{"no colon", "Tests pass", "Tests pass", ""},
		{"backtick command", "Tests pass: `make test`", "Tests pass", "make test"},
		{"bare command", "Lint: golangci-lint run", "Lint", "golangci-lint run"},
		{"colon inside code first", "Run `a:b` check: `make x`", "Run `a:b` check", "make x"},
		{"only code with colon", "`http://localhost:8080` responds", "`http://localhost:8080` responds", ""},
		{"trailing colon", "Looks right:", "Looks right", ""},
		{"leading colon", ": `make`", ": `make`", ""},
		{"command keeps inner backticks", "x: `a` and `b`", "x", "`a` and `b`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, cmd := splitItemText(tt.input)
			if desc != tt.wantDesc {
				t.Errorf("desc = %q, want %q", desc, tt.wantDesc)
			}
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %q, want %q", cmd, tt.wantCmd)
			}
		})
	}
}

func TestParse_LinksAreNotCheckboxes(t *testing.T) {
	input := "## Phase 1: A\n#### Manual Verification:\n- [docs](https://example.com)\n- [ ] real\n"
	p, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Phases[0].Manual) != 1 {
		t.Errorf("Manual = %+v, want one item", p.Phases[0].Manual)
	}
}
