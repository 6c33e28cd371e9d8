package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/Iron-Ham/autoplan/internal/errors"
)

// Line patterns for plan documents.
var (
	// phaseHeaderRe matches "## Phase 3: Wire the API". The heading level is
	// not significant; "Phase" is matched case-insensitively.
	phaseHeaderRe = regexp.MustCompile(`(?i)^\s{0,3}#{1,6}\s*phase\s+(\d+)\s*:\s*(.+?)\s*$`)

	// headingRe matches any ATX heading and captures its level and text.
	headingRe = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)

	// boldLabelRe matches a paragraph that is only a bold label, such as
	// "**Automated Verification:**".
	boldLabelRe = regexp.MustCompile(`^\s*(?:\*\*|__)(.+?)(?:\*\*|__)\s*:?\s*$`)

	// checkboxRe matches list items that start with a short bracketed
	// marker. Only " ", "x" and "X" are valid markers; anything else of at
	// most two characters is reported as malformed. Longer bracket text is a
	// link or reference and is not a checkbox.
	checkboxRe = regexp.MustCompile(`^\s*[-*+]\s+\[([^\]]{0,2})\](?:\s+(.*?))?\s*$`)

	// fenceRe matches the opening or closing line of a fenced code block.
	fenceRe = regexp.MustCompile("^\\s{0,3}(```|~~~)")
)

// section identifies which checklist a line belongs to.
type section int

const (
	sectionNone section = iota
	sectionAutomated
	sectionManual
)

// boldLabelLevel is the effective heading level given to bold labels, so
// that any real heading ends a section introduced by one.
const boldLabelLevel = 7

// Parse converts plan text into a Plan. It is pure and deterministic.
//
// Errors are *errors.ParseError with one of the reasons NoPhasesFound,
// DuplicateIndex or MalformedChecklist.
func Parse(text string) (*Plan, error) {
	lines := splitLines(text)

	p := &Plan{}
	seen := make(map[int]int) // phase index -> 1-based heading line

	var (
		cur          *Phase
		contentStart int
		sec          = sectionNone
		secLevel     int
		inFence      bool
	)

	finish := func(end int) {
		if cur == nil {
			return
		}
		cur.Content = strings.Join(lines[contentStart:end], "\n")
		p.Phases = append(p.Phases, *cur)
		cur = nil
	}

	for i, line := range lines {
		if fenceRe.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := phaseHeaderRe.FindStringSubmatch(line); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil || idx <= 0 {
				return nil, apperrors.NewParseError(apperrors.ReasonMalformedChecklist,
					fmt.Sprintf("invalid phase number %q", m[1])).WithLine(i + 1)
			}
			if first, dup := seen[idx]; dup {
				return nil, apperrors.NewParseError(apperrors.ReasonDuplicateIndex,
					fmt.Sprintf("phase %d already declared on line %d", idx, first)).
					WithLine(i + 1).WithPhase(idx)
			}
			seen[idx] = i + 1

			finish(i)
			cur = &Phase{Index: idx, Name: strings.TrimSpace(m[2]), Line: i}
			contentStart = i + 1
			sec = sectionNone
			continue
		}

		if cur == nil {
			continue
		}

		if label, level, ok := sectionLabel(line); ok {
			switch classifyLabel(label) {
			case sectionAutomated:
				sec, secLevel = sectionAutomated, level
				cur.HasAutomatedSection = true
				continue
			case sectionManual:
				sec, secLevel = sectionManual, level
				cur.HasManualSection = true
				continue
			}
			// An unrelated heading at the same or a shallower level closes
			// the current checklist section.
			if level != boldLabelLevel && sec != sectionNone && level <= secLevel {
				sec = sectionNone
			}
			continue
		}

		if sec == sectionNone {
			continue
		}

		m := checkboxRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var checked bool
		switch m[1] {
		case " ":
			checked = false
		case "x", "X":
			checked = true
		default:
			return nil, apperrors.NewParseError(apperrors.ReasonMalformedChecklist,
				fmt.Sprintf("unknown checkbox marker [%s]", m[1])).
				WithLine(i + 1).WithPhase(cur.Index)
		}

		desc, cmd := splitItemText(m[2])
		item := VerificationItem{Description: desc, Command: cmd, Checked: checked, Line: i}
		if sec == sectionAutomated {
			cur.Automated = append(cur.Automated, item)
		} else {
			cur.Manual = append(cur.Manual, item)
		}
	}
	finish(len(lines))

	if len(p.Phases) == 0 {
		return nil, apperrors.NewParseError(apperrors.ReasonNoPhasesFound, "")
	}
	return p, nil
}

// splitLines splits text on "\n" and drops a trailing "\r" from each line
// for matching purposes. Line numbers match the original text.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// sectionLabel reports whether line is a heading or a bold label and
// returns its text and effective level.
func sectionLabel(line string) (label string, level int, ok bool) {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return m[2], len(m[1]), true
	}
	if m := boldLabelRe.FindStringSubmatch(line); m != nil {
		return m[1], boldLabelLevel, true
	}
	return "", 0, false
}

// classifyLabel maps a label to a checklist section. Case, punctuation and
// emphasis markers are ignored, so "Automated verification", "AUTOMATED
// VERIFICATION:" and "**Automated Verification**" all match.
func classifyLabel(label string) section {
	norm := normalizeLabel(label)
	switch {
	case strings.HasPrefix(norm, "automated verification"):
		return sectionAutomated
	case strings.HasPrefix(norm, "manual verification"):
		return sectionManual
	}
	return sectionNone
}

func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// splitItemText splits checklist text at the first colon outside inline
// code. The right-hand side becomes the command with one pair of
// surrounding backticks removed.
func splitItemText(text string) (desc, cmd string) {
	text = strings.TrimSpace(text)
	inCode := false
	for i, r := range text {
		switch r {
		case '`':
			inCode = !inCode
		case ':':
			if inCode {
				continue
			}
			left := strings.TrimSpace(text[:i])
			if left == "" {
				return text, ""
			}
			return left, unquoteCommand(strings.TrimSpace(text[i+1:]))
		}
	}
	return text, ""
}

func unquoteCommand(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") {
		inner := s[1 : len(s)-1]
		if !strings.Contains(inner, "`") {
			return strings.TrimSpace(inner)
		}
	}
	return s
}
