package plan

import (
	"regexp"
	"strings"
)

// uncheckedMarkerRe locates the "[ ]" marker of an unchecked checklist line.
var uncheckedMarkerRe = regexp.MustCompile(`^\s*[-*+]\s+\[( )\]`)

// SelectItems returns the unchecked items of ph whose normalized
// description is in descriptions. Automated and manual sections are both
// searched. Every matching line is returned, so a description that appears
// twice in the phase checks both lines.
func SelectItems(ph Phase, descriptions []string) []VerificationItem {
	want := make(map[string]bool, len(descriptions))
	for _, d := range descriptions {
		want[NormalizeDescription(d)] = true
	}
	var out []VerificationItem
	for _, it := range ph.Items() {
		if !it.Checked && want[NormalizeDescription(it.Description)] {
			out = append(out, it)
		}
	}
	return out
}

// CheckLines flips the marker of each listed 0-based line from "[ ]" to
// "[x]". Every other byte of text is preserved, including line endings.
// Lines that are not unchecked checklist items are left alone. It returns
// the patched text and the number of markers changed.
func CheckLines(text string, lines []int) (string, int) {
	if len(lines) == 0 {
		return text, 0
	}
	targets := make(map[int]bool, len(lines))
	for _, l := range lines {
		targets[l] = true
	}

	// SplitAfter keeps the separators so joining restores the input exactly.
	parts := strings.SplitAfter(text, "\n")
	changed := 0
	for i, part := range parts {
		if !targets[i] {
			continue
		}
		loc := uncheckedMarkerRe.FindStringSubmatchIndex(part)
		if loc == nil {
			continue
		}
		pos := loc[2]
		parts[i] = part[:pos] + "x" + part[pos+1:]
		changed++
	}
	if changed == 0 {
		return text, 0
	}
	return strings.Join(parts, ""), changed
}

// Patch checks the named items of ph in text, which must be the document ph
// was parsed from. It returns the patched text and the number of markers
// flipped.
func Patch(text string, ph Phase, descriptions []string) (string, int) {
	items := SelectItems(ph, descriptions)
	lines := make([]int, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line)
	}
	return CheckLines(text, lines)
}

// Check parses text and patches the named items of phase index. Unknown
// phases return ok=false and the text unchanged.
func Check(text string, index int, descriptions []string) (patched string, changed int, ok bool, err error) {
	p, err := Parse(text)
	if err != nil {
		return "", 0, false, err
	}
	ph, found := p.Lookup(index)
	if !found {
		return text, 0, false, nil
	}
	patched, changed = Patch(text, ph, descriptions)
	return patched, changed, true, nil
}
