package plan

// Status is the completion state of a phase, derived from its checklists.
type Status int

const (
	// StatusNotStarted means no automated item is checked.
	StatusNotStarted Status = iota
	// StatusInProgress means some but not all automated items are checked.
	StatusInProgress
	// StatusAwaitingManualVerification means all automated items are
	// checked and at least one manual item is not.
	StatusAwaitingManualVerification
	// StatusComplete means every automated and manual item is checked.
	StatusComplete
)

// String returns a human-readable string for the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusAwaitingManualVerification:
		return "awaiting_manual_verification"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Status derives the phase status. The automated gate must be fully
// satisfied before the manual gate is considered. An empty or absent
// section is vacuously satisfied.
func (ph Phase) Status() Status {
	return Evaluate(ph)
}

// Evaluate derives the status of ph.
func Evaluate(ph Phase) Status {
	autoDone := countChecked(ph.Automated)
	if autoDone < len(ph.Automated) {
		if autoDone == 0 {
			return StatusNotStarted
		}
		return StatusInProgress
	}
	if countChecked(ph.Manual) < len(ph.Manual) {
		return StatusAwaitingManualVerification
	}
	return StatusComplete
}
