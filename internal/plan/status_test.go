package plan

import "testing"

func items(states ...bool) []VerificationItem {
	out := make([]VerificationItem, len(states))
	for i, s := range states {
		out[i] = VerificationItem{Description: "item", Checked: s}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		want  Status
	}{
		{
			name:  "no items at all is vacuously complete",
			phase: Phase{},
			want:  StatusComplete,
		},
		{
			name:  "all automated checked and no manual section",
			phase: Phase{Automated: items(true, true)},
			want:  StatusComplete,
		},
		{
			name:  "nothing checked",
			phase: Phase{Automated: items(false, false), Manual: items(false)},
			want:  StatusNotStarted,
		},
		{
			name:  "some automated checked",
			phase: Phase{Automated: items(true, false), Manual: items(false)},
			want:  StatusInProgress,
		},
		{
			name:  "manual checked does not bypass automated gate",
			phase: Phase{Automated: items(false), Manual: items(true)},
			want:  StatusNotStarted,
		},
		{
			name:  "automated done, manual pending",
			phase: Phase{Automated: items(true), Manual: items(true, false)},
			want:  StatusAwaitingManualVerification,
		},
		{
			name:  "everything checked",
			phase: Phase{Automated: items(true), Manual: items(true)},
			want:  StatusComplete,
		},
		{
			name:  "absent automated section with pending manual",
			phase: Phase{Manual: items(false)},
			want:  StatusAwaitingManualVerification,
		},
		{
			name:  "absent automated section with manual done",
			phase: Phase{Manual: items(true)},
			want:  StatusComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.phase); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
			if got := tt.phase.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Complete iff every item is checked, whatever the shape of the phase.
func TestEvaluate_CompleteIffAllChecked(t *testing.T) {
	for autoN := 0; autoN <= 3; autoN++ {
		for manN := 0; manN <= 3; manN++ {
			total := autoN + manN
			for mask := 0; mask < 1<<total; mask++ {
				var auto, man []VerificationItem
				all := true
				for i := 0; i < total; i++ {
					checked := mask&(1<<i) != 0
					all = all && checked
					it := VerificationItem{Checked: checked}
					if i < autoN {
						auto = append(auto, it)
					} else {
						man = append(man, it)
					}
				}
				got := Evaluate(Phase{Automated: auto, Manual: man}) == StatusComplete
				if got != all {
					t.Fatalf("auto=%d manual=%d mask=%b: complete=%v, want %v", autoN, manN, mask, got, all)
				}
			}
		}
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusNotStarted, "not_started"},
		{StatusInProgress, "in_progress"},
		{StatusAwaitingManualVerification, "awaiting_manual_verification"},
		{StatusComplete, "complete"},
		{Status(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
