package styles

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/autoplan/internal/plan"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status plan.Status
		want   string
	}{
		{plan.StatusComplete, string(SecondaryColor)},
		{plan.StatusAwaitingManualVerification, string(WarningColor)},
		{plan.StatusInProgress, string(BlueColor)},
		{plan.StatusNotStarted, string(MutedColor)},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := string(StatusColor(tt.status)); got != tt.want {
				t.Errorf("StatusColor(%v) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatusContainsName(t *testing.T) {
	for _, s := range []plan.Status{plan.StatusNotStarted, plan.StatusComplete} {
		if got := Status(s); !strings.Contains(got, s.String()) {
			t.Errorf("Status(%v) = %q, missing name", s, got)
		}
	}
}

func TestCheckbox(t *testing.T) {
	if !strings.Contains(Checkbox(true), "[x]") {
		t.Error("checked box should render [x]")
	}
	if !strings.Contains(Checkbox(false), "[ ]") {
		t.Error("unchecked box should render [ ]")
	}
}
