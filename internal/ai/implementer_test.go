package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/autoplan/internal/config"
	"github.com/Iron-Ham/autoplan/internal/executor"
	"github.com/Iron-Ham/autoplan/internal/plan/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const implPlan = `## Phase 1: Schema
#### Automated Verification:
- [x] Migration applies

## Phase 2: Handlers
#### Automated Verification:
- [ ] Tests pass: ` + "`make test`" + `
- [ ] Lint passes: ` + "`make lint`" + `
- [ ] Types check
#### Manual Verification:
- [ ] Login works
`

type implFixture struct {
	path  string
	store *store.FileStore
	calls [][]string
}

func newImplFixture(t *testing.T) *implFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.md")
	require.NoError(t, os.WriteFile(path, []byte(implPlan), 0644))
	return &implFixture{path: path, store: store.NewFileStore(nil)}
}

func (f *implFixture) implementer(t *testing.T, run RunnerFunc, opts ...func(*ImplementerOptions)) *CLIImplementer {
	t.Helper()
	backend, err := NewFromConfig(config.ImplementerConfig{Backend: "claude", SkipPermissions: true})
	require.NoError(t, err)
	o := ImplementerOptions{
		Backend: backend,
		Store:   f.store,
		Runner: RunnerFunc(func(ctx context.Context, name string, args []string) (string, string, error) {
			f.calls = append(f.calls, append([]string{name}, args...))
			return run(ctx, name, args)
		}),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewCLIImplementer(o)
}

func (f *implFixture) request() executor.ImplementRequest {
	return executor.ImplementRequest{PlanLocation: f.path, PhaseIndex: 2, PhaseName: "Handlers"}
}

func TestCLIImplementer_ReportsItemsCheckedInDocument(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(ctx context.Context, _ string, _ []string) (string, string, error) {
		// The agent ticks items in the plan itself.
		err := f.store.MarkChecked(ctx, f.path, 2, []string{"Tests pass", "Lint passes"})
		return "All done.\nPhase 2 Complete - Ready for Manual Verification\n", "", err
	})

	res := im.Implement(context.Background(), f.request())
	require.True(t, res.OK, res.ErrorDetail)
	assert.Equal(t, []string{"Tests pass", "Lint passes"}, res.CheckedAutomatedItems)

	require.Len(t, f.calls, 1)
	call := f.calls[0]
	assert.Equal(t, []string{"claude", "--print", "--dangerously-skip-permissions"}, call[:3])
	prompt := call[len(call)-1]
	assert.Contains(t, prompt, "Plan: "+f.path)
	assert.Contains(t, prompt, "Phase: 2 (Handlers)")
}

func TestCLIImplementer_MergesCheckedLines(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(ctx context.Context, _ string, _ []string) (string, string, error) {
		err := f.store.MarkChecked(ctx, f.path, 2, []string{"Tests pass"})
		out := strings.Join([]string{
			"CHECKED: Tests pass",
			"  CHECKED:   Lint   passes  ",
			"CHECKED: Login works",
			"CHECKED: Something unrelated",
			"Phase Complete",
		}, "\n")
		return out, "", err
	})

	res := im.Implement(context.Background(), f.request())
	require.True(t, res.OK, res.ErrorDetail)
	assert.Equal(t, []string{"Tests pass", "Lint passes"}, res.CheckedAutomatedItems,
		"manual and unknown items are never reported")
}

func TestCLIImplementer_NoCompletionMarker(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(context.Context, string, []string) (string, string, error) {
		return "I ran out of ideas.\nCHECKED: Types check\n", "", nil
	})

	res := im.Implement(context.Background(), f.request())
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorDetail, "no phase completion marker")
	assert.Contains(t, res.ErrorDetail, "I ran out of ideas.")
	assert.Equal(t, []string{"Types check"}, res.CheckedAutomatedItems)
}

func TestCLIImplementer_ProcessFailure(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(context.Context, string, []string) (string, string, error) {
		return "Phase 2 Complete", "fatal: tests exploded\n", errors.New("exit status 1")
	})

	res := im.Implement(context.Background(), f.request())
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorDetail, "agent failed: exit status 1")
	assert.Contains(t, res.ErrorDetail, "fatal: tests exploded")
	assert.Empty(t, res.CheckedAutomatedItems)
}

func TestCLIImplementer_Timeout(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(ctx context.Context, _ string, _ []string) (string, string, error) {
		<-ctx.Done()
		return "", "", ctx.Err()
	}, func(o *ImplementerOptions) { o.Timeout = 20 * time.Millisecond })

	res := im.Implement(context.Background(), f.request())
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorDetail, "timed out after 20ms")
}

func TestCLIImplementer_SlashCommandInstructions(t *testing.T) {
	f := newImplFixture(t)
	var prompt string
	im := f.implementer(t, func(_ context.Context, _ string, args []string) (string, string, error) {
		prompt = args[len(args)-1]
		return "Phase 2 Complete", "", nil
	}, func(o *ImplementerOptions) { o.SlashCommand = &SlashCommand{Body: "Custom implement instructions."} })

	im.Implement(context.Background(), f.request())
	assert.True(t, strings.HasPrefix(prompt, "Custom implement instructions.\n\nPlan: "), prompt)
}

func TestCLIImplementer_MissingPhase(t *testing.T) {
	f := newImplFixture(t)
	im := f.implementer(t, func(context.Context, string, []string) (string, string, error) {
		t.Fatal("agent should not run for a missing phase")
		return "", "", nil
	})

	req := f.request()
	req.PhaseIndex = 9
	res := im.Implement(context.Background(), req)
	assert.False(t, res.OK)
	assert.Contains(t, res.ErrorDetail, "phase 9")
}

func TestHasCompletionMarker(t *testing.T) {
	tests := []struct {
		out  string
		want bool
	}{
		{"Phase 2 Complete", true},
		{"phase complete!", true},
		{"PHASE 1 COMPLETE", true},
		{"## Phase 3 Complete - Ready for Manual Verification", true},
		{"Done.\n**Phase 2: Complete**", true},
		{"Ready for Manual Verification", true},
		{"Phase 2 is not complete", false},
		{"Phase 2 is\nnow complete", false},
		{"Phase 3: Docs complete", false},
		{"I could not mark Phase 2 Complete yet", false},
		{"Completed the work", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasCompletionMarker(tt.out); got != tt.want {
			t.Errorf("hasCompletionMarker(%q) = %v, want %v", tt.out, got, tt.want)
		}
	}
}
