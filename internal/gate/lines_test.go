package gate

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLineReader_ReadsLines(t *testing.T) {
	r := NewLineReader(strings.NewReader("first\nsecond"))

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first\n", line)

	line, err = r.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "second", line)
}

func TestLineReader_ReturnsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()
	r := NewLineReader(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.ReadLine(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return after cancel")
	}

	// Unblock the outstanding read so no goroutine outlives the test.
	require.NoError(t, pw.Close())
	_, err := r.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestPromptGate_SharesLineReader(t *testing.T) {
	lines := NewLineReader(strings.NewReader("first\ny\n"))

	line, err := lines.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first\n", line)

	g := NewPromptGate(nil, io.Discard, WithLineReader(lines))
	d, err := g.Confirm(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, d.Confirmed, "answer buffered behind the first line reaches the gate")
}
