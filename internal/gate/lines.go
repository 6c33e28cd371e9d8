package gate

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// LineReader reads lines from an input stream while honouring context
// cancellation. Several prompts may share one LineReader so that input
// buffered by one is not lost to the next.
type LineReader struct {
	reader *bufio.Reader

	mu      sync.Mutex
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewLineReader creates a LineReader over in.
func NewLineReader(in io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(in)}
}

// ReadLine waits for the next line of input or ctx. A read that is still
// outstanding when ctx ends is picked up by the next call.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	ch := r.pending
	if ch == nil {
		ch = make(chan lineResult, 1)
		r.pending = ch
		go func() {
			line, err := r.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		r.mu.Lock()
		r.pending = nil
		r.mu.Unlock()
		return res.line, res.err
	}
}
