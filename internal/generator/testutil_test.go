package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakePipeline is a lightweight in-memory backend used for tests. Each Run
// returns one " tok" per requested token.
type fakePipeline struct {
	mu     sync.Mutex
	seeds  []int
	params []Params
	runErr error
	closed bool

	// block, when set, holds every Run until closed or ctx is done.
	block chan struct{}

	running    atomic.Int32
	maxRunning atomic.Int32
}

func (f *fakePipeline) Run(ctx context.Context, prompt string, p Params) (string, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		cur := f.maxRunning.Load()
		if n <= cur || f.maxRunning.CompareAndSwap(cur, n) {
			break
		}
	}
	f.mu.Lock()
	f.seeds = append(f.seeds, p.Seed)
	f.params = append(f.params, p)
	err := f.runErr
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return strings.Repeat(" tok", p.MaxNewTokens), nil
}

func (f *fakePipeline) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakePipeline) recordedSeeds() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.seeds...)
}

func (f *fakePipeline) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.params)
}

var errBackend = errors.New("out of memory")

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
