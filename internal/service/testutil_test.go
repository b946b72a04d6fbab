package service

import (
	"context"
	"strings"
	"sync"

	"textgend/internal/generator"
)

// fakePipeline returns one " word" per requested token.
type fakePipeline struct {
	mu     sync.Mutex
	calls  int
	runErr error
	closed bool
}

func (f *fakePipeline) Run(_ context.Context, _ string, p generator.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.runErr != nil {
		return "", f.runErr
	}
	return strings.Repeat(" word", p.MaxNewTokens), nil
}

func (f *fakePipeline) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakePipeline) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeLoader counts loader invocations and returns a Generator over fp.
type fakeLoader struct {
	mu    sync.Mutex
	n     int
	fp    *fakePipeline
	err   error
	delay chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context) (*generator.Generator, error) {
	if l.delay != nil {
		<-l.delay
	}
	l.mu.Lock()
	l.n++
	l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return generator.New(l.fp, generator.DefaultSeed, generator.Source{Ref: "distilgpt2", Path: "/models/distilgpt2.gguf", Kind: generator.SourceFile}), nil
}

func (l *fakeLoader) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}
