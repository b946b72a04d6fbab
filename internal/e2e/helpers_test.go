package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"textgend/internal/generator"
	"textgend/internal/httpapi"
	"textgend/internal/service"
)

const fakeBackend = "e2e-fake"

// wordPipeline emits one word per requested token and remembers the seeds it saw.
type wordPipeline struct {
	mu    sync.Mutex
	seeds []int
}

func (p *wordPipeline) Run(_ context.Context, _ string, params generator.Params) (string, error) {
	p.mu.Lock()
	p.seeds = append(p.seeds, params.Seed)
	p.mu.Unlock()
	return strings.Repeat(" word", params.MaxNewTokens), nil
}

func (p *wordPipeline) Close() error { return nil }

func (p *wordPipeline) recorded() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.seeds...)
}

var (
	pipelinesMu sync.Mutex
	pipelines   = map[string]*wordPipeline{}
)

func init() {
	generator.RegisterBackend(fakeBackend, false, func(_ context.Context, src generator.Source, _ generator.Options) (generator.Pipeline, error) {
		p := &wordPipeline{}
		pipelinesMu.Lock()
		pipelines[src.Path] = p
		pipelinesMu.Unlock()
		return p, nil
	})
}

// createModelFile writes an empty .gguf file into a temp dir and returns its path.
func createModelFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
		t.Fatalf("write temp model %s: %v", p, err)
	}
	return p
}

// newStack wires generator, service and both routers the way serve does.
func newStack(t *testing.T, opts generator.Options, sopts service.Options) (public, admin *httptest.Server, svc *service.Service) {
	t.Helper()
	svc = service.New(service.NewHolder(service.LoaderFor(opts)), sopts)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	public = httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(public.Close)
	admin = httptest.NewServer(httpapi.NewAdminMux(svc))
	t.Cleanup(admin.Close)
	return public, admin, svc
}
