// Package generator owns a pretrained causal language model and turns prompts
// into generated text. The model itself lives behind a Pipeline backend:
//
//   - generator.go: Generator, Load/New and Generate.
//   - pipeline.go: the Pipeline interface and the backend registry.
//   - source.go: model source resolution (local file, directory, HuggingFace hub).
//   - backend_llama.go: in-process llama.cpp backend (build tag `llama`).
//   - backend_llama_stub.go: no-CGO stub compiled without the tag.
//   - backend_openai.go: remote OpenAI-compatible completion server.
//   - errors.go: ModelLoadError, InvalidParameterError, GenerationError.
package generator

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Defaults mirror the classic distilgpt2 text-generation pipeline.
const (
	DefaultSeed               int64 = 42
	DefaultSource                   = "distilgpt2"
	DefaultBackend                  = BackendLlama
	DefaultMaxNewTokens             = 50
	DefaultNumReturnSequences       = 1
)

// Backend names.
const (
	BackendLlama  = "llamacpp"
	BackendOpenAI = "openai"
)

// Options configure Load.
type Options struct {
	Seed    int64
	Source  string
	Backend string

	// HuggingFace hub resolution.
	CacheDir string
	HubToken string

	// In-process backend.
	ContextSize int
	Threads     int

	// Remote backend.
	ServerURL      string
	ServerAPIKey   string
	RequestTimeout time.Duration
}

// DefaultOptions returns Options with the default seed, source and backend.
func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, Source: DefaultSource, Backend: DefaultBackend}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Source) == "" {
		o.Source = DefaultSource
	}
	if strings.TrimSpace(o.Backend) == "" {
		o.Backend = DefaultBackend
	}
	return o
}

// Generator performs text continuation with one loaded model.
// It is safe for concurrent use; backend calls are serialized.
type Generator struct {
	pipeline Pipeline
	source   Source
	backend  string
	seed     int64

	// slot serializes backend access and guards rng.
	slot *semaphore.Weighted
	rng  *rand.Rand
}

// Load resolves opts.Source, opens the configured backend and returns a ready
// Generator. Every failure is a *ModelLoadError.
func Load(ctx context.Context, opts Options) (*Generator, error) {
	opts = opts.withDefaults()
	b, err := lookupBackend(opts.Backend)
	if err != nil {
		return nil, &ModelLoadError{Source: opts.Source, Err: err}
	}
	if b.unavailable != "" {
		return nil, &ModelLoadError{Source: opts.Source, Err: ErrDependencyUnavailable(b.unavailable)}
	}
	src := Source{Ref: opts.Source, Kind: SourceRemote}
	if !b.remote {
		if src, err = ResolveSource(ctx, opts.Source, opts); err != nil {
			return nil, &ModelLoadError{Source: opts.Source, Err: err}
		}
	}
	p, err := b.open(ctx, src, opts)
	if err != nil {
		return nil, &ModelLoadError{Source: opts.Source, Err: err}
	}
	g := New(p, opts.Seed, src)
	g.backend = strings.ToLower(opts.Backend)
	return g, nil
}

// New wraps an already opened Pipeline. The sampling RNG is seeded here once
// and advances with every draw for the lifetime of the Generator.
func New(p Pipeline, seed int64, src Source) *Generator {
	s := uint64(seed)
	return &Generator{
		pipeline: p,
		source:   src,
		seed:     seed,
		slot:     semaphore.NewWeighted(1),
		rng:      rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
	}
}

// Generate returns numReturnSequences independent continuations of prompt,
// each the prompt followed by up to maxNewTokens generated tokens, in draw order.
func (g *Generator) Generate(ctx context.Context, prompt string, maxNewTokens, numReturnSequences int) ([]string, error) {
	if err := ValidateRequest(prompt, maxNewTokens, numReturnSequences); err != nil {
		return nil, err
	}
	if err := g.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.slot.Release(1)

	out := make([]string, 0, numReturnSequences)
	for i := 0; i < numReturnSequences; i++ {
		params := Params{MaxNewTokens: maxNewTokens, Seed: g.nextSeed()}
		text, err := g.pipeline.Run(ctx, prompt, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &GenerationError{Err: err}
		}
		out = append(out, prompt+text)
	}
	return out, nil
}

// nextSeed draws a non-negative 31-bit seed; callers must hold slot.
func (g *Generator) nextSeed() int {
	return int(g.rng.Uint32() >> 1)
}

// ValidateRequest checks the parameters Generate accepts.
func ValidateRequest(prompt string, maxNewTokens, numReturnSequences int) error {
	if prompt == "" {
		return &InvalidParameterError{Name: "prompt", Value: `""`, Reason: "must not be empty"}
	}
	if maxNewTokens < 1 {
		return &InvalidParameterError{Name: "max_new_tokens", Value: strconv.Itoa(maxNewTokens), Reason: "must be >= 1"}
	}
	if numReturnSequences < 1 {
		return &InvalidParameterError{Name: "num_return_sequences", Value: strconv.Itoa(numReturnSequences), Reason: "must be >= 1"}
	}
	return nil
}

// LlamaBuilt reports whether the in-process llama backend is compiled in.
func LlamaBuilt() bool { return llamaBuilt }

// Source returns the resolved model source.
func (g *Generator) Source() Source { return g.source }

// Seed returns the seed the Generator was constructed with.
func (g *Generator) Seed() int64 { return g.seed }

// Backend returns the backend name, empty when built with New.
func (g *Generator) Backend() string { return g.backend }

// Close waits for any running generation and releases the backend.
func (g *Generator) Close() error {
	_ = g.slot.Acquire(context.Background(), 1)
	defer g.slot.Release(1)
	if g.pipeline == nil {
		return nil
	}
	return g.pipeline.Close()
}
