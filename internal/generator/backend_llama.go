//go:build llama

package generator

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// Sampling settings matching the transformers text-generation defaults for GPT-2
// style checkpoints: sampling on, top-k 50, no nucleus cut, no repeat penalty.
const (
	llamaTopK        = 50
	llamaTopP        = 1.0
	llamaTemperature = 1.0
	llamaPenalty     = 1.0
)

func init() { RegisterBackend(BackendLlama, false, openLlama) }

// llamaPipeline owns the loaded model.
type llamaPipeline struct {
	model   *llama.LLama
	threads int
}

func openLlama(ctx context.Context, src Source, opts Options) (Pipeline, error) {
	if strings.TrimSpace(src.Path) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{}
	if opts.ContextSize > 0 {
		mo = append(mo, llama.SetContext(opts.ContextSize))
	}
	m, err := llama.New(src.Path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaPipeline{model: m, threads: max(1, opts.Threads)}, nil
}

func (p *llamaPipeline) Run(ctx context.Context, prompt string, params Params) (string, error) {
	if p.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Stop decoding as soon as the caller goes away.
	p.model.SetTokenCallback(func(string) bool { return ctx.Err() == nil })
	text, err := p.model.Predict(prompt, predictOptions(params, p.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

func (p *llamaPipeline) Close() error {
	if p.model != nil {
		p.model.Free()
		p.model = nil
	}
	return nil
}

// predictOptions converts per-draw params into go-llama.cpp options.
func predictOptions(params Params, threads int) []llama.PredictOption {
	return []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxNewTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetSeed(params.Seed),
		llama.SetTopK(llamaTopK),
		llama.SetTopP(llamaTopP),
		llama.SetTemperature(llamaTemperature),
		llama.SetPenalty(llamaPenalty),
	}
}
