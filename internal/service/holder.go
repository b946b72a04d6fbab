package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"textgend/internal/generator"
	"textgend/internal/logx"
)

// LoaderFunc constructs the generator. It runs once per Holder, or again after
// an attempt cut short by its caller's context.
type LoaderFunc func(ctx context.Context) (*generator.Generator, error)

// Holder is the once-initialized slot for the process-wide Generator. The
// first Get runs the loader; later calls return the same instance, or the
// same error, without side effects.
type Holder struct {
	load LoaderFunc

	mu     sync.Mutex
	done   bool
	gen    *generator.Generator
	err    error
	loaded atomic.Bool
}

// NewHolder returns a Holder that will build its Generator with load.
func NewHolder(load LoaderFunc) *Holder {
	return &Holder{load: load}
}

// LoaderFor returns a LoaderFunc calling generator.Load with opts.
func LoaderFor(opts generator.Options) LoaderFunc {
	return func(ctx context.Context) (*generator.Generator, error) {
		return generator.Load(ctx, opts)
	}
}

// Get returns the Generator, constructing it on the first call. A failed
// construction is cached: a generator that cannot load does not retry. The
// exception is a load abandoned because ctx ended, which the next Get retries.
func (h *Holder) Get(ctx context.Context) (*generator.Generator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return h.gen, h.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logx.Log.Info().Msg("loading model")
	start := time.Now()
	gen, err := h.load(ctx)
	if err != nil && ctx.Err() != nil {
		logx.Log.Warn().Err(err).Msg("model load interrupted")
		return nil, err
	}
	if err == nil && gen == nil {
		err = &generator.ModelLoadError{Source: "", Err: errNilGenerator}
	}
	modelLoadDuration.Set(time.Since(start).Seconds())
	h.gen, h.err, h.done = gen, err, true
	h.loaded.Store(err == nil)
	return h.gen, h.err
}

// Loaded reports whether construction has completed successfully.
func (h *Holder) Loaded() bool { return h.loaded.Load() }
