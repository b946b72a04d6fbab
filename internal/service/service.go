package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"textgend/internal/generator"
	"textgend/internal/logx"
)

// Service coordinates the shared Generator for request handlers.
type Service struct {
	holder *Holder
	opts   Options

	mu        sync.RWMutex
	state     State
	err       string
	total     uint64
	startTime time.Time
}

// New constructs a Service around holder. Nothing is loaded until Start or
// the first Generate.
func New(holder *Holder, opts Options) *Service {
	return &Service{
		holder:    holder,
		opts:      opts.withDefaults(),
		state:     StateLoading,
		startTime: time.Now(),
	}
}

// Start is the startup hook: it constructs the Generator eagerly so the first
// request does not pay the load. A *generator.ModelLoadError is fatal to the
// caller.
func (s *Service) Start(ctx context.Context) error {
	s.opts.Publisher.Publish(Event{Name: EventModelLoading, Fields: map[string]any{"model": s.opts.Model, "backend": s.opts.Backend}})
	g, err := s.holder.Get(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateError
		s.err = err.Error()
		s.opts.Publisher.Publish(Event{Name: EventModelError, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	s.state = StateReady
	s.err = ""
	src := g.Source()
	s.opts.Publisher.Publish(Event{Name: EventModelReady, Fields: map[string]any{"model": src.Ref, "path": src.Path, "kind": string(src.Kind)}})
	logx.Log.Info().Str("model", src.Ref).Str("path", src.Path).Str("backend", g.Backend()).Int64("seed", g.Seed()).Msg("model ready")
	return nil
}

// Generate runs one generation request against the shared Generator.
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if err := generator.ValidateRequest(req.Prompt, req.MaxNewTokens, req.NumReturnSequences); err != nil {
		generationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return GenerationResult{}, err
	}
	if err := checkLimits(req, s.opts); err != nil {
		generationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return GenerationResult{}, err
	}
	g, err := s.holder.Get(ctx)
	if err != nil {
		generationsTotal.WithLabelValues(outcomeNotReady).Inc()
		s.recordError(err)
		return GenerationResult{}, err
	}
	s.markReady()

	id := uuid.NewString()
	start := time.Now()
	seqs, err := g.Generate(ctx, req.Prompt, req.MaxNewTokens, req.NumReturnSequences)
	dur := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			generationsTotal.WithLabelValues(outcomeCanceled).Inc()
		case generator.IsInvalidParameter(err):
			generationsTotal.WithLabelValues(outcomeInvalid).Inc()
		default:
			generationsTotal.WithLabelValues(outcomeFailed).Inc()
			s.recordError(err)
			s.opts.Publisher.Publish(Event{Name: EventGenerationFailed, Fields: map[string]any{"id": id, "error": err.Error()}})
		}
		return GenerationResult{}, err
	}
	generationsTotal.WithLabelValues(outcomeOK).Inc()
	generatedSequencesTotal.Add(float64(len(seqs)))
	generationDuration.Observe(dur.Seconds())
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
	s.opts.Publisher.Publish(Event{Name: EventGenerationComplete, Fields: map[string]any{"id": id, "sequences": len(seqs), "duration_ms": dur.Milliseconds()}})
	return GenerationResult{ID: id, Sequences: seqs, Duration: dur}, nil
}

// Ready reports whether the Generator is loaded and usable.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady && s.holder.Loaded()
}

// Close releases the Generator if it was loaded.
func (s *Service) Close() error {
	if !s.holder.Loaded() {
		return nil
	}
	g, err := s.holder.Get(context.Background())
	if err != nil {
		return nil
	}
	return g.Close()
}

func (s *Service) markReady() {
	s.mu.Lock()
	if s.state != StateReady {
		s.state = StateReady
	}
	s.mu.Unlock()
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.err = err.Error()
	if generator.IsModelLoad(err) {
		s.state = StateError
	}
	s.mu.Unlock()
}
