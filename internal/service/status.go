package service

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"textgend/pkg/types"
)

// Snapshot returns a read-only view of the service state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, Err: s.err}
}

// Status builds a detailed status response for /status.
func (s *Service) Status(ctx context.Context) types.StatusResponse {
	s.mu.RLock()
	resp := types.StatusResponse{
		State:            string(s.state),
		Model:            s.opts.Model,
		Backend:          s.opts.Backend,
		Seed:             s.opts.Seed,
		GenerationsTotal: s.total,
		LastError:        s.err,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	s.mu.RUnlock()
	if s.holder.Loaded() {
		if g, err := s.holder.Get(ctx); err == nil {
			src := g.Source()
			resp.Model = src.Ref
			resp.ModelPath = src.Path
			resp.Seed = g.Seed()
			if b := g.Backend(); b != "" {
				resp.Backend = b
			}
		}
	}
	resp.RSSBytes = processRSS(ctx)
	return resp
}

// processRSS returns the resident set size of this process, 0 when unknown.
func processRSS(ctx context.Context) uint64 {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfoWithContext(ctx)
	if err != nil || mi == nil {
		return 0
	}
	return mi.RSS
}
