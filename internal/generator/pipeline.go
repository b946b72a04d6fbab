package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Pipeline is the inference engine behind a Generator. Tokenization, decoding
// and sampling all happen behind Run.
type Pipeline interface {
	// Run produces one continuation of prompt (without the prompt itself),
	// at most p.MaxNewTokens tokens long, sampled with p.Seed.
	Run(ctx context.Context, prompt string, p Params) (string, error)
	// Close releases model resources.
	Close() error
}

// Params are the per-draw generation parameters handed to a Pipeline.
type Params struct {
	MaxNewTokens int
	Seed         int
}

// BackendFunc opens a Pipeline for a resolved model source.
type BackendFunc func(ctx context.Context, src Source, opts Options) (Pipeline, error)

type backendEntry struct {
	open BackendFunc
	// remote backends receive the source reference verbatim instead of a local file.
	remote bool
	// unavailable is set for backends compiled out of this binary.
	unavailable string
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]backendEntry{}
)

// RegisterBackend makes a backend available under name. remote backends skip
// local/hub source resolution.
func RegisterBackend(name string, remote bool, fn BackendFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = backendEntry{open: fn, remote: remote}
}

// registerUnavailable reserves name for a backend that was not compiled in, so
// Load fails before resolving (and possibly downloading) a model.
func registerUnavailable(name, reason string) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = backendEntry{unavailable: reason}
}

// Backends lists registered backend names.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return backendNamesLocked()
}

func lookupBackend(name string) (backendEntry, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[strings.ToLower(name)]
	if !ok {
		return backendEntry{}, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(backendNamesLocked(), ", "))
	}
	return b, nil
}

func backendNamesLocked() []string {
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
