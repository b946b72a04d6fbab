package service

import "textgend/internal/generator"

// Defaults applied when the corresponding Options fields are unset.
const (
	DefaultMaxNewTokensLimit       = 1024
	DefaultNumReturnSequencesLimit = 16
)

// Options encapsulates Service tunables.
type Options struct {
	// Upper bounds for a single request; values <= 0 use the defaults.
	MaxNewTokensLimit       int
	NumReturnSequencesLimit int

	// Reported by Status before the generator is loaded.
	Model   string
	Backend string
	Seed    int64

	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
}

func (o Options) withDefaults() Options {
	if o.MaxNewTokensLimit <= 0 {
		o.MaxNewTokensLimit = DefaultMaxNewTokensLimit
	}
	if o.NumReturnSequencesLimit <= 0 {
		o.NumReturnSequencesLimit = DefaultNumReturnSequencesLimit
	}
	if o.Model == "" {
		o.Model = generator.DefaultSource
	}
	if o.Backend == "" {
		o.Backend = generator.DefaultBackend
	}
	if o.Publisher == nil {
		o.Publisher = noopPublisher{}
	}
	return o
}
