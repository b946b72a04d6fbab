package service

import (
	"errors"
	"strconv"

	"textgend/internal/generator"
)

var errNilGenerator = errors.New("loader returned no generator")

// checkLimits rejects requests above the configured per-request bounds.
// Lower bounds are enforced by the generator itself.
func checkLimits(req GenerationRequest, o Options) error {
	if req.MaxNewTokens > o.MaxNewTokensLimit {
		return &generator.InvalidParameterError{
			Name:   "max_new_tokens",
			Value:  strconv.Itoa(req.MaxNewTokens),
			Reason: "must be <= " + strconv.Itoa(o.MaxNewTokensLimit),
		}
	}
	if req.NumReturnSequences > o.NumReturnSequencesLimit {
		return &generator.InvalidParameterError{
			Name:   "num_return_sequences",
			Value:  strconv.Itoa(req.NumReturnSequences),
			Reason: "must be <= " + strconv.Itoa(o.NumReturnSequencesLimit),
		}
	}
	return nil
}
