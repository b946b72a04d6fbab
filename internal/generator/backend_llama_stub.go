//go:build !llama

package generator

// No-CGO stand-in for the llama backend, compiled when the 'llama' build tag is
// not set. Loading fails fast instead of pretending to generate.

const llamaBuilt = false

func init() {
	registerUnavailable(BackendLlama, "llama support not built (missing 'llama' build tag)")
}
