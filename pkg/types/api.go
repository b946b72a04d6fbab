package types

// GenerateResponse is returned by GET /{prompt}.
type GenerateResponse struct {
	// Generated sequences in draw order. Each entry is the prompt followed by its continuation.
	// example: ["Once upon a time there was a little girl who"]
	GeneratedSequences []string `json:"generated_sequences" example:"Once upon a time there was a little girl who"`
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	// example: ok
	Health string `json:"health" example:"ok"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: max_new_tokens must be >= 1
	Error string `json:"error" example:"max_new_tokens must be >= 1"`
	// HTTP status code.
	// example: 422
	Code int `json:"code" example:"422"`
}

// StatusResponse is returned by GET /status on the admin listener.
type StatusResponse struct {
	// Lifecycle state of the generator (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Model source as configured (identifier or path).
	// example: distilgpt2
	Model string `json:"model" example:"distilgpt2"`
	// Local file the model was loaded from, when the backend loads files.
	// example: /home/user/.cache/huggingface/hub/models--distilgpt2/snapshots/abc/distilgpt2.Q8_0.gguf
	ModelPath string `json:"model_path,omitempty"`
	// Pipeline backend name.
	// example: llamacpp
	Backend string `json:"backend" example:"llamacpp"`
	// Sampling seed set at construction.
	// example: 42
	Seed int64 `json:"seed" example:"42"`
	// Number of completed generate calls.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Last error observed (load or generation).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Resident set size of the process in bytes, 0 when unavailable.
	// example: 734003200
	RSSBytes uint64 `json:"rss_bytes" example:"734003200"`
}
