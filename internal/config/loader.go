package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TEXTGEND_"

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by SetDefaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	AdminAddr string `json:"admin_addr" yaml:"admin_addr" toml:"admin_addr"`

	Model       string `json:"model" yaml:"model" toml:"model"`
	Backend     string `json:"backend" yaml:"backend" toml:"backend"`
	Seed        int64  `json:"seed" yaml:"seed" toml:"seed"`
	CacheDir    string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	HubToken    string `json:"hub_token" yaml:"hub_token" toml:"hub_token"`
	ContextSize int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int    `json:"threads" yaml:"threads" toml:"threads"`

	ServerURL             string `json:"server_url" yaml:"server_url" toml:"server_url"`
	ServerAPIKey          string `json:"server_api_key" yaml:"server_api_key" toml:"server_api_key"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`

	GenerateTimeoutSeconds  int `json:"generate_timeout_seconds" yaml:"generate_timeout_seconds" toml:"generate_timeout_seconds"`
	MaxNewTokensLimit       int `json:"max_new_tokens_limit" yaml:"max_new_tokens_limit" toml:"max_new_tokens_limit"`
	NumReturnSequencesLimit int `json:"num_return_sequences_limit" yaml:"num_return_sequences_limit" toml:"num_return_sequences_limit"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	// seedSet records an explicit seed from a file or env, so seed 0 is kept.
	seedSet bool
}

// Defaults applied by SetDefaults.
const (
	DefaultAddr                    = ":8080"
	DefaultAdminAddr               = ":9090"
	DefaultModel                   = "distilgpt2"
	DefaultBackend                 = "llamacpp"
	DefaultSeed                    = 42
	DefaultContextSize             = 1024
	DefaultMaxNewTokensLimit       = 1024
	DefaultNumReturnSequencesLimit = 16
)

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unspecified fields. Seed 0 counts as unspecified unless it
// came from a config file or TEXTGEND_SEED.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.AdminAddr == "" {
		c.AdminAddr = DefaultAdminAddr
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Seed == 0 && !c.seedSet {
		c.Seed = DefaultSeed
	}
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.MaxNewTokensLimit <= 0 {
		c.MaxNewTokensLimit = DefaultMaxNewTokensLimit
	}
	if c.NumReturnSequencesLimit <= 0 {
		c.NumReturnSequencesLimit = DefaultNumReturnSequencesLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// AdminEnabled reports whether the admin listener should start.
// "off", "none" and "-" disable it.
func (c Config) AdminEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(c.AdminAddr)) {
	case "", "off", "none", "-":
		return false
	}
	return true
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if err := decode(ext, b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	var keys map[string]any
	if err := decode(ext, b, &keys); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	_, cfg.seedSet = keys["seed"]
	return cfg, nil
}

// decode unmarshals b into v using the format implied by ext.
func decode(ext string, b []byte, v any) error {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, v)
	case ".json":
		return json.Unmarshal(b, v)
	case ".toml":
		return toml.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// ApplyEnv overlays TEXTGEND_* variables onto c. Unparseable numbers are
// reported instead of silently ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(EnvPrefix + key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("ADDR", &c.Addr)
	str("ADMIN_ADDR", &c.AdminAddr)
	str("MODEL", &c.Model)
	str("BACKEND", &c.Backend)
	str("CACHE_DIR", &c.CacheDir)
	str("HUB_TOKEN", &c.HubToken)
	str("SERVER_URL", &c.ServerURL)
	str("SERVER_API_KEY", &c.ServerAPIKey)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v := strings.TrimSpace(getenv(EnvPrefix + "SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Seed = n
		c.seedSet = true
	}
	for key, dst := range map[string]*int{
		"CONTEXT_SIZE":               &c.ContextSize,
		"THREADS":                    &c.Threads,
		"REQUEST_TIMEOUT_SECONDS":    &c.RequestTimeoutSeconds,
		"GENERATE_TIMEOUT_SECONDS":   &c.GenerateTimeoutSeconds,
		"MAX_NEW_TOKENS_LIMIT":       &c.MaxNewTokensLimit,
		"NUM_RETURN_SEQUENCES_LIMIT": &c.NumReturnSequencesLimit,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "CORS_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCORS_ENABLED: %w", EnvPrefix, err)
		}
		c.CORSEnabled = b
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "CORS_ORIGINS")); v != "" {
		c.CORSOrigins = SplitCSV(v)
	}
	return nil
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
