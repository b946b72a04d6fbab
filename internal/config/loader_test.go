package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmodel: /models/tiny.gguf\nbackend: openai\nseed: 7\ncors_origins: [\"https://a.example\"]\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Model != "/models/tiny.gguf" || cfg.Backend != "openai" || cfg.Seed != 7 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://a.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","model":"gpt2","seed":3,"max_new_tokens_limit":64}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Model != "gpt2" || cfg.Seed != 3 || cfg.MaxNewTokensLimit != 64 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nadmin_addr=\"\"\nbackend=\"llamacpp\"\nthreads=2\ngenerate_timeout_seconds=30\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.Backend != "llamacpp" || cfg.Threads != 2 || cfg.GenerateTimeoutSeconds != 30 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Addr != DefaultAddr || cfg.Model != DefaultModel || cfg.Backend != DefaultBackend {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Seed != DefaultSeed {
		t.Fatalf("seed=%d want %d", cfg.Seed, DefaultSeed)
	}
	if cfg.Threads <= 0 || cfg.ContextSize != DefaultContextSize {
		t.Fatalf("threads=%d ctx=%d", cfg.Threads, cfg.ContextSize)
	}
	if cfg.AdminAddr != DefaultAdminAddr || !cfg.AdminEnabled() {
		t.Fatalf("admin addr=%q", cfg.AdminAddr)
	}
	off := Config{AdminAddr: "off"}
	off.SetDefaults()
	if off.AdminEnabled() {
		t.Fatalf("admin listener should be disabled by %q", off.AdminAddr)
	}

	custom := Config{Model: "/m.gguf", Seed: 9}
	custom.SetDefaults()
	if custom.Model != "/m.gguf" || custom.Seed != 9 {
		t.Fatalf("explicit values overwritten: %+v", custom)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TEXTGEND_ADDR":                 ":1234",
		"TEXTGEND_MODEL":                "gpt2",
		"TEXTGEND_SEED":                 "99",
		"TEXTGEND_THREADS":              "3",
		"TEXTGEND_CORS_ENABLED":         "true",
		"TEXTGEND_CORS_ORIGINS":         "https://a, https://b",
		"TEXTGEND_MAX_NEW_TOKENS_LIMIT": "10",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Addr != ":1234" || cfg.Model != "gpt2" || cfg.Seed != 99 || cfg.Threads != 3 || cfg.MaxNewTokensLimit != 10 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b" {
		t.Fatalf("unexpected cors: %v %v", cfg.CORSEnabled, cfg.CORSOrigins)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	for _, key := range []string{"TEXTGEND_SEED", "TEXTGEND_THREADS", "TEXTGEND_CORS_ENABLED"} {
		cfg := Default()
		err := cfg.ApplyEnv(func(k string) string {
			if k == key {
				return "nope"
			}
			return ""
		})
		if err == nil {
			t.Fatalf("%s: expected parse error", key)
		}
	}
}

func TestExplicitZeroSeedSurvivesDefaults(t *testing.T) {
	d := t.TempDir()
	for name, content := range map[string]string{
		"zero.yaml": "seed: 0\n",
		"zero.json": `{"seed": 0}`,
		"zero.toml": "seed = 0\n",
	} {
		cfg, err := Load(writeTempFile(t, d, name, content))
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		cfg.SetDefaults()
		if cfg.Seed != 0 {
			t.Fatalf("%s: seed=%d want 0", name, cfg.Seed)
		}
	}

	noSeed, err := Load(writeTempFile(t, d, "noseed.yaml", "addr: :7000\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	noSeed.SetDefaults()
	if noSeed.Seed != DefaultSeed {
		t.Fatalf("seed=%d want %d", noSeed.Seed, DefaultSeed)
	}

	var env Config
	if err := env.ApplyEnv(func(k string) string {
		if k == EnvPrefix+"SEED" {
			return "0"
		}
		return ""
	}); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	env.SetDefaults()
	if env.Seed != 0 {
		t.Fatalf("TEXTGEND_SEED=0: seed=%d want 0", env.Seed)
	}
}
