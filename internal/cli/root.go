package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"textgend/internal/config"
	"textgend/internal/generator"
	"textgend/internal/logx"
)

// flagBinding copies one flag value from the flag-bound config into the
// effective config when the flag was set on the command line.
type flagBinding struct {
	name  string
	apply func(dst, src *config.Config)
}

// buildRootCmd constructs the cobra tree. Precedence for every setting is
// defaults < config file < TEXTGEND_* env < flags.
func (a *app) buildRootCmd() *cobra.Command {
	var (
		cfgPath string
		fv      = config.Default()
		cfg     config.Config
	)
	root := &cobra.Command{
		Use:           "textgend",
		Short:         "Text generation HTTP service for distilgpt2-class causal language models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	bindings := bindFlags(pf, &fv)

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		resolved, err := a.resolveConfig(cfgPath, cmd.Flags(), &fv, bindings)
		if err != nil {
			return err
		}
		cfg = resolved
		logx.ConfigureWriter(cfg.LogLevel, cfg.LogFormat, a.stderr)
		return nil
	}

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Load the model and serve the HTTP API",
		Example: "  textgend serve --model distilgpt2 --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), cfg)
		},
	}
	root.RunE = serveCmd.RunE

	var (
		maxNew int
		numSeq int
		asJSON bool
	)
	generateCmd := &cobra.Command{
		Use:     "generate <prompt>",
		Short:   "Generate continuations for one prompt and print them",
		Example: "  textgend generate \"Once upon a time\" -n 3 --max-new-tokens 25",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd.Context(), cfg, strings.Join(args, " "), maxNew, numSeq, asJSON)
		},
	}
	generateCmd.Flags().IntVar(&maxNew, "max-new-tokens", generator.DefaultMaxNewTokens, "Maximum generated tokens per sequence")
	generateCmd.Flags().IntVarP(&numSeq, "num-return-sequences", "n", generator.DefaultNumReturnSequences, "Number of independent sequences")
	generateCmd.Flags().BoolVar(&asJSON, "json", false, "Print the HTTP response body instead of plain text")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled-in backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llama := "not built"
			if generator.LlamaBuilt() {
				llama = "built"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "textgend %s (llama: %s, backends: %s)\n", Version, llama, strings.Join(generator.Backends(), ", "))
			return nil
		},
	}

	root.AddCommand(serveCmd, generateCmd, versionCmd)
	return root
}

func bindFlags(pf *pflag.FlagSet, fv *config.Config) []flagBinding {
	pf.StringVar(&fv.Addr, "addr", fv.Addr, "Public HTTP listen address")
	pf.StringVar(&fv.AdminAddr, "admin-addr", fv.AdminAddr, "Admin listen address for /metrics, /status and probes (\"off\" disables)")
	pf.StringVar(&fv.Model, "model", fv.Model, "Model source: HuggingFace repo id (optionally repo:file), .gguf file or directory")
	pf.StringVar(&fv.Backend, "backend", fv.Backend, "Pipeline backend: llamacpp|openai")
	pf.Int64Var(&fv.Seed, "seed", fv.Seed, "Sampling seed set once at load")
	pf.StringVar(&fv.CacheDir, "cache-dir", fv.CacheDir, "HuggingFace cache directory")
	pf.StringVar(&fv.HubToken, "hub-token", fv.HubToken, "HuggingFace access token")
	pf.IntVar(&fv.ContextSize, "context-size", fv.ContextSize, "Context window for the in-process backend")
	pf.IntVar(&fv.Threads, "threads", fv.Threads, "Inference threads for the in-process backend")
	pf.StringVar(&fv.ServerURL, "server-url", fv.ServerURL, "Base URL of an OpenAI-compatible completion server (openai backend)")
	pf.StringVar(&fv.ServerAPIKey, "server-api-key", fv.ServerAPIKey, "Bearer token for the completion server")
	pf.IntVar(&fv.RequestTimeoutSeconds, "request-timeout", fv.RequestTimeoutSeconds, "Per-draw timeout in seconds for the openai backend (0 disables)")
	pf.IntVar(&fv.GenerateTimeoutSeconds, "generate-timeout", fv.GenerateTimeoutSeconds, "Per-request generation timeout in seconds (0 disables)")
	pf.IntVar(&fv.MaxNewTokensLimit, "max-new-tokens-limit", fv.MaxNewTokensLimit, "Upper bound for max_new_tokens")
	pf.IntVar(&fv.NumReturnSequencesLimit, "num-return-sequences-limit", fv.NumReturnSequencesLimit, "Upper bound for num_return_sequences")
	pf.BoolVar(&fv.CORSEnabled, "cors", fv.CORSEnabled, "Enable CORS on the public listener")
	pf.StringSliceVar(&fv.CORSOrigins, "cors-origins", fv.CORSOrigins, "Allowed CORS origins")
	pf.StringVar(&fv.LogLevel, "log-level", fv.LogLevel, "Log level: trace|debug|info|warn|error|off")
	pf.StringVar(&fv.LogFormat, "log-format", fv.LogFormat, "Log format: console|json")

	return []flagBinding{
		{"addr", func(d, s *config.Config) { d.Addr = s.Addr }},
		{"admin-addr", func(d, s *config.Config) { d.AdminAddr = s.AdminAddr }},
		{"model", func(d, s *config.Config) { d.Model = s.Model }},
		{"backend", func(d, s *config.Config) { d.Backend = s.Backend }},
		{"seed", func(d, s *config.Config) { d.Seed = s.Seed }},
		{"cache-dir", func(d, s *config.Config) { d.CacheDir = s.CacheDir }},
		{"hub-token", func(d, s *config.Config) { d.HubToken = s.HubToken }},
		{"context-size", func(d, s *config.Config) { d.ContextSize = s.ContextSize }},
		{"threads", func(d, s *config.Config) { d.Threads = s.Threads }},
		{"server-url", func(d, s *config.Config) { d.ServerURL = s.ServerURL }},
		{"server-api-key", func(d, s *config.Config) { d.ServerAPIKey = s.ServerAPIKey }},
		{"request-timeout", func(d, s *config.Config) { d.RequestTimeoutSeconds = s.RequestTimeoutSeconds }},
		{"generate-timeout", func(d, s *config.Config) { d.GenerateTimeoutSeconds = s.GenerateTimeoutSeconds }},
		{"max-new-tokens-limit", func(d, s *config.Config) { d.MaxNewTokensLimit = s.MaxNewTokensLimit }},
		{"num-return-sequences-limit", func(d, s *config.Config) { d.NumReturnSequencesLimit = s.NumReturnSequencesLimit }},
		{"cors", func(d, s *config.Config) { d.CORSEnabled = s.CORSEnabled }},
		{"cors-origins", func(d, s *config.Config) { d.CORSOrigins = append([]string(nil), s.CORSOrigins...) }},
		{"log-level", func(d, s *config.Config) { d.LogLevel = s.LogLevel }},
		{"log-format", func(d, s *config.Config) { d.LogFormat = s.LogFormat }},
	}
}

// resolveConfig layers file, env and changed flags. Defaults are applied
// before flags so an explicit --seed 0 survives.
func (a *app) resolveConfig(path string, flags *pflag.FlagSet, fv *config.Config, bindings []flagBinding) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(a.getenv); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	for _, b := range bindings {
		if flags.Changed(b.name) {
			b.apply(&cfg, fv)
		}
	}
	return cfg, nil
}
