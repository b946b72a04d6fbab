// Package cli wires configuration, the generator service and the HTTP
// listeners into the textgend command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"textgend/internal/config"
	"textgend/internal/generator"
	"textgend/internal/service"
)

// Version is stamped at build time with -ldflags "-X textgend/internal/cli.Version=...".
var Version = "dev"

// app carries the process dependencies so tests can swap them.
type app struct {
	getenv func(string) string
	stdout io.Writer
	stderr io.Writer
	// loader builds the generator for a resolved config.
	loader func(generator.Options) service.LoaderFunc
	// onListen, when set, receives the bound addresses once serving starts.
	onListen func(public, admin string)
}

func defaultApp() *app {
	return &app{
		getenv: os.Getenv,
		stdout: os.Stdout,
		stderr: os.Stderr,
		loader: service.LoaderFor,
	}
}

// Main runs the command line and returns the process exit code.
func Main(args []string) int {
	return defaultApp().run(context.Background(), args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.buildRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "textgend: %v\n", err)
		return 1
	}
	return 0
}

// withModelHint points a failed load at the flags that choose the model.
func withModelHint(err error) error {
	if !generator.IsModelLoad(err) {
		return err
	}
	return fmt.Errorf("%w; set --model to a GGUF file, a directory, or a hub repo[:file], or use --backend %s --server-url", err, generator.BackendOpenAI)
}

// generatorOptions maps the resolved config onto generator.Load options.
func generatorOptions(cfg config.Config) generator.Options {
	return generator.Options{
		Seed:           cfg.Seed,
		Source:         cfg.Model,
		Backend:        cfg.Backend,
		CacheDir:       cfg.CacheDir,
		HubToken:       cfg.HubToken,
		ContextSize:    cfg.ContextSize,
		Threads:        cfg.Threads,
		ServerURL:      cfg.ServerURL,
		ServerAPIKey:   cfg.ServerAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	}
}

func serviceOptions(cfg config.Config) service.Options {
	return service.Options{
		MaxNewTokensLimit:       cfg.MaxNewTokensLimit,
		NumReturnSequencesLimit: cfg.NumReturnSequencesLimit,
		Model:                   cfg.Model,
		Backend:                 cfg.Backend,
		Seed:                    cfg.Seed,
		Publisher:               service.LogPublisher{},
	}
}

func (a *app) newService(cfg config.Config) *service.Service {
	return service.New(service.NewHolder(a.loader(generatorOptions(cfg))), serviceOptions(cfg))
}
