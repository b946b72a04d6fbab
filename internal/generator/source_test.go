package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubHub(t *testing.T, fn func(ctx context.Context, ref string, opts Options) (string, error)) {
	t.Helper()
	prev := hubDownload
	hubDownload = fn
	t.Cleanup(func() { hubDownload = prev })
}

func TestResolveSource_File(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "distilgpt2.Q8_0.gguf")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := ResolveSource(context.Background(), f, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind != SourceFile || src.Path != f || src.Ref != f {
		t.Fatalf("unexpected source: %+v", src)
	}
}

func TestResolveSource_DirectoryPicksFirstModel(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.gguf", "a.gguf", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src, err := ResolveSource(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind != SourceDir || filepath.Base(src.Path) != "a.gguf" {
		t.Fatalf("unexpected source: %+v", src)
	}
}

func TestResolveSource_DirectoryWithoutModel(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveSource(context.Background(), dir, Options{}); err == nil {
		t.Fatalf("expected error for directory without model files")
	}
}

func TestResolveSource_MissingPathDoesNotHitHub(t *testing.T) {
	stubHub(t, func(context.Context, string, Options) (string, error) {
		t.Fatalf("hub must not be consulted for path-like references")
		return "", nil
	})
	missing := filepath.Join(t.TempDir(), "nope.gguf")
	if _, err := ResolveSource(context.Background(), missing, Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
	if _, err := ResolveSource(context.Background(), "./models/x", Options{}); err == nil {
		t.Fatalf("expected error for missing relative path")
	}
}

func TestResolveSource_HubReference(t *testing.T) {
	var gotRef string
	var gotOpts Options
	stubHub(t, func(_ context.Context, ref string, opts Options) (string, error) {
		gotRef, gotOpts = ref, opts
		return "/cache/tiny.gguf", nil
	})
	opts := Options{CacheDir: "/cache", HubToken: "hf_x"}
	src, err := ResolveSource(context.Background(), "acme/tiny-GGUF:tiny.Q4_0.gguf", opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind != SourceHub || src.Path != "/cache/tiny.gguf" || src.Ref != "acme/tiny-GGUF:tiny.Q4_0.gguf" {
		t.Fatalf("unexpected source: %+v", src)
	}
	if gotRef != "acme/tiny-GGUF:tiny.Q4_0.gguf" || gotOpts.CacheDir != "/cache" || gotOpts.HubToken != "hf_x" {
		t.Fatalf("hub called with ref=%q opts=%+v", gotRef, gotOpts)
	}
}

func TestResolveSource_DefaultModelUsesGGUFConversion(t *testing.T) {
	var refs []string
	stubHub(t, func(_ context.Context, ref string, _ Options) (string, error) {
		refs = append(refs, ref)
		return "/cache/distilgpt2.Q8_0.gguf", nil
	})
	for _, ref := range []string{DefaultSource, "DistilGPT2", "distilbert/distilgpt2"} {
		src, err := ResolveSource(context.Background(), ref, Options{})
		if err != nil {
			t.Fatalf("%s: resolve: %v", ref, err)
		}
		if src.Kind != SourceHub || src.Ref != ref || src.Path != "/cache/distilgpt2.Q8_0.gguf" {
			t.Fatalf("%s: unexpected source: %+v", ref, src)
		}
	}
	want := hubAliases[DefaultSource]
	repo, file, ok := strings.Cut(want, ":")
	if !ok || repo == "" || !strings.HasSuffix(file, modelFileSuffix) {
		t.Fatalf("alias %q must name a repo and a %s file", want, modelFileSuffix)
	}
	for i, got := range refs {
		if got != want {
			t.Fatalf("download %d used %q, want %q", i, got, want)
		}
	}
}

func TestResolveSource_LocalDirectoryBeatsAlias(t *testing.T) {
	stubHub(t, func(context.Context, string, Options) (string, error) {
		t.Fatalf("an existing local directory must not go to the hub")
		return "", nil
	})
	t.Chdir(t.TempDir())
	if err := os.Mkdir(DefaultSource, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(DefaultSource, "local.gguf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := ResolveSource(context.Background(), DefaultSource, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind != SourceDir || filepath.Base(src.Path) != "local.gguf" {
		t.Fatalf("unexpected source: %+v", src)
	}
}

func TestResolveSource_HubFailure(t *testing.T) {
	boom := errors.New("404 repo not found")
	stubHub(t, func(context.Context, string, Options) (string, error) { return "", boom })
	_, err := ResolveSource(context.Background(), "no-such/model", Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hub error, got %v", err)
	}
}

func TestResolveSource_Empty(t *testing.T) {
	if _, err := ResolveSource(context.Background(), "  ", Options{}); err == nil {
		t.Fatalf("expected error for empty reference")
	}
}
