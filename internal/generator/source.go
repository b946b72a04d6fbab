package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gomlx/go-huggingface/hub"

	"textgend/internal/common/fsutil"
)

// SourceKind tells how a model reference was resolved.
type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceDir    SourceKind = "dir"
	SourceHub    SourceKind = "hub"
	SourceRemote SourceKind = "remote"
)

const modelFileSuffix = ".gguf"

// Source is a resolved pretrained model reference.
type Source struct {
	// Ref is the reference as configured: an identifier or a path.
	Ref string
	// Path is the local model file; empty for remote backends.
	Path string
	Kind SourceKind
}

// hubAliases maps transformers identifiers that publish no GGUF weights to a
// GGUF conversion on the hub, as "repo:file".
var hubAliases = map[string]string{
	"distilgpt2":            "QuantFactory/distilgpt2-GGUF:distilgpt2.Q8_0.gguf",
	"distilbert/distilgpt2": "QuantFactory/distilgpt2-GGUF:distilgpt2.Q8_0.gguf",
}

// hubRef returns the hub reference to download for ref.
func hubRef(ref string) string {
	if alias, ok := hubAliases[strings.ToLower(ref)]; ok {
		return alias
	}
	return ref
}

// hubDownload fetches a model file for a HuggingFace repo reference and returns
// its local path. Replaced in tests.
var hubDownload = downloadFromHub

// ResolveSource turns ref into a local model file. Existing paths win: a file
// is used as-is and a directory contributes its first *.gguf by name. Anything
// else is treated as a HuggingFace repo id, optionally suffixed with
// ":<file>" to pick a file; otherwise the first *.gguf in the repo is used.
// Known identifiers without GGUF weights go through hubAliases.
func ResolveSource(ctx context.Context, ref string, opts Options) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, errors.New("empty model source")
	}
	p, err := fsutil.ExpandHome(ref)
	if err != nil {
		return Source{}, err
	}
	if fi, err := os.Stat(p); err == nil {
		if !fi.IsDir() {
			return Source{Ref: ref, Path: p, Kind: SourceFile}, nil
		}
		f, err := fsutil.FirstWithSuffix(p, modelFileSuffix)
		if err != nil {
			return Source{}, err
		}
		if f == "" {
			return Source{}, fmt.Errorf("no %s file in %s", modelFileSuffix, p)
		}
		return Source{Ref: ref, Path: f, Kind: SourceDir}, nil
	}
	if looksLikePath(ref) {
		return Source{}, fmt.Errorf("model path %s does not exist", p)
	}
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	path, err := hubDownload(ctx, hubRef(ref), opts)
	if err != nil {
		return Source{}, err
	}
	return Source{Ref: ref, Path: path, Kind: SourceHub}, nil
}

// looksLikePath keeps typos in local paths from turning into hub lookups.
func looksLikePath(ref string) bool {
	return strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, ".") || strings.HasPrefix(ref, "~") ||
		strings.HasSuffix(strings.ToLower(ref), modelFileSuffix)
}

func downloadFromHub(ctx context.Context, ref string, opts Options) (string, error) {
	repoID, file, _ := strings.Cut(ref, ":")
	repo := hub.New(repoID)
	if opts.HubToken != "" {
		repo = repo.WithAuth(opts.HubToken)
	}
	if opts.CacheDir != "" {
		repo = repo.WithCacheDir(opts.CacheDir)
	}
	if file == "" {
		if err := repo.DownloadInfo(false); err != nil {
			return "", fmt.Errorf("repo info %s: %w", repoID, err)
		}
		var candidates []string
		for name, err := range repo.IterFileNames() {
			if err != nil {
				return "", fmt.Errorf("list %s: %w", repoID, err)
			}
			if strings.HasSuffix(strings.ToLower(name), modelFileSuffix) {
				candidates = append(candidates, name)
			}
		}
		if len(candidates) == 0 {
			return "", fmt.Errorf("no %s file in hub repo %s", modelFileSuffix, repoID)
		}
		sort.Strings(candidates)
		file = candidates[0]
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := repo.DownloadFile(file)
	if err != nil {
		return "", fmt.Errorf("download %s/%s: %w", repoID, file, err)
	}
	return path, nil
}
