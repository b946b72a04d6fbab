package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	openAIProbeTimeout   = 10 * time.Second
	openAIConnectTimeout = 5 * time.Second
)

func init() { RegisterBackend(BackendOpenAI, true, openOpenAI) }

// openAIPipeline talks to a running OpenAI-compatible completion server
// (llama.cpp server, vLLM, TGI). The model reference is sent as the "model"
// field; the server owns weights and tokenizer.
type openAIPipeline struct {
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

// openAICompletionRequest represents the payload for /v1/completions.
type openAICompletionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	TopK        int     `json:"top_k,omitempty"`
	Seed        int     `json:"seed"`
	Stream      bool    `json:"stream"`
}

type openAICompletionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func openOpenAI(ctx context.Context, src Source, opts Options) (Pipeline, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.ServerURL), "/")
	if base == "" {
		return nil, errors.New("openai backend requires a server url")
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   openAIConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every call carries its own context deadline.
	p := &openAIPipeline{
		baseURL:    base,
		apiKey:     opts.ServerAPIKey,
		model:      src.Ref,
		reqTimeout: opts.RequestTimeout,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
	if err := p.probe(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// probe checks that the server answers /v1/models.
func (p *openAIPipeline) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, openAIProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	p.authorize(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ErrDependencyUnavailable("completion server unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("completion server probe: %s", resp.Status)
	}
	return nil
}

func (p *openAIPipeline) Run(ctx context.Context, prompt string, params Params) (string, error) {
	if p.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.reqTimeout)
		defer cancel()
	}
	payload := openAICompletionRequest{
		Model:       p.model,
		Prompt:      prompt,
		MaxTokens:   params.MaxNewTokens,
		Temperature: 1.0,
		TopP:        1.0,
		TopK:        50,
		Seed:        params.Seed,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion server http error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	var out openAICompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion server returned no choices")
	}
	return out.Choices[0].Text, nil
}

func (p *openAIPipeline) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

func (p *openAIPipeline) Close() error {
	if tr, ok := p.httpClient.Transport.(*http.Transport); ok {
		tr.CloseIdleConnections()
	}
	return nil
}
