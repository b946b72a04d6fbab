package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"textgend/internal/generator"
	"textgend/internal/logx"
	"textgend/internal/service"
	"textgend/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, req service.GenerationRequest) (service.GenerationResult, error)
	Status(ctx context.Context) types.StatusResponse
	Ready() bool
}

// GenerationIDHeader carries the id of a successful generation.
const GenerationIDHeader = "X-Generation-Id"

// NewMux returns the public router: a liveness root and one generation route
// keyed by the prompt path segment.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(corsOptions()))
	}
	r.Use(requestLogger)
	r.Use(MetricsMiddleware)

	h := &handlers{svc: svc}
	r.Get("/", h.health)
	r.Get("/{prompt}", h.generate)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func corsOptions() cors.Options {
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{GenerationIDHeader, middleware.RequestIDHeader},
	}
}

type handlers struct {
	svc Service
}

// health godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Router		/ [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Health: "ok"})
}

// generate godoc
//
//	@Summary		Generate text continuations
//	@Description	Continues the prompt given as the path segment. Each returned sequence is the prompt followed by its continuation.
//	@Tags			generate
//	@Produce		json
//	@Param			prompt					path		string	true	"Prompt text (URL-encoded)"
//	@Param			max_new_tokens			query		int		false	"Maximum generated tokens per sequence"	default(50)
//	@Param			num_return_sequences	query		int		false	"Number of independent sequences"		default(1)
//	@Success		200						{object}	types.GenerateResponse
//	@Failure		422						{object}	types.ErrorResponse
//	@Failure		500						{object}	types.ErrorResponse
//	@Failure		503						{object}	types.ErrorResponse
//	@Router			/{prompt} [get]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	prompt := promptParam(r)
	q := r.URL.Query()
	maxNew, err := queryInt(q, "max_new_tokens", generator.DefaultMaxNewTokens)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	numSeq, err := queryInt(q, "num_return_sequences", generator.DefaultNumReturnSequences)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}

	ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
	defer cancel()
	if d := generateTimeoutDuration(); d > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, d)
		defer cancelTimeout()
	}

	res, err := h.svc.Generate(ctx, service.GenerationRequest{
		Prompt:             prompt,
		MaxNewTokens:       maxNew,
		NumReturnSequences: numSeq,
	})
	if err != nil {
		// If the client went away there is nobody to answer.
		if r.Context().Err() != nil {
			return
		}
		status := statusFor(err)
		switch {
		case shuttingDown(ctx):
			status = http.StatusServiceUnavailable
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		if status >= http.StatusInternalServerError {
			logx.Log.Error().Err(err).Int("status", status).Str("request_id", middleware.GetReqID(r.Context())).Msg("generate failed")
		}
		writeJSONError(w, status, err.Error())
		return
	}
	w.Header().Set(GenerationIDHeader, res.ID)
	writeJSON(w, http.StatusOK, types.GenerateResponse{GeneratedSequences: res.Sequences})
}

// promptParam returns the decoded prompt segment. chi routes on RawPath when
// the request carries one (e.g. an encoded slash), leaving the param escaped.
// Invalid UTF-8 becomes U+FFFD so the echoed prompt matches the JSON body.
func promptParam(r *http.Request) string {
	p := chi.URLParam(r, "prompt")
	if r.URL.RawPath != "" {
		if dec, err := url.PathUnescape(p); err == nil {
			p = dec
		}
	}
	return strings.ToValidUTF8(p, "\uFFFD")
}

// queryInt parses an optional integer query parameter; range checks are left
// to the service.
func queryInt(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &generator.InvalidParameterError{Name: name, Value: v, Reason: "must be an integer"}
	}
	return n, nil
}
