package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"textgend/internal/logx"
)

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff
	case "error":
		return LevelError
	case "info", "":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// defaultLogLevel follows the process-wide zerolog level.
func defaultLogLevel() LogLevel {
	switch lvl := zerolog.GlobalLevel(); {
	case lvl <= zerolog.DebugLevel:
		return LevelDebug
	case lvl <= zerolog.InfoLevel:
		return LevelInfo
	case lvl <= zerolog.ErrorLevel:
		return LevelError
	default:
		return LevelOff
	}
}

// requestLogLevel honors an X-Log-Level header override.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel()
}

// requestLogger logs one line per request. The URL (and with it the prompt)
// is only logged at debug; info lines carry the route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var ev *zerolog.Event
		switch {
		case lvl >= LevelDebug:
			ev = logx.Log.Debug().Str("url", r.URL.String())
		case lvl >= LevelInfo:
			ev = logx.Log.Info()
		case lvl >= LevelError && status >= 500:
			ev = logx.Log.Error()
		default:
			return
		}
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
		ev.Str("method", r.Method).
			Str("route", routePatternOrPath(r)).
			Int("status", status).
			Dur("dur", time.Since(start)).
			Msg("http")
	})
}
