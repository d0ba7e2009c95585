package api

import (
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/json"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
)

func (app *Application) rateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allow, retryAfter := app.ratelimiter.Allow(app.rateLimitKey(r)); !allow {
			app.logger.Warn(logging.RequestResponse, logging.RateLimiting, "handshake rate limited", map[logging.ExtraKey]any{
				logging.ClientIp: r.RemoteAddr,
				logging.Path:     r.URL.Path,
			})
			json.WriteRateLimitError(w, int(math.Ceil(retryAfter.Seconds())))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) rateLimitKey(r *http.Request) string {
	if key := app.config.RateLimiter.SourceHeaderKey; key != "" {
		// a forwarded chain keys on the client end
		if v, _, _ := strings.Cut(r.Header.Get(key), ","); strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (app *Application) enableCors(next http.Handler) http.Handler {
	allowAll := false
	origins := make(map[string]struct{}, len(app.config.HTTP.AllowedOrigins))
	for _, origin := range app.config.HTTP.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}

	headers := "Content-Type, Authorization"
	if len(app.config.HTTP.AllowedHeaders) > 0 {
		headers = strings.Join(app.config.HTTP.AllowedHeaders, ", ")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := origins[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", headers)

		// allow preflight requests from the browser API
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		app.logger.Info(logging.RequestResponse, logging.ExternalService, "request", map[logging.ExtraKey]any{
			logging.Method:     r.Method,
			logging.Path:       r.URL.Path,
			logging.StatusCode: ww.Status(),
			logging.BodySize:   ww.BytesWritten(),
			logging.Latency:    time.Since(start).String(),
			logging.ClientIp:   r.RemoteAddr,
		})
	})
}
