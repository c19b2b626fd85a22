// Package server exposes assets, health and metrics over HTTP
package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/critter/asset"
	"github.com/lixenwraith/critter/status"
)

// Options selects the routes to mount; nil fields disable their route
type Options struct {
	// Assets is served under /assets/
	Assets asset.Source
	// Gatherer backs /metrics
	Gatherer prometheus.Gatherer
	// Status is dumped as JSON on /status
	Status *status.Registry
	// Health reports readiness on /healthz, nil means always healthy
	Health func() error
	Logger *slog.Logger
}

// NewHandler builds the router
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "err": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	if opts.Status != nil {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, opts.Status.Snapshot())
		})
	}

	if opts.Assets != nil {
		r.Get("/assets/*", assetHandler(opts.Assets, logger))
	}
	return r
}

func assetHandler(src asset.Source, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := asset.CleanPath(chi.URLParam(r, "*"))
		if name == "." {
			http.NotFound(w, r)
			return
		}
		rc, err := src.Open(r.Context(), name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Debug("asset open failed", "path", name, "error", err)
			}
			http.NotFound(w, r)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			w.Header().Set("Content-Type", "application/yaml")
		}
		if _, err := io.Copy(w, rc); err != nil {
			logger.Debug("asset write failed", "path", name, "error", err)
		}
	}
}

func requestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "bytes", ww.BytesWritten())
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
