// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/engine"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/logger"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/metrics"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/report"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// MaxArchiveSize bounds the body of an analyze request.
const MaxArchiveSize = 8 << 20

// Server serves analyze requests with one shared engine.
type Server struct {
	engine  *engine.Engine
	opts    engine.Options
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a new server. m must not be nil.
func New(e *engine.Engine, opts engine.Options, m *metrics.Metrics) *Server {
	e.Metrics = m
	return &Server{engine: e, opts: opts, metrics: m, timeout: time.Minute}
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.rules)
		r.With(maxBodySize(MaxArchiveSize)).Post("/analyze", s.analyze)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.From(ctx).Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) rules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog.Sorted())
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large",
				fmt.Sprintf("archive too large (max %d bytes)", MaxArchiveSize))
			return
		}
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "archive"
	}
	in, err := unit.LoadArchive(name, data)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !in.HasMetadata {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "archive has no metadata.json member")
		return
	}
	if in.Metadata.UUID != "" {
		in.Name = in.Metadata.UUID
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rep := s.engine.Run(ctx, []unit.Input{in}, s.opts)
	logger.From(ctx).Debug("analyzed archive",
		slog.String("unit", in.Name),
		slog.String("verdict", string(rep.Verdict)),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	status := http.StatusOK
	if rep.Verdict == report.Incomplete {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := report.WriteJSON(w, rep); err != nil {
		logger.From(ctx).Error("write report", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problem is an RFC 7807 error body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}
