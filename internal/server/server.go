// Package server exposes the site content over HTTP.
//
// The live content is an immutable snapshot swapped atomically by Reload, so
// handlers never see a half-built site.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dotcommander/sitecms/internal/content"
	"github.com/dotcommander/sitecms/internal/manifest"
)

const (
	defaultAddr     = ":8080"
	defaultLongPoll = 25 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Loader produces a fresh Site. *content.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context) (*content.Site, error)
}

// Options configures a Server.
type Options struct {
	Addr string
	// Root is the site directory; /content and /data are served from it.
	Root   string
	Logger zerolog.Logger
	// Registry receives the server metrics. A private registry with the Go
	// and process collectors is created when nil.
	Registry *prometheus.Registry
	// LongPoll bounds how long /api/version waits for a change.
	LongPoll time.Duration
}

// snapshot is one loaded version of the site.
type snapshot struct {
	site     *content.Site
	manifest *manifest.Manifest
	body     []byte
	etag     string
	// changed is closed when a newer snapshot replaces this one.
	changed chan struct{}
}

// Server serves the content API.
type Server struct {
	loader   Loader
	renderer manifest.Renderer
	opts     Options
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
	handler  http.Handler
}

// New creates a Server. Nothing is loaded until Reload is called.
func New(loader Loader, renderer manifest.Renderer, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	if opts.LongPoll <= 0 {
		opts.LongPoll = defaultLongPoll
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s := &Server{
		loader:   loader,
		renderer: renderer,
		opts:     opts,
		log:      opts.Logger,
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/content", s.handleContent)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/pages/{slug}", s.handlePage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	files := http.FileServer(http.Dir(s.opts.Root))
	mux.Handle("GET /content/", files)
	mux.Handle("GET /data/", files)

	return s.instrument(mux)
}

// Handler returns the instrumented route handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Version returns the live content version, or "" before the first load.
func (s *Server) Version() string {
	if snap := s.current.Load(); snap != nil {
		return snap.site.Version
	}
	return ""
}

// Reload loads the site and swaps it in when its version differs from the
// live one. On error the live snapshot is kept.
func (s *Server) Reload(ctx context.Context) (bool, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	site, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("load content: %w", err)
	}

	prev := s.current.Load()
	if prev != nil && prev.site.Version == site.Version {
		s.metrics.reloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	m, err := manifest.Build(site, s.renderer)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return false, err
	}
	body, err := m.JSON()
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return false, err
	}

	next := &snapshot{
		site:     site,
		manifest: m,
		body:     body,
		etag:     `"` + site.Version + `"`,
		changed:  make(chan struct{}),
	}
	s.current.Store(next)
	if prev != nil {
		close(prev.changed)
	}

	s.metrics.reloads.WithLabelValues("changed").Inc()
	s.metrics.documents.Set(float64(site.Files))
	s.log.Info().
		Str("version", site.Version).
		Int("files", site.Files).
		Msg("content swapped")
	return true, nil
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Leaves room for a full long-poll.
		WriteTimeout: s.opts.LongPoll + 30*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "content not loaded")
		return
	}

	w.Header().Set("ETag", snap.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), snap.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(snap.body)
}

type versionResponse struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
}

// handleVersion answers immediately unless ?since= names the live version,
// in which case it waits for a change, the long-poll limit, or the client.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "content not loaded")
		return
	}

	if since := r.URL.Query().Get("since"); since != "" && since == snap.site.Version {
		timer := time.NewTimer(s.opts.LongPoll)
		defer timer.Stop()
		select {
		case <-snap.changed:
			snap = s.current.Load()
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, versionResponse{
		Version:  snap.site.Version,
		LoadedAt: snap.site.LoadedAt.UTC(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "content not loaded")
		return
	}

	slug := r.PathValue("slug")
	page, ok := snap.manifest.Pages[slug]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("page %q not found", slug))
		return
	}
	w.Header().Set("ETag", snap.etag)
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Version(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// etagMatches implements the weak comparison of an If-None-Match header.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
