package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/johanstenius/mocktail-sub000/pkg/logging"
	"github.com/johanstenius/mocktail-sub000/pkg/ratelimit"
)

// maxBodyBytes bounds how much of a request body is read and parsed.
const maxBodyBytes = 1 << 20

// Server exposes the engine over HTTP. Mock traffic is served under
// /{projectID}/..., with health probes under the reserved /__mocktail
// prefix.
type Server struct {
	engine  *Engine
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	http    *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLimiter enables per-project quota enforcement.
func WithLimiter(l *ratelimit.Limiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithLogger sets the server's structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeouts sets the listener's read and write timeouts.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.http.ReadTimeout = read
		s.http.WriteTimeout = write
	}
}

// NewServer creates a server listening on addr once started.
func NewServer(addr string, engine *Engine, opts ...ServerOption) *Server {
	s := &Server{
		engine: engine,
		logger: logging.Nop(),
		http:   &http.Server{Addr: addr},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.http.Handler = s.Router()
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/__mocktail/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/__mocktail/ready", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/{projectID}", s.handleMock)
	r.HandleFunc("/{projectID}/{path:.*}", s.handleMock)
	return r
}

// Run starts the listener and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	projectID := vars["projectID"]

	if s.limiter != nil && !s.limiter.Allow(projectID) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":   "quota_exceeded",
			"message": "project request quota exceeded",
		})
		return
	}

	req := &Request{
		ProjectID: projectID,
		Method:    r.Method,
		Path:      trimTrailingSlash("/" + vars["path"]),
		Query:     r.URL.Query(),
		Headers:   flattenHeaders(r.Header),
	}
	if host := r.Host; host != "" {
		req.Headers["Host"] = host
	}

	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil && len(raw) > 0 {
			req.RawBody = string(raw)
			var parsed any
			if json.Unmarshal(raw, &parsed) == nil {
				req.Body = parsed
			}
		}
	}

	res := s.engine.Serve(r.Context(), req)
	writeResult(w, res)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

// writeResult writes a pipeline result, honoring variant headers and
// encoding structured bodies as JSON.
func writeResult(w http.ResponseWriter, res Result) {
	for key, value := range res.Headers {
		w.Header().Set(key, value)
	}

	if res.Body == nil {
		w.WriteHeader(res.Status)
		return
	}

	if s, ok := res.Body.(string); ok {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(res.Status)
		_, _ = io.WriteString(w, s)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(res.Status)
	_ = json.NewEncoder(w).Encode(res.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// trimTrailingSlash normalizes mock paths so /pets/ and /pets are the same
// request path. The matcher already ignores empty segments; this keeps the
// logged path tidy.
func trimTrailingSlash(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimRight(p, "/")
	}
	return p
}
