// Package server exposes a hierarchy controller over HTTP. POST /saveData
// accepts a whole tree the way browser clients have always posted it; the
// /api routes drive the controller one command at a time.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/model"
)

// DefaultMaxBody caps request bodies.
const DefaultMaxBody = 1 << 20

const shutdownTimeout = 5 * time.Second

// Responses of POST /saveData.
const (
	msgSaved     = "Data saved successfully"
	msgSaveError = "Error saving data"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. A nil logger silences logging.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxBody overrides DefaultMaxBody.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server serializes HTTP requests onto one controller.
type Server struct {
	mu      sync.Mutex
	ctrl    *hierarchy.Controller
	logger  *log.Logger
	maxBody int64
	mux     *http.ServeMux
}

// New creates a server for ctrl. The controller should be built with a zero
// transition duration: nothing advances animations here, and clients
// animate from PreviousPosition themselves.
func New(ctrl *hierarchy.Controller, opts ...Option) *Server {
	s := &Server{
		ctrl:    ctrl,
		logger:  log.Default(),
		maxBody: DefaultMaxBody,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("POST /saveData", s.handleSaveData)
	s.mux.HandleFunc("GET /api/tree", s.handleTree)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("POST /api/nodes/{id}/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /api/nodes/{id}/children", s.handleInsert)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logf("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.logf("saveData: read body: %v", err)
		http.Error(w, msgSaveError, http.StatusBadRequest)
		return
	}
	root, err := model.Unmarshal(body)
	if err != nil {
		s.logf("saveData: %v", err)
		http.Error(w, msgSaveError, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.ctrl.Replace(r.Context(), root)
	s.mu.Unlock()
	if err != nil {
		s.logf("saveData: %v", err)
		http.Error(w, msgSaveError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, msgSaved)
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data, err := model.Marshal(s.ctrl.Root())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// layoutResponse is the body of GET /api/layout and of successful commands.
type layoutResponse struct {
	Source string                 `json:"source,omitempty"`
	Nodes  []hierarchy.LayoutNode `json:"nodes"`
	Links  []hierarchy.LinkEdge   `json:"links"`
	Error  string                 `json:"error,omitempty"`
}

func (s *Server) snapshot() layoutResponse {
	nodes, links := s.ctrl.Layout()
	if links == nil {
		links = []hierarchy.LinkEdge{}
	}
	return layoutResponse{Source: s.ctrl.Source(), Nodes: nodes, Links: links}
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	err := s.ctrl.Toggle(r.Context(), id)
	resp := s.snapshot()
	s.mu.Unlock()

	s.writeResult(w, http.StatusOK, resp, err)
}

type insertRequest struct {
	Name string `json:"name"`
}

type insertResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	child, err := s.ctrl.InsertChild(r.Context(), r.PathValue("id"), req.Name)
	s.mu.Unlock()

	if child == nil {
		s.writeError(w, err)
		return
	}
	s.writeResult(w, http.StatusCreated, insertResponse{ID: child.ID, Name: child.Name}, err)
}

// writeResult reports a command outcome. A persistence failure leaves the
// change applied in memory, so the body still describes it.
func (s *Server) writeResult(w http.ResponseWriter, status int, body any, err error) {
	if err == nil {
		writeJSON(w, status, body)
		return
	}
	if !errors.Is(err, hierarchy.ErrPersistence) {
		s.writeError(w, err)
		return
	}
	s.logf("%v", err)
	switch b := body.(type) {
	case layoutResponse:
		b.Error = err.Error()
		body = b
	case insertResponse:
		b.Error = err.Error()
		body = b
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hierarchy.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, hierarchy.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		s.logf("%v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logf("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
