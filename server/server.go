// Package server exposes the rendered book and the chat assistant over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loomkit/loom/llm"
)

// maxChatBody caps the request body size for /chat.
const maxChatBody = 1 << 20

// Config configures the server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// BookDir serves the rendered book at / when non-empty.
	BookDir string

	// Assistant answers /chat requests.
	Assistant *llm.Assistant

	Logger *slog.Logger
}

// Server wires the HTTP handlers.
type Server struct {
	config  Config
	logger  *slog.Logger
	httpSrv *http.Server

	chatRequests *prometheus.CounterVec
	chatDuration prometheus.Histogram
}

// ChatRequest is the /chat request body.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	// File optionally names a document whose content scopes the
	// answer.
	File string `json:"file,omitempty"`
}

// ChatResponse is the /chat response body.
type ChatResponse struct {
	Response string `json:"response"`
}

// New creates a Server and registers its metrics. A nil registry uses
// the process default.
func New(config Config, reg *prometheus.Registry) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var factory promauto.Factory
	metricsHandler := promhttp.Handler()
	if reg != nil {
		factory = promauto.With(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	} else {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}
	s := &Server{
		config: config,
		logger: config.Logger,
		chatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_chat_requests_total",
			Help: "Chat requests by outcome.",
		}, []string{"status"}),
		chatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loom_chat_request_duration_seconds",
			Help:    "Chat request latency including model inference.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metricsHandler)
	if config.BookDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(config.BookDir)))
	}

	s.httpSrv = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.config.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.chatDuration.Observe(time.Since(start).Seconds()) }()

	if s.config.Assistant == nil {
		s.chatRequests.WithLabelValues("unavailable").Inc()
		http.Error(w, "chat not configured", http.StatusServiceUnavailable)
		return
	}

	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.chatRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		s.chatRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "no prompt provided", http.StatusBadRequest)
		return
	}

	s.logger.Info("processing chat request", "file", req.File, "prompt_len", len(req.Prompt))

	resp, err := s.config.Assistant.AskAboutFile(r.Context(), req.Prompt, req.File)
	if err != nil {
		s.chatRequests.WithLabelValues("error").Inc()
		s.logger.Error("chat request failed", "error", err)
		http.Error(w, "model request failed", http.StatusBadGateway)
		return
	}

	s.chatRequests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{Response: resp.Content})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
