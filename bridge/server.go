package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roessland/fitbridge/plugin"
)

// Plugin is a bridge plugin exposing named methods
type Plugin interface {
	Method(name string) (func(plugin.Call), bool)
}

// Logger interface abstracts logging for testing
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Envelope is the reply to a bridge call
type Envelope struct {
	CallbackID string          `json:"callbackId"`
	Success    bool            `json:"success"`
	Data       plugin.JSObject `json:"data,omitempty"`
	Error      *CallError      `json:"error,omitempty"`
}

// CallError describes why a call was rejected
type CallError struct {
	Message string `json:"message"`
}

// Server exposes a plugin over HTTP at /plugins/{name}/{method}
type Server struct {
	name   string
	plugin Plugin
	logger Logger
	mux    *http.ServeMux
}

// NewServer creates a bridge server for p registered under name
func NewServer(name string, p Plugin, logger Logger) *Server {
	s := &Server{
		name:   name,
		plugin: p,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc(s.prefix(), s.handleCall)
	s.mux.HandleFunc("/healthz", healthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) prefix() string {
	return "/plugins/" + s.name + "/"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("bridge listening", "addr", addr, "plugin", s.name)

	select {
	case err := <-errCh:
		return fmt.Errorf("bridge server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down bridge server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge server failed: %w", err)
	}
	return nil
}

// healthz reports a simple OK status for health checks
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, s.prefix())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeRejection(w, http.StatusMethodNotAllowed, uuid.NewString(), "unsupported method")
		return
	}

	fn, ok := s.plugin.Method(method)
	if !ok {
		writeRejection(w, http.StatusNotFound, uuid.NewString(), fmt.Sprintf("%s does not implement %q", s.name, method))
		return
	}

	options, err := decodeOptions(r.Body)
	if err != nil {
		writeRejection(w, http.StatusBadRequest, uuid.NewString(), "unable to parse call options")
		return
	}

	call := NewPluginCall(r.Context(), method, options)
	s.logger.Debug("invoking plugin method", "method", method, "callback_id", call.ID())

	start := time.Now()
	pendingGauge.Inc()
	fn(call)
	outcome, err := call.Wait(r.Context())
	pendingGauge.Dec()
	callDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		callsCounter.WithLabelValues(method, outcomeAbandoned).Inc()
		s.logger.Warn("caller went away before call settled", "method", method, "callback_id", call.ID(), "error", err)
		return
	}

	if outcome.Rejected {
		callsCounter.WithLabelValues(method, outcomeRejected).Inc()
		s.logger.Info("call rejected", "method", method, "callback_id", call.ID(), "message", outcome.Message)
		writeRejection(w, http.StatusOK, call.ID(), outcome.Message)
		return
	}

	callsCounter.WithLabelValues(method, outcomeResolved).Inc()
	s.logger.Debug("call resolved", "method", method, "callback_id", call.ID())
	writeJSON(w, http.StatusOK, Envelope{CallbackID: call.ID(), Success: true, Data: outcome.Data})
}

// decodeOptions reads the call options object. An empty body means no options.
func decodeOptions(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var options map[string]any
	if err := dec.Decode(&options); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return options, nil
}

func writeRejection(w http.ResponseWriter, status int, callbackID, msg string) {
	writeJSON(w, status, Envelope{
		CallbackID: callbackID,
		Success:    false,
		Error:      &CallError{Message: msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
