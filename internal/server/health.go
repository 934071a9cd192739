// Package server runs the HTTP health endpoint next to the bot.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Health serves /healthz. It answers 503 until the bot reports ready.
type Health struct {
	srv   *http.Server
	ready atomic.Bool
	log   *zap.Logger
}

// NewHealth creates a health server on port.
func NewHealth(port int, log *zap.Logger) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Health{log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.serveHealth)

	h.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}
	return h
}

// SetReady marks the bot connected or disconnected.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (h *Health) ListenAndServe() error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.srv.Addr, err)
	}
	h.log.Info("health server listening", zap.String("addr", ln.Addr().String()))

	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve health: %w", err)
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (h *Health) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

func (h *Health) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("starting"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
