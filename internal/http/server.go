// Package http exposes the wallet's JSON API. Handlers translate HTTP
// requests into Ledger Store operations and render the returned state;
// they never touch the document directly.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/ledger"
)

type Server struct {
	http.Server
	store *ledger.Store
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store *ledger.Store) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store: store,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/view", s.withRequestLog(s.handleView))
	mux.HandleFunc("POST /api/transactions", s.withRequestLog(s.handleAddTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequestLog(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/categories", s.withRequestLog(s.handleAddCategory))
	mux.HandleFunc("POST /api/categories/rename", s.withRequestLog(s.handleRenameCategory))
	mux.HandleFunc("PUT /api/filter", s.withRequestLog(s.handleSetFilter))
	mux.HandleFunc("PUT /api/month", s.withRequestLog(s.handleSetMonth))
	mux.HandleFunc("POST /api/month/shift", s.withRequestLog(s.handleShiftMonth))
	mux.HandleFunc("GET /api/export", s.withRequestLog(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withRequestLog(s.handleImport))
	mux.HandleFunc("POST /api/reset", s.withRequestLog(s.handleReset))

	return s
}

// withRequestLog adds security headers, a request ID and request/response
// logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Capture the status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
