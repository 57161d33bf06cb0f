package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/captiongenius/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// uploadOverhead is the multipart framing allowance on top of the image cap.
const uploadOverhead = 1 << 20

// NewServer creates and configures the HTTP server for the CaptionGenius web UI.
func NewServer(ctrl *ops.Controller, logger *slog.Logger, version, bind string, port int) (*http.Server, error) {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		ctrl:     ctrl,
		renderer: NewRenderer(templateSub, version, logger),
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleStudio)
	mux.HandleFunc("GET /state", h.HandleState)

	mux.HandleFunc("GET /image", h.HandleImage)
	mux.HandleFunc("POST /image", h.HandleSetImage)
	mux.HandleFunc("POST /image/clear", h.HandleClearImage)
	mux.HandleFunc("POST /settings", h.HandleSettings)

	mux.HandleFunc("POST /generate", h.HandleGenerate)
	mux.HandleFunc("POST /regenerate", h.HandleRegenerate)

	mux.HandleFunc("POST /captions/{id}/edit", h.HandleEdit)
	mux.HandleFunc("POST /captions/{id}/text", h.HandleCaptionText)
	mux.HandleFunc("POST /captions/{id}/favorite", h.HandleSaveFavorite)

	mux.HandleFunc("GET /library", h.HandleLibrary)
	mux.HandleFunc("GET /history/{id}/image", h.HandleHistoryImage)
	mux.HandleFunc("POST /history/{id}/restore", h.HandleRestore)
	mux.HandleFunc("POST /history/clear", h.HandleClearHistory)

	mux.HandleFunc("GET /favorites/{id}/download", h.HandleDownloadFavorite)
	mux.HandleFunc("DELETE /favorites/{id}", h.HandleRemoveFavorite)
	// HTML forms cannot send DELETE
	mux.HandleFunc("POST /favorites/{id}/remove", h.HandleRemoveFavorite)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data: blob:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("CaptionGenius UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
