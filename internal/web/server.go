// Package web serves the browser UI: the entry form, the contact table and
// a small JSON API.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Rolodex web UI.
func NewServer(s *store.Store, tree *category.Tree, logger *zap.Logger, version, bind string, port int) (*http.Server, error) {
	handler, err := newHandler(s, tree, logger, version)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// newHandler builds the routed, header-wrapped handler.
func newHandler(s *store.Store, tree *category.Tree, logger *zap.Logger, version string) (http.Handler, error) {
	// Strip the directory prefixes from the embedded trees
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	renderer, err := NewRenderer(templateSub, version, logger)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		store:    s,
		tree:     tree,
		renderer: renderer,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/contacts", http.StatusFound)
	})
	mux.HandleFunc("GET /contacts", h.HandleList)
	mux.HandleFunc("POST /contacts", h.HandleSave)
	mux.HandleFunc("GET /contacts/{id}/edit", h.HandleEdit)
	mux.HandleFunc("POST /contacts/{id}/delete", h.HandleDelete)
	mux.HandleFunc("DELETE /contacts/{id}", h.HandleDelete)
	mux.HandleFunc("GET /api/contacts", h.HandleAPIList)
	mux.HandleFunc("GET /api/categories", h.HandleAPICategories)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux), nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *zap.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("rolodex UI running", zap.String("url", "http://"+srv.Addr))
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
