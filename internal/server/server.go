// Package server provides the development HTTP server for the generated site.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/baseballyama/blog/internal/config"
)

const notFoundBody = "Not Found"

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".svg":  "image/svg+xml",
}

// Server serves the files of the output directory over HTTP.
type Server struct {
	mux        *http.ServeMux
	httpServer *http.Server
	logger     *slog.Logger
	root       string
	cfg        config.Config
}

// New constructs a server for cfg.OutputDir. Call Start to begin listening.
func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger.With("component", "http"),
		root:   cfg.OutputDir,
		cfg:    cfg,
	}
	s.mux.HandleFunc("/", s.handleFile)
	return s
}

// ServeHTTP makes Server an http.Handler; middleware is applied by Start.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ContentType returns the response type for a file name by extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// resolve maps a URL path onto a file under the output directory.
// "/" selects index.html and extensionless paths get ".html" appended.
func (s *Server) resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		clean = "/index.html"
	}
	if path.Ext(clean) == "" {
		clean += ".html"
	}
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	file := s.resolve(r.URL.Path)
	data, err := os.ReadFile(file) //nolint:gosec // path is cleaned and rooted at the output directory
	if err != nil {
		s.logger.Debug("file not found", slog.String("path", r.URL.Path), slog.Any("err", err))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
		return
	}
	w.Header().Set("Content-Type", ContentType(file))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write response failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	}
}

// Start listens on the configured port (a free port when it is 0) and blocks
// until ctx is canceled or the server fails. Cancellation shuts the server
// down gracefully and returns ctx.Err().
func (s *Server) Start(ctx context.Context) error {
	handler := chain(s.mux,
		recoveryMiddleware,
		loggingMiddleware(s.logger, s.cfg.Verbose),
	)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		_ = listener.Close()
		return errors.New("unexpected listener address type")
	}
	serverURL := fmt.Sprintf("http://localhost:%d", tcpAddr.Port)

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if _, err := fmt.Fprintf(os.Stdout, "Server running at %s\n", serverURL); err != nil {
			s.logger.Warn("failed to announce server address", slog.String("url", serverURL), slog.Any("err", err))
		}
		errCh <- s.httpServer.Serve(listener)
	}()
	s.logger.Debug("serving output directory", slog.String("dir", s.root), slog.String("url", serverURL))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.ErrorContext(ctx, "graceful shutdown failed", slog.Any("err", err))
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server with the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
