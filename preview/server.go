// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package preview serves generated map artifacts for local inspection.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/talkmap/render"
)

// ErrNoMap is returned when the directory has no rendered map.
var ErrNoMap = errors.New("no rendered map found")

const shutdownTimeout = 5 * time.Second

// Server exposes an output directory over HTTP.
type Server struct {
	dir    string
	logger *slog.Logger
}

// NewServer creates a Server for dir. The directory must contain a rendered
// map.
func NewServer(dir string, logger *slog.Logger) (*Server, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(abs, render.MapFile)); err != nil {
		return nil, fmt.Errorf("%w in %s: %w", ErrNoMap, abs, err)
	}

	return &Server{dir: abs, logger: logger}, nil
}

// Dir returns the directory being served.
func (s *Server) Dir() string {
	return s.dir
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)

	r.GET("/", func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, "/"+render.MapFile)
	})
	r.GET("/api/clusters", s.clusters)
	r.StaticFile("/"+render.MapFile, filepath.Join(s.dir, render.MapFile))
	r.StaticFile("/"+render.LocationsFile, filepath.Join(s.dir, render.LocationsFile))
	r.StaticFile("/"+render.ClustersFile, filepath.Join(s.dir, render.ClustersFile))

	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	return nil
}

func (s *Server) clusters(ctx *gin.Context) {
	path := filepath.Join(s.dir, render.ClustersFile)
	if _, err := os.Stat(path); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "clusters not rendered"})

		return
	}

	ctx.Header("Cache-Control", "no-cache")
	ctx.File(path)
}

func (s *Server) accessLog(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()

	s.logger.Debug("Served request",
		"method", ctx.Request.Method,
		"path", ctx.Request.URL.Path,
		"status", ctx.Writer.Status(),
		"duration", time.Since(start))
}
