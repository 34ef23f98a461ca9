// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"

	"github.com/oroclass/spotctl/internal/catalog"
	"github.com/oroclass/spotctl/internal/pricing"
	"github.com/oroclass/spotctl/internal/quote"
	"github.com/oroclass/spotctl/internal/upload"
)

const (
	DefaultAddr              = ":8080"
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Config holds the listener and access settings.
type Config struct {
	Addr              string
	CORSOrigin        string
	AdminEmail        string
	AdminHash         []byte
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server exposes the price proxy, the calculator and the catalog over HTTP.
type Server struct {
	cfg     Config
	quotes  *quote.Service
	catalog *catalog.Store
	uploads *upload.Store
	calc    pricing.Calculator
	handler http.Handler
}

func New(cfg Config, quotes *quote.Service, cat *catalog.Store, uploads *upload.Store, calc pricing.Calculator) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		quotes:  quotes,
		catalog: cat,
		uploads: uploads,
		calc:    calc,
	}
	s.handler = logRequests(s.routes())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("OPTIONS /api/", s.cors(s.handlePreflight))
	mux.HandleFunc("GET /api/metals", s.cors(s.handleMetals))
	mux.HandleFunc("GET /api/prices", s.cors(s.handlePrices))
	mux.HandleFunc("GET /api/calc", s.cors(s.handleCalc))
	mux.HandleFunc("GET /api/items", s.cors(s.handleItems))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(s.uploads.Dir())))))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /admin/api/items", s.requireAdmin(s.handleAdminList))
	mux.HandleFunc("POST /admin/api/items", s.requireAdmin(s.handleAdminAdd))
	mux.HandleFunc("POST /admin/api/items/{id}", s.requireAdmin(s.handleAdminUpdate))
	mux.HandleFunc("DELETE /admin/api/items/{id}", s.requireAdmin(s.handleAdminDelete))
	mux.HandleFunc("POST /admin/api/items/{id}/toggle-sold", s.requireAdmin(s.handleAdminToggle))

	return mux
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	if len(s.cfg.AdminHash) == 0 {
		log.Warn("no admin password hash configured, admin API disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
