//
// server.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	poddirapi "gitlab.com/kabes/go-poddir/internal/api"
	"gitlab.com/kabes/go-poddir/internal/config"
)

const (
	defaultReadTimeout    = 60 * time.Second
	defaultWriteTimeout   = 60 * time.Second
	defaultMaxHeaderBytes = 1 << 20
)

// Server is the public http server with directory and sync api routes.
type Server struct {
	router  chi.Router
	cfg     *config.ServerConf
	httpsrv *http.Server
}

func New(injector do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.ServerConf](injector)
	router := newRouter(injector, cfg)

	return &Server{
		router: router,
		cfg:    cfg,
		httpsrv: &http.Server{
			Addr:           cfg.MainServer.Address,
			Handler:        router,
			ReadTimeout:    defaultReadTimeout,
			WriteTimeout:   defaultWriteTimeout,
			MaxHeaderBytes: defaultMaxHeaderBytes,
		},
	}, nil
}

func newRouter(injector do.Injector, cfg *config.ServerConf) chi.Router {
	api := do.MustInvoke[poddirapi.API](injector)
	scfg := cfg.MainServer

	router := chi.NewRouter()
	router.Use(middleware.Heartbeat(scfg.WebRoot+"/ping"), middleware.RealIP)

	router.Group(func(group chi.Router) {
		group.Use(hlog.RequestIDHandler("req_id", "Request-Id"))

		if cfg.DebugFlags.HasFlag(config.DebugFlightRecorder) {
			group.Use(newFRMiddleware())
		}

		if cfg.DebugFlags.HasFlag(config.DebugTrace) {
			group.Use(newTracingMiddleware(cfg))
		}

		group.Use(newLogMiddleware(cfg), newRecoverMiddleware, middleware.CleanPath)
		group.With(newPromMiddleware("api", nil), middleware.NoCache).
			Mount(scfg.WebRoot+"/", api.Routes())
	})

	// mgmt endpoints may share main server address
	if cfg.MgmtEnabledOnMainServer() {
		createMgmtRouters(injector, router, cfg, scfg)
	}

	return router
}

func (s *Server) Start(ctx context.Context) error {
	if s.cfg.DebugFlags.HasFlag(config.DebugRouter) {
		logRoutes(ctx, "Server", s.router)
	}

	if s.cfg.MgmtEnabledOnMainServer() {
		log.Logger.Warn().Msg("Server: management endpoints enabled on main server")
	}

	scfg := s.cfg.MainServer

	listener, err := newListener(ctx, scfg)
	if err != nil {
		return aerr.Wrapf(err, "start listen error")
	}

	log.Logger.Log().Msgf("Server: listen on address=%s https=%v webroot=%q",
		scfg.Address, scfg.TLSEnabled(), scfg.WebRoot)

	go s.serve(listener)

	return nil
}

func (s *Server) serve(listener net.Listener) {
	err := s.httpsrv.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Logger.Log().Err(err).Msgf("Server: serve error: %s", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Ctx(ctx).Debug().Msg("Server: stopping...")

	if err := s.httpsrv.Shutdown(ctx); err != nil {
		return aerr.Wrapf(err, "shutdown server failed")
	}

	log.Ctx(ctx).Debug().Msg("Server: stopped")

	return nil
}

//-------------------------------------------------------------

func logRoutes(ctx context.Context, name string, r chi.Routes) {
	logger := log.Ctx(ctx)

	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Debug().Msgf("%s: ROUTE: %s %s", name, method, strings.ReplaceAll(route, "/*/", "/"))

		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msgf("%s: routers walk error: %s", name, err)
	}
}

// newListener create plain or tls listener according to configuration.
func newListener(ctx context.Context, scfg config.ListenConf) (net.Listener, error) {
	if scfg.TLSEnabled() {
		return newTLSListener(scfg)
	}

	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", scfg.Address)
	if err != nil {
		return nil, aerr.Wrapf(err, "listen failed").WithMeta("address", scfg.Address)
	}

	return listener, nil
}

func newTLSListener(scfg config.ListenConf) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(scfg.TLSCert, scfg.TLSKey)
	if err != nil {
		return nil, aerr.Wrapf(err, "load certificates failed").
			WithMeta("cert", scfg.TLSCert, "key", scfg.TLSKey)
	}

	tlscfg := tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	listener, err := tls.Listen("tcp", scfg.Address, &tlscfg)
	if err != nil {
		return nil, aerr.Wrapf(err, "tls listen failed").WithMeta("address", scfg.Address)
	}

	return listener, nil
}
