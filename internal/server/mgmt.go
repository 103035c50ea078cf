//
// mgmt.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	dochi "github.com/samber/do/http/chi/v2"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
)

// MgmtServer expose health, metrics and debug endpoints; usually bound to
// separate, non public address.
type MgmtServer struct {
	router  chi.Router
	cfg     *config.ServerConf
	httpsrv *http.Server
}

func NewMgmt(injector do.Injector) (*MgmtServer, error) {
	cfg := do.MustInvoke[*config.ServerConf](injector)

	router := chi.NewRouter()
	router.Use(middleware.RealIP, middleware.Heartbeat(cfg.MgmtServer.WebRoot+"/ping"))

	createMgmtRouters(injector, router, cfg, cfg.MgmtServer)

	return &MgmtServer{
		router: router,
		cfg:    cfg,
		httpsrv: &http.Server{
			Addr:           cfg.MgmtServer.Address,
			Handler:        router,
			ReadTimeout:    defaultReadTimeout,
			WriteTimeout:   defaultWriteTimeout,
			MaxHeaderBytes: defaultMaxHeaderBytes,
		},
	}, nil
}

func (s *MgmtServer) Start(ctx context.Context) error {
	if s.cfg.DebugFlags.HasFlag(config.DebugRouter) {
		logRoutes(ctx, "MgmtServer", s.router)
	}

	scfg := s.cfg.MgmtServer

	listener, err := newListener(ctx, scfg)
	if err != nil {
		return aerr.Wrapf(err, "start mgmt listen error")
	}

	log.Logger.Log().
		Msgf("MgmtServer: listen on address=%s https=%v webroot=%q", scfg.Address, scfg.TLSEnabled(), scfg.WebRoot)

	go s.serve(listener)

	return nil
}

func (s *MgmtServer) serve(listener net.Listener) {
	err := s.httpsrv.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Logger.Log().Err(err).Msgf("MgmtServer: serve error: %s", err)
	}
}

func (s *MgmtServer) Shutdown(ctx context.Context) error {
	log.Ctx(ctx).Debug().Msg("MgmtServer: stopping...")

	if err := s.httpsrv.Shutdown(ctx); err != nil {
		return aerr.Wrapf(err, "shutdown mgmt server failed")
	}

	log.Ctx(ctx).Debug().Msg("MgmtServer: stopped")

	return nil
}

//-------------------------------------------------------------

// createMgmtRouters mount mgmt endpoints on given router; also used by main
// server when mgmt share its address. Debug endpoints are access-gated.
func createMgmtRouters(injector do.Injector, router *chi.Mux, cfg *config.ServerConf, scfg config.ListenConf) {
	webroot := scfg.WebRoot

	router.Get(webroot+"/health", newHealthChecker(injector, cfg))

	if cfg.EnableMetrics {
		router.Method(http.MethodGet, webroot+"/metrics", newMetricsHandler())
	}

	router.Group(func(group chi.Router) {
		group.Use(hlog.RequestIDHandler("req_id", "Request-Id"),
			newVerySimpleLogMiddleware("MgmtServer"), newRecoverMiddleware,
			middleware.CleanPath, newAuthMgmtMiddleware(cfg))

		if cfg.DebugFlags.HasFlag(config.DebugDo) {
			dochi.Use(group.(*chi.Mux), webroot+"/debug/do", injector)
		}

		if cfg.DebugFlags.HasFlag(config.DebugGo) {
			group.Mount(webroot+"/debug", middleware.Profiler())
		}

		if cfg.DebugFlags.HasFlag(config.DebugTrace) {
			mountXTrace(group, webroot)
		}
	})
}

//-------------------------------------------------------------

// newHealthChecker create handler for /health endpoint; requests outside
// mgmt access rules get 403. Response is plain "ok" or "error".
func newHealthChecker(injector do.Injector, cfg *config.ServerConf) http.HandlerFunc {
	rootscope := injector.RootScope()

	return func(w http.ResponseWriter, r *http.Request) {
		if access, _ := cfg.AuthMgmtRequest(r); !access {
			log.Logger.Debug().Msgf("HealthChecker: access denied for %v", r.RemoteAddr)
			w.WriteHeader(http.StatusForbidden)

			return
		}

		failed := 0

		for name, err := range rootscope.HealthCheckWithContext(r.Context()) {
			if err == nil {
				continue
			}

			log.Logger.Error().Err(err).Str("service", name).
				Msgf("HealthChecker: healthcheck failed; service=%q error=%s", name, err)

			failed++
		}

		if failed > 0 {
			render.PlainText(w, r, "error")

			return
		}

		render.PlainText(w, r, "ok")
	}
}
