//go:build !trace

package server

//
// trace_disabled.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gitlab.com/kabes/go-poddir/internal/config"
)

// no-op stand-ins compiled without the trace tag

func newTracingMiddleware(_ *config.ServerConf) func(http.Handler) http.Handler {
	return passthroughMiddleware
}

func newFRMiddleware() func(http.Handler) http.Handler {
	return passthroughMiddleware
}

func passthroughMiddleware(next http.Handler) http.Handler {
	return next
}

func mountXTrace(chi.Router, string) {}
