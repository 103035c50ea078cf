package api

//
// middlewares.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/kabes/go-poddir/internal/common"
)

// requireParamMiddleware reject request without given url parameter; value
// is bound into request context and logger under logkey.
func requireParamMiddleware(param, logkey string,
	bind func(context.Context, string) context.Context,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			value := chi.URLParam(req, param)
			if value == "" {
				hlog.FromRequest(req).Debug().Msgf("empty %s", param)
				w.WriteHeader(http.StatusBadRequest)

				return
			}

			ctx := bind(req.Context(), value)
			logger := hlog.FromRequest(req).With().Str(logkey, value).Logger()

			next.ServeHTTP(w, req.WithContext(logger.WithContext(ctx)))
		})
	}
}

//nolint:gochecknoglobals
var (
	checkUserMiddleware   = requireParamMiddleware("user", common.LogKeyUserName, common.ContextWithUser)
	checkDeviceMiddleware = requireParamMiddleware("devicename", common.LogKeyDeviceName, common.ContextWithDevice)
)
