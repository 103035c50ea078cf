// Package srvsupport provide helpers shared by http handlers.
package srvsupport

//
// httpsupport.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
)

// HandlerFunc is http handler with request context and request-scoped logger.
type HandlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *zerolog.Logger)

// Wrap adapt HandlerFunc to http.HandlerFunc.
func Wrap(handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler(r.Context(), w, r, hlog.FromRequest(r))
	}
}

// WrapNamed adapt HandlerFunc to http.HandlerFunc; `name` is put as
// `handler` in logger context.
func WrapNamed(handler HandlerFunc, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r).
			With().Str("handler", name).
			Logger()

		ctx := logger.WithContext(r.Context())
		handler(ctx, w, r.WithContext(ctx), &logger)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if msg == "" {
		msg = http.StatusText(code)
	}

	if !wantsJSON(r) {
		http.Error(w, msg, code)

		return
	}

	res := struct {
		Error string `json:"error"`
	}{msg}

	render.Status(r, code)
	RenderJSON(w, r, &res)
}

// CheckAndWriteError map error to http status and write response.
func CheckAndWriteError(w http.ResponseWriter, r *http.Request, err error) {
	msg := aerr.GetUserMessage(err)

	switch {
	case errors.Is(err, common.ErrUnknownUser),
		errors.Is(err, common.ErrUnknownDevice),
		errors.Is(err, common.ErrUnknownPodcast):
		WriteError(w, r, http.StatusNotFound, msg)

	case aerr.HasTag(err, aerr.InternalError):
		// write message if is defined in error
		WriteError(w, r, http.StatusInternalServerError, msg)

	case aerr.HasTag(err, aerr.ValidationError),
		aerr.HasTag(err, aerr.DataError):
		WriteError(w, r, http.StatusBadRequest, msg)

	default:
		// unknown error; never show details
		WriteError(w, r, http.StatusInternalServerError, "")
	}
}
