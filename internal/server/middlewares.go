package server

//
// middlewares.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-poddir/internal/config"
)

// trackingWriter wrap http.ResponseWriter and record status and body size
// for request logging.
type trackingWriter struct {
	http.ResponseWriter

	status int
	size   int
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size

	if err != nil {
		return size, fmt.Errorf("write response error: %w", err)
	}

	return size, nil
}

func (w *trackingWriter) WriteHeader(status int) {
	w.ResponseWriter.WriteHeader(status)
	w.status = status
}

//-------------------------------------------------------------

// requestLogger build per-request logger with req_id field and bind it into
// the request context.
func requestLogger(request *http.Request) (zerolog.Logger, *http.Request) {
	ctx := request.Context()
	requestID, _ := hlog.IDFromCtx(ctx)
	llog := log.With().Str("req_id", requestID.String()).Logger()

	return llog, request.WithContext(llog.WithContext(ctx))
}

// finishLevel select log level for finished request; client errors other
// than 404 and server errors are warnings.
func finishLevel(status int) zerolog.Level {
	if status >= 400 && status != 404 {
		return zerolog.WarnLevel
	}

	return zerolog.InfoLevel
}

func newSimpleLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if isQuietPath(request) {
			next.ServeHTTP(writer, request)

			return
		}

		llog, request := requestLogger(request)
		llog.Info().
			Str("url", request.URL.Redacted()).
			Str("remote", request.RemoteAddr).
			Str("method", request.Method).
			Msg("webhandler: request start")

		start := time.Now()
		tw := &trackingWriter{ResponseWriter: writer, status: 0, size: 0}

		defer func() {
			llog.WithLevel(finishLevel(tw.status)).
				Str("uri", request.RequestURI).
				Int("status", tw.status).
				Int("size", tw.size).
				Dur("duration", time.Since(start)).
				Msg("webhandler: request finished")
		}()

		next.ServeHTTP(tw, request)
	})
}

//-------------------------------------------------------------

// newFullLogMiddleware log requests with full bodies and headers on both
// sides; for debugging only.
func newFullLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if isQuietPath(request) {
			next.ServeHTTP(writer, request)

			return
		}

		llog, request := requestLogger(request)
		llog.Info().
			Str("url", request.URL.Redacted()).
			Str("remote", request.RemoteAddr).
			Str("method", request.Method).
			Interface("headers", request.Header).
			Msg("webhandler: request start")

		var reqBody, respBody bytes.Buffer

		request.Body = io.NopCloser(io.TeeReader(request.Body, &reqBody))
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		wrapped.Tee(&respBody)

		start := time.Now()

		defer func() {
			llog.Debug().
				Str("request_body", reqBody.String()).
				Interface("req-headers", request.Header).
				Msg("request data")
			llog.Debug().
				Str("response_body", respBody.String()).
				Interface("resp-headers", wrapped.Header()).
				Msg("response data")

			level := finishLevel(wrapped.Status())
			if level == zerolog.WarnLevel {
				level = zerolog.ErrorLevel
			}

			llog.WithLevel(level).
				Str("uri", request.RequestURI).
				Int("status", wrapped.Status()).
				Int("size", wrapped.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("webhandler: request finished")
		}()

		next.ServeHTTP(wrapped, request)
	})
}

//-------------------------------------------------------------

// newVerySimpleLogMiddleware log finished requests only, without request
// context propagation; `name` label requests from given server.
func newVerySimpleLogMiddleware(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if isQuietPath(request) {
				next.ServeHTTP(writer, request)

				return
			}

			start := time.Now()
			tw := &trackingWriter{ResponseWriter: writer, status: 0, size: 0}

			next.ServeHTTP(tw, request)

			log.Debug().
				Str("url", request.URL.Redacted()).
				Str("remote", request.RemoteAddr).
				Str("method", request.Method).
				Int("status", tw.status).
				Int("size", tw.size).
				Dur("duration", time.Since(start)).
				Msgf("%s: request finished", name)
		})
	}
}

//-------------------------------------------------------------

var quietPathPrefixes = []string{"/metrics", "/debug", "/ping"}

// isQuietPath report requests excluded from request logging.
func isQuietPath(request *http.Request) bool {
	path := request.URL.Path

	for _, prefix := range quietPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

//-------------------------------------------------------------

func newLogMiddleware(cfg *config.ServerConf) func(http.Handler) http.Handler {
	if cfg.DebugFlags.HasFlag(config.DebugMsgBody) {
		return newFullLogMiddleware
	}

	return newSimpleLogMiddleware
}

//-------------------------------------------------------------

func newRecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func(ctx context.Context) {
			rec := recover()
			if rec == nil {
				return
			}

			logger := log.Ctx(ctx)

			if err, ok := rec.(error); ok {
				logger.Error().Err(err).Msg("panic when handling request")

				// net/http use this panic to abort connections; pass it on
				if errors.Is(err, http.ErrAbortHandler) {
					panic(err)
				}
			} else if msg, ok := rec.(string); ok {
				logger.Error().Str("err", msg).Msg("panic when handling request")
			} else {
				logger.Error().Str("err", "unknown error").Msg("panic when handling request")
			}

			if req.Header.Get("Connection") != "Upgrade" {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}(req.Context())

		next.ServeHTTP(w, req)
	})
}

//-------------------------------------------------------------

// newAuthMgmtMiddleware reject requests not allowed by mgmt access rules.
func newAuthMgmtMiddleware(cfg *config.ServerConf) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if access, _ := cfg.AuthMgmtRequest(req); !access {
				log.Warn().Str("remote", req.RemoteAddr).Str("url", req.URL.Redacted()).
					Msg("mgmt request rejected")
				w.WriteHeader(http.StatusForbidden)

				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
