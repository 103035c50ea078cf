//go:build trace

package server

//
// trace.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"net/http"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/config"
	xtrace "golang.org/x/net/trace"
)

// ctxRequestID get request id from context or `fallback` when missing.
func ctxRequestID(ctx context.Context, fallback string) (string, bool) {
	if id, ok := hlog.IDFromCtx(ctx); ok {
		return id.String(), true
	}

	return fallback, false
}

func newTracingMiddleware(cfg *config.ServerConf) func(http.Handler) http.Handler {
	xtrace.AuthRequest = cfg.AuthMgmtRequest

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			// technical endpoints are not traced
			if isQuietPath(request) {
				next.ServeHTTP(writer, request)

				return
			}

			ctx := request.Context()

			reqid, ok := ctxRequestID(ctx, "?")
			if ok {
				pprof.SetGoroutineLabels(pprof.WithLabels(ctx, pprof.Labels("reqid", reqid)))
			}

			tr := xtrace.New("server", request.URL.Path+" req_id="+reqid)
			defer tr.Finish()

			request = request.WithContext(xtrace.NewContext(ctx, tr))

			next.ServeHTTP(writer, request)
		})
	}
}

func mountXTrace(group chi.Router, webroot string) {
	group.Get(webroot+"/debug/requests", xtrace.Traces)
	group.Get(webroot+"/debug/events", xtrace.Events)
}

//-------------------------------------------------------------

const FlightRecorderThreshold = 200 * time.Millisecond

// flightRecorder dump runtime trace of the first request slower than
// FlightRecorderThreshold into a snapshot file.
type flightRecorder struct {
	once sync.Once
	fr   *trace.FlightRecorder
}

func newFRMiddleware() func(http.Handler) http.Handler {
	frec := &flightRecorder{
		fr: trace.NewFlightRecorder(trace.FlightRecorderConfig{
			MinAge:   FlightRecorderThreshold,
			MaxBytes: 1 << 20, //nolint:mnd  // 1MB
		}),
	}

	if err := frec.fr.Start(); err != nil {
		log.Logger.Error().Err(err).Msgf("FlightRecorder: start error=%q", err)

		frec.once.Do(func() {})

		return func(next http.Handler) http.Handler {
			return next
		}
	}

	log.Logger.Warn().Msgf("FlightRecorder: enabled; threshold=%s", FlightRecorderThreshold)

	return frec.wrap
}

func (f *flightRecorder) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		if f.fr.Enabled() && time.Since(start) > FlightRecorderThreshold {
			go f.snapshot(r.Context())
		}
	})
}

// snapshot write recorder buffer to file; only first slow request is captured.
func (f *flightRecorder) snapshot(ctx context.Context) {
	f.once.Do(func() {
		logger := log.Logger
		reqid, _ := ctxRequestID(ctx, "unk")
		fname := "snapshot-" + time.Now().Format(time.RFC3339) + "-" + reqid + ".trace"

		fout, err := os.Create(fname)
		if err != nil {
			logger.Error().Err(err).Msgf("FlightRecorder: opening snapshot file %q error=%q", fname, err)

			return
		}
		defer fout.Close()

		if _, err = f.fr.WriteTo(fout); err != nil {
			logger.Error().Err(err).Msgf("FlightRecorder: writing snapshot to file %q error=%q", fname, err)

			return
		}

		f.fr.Stop()
		logger.Warn().Str(common.LogKeyReqID, reqid).
			Msgf("FlightRecorder: captured snapshot to %q for req_id=%s", fname, reqid)
	})
}
