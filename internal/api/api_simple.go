// api_simple.go
// /subscriptions/
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/formats"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
	"gitlab.com/kabes/go-poddir/internal/service"
)

// simpleResource handle subscription list download and replace in gpodder
// simple api format.
type simpleResource struct {
	subsSrv *service.SubscriptionsSrv
}

func newSimpleResource(i do.Injector) (simpleResource, error) {
	return simpleResource{
		subsSrv: do.MustInvoke[*service.SubscriptionsSrv](i),
	}, nil
}

func (s *simpleResource) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.With(checkUserMiddleware).
		Get(`/{user:[\w+.-]+}.{format}`, srvsupport.Wrap(s.downloadUserSubscriptions))
	r.With(checkUserMiddleware, checkDeviceMiddleware).
		Get(`/{user:[\w+.-]+}/{devicename:[\w.-]+}.{format}`, srvsupport.Wrap(s.downloadDevSubscriptions))
	r.With(checkUserMiddleware, checkDeviceMiddleware).
		Put(`/{user:[\w+.-]+}/{devicename:[\w.-]+}.{format}`, srvsupport.Wrap(s.uploadSubscriptions))

	return r
}

func (s *simpleResource) downloadUserSubscriptions(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	user := common.ContextUser(ctx)

	subs, err := s.subsSrv.GetUserSubscriptions(ctx, &query.GetUserSubscriptionsQuery{UserName: user})
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("get user subscriptions error")

		return
	}

	s.renderSubscriptions(w, r, logger, subs)
}

func (s *simpleResource) downloadDevSubscriptions(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	user := common.ContextUser(ctx)
	devicename := common.ContextDevice(ctx)

	subs, err := s.subsSrv.GetDeviceSubscriptions(ctx,
		&query.GetSubscriptionsQuery{UserName: user, DeviceName: devicename})
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("get device subscriptions error")

		return
	}

	s.renderSubscriptions(w, r, logger, subs)
}

func (s *simpleResource) renderSubscriptions(
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
	subs model.Podcasts,
) {
	switch format := chi.URLParam(r, "format"); format {
	case "opml": //nolint:goconst
		result, err := formatOPML(subs)
		if err != nil {
			logger.Warn().Err(err).Msg("build opml error")
			srvsupport.WriteError(w, r, http.StatusInternalServerError, "")

			return
		}

		srvsupport.RenderXML(w, r, result)
	case "json": //nolint:goconst
		render.JSON(w, r, subs.URLs())
	case "txt": //nolint:goconst
		render.PlainText(w, r, strings.Join(subs.URLs(), "\n"))
	default:
		logger.Info().Msgf("unknown format %q", format)
		srvsupport.WriteError(w, r, http.StatusNotFound, "")
	}
}

// uploadSubscriptions replace whole device subscription list. Only json
// body is accepted; opml and txt parsing is not supported.
func (s *simpleResource) uploadSubscriptions(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	user := common.ContextUser(ctx)
	devicename := common.ContextDevice(ctx)

	var subs []string

	switch format := chi.URLParam(r, "format"); format {
	case "json":
		if err := render.DecodeJSON(r.Body, &subs); err != nil {
			logger.Debug().Err(err).Msg("parse json error")
			srvsupport.WriteError(w, r, http.StatusBadRequest, "")

			return
		}
	case "opml", "txt":
		logger.Debug().Msgf("unsupported upload format %q", format)
		srvsupport.WriteError(w, r, http.StatusBadRequest, "subscriptions upload accept only json")

		return
	default:
		logger.Debug().Msgf("unknown format %q", format)
		srvsupport.WriteError(w, r, http.StatusNotFound, "")

		return
	}

	cmd := command.ReplaceSubscriptionsCmd{
		Username:      user,
		Devicename:    devicename,
		Subscriptions: subs,
		Timestamp:     time.Now().UTC(),
	}

	delta, err := s.subsSrv.ReplaceSubscriptions(ctx, &cmd)
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("replace subscriptions error")

		return
	}

	logger.Debug().Int("added", len(delta.Added)).Int("removed", len(delta.Removed)).
		Msg("subscriptions replaced")
	w.WriteHeader(http.StatusOK)
}

func formatOPML(subs model.Podcasts) ([]byte, error) {
	o := formats.NewOPML("go-poddir")
	o.AddPodcasts(subs)

	result, err := o.XML()
	if err != nil {
		return nil, fmt.Errorf("build opml error: %w", err)
	}

	return result, nil
}
