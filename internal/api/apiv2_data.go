// apiv2_data.go
// /api/2/data/
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
	"gitlab.com/kabes/go-poddir/internal/service"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// dataResource expose podcast metadata lookup by one of supported
// identifiers.
type dataResource struct {
	podcastsSrv *service.PodcastsSrv
}

func newDataResource(i do.Injector) (dataResource, error) {
	return dataResource{
		podcastsSrv: do.MustInvoke[*service.PodcastsSrv](i),
	}, nil
}

func (d dataResource) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/podcast.json", srvsupport.Wrap(d.getPodcast))

	return r
}

func (d dataResource) getPodcast(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	q := query.PodcastRefQuery{
		URL:  validators.SanitizeURL(r.URL.Query().Get("url")),
		XID:  r.URL.Query().Get("id"),
		Slug: r.URL.Query().Get("slug"),
	}

	if oldid := r.URL.Query().Get("oldid"); oldid != "" {
		oid, err := strconv.ParseInt(oldid, 10, 64)
		if err != nil {
			logger.Debug().Err(err).Msg("parse oldid error")
			srvsupport.WriteError(w, r, http.StatusBadRequest, "invalid oldid")

			return
		}

		q.OldID = oid
	}

	podcast, err := d.podcastsSrv.Resolve(ctx, &q)
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("resolve podcast error")

		return
	}

	if podcast == nil {
		logger.Debug().Object("query", &q).Msg("podcast not found")
		srvsupport.WriteError(w, r, http.StatusNotFound, "podcast not found")

		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, newPodcastEntry(podcast))
}
