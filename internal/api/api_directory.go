// api_directory.go
// /toplist/, /search.
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/formats"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
	"gitlab.com/kabes/go-poddir/internal/service"
)

// directoryResource handle public directory endpoints: toplist and search.
type directoryResource struct {
	statsSrv    *service.StatsSrv
	podcastsSrv *service.PodcastsSrv
}

func newDirectoryResource(i do.Injector) (directoryResource, error) {
	return directoryResource{
		statsSrv:    do.MustInvoke[*service.StatsSrv](i),
		podcastsSrv: do.MustInvoke[*service.PodcastsSrv](i),
	}, nil
}

//------------------------------------------------------------------------------

type podcastEntry struct {
	URL                 string `json:"url"`
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Website             string `json:"website,omitempty"`
	Subscribers         int    `json:"subscribers"`
	SubscribersLastWeek int    `json:"subscribers_last_week"`
	LogoURL             string `json:"logo_url,omitempty"`
}

func newPodcastEntry(p *model.Podcast) podcastEntry {
	return podcastEntry{
		URL:                 p.URL,
		Title:               p.DisplayTitle(),
		Description:         p.Description,
		Website:             p.Website,
		Subscribers:         p.Subscribers,
		SubscribersLastWeek: p.SubscribersLastWeek,
		LogoURL:             p.LogoURL,
	}
}

type toplistEntry struct {
	podcastEntry

	PositionLastWeek int `json:"position_last_week"`
}

//------------------------------------------------------------------------------

func (d *directoryResource) toplist(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	q := query.ToplistQuery{}

	// count url parameter is optional; service apply default.
	if count := chi.URLParam(r, "count"); count != "" {
		c, err := strconv.Atoi(count)
		if err != nil {
			logger.Debug().Err(err).Msg("parse count error")
			srvsupport.WriteError(w, r, http.StatusBadRequest, "invalid count")

			return
		}

		q.Count = c
	}

	toplist, err := d.statsSrv.GetToplist(ctx, &q)
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("get toplist error")

		return
	}

	switch format := chi.URLParam(r, "format"); format {
	case "json":
		entries := common.Map(toplist, func(e *model.ToplistEntry) toplistEntry {
			return toplistEntry{newPodcastEntry(&e.Podcast), e.PositionLastWeek}
		})
		render.JSON(newJSONPWriter(r, w), r, entries)
	case "opml", "txt", "xml":
		renderPodcastsList(w, r, logger, toplist.Podcasts(), format)
	default:
		logger.Info().Msgf("unknown format %q", format)
		srvsupport.WriteError(w, r, http.StatusNotFound, "")
	}
}

func (d *directoryResource) search(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	q := query.SearchQuery{Q: r.URL.Query().Get("q")}
	if strings.TrimSpace(q.Q) == "" {
		srvsupport.WriteError(w, r, http.StatusBadRequest, "/search.{json|opml|txt|xml}?q={query}")

		return
	}

	podcasts, total, err := d.podcastsSrv.Search(ctx, &q)
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("search error")

		return
	}

	logger.Debug().Uint64("total", total).Int("returned", len(podcasts)).Msg("search finished")

	switch format := chi.URLParam(r, "format"); format {
	case "json":
		entries := common.Map(podcasts, newPodcastEntry)
		render.JSON(newJSONPWriter(r, w), r, entries)
	case "opml", "txt", "xml":
		renderPodcastsList(w, r, logger, podcasts, format)
	default:
		logger.Info().Msgf("unknown format %q", format)
		srvsupport.WriteError(w, r, http.StatusNotFound, "")
	}
}

// renderPodcastsList write podcasts in one of opml, txt or xml formats.
func renderPodcastsList(
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
	podcasts model.Podcasts,
	format string,
) {
	switch format {
	case "opml":
		result, err := formatOPML(podcasts)
		if err != nil {
			logger.Warn().Err(err).Msg("build opml error")
			srvsupport.WriteError(w, r, http.StatusInternalServerError, "")

			return
		}

		srvsupport.RenderXML(w, r, result)
	case "txt":
		render.PlainText(w, r, strings.Join(podcasts.URLs(), "\n"))
	case "xml":
		doc := formats.NewXMLPodcasts(podcasts)

		result, err := doc.XML()
		if err != nil {
			logger.Warn().Err(err).Msg("build xml error")
			srvsupport.WriteError(w, r, http.StatusInternalServerError, "")

			return
		}

		srvsupport.RenderXML(w, r, result)
	}
}
