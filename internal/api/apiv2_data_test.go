package api

//
// apiv2_data_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func prepareDataPodcast(t *testing.T) (context.Context, *do.RootScope, *chi.Mux) {
	t.Helper()

	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml")

	return ctx, i, router
}

func TestV2DataPodcastByURL(t *testing.T) {
	ctx, _, router := prepareDataPodcast(t)

	w := doRequest(ctx, t, router, http.MethodGet,
		"/api/2/data/podcast.json?url=http://www.example.com/feed1.xml", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res map[string]any

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res["url"], "http://www.example.com/feed1.xml")
	// placeholder title fall back to feed url
	assert.Equal(t, res["title"], "http://www.example.com/feed1.xml")

	// lookup url is normalized before resolution
	w = doRequest(ctx, t, router, http.MethodGet,
		"/api/2/data/podcast.json?url=feed://www.example.com/feed1.xml", "")
	assert.Equal(t, w.Code, http.StatusOK)

	res = nil
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res["url"], "http://www.example.com/feed1.xml")
}

func TestV2DataPodcastByAlias(t *testing.T) {
	ctx, i, router := prepareDataPodcast(t)

	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](i)
	cmd := command.AssignPodcastAliasCmd{
		URL:   "http://www.example.com/feed1.xml",
		Slug:  "technews",
		OldID: 42,
	}
	assert.NoErr(t, podcastsSrv.AssignAlias(ctx, &cmd))

	w := doRequest(ctx, t, router, http.MethodGet, "/api/2/data/podcast.json?slug=technews", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res map[string]any

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res["url"], "http://www.example.com/feed1.xml")

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/data/podcast.json?oldid=42", "")
	assert.Equal(t, w.Code, http.StatusOK)

	res = nil
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res["url"], "http://www.example.com/feed1.xml")
}

func TestV2DataPodcastByXID(t *testing.T) {
	ctx, i, router := prepareDataPodcast(t)

	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](i)
	podcasts, err := podcastsSrv.GetAllPodcasts(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, len(podcasts), 1)

	w := doRequest(ctx, t, router, http.MethodGet,
		"/api/2/data/podcast.json?id="+podcasts[0].XID, "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res map[string]any

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res["url"], "http://www.example.com/feed1.xml")
}

func TestV2DataPodcastErrors(t *testing.T) {
	ctx, _, router := prepareDataPodcast(t)

	// identifier is required
	w := doRequest(ctx, t, router, http.MethodGet, "/api/2/data/podcast.json", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	// only one identifier is allowed
	w = doRequest(ctx, t, router, http.MethodGet,
		"/api/2/data/podcast.json?url=http://www.example.com/feed1.xml&slug=technews", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/data/podcast.json?oldid=nan", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = doRequest(ctx, t, router, http.MethodGet,
		"/api/2/data/podcast.json?url=http://www.example.com/unknown.xml", "")
	assert.Equal(t, w.Code, http.StatusNotFound)

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/data/podcast.json?slug=nosuch", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}
