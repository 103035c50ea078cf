package api

//
// api_directory_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/service"
)

// prepareDirectory create two users with overlapping subscriptions and
// refresh statistics, so toplist has feed1 with two subscribers on top.
func prepareDirectory(ctx context.Context, t *testing.T, i do.Injector) {
	t.Helper()

	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestUser(ctx, t, i, "alice")
	prepareTestDevice(ctx, t, i, "alice", "phone")

	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml")
	prepareTestSub(ctx, t, i, "alice", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml")

	statsSrv := do.MustInvoke[*service.StatsSrv](i)
	assert.NoErr(t, statsSrv.RefreshStats(ctx, false))
}

func TestToplist(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareDirectory(ctx, t, i)

	w := doRequest(ctx, t, router, http.MethodGet, "/toplist.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var entries []struct {
		URL                 string `json:"url"`
		Title               string `json:"title"`
		Subscribers         int    `json:"subscribers"`
		SubscribersLastWeek int    `json:"subscribers_last_week"`
		PositionLastWeek    int    `json:"position_last_week"`
	}

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].URL, "http://www.example.com/feed1.xml")
	assert.Equal(t, entries[0].Subscribers, 2)
	assert.Equal(t, entries[1].URL, "http://www.example.com/feed2.xml")
	assert.Equal(t, entries[1].Subscribers, 1)
	// placeholder without metadata fall back to feed url as title
	assert.Equal(t, entries[0].Title, "http://www.example.com/feed1.xml")
}

func TestToplistCount(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareDirectory(ctx, t, i)

	w := doRequest(ctx, t, router, http.MethodGet, "/toplist/1.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var entries []map[string]any

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, len(entries), 1)

	// not numeric count do not match route
	w = doRequest(ctx, t, router, http.MethodGet, "/toplist/many.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestToplistFormats(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareDirectory(ctx, t, i)

	w := doRequest(ctx, t, router, http.MethodGet, "/toplist.opml", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.True(t, strings.Contains(w.Body.String(), `xmlUrl="http://www.example.com/feed1.xml"`))

	w = doRequest(ctx, t, router, http.MethodGet, "/toplist.txt", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n")[0],
		"http://www.example.com/feed1.xml")

	w = doRequest(ctx, t, router, http.MethodGet, "/toplist.xml", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.True(t, strings.Contains(w.Body.String(), "<podcasts>"))
	assert.True(t, strings.Contains(w.Body.String(), "<subscribers>2</subscribers>"))

	w = doRequest(ctx, t, router, http.MethodGet, "/toplist.yaml", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestToplistJSONP(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareDirectory(ctx, t, i)

	w := doRequest(ctx, t, router, http.MethodGet, "/toplist.json?jsonp=loadToplist", "")
	assert.Equal(t, w.Code, http.StatusOK)

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "loadToplist("))
	assert.True(t, strings.HasSuffix(body, ")"))
}

func TestSearch(t *testing.T) {
	ctx, i, router := prepareTests(t)

	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/technews.xml", "http://www.example.com/cooking.xml")

	w := doRequest(ctx, t, router, http.MethodGet, "/search.json?q=technews.xml", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var entries []struct {
		URL string `json:"url"`
	}

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].URL, "http://www.example.com/technews.xml")

	// no match degrade to empty list
	w = doRequest(ctx, t, router, http.MethodGet, "/search.json?q=jazz", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, strings.TrimSpace(w.Body.String()), "[]")

	// missing query is a caller bug; response carry usage hint
	w = doRequest(ctx, t, router, http.MethodGet, "/search.json", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
	assert.True(t, strings.Contains(w.Body.String(), "q={query}"))

	w = doRequest(ctx, t, router, http.MethodGet, "/search.txt?q=technews.xml", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, strings.TrimSpace(w.Body.String()), "http://www.example.com/technews.xml")
}
