package api

//
// api_simple_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/model"
)

func TestFormatOPML(t *testing.T) {
	subs := model.Podcasts{
		{URL: "http://www.example.com/podcast1/podcast.xml"},
		{URL: "http://www.example.com/podcast2/podcast.xml", Title: "Podcast Two"},
	}
	exp := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
	<head>
		<title>go-poddir</title>
	</head>
	<body>
		<outline title="http://www.example.com/podcast1/podcast.xml" text="http://www.example.com/podcast1/podcast.xml" type="rss" xmlUrl="http://www.example.com/podcast1/podcast.xml"></outline>
		<outline title="Podcast Two" text="Podcast Two" type="rss" xmlUrl="http://www.example.com/podcast2/podcast.xml"></outline>
	</body>
</opml>`

	res, err := formatOPML(subs)
	assert.NoErr(t, err)
	assert.Equal(t, string(res), exp)
}

func TestSimpleDownloadDeviceSubscriptions(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml")

	w := doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var urls []string

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.EqualSorted(t, urls,
		[]string{"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"})

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.txt", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, len(strings.Split(strings.TrimSpace(w.Body.String()), "\n")), 2)

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.opml", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.True(t, strings.Contains(w.Body.String(), `xmlUrl="http://www.example.com/feed1.xml"`))
	assert.True(t, strings.Contains(w.Header().Get("Content-Type"), "application/xml"))
}

func TestSimpleDownloadUserSubscriptions(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestDevice(ctx, t, i, "bob", "laptop")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml")
	prepareTestSub(ctx, t, i, "bob", "laptop", time.Now().UTC(),
		"http://www.example.com/feed2.xml", "http://www.example.com/feed3.xml")

	w := doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var urls []string

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	// merged over devices, each url once
	assert.EqualSorted(t, urls, []string{
		"http://www.example.com/feed1.xml",
		"http://www.example.com/feed2.xml",
		"http://www.example.com/feed3.xml",
	})
}

func TestSimpleDownloadErrors(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")

	// unknown user
	w := doRequest(ctx, t, router, http.MethodGet, "/subscriptions/alice.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)

	// unknown device
	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/tablet.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)

	// unknown format
	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.yaml", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestSimpleUploadSubscriptions(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")

	body := `["http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"]`
	w := doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var urls []string

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.EqualSorted(t, urls,
		[]string{"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"})

	// replace whole list
	body = `["http://www.example.com/feed3.xml"]`
	w = doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.EqualSorted(t, urls, []string{"http://www.example.com/feed3.xml"})
}

func TestSimpleUploadErrors(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")

	// upload parse other formats is not supported
	w := doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.opml", "<opml/>")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.txt", "http://x")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.yaml", "[]")
	assert.Equal(t, w.Code, http.StatusNotFound)

	// not json body
	w = doRequest(ctx, t, router, http.MethodPut, "/subscriptions/bob/phone.json", "no json here")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	// unknown user
	w = doRequest(ctx, t, router, http.MethodPut, "/subscriptions/alice/phone.json",
		`["http://www.example.com/feed1.xml"]`)
	assert.Equal(t, w.Code, http.StatusNotFound)
}
