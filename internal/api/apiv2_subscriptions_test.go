package api

//
// apiv2_subscriptions_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"gitlab.com/kabes/go-poddir/internal/assert"
)

func TestV2UploadSubscriptionChanges(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")

	// device is created on first sync
	body := `{"add": ["http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"], "remove": []}`
	w := doRequest(ctx, t, router, http.MethodPost, "/api/2/subscriptions/bob/phone.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	var res uploadChangesResponse

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Timestamp > 0)
	assert.NotNil(t, res.UpdatedURLs)
	assert.Equal(t, len(res.UpdatedURLs), 0)

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var urls []string

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.EqualSorted(t, urls,
		[]string{"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"})

	// remove one, unsubscribe of unknown url is ignored
	body = `{"add": [], "remove": ["http://www.example.com/feed1.xml", "http://www.example.com/unknown.xml"]}`
	w = doRequest(ctx, t, router, http.MethodPost, "/api/2/subscriptions/bob/phone.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.EqualSorted(t, urls, []string{"http://www.example.com/feed2.xml"})
}

func TestV2UploadRewriteURLs(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")

	body := `{"add": ["feed://www.example.com/feed1.xml"], "remove": []}`
	w := doRequest(ctx, t, router, http.MethodPost, "/api/2/subscriptions/bob/phone.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	var res uploadChangesResponse

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, len(res.UpdatedURLs), 1)
	assert.Equal(t, res.UpdatedURLs[0][0], "feed://www.example.com/feed1.xml")
	assert.Equal(t, res.UpdatedURLs[0][1], "http://www.example.com/feed1.xml")

	// subscription is stored under rewritten url
	w = doRequest(ctx, t, router, http.MethodGet, "/subscriptions/bob/phone.json", "")

	var urls []string

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &urls))
	assert.Equal(t, urls, []string{"http://www.example.com/feed1.xml"})
}

func TestV2GetSubscriptionChanges(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")

	hourAgo := time.Now().UTC().Add(-time.Hour)
	prepareTestSub(ctx, t, i, "bob", "phone", hourAgo,
		"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml")

	// changes after  sync point
	since := hourAgo.Add(-time.Hour).Unix()
	w := doRequest(ctx, t, router, http.MethodGet,
		fmt.Sprintf("/api/2/subscriptions/bob/phone.json?since=%d", since), "")
	assert.Equal(t, w.Code, http.StatusOK)

	var res subscriptionChangesResponse

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.EqualSorted(t, res.Add,
		[]string{"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml"})
	assert.Equal(t, len(res.Remove), 0)
	assert.True(t, res.Timestamp >= hourAgo.Unix())

	// nothing changed after returned timestamp
	w = doRequest(ctx, t, router, http.MethodGet,
		fmt.Sprintf("/api/2/subscriptions/bob/phone.json?since=%d", res.Timestamp), "")
	assert.Equal(t, w.Code, http.StatusOK)

	res = subscriptionChangesResponse{}
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, len(res.Add), 0)
	assert.Equal(t, len(res.Remove), 0)

	// add and remove actions are squashed to newest one per podcast
	halfHourAgo := time.Now().UTC().Add(-30 * time.Minute)
	prepareTestSub(ctx, t, i, "bob", "phone", halfHourAgo, "http://www.example.com/feed2.xml")

	w = doRequest(ctx, t, router, http.MethodGet,
		fmt.Sprintf("/api/2/subscriptions/bob/phone.json?since=%d", since), "")

	res = subscriptionChangesResponse{}
	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, res.Add, []string{"http://www.example.com/feed2.xml"})
	assert.Equal(t, res.Remove, []string{"http://www.example.com/feed1.xml"})
}

func TestV2GetSubscriptionChangesErrors(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")

	w := doRequest(ctx, t, router, http.MethodGet,
		"/api/2/subscriptions/bob/phone.json?since=yesterday", "")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/subscriptions/alice/phone.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/subscriptions/bob/tablet.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestV2UserSubscriptionsOPML(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml")

	w := doRequest(ctx, t, router, http.MethodGet, "/api/2/subscriptions/bob.opml", "")
	assert.Equal(t, w.Code, http.StatusOK)
	assert.True(t, strings.Contains(w.Body.String(), `xmlUrl="http://www.example.com/feed1.xml"`))
	assert.True(t, strings.Contains(w.Header().Get("Content-Type"), "application/xml"))
}
