package api

//
// apiv2_device_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"gitlab.com/kabes/go-poddir/internal/assert"
)

type deviceResponse struct {
	User          string `json:"user"`
	Name          string `json:"id"`
	DevType       string `json:"type"`
	Caption       string `json:"caption"`
	Subscriptions int    `json:"subscriptions"`
}

func TestV2ListDevices(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")
	prepareTestDevice(ctx, t, i, "bob", "phone")
	prepareTestDevice(ctx, t, i, "bob", "laptop")
	prepareTestSub(ctx, t, i, "bob", "phone", time.Now().UTC(),
		"http://www.example.com/feed1.xml", "http://www.example.com/feed2.xml")

	w := doRequest(ctx, t, router, http.MethodGet, "/api/2/devices/bob.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var devices []deviceResponse

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &devices))
	assert.Equal(t, len(devices), 2)

	byName := make(map[string]deviceResponse, len(devices))
	for _, d := range devices {
		byName[d.Name] = d
	}

	phone := byName["phone"]
	assert.Equal(t, phone.User, "bob")
	assert.Equal(t, phone.DevType, "other")
	assert.Equal(t, phone.Caption, "device phone caption")
	assert.Equal(t, phone.Subscriptions, 2)
	assert.Equal(t, byName["laptop"].Subscriptions, 0)
}

func TestV2ListDevicesErrors(t *testing.T) {
	ctx, _, router := prepareTests(t)

	w := doRequest(ctx, t, router, http.MethodGet, "/api/2/devices/alice.json", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

func TestV2UpdateDevice(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")

	// post to unknown device create it
	body := `{"caption": "Kitchen radio", "type": "other"}`
	w := doRequest(ctx, t, router, http.MethodPost, "/api/2/devices/bob/kitchen.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	body = `{"caption": "My phone", "type": "mobile"}`
	w = doRequest(ctx, t, router, http.MethodPost, "/api/2/devices/bob/kitchen.json", body)
	assert.Equal(t, w.Code, http.StatusOK)

	w = doRequest(ctx, t, router, http.MethodGet, "/api/2/devices/bob.json", "")
	assert.Equal(t, w.Code, http.StatusOK)

	var devices []deviceResponse

	assert.NoErr(t, json.Unmarshal(w.Body.Bytes(), &devices))
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].Name, "kitchen")
	assert.Equal(t, devices[0].Caption, "My phone")
	assert.Equal(t, devices[0].DevType, "mobile")
}

func TestV2UpdateDeviceErrors(t *testing.T) {
	ctx, i, router := prepareTests(t)
	prepareTestUser(ctx, t, i, "bob")

	// invalid device type
	w := doRequest(ctx, t, router, http.MethodPost, "/api/2/devices/bob/phone.json",
		`{"caption": "x", "type": "fridge"}`)
	assert.Equal(t, w.Code, http.StatusBadRequest)

	// not json body
	w = doRequest(ctx, t, router, http.MethodPost, "/api/2/devices/bob/phone.json", "caption=x")
	assert.Equal(t, w.Code, http.StatusBadRequest)

	// unknown user
	w = doRequest(ctx, t, router, http.MethodPost, "/api/2/devices/alice/phone.json",
		`{"caption": "x", "type": "other"}`)
	assert.Equal(t, w.Code, http.StatusNotFound)
}
