// apiv2_subscriptions.go
// /api/2/subscriptions/
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
	"gitlab.com/kabes/go-poddir/internal/service"
)

// subscriptionsResource handle device subscription synchronization by
// add/remove deltas.
type subscriptionsResource struct {
	subsSrv *service.SubscriptionsSrv
}

func newSubscriptionsResource(i do.Injector) (subscriptionsResource, error) {
	return subscriptionsResource{subsSrv: do.MustInvoke[*service.SubscriptionsSrv](i)}, nil
}

func (sr subscriptionsResource) Routes() *chi.Mux {
	router := chi.NewRouter()
	router.With(checkUserMiddleware).
		Get(`/{user:[\w+.-]+}.opml`, srvsupport.Wrap(sr.userSubscriptions))

	userdev := router.With(checkUserMiddleware, checkDeviceMiddleware)
	userdev.Get(`/{user:[\w+.-]+}/{devicename:[\w.-]+}.json`, srvsupport.Wrap(sr.devSubscriptionChanges))
	userdev.Post(`/{user:[\w+.-]+}/{devicename:[\w.-]+}.json`, srvsupport.Wrap(sr.uploadSubscriptionChanges))

	return router
}

func (sr subscriptionsResource) devSubscriptionChanges(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	since, err := getSinceParameter(r)
	if err != nil {
		logger.Debug().Err(err).Msg("parse since error")
		srvsupport.WriteError(w, r, http.StatusBadRequest, "invalid since")

		return
	}

	q := query.GetSubscriptionChangesQuery{
		UserName:   common.ContextUser(ctx),
		DeviceName: common.ContextDevice(ctx),
		Since:      since,
	}

	state, err := sr.subsSrv.GetSubscriptionChanges(ctx, &q)
	if err != nil {
		writeServiceError(w, r, logger, err, "get subscription changes error")

		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &subscriptionChangesResponse{
		Add:       state.Add,
		Remove:    state.Remove,
		Timestamp: state.Timestamp.Unix(),
	})
}

func (sr subscriptionsResource) userSubscriptions(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	_ = r
	user := common.ContextUser(ctx)

	subs, err := sr.subsSrv.GetUserSubscriptions(ctx, &query.GetUserSubscriptionsQuery{UserName: user})
	if err != nil {
		writeServiceError(w, r, logger, err, "get user subscriptions error")

		return
	}

	result, err := formatOPML(subs)
	if err != nil {
		logger.Warn().Err(err).Msg("build opml error")
		srvsupport.WriteError(w, r, http.StatusInternalServerError, "")

		return
	}

	srvsupport.RenderXML(w, r, result)
}

func (sr subscriptionsResource) uploadSubscriptionChanges(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	var changes subscriptionChangesRequest
	if err := render.DecodeJSON(r.Body, &changes); err != nil {
		logger.Debug().Err(err).Msg("parse json error")
		srvsupport.WriteError(w, r, http.StatusBadRequest, "")

		return
	}

	cmd := command.ChangeSubscriptionsCmd{
		Username:   common.ContextUser(ctx),
		Devicename: common.ContextDevice(ctx),
		Add:        changes.Add,
		Remove:     changes.Remove,
		Timestamp:  time.Now().UTC(),
	}

	res, err := sr.subsSrv.ChangeSubscriptions(ctx, &cmd)
	if err != nil {
		writeServiceError(w, r, logger, err, "change subscriptions error")

		return
	}

	updatedURLs := res.ChangedURLs
	if updatedURLs == nil {
		// keep empty list in json instead of null
		updatedURLs = [][]string{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &uploadChangesResponse{
		Timestamp:   res.Timestamp.Unix(),
		UpdatedURLs: updatedURLs,
	})
}

// -----------------------------

type subscriptionChangesRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type subscriptionChangesResponse struct {
	Add       []string `json:"add"`
	Remove    []string `json:"remove"`
	Timestamp int64    `json:"timestamp"`
}

type uploadChangesResponse struct {
	Timestamp   int64      `json:"timestamp"`
	UpdatedURLs [][]string `json:"update_urls"`
}
