package api

// apiv2_device.go
// /api/2/devices/
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
	"gitlab.com/kabes/go-poddir/internal/service"
)

// device is the wire form of a registered device.
type device struct {
	User          string `json:"user"`
	Name          string `json:"id"`
	DevType       string `json:"type"`
	Caption       string `json:"caption"`
	Subscriptions int    `json:"subscriptions"`
}

// devicePatch carry updatable device attributes.
type devicePatch struct {
	Caption string `json:"caption"`
	Type    string `json:"type"`
}

// deviceResource handle request to /api/2/devices resource.
type deviceResource struct {
	deviceSrv *service.DevicesSrv
}

func newDeviceResource(i do.Injector) (deviceResource, error) {
	return deviceResource{
		deviceSrv: do.MustInvoke[*service.DevicesSrv](i),
	}, nil
}

func (d deviceResource) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.With(checkUserMiddleware).
		Get(`/{user:[\w+.-]+}.json`, srvsupport.WrapNamed(d.listDevices, "api_dev_user"))
	r.With(checkUserMiddleware, checkDeviceMiddleware).
		Post(`/{user:[\w+.-]+}/{devicename:[\w.-]+}.json`, srvsupport.WrapNamed(d.updateDevice, "api_dev_user_post"))

	return r
}

// updateDevice change device caption and type; unknown device is created on
// first subscription sync, not here.
func (d deviceResource) updateDevice(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	var patch devicePatch

	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		logger.Debug().Err(err).Msg("error decoding json payload")
		srvsupport.WriteError(w, r, http.StatusBadRequest, "")

		return
	}

	cmd := command.UpdateDeviceCmd{
		UserName:   common.ContextUser(ctx),
		DeviceName: common.ContextDevice(ctx),
		DeviceType: patch.Type,
		Caption:    patch.Caption,
	}
	if err := d.deviceSrv.UpdateDevice(ctx, &cmd); err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("update device error")

		return
	}

	w.WriteHeader(http.StatusOK)
}

// listDevices return user not deleted devices.
func (d deviceResource) listDevices(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
) {
	user := common.ContextUser(ctx)

	devices, err := d.deviceSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: user})
	if err != nil {
		srvsupport.CheckAndWriteError(w, r, err)
		logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg("get devices error")

		return
	}

	resdevices := common.Map(devices, func(d *model.Device) device {
		return device{
			User:          user,
			Name:          d.Name,
			DevType:       d.DevType,
			Caption:       d.Caption,
			Subscriptions: d.Subscriptions,
		}
	})

	render.Status(r, http.StatusOK)
	srvsupport.RenderJSON(w, r, resdevices)
}
