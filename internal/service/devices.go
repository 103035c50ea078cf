//
// devices.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

type DevicesSrv struct {
	db          *db.Database
	usersRepo   repository.Users
	devicesRepo repository.Devices
}

func NewDevicesSrv(i do.Injector) (*DevicesSrv, error) {
	return &DevicesSrv{
		db:          do.MustInvoke[*db.Database](i),
		usersRepo:   do.MustInvoke[repository.Users](i),
		devicesRepo: do.MustInvoke[repository.Devices](i),
	}, nil
}

// UpdateDevice update or create device. Updating deleted device restore it.
func (d *DevicesSrv) UpdateDevice(ctx context.Context, cmd *command.UpdateDeviceCmd) error {
	if cmd == nil {
		panic("cmd is nil")
	}

	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate dev to update failed")
	}

	//nolint:wrapcheck
	return db.InTransaction(ctx, d.db, func(ctx context.Context) error {
		user, err := d.usersRepo.GetUser(ctx, cmd.UserName)
		if errors.Is(err, common.ErrNoData) {
			return common.ErrUnknownUser
		} else if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		device, err := d.devicesRepo.GetDevice(ctx, user.ID, cmd.DeviceName)
		if errors.Is(err, common.ErrNoData) {
			// new device
			device = &model.Device{Name: cmd.DeviceName}
		} else if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		device.Caption = cmd.Caption
		device.DevType = cmd.DeviceType
		device.Deleted = false

		_, err = d.devicesRepo.SaveDevice(ctx, user.ID, device)
		if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err, "save device failed")
		}

		return nil
	})
}

// GetDevices return list of user devices with subscriptions counters.
// Deleted devices are skipped unless query ask for them.
func (d *DevicesSrv) GetDevices(ctx context.Context, q *query.GetDevicesQuery) ([]model.Device, error) {
	if q == nil {
		panic("query is nil")
	}

	if err := q.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate query failed")
	}

	//nolint:wrapcheck
	return db.InConnectionR(ctx, d.db, func(ctx context.Context) ([]model.Device, error) {
		user, err := d.usersRepo.GetUser(ctx, q.UserName)
		if errors.Is(err, common.ErrNoData) {
			return nil, common.ErrUnknownUser
		} else if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		devices, err := d.devicesRepo.ListDevices(ctx, user.ID, q.WithDeleted)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err, "get devices from db failed")
		}

		return devices, nil
	})
}

// DeleteDevice mark device as deleted; subscription log is kept and device
// is restored when client sync to it again.
func (d *DevicesSrv) DeleteDevice(ctx context.Context, cmd *command.DeleteDeviceCmd) error {
	if cmd == nil {
		panic("cmd is nil")
	}

	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate cmd failed")
	}

	//nolint:wrapcheck
	return db.InTransaction(ctx, d.db, func(ctx context.Context) error {
		user, err := d.usersRepo.GetUser(ctx, cmd.UserName)
		if errors.Is(err, common.ErrNoData) {
			return common.ErrUnknownUser
		} else if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		device, err := d.devicesRepo.GetDevice(ctx, user.ID, cmd.DeviceName)
		if errors.Is(err, common.ErrNoData) {
			return common.ErrUnknownDevice
		} else if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		if err = d.devicesRepo.SetDeviceDeleted(ctx, device.ID, true); err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err, "delete device failed")
		}

		return nil
	})
}
