package service

//
// devices_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/query"
)

func TestDevices(t *testing.T) {
	ctx, i := prepareTests(t)
	devicesSrv := do.MustInvoke[*DevicesSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")

	devices, err := devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 0)

	cmd := command.UpdateDeviceCmd{
		UserName:   "user1",
		DeviceName: "phone",
		DeviceType: "mobile",
		Caption:    "my phone",
	}
	assert.NoErr(t, devicesSrv.UpdateDevice(ctx, &cmd))

	devices, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].Name, "phone")
	assert.Equal(t, devices[0].DevType, "mobile")
	assert.Equal(t, devices[0].Caption, "my phone")

	// update existing device
	cmd.Caption = "old phone"
	cmd.DeviceType = "other"
	assert.NoErr(t, devicesSrv.UpdateDevice(ctx, &cmd))

	devices, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].Caption, "old phone")
	assert.Equal(t, devices[0].DevType, "other")

	// unknown user
	_, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "nosuchuser"})
	assert.ErrSpec(t, err, common.ErrUnknownUser)

	// invalid device type
	badcmd := command.UpdateDeviceCmd{UserName: "user1", DeviceName: "x1", DeviceType: "fridge", Caption: "?"}
	assert.Err(t, devicesSrv.UpdateDevice(ctx, &badcmd))
}

func TestDeleteDevice(t *testing.T) {
	ctx, i := prepareTests(t)
	devicesSrv := do.MustInvoke[*DevicesSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestDevice(ctx, t, i, "user1", "dev1")
	prepareTestDevice(ctx, t, i, "user1", "dev2")

	err := devicesSrv.DeleteDevice(ctx, &command.DeleteDeviceCmd{UserName: "user1", DeviceName: "dev1"})
	assert.NoErr(t, err)

	// deleted device is hidden
	devices, err := devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].Name, "dev2")

	// but visible when asked for
	devices, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1", WithDeleted: true})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 2)

	// update restore deleted device
	err = devicesSrv.UpdateDevice(ctx, &command.UpdateDeviceCmd{
		UserName: "user1", DeviceName: "dev1", DeviceType: "other", Caption: "restored",
	})
	assert.NoErr(t, err)

	devices, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 2)

	err = devicesSrv.DeleteDevice(ctx, &command.DeleteDeviceCmd{UserName: "user1", DeviceName: "nosuchdev"})
	assert.ErrSpec(t, err, common.ErrUnknownDevice)
}

func TestDeviceSubscriptionsCounter(t *testing.T) {
	ctx, i := prepareTests(t)
	devicesSrv := do.MustInvoke[*DevicesSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")

	ts := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	prepareTestSub(ctx, t, i, "user1", "dev1", ts,
		"http://example.com/feed1.xml", "http://example.com/feed2.xml")

	devices, err := devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].Subscriptions, 2)

	// unsubscribe one
	prepareTestSub(ctx, t, i, "user1", "dev1", ts.Add(time.Hour), "http://example.com/feed1.xml")

	devices, err = devicesSrv.GetDevices(ctx, &query.GetDevicesQuery{UserName: "user1"})
	assert.NoErr(t, err)
	assert.Equal(t, devices[0].Subscriptions, 1)
}
