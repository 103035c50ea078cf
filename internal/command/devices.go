package command

//
// devices.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// UpdateDeviceCmd register device or change caption and type of existing one.
type UpdateDeviceCmd struct {
	UserName   string
	DeviceName string
	DeviceType string
	Caption    string
}

func (u *UpdateDeviceCmd) Validate() error {
	switch {
	case u.UserName == "":
		return common.ErrInvalidUser.WithUserMsg("user name can't be empty")
	case !validators.IsValidUserName(u.UserName):
		return common.ErrInvalidUser
	case u.DeviceName == "":
		return common.ErrInvalidDevice.WithUserMsg("device name can't be empty")
	case !validators.IsValidDevName(u.DeviceName):
		return common.ErrInvalidDevice
	case u.DeviceType == "":
		return aerr.ErrValidation.WithUserMsg("device type can't be empty")
	case !validators.IsValidDevType(u.DeviceType):
		return aerr.ErrValidation.WithUserMsg("invalid device type %q", u.DeviceType)
	}

	return nil
}

// DeleteDeviceCmd mark device as deleted; subscription log is kept.
type DeleteDeviceCmd struct {
	UserName   string
	DeviceName string
}

func (u *DeleteDeviceCmd) Validate() error {
	switch {
	case !validators.IsValidUserName(u.UserName):
		return common.ErrInvalidUser.WithUserMsg("invalid username")
	case !validators.IsValidDevName(u.DeviceName):
		return common.ErrInvalidDevice.WithUserMsg("invalid device name")
	}

	return nil
}
