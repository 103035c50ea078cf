package query

//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// GetUserSubscriptionsQuery select projected subscriptions of all user
// devices, optionally changed since given time.
type GetUserSubscriptionsQuery struct {
	Since    time.Time
	UserName string
}

func (q *GetUserSubscriptionsQuery) Validate() error {
	if !validators.IsValidUserName(q.UserName) {
		return common.ErrInvalidUser.WithUserMsg("invalid username")
	}

	return nil
}

func (q *GetUserSubscriptionsQuery) MarshalZerologObject(event *zerolog.Event) {
	event.Str("username", q.UserName).
		Time("since", q.Since)
}

// GetSubscriptionsQuery select projected subscriptions of one device.
type GetSubscriptionsQuery struct {
	Since      time.Time
	UserName   string
	DeviceName string
}

func (q *GetSubscriptionsQuery) Validate() error {
	switch {
	case !validators.IsValidUserName(q.UserName):
		return common.ErrInvalidUser.WithUserMsg("invalid username")
	case !validators.IsValidDevName(q.DeviceName):
		return common.ErrInvalidDevice.WithUserMsg("invalid device name")
	}

	return nil
}

func (q *GetSubscriptionsQuery) MarshalZerologObject(event *zerolog.Event) {
	event.Str("username", q.UserName).
		Str("devicename", q.DeviceName).
		Time("since", q.Since)
}

// GetSubscriptionChangesQuery select raw add/remove log entries of one
// device since given time.
type GetSubscriptionChangesQuery struct {
	Since      time.Time
	UserName   string
	DeviceName string
}

func (q *GetSubscriptionChangesQuery) Validate() error {
	switch {
	case !validators.IsValidUserName(q.UserName):
		return common.ErrInvalidUser.WithUserMsg("invalid username")
	case !validators.IsValidDevName(q.DeviceName):
		return common.ErrInvalidDevice.WithUserMsg("invalid device name")
	}

	return nil
}

func (q *GetSubscriptionChangesQuery) MarshalZerologObject(event *zerolog.Event) {
	event.Str("username", q.UserName).
		Str("devicename", q.DeviceName).
		Time("since", q.Since)
}
