package model

//
// devices.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultDevType is assigned to devices created implicitly on first sync.
const DefaultDevType = "other"

type Device struct {
	ID      int64
	Name    string
	DevType string
	Caption string

	// Deleted devices are kept in database; they are hidden on listing
	// and restored when client sync to them again.
	Deleted bool

	Subscriptions int

	UpdatedAt  time.Time
	LastSeenAt time.Time
}

func (d *Device) MarshalZerologObject(event *zerolog.Event) {
	event.Int64("id", d.ID).
		Str("name", d.Name).
		Str("type", d.DevType).
		Str("caption", d.Caption).
		Bool("deleted", d.Deleted).
		Int("subscriptions", d.Subscriptions)
}
