package model

//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"time"

	"github.com/rs/zerolog"
)

// SubscriptionAction is one entry in device subscription log.
type SubscriptionAction struct {
	Device    string
	Podcast   string
	Action    string
	Timestamp time.Time
}

func (s *SubscriptionAction) MarshalZerologObject(event *zerolog.Event) {
	event.Str("device", s.Device).
		Str("podcast", s.Podcast).
		Str("action", s.Action).
		Time("timestamp", s.Timestamp)
}

//------------------------------------------------------------------------------

// SubscriptionChanges is state change of device subscriptions since given time.
// Timestamp is server time to use as `since` in next request.
type SubscriptionChanges struct {
	Add       []string
	Remove    []string
	Timestamp time.Time
}

//------------------------------------------------------------------------------

// SubscriptionDelta is result of applying client changes; urls are sanitized
// versions of received urls, so Rewritten carry url translations for client.
type SubscriptionDelta struct {
	Added     []string
	Removed   []string
	Rewritten [][]string
	Timestamp time.Time
}
