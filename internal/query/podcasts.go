package query

//
// podcasts.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/rs/zerolog"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
)

// PodcastRefQuery select one podcast by exactly one identifier: feed url,
// public xid, slug or legacy numeric id.
type PodcastRefQuery struct {
	URL   string
	XID   string
	Slug  string
	OldID int64
}

func (q *PodcastRefQuery) Validate() error {
	given := 0

	if q.URL != "" {
		given++
	}

	if q.XID != "" {
		given++
	}

	if q.Slug != "" {
		given++
	}

	if q.OldID != 0 {
		given++
	}

	switch {
	case given == 0:
		return common.ErrMissingParameter.WithUserMsg("podcast identifier is required")
	case given > 1:
		return aerr.ErrValidation.WithUserMsg("only one podcast identifier is allowed")
	}

	return nil
}

func (q *PodcastRefQuery) MarshalZerologObject(event *zerolog.Event) {
	event.Str("url", q.URL).
		Str("xid", q.XID).
		Str("slug", q.Slug).
		Int64("oldid", q.OldID)
}

//------------------------------------------------------------------------------

const (
	toplistMaxCount     = 99
	toplistDefaultCount = 100
)

type ToplistQuery struct {
	Count int
}

// Normalize coerce count outside of 1..99 range to default 100.
func (q *ToplistQuery) Normalize() {
	if q.Count < 1 || q.Count > toplistMaxCount {
		q.Count = toplistDefaultCount
	}
}

//------------------------------------------------------------------------------

const searchDefaultLimit = 20

type SearchQuery struct {
	Q     string
	Limit int
}

// Normalize apply default result limit.
func (q *SearchQuery) Normalize() {
	if q.Limit <= 0 || q.Limit > 100 { //nolint:mnd
		q.Limit = searchDefaultLimit
	}
}
