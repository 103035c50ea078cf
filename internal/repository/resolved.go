package repository

//
// resolved.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/rs/zerolog"

	"gitlab.com/kabes/go-poddir/internal/model"
)

// ResolvedRef is result of podcast identifier resolution. Slug and old id
// may address a whole podcast group; in that case Podcast is the group
// representative member and GroupID is set.
type ResolvedRef struct {
	Podcast model.Podcast
	GroupID *int64
}

// IsGroup report whether the identifier addressed a podcast group.
func (r *ResolvedRef) IsGroup() bool {
	return r.GroupID != nil
}

func (r *ResolvedRef) MarshalZerologObject(event *zerolog.Event) {
	event.Object("podcast", &r.Podcast)

	if r.GroupID != nil {
		event.Int64("group_id", *r.GroupID)
	}
}
