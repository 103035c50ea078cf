package model

//
// podcasts.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"time"

	"github.com/rs/zerolog"
)

// Podcast is one feed in the directory. Feed url is unique; XID is public,
// stable identifier exposed in api.
type Podcast struct {
	ID          int64
	XID         string
	URL         string
	Title       string
	Description string
	Website     string
	Language    string
	LogoURL     string

	// GroupID is set when podcast belong to group of duplicated feeds.
	GroupID *int64

	// Revision change on every metadata write; used to detect concurrent updates.
	Revision int64

	Subscribers         int
	SubscribersLastWeek int

	CreatedAt     time.Time
	UpdatedAt     time.Time
	MetaUpdatedAt time.Time
}

// NeedsUpdate report podcast metadata is incomplete and should be fetched.
func (p *Podcast) NeedsUpdate() bool {
	return p.Title == "" || p.Description == ""
}

// DisplayTitle return title or feed url when title is not loaded.
func (p *Podcast) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}

	return p.URL
}

func (p *Podcast) MarshalZerologObject(event *zerolog.Event) {
	event.Int64("id", p.ID).
		Str("xid", p.XID).
		Str("url", p.URL).
		Str("title", p.Title).
		Int64("revision", p.Revision).
		Int("subscribers", p.Subscribers)
}

//------------------------------------------------------------------------------

type Podcasts []Podcast

func (p Podcasts) URLs() []string {
	urls := make([]string, len(p))
	for i, podcast := range p {
		urls[i] = podcast.URL
	}

	return urls
}

//------------------------------------------------------------------------------

// PodcastGroup is set of feeds recognized as the same podcast published
// under different urls.
type PodcastGroup struct {
	ID    int64
	Title string

	// Podcasts are group members; loaded on demand.
	Podcasts Podcasts
}

//------------------------------------------------------------------------------

// PodcastMetaUpdate carry new metadata for one podcast. Revision must match
// current podcast revision or update is rejected.
type PodcastMetaUpdate struct {
	ID       int64
	Revision int64

	Title         string
	Description   string
	Website       string
	Language      string
	LogoURL       string
	MetaUpdatedAt time.Time
}
