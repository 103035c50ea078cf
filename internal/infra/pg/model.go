package pg

// model.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/model"
)

type UserDB struct {
	ID        int64     `db:"id"`
	UserName  string    `db:"username"`
	Password  string    `db:"password"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u *UserDB) toModel() *model.User {
	return &model.User{
		ID:       u.ID,
		UserName: u.UserName,
		Password: u.Password,
		Email:    u.Email,
		Name:     u.Name,
		Locked:   u.Password == model.UserLockedPassword,
	}
}

func usersFromDB(users []UserDB) []model.User {
	return common.Map(users, func(u *UserDB) model.User { return *u.toModel() })
}

//------------------------------------------------------------------------------

type DeviceDB struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Name       string    `db:"name"`
	DevType    string    `db:"dev_type"`
	Caption    string    `db:"caption"`
	Deleted    bool      `db:"deleted"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	LastSeenAt time.Time `db:"last_seen_at"`

	Subscriptions int `db:"subscriptions"`
}

func (d *DeviceDB) toModel() *model.Device {
	return &model.Device{
		ID:            d.ID,
		Name:          d.Name,
		DevType:       d.DevType,
		Caption:       d.Caption,
		Deleted:       d.Deleted,
		Subscriptions: d.Subscriptions,
		UpdatedAt:     d.UpdatedAt,
		LastSeenAt:    d.LastSeenAt,
	}
}

func (d *DeviceDB) MarshalZerologObject(event *zerolog.Event) {
	event.Int64("id", d.ID).
		Int64("user_id", d.UserID).
		Str("name", d.Name).
		Str("type", d.DevType).
		Bool("deleted", d.Deleted)
}

func devicesFromDB(devices []DeviceDB) []model.Device {
	return common.Map(devices, func(d *DeviceDB) model.Device { return *d.toModel() })
}

//------------------------------------------------------------------------------

type PodcastDB struct {
	ID          int64         `db:"id"`
	XID         string        `db:"xid"`
	URL         string        `db:"url"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	Website     string        `db:"website"`
	Language    string        `db:"language"`
	LogoURL     string        `db:"logo_url"`
	GroupID     sql.NullInt64 `db:"group_id"`
	Revision    int64         `db:"revision"`

	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
	MetaUpdatedAt sql.NullTime `db:"meta_updated_at"`

	Subscribers         int `db:"subscribers"`
	SubscribersLastWeek int `db:"subscribers_last_week"`
}

func (p *PodcastDB) toModel() *model.Podcast {
	podcast := &model.Podcast{
		ID:                  p.ID,
		XID:                 p.XID,
		URL:                 p.URL,
		Title:               p.Title,
		Description:         p.Description,
		Website:             p.Website,
		Language:            p.Language,
		LogoURL:             p.LogoURL,
		Revision:            p.Revision,
		Subscribers:         p.Subscribers,
		SubscribersLastWeek: p.SubscribersLastWeek,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		MetaUpdatedAt:       p.MetaUpdatedAt.Time,
	}

	if p.GroupID.Valid {
		groupid := p.GroupID.Int64
		podcast.GroupID = &groupid
	}

	return podcast
}

func podcastsFromDB(podcasts []PodcastDB) model.Podcasts {
	return common.Map(podcasts, func(p *PodcastDB) model.Podcast { return *p.toModel() })
}

// podcastColumns is select list shared by queries returning whole podcast;
// expect podcasts aliased as p and podcast_stats left joined as st.
const podcastColumns = `p.id, p.xid, p.url, p.title, p.description, p.website,
	p.language, p.logo_url, p.group_id, p.revision,
	p.created_at, p.updated_at, p.meta_updated_at,
	COALESCE(st.subscribers, 0) AS subscribers,
	COALESCE(st.subscribers_last_week, 0) AS subscribers_last_week`

//------------------------------------------------------------------------------

type resolvedRefDB struct {
	PodcastDB

	RefGroupID sql.NullInt64 `db:"ref_group_id"`
}

//------------------------------------------------------------------------------

type podcastGroupDB struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

func (g *podcastGroupDB) toModel() *model.PodcastGroup {
	return &model.PodcastGroup{
		ID:    g.ID,
		Title: g.Title,
	}
}

//------------------------------------------------------------------------------

type changeDB struct {
	URL    string `db:"url"`
	Action string `db:"action"`
}
