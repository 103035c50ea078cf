package repository

//
// repository.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"time"

	"gitlab.com/kabes/go-poddir/internal/model"
)

// Users is repository for user accounts.
type Users interface {
	// GetUser load user by username; return common.ErrNoData when not found.
	GetUser(ctx context.Context, username string) (*model.User, error)
	// SaveUser insert or update user; return user id.
	SaveUser(ctx context.Context, user *model.User) (int64, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, userid int64) error
}

// Devices is repository for user devices.
type Devices interface {
	// GetDevice load device by owner and name; deleted devices are
	// also returned. Return common.ErrNoData when not found.
	GetDevice(ctx context.Context, userid int64, devicename string) (*model.Device, error)
	// SaveDevice insert or update device owned by userid; return device id.
	SaveDevice(ctx context.Context, userid int64, device *model.Device) (int64, error)
	// ListDevices load user devices, optionally including ones marked
	// as deleted. Subscriptions count is filled from the log projection.
	ListDevices(ctx context.Context, userid int64, includeDeleted bool) ([]model.Device, error)
	// SetDeviceDeleted mark device as deleted or restore it.
	SetDeviceDeleted(ctx context.Context, deviceid int64, deleted bool) error
	// TouchDevice update device last seen timestamp.
	TouchDevice(ctx context.Context, deviceid int64, ts time.Time) error
}

// Podcasts is repository for podcasts, their identifiers and groups.
type Podcasts interface {
	GetPodcast(ctx context.Context, podcastid int64) (*model.Podcast, error)
	// GetOrCreatePodcast load podcast by feed url, creating a placeholder
	// entry when missing. Second result is true when row was created.
	GetOrCreatePodcast(ctx context.Context, url string, now time.Time) (*model.Podcast, bool, error)
	// SavePodcastMeta store fetched metadata when revision match;
	// return common.ErrWriteConflict on concurrent change.
	SavePodcastMeta(ctx context.Context, update *model.PodcastMetaUpdate) error

	// ResolveByURL find podcast by exact feed url.
	// All Resolve* methods return common.ErrNoData when identifier is unknown.
	ResolveByURL(ctx context.Context, url string) (*ResolvedRef, error)
	ResolveByXID(ctx context.Context, xid string) (*ResolvedRef, error)
	// ResolveBySlug find podcast or podcast group by slug.
	ResolveBySlug(ctx context.Context, slug string) (*ResolvedRef, error)
	// ResolveByOldID find podcast or podcast group by numeric id from
	// the legacy directory.
	ResolveByOldID(ctx context.Context, oldid int64) (*ResolvedRef, error)
	// ResolveManyByXID load podcasts for xids in one query; result map
	// contain only found entries.
	ResolveManyByXID(ctx context.Context, xids []string) (map[string]*model.Podcast, error)

	// AssignSlug bind slug to podcast, optionally in context of its group.
	AssignSlug(ctx context.Context, slug string, podcastid int64, groupid *int64) error
	AssignOldID(ctx context.Context, oldid int64, podcastid int64, groupid *int64) error

	// CreateGroup create podcast group and move given podcasts into it;
	// return group id.
	CreateGroup(ctx context.Context, title string, podcastids []int64) (int64, error)
	GetGroup(ctx context.Context, groupid int64) (*model.PodcastGroup, error)

	// ListPodcastsToUpdate load podcasts with missing or stale metadata,
	// oldest first.
	ListPodcastsToUpdate(ctx context.Context, staleBefore time.Time, limit int) (model.Podcasts, error)
	ListPodcasts(ctx context.Context) (model.Podcasts, error)
}

// Subscriptions is repository for the per device subscription log.
type Subscriptions interface {
	// AppendActions append subscribe / unsubscribe actions for device
	// with given timestamp. Order of actions inside one call is preserved.
	AppendActions(ctx context.Context, deviceid int64, ts time.Time,
		subscribe, unsubscribe []int64) error
	// ListActivePodcasts load podcasts whose newest log entry for device
	// is a subscribe action.
	ListActivePodcasts(ctx context.Context, deviceid int64) (model.Podcasts, error)
	// ListUserPodcasts load podcasts subscribed on any not deleted user
	// device.
	ListUserPodcasts(ctx context.Context, userid int64) (model.Podcasts, error)
	// ListChanges load feed urls subscribed and unsubscribed on device
	// strictly after since, squashed to the newest action per podcast.
	ListChanges(ctx context.Context, deviceid int64, since time.Time) (add, remove []string, err error)
}

// Stats is repository for subscriber counters and toplists.
type Stats interface {
	// RefreshStats recalculate per podcast subscriber counters from
	// the subscription log; previous values are kept as last week ones
	// when weekShift is true.
	RefreshStats(ctx context.Context, weekShift bool) error
	// GetToplist load podcasts ordered by subscribers count.
	GetToplist(ctx context.Context, limit int) (model.Toplist, error)
}

// Maintenance is repository for periodic data cleanup tasks.
type Maintenance interface {
	Maintenance(ctx context.Context) error
}
