//
// subscriptions.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/repository"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

type SubscriptionsSrv struct {
	db           *db.Database
	usersRepo    repository.Users
	devicesRepo  repository.Devices
	podcastsRepo repository.Podcasts
	subsRepo     repository.Subscriptions
	podcasts     *PodcastsSrv
}

func NewSubscriptionsSrv(i do.Injector) (*SubscriptionsSrv, error) {
	return &SubscriptionsSrv{
		db:           do.MustInvoke[*db.Database](i),
		usersRepo:    do.MustInvoke[repository.Users](i),
		devicesRepo:  do.MustInvoke[repository.Devices](i),
		podcastsRepo: do.MustInvoke[repository.Podcasts](i),
		subsRepo:     do.MustInvoke[repository.Subscriptions](i),
		podcasts:     do.MustInvoke[*PodcastsSrv](i),
	}, nil
}

type syncResult struct {
	delta  *model.SubscriptionDelta
	minted []*model.Podcast
}

// ReplaceSubscriptions set full subscription list of one device; actions
// appended to the log are computed as difference against current state, so
// resending the same list create no new entries. Unknown podcasts from the
// list are created as placeholders; missing device is created, deleted one
// restored.
func (s *SubscriptionsSrv) ReplaceSubscriptions(ctx context.Context, cmd *command.ReplaceSubscriptionsCmd,
) (*model.SubscriptionDelta, error) {
	if cmd == nil {
		panic("cmd is nil")
	}

	rewritten := cmd.Sanitize()

	if err := cmd.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate subscriptions to replace failed")
	}

	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	res, err := db.InTransactionR(ctx, s.db, func(ctx context.Context) (syncResult, error) {
		user, err := s.getUser(ctx, cmd.Username)
		if err != nil {
			return syncResult{}, err
		}

		device, err := s.getOrCreateDevice(ctx, user.ID, cmd.Devicename)
		if err != nil {
			return syncResult{}, err
		}

		current, err := s.subsRepo.ListActivePodcasts(ctx, device.ID)
		if err != nil {
			return syncResult{}, aerr.ApplyFor(ErrRepositoryError, err)
		}

		currentURLs := make(map[string]bool, len(current))
		for _, podcast := range current {
			currentURLs[podcast.URL] = true
		}

		mint := s.newMintCache(ctx, ts)
		submitted := make(map[string]bool, len(cmd.Subscriptions))

		var (
			added     []string
			subscribe []int64
		)

		for _, url := range cmd.Subscriptions {
			if submitted[url] {
				continue
			}

			submitted[url] = true

			if currentURLs[url] {
				// already subscribed
				continue
			}

			mp, err := mint.GetOrCreate(url)
			if err != nil {
				return syncResult{}, err
			}

			added = append(added, url)
			subscribe = append(subscribe, mp.podcast.ID)
		}

		var (
			removed     []string
			unsubscribe []int64
		)

		for _, podcast := range current {
			if !submitted[podcast.URL] {
				removed = append(removed, podcast.URL)
				unsubscribe = append(unsubscribe, podcast.ID)
			}
		}

		if err := s.subsRepo.AppendActions(ctx, device.ID, ts, subscribe, unsubscribe); err != nil {
			return syncResult{}, aerr.ApplyFor(ErrRepositoryError, err)
		}

		if err := s.devicesRepo.TouchDevice(ctx, device.ID, ts); err != nil {
			return syncResult{}, aerr.ApplyFor(ErrRepositoryError, err)
		}

		delta := &model.SubscriptionDelta{
			Added:     added,
			Removed:   removed,
			Rewritten: rewritten,
			Timestamp: ts,
		}

		return syncResult{delta, mintedOf(mint)}, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	s.podcasts.PodcastsMinted(ctx, res.minted)
	common.TraceLazyPrintf(ctx, "SubscriptionsSrv: replace done, added=%d removed=%d",
		len(res.delta.Added), len(res.delta.Removed))

	zerolog.Ctx(ctx).Info().
		Int("added", len(res.delta.Added)).
		Int("removed", len(res.delta.Removed)).
		Str("device", cmd.Devicename).
		Msg("subscriptions replaced")

	return res.delta, nil
}

// ChangeSubscriptions apply incremental add / remove changes on one device.
// Added unknown podcasts are created as placeholders; removed unknown urls
// are skipped.
func (s *SubscriptionsSrv) ChangeSubscriptions(ctx context.Context, cmd *command.ChangeSubscriptionsCmd,
) (*command.ChangeSubscriptionsCmdResult, error) {
	if cmd == nil {
		panic("cmd is nil")
	}

	rewritten := cmd.Sanitize()

	if err := cmd.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate subscriptions changes failed")
	}

	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	minted, err := db.InTransactionR(ctx, s.db, func(ctx context.Context) ([]*model.Podcast, error) {
		user, err := s.getUser(ctx, cmd.Username)
		if err != nil {
			return nil, err
		}

		device, err := s.getOrCreateDevice(ctx, user.ID, cmd.Devicename)
		if err != nil {
			return nil, err
		}

		mint := s.newMintCache(ctx, ts)

		var subscribe []int64

		for _, url := range cmd.Add {
			mp, err := mint.GetOrCreate(url)
			if err != nil {
				return nil, err
			}

			if !slices.Contains(subscribe, mp.podcast.ID) {
				subscribe = append(subscribe, mp.podcast.ID)
			}
		}

		var unsubscribe []int64

		for _, url := range cmd.Remove {
			ref, err := s.podcastsRepo.ResolveByURL(ctx, url)
			if errors.Is(err, common.ErrNoData) {
				// unsubscribe of never seen podcast; nothing to log
				zerolog.Ctx(ctx).Debug().Str("url", url).Msg("removed url unknown; skipped")

				continue
			} else if err != nil {
				return nil, aerr.ApplyFor(ErrRepositoryError, err)
			}

			if !slices.Contains(unsubscribe, ref.Podcast.ID) {
				unsubscribe = append(unsubscribe, ref.Podcast.ID)
			}
		}

		if err := s.subsRepo.AppendActions(ctx, device.ID, ts, subscribe, unsubscribe); err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		if err := s.devicesRepo.TouchDevice(ctx, device.ID, ts); err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		return mintedOf(mint), nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	s.podcasts.PodcastsMinted(ctx, minted)
	common.TraceLazyPrintf(ctx, "SubscriptionsSrv: change done, add=%d remove=%d",
		len(cmd.Add), len(cmd.Remove))

	return &command.ChangeSubscriptionsCmdResult{ChangedURLs: rewritten, Timestamp: ts}, nil
}

// GetDeviceSubscriptions return podcasts currently subscribed on device.
func (s *SubscriptionsSrv) GetDeviceSubscriptions(ctx context.Context, q *query.GetSubscriptionsQuery,
) (model.Podcasts, error) {
	if q == nil {
		panic("query is nil")
	}

	if err := q.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate query failed")
	}

	//nolint:wrapcheck
	return db.InConnectionR(ctx, s.db, func(ctx context.Context) (model.Podcasts, error) {
		user, err := s.getUser(ctx, q.UserName)
		if err != nil {
			return nil, err
		}

		device, err := s.getUserDevice(ctx, user.ID, q.DeviceName)
		if err != nil {
			return nil, err
		}

		subs, err := s.subsRepo.ListActivePodcasts(ctx, device.ID)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		s.touchDevice(ctx, device.ID)

		return subs, nil
	})
}

// GetUserSubscriptions return podcasts subscribed on any not deleted user
// device.
func (s *SubscriptionsSrv) GetUserSubscriptions(ctx context.Context, q *query.GetUserSubscriptionsQuery,
) (model.Podcasts, error) {
	if q == nil {
		panic("query is nil")
	}

	if err := q.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate query failed")
	}

	//nolint:wrapcheck
	return db.InConnectionR(ctx, s.db, func(ctx context.Context) (model.Podcasts, error) {
		user, err := s.getUser(ctx, q.UserName)
		if err != nil {
			return nil, err
		}

		subs, err := s.subsRepo.ListUserPodcasts(ctx, user.ID)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		return subs, nil
	})
}

// GetSubscriptionChanges return urls subscribed and unsubscribed on device
// after given time, squashed to the newest action per podcast. Returned
// timestamp is server time for use as `since` in next request.
func (s *SubscriptionsSrv) GetSubscriptionChanges(ctx context.Context, q *query.GetSubscriptionChangesQuery,
) (*model.SubscriptionChanges, error) {
	if q == nil {
		panic("query is nil")
	}

	if err := q.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate query failed")
	}

	ts := time.Now().UTC()

	//nolint:wrapcheck
	return db.InConnectionR(ctx, s.db, func(ctx context.Context) (*model.SubscriptionChanges, error) {
		user, err := s.getUser(ctx, q.UserName)
		if err != nil {
			return nil, err
		}

		device, err := s.getUserDevice(ctx, user.ID, q.DeviceName)
		if err != nil {
			return nil, err
		}

		add, remove, err := s.subsRepo.ListChanges(ctx, device.ID, q.Since)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		if add == nil {
			add = []string{}
		}

		if remove == nil {
			remove = []string{}
		}

		s.touchDevice(ctx, device.ID)

		return &model.SubscriptionChanges{Add: add, Remove: remove, Timestamp: ts}, nil
	})
}

// ------------------------------------------------------

// mintedPodcast is podcast touched during sync with flag whether its row
// was created by this request.
type mintedPodcast struct {
	podcast *model.Podcast
	created bool
}

func (s *SubscriptionsSrv) newMintCache(ctx context.Context, ts time.Time) *DynamicCache[string, mintedPodcast] {
	return &DynamicCache[string, mintedPodcast]{
		items: make(map[string]mintedPodcast),
		creator: func(url string) (mintedPodcast, error) {
			podcast, created, err := s.podcastsRepo.GetOrCreatePodcast(ctx, url, ts)
			if err != nil {
				return mintedPodcast{}, aerr.ApplyFor(ErrRepositoryError, err, "get or create podcast failed")
			}

			return mintedPodcast{podcast, created}, nil
		},
	}
}

func mintedOf(cache *DynamicCache[string, mintedPodcast]) []*model.Podcast {
	var minted []*model.Podcast

	for _, mp := range cache.GetUsedValues() {
		if mp.created {
			minted = append(minted, mp.podcast)
		}
	}

	return minted
}

func (s *SubscriptionsSrv) getUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.usersRepo.GetUser(ctx, username)
	if errors.Is(err, common.ErrNoData) {
		return nil, common.ErrUnknownUser
	} else if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	return user, nil
}

func (s *SubscriptionsSrv) getUserDevice(ctx context.Context, userid int64, devicename string) (*model.Device, error) {
	device, err := s.devicesRepo.GetDevice(ctx, userid, devicename)
	if errors.Is(err, common.ErrNoData) {
		return nil, common.ErrUnknownDevice
	} else if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	if device.Deleted {
		// deleted devices are hidden until next sync restore them
		return nil, common.ErrUnknownDevice
	}

	return device, nil
}

func (s *SubscriptionsSrv) getOrCreateDevice(ctx context.Context, userid int64, devicename string,
) (*model.Device, error) {
	if !validators.IsValidDevName(devicename) {
		return nil, common.ErrInvalidDevice
	}

	device, err := s.devicesRepo.GetDevice(ctx, userid, devicename)

	switch {
	case errors.Is(err, common.ErrNoData):
		// first sync of this device
		device = &model.Device{Name: devicename, DevType: model.DefaultDevType, Caption: devicename}

		id, err := s.devicesRepo.SaveDevice(ctx, userid, device)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err, "create device failed")
		}

		device.ID = id

		return device, nil
	case err != nil:
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	if device.Deleted {
		// device come back; restore it
		if err := s.devicesRepo.SetDeviceDeleted(ctx, device.ID, false); err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		device.Deleted = false
	}

	return device, nil
}

func (s *SubscriptionsSrv) touchDevice(ctx context.Context, deviceid int64) {
	if err := s.devicesRepo.TouchDevice(ctx, deviceid, time.Now().UTC()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("device_id", deviceid).Msg("update device last seen failed")
	}
}
