//
// podcasts.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/notify"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/repository"
	"gitlab.com/kabes/go-poddir/internal/search"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

const (
	// resolveCacheTTL limit how long resolved podcast may be served
	// without hitting database.
	resolveCacheTTL = time.Hour
	// metaStaleAge is age of podcast metadata after which refresh is
	// requested.
	metaStaleAge = 7 * 24 * time.Hour
)

type PodcastsSrv struct {
	db           *db.Database
	podcastsRepo repository.Podcasts
	cache        *TTLCache[string, model.Podcast]
	dispatcher   *notify.Dispatcher
	search       *search.Engine
}

func NewPodcastsSrv(i do.Injector) (*PodcastsSrv, error) {
	return &PodcastsSrv{
		db:           do.MustInvoke[*db.Database](i),
		podcastsRepo: do.MustInvoke[repository.Podcasts](i),
		cache:        NewTTLCache[string, model.Podcast](resolveCacheTTL),
		dispatcher:   do.MustInvoke[*notify.Dispatcher](i),
		search:       do.MustInvoke[*search.Engine](i),
	}, nil
}

// Resolve find podcast by one of supported identifiers. Unknown identifier
// return nil podcast without error. Identifiers bound to podcast group
// resolve to the group representative member.
func (p *PodcastsSrv) Resolve(ctx context.Context, q *query.PodcastRefQuery) (*model.Podcast, error) {
	if q == nil {
		panic("query is nil")
	}

	if err := q.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate podcast ref failed")
	}

	key := refCacheKey(q)
	if podcast, ok := p.cache.Get(key); ok {
		return &podcast, nil
	}

	epoch := p.cache.Epoch()

	ref, err := db.InConnectionR(ctx, p.db, func(ctx context.Context) (*repository.ResolvedRef, error) {
		return p.resolveRef(ctx, q)
	})

	if errors.Is(err, common.ErrNoData) {
		// unknown identifier is not an error
		return nil, nil //nolint:nilnil
	} else if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	podcast := ref.Podcast
	p.cache.Put(key, podcast, epoch)
	p.checkAndNotify(ctx, &podcast)
	common.TraceLazyPrintf(ctx, "PodcastsSrv: resolve miss, ref=%s", key)

	return &podcast, nil
}

// ResolveMany load podcasts for given xids; one slot per unique xid, nil
// for unknown ones.
func (p *PodcastsSrv) ResolveMany(ctx context.Context, xids []string) (map[string]*model.Podcast, error) {
	res := make(map[string]*model.Podcast, len(xids))

	var missing []string

	for _, xid := range xids {
		if xid == "" {
			continue
		}

		if _, ok := res[xid]; ok {
			continue
		}

		if podcast, ok := p.cache.Get("x:" + xid); ok {
			res[xid] = &podcast
		} else {
			res[xid] = nil
			missing = append(missing, xid)
		}
	}

	if len(missing) == 0 {
		return res, nil
	}

	epoch := p.cache.Epoch()

	found, err := db.InConnectionR(ctx, p.db, func(ctx context.Context) (map[string]*model.Podcast, error) {
		return p.podcastsRepo.ResolveManyByXID(ctx, missing)
	})
	if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	for _, xid := range missing {
		podcast, ok := found[xid]
		if !ok {
			continue
		}

		res[xid] = podcast
		p.cache.Put("x:"+xid, *podcast, epoch)
		p.checkAndNotify(ctx, podcast)
	}

	return res, nil
}

// Search query full text index; index or database failures degrade to
// empty result. Second result is total number of index matches.
func (p *PodcastsSrv) Search(ctx context.Context, q *query.SearchQuery) (model.Podcasts, uint64, error) {
	if q == nil {
		panic("query is nil")
	}

	q.Normalize()

	logger := zerolog.Ctx(ctx)

	xids, total, err := p.search.Search(ctx, q.Q, q.Limit)
	if err != nil {
		logger.Warn().Err(err).Str("query", q.Q).Msg("search failed; returning empty result")
		common.TraceErrorLazyPrintf(ctx, "PodcastsSrv: search failed: %s", err)

		return nil, 0, nil
	}

	if len(xids) == 0 {
		return nil, 0, nil
	}

	found, err := db.InConnectionR(ctx, p.db, func(ctx context.Context) (map[string]*model.Podcast, error) {
		return p.podcastsRepo.ResolveManyByXID(ctx, xids)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("load found podcasts failed; returning empty result")

		return nil, 0, nil
	}

	podcasts := make(model.Podcasts, 0, len(xids))

	for _, xid := range xids {
		// entries missing in database are stale index leftovers
		if podcast, ok := found[xid]; ok {
			podcasts = append(podcasts, *podcast)
		}
	}

	return podcasts, total, nil
}

//------------------------------------------------------------------------------

// MergePodcasts create group from podcasts selected by feed urls. All urls
// must point at known, not grouped podcasts.
func (p *PodcastsSrv) MergePodcasts(ctx context.Context, cmd *command.MergePodcastsCmd) (*model.PodcastGroup, error) {
	if cmd == nil {
		panic("cmd is nil")
	}

	if err := cmd.Validate(); err != nil {
		return nil, aerr.Wrapf(err, "validate podcasts to merge failed")
	}

	group, err := db.InTransactionR(ctx, p.db, func(ctx context.Context) (*model.PodcastGroup, error) {
		podcastids := make([]int64, 0, len(cmd.URLs))

		for _, url := range cmd.URLs {
			url = validators.SanitizeURL(url)

			ref, err := p.podcastsRepo.ResolveByURL(ctx, url)
			if errors.Is(err, common.ErrNoData) {
				return nil, common.ErrUnknownPodcast.WithUserMsg("unknown podcast: %s", url)
			} else if err != nil {
				return nil, aerr.ApplyFor(ErrRepositoryError, err)
			}

			if ref.Podcast.GroupID != nil {
				return nil, aerr.ErrValidation.WithUserMsg("podcast %s already belong to group", url)
			}

			if !slices.Contains(podcastids, ref.Podcast.ID) {
				podcastids = append(podcastids, ref.Podcast.ID)
			}
		}

		groupid, err := p.podcastsRepo.CreateGroup(ctx, cmd.Title, podcastids)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		group, err := p.podcastsRepo.GetGroup(ctx, groupid)
		if err != nil {
			return nil, aerr.ApplyFor(ErrRepositoryError, err)
		}

		return group, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	p.cache.Clear()

	return group, nil
}

// AssignAlias bind slug or legacy numeric id to podcast or, with AsGroup,
// to its group.
func (p *PodcastsSrv) AssignAlias(ctx context.Context, cmd *command.AssignPodcastAliasCmd) error {
	if cmd == nil {
		panic("cmd is nil")
	}

	if err := cmd.Validate(); err != nil {
		return aerr.Wrapf(err, "validate alias to assign failed")
	}

	err := db.InTransaction(ctx, p.db, func(ctx context.Context) error {
		ref, err := p.podcastsRepo.ResolveByURL(ctx, validators.SanitizeURL(cmd.URL))
		if errors.Is(err, common.ErrNoData) {
			return common.ErrUnknownPodcast
		} else if err != nil {
			return aerr.ApplyFor(ErrRepositoryError, err)
		}

		podcast := ref.Podcast

		var groupid *int64

		if cmd.AsGroup {
			if podcast.GroupID == nil {
				return aerr.ErrValidation.WithUserMsg("podcast %s is not in any group", podcast.URL)
			}

			groupid = podcast.GroupID
		}

		if cmd.Slug != "" {
			err := p.podcastsRepo.AssignSlug(ctx, cmd.Slug, podcast.ID, groupid)
			if errors.Is(err, common.ErrWriteConflict) {
				return aerr.ErrValidation.WithUserMsg("slug %q is already assigned", cmd.Slug)
			} else if err != nil {
				return aerr.ApplyFor(ErrRepositoryError, err)
			}
		}

		if cmd.OldID != 0 {
			err := p.podcastsRepo.AssignOldID(ctx, cmd.OldID, podcast.ID, groupid)
			if errors.Is(err, common.ErrWriteConflict) {
				return aerr.ErrValidation.WithUserMsg("old id %d is already assigned", cmd.OldID)
			} else if err != nil {
				return aerr.ApplyFor(ErrRepositoryError, err)
			}
		}

		return nil
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	p.cache.Clear()

	return nil
}

//------------------------------------------------------------------------------

func (p *PodcastsSrv) GetAllPodcasts(ctx context.Context) (model.Podcasts, error) {
	podcasts, err := db.InConnectionR(ctx, p.db, func(ctx context.Context) (model.Podcasts, error) {
		return p.podcastsRepo.ListPodcasts(ctx)
	})
	if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	return podcasts, nil
}

// RebuildSearchIndex reindex all podcasts; return number of indexed
// documents.
func (p *PodcastsSrv) RebuildSearchIndex(ctx context.Context) (int, error) {
	podcasts, err := p.GetAllPodcasts(ctx)
	if err != nil {
		return 0, err
	}

	batch := make([]*model.Podcast, len(podcasts))
	for i := range podcasts {
		batch[i] = &podcasts[i]
	}

	if err := p.search.IndexPodcasts(batch...); err != nil {
		return 0, aerr.Wrapf(err, "index podcasts failed")
	}

	return len(podcasts), nil
}

// PodcastsMinted handle placeholders created during subscriptions sync:
// invalidate resolve cache, index new entries and announce them.
func (p *PodcastsSrv) PodcastsMinted(ctx context.Context, minted []*model.Podcast) {
	if len(minted) == 0 {
		return
	}

	p.cache.Clear()

	if err := p.search.IndexPodcasts(minted...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("index new podcasts failed")
	}

	for _, podcast := range minted {
		p.dispatcher.Notify(notify.NewEvent(notify.EventPodcastCreated, podcast))
	}
}

// PodcastUpdated handle metadata refresh: invalidate resolve cache,
// reindex podcast and announce change.
func (p *PodcastsSrv) PodcastUpdated(ctx context.Context, podcast *model.Podcast) {
	p.cache.Clear()

	if err := p.search.IndexPodcasts(podcast); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("index updated podcast failed")
	}

	p.dispatcher.Notify(notify.NewEvent(notify.EventPodcastUpdated, podcast))
}

// InvalidateCache drop all cached resolutions.
func (p *PodcastsSrv) InvalidateCache() {
	p.cache.Clear()
}

//------------------------------------------------------------------------------

func (p *PodcastsSrv) resolveRef(ctx context.Context, q *query.PodcastRefQuery) (*repository.ResolvedRef, error) {
	switch {
	case q.URL != "":
		return p.podcastsRepo.ResolveByURL(ctx, q.URL)
	case q.XID != "":
		return p.podcastsRepo.ResolveByXID(ctx, q.XID)
	case q.Slug != "":
		return p.podcastsRepo.ResolveBySlug(ctx, q.Slug)
	default:
		return p.podcastsRepo.ResolveByOldID(ctx, q.OldID)
	}
}

func (p *PodcastsSrv) checkAndNotify(ctx context.Context, podcast *model.Podcast) {
	if !podcast.NeedsUpdate() && time.Since(podcast.MetaUpdatedAt) < metaStaleAge {
		return
	}

	zerolog.Ctx(ctx).Debug().Object("podcast", podcast).Msg("podcast metadata outdated")
	p.dispatcher.Notify(notify.NewEvent(notify.EventPodcastOutdated, podcast))
}

func refCacheKey(q *query.PodcastRefQuery) string {
	switch {
	case q.URL != "":
		return "u:" + q.URL
	case q.XID != "":
		return "x:" + q.XID
	case q.Slug != "":
		return "s:" + q.Slug
	default:
		return "o:" + strconv.FormatInt(q.OldID, 10)
	}
}
