//
// enrich.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/notify"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

const (
	fetchFeedTimeout = 10 * time.Second
	enrichWorkers    = 5
	enrichQueueSize  = 64
	saveMetaAttempts = 3
	noTitle          = "<no title>"
)

// FeedParser load and parse feed from url.
type FeedParser interface {
	ParseURLWithContext(url string, ctx context.Context) (*gofeed.Feed, error)
}

// EnrichSrv fetch podcast feeds and fill in directory metadata. Work come
// from two sources: podcast events queued by dispatcher and periodic scan
// for entries with stale metadata.
type EnrichSrv struct {
	db           *db.Database
	podcastsRepo repository.Podcasts
	podcasts     *PodcastsSrv
	parser       FeedParser
	queue        chan string
}

func NewEnrichSrv(i do.Injector) (*EnrichSrv, error) {
	srv := &EnrichSrv{
		db:           do.MustInvoke[*db.Database](i),
		podcastsRepo: do.MustInvoke[repository.Podcasts](i),
		podcasts:     do.MustInvoke[*PodcastsSrv](i),
		parser:       gofeed.NewParser(),
		queue:        make(chan string, enrichQueueSize),
	}

	// created and outdated podcasts are fetched out of periodic schedule
	do.MustInvoke[*notify.Dispatcher](i).AddSink(srv)

	return srv, nil
}

// Deliver implement notify.Sink; queue podcast url for fetch. Update
// events are ignored to not refetch own writes.
func (e *EnrichSrv) Deliver(_ context.Context, event *notify.Event) error {
	if event.Event == notify.EventPodcastUpdated {
		return nil
	}

	select {
	case e.queue <- event.URL:
	default:
		log.Logger.Debug().Str("url", event.URL).Msg("enrich queue full; event dropped")
	}

	return nil
}

// ProcessQueue fetch podcasts queued by events until ctx is canceled.
func (e *EnrichSrv) ProcessQueue(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("enrich queue worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("enrich queue worker stopped")

			return
		case url := <-e.queue:
			if err := e.RefreshPodcastByURL(ctx, url); err != nil {
				logger.Warn().Err(err).Str("url", url).Msg("refresh podcast failed")
			}
		}
	}
}

// RefreshPodcastByURL fetch feed of one podcast selected by url.
func (e *EnrichSrv) RefreshPodcastByURL(ctx context.Context, url string) error {
	ref, err := db.InConnectionR(ctx, e.db, func(ctx context.Context) (*repository.ResolvedRef, error) {
		return e.podcastsRepo.ResolveByURL(ctx, url)
	})

	if errors.Is(err, common.ErrNoData) {
		return common.ErrUnknownPodcast
	} else if err != nil {
		return aerr.ApplyFor(ErrRepositoryError, err)
	}

	return e.refreshPodcast(ctx, &ref.Podcast)
}

// RefreshOutdated fetch feeds of podcasts whose metadata is older than
// staleBefore, never fetched entries first. Fetch failures are logged and
// do not stop the batch; return number of processed podcasts.
func (e *EnrichSrv) RefreshOutdated(ctx context.Context, staleBefore time.Time, limit int) (int, error) {
	logger := zerolog.Ctx(ctx)

	podcasts, err := db.InConnectionR(ctx, e.db, func(ctx context.Context) (model.Podcasts, error) {
		return e.podcastsRepo.ListPodcastsToUpdate(ctx, staleBefore, limit)
	})
	if err != nil {
		return 0, aerr.ApplyFor(ErrRepositoryError, err)
	}

	if len(podcasts) == 0 {
		logger.Debug().Msg("refresh podcasts finished; nothing to update")

		return 0, nil
	}

	logger.Debug().Msgf("refresh podcasts started; found %d", len(podcasts))

	tasks := make(chan *model.Podcast, len(podcasts))

	var wg sync.WaitGroup
	for range min(len(podcasts), enrichWorkers) {
		wg.Go(func() { e.refreshWorker(ctx, tasks) })
	}

	for i := range podcasts {
		tasks <- &podcasts[i]
	}

	close(tasks)

	wg.Wait()

	logger.Info().Msgf("refresh podcasts finished, count: %d", len(podcasts))

	return len(podcasts), nil
}

//------------------------------------------------------------------------------

func (e *EnrichSrv) refreshWorker(ctx context.Context, podcasts <-chan *model.Podcast) {
	logger := zerolog.Ctx(ctx)

	for podcast := range podcasts {
		if err := e.refreshPodcast(ctx, podcast); err != nil {
			logger.Warn().Err(err).Str("podcast_url", podcast.URL).Msg("refresh podcast failed")
		}
	}
}

func (e *EnrichSrv) refreshPodcast(ctx context.Context, podcast *model.Podcast) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("podcast_url", podcast.URL).Msg("fetching podcast feed")

	fctx, cancel := context.WithTimeout(ctx, fetchFeedTimeout)
	feed, err := e.parser.ParseURLWithContext(podcast.URL, fctx)

	cancel()

	if err != nil {
		if !podcast.NeedsUpdate() {
			// keep complete metadata untouched on fetch failure
			return aerr.Wrapf(err, "fetch feed failed")
		}

		// mark placeholder as attempted so broken feeds do not block
		// the refresh queue head
		feed = &gofeed.Feed{}
	}

	title := feed.Title
	if title == "" {
		title = noTitle
	}

	logger.Debug().Str("podcast_url", podcast.URL).Msgf("got podcast title: %q", title)

	update := model.PodcastMetaUpdate{
		ID:            podcast.ID,
		Revision:      podcast.Revision,
		Title:         title,
		Description:   feed.Description,
		Website:       feed.Link,
		Language:      feed.Language,
		MetaUpdatedAt: time.Now().UTC(),
	}

	if feed.Image != nil {
		update.LogoURL = feed.Image.URL
	}

	if err := repeatOnConflict(ctx, saveMetaAttempts, func(ctx context.Context) error {
		return e.savePodcastMeta(ctx, &update)
	}); err != nil {
		return err
	}

	updated := *podcast
	updated.Title = update.Title
	updated.Description = update.Description
	updated.Website = update.Website
	updated.Language = update.Language
	updated.LogoURL = update.LogoURL
	updated.MetaUpdatedAt = update.MetaUpdatedAt

	e.podcasts.PodcastUpdated(ctx, &updated)

	return nil
}

func (e *EnrichSrv) savePodcastMeta(ctx context.Context, update *model.PodcastMetaUpdate) error {
	//nolint:wrapcheck
	return db.InTransaction(ctx, e.db, func(ctx context.Context) error {
		err := e.podcastsRepo.SavePodcastMeta(ctx, update)
		if errors.Is(err, common.ErrWriteConflict) {
			// reload revision before next attempt
			if fresh, gerr := e.podcastsRepo.GetPodcast(ctx, update.ID); gerr == nil {
				update.Revision = fresh.Revision
			}
		}

		return err //nolint:wrapcheck
	})
}
