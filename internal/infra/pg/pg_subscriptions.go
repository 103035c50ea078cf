package pg

//
// pg_subscriptions.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
)

func (s Repository) AppendActions(
	ctx context.Context,
	deviceid int64,
	ts time.Time,
	subscribe, unsubscribe []int64,
) error {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("device_id", deviceid).
		Int("subscribe", len(subscribe)).Int("unsubscribe", len(unsubscribe)).
		Msg("pg.Repository: append subscription actions")

	dbctx := db.MustCtx(ctx)

	stmt, err := dbctx.PrepareContext(ctx,
		"INSERT INTO subscription_log (device_id, podcast_id, action, created_at) VALUES($1, $2, $3, $4)")
	if err != nil {
		return aerr.Wrapf(err, "prepare insert action failed")
	}

	defer stmt.Close()

	for _, podcastid := range subscribe {
		if _, err := stmt.ExecContext(ctx, deviceid, podcastid, model.ActionSubscribe, ts); err != nil {
			return aerr.Wrapf(err, "insert subscribe action failed").
				WithMeta("device_id", deviceid, "podcast_id", podcastid)
		}
	}

	for _, podcastid := range unsubscribe {
		if _, err := stmt.ExecContext(ctx, deviceid, podcastid, model.ActionUnsubscribe, ts); err != nil {
			return aerr.Wrapf(err, "insert unsubscribe action failed").
				WithMeta("device_id", deviceid, "podcast_id", podcastid)
		}
	}

	return nil
}

func (s Repository) ListActivePodcasts(ctx context.Context, deviceid int64) (model.Podcasts, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("device_id", deviceid).
		Msgf("pg.Repository: list active podcasts device_id=%d", deviceid)

	dbctx := db.MustCtx(ctx)
	podcasts := []PodcastDB{}

	err := dbctx.SelectContext(ctx, &podcasts, `
		SELECT `+podcastColumns+`
		FROM (
			SELECT podcast_id, action,
				ROW_NUMBER() OVER (PARTITION BY podcast_id ORDER BY created_at DESC, id DESC) AS rn
			FROM subscription_log
			WHERE device_id=$1
		) AS l
		JOIN podcasts p ON p.id = l.podcast_id
		LEFT JOIN podcast_stats st ON st.podcast_id = p.id
		WHERE l.rn=1 AND l.action='subscribe'
		ORDER BY p.url`,
		deviceid)
	if err != nil {
		return nil, aerr.Wrapf(err, "select active podcasts failed").WithMeta("device_id", deviceid)
	}

	return podcastsFromDB(podcasts), nil
}

func (s Repository) ListUserPodcasts(ctx context.Context, userid int64) (model.Podcasts, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("user_id", userid).Msgf("pg.Repository: list user podcasts user_id=%d", userid)

	dbctx := db.MustCtx(ctx)
	podcasts := []PodcastDB{}

	err := dbctx.SelectContext(ctx, &podcasts, `
		SELECT DISTINCT `+podcastColumns+`
		FROM (
			SELECT l.podcast_id, l.action,
				ROW_NUMBER() OVER (PARTITION BY l.device_id, l.podcast_id
					ORDER BY l.created_at DESC, l.id DESC) AS rn
			FROM subscription_log l
			JOIN devices d ON d.id = l.device_id
			WHERE d.user_id=$1 AND NOT d.deleted
		) AS a
		JOIN podcasts p ON p.id = a.podcast_id
		LEFT JOIN podcast_stats st ON st.podcast_id = p.id
		WHERE a.rn=1 AND a.action='subscribe'
		ORDER BY p.url`,
		userid)
	if err != nil {
		return nil, aerr.Wrapf(err, "select user podcasts failed").WithMeta("user_id", userid)
	}

	return podcastsFromDB(podcasts), nil
}

func (s Repository) ListChanges(
	ctx context.Context,
	deviceid int64,
	since time.Time,
) ([]string, []string, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("device_id", deviceid).Time("since", since).
		Msg("pg.Repository: list changes")

	dbctx := db.MustCtx(ctx)
	changes := []changeDB{}

	err := dbctx.SelectContext(ctx, &changes, `
		SELECT p.url, c.action
		FROM (
			SELECT podcast_id, action,
				ROW_NUMBER() OVER (PARTITION BY podcast_id ORDER BY created_at DESC, id DESC) AS rn
			FROM subscription_log
			WHERE device_id=$1 AND created_at > $2
		) AS c
		JOIN podcasts p ON p.id = c.podcast_id
		WHERE c.rn=1
		ORDER BY p.url`,
		deviceid, since)
	if err != nil {
		return nil, nil, aerr.Wrapf(err, "select changes failed").WithMeta("device_id", deviceid)
	}

	var add, remove []string

	for _, change := range changes {
		if change.Action == model.ActionSubscribe {
			add = append(add, change.URL)
		} else {
			remove = append(remove, change.URL)
		}
	}

	return add, remove, nil
}
