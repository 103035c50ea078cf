package sqlite

//
// sqlite_stats.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
)

// refreshStatsSQL recalculate subscribers as number of distinct users with
// active subscription on any not deleted device.
const refreshStatsSQL = `
	INSERT INTO podcast_stats (podcast_id, subscribers, subscribers_last_week, updated_at)
	SELECT pc.podcast_id, pc.cnt, 0, CURRENT_TIMESTAMP
	FROM (
		SELECT t.podcast_id, count(DISTINCT t.user_id) AS cnt
		FROM (
			SELECT l.podcast_id, d.user_id, l.action,
				ROW_NUMBER() OVER (PARTITION BY l.device_id, l.podcast_id
					ORDER BY l.created_at DESC, l.id DESC) AS rn
			FROM subscription_log l
			JOIN devices d ON d.id = l.device_id
			WHERE NOT d.deleted
		) AS t
		WHERE t.rn=1 AND t.action='subscribe'
		GROUP BY t.podcast_id
	) AS pc
	WHERE true
	ON CONFLICT(podcast_id) DO UPDATE SET
		subscribers=excluded.subscribers, updated_at=excluded.updated_at`

func (s Repository) RefreshStats(ctx context.Context, weekShift bool) error {
	logger := log.Ctx(ctx)
	logger.Debug().Bool("week_shift", weekShift).Msg("refresh podcast stats")

	dbctx := db.MustCtx(ctx)

	if weekShift {
		_, err := dbctx.ExecContext(ctx, "UPDATE podcast_stats SET subscribers_last_week=subscribers")
		if err != nil {
			return aerr.Wrapf(err, "shift last week stats failed")
		}
	}

	if _, err := dbctx.ExecContext(ctx, "UPDATE podcast_stats SET subscribers=0"); err != nil {
		return aerr.Wrapf(err, "reset stats failed")
	}

	res, err := dbctx.ExecContext(ctx, refreshStatsSQL)
	if err != nil {
		return aerr.Wrapf(err, "refresh stats failed")
	}

	if cnt, err := res.RowsAffected(); err == nil {
		logger.Debug().Int64("podcasts", cnt).Msg("refresh podcast stats finished")
	}

	return nil
}

func (s Repository) GetToplist(ctx context.Context, limit int) (model.Toplist, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int("limit", limit).Msg("get toplist")

	dbctx := db.MustCtx(ctx)
	rows := []PodcastDB{}

	err := dbctx.SelectContext(ctx, &rows, `
		SELECT `+podcastColumns+`
		FROM podcast_stats st
		JOIN podcasts p ON p.id = st.podcast_id
		WHERE st.subscribers > 0
		ORDER BY st.subscribers DESC, p.url
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, aerr.Wrapf(err, "select toplist failed")
	}

	return buildToplist(rows), nil
}

// buildToplist number entries and recover previous week positions from last
// week counters; entries without last week subscribers get position 0.
func buildToplist(rows []PodcastDB) model.Toplist {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].SubscribersLastWeek > rows[order[b]].SubscribersLastWeek
	})

	lastpos := make(map[int64]int, len(rows))

	for pos, idx := range order {
		if rows[idx].SubscribersLastWeek > 0 {
			lastpos[rows[idx].ID] = pos + 1
		}
	}

	toplist := make(model.Toplist, len(rows))
	for i := range rows {
		toplist[i] = model.ToplistEntry{
			Podcast:          *rows[i].ToModel(),
			Position:         i + 1,
			PositionLastWeek: lastpos[rows[i].ID],
		}
	}

	return toplist
}
