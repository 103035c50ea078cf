package pg

//
// pg_maint.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/db"
)

// Maintenance remove dangling domain rows. Engine level vacuum is
// responsibility of db layer.
func (Repository) Maintenance(ctx context.Context) error {
	logger := log.Ctx(ctx)
	dbi := db.MustCtx(ctx)

	for idx, sql := range maintScripts {
		logger.Debug().Msgf("pg.Repository: run maintenance script[%d]: %q", idx, sql)

		res, err := dbi.ExecContext(ctx, sql)
		if err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "execute maintenance script failed").
				WithMeta("sql", sql)
		}

		// rows affected is informational only
		if affected, err := res.RowsAffected(); err == nil {
			logger.Debug().Msgf("pg.Repository: maintenance script[%d] finished; rows affected: %d",
				idx, affected)
		}
	}

	counters := []struct {
		what  string
		query string
		value int
	}{
		{"podcasts", "SELECT count(*) FROM podcasts", 0},
		{"log entries", "SELECT count(*) FROM subscription_log", 0},
	}

	for i := range counters {
		cnt := &counters[i]
		if err := dbi.GetContext(ctx, &cnt.value, cnt.query); err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "execute maintenance - count "+cnt.what+" failed")
		}
	}

	logger.Info().Msgf("pg.Repository: database maintenance finished; podcasts: %d; log entries: %d",
		counters[0].value, counters[1].value)

	return nil
}

//nolint:gochecknoglobals
var maintScripts = []string{
	// stats and identifiers may dangle after manual podcast removal
	`DELETE FROM podcast_stats WHERE podcast_id NOT IN (SELECT id FROM podcasts);`,
	`DELETE FROM podcast_slugs WHERE podcast_id NOT IN (SELECT id FROM podcasts);`,
	`DELETE FROM podcast_oldids WHERE podcast_id NOT IN (SELECT id FROM podcasts);`,
	// groups without members
	`DELETE FROM podcast_groups
		WHERE id NOT IN (SELECT group_id FROM podcasts WHERE group_id IS NOT NULL);`,
	`UPDATE podcast_slugs SET group_id=NULL
		WHERE group_id IS NOT NULL AND group_id NOT IN (SELECT id FROM podcast_groups);`,
	`UPDATE podcast_oldids SET group_id=NULL
		WHERE group_id IS NOT NULL AND group_id NOT IN (SELECT id FROM podcast_groups);`,
}
