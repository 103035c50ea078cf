package sqlite

//
// sqlite_podcasts.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

const selectPodcastSQL = "SELECT " + podcastColumns +
	" FROM podcasts p LEFT JOIN podcast_stats st ON st.podcast_id = p.id"

func (s Repository) GetPodcast(ctx context.Context, podcastid int64) (*model.Podcast, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("podcast_id", podcastid).Msg("get podcast")

	dbctx := db.MustCtx(ctx)
	podcast := PodcastDB{}

	err := dbctx.GetContext(ctx, &podcast, selectPodcastSQL+" WHERE p.id=?", podcastid)

	switch {
	case err == nil:
		return podcast.ToModel(), nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNoData
	default:
		return nil, aerr.Wrapf(err, "select podcast failed").WithMeta("podcast_id", podcastid)
	}
}

func (s Repository) GetOrCreatePodcast(
	ctx context.Context,
	url string,
	now time.Time,
) (*model.Podcast, bool, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Str("url", url).Msg("get or create podcast")

	dbctx := db.MustCtx(ctx)
	podcast := PodcastDB{}

	err := dbctx.GetContext(ctx, &podcast, selectPodcastSQL+" WHERE p.url=?", url)
	if err == nil {
		return podcast.ToModel(), false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, aerr.Wrapf(err, "select podcast failed").WithMeta("url", url)
	}

	newxid := xid.New().String()

	logger.Debug().Str("url", url).Str("xid", newxid).Msg("insert podcast")

	res, err := dbctx.ExecContext(ctx, `
		INSERT INTO podcasts (xid, url, title, description, website, language, logo_url,
				revision, created_at, updated_at)
			VALUES(?, ?, '', '', '', '', '', 0, ?, ?)`,
		newxid, url, now, now)
	if err != nil {
		// concurrent insert of the same url; let caller repeat in new transaction
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return nil, false, common.ErrWriteConflict
		}

		return nil, false, aerr.Wrapf(err, "insert podcast failed").WithMeta("url", url)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, aerr.Wrapf(err, "get last id podcast failed").WithMeta("url", url)
	}

	return &model.Podcast{
		ID:        id,
		XID:       newxid,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (s Repository) SavePodcastMeta(ctx context.Context, update *model.PodcastMetaUpdate) error {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("podcast_id", update.ID).Int64("revision", update.Revision).
		Msg("save podcast metadata")

	dbctx := db.MustCtx(ctx)

	res, err := dbctx.ExecContext(ctx, `
		UPDATE podcasts
		SET title=?, description=?, website=?, language=?, logo_url=?,
			revision=revision+1, meta_updated_at=?, updated_at=?
		WHERE id=? AND revision=?`,
		update.Title, update.Description, update.Website, update.Language, update.LogoURL,
		update.MetaUpdatedAt, time.Now().UTC(), update.ID, update.Revision)
	if err != nil {
		return aerr.Wrapf(err, "update podcast failed").WithMeta("podcast_id", update.ID)
	}

	cnt, err := res.RowsAffected()
	if err != nil {
		return aerr.Wrapf(err, "update podcast - get rows affected failed").WithMeta("podcast_id", update.ID)
	}

	if cnt == 0 {
		return common.ErrWriteConflict
	}

	return nil
}

//------------------------------------------------------------------------------

func (s Repository) ResolveByURL(ctx context.Context, url string) (*repository.ResolvedRef, error) {
	log.Ctx(ctx).Debug().Str("url", url).Msg("resolve podcast by url")

	return s.resolvePodcast(ctx, selectPodcastSQL+" WHERE p.url=?", url)
}

func (s Repository) ResolveByXID(ctx context.Context, pxid string) (*repository.ResolvedRef, error) {
	log.Ctx(ctx).Debug().Str("xid", pxid).Msg("resolve podcast by xid")

	return s.resolvePodcast(ctx, selectPodcastSQL+" WHERE p.xid=?", pxid)
}

// resolvePodcast run query expected to return one podcast row; url and xid
// identify single podcast so ref never point at group.
func (s Repository) resolvePodcast(
	ctx context.Context,
	query string,
	args ...any,
) (*repository.ResolvedRef, error) {
	dbctx := db.MustCtx(ctx)
	podcast := PodcastDB{}

	err := dbctx.GetContext(ctx, &podcast, query, args...)

	switch {
	case err == nil:
		return &repository.ResolvedRef{Podcast: *podcast.ToModel()}, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNoData
	default:
		return nil, aerr.Wrapf(err, "select podcast failed")
	}
}

func (s Repository) ResolveBySlug(ctx context.Context, slug string) (*repository.ResolvedRef, error) {
	log.Ctx(ctx).Debug().Str("slug", slug).Msg("resolve podcast by slug")

	return s.resolveRef(ctx, `
		SELECT `+podcastColumns+`, sl.group_id AS ref_group_id
		FROM podcast_slugs sl
		JOIN podcasts p ON p.id = sl.podcast_id
		LEFT JOIN podcast_stats st ON st.podcast_id = p.id
		WHERE sl.slug=?`,
		slug)
}

func (s Repository) ResolveByOldID(ctx context.Context, oldid int64) (*repository.ResolvedRef, error) {
	log.Ctx(ctx).Debug().Int64("oldid", oldid).Msg("resolve podcast by oldid")

	return s.resolveRef(ctx, `
		SELECT `+podcastColumns+`, o.group_id AS ref_group_id
		FROM podcast_oldids o
		JOIN podcasts p ON p.id = o.podcast_id
		LEFT JOIN podcast_stats st ON st.podcast_id = p.id
		WHERE o.oldid=?`,
		oldid)
}

// resolveRef run query over identifier table; row carry ref_group_id when
// identifier address whole group, then podcast is its representative member.
func (s Repository) resolveRef(
	ctx context.Context,
	query string,
	args ...any,
) (*repository.ResolvedRef, error) {
	dbctx := db.MustCtx(ctx)
	row := resolvedRefDB{}

	err := dbctx.GetContext(ctx, &row, query, args...)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNoData
	case err != nil:
		return nil, aerr.Wrapf(err, "select podcast ref failed")
	}

	ref := &repository.ResolvedRef{Podcast: *row.ToModel()}
	if row.RefGroupID.Valid {
		groupid := row.RefGroupID.Int64
		ref.GroupID = &groupid
	}

	return ref, nil
}

func (s Repository) ResolveManyByXID(ctx context.Context, xids []string) (map[string]*model.Podcast, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int("cnt", len(xids)).Msg("resolve podcasts by xids")

	if len(xids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(selectPodcastSQL+" WHERE p.xid IN (?)", xids)
	if err != nil {
		return nil, aerr.Wrapf(err, "prepare query failed")
	}

	dbctx := db.MustCtx(ctx)
	rows := []PodcastDB{}

	if err := dbctx.SelectContext(ctx, &rows, dbctx.Rebind(query), args...); err != nil {
		return nil, aerr.Wrapf(err, "select podcasts failed")
	}

	res := make(map[string]*model.Podcast, len(rows))
	for i := range rows {
		res[rows[i].XID] = rows[i].ToModel()
	}

	return res, nil
}

//------------------------------------------------------------------------------

func (s Repository) AssignSlug(ctx context.Context, slug string, podcastid int64, groupid *int64) error {
	logger := log.Ctx(ctx)
	logger.Debug().Str("slug", slug).Int64("podcast_id", podcastid).Msg("assign slug")

	dbctx := db.MustCtx(ctx)

	_, err := dbctx.ExecContext(ctx,
		"INSERT INTO podcast_slugs (slug, podcast_id, group_id) VALUES(?, ?, ?)",
		slug, podcastid, groupid)
	if err != nil {
		// slug is unique; already taken one is reported as conflict
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return common.ErrWriteConflict
		}

		return aerr.Wrapf(err, "insert slug failed").WithMeta("slug", slug, "podcast_id", podcastid)
	}

	return nil
}

func (s Repository) AssignOldID(ctx context.Context, oldid int64, podcastid int64, groupid *int64) error {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("oldid", oldid).Int64("podcast_id", podcastid).Msg("assign oldid")

	dbctx := db.MustCtx(ctx)

	_, err := dbctx.ExecContext(ctx,
		"INSERT INTO podcast_oldids (oldid, podcast_id, group_id) VALUES(?, ?, ?)",
		oldid, podcastid, groupid)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return common.ErrWriteConflict
		}

		return aerr.Wrapf(err, "insert oldid failed").WithMeta("oldid", oldid, "podcast_id", podcastid)
	}

	return nil
}

//------------------------------------------------------------------------------

func (s Repository) CreateGroup(ctx context.Context, title string, podcastids []int64) (int64, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Str("title", title).Ints64("podcast_ids", podcastids).Msg("create group")

	dbctx := db.MustCtx(ctx)
	now := time.Now().UTC()

	res, err := dbctx.ExecContext(ctx,
		"INSERT INTO podcast_groups (title, created_at) VALUES(?, ?)", title, now)
	if err != nil {
		return 0, aerr.Wrapf(err, "insert group failed").WithMeta("title", title)
	}

	groupid, err := res.LastInsertId()
	if err != nil {
		return 0, aerr.Wrapf(err, "get last id group failed")
	}

	query, args, err := sqlx.In(
		"UPDATE podcasts SET group_id=?, updated_at=? WHERE id IN (?)",
		groupid, now, podcastids)
	if err != nil {
		return 0, aerr.Wrapf(err, "prepare query failed")
	}

	if _, err := dbctx.ExecContext(ctx, dbctx.Rebind(query), args...); err != nil {
		return 0, aerr.Wrapf(err, "update podcasts group failed").WithMeta("group_id", groupid)
	}

	return groupid, nil
}

func (s Repository) GetGroup(ctx context.Context, groupid int64) (*model.PodcastGroup, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("group_id", groupid).Msg("get group")

	dbctx := db.MustCtx(ctx)
	group := podcastGroupDB{}

	err := dbctx.GetContext(ctx, &group,
		"SELECT id, title, created_at FROM podcast_groups WHERE id=?", groupid)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNoData
	case err != nil:
		return nil, aerr.Wrapf(err, "select group failed").WithMeta("group_id", groupid)
	}

	members := []PodcastDB{}

	err = dbctx.SelectContext(ctx, &members,
		selectPodcastSQL+" WHERE p.group_id=? ORDER BY p.id", groupid)
	if err != nil {
		return nil, aerr.Wrapf(err, "select group members failed").WithMeta("group_id", groupid)
	}

	res := group.ToModel()
	res.Podcasts = podcastsFromDB(members)

	return res, nil
}

//------------------------------------------------------------------------------

func (s Repository) ListPodcastsToUpdate(
	ctx context.Context,
	staleBefore time.Time,
	limit int,
) (model.Podcasts, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Time("stale_before", staleBefore).Int("limit", limit).
		Msg("list podcasts to update")

	dbctx := db.MustCtx(ctx)
	podcasts := []PodcastDB{}

	// never fetched entries first, then by oldest metadata
	err := dbctx.SelectContext(ctx, &podcasts,
		selectPodcastSQL+`
		WHERE p.meta_updated_at IS NULL OR p.meta_updated_at < ?
		ORDER BY p.meta_updated_at IS NOT NULL, p.meta_updated_at, p.id
		LIMIT ?`,
		staleBefore, limit)
	if err != nil {
		return nil, aerr.Wrapf(err, "select podcasts failed")
	}

	return podcastsFromDB(podcasts), nil
}

func (s Repository) ListPodcasts(ctx context.Context) (model.Podcasts, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Msg("list podcasts")

	dbctx := db.MustCtx(ctx)
	podcasts := []PodcastDB{}

	err := dbctx.SelectContext(ctx, &podcasts, selectPodcastSQL+" ORDER BY p.url")
	if err != nil {
		return nil, aerr.Wrapf(err, "select podcasts failed")
	}

	return podcastsFromDB(podcasts), nil
}
