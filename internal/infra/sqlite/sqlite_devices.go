package sqlite

//
// sqlite_devices.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
)

// deviceSubscriptionsSQL count podcasts whose newest log action for device
// is subscribe.
const deviceSubscriptionsSQL = `
	SELECT count(*)
	FROM (
		SELECT action,
			ROW_NUMBER() OVER (PARTITION BY podcast_id ORDER BY created_at DESC, id DESC) AS rn
		FROM subscription_log
		WHERE device_id=?
	) AS t
	WHERE t.rn=1 AND t.action='subscribe'`

func (s Repository) GetDevice(
	ctx context.Context,
	userid int64,
	devicename string,
) (*model.Device, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("user_id", userid).Str("device_name", devicename).Msg("get device")

	dbctx := db.MustCtx(ctx)

	device := DeviceDB{}
	err := dbctx.GetContext(ctx, &device,
		`
		SELECT id, user_id, name, dev_type, caption, deleted,
			created_at, updated_at, last_seen_at
		FROM devices
		WHERE user_id=? AND name=?
		`,
		userid, devicename)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNoData
	} else if err != nil {
		return nil, aerr.Wrapf(err, "select device failed").WithMeta("user_id", userid, "device_name", devicename)
	}

	err = dbctx.GetContext(ctx, &device.Subscriptions, deviceSubscriptionsSQL, device.ID)
	if err != nil {
		return nil, aerr.Wrapf(err, "count subscriptions failed").WithMeta("device_id", device.ID)
	}

	logger.Debug().Int("subs", device.Subscriptions).Msg("count subscriptions finished")

	return device.ToModel(), nil
}

func (s Repository) SaveDevice(ctx context.Context, userid int64, device *model.Device) (int64, error) {
	logger := log.Ctx(ctx)
	dbctx := db.MustCtx(ctx)

	logger.Debug().Object("device", device).Msg("save device")

	if device.ID == 0 {
		logger.Debug().Object("device", device).Msg("insert device")

		now := time.Now().UTC()

		res, err := dbctx.ExecContext(ctx,
			"INSERT INTO devices (user_id, name, dev_type, caption, deleted, updated_at, created_at, last_seen_at) "+
				"VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
			userid, device.Name, device.DevType, device.Caption, device.Deleted, now, now, now)
		if err != nil {
			return 0, aerr.Wrapf(err, "insert device failed")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return 0, aerr.Wrapf(err, "get last id device failed").
				WithMeta("device_name", device.Name, "user_id", userid)
		}

		return id, nil
	}

	// update
	logger.Debug().Object("device", device).Msg("update device")

	_, err := dbctx.ExecContext(ctx,
		"UPDATE devices SET dev_type=?, caption=?, deleted=?, updated_at=? WHERE id=?",
		device.DevType, device.Caption, device.Deleted, time.Now().UTC(), device.ID)
	if err != nil {
		return device.ID, aerr.Wrapf(err, "update device failed").WithMeta("device_id", device.ID)
	}

	return device.ID, nil
}

func (s Repository) ListDevices(ctx context.Context, userid int64, includeDeleted bool) ([]model.Device, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("user_id", userid).Msg("list devices")

	dbctx := db.MustCtx(ctx)

	sqlq := `
		SELECT d.id, d.user_id, d.name, d.dev_type, d.caption, d.deleted,
			d.created_at, d.updated_at, d.last_seen_at,
			COALESCE(sc.cnt, 0) AS subscriptions
		FROM devices d
		LEFT JOIN (
			SELECT device_id, count(*) AS cnt
			FROM (
				SELECT device_id, action,
					ROW_NUMBER() OVER (PARTITION BY device_id, podcast_id
						ORDER BY created_at DESC, id DESC) AS rn
				FROM subscription_log
			) AS t
			WHERE t.rn=1 AND t.action='subscribe'
			GROUP BY device_id
		) sc ON sc.device_id = d.id
		WHERE d.user_id=?`

	if !includeDeleted {
		sqlq += " AND NOT d.deleted"
	}

	sqlq += " ORDER BY d.name"

	devices := []DeviceDB{}

	err := dbctx.SelectContext(ctx, &devices, sqlq, userid)
	if err != nil {
		return nil, aerr.Wrapf(err, "select devices failed").WithMeta("user_id", userid)
	}

	return devicesFromDB(devices), nil
}

func (s Repository) SetDeviceDeleted(ctx context.Context, deviceid int64, deleted bool) error {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("device_id", deviceid).Bool("deleted", deleted).Msg("set device deleted")

	dbctx := db.MustCtx(ctx)

	res, err := dbctx.ExecContext(ctx, "UPDATE devices SET deleted=?, updated_at=? WHERE id=?",
		deleted, time.Now().UTC(), deviceid)
	if err != nil {
		return aerr.Wrapf(err, "update device failed").WithMeta("device_id", deviceid)
	}

	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return common.ErrNoData
	}

	return nil
}

func (s Repository) TouchDevice(ctx context.Context, deviceid int64, ts time.Time) error {
	logger := log.Ctx(ctx)
	logger.Debug().Int64("device_id", deviceid).Msgf("mark device seen at: %s", ts)

	dbctx := db.MustCtx(ctx)

	_, err := dbctx.ExecContext(ctx, "UPDATE devices SET last_seen_at=? WHERE id=?", ts, deviceid)
	if err != nil {
		return aerr.Wrapf(err, "update device failed")
	}

	return nil
}
