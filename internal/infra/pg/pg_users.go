package pg

//
// pg_users.go
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

const userColumns = "id, username, password, email, name, created_at, updated_at"

func (s Repository) GetUser(ctx context.Context, username string) (*model.User, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("pg.Repository: get user user_name=%s", username)

	dbctx := db.MustCtx(ctx)
	user := UserDB{}

	err := dbctx.GetContext(ctx, &user,
		"SELECT "+userColumns+" FROM users WHERE username=$1", username)

	switch {
	case err == nil:
		return user.toModel(), nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrNoData
	default:
		return nil, aerr.Wrapf(err, "select user failed").WithTag(aerr.InternalError)
	}
}

func (s Repository) SaveUser(ctx context.Context, user *model.User) (int64, error) {
	if user.ID == 0 {
		return s.insertUser(ctx, user)
	}

	return s.updateUser(ctx, user)
}

func (s Repository) insertUser(ctx context.Context, user *model.User) (int64, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Object("user", user).Msgf("pg.Repository: insert user user_name=%s", user.UserName)

	dbctx := db.MustCtx(ctx)
	now := time.Now().UTC()

	var id int64

	err := dbctx.GetContext(ctx, &id, `
		INSERT INTO users (username, password, email, name, created_at, updated_at)
			VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		user.UserName, user.Password, user.Email, user.Name, now, now)
	if err != nil {
		return 0, aerr.Wrapf(err, "insert user failed").WithTag(aerr.InternalError)
	}

	return id, nil
}

func (s Repository) updateUser(ctx context.Context, user *model.User) (int64, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Object("user", user).Msgf("pg.Repository: update user user_name=%s", user.UserName)

	dbctx := db.MustCtx(ctx)

	_, err := dbctx.ExecContext(ctx,
		"UPDATE users SET password=$1, email=$2, name=$3, updated_at=$4 WHERE id=$5",
		user.Password, user.Email, user.Name, time.Now().UTC(), user.ID)
	if err != nil {
		return 0, aerr.Wrapf(err, "update user failed").WithTag(aerr.InternalError)
	}

	return user.ID, nil
}

// ListUsers get all users from database.
func (s Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	logger := log.Ctx(ctx)
	logger.Debug().Msg("pg.Repository: list users")

	var users []UserDB

	dbctx := db.MustCtx(ctx)

	err := dbctx.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, aerr.Wrapf(err, "select users failed").WithTag(aerr.InternalError)
	}

	return usersFromDB(users), nil
}

// DeleteUser remove user with devices and their subscription log entries.
func (s Repository) DeleteUser(ctx context.Context, userid int64) error {
	logger := log.Ctx(ctx)
	logger.Debug().Msgf("pg.Repository: delete user user_id=%d", userid)

	dbctx := db.MustCtx(ctx)

	// log entries reference devices, remove them first
	queries := []struct{ what, query string }{
		{"delete subscription log", "DELETE FROM subscription_log WHERE device_id IN (SELECT id FROM devices WHERE user_id=$1)"},
		{"delete devices", "DELETE FROM devices WHERE user_id=$1"},
		{"delete user", "DELETE FROM users WHERE id=$1"},
	}

	for _, q := range queries {
		if _, err := dbctx.ExecContext(ctx, q.query, userid); err != nil {
			return aerr.Wrapf(err, "%s failed", q.what).WithTag(aerr.InternalError).WithMeta("user_id", userid)
		}
	}

	return nil
}
