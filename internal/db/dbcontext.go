package db

// dbcontext.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Interface define object used by repositories to query database;
// satisfied by *sqlx.Conn and *sqlx.Tx.
type Interface interface {
	sqlx.QueryerContext
	sqlx.PreparerContext
	sqlx.ExecerContext

	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

type dbCtxKey struct{}

// WithCtx create new context with database access object. When context
// already carry one, it is kept.
func WithCtx(ctx context.Context, dbctx Interface) context.Context {
	if db, ok := ctx.Value(dbCtxKey{}).(Interface); ok && db != nil {
		return ctx
	}

	return context.WithValue(ctx, dbCtxKey{}, dbctx)
}

// Ctx return database access object from context.
func Ctx(ctx context.Context) (Interface, bool) { //nolint:ireturn
	value, ok := ctx.Value(dbCtxKey{}).(Interface)
	if !ok || value == nil {
		return nil, false
	}

	return value, true
}

// MustCtx return database access object from context. Panic when not exists.
func MustCtx(ctx context.Context) Interface { //nolint:ireturn
	value, ok := Ctx(ctx)
	if !ok {
		panic("no dbcontext in context")
	}

	return value
}
