package service

//
// testhelpers_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	stdlog "log"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/infra"
	"gitlab.com/kabes/go-poddir/internal/notify"
	"gitlab.com/kabes/go-poddir/internal/search"
)

func setupTestLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout}).With().Caller().Stack().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// prepareTests create scope with all services and in-memory database.
func prepareTests(t *testing.T) (context.Context, *do.RootScope) {
	t.Helper()
	setupTestLogging()

	ctx := log.Logger.WithContext(t.Context())

	i := do.New(Package, db.Package, infra.Package, notify.Package, search.Package)
	do.ProvideValue(i, config.NewDBConfig("sqlite3", ":memory:"))
	do.ProvideValue(i, config.NotifyConf{})
	do.ProvideValue(i, config.SearchConf{})

	database := do.MustInvoke[*db.Database](i)
	if err := database.Connect(ctx, "sqlite3", ":memory:"); err != nil {
		t.Fatalf("connect to db error: %#+v", err)
	}

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("prepare db error: %#+v", err)
	}

	return ctx, i
}

func prepareTestUser(ctx context.Context, t *testing.T, i do.Injector, name string) int64 {
	t.Helper()

	usersSrv := do.MustInvoke[*UsersSrv](i)
	res, err := usersSrv.AddUser(ctx, &command.NewUserCmd{
		Username: name,
		Password: name + "123",
		Email:    name + "@example.com",
		Name:     "test user " + name,
	})
	if err != nil {
		t.Fatalf("create test user failed: %#+v", err)
	}

	return res.UserID
}

func prepareTestDevice(ctx context.Context, t *testing.T, i do.Injector,
	username, devicename string,
) {
	t.Helper()

	deviceSrv := do.MustInvoke[*DevicesSrv](i)
	err := deviceSrv.UpdateDevice(ctx, &command.UpdateDeviceCmd{
		UserName:   username,
		DeviceName: devicename,
		DeviceType: "other",
		Caption:    "device " + devicename + " caption",
	})
	if err != nil {
		t.Fatalf("create test device failed: %#+v", err)
	}
}

func prepareTestSub(ctx context.Context, t *testing.T, i do.Injector,
	username, devicename string, ts time.Time, subs ...string,
) {
	t.Helper()

	subsSrv := do.MustInvoke[*SubscriptionsSrv](i)
	_, err := subsSrv.ReplaceSubscriptions(ctx, &command.ReplaceSubscriptionsCmd{
		Username:      username,
		Devicename:    devicename,
		Subscriptions: subs,
		Timestamp:     ts,
	})
	assert.NoErr(t, err)
}
