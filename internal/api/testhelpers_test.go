package api

//
// testhelpers_test.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"io"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
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
	"gitlab.com/kabes/go-poddir/internal/service"
)

func prepareTests(t *testing.T) (context.Context, *do.RootScope, *chi.Mux) {
	t.Helper()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout}).With().Caller().Stack().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)

	ctx := log.Logger.WithContext(context.Background())
	i := do.New(Package, service.Package, db.Package, infra.Package, notify.Package, search.Package)

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

	a := do.MustInvoke[API](i)

	return ctx, i, a.Routes()
}

// doRequest run request against api router; hand crafted context carry test
// logger for handlers.
func doRequest(ctx context.Context, t *testing.T, router http.Handler,
	method, target, body string,
) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reqBody).WithContext(ctx)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func prepareTestUser(ctx context.Context, t *testing.T, i do.Injector, name string) {
	t.Helper()

	newuser := command.NewUserCmd{
		Username: name,
		Password: name + "123",
		Email:    name + "@example.com",
		Name:     "test user " + name,
	}

	usersSrv := do.MustInvoke[*service.UsersSrv](i)
	if _, err := usersSrv.AddUser(ctx, &newuser); err != nil {
		t.Fatalf("create test user failed: %#+v", err)
	}
}

func prepareTestDevice(ctx context.Context, t *testing.T, i do.Injector,
	username, devicename string,
) {
	t.Helper()

	deviceSrv := do.MustInvoke[*service.DevicesSrv](i)
	cmd := command.UpdateDeviceCmd{
		UserName:   username,
		DeviceName: devicename,
		DeviceType: "other",
		Caption:    "device " + devicename + " caption",
	}

	if err := deviceSrv.UpdateDevice(ctx, &cmd); err != nil {
		t.Fatalf("create test device failed: %#+v", err)
	}
}

func prepareTestSub(ctx context.Context, t *testing.T, i do.Injector,
	username, devicename string, ts time.Time, subs ...string,
) {
	t.Helper()

	subsSrv := do.MustInvoke[*service.SubscriptionsSrv](i)
	cmd := command.ReplaceSubscriptionsCmd{
		Username:      username,
		Devicename:    devicename,
		Subscriptions: subs,
		Timestamp:     ts,
	}

	_, err := subsSrv.ReplaceSubscriptions(ctx, &cmd)
	assert.NoErr(t, err)
}
