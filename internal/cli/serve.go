package cli

//
// serve.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Merovius/systemd"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	poddirapi "gitlab.com/kabes/go-poddir/internal/api"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/server"
	"gitlab.com/kabes/go-poddir/internal/service"
)

const (
	shutdownTimeout = 5 * time.Second
	maintenanceHour = 4
)

func newStartServerCmd() *cli.Command { //nolint:funlen
	return &cli.Command{
		Name:  "serve",
		Usage: "start server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Value:   ":8080",
				Usage:   "listen address",
				Aliases: []string{"a"},
				Sources: cli.EnvVars("GOPODDIR_SERVER_ADDRESS"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "web-root",
				Value:   "/",
				Usage:   "path root",
				Sources: cli.EnvVars("GOPODDIR_SERVER_WEBROOT"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.BoolFlag{
				Name:    "enable-metrics",
				Usage:   "enable prometheus metrics (/metrics endpoint)",
				Sources: cli.EnvVars("GOPODDIR_SERVER_METRICS"),
			},
			&cli.StringFlag{
				Name:      "cert",
				Usage:     "tls certificate file",
				Sources:   cli.EnvVars("GOPODDIR_SERVER_CERT"),
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:      "key",
				Usage:     "tls key file",
				Sources:   cli.EnvVars("GOPODDIR_SERVER_KEY"),
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "mgmt-address",
				Value:   "",
				Usage:   "listen address for management endpoints; empty disable management; may be the same as main 'address'",
				Aliases: []string{"m"},
				Sources: cli.EnvVars("GOPODDIR_MGMT_SERVER_ADDRESS"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "mgmt-access-list",
				Value:   "",
				Usage:   "list of ip or networks separated by ',' allowed to connected to mgmt endpoints.",
				Sources: cli.EnvVars("GOPODDIR_MGMT_SERVER_ACCESS_LIST"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:      "search-index",
				Usage:     "path to bleve search index; empty select in-memory index rebuilt on start",
				Sources:   cli.EnvVars("GOPODDIR_SEARCH_INDEX"),
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "amqp-url",
				Usage:   "amqp broker url for podcast events; empty disable publishing",
				Sources: cli.EnvVars("GOPODDIR_AMQP_URL"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "amqp-exchange",
				Value:   "podcasts",
				Usage:   "amqp exchange for podcast events",
				Sources: cli.EnvVars("GOPODDIR_AMQP_EXCHANGE"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "amqp-routing-key",
				Value:   "podcast.event",
				Usage:   "amqp routing key for podcast events",
				Sources: cli.EnvVars("GOPODDIR_AMQP_ROUTING_KEY"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.StringFlag{
				Name:    "amqp-queue",
				Usage:   "optional queue declared and bound to exchange on start",
				Sources: cli.EnvVars("GOPODDIR_AMQP_QUEUE"),
				Config:  cli.StringConfig{TrimSpace: true},
			},
			&cli.DurationFlag{
				Name:    "refresh-interval",
				Value:   time.Hour,
				Usage:   "Interval between background scans for podcasts with stale metadata; 0 disable scans.",
				Sources: cli.EnvVars("GOPODDIR_REFRESH_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "refresh-max-age",
				Value:   24 * time.Hour, //nolint:mnd
				Usage:   "Refresh podcasts with metadata older than given age.",
				Sources: cli.EnvVars("GOPODDIR_REFRESH_MAX_AGE"),
			},
			&cli.IntFlag{
				Name:    "refresh-limit",
				Value:   100, //nolint:mnd
				Usage:   "Max number of podcasts refreshed in one scan.",
				Sources: cli.EnvVars("GOPODDIR_REFRESH_LIMIT"),
			},
			&cli.DurationFlag{
				Name:    "stats-interval",
				Value:   time.Hour,
				Usage:   "Interval between subscriber counters recalculation; 0 disable.",
				Sources: cli.EnvVars("GOPODDIR_STATS_INTERVAL"),
			},
		},
		Action: wrap(startServerCmd),
	}
}

func serverConfFromFlags(clicmd *cli.Command) *config.ServerConf {
	return &config.ServerConf{
		MainServer: config.ListenConf{
			Address: strings.TrimSpace(clicmd.String("address")),
			WebRoot: strings.TrimSuffix(clicmd.String("web-root"), "/"),
			TLSKey:  clicmd.String("key"),
			TLSCert: clicmd.String("cert"),
		},
		MgmtServer: config.ListenConf{
			// mgmt do not use tls/webroot for now
			Address: strings.TrimSpace(clicmd.String("mgmt-address")),
		},
		DebugFlags:     config.NewDebugFlags(clicmd.String("debug")),
		EnableMetrics:  clicmd.Bool("enable-metrics"),
		MgmtAccessList: clicmd.String("mgmt-access-list"),
	}
}

func startServerCmd(ctx context.Context, clicmd *cli.Command, rootInjector do.Injector) error {
	injector := rootInjector.Scope("server", poddirapi.Package, server.Package)

	serverConf := serverConfFromFlags(clicmd)
	if err := serverConf.Validate(); err != nil {
		return aerr.Wrapf(err, "server config validation failed")
	}

	do.ProvideValue(injector, serverConf)

	if serverConf.DebugFlags.HasFlag(config.DebugDo) {
		enableDoDebug(ctx, injector.RootScope())
	}

	s := Server{}

	return s.start(ctx, injector, serverConf, clicmd)
}

type Server struct{}

func (s *Server) start(ctx context.Context, injector do.Injector, cfg *config.ServerConf,
	clicmd *cli.Command,
) error {
	logger := log.Ctx(ctx)
	logger.Log().Msgf("Starting go-poddir (%s)...", config.VersionString)
	logger.Debug().Msgf("Server: debug_flags=%q", cfg.DebugFlags)

	s.startSystemdWatchdog(logger)

	db.RegisterMetrics(injector, cfg.DebugFlags.HasFlag(config.DebugDBQueryMetrics))

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	srv := do.MustInvoke[*server.Server](injector)
	if err := srv.Start(ctx); err != nil {
		return aerr.Wrapf(err, "start main server failed")
	}

	msrv, err := s.startMgmt(ctx, injector, cfg)
	if err != nil {
		return err
	}

	s.startBackgroundTasks(ctx, injector, clicmd)

	systemd.NotifyReady()           //nolint:errcheck
	systemd.NotifyStatus("running") //nolint:errcheck

	<-ctx.Done()

	systemd.NotifyStatus("stopping") //nolint:errcheck
	s.stopServers(srv, msrv)
	systemd.NotifyStatus("stopped") //nolint:errcheck

	return nil
}

// startMgmt start management server when configured on own address; return
// nil server otherwise.
func (*Server) startMgmt(ctx context.Context, injector do.Injector, cfg *config.ServerConf,
) (*server.MgmtServer, error) {
	if !cfg.SeparateMgmtEnabled() {
		return nil, nil //nolint:nilnil
	}

	msrv := do.MustInvoke[*server.MgmtServer](injector)
	if err := msrv.Start(ctx); err != nil {
		return nil, aerr.Wrapf(err, "start mgmt server failed")
	}

	return msrv, nil
}

func (*Server) startSystemdWatchdog(logger *zerolog.Logger) {
	ok, dur, err := systemd.AutoWatchdog()

	switch {
	case ok:
		logger.Info().Msgf("Systemd: autowatchdog started; duration=%s", dur)
	case err != nil:
		logger.Warn().Err(err).Msgf("Systemd: autowatchdog start error=%q", err)
	}
}

func (s *Server) startBackgroundTasks(ctx context.Context, injector do.Injector, clicmd *cli.Command) {
	// podcasts minted or spotted outdated during requests are fetched from
	// event queue; periodic scan pick up the rest
	enrichSrv := do.MustInvoke[*service.EnrichSrv](injector)
	go enrichSrv.ProcessQueue(ctx)

	if interval := clicmd.Duration("refresh-interval"); interval > 0 {
		go s.runPodcastRefresh(ctx, enrichSrv, interval,
			clicmd.Duration("refresh-max-age"), int(clicmd.Int("refresh-limit")))
	}

	if interval := clicmd.Duration("stats-interval"); interval > 0 {
		go s.runStatsRefresh(ctx, do.MustInvoke[*service.StatsSrv](injector), interval)
	}

	go s.runBackgroundMaintenance(ctx, do.MustInvoke[*service.MaintenanceSrv](injector))

	searchConf := do.MustInvoke[config.SearchConf](injector)
	if searchConf.InMemory() {
		// in-memory index start empty and must be filled before first search
		go s.rebuildSearchIndex(ctx, do.MustInvoke[*service.PodcastsSrv](injector))
	}
}

func (*Server) stopServers(srv *server.Server, msrv *server.MgmtServer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Logger.Warn().Err(err).Msgf("Server: shutdown error=%q", err)
	}

	if msrv != nil {
		if err := msrv.Shutdown(ctx); err != nil {
			log.Logger.Warn().Err(err).Msgf("MgmtServer: shutdown error=%q", err)
		}
	}
}

func (s *Server) runPodcastRefresh(ctx context.Context, enrichSrv *service.EnrichSrv,
	interval, maxAge time.Duration, limit int,
) {
	logger := log.Ctx(ctx)
	logger.Info().Msgf("PodcastRefresh: start background refresh; interval=%s max_age=%s", interval, maxAge)

	eventlog := common.NewEventLog("refresh podcasts", "worker")
	defer eventlog.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		eventlog.Printf("start refresh")

		staleBefore := time.Now().UTC().Add(-maxAge)

		if cnt, err := enrichSrv.RefreshOutdated(ctx, staleBefore, limit); err != nil {
			logger.Error().Err(err).Msgf("PodcastRefresh: refresh job error=%q", err)
			eventlog.Errorf("refresh error=%q", err)
		} else {
			eventlog.Printf("refresh finished count=%d", cnt)
		}
	}
}

// runStatsRefresh recalculate subscriber counters in background. Once a week
// current counters are preserved as last week base for toplist trends.
func (s *Server) runStatsRefresh(ctx context.Context, statsSrv *service.StatsSrv, interval time.Duration) {
	logger := log.Ctx(ctx)
	logger.Info().Msgf("StatsRefresh: start background stats refresh; interval=%s", interval)

	eventlog := common.NewEventLog("refresh stats", "worker")
	defer eventlog.Close()

	nextShift := nextWeekShift(time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		shift := false
		if now := time.Now().UTC(); !now.Before(nextShift) {
			shift = true
			nextShift = nextWeekShift(now)
		}

		if err := statsSrv.RefreshStats(ctx, shift); err != nil {
			logger.Error().Err(err).Msgf("StatsRefresh: refresh stats error=%q", err)
			eventlog.Errorf("refresh error=%q", err)
		} else {
			eventlog.Printf("refresh finished week_shift=%v", shift)
		}
	}
}

// nextWeekShift return first monday midnight utc after now.
func nextWeekShift(now time.Time) time.Time {
	days := (8 - int(now.Weekday())) % 7 //nolint:mnd
	if days == 0 {
		days = 7
	}

	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}

// nextMaintenanceRun return next maintenance hour utc after now.
func nextMaintenanceRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), maintenanceHour, 0, 0, 0, time.UTC)
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

func (s *Server) runBackgroundMaintenance(ctx context.Context, maintSrv *service.MaintenanceSrv) {
	logger := log.Ctx(ctx)
	logger.Info().Msg("Maintenance: start background maintenance task")

	eventlog := common.NewEventLog("db maintenance", "worker")
	defer eventlog.Close()

	for {
		now := time.Now().UTC()
		nextRun := nextMaintenanceRun(now)
		wait := nextRun.Sub(now)

		logger.Debug().Msgf("Maintenance: next_run=%q wait=%q", nextRun, wait)
		eventlog.Printf("maintenance next_run=%q wait=%q", nextRun, wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		taskid := xid.New()
		llog := logger.With().Str("task_id", taskid.String()).Logger() //nolint:nilaway
		eventlog.Printf("start maintenance task_id=%s", taskid.String())

		if err := maintSrv.MaintainDatabase(hlog.CtxWithID(ctx, taskid)); err != nil {
			llog.Error().Err(err).Msgf("Maintenance: run database maintenance task error=%q", err)
			eventlog.Errorf("maintenance error task_id=%s error=%q", taskid.String(), err)

			continue
		}

		eventlog.Printf("maintenance finished task_id=%s", taskid.String())
	}
}

func (*Server) rebuildSearchIndex(ctx context.Context, podcastsSrv *service.PodcastsSrv) {
	logger := log.Ctx(ctx)

	cnt, err := podcastsSrv.RebuildSearchIndex(ctx)
	if err != nil {
		logger.Error().Err(err).Msgf("Server: rebuild search index error=%q", err)

		return
	}

	logger.Info().Msgf("Server: search index rebuilt; documents=%d", cnt)
}
