package cli

//
// common.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/db"
)

// wrap prepare logger, configuration and injector with connected database
// before running cmdfunc. Amqp and search index flags are defined only on
// commands that use them; on other commands lookup return empty value and
// broker publishing / persistent index stay disabled.
func wrap(
	cmdfunc func(ctx context.Context, clicmd *cli.Command, i do.Injector) error,
) func(ctx context.Context, clicmd *cli.Command) error {
	return func(ctx context.Context, clicmd *cli.Command) error {
		if err := initializeLogger(clicmd.String("log.level"), clicmd.String("log.format")); err != nil {
			return err
		}

		ctx = log.Logger.WithContext(ctx)

		dbconf := config.NewDBConfig(clicmd.String("db.driver"), clicmd.String("database"))
		if err := dbconf.Validate(); err != nil {
			return aerr.Wrapf(err, "invalid database configuration")
		}

		notifyconf := config.NotifyConf{
			AMQPURL:    clicmd.String("amqp-url"),
			Exchange:   clicmd.String("amqp-exchange"),
			RoutingKey: clicmd.String("amqp-routing-key"),
			Queue:      clicmd.String("amqp-queue"),
		}
		if err := notifyconf.Validate(); err != nil {
			return aerr.Wrapf(err, "invalid amqp configuration")
		}

		injector := createInjector(ctx)
		do.ProvideValue(injector, dbconf)
		do.ProvideValue(injector, notifyconf)
		do.ProvideValue(injector, config.SearchConf{IndexPath: clicmd.String("search-index")})

		database := do.MustInvoke[*db.Database](injector)
		if err := database.Connect(ctx, dbconf.Driver, dbconf.Connstr); err != nil {
			return aerr.Wrapf(err, "connect to database failed")
		}

		defer shutdownInjector(ctx, injector)

		return cmdfunc(ctx, clicmd, injector)
	}
}
