package cli

//
// do.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/infra"
	"gitlab.com/kabes/go-poddir/internal/notify"
	"gitlab.com/kabes/go-poddir/internal/search"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func createInjector(ctx context.Context) do.Injector {
	injector := do.New(
		service.Package,
		db.Package,
		infra.Package,
		notify.Package,
		search.Package,
	)

	logger := log.Ctx(ctx)
	logger.Debug().Msgf("DI: available services: %v", injector.ListProvidedServices())

	return injector
}

func shutdownInjector(ctx context.Context, injector do.Injector) {
	logger := log.Ctx(ctx)
	logger.Debug().Msg("DI: shutting down services")

	if report := injector.RootScope().ShutdownWithContext(ctx); report != nil && !report.Succeed {
		logger.Warn().Msgf("DI: services shutdown error=%q", report.Error())
	}
}

// enableDoDebug dump dependency graph to logs.
func enableDoDebug(ctx context.Context, injector *do.RootScope) {
	logger := log.Ctx(ctx)

	explanation := do.ExplainInjector(injector)
	logger.Debug().Msg(explanation.String())
}
