package infra

//
// package.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/infra/pg"
	"gitlab.com/kabes/go-poddir/internal/infra/sqlite"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

var Package = do.Package(
	do.Lazy(newRepository[repository.Users]),
	do.Lazy(newRepository[repository.Devices]),
	do.Lazy(newRepository[repository.Podcasts]),
	do.Lazy(newRepository[repository.Subscriptions]),
	do.Lazy(newRepository[repository.Stats]),
	do.Lazy(newRepository[repository.Maintenance]),
)

// newRepository create repository implementation for configured database
// driver; both implementations are stateless and satisfy all repository
// interfaces.
func newRepository[T any](i do.Injector) (T, error) {
	dbconf := do.MustInvoke[config.DBConfig](i)

	var repo any = &sqlite.Repository{}
	if dbconf.Driver == config.DriverPostgres {
		repo = &pg.Repository{}
	}

	return repo.(T), nil //nolint:forcetypeassert
}
