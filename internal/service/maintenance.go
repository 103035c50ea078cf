package service

//
// maintenance.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"

	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

type MaintenanceSrv struct {
	db        *db.Database
	maintRepo repository.Maintenance
}

func NewMaintenanceSrv(i do.Injector) (*MaintenanceSrv, error) {
	return &MaintenanceSrv{
		db:        do.MustInvoke[*db.Database](i),
		maintRepo: do.MustInvoke[repository.Maintenance](i),
	}, nil
}

// MaintainDatabase run domain data cleanup followed by engine level
// maintenance scripts.
func (m *MaintenanceSrv) MaintainDatabase(ctx context.Context) error {
	_, err := db.InConnectionR(ctx, m.db, func(ctx context.Context) (any, error) {
		return nil, m.maintRepo.Maintenance(ctx)
	})
	if err != nil {
		return aerr.ApplyFor(ErrRepositoryError, err)
	}

	if err := m.db.Maintenance(ctx); err != nil {
		return aerr.Wrapf(err, "engine maintenance failed")
	}

	return nil
}
