//
// stats.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package service

import (
	"context"

	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/db"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/repository"
)

type StatsSrv struct {
	db        *db.Database
	statsRepo repository.Stats
}

func NewStatsSrv(i do.Injector) (*StatsSrv, error) {
	return &StatsSrv{
		db:        do.MustInvoke[*db.Database](i),
		statsRepo: do.MustInvoke[repository.Stats](i),
	}, nil
}

// RefreshStats recalculate per podcast subscriber counters from the
// subscription log. With weekShift current counters are first preserved
// as last week values.
func (s *StatsSrv) RefreshStats(ctx context.Context, weekShift bool) error {
	err := db.InTransaction(ctx, s.db, func(ctx context.Context) error {
		return s.statsRepo.RefreshStats(ctx, weekShift)
	})
	if err != nil {
		return aerr.ApplyFor(ErrRepositoryError, err)
	}

	return nil
}

// GetToplist return podcasts ordered by subscribers count with position
// from previous week for trend display.
func (s *StatsSrv) GetToplist(ctx context.Context, q *query.ToplistQuery) (model.Toplist, error) {
	if q == nil {
		panic("query is nil")
	}

	q.Normalize()

	toplist, err := db.InConnectionR(ctx, s.db, func(ctx context.Context) (model.Toplist, error) {
		return s.statsRepo.GetToplist(ctx, q.Count)
	})
	if err != nil {
		return nil, aerr.ApplyFor(ErrRepositoryError, err)
	}

	return toplist, nil
}
