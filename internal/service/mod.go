// Package service implement application logic on top of repositories:
// account management, device sync, podcast resolving and directory
// features like toplist and search.
package service

//
// mod.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
)

// DynamicCache holds values and create it when no exist.
type DynamicCache[T comparable, V any] struct {
	items   map[T]V
	creator func(key T) (V, error)
	used    []T
}

// GetOrCreate get value from cache or create it when no exists.
func (c *DynamicCache[T, V]) GetOrCreate(key T) (V, error) { //nolint:ireturn,nolintlint
	if value, ok := c.items[key]; ok {
		if !slices.Contains(c.used, key) {
			c.used = append(c.used, key)
		}

		return value, nil
	}

	value, err := c.creator(key)
	if err != nil {
		return *new(V), err
	}

	c.items[key] = value
	c.used = append(c.used, key)

	return value, nil
}

// GetUsedValues return values touched by GetOrCreate in first use order.
func (c *DynamicCache[T, V]) GetUsedValues() []V {
	res := make([]V, len(c.used))
	for i, v := range c.used {
		res[i] = c.items[v]
	}

	return res
}

//------------------------------------------------------------------------------

// repeatOnConflict run op again when it fail with write conflict caused by
// concurrent change. After attempts are exhausted ErrConflictGaveUp is
// returned.
func repeatOnConflict(ctx context.Context, attempts int, op func(ctx context.Context) error) error {
	var err error

	for range attempts {
		if err = op(ctx); !errors.Is(err, common.ErrWriteConflict) {
			return err
		}

		zerolog.Ctx(ctx).Debug().Msg("write conflict; repeating operation")
	}

	return aerr.ApplyFor(ErrConflictGaveUp, err)
}
