package service

//
// mod_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"errors"
	"testing"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/common"
)

func TestDynamicCache(t *testing.T) {
	created := 0
	cache := &DynamicCache[string, string]{
		items: make(map[string]string),
		creator: func(key string) (string, error) {
			if key == "bad" {
				return "", errors.New("create failed")
			}

			created++

			return "value-" + key, nil
		},
	}

	val, err := cache.GetOrCreate("a")
	assert.NoErr(t, err)
	assert.Equal(t, val, "value-a")
	assert.Equal(t, created, 1)

	// second get is served from cache
	val, err = cache.GetOrCreate("a")
	assert.NoErr(t, err)
	assert.Equal(t, val, "value-a")
	assert.Equal(t, created, 1)

	_, err = cache.GetOrCreate("bad")
	assert.Err(t, err)

	val, err = cache.GetOrCreate("b")
	assert.NoErr(t, err)
	assert.Equal(t, val, "value-b")
	assert.Equal(t, created, 2)

	// failed create is not remembered
	_, err = cache.GetOrCreate("bad")
	assert.Err(t, err)

	assert.Equal(t, cache.GetUsedValues(), []string{"value-a", "value-b"})
}

func TestRepeatOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := repeatOnConflict(ctx, 3, func(_ context.Context) error {
		calls++

		return nil
	})
	assert.NoErr(t, err)
	assert.Equal(t, calls, 1)

	// conflicts are retried until op succeed
	calls = 0
	err = repeatOnConflict(ctx, 3, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return common.ErrWriteConflict
		}

		return nil
	})
	assert.NoErr(t, err)
	assert.Equal(t, calls, 3)

	// other errors break the loop
	calls = 0
	err = repeatOnConflict(ctx, 3, func(_ context.Context) error {
		calls++

		return errors.New("boom")
	})
	assert.ErrSpec(t, err, "boom")
	assert.Equal(t, calls, 1)

	calls = 0
	err = repeatOnConflict(ctx, 3, func(_ context.Context) error {
		calls++

		return common.ErrWriteConflict
	})
	assert.ErrSpec(t, err, "persistent write conflict")
	assert.ErrSpec(t, err, common.ErrWriteConflict)
	assert.Equal(t, calls, 3)
}
