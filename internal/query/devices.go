package query

//
// devices.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// GetDevicesQuery select user devices; deleted devices are included only
// when WithDeleted is set.
type GetDevicesQuery struct {
	UserName    string
	WithDeleted bool
}

func (q *GetDevicesQuery) Validate() error {
	if !validators.IsValidUserName(q.UserName) {
		return common.ErrInvalidUser.WithUserMsg("invalid username")
	}

	return nil
}
