package common

//
// Common application errors
//
// errors.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"errors"

	"gitlab.com/kabes/go-poddir/internal/aerr"
)

var ErrUserAccountLocked = aerr.New("locked account").WithUserMsg("account is locked")

// Validation errors.
var (
	ErrMissingParameter = aerr.New("missing required parameter").WithTag(aerr.ValidationError)
	ErrEmptyUsername    = aerr.New("username can't be empty").WithTag(aerr.ValidationError)
	ErrUnknownUser      = aerr.New("unknown user").WithTag(aerr.ValidationError)
	ErrUnknownDevice    = aerr.New("unknown device").WithTag(aerr.ValidationError)
	ErrUnknownPodcast   = aerr.New("unknown podcast").WithTag(aerr.ValidationError)
	ErrUserExists       = aerr.New("username exists").WithUserMsg("user name already exists")
	ErrInvalidUser      = aerr.New("invalid user").WithTag(aerr.ValidationError)
	ErrInvalidDevice    = aerr.New("invalid device").WithTag(aerr.ValidationError)
	ErrInvalidPodcast   = aerr.New("invalid podcast").WithTag(aerr.ValidationError)
)

var (
	ErrNoData = errors.New("no result")

	// ErrWriteConflict is reported by repositories when an optimistic update
	// touched a row changed by someone else; callers reload and retry.
	ErrWriteConflict = errors.New("write conflict")
)
