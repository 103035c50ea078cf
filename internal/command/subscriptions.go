package command

//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"slices"
	"time"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// ChangeSubscriptionsCmd apply incremental subscription changes on one device.
type ChangeSubscriptionsCmd struct {
	Username   string
	Devicename string
	Add        []string
	Remove     []string
	Timestamp  time.Time
}

// Sanitize normalize urls in Add/Remove lists; malformed urls are dropped.
// Return list of changed urls [[old url, corrected url]].
func (s *ChangeSubscriptionsCmd) Sanitize() [][]string {
	var chAdd, chRem [][]string

	s.Add, chAdd = validators.SanitizeURLs(s.Add)
	s.Remove, chRem = validators.SanitizeURLs(s.Remove)

	return slices.Concat(chAdd, chRem)
}

func (s *ChangeSubscriptionsCmd) Validate() error {
	if s.Username == "" {
		return common.ErrEmptyUsername
	}

	for _, url := range s.Add {
		if slices.Contains(s.Remove, url) {
			return aerr.ErrValidation.WithUserMsg("duplicated url: %s", url)
		}
	}

	return nil
}

type ChangeSubscriptionsCmdResult struct {
	ChangedURLs [][]string
	Timestamp   time.Time
}

// ReplaceSubscriptionsCmd set full subscription list of one device; log
// entries are created from difference against current state.
type ReplaceSubscriptionsCmd struct {
	Username      string
	Devicename    string
	Subscriptions []string
	Timestamp     time.Time
}

// Sanitize normalize subscription urls; malformed urls are dropped.
// Return list of changed urls [[old url, corrected url]].
func (r *ReplaceSubscriptionsCmd) Sanitize() [][]string {
	var changes [][]string

	r.Subscriptions, changes = validators.SanitizeURLs(r.Subscriptions)

	return changes
}

func (r *ReplaceSubscriptionsCmd) Validate() error {
	if r.Username == "" {
		return common.ErrEmptyUsername
	}

	return nil
}
