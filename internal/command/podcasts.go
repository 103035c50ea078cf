package command

//
// podcasts.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/validators"
)

// MergePodcastsCmd group feeds published under different urls into one
// podcast group. Podcasts already in other group are rejected.
type MergePodcastsCmd struct {
	Title string
	URLs  []string
}

func (m *MergePodcastsCmd) Validate() error {
	if m.Title == "" {
		return aerr.ErrValidation.WithUserMsg("group title can't be empty")
	}

	if len(m.URLs) < 2 { //nolint:mnd
		return aerr.ErrValidation.WithUserMsg("at least two urls are required")
	}

	for _, u := range m.URLs {
		if validators.SanitizeURL(u) == "" {
			return aerr.ErrValidation.WithUserMsg("invalid url: %s", u)
		}
	}

	return nil
}

//---------------------------------------------------------------------

// AssignPodcastAliasCmd bind slug or legacy numeric id to podcast selected
// by feed url. With AsGroup set alias point at whole group of the podcast.
type AssignPodcastAliasCmd struct {
	URL     string
	Slug    string
	OldID   int64
	AsGroup bool
}

func (a *AssignPodcastAliasCmd) Validate() error {
	if validators.SanitizeURL(a.URL) == "" {
		return aerr.ErrValidation.WithUserMsg("invalid url: %s", a.URL)
	}

	if a.Slug == "" && a.OldID == 0 {
		return aerr.ErrValidation.WithUserMsg("slug or old id is required")
	}

	if a.Slug != "" && !validators.IsValidSlug(a.Slug) {
		return aerr.ErrValidation.WithUserMsg("invalid slug: %s", a.Slug)
	}

	if a.OldID < 0 {
		return aerr.ErrValidation.WithUserMsg("invalid old id: %d", a.OldID)
	}

	return nil
}
