package validators

//
// podcasts.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import "regexp"

var reSlug = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// IsValidSlug check slug format; lowercase alphanumeric with dashes,
// not starting with dash.
func IsValidSlug(slug string) bool {
	return reSlug.MatchString(slug)
}
