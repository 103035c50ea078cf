//
// subscriptions.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package validators

import (
	"net/url"
	"strings"
)

// minFeedURLLen match mygpo limit; anything shorter can't be a real feed url.
const minFeedURLLen = 8

// SanitizeURLs remove non-http* urls; correct others. Return list of "safe"
// urls and list of changes in url [[old url, corrected url]].
func SanitizeURLs(urls []string) ([]string, [][]string) {
	accepted := make([]string, 0, len(urls))
	changes := make([][]string, 0)

	for _, orig := range urls {
		fixed := SanitizeURL(orig)
		if fixed == "" {
			continue
		}

		if fixed != orig {
			changes = append(changes, []string{orig, fixed})
		}

		accepted = append(accepted, fixed)
	}

	return accepted, changes
}

// SanitizeURL normalize given url.
// Based on mygpo; but do not normalize query & path; do not expand shortcuts,
// remove user/pass. Accept only http/s.
func SanitizeURL(u string) string {
	trimmed := strings.TrimSpace(u)
	if len(trimmed) < minFeedURLLen {
		return ""
	}

	purl, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	// url without scheme are http; feed://, itpc:// and itms:// are really http://
	switch purl.Scheme {
	case "", "feed", "itpc", "itms":
		purl.Scheme = "http"
	}

	// scheme and host are case insensitive
	purl.Scheme = strings.ToLower(purl.Scheme)
	purl.Host = strings.ToLower(purl.Host)

	if purl.Path == "" {
		purl.Path = "/"
	}

	if purl.Scheme != "http" && purl.Scheme != "https" {
		return ""
	}

	return purl.String()
}
