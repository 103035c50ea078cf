package model

//
// toplist.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

type ToplistEntry struct {
	Podcast          Podcast
	Position         int
	PositionLastWeek int
}

type Toplist []ToplistEntry

// Podcasts return toplist podcasts in position order.
func (t Toplist) Podcasts() Podcasts {
	podcasts := make(Podcasts, len(t))
	for i, e := range t {
		podcasts[i] = e.Podcast
	}

	return podcasts
}
