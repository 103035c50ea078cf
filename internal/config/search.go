package config

//
// search.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// SearchConf configure full text search index.
// Empty IndexPath select in-memory index, rebuilt on start.
type SearchConf struct {
	IndexPath string
}

func (c *SearchConf) InMemory() bool {
	return c.IndexPath == ""
}
