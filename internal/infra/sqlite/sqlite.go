// Package sqlite implement repositories for SQLite database.
package sqlite

//
// sqlite.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

type Repository struct{}
