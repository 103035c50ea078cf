// Package pg implement repositories for PostgreSQL database.
package pg

//
// pg.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

type Repository struct{}
