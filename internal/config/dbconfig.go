package config

//
// dbconfig.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"gitlab.com/kabes/go-poddir/internal/aerr"
)

// canonical database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type DBConfig struct {
	Driver  string
	Connstr string
}

func NewDBConfig(driver, connstr string) DBConfig {
	return DBConfig{
		Driver:  mapDriverName(driver),
		Connstr: connstr,
	}
}

func (d *DBConfig) Validate() error {
	switch {
	case d.Connstr == "":
		return aerr.New("db.connstr argument can't be empty").WithTag(aerr.ValidationError)
	case d.Driver == "":
		return aerr.New("db.driver argument can't be empty").WithTag(aerr.ValidationError)
	case d.Driver != DriverSQLite && d.Driver != DriverPostgres:
		return aerr.New("invalid (unsupported) db.driver").WithTag(aerr.ValidationError)
	}

	return nil
}

// mapDriverName accept common aliases for supported engines; unknown names
// pass through and fail validation later.
func mapDriverName(driver string) string {
	switch driver {
	case "sqlite", DriverSQLite:
		return DriverSQLite
	case "pg", "postgresql", "postgres", DriverPostgres:
		return DriverPostgres
	}

	return driver
}
