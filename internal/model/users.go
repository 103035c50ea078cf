package model

//
// users.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import "github.com/rs/zerolog"

// UserLockedPassword is stored instead of password hash for locked accounts.
const UserLockedPassword = "LOCKED"

type User struct {
	ID       int64
	UserName string
	Password string
	Email    string
	Name     string
	Locked   bool
}

func (u *User) MarshalZerologObject(event *zerolog.Event) {
	pass := ""
	if u.Password != "" {
		pass = "***"
	}

	event.Int64("id", u.ID).
		Str("user_name", u.UserName).
		Str("password", pass).
		Str("email", u.Email).
		Str("name", u.Name).
		Bool("locked", u.Locked)
}
