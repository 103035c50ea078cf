package validators

import "regexp"

//
// users.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// user name charset match url route pattern; `+` is allowed for
// plus-addressed names
var reUserName = regexp.MustCompile(`^[\w+.-]+$`)

func IsValidUserName(name string) bool {
	return reUserName.MatchString(name)
}
