package common

//
// helpers.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

// Map create new slice with fn applied to each element of items.
func Map[T, R any](items []T, fn func(*T) R) []R {
	res := make([]R, len(items))
	for i := range items {
		res[i] = fn(&items[i])
	}

	return res
}
