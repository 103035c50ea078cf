// Package assert provide minimal test assertions.
// Based on https://antonz.org/do-not-testify/
package assert

import (
	"bytes"
	"cmp"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
)

// Equal asserts that got is equal to want.
func Equal[T any](tb testing.TB, got, want T) bool {
	tb.Helper()

	if areEqual(got, want) {
		return true
	}

	tb.Errorf("got: %#v; want: %#v", got, want)

	return false
}

// NotEqual asserts that got is not equal to want.
func NotEqual[T any](tb testing.TB, got, want T) bool {
	tb.Helper()

	if !areEqual(got, want) {
		return true
	}

	tb.Errorf("got: %#v; want other values", got)

	return false
}

// EqualSorted asserts that got and want slices are equal ignoring order.
func EqualSorted[S ~[]E, E cmp.Ordered](tb testing.TB, got, want S) bool {
	tb.Helper()

	if slices.Equal(sorted(got), sorted(want)) {
		return true
	}

	tb.Errorf("got: %#v; want: %#v", got, want)

	return false
}

// NoErr asserts that the got error is nil.
func NoErr(tb testing.TB, got error) bool {
	tb.Helper()

	if got != nil {
		tb.Errorf("got unexpected error: %#+v", got)

		return false
	}

	return true
}

// Err asserts that the got error is not nil.
func Err(tb testing.TB, got error) bool {
	tb.Helper()

	if got == nil {
		tb.Error("got: <nil>; want: error")

		return false
	}

	return true
}

// ErrSpec asserts that the got error matches want: substring for string
// want, errors.Is for error want, errors.As for reflect.Type want.
func ErrSpec(tb testing.TB, got error, want any) bool {
	tb.Helper()

	if got == nil {
		tb.Errorf("got: <nil>; want: %v", want)

		return false
	}

	switch wanted := want.(type) {
	case string:
		if !strings.Contains(got.Error(), wanted) {
			tb.Errorf("got: %q; want: %q", got.Error(), wanted)

			return false
		}
	case error:
		if !errors.Is(got, wanted) {
			tb.Errorf("got: %T(%v); want: %T(%v)", got, got, wanted, wanted)

			return false
		}
	case reflect.Type:
		if !errors.As(got, reflect.New(wanted).Interface()) {
			tb.Errorf("got: %T; want: %s", got, wanted)

			return false
		}
	default:
		tb.Errorf("unsupported want type: %T", want)
	}

	return true
}

// True asserts that got is true.
func True(tb testing.TB, got bool) bool {
	tb.Helper()

	if !got {
		tb.Error("got: false; want: true")
	}

	return got
}

// Nil asserts that got is nil (including typed nil pointers).
func Nil(tb testing.TB, got any) bool {
	tb.Helper()

	if !isNil(got) {
		tb.Errorf("got: %#v; want: <nil>", got)

		return false
	}

	return true
}

// NotNil asserts that got is not nil.
func NotNil(tb testing.TB, got any) bool {
	tb.Helper()

	if isNil(got) {
		tb.Error("got: <nil>; want: not nil")

		return false
	}

	return true
}

//-------------------------------------------------------------

// equaler match types carrying own Equal method (time.Time, net.IP).
type equaler[T any] interface {
	Equal(other T) bool
}

func areEqual[T any](val1, val2 T) bool {
	if isNil(val1) && isNil(val2) {
		return true
	}

	// prefer the type's own Equal method
	if eq, ok := any(val1).(equaler[T]); ok {
		return eq.Equal(val2)
	}

	if bts1, ok := any(val1).([]byte); ok {
		if bts2, ok := any(val2).([]byte); ok {
			return bytes.Equal(bts1, bts2)
		}
	}

	return reflect.DeepEqual(val1, val2)
}

// isNil also catch non-nil interface holding nil value.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

func sorted[S ~[]E, E cmp.Ordered](s S) S {
	s = slices.Clone(s)
	slices.Sort(s)

	return s
}
