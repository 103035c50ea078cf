package aerr

//
// apperror_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"errors"
	"testing"

	"gitlab.com/kabes/go-poddir/internal/assert"
)

func TestAppendUnique(t *testing.T) {
	var list []string

	list = appendUnique(list, "a")
	assert.Equal(t, list, []string{"a"})

	list = appendUnique(list, "b", "c")
	assert.Equal(t, list, []string{"a", "b", "c"})

	// a exists
	list = appendUnique(list, "a")
	assert.Equal(t, len(list), 3)

	// b exists, add d
	list = appendUnique(list, "b", "d")
	assert.Equal(t, list, []string{"a", "b", "c", "d"})
}

func TestAppErrorWrap(t *testing.T) {
	err := errors.New("error1")

	aerr1 := Wrap(err)
	assert.True(t, errors.Is(aerr1, err))
	assert.Equal(t, errors.Unwrap(aerr1), err)
	assert.True(t, aerr1.stack != nil)
	assert.Equal(t, aerr1.String(), "error1")
}

func TestAppErrorMsg(t *testing.T) {
	err := errors.New("error1")

	aerr0 := Wrap(err)
	aerr1 := aerr0.WithMsg("apperror%d", 1)
	assert.True(t, !aerr1.Is(aerr0))
	assert.Equal(t, aerr1.stack, aerr0.stack)
	assert.True(t, errors.Is(aerr1, err))
	assert.Equal(t, aerr1.msg, "apperror1")
	assert.Equal(t, aerr1.String(), "apperror1")

	assert.Equal(t, GetUserMessage(aerr1), "")
	assert.Equal(t, GetUserMessageOr(aerr1, "--"), "--")

	aerr2 := aerr1.WithUserMsg("user message %d", 123)
	assert.True(t, !aerr2.Is(aerr1))
	assert.True(t, errors.Is(aerr2, err))
	assert.Equal(t, aerr2.msg, "apperror1")
	assert.Equal(t, aerr2.String(), "user message 123")

	assert.Equal(t, GetUserMessage(aerr2), "user message 123")
	assert.Equal(t, GetUserMessageOr(aerr2, "--"), "user message 123")
}

func TestAppErrorMeta(t *testing.T) {
	err := errors.New("error1")

	aerr0 := Wrap(err)
	aerr1 := aerr0.WithMeta("k1", 1, "k2", "v2")
	assert.Equal(t, len(aerr1.meta), 2)
	assert.Equal(t, aerr1.meta["k1"], 1)
	assert.Equal(t, aerr1.meta["k2"], "v2")

	// 22 key should be converted to str
	aerr2 := aerr1.WithMeta("k1", 2, "k3", "v3", 22, "v22")
	assert.Equal(t, len(aerr2.meta), 4)
	assert.Equal(t, aerr2.meta["k1"], 2)
	assert.Equal(t, aerr2.meta["22"], "v22")
	// no changes in aerr1
	assert.Equal(t, len(aerr1.meta), 2)
}

func TestAppErrorTags(t *testing.T) {
	aerr0 := New("error1")

	aerr1 := aerr0.WithTag("k1")
	assert.Equal(t, GetTags(aerr1), []string{"k1"})

	aerr1 = aerr1.WithTag("k2")
	assert.Equal(t, GetTags(aerr1), []string{"k1", "k2"})
	assert.True(t, HasTag(aerr1, "k1"))
	assert.True(t, HasTag(aerr1, "k2"))
	assert.True(t, !HasTag(aerr1, "k3"))

	aerr2 := aerr1.WithTag("k3")
	assert.Equal(t, GetTags(aerr2), []string{"k1", "k2", "k3"})
	assert.Equal(t, GetTags(aerr1), []string{"k1", "k2"})
}

func TestAppErrorApplyFor(t *testing.T) {
	sentinel := New("database error").WithTag(InternalError).WithUserMsg("database error")
	cause := errors.New("disk full")

	err := ApplyFor(sentinel, cause, "save podcast failed")
	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasTag(err, InternalError))
	assert.Equal(t, err.msg, "save podcast failed")
	assert.Equal(t, GetUserMessage(err), "database error")

	// sentinel not modified
	assert.Equal(t, sentinel.msg, "database error")
}

func TestAppErrorAs(t *testing.T) {
	cause := Wrapf(errors.New("inner"), "outer")
	wrapped := errors.Join(cause)

	ae, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ae.msg, "outer")

	_, ok = AsAppError(errors.New("plain"))
	assert.True(t, !ok)
}
