package service

//
// users_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/common"
	"gitlab.com/kabes/go-poddir/internal/query"
)

func TestUsers(t *testing.T) {
	ctx, i := prepareTests(t)
	usersSrv := do.MustInvoke[*UsersSrv](i)

	_, err := usersSrv.GetUser(ctx, "test")
	assert.ErrSpec(t, err, common.ErrUnknownUser)

	newuser := command.NewUserCmd{Username: "test", Password: "test123", Email: "test@example.com", Name: "test user 1"}
	res, err := usersSrv.AddUser(ctx, &newuser)
	assert.NoErr(t, err)
	assert.True(t, res.UserID > 0)

	user, err := usersSrv.GetUser(ctx, "test")
	assert.NoErr(t, err)
	assert.Equal(t, user.Name, newuser.Name)
	assert.Equal(t, user.UserName, newuser.Username)
	assert.Equal(t, user.Email, newuser.Email)
	assert.True(t, !user.Locked)

	// lock account
	err = usersSrv.LockAccount(ctx, command.LockAccountCmd{Username: "test"})
	assert.NoErr(t, err)

	user, err = usersSrv.GetUser(ctx, "test")
	assert.NoErr(t, err)
	assert.True(t, user.Locked)

	// change pass unlock account
	chpasscmd := command.ChangeUserPasswordCmd{
		Username:         "test",
		Password:         "123123",
		CurrentPassword:  "",
		CheckCurrentPass: false,
	}
	err = usersSrv.ChangePassword(ctx, &chpasscmd)
	assert.NoErr(t, err)

	user, err = usersSrv.GetUser(ctx, "test")
	assert.NoErr(t, err)
	assert.True(t, !user.Locked)

	// try double user
	newuser2 := command.NewUserCmd{
		Username: "test",
		Password: "test123",
		Email:    "test2@example.com",
		Name:     "test user 2",
	}
	_, err = usersSrv.AddUser(ctx, &newuser2)
	assert.ErrSpec(t, err, common.ErrUserExists)

	newuser2.Username = "test2"
	res2, err := usersSrv.AddUser(ctx, &newuser2)
	assert.NoErr(t, err)
	assert.True(t, res2.UserID > 0)
	assert.True(t, res.UserID != res2.UserID)

	// get all users
	users, err := usersSrv.GetUsers(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, len(users), 2)
	assert.Equal(t, users[0].UserName, "test")
	assert.Equal(t, users[1].UserName, "test2")
}

func TestChangePasswordWithCheck(t *testing.T) {
	ctx, i := prepareTests(t)
	usersSrv := do.MustInvoke[*UsersSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")

	// wrong current password
	chpasscmd := command.ChangeUserPasswordCmd{
		Username:         "user1",
		Password:         "newpass",
		CurrentPassword:  "wrong",
		CheckCurrentPass: true,
	}
	err := usersSrv.ChangePassword(ctx, &chpasscmd)
	assert.ErrSpec(t, err, command.ErrChangePasswordOldNotMatch)

	// prepareTestUser create user with password <name>123
	chpasscmd.CurrentPassword = "user1123"
	err = usersSrv.ChangePassword(ctx, &chpasscmd)
	assert.NoErr(t, err)
}

func TestDeleteUser(t *testing.T) {
	ctx, i := prepareTests(t)
	usersSrv := do.MustInvoke[*UsersSrv](i)
	subsSrv := do.MustInvoke[*SubscriptionsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	_ = prepareTestUser(ctx, t, i, "user2")
	prepareTestDevice(ctx, t, i, "user1", "dev1")
	prepareTestDevice(ctx, t, i, "user2", "dev1")

	ts := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	prepareTestSub(ctx, t, i, "user1", "dev1", ts, "http://example.com/feed1.xml")
	prepareTestSub(ctx, t, i, "user2", "dev1", ts, "http://example.com/feed2.xml")

	err := usersSrv.DeleteUser(ctx, &command.DeleteUserCmd{Username: "user1"})
	assert.NoErr(t, err)

	_, err = usersSrv.GetUser(ctx, "user1")
	assert.ErrSpec(t, err, common.ErrUnknownUser)

	// user2 data is not affected
	subs, err := subsSrv.GetUserSubscriptions(ctx, &query.GetUserSubscriptionsQuery{UserName: "user2"})
	assert.NoErr(t, err)
	assert.Equal(t, len(subs), 1)
	assert.Equal(t, subs[0].URL, "http://example.com/feed2.xml")

	err = usersSrv.DeleteUser(ctx, &command.DeleteUserCmd{Username: "user1"})
	assert.ErrSpec(t, err, common.ErrUnknownUser)
}
