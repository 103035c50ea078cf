package service

//
// stats_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"testing"
	"time"

	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/query"
)

func TestRefreshStatsAndToplist(t *testing.T) {
	ctx, i := prepareTests(t)
	statsSrv := do.MustInvoke[*StatsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	_ = prepareTestUser(ctx, t, i, "user2")

	// before first refresh there are no counters
	toplist, err := statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 0)

	// user1 subscribe feed1 on two devices; it count as one subscriber
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)
	prepareTestSub(ctx, t, i, "user1", "dev2", syncTS, feed1)
	prepareTestSub(ctx, t, i, "user2", "phone", syncTS, feed1)

	err = statsSrv.RefreshStats(ctx, false)
	assert.NoErr(t, err)

	toplist, err = statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 2)

	assert.Equal(t, toplist[0].Podcast.URL, feed1)
	assert.Equal(t, toplist[0].Podcast.Subscribers, 2)
	assert.Equal(t, toplist[0].Position, 1)
	assert.Equal(t, toplist[0].PositionLastWeek, 0)

	assert.Equal(t, toplist[1].Podcast.URL, feed2)
	assert.Equal(t, toplist[1].Podcast.Subscribers, 1)
	assert.Equal(t, toplist[1].Position, 2)
	assert.Equal(t, toplist[1].PositionLastWeek, 0)
}

func TestToplistWeekShift(t *testing.T) {
	ctx, i := prepareTests(t)
	statsSrv := do.MustInvoke[*StatsSrv](i)
	subsSrv := do.MustInvoke[*SubscriptionsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	_ = prepareTestUser(ctx, t, i, "user2")

	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)
	prepareTestSub(ctx, t, i, "user2", "dev1", syncTS, feed2)

	// preserve current counters as last week values
	err := statsSrv.RefreshStats(ctx, true)
	assert.NoErr(t, err)
	err = statsSrv.RefreshStats(ctx, true)
	assert.NoErr(t, err)

	toplist, err := statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 2)
	assert.Equal(t, toplist[0].Podcast.URL, feed2)
	assert.Equal(t, toplist[0].PositionLastWeek, 1)
	assert.Equal(t, toplist[1].Podcast.URL, feed1)
	assert.Equal(t, toplist[1].PositionLastWeek, 2)

	// user2 switch from feed2 to feed1; positions swap, last week keep old
	// order
	_, err = subsSrv.ReplaceSubscriptions(ctx, &command.ReplaceSubscriptionsCmd{
		Username:      "user2",
		Devicename:    "dev1",
		Subscriptions: []string{feed1},
		Timestamp:     syncTS.Add(time.Hour),
	})
	assert.NoErr(t, err)

	err = statsSrv.RefreshStats(ctx, false)
	assert.NoErr(t, err)

	toplist, err = statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 2)

	assert.Equal(t, toplist[0].Podcast.URL, feed1)
	assert.Equal(t, toplist[0].Podcast.Subscribers, 2)
	assert.Equal(t, toplist[0].Podcast.SubscribersLastWeek, 1)
	assert.Equal(t, toplist[0].Position, 1)
	assert.Equal(t, toplist[0].PositionLastWeek, 2)

	assert.Equal(t, toplist[1].Podcast.URL, feed2)
	assert.Equal(t, toplist[1].Podcast.Subscribers, 1)
	assert.Equal(t, toplist[1].Podcast.SubscribersLastWeek, 2)
	assert.Equal(t, toplist[1].Position, 2)
	assert.Equal(t, toplist[1].PositionLastWeek, 1)
}

func TestStatsSkipDeletedDevices(t *testing.T) {
	ctx, i := prepareTests(t)
	statsSrv := do.MustInvoke[*StatsSrv](i)
	devicesSrv := do.MustInvoke[*DevicesSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	_ = prepareTestUser(ctx, t, i, "user2")

	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1)
	prepareTestSub(ctx, t, i, "user2", "dev1", syncTS, feed1)

	err := statsSrv.RefreshStats(ctx, false)
	assert.NoErr(t, err)

	toplist, err := statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 1)
	assert.Equal(t, toplist[0].Podcast.Subscribers, 2)

	err = devicesSrv.DeleteDevice(ctx, &command.DeleteDeviceCmd{UserName: "user2", DeviceName: "dev1"})
	assert.NoErr(t, err)

	err = statsSrv.RefreshStats(ctx, false)
	assert.NoErr(t, err)

	toplist, err = statsSrv.GetToplist(ctx, &query.ToplistQuery{})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 1)
	assert.Equal(t, toplist[0].Podcast.Subscribers, 1)
}

func TestToplistCount(t *testing.T) {
	ctx, i := prepareTests(t)
	statsSrv := do.MustInvoke[*StatsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")

	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2, feed3)

	err := statsSrv.RefreshStats(ctx, false)
	assert.NoErr(t, err)

	// equal counters are ordered by url
	toplist, err := statsSrv.GetToplist(ctx, &query.ToplistQuery{Count: 2})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 2)
	assert.Equal(t, toplist[0].Podcast.URL, feed1)
	assert.Equal(t, toplist[1].Podcast.URL, feed2)

	// count out of range fall back to default
	toplist, err = statsSrv.GetToplist(ctx, &query.ToplistQuery{Count: 0})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 3)

	toplist, err = statsSrv.GetToplist(ctx, &query.ToplistQuery{Count: 500})
	assert.NoErr(t, err)
	assert.Equal(t, len(toplist), 3)
}
