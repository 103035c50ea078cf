package service

//
// podcasts_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/query"
)

func TestResolvePodcast(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)

	podcast, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	assert.NotNil(t, podcast)
	assert.Equal(t, podcast.URL, feed1)
	assert.NotEqual(t, podcast.XID, "")
	// subscription sync create bare placeholders
	assert.Equal(t, podcast.Title, "")
	assert.True(t, podcast.NeedsUpdate())

	byxid, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{XID: podcast.XID})
	assert.NoErr(t, err)
	assert.NotNil(t, byxid)
	assert.Equal(t, byxid.ID, podcast.ID)
	assert.Equal(t, byxid.URL, feed1)

	// second lookup is served from cache
	cached, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	assert.NotNil(t, cached)
	assert.Equal(t, cached.ID, podcast.ID)

	// unknown identifier is not an error
	unknown, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: "http://example.com/nosuchfeed.xml"})
	assert.NoErr(t, err)
	assert.Nil(t, unknown)

	unknown, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{Slug: "nosuchslug"})
	assert.NoErr(t, err)
	assert.Nil(t, unknown)

	unknown, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{OldID: 999})
	assert.NoErr(t, err)
	assert.Nil(t, unknown)

	_, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{})
	assert.ErrSpec(t, err, "missing required parameter")

	_, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1, Slug: "some-slug"})
	assert.ErrSpec(t, err, "validation error")
}

func TestResolveManyPodcasts(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)

	p1, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	p2, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed2})
	assert.NoErr(t, err)

	// duplicated and empty entries are collapsed; unknown xid get nil slot
	res, err := podcastsSrv.ResolveMany(ctx, []string{p1.XID, p2.XID, p1.XID, "", "nosuchxid"})
	assert.NoErr(t, err)
	assert.Equal(t, len(res), 3)
	assert.NotNil(t, res[p1.XID])
	assert.Equal(t, res[p1.XID].URL, feed1)
	assert.NotNil(t, res[p2.XID])
	assert.Equal(t, res[p2.XID].URL, feed2)
	assert.Nil(t, res["nosuchxid"])

	// repeated request is served from cache
	res, err = podcastsSrv.ResolveMany(ctx, []string{p1.XID, p2.XID})
	assert.NoErr(t, err)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[p1.XID].URL, feed1)
}

func TestMergePodcasts(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2, feed3)

	group, err := podcastsSrv.MergePodcasts(ctx,
		&command.MergePodcastsCmd{Title: "Radio X", URLs: []string{feed1, feed2}})
	assert.NoErr(t, err)
	assert.NotNil(t, group)
	assert.True(t, group.ID > 0)
	assert.Equal(t, group.Title, "Radio X")
	assert.Equal(t, len(group.Podcasts), 2)

	for _, member := range group.Podcasts {
		assert.NotNil(t, member.GroupID)
		assert.Equal(t, *member.GroupID, group.ID)
	}

	// resolved members carry group binding
	podcast, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	assert.NotNil(t, podcast.GroupID)

	// grouped podcasts can not be merged again
	_, err = podcastsSrv.MergePodcasts(ctx,
		&command.MergePodcastsCmd{Title: "Radio X2", URLs: []string{feed1, feed3}})
	assert.ErrSpec(t, err, "validation error")

	_, err = podcastsSrv.MergePodcasts(ctx,
		&command.MergePodcastsCmd{Title: "Xyz", URLs: []string{feed3, "http://example.com/nosuchfeed.xml"}})
	assert.ErrSpec(t, err, "unknown podcast")

	_, err = podcastsSrv.MergePodcasts(ctx, &command.MergePodcastsCmd{Title: "", URLs: []string{feed1, feed2}})
	assert.ErrSpec(t, err, "validation error")

	_, err = podcastsSrv.MergePodcasts(ctx, &command.MergePodcastsCmd{Title: "Solo", URLs: []string{feed3}})
	assert.ErrSpec(t, err, "validation error")
}

func TestAssignPodcastAlias(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2, feed3)

	_, err := podcastsSrv.MergePodcasts(ctx,
		&command.MergePodcastsCmd{Title: "Radio X", URLs: []string{feed1, feed2}})
	assert.NoErr(t, err)

	err = podcastsSrv.AssignAlias(ctx, &command.AssignPodcastAliasCmd{URL: feed1, Slug: "radio-x", AsGroup: true})
	assert.NoErr(t, err)

	podcast, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{Slug: "radio-x"})
	assert.NoErr(t, err)
	assert.NotNil(t, podcast)
	assert.Equal(t, podcast.URL, feed1)
	assert.NotNil(t, podcast.GroupID)

	err = podcastsSrv.AssignAlias(ctx, &command.AssignPodcastAliasCmd{URL: feed3, OldID: 4711})
	assert.NoErr(t, err)

	podcast, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{OldID: 4711})
	assert.NoErr(t, err)
	assert.NotNil(t, podcast)
	assert.Equal(t, podcast.URL, feed3)
	assert.Nil(t, podcast.GroupID)

	// slug is unique
	err = podcastsSrv.AssignAlias(ctx, &command.AssignPodcastAliasCmd{URL: feed3, Slug: "radio-x"})
	assert.ErrSpec(t, err, "validation error")

	// group alias require grouped podcast
	err = podcastsSrv.AssignAlias(ctx, &command.AssignPodcastAliasCmd{URL: feed3, Slug: "solo", AsGroup: true})
	assert.ErrSpec(t, err, "validation error")

	err = podcastsSrv.AssignAlias(ctx, &command.AssignPodcastAliasCmd{URL: feed3, Slug: "Bad Slug"})
	assert.ErrSpec(t, err, "validation error")

	err = podcastsSrv.AssignAlias(ctx,
		&command.AssignPodcastAliasCmd{URL: "http://example.com/nosuchfeed.xml", Slug: "ghost"})
	assert.ErrSpec(t, err, "unknown podcast")
}

func TestSearchPodcasts(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	enrichSrv := do.MustInvoke[*EnrichSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)

	enrichSrv.parser = &fakeParser{feeds: map[string]*gofeed.Feed{
		feed1: {Title: "Good Morning Radio", Description: "news and music"},
		feed2: {Title: "Tech Weekly", Description: "gadgets reviews"},
	}}

	cnt, err := enrichSrv.RefreshOutdated(ctx, time.Now().UTC(), 10)
	assert.NoErr(t, err)
	assert.Equal(t, cnt, 2)

	podcasts, total, err := podcastsSrv.Search(ctx, &query.SearchQuery{Q: "radio"})
	assert.NoErr(t, err)
	assert.Equal(t, total, uint64(1))
	assert.Equal(t, len(podcasts), 1)
	assert.Equal(t, podcasts[0].URL, feed1)
	assert.Equal(t, podcasts[0].Title, "Good Morning Radio")

	podcasts, total, err = podcastsSrv.Search(ctx, &query.SearchQuery{Q: "gadgets"})
	assert.NoErr(t, err)
	assert.Equal(t, total, uint64(1))
	assert.Equal(t, len(podcasts), 1)
	assert.Equal(t, podcasts[0].URL, feed2)

	podcasts, _, err = podcastsSrv.Search(ctx, &query.SearchQuery{Q: "nosuchword"})
	assert.NoErr(t, err)
	assert.Equal(t, len(podcasts), 0)

	podcasts, _, err = podcastsSrv.Search(ctx, &query.SearchQuery{Q: "  "})
	assert.NoErr(t, err)
	assert.Equal(t, len(podcasts), 0)
}

func TestRebuildSearchIndex(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	enrichSrv := do.MustInvoke[*EnrichSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1, feed2)

	enrichSrv.parser = &fakeParser{feeds: map[string]*gofeed.Feed{
		feed1: {Title: "Good Morning Radio"},
		feed2: {Title: "Tech Weekly"},
	}}

	_, err := enrichSrv.RefreshOutdated(ctx, time.Now().UTC(), 10)
	assert.NoErr(t, err)

	cnt, err := podcastsSrv.RebuildSearchIndex(ctx)
	assert.NoErr(t, err)
	assert.Equal(t, cnt, 2)

	podcasts, _, err := podcastsSrv.Search(ctx, &query.SearchQuery{Q: "weekly"})
	assert.NoErr(t, err)
	assert.Equal(t, len(podcasts), 1)
	assert.Equal(t, podcasts[0].URL, feed2)
}

// TestResolveAfterRefresh check metadata update invalidate resolve cache.
func TestResolveAfterRefresh(t *testing.T) {
	ctx, i := prepareTests(t)
	podcastsSrv := do.MustInvoke[*PodcastsSrv](i)
	enrichSrv := do.MustInvoke[*EnrichSrv](i)
	_ = prepareTestUser(ctx, t, i, "user1")
	prepareTestSub(ctx, t, i, "user1", "dev1", syncTS, feed1)

	podcast, err := podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	assert.Equal(t, podcast.Title, "")

	enrichSrv.parser = &fakeParser{feeds: map[string]*gofeed.Feed{
		feed1: {Title: "Good Morning Radio", Description: "news and music"},
	}}

	err = enrichSrv.RefreshPodcastByURL(ctx, feed1)
	assert.NoErr(t, err)

	podcast, err = podcastsSrv.Resolve(ctx, &query.PodcastRefQuery{URL: feed1})
	assert.NoErr(t, err)
	assert.Equal(t, podcast.Title, "Good Morning Radio")
	assert.Equal(t, podcast.Description, "news and music")
	assert.True(t, !podcast.NeedsUpdate())
}
