package notify

//
// notify_test.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"sync"
	"testing"

	"gitlab.com/kabes/go-poddir/internal/assert"
	"gitlab.com/kabes/go-poddir/internal/model"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeSink) Deliver(_ context.Context, event *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, *event)

	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func TestDispatcherDeliverEvents(t *testing.T) {
	sink := &fakeSink{}
	dispatcher := NewDispatcher()
	dispatcher.AddSink(sink)

	assert.True(t, dispatcher.Enabled())

	podcast := &model.Podcast{ID: 1, XID: "xid1", URL: "http://example.com/feed.xml"}
	dispatcher.Notify(NewEvent(EventPodcastCreated, podcast))
	dispatcher.Notify(NewEvent(EventPodcastOutdated, podcast))

	// shutdown wait for queue drain
	assert.NoErr(t, dispatcher.Shutdown())

	sink.mu.Lock()
	defer sink.mu.Unlock()

	assert.Equal(t, len(sink.events), 2)
	assert.Equal(t, sink.events[0].Event, EventPodcastCreated)
	assert.Equal(t, sink.events[0].XID, "xid1")
	assert.Equal(t, sink.events[1].Event, EventPodcastOutdated)
	assert.True(t, sink.closed)
}

func TestDispatcherFanOut(t *testing.T) {
	first, second := &fakeSink{}, &fakeSink{}
	dispatcher := NewDispatcher()
	dispatcher.AddSink(first)
	dispatcher.AddSink(second)

	dispatcher.Notify(NewEvent(EventPodcastUpdated, &model.Podcast{ID: 2, XID: "xid2"}))
	assert.NoErr(t, dispatcher.Shutdown())

	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	assert.Equal(t, len(first.events), 1)
	assert.Equal(t, len(second.events), 1)
	assert.Equal(t, second.events[0].Event, EventPodcastUpdated)
}

func TestDispatcherNoSinks(t *testing.T) {
	dispatcher := NewDispatcher()

	assert.True(t, !dispatcher.Enabled())

	// events are dropped when nobody listen
	dispatcher.Notify(NewEvent(EventPodcastUpdated, &model.Podcast{ID: 1}))
	assert.NoErr(t, dispatcher.Shutdown())
}
