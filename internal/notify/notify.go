// Package notify deliver podcast change events to interested consumers,
// both in-process workers and external systems behind a message broker.
package notify

//
// notify.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
	"gitlab.com/kabes/go-poddir/internal/model"
)

// Event types.
const (
	// EventPodcastCreated is sent when new placeholder podcast is created.
	EventPodcastCreated = "podcast_created"
	// EventPodcastOutdated is sent when podcast with missing or stale
	// metadata is spotted; fetchers may react faster than periodic
	// refresh.
	EventPodcastOutdated = "podcast_outdated"
	// EventPodcastUpdated is sent after successful metadata update.
	EventPodcastUpdated = "podcast_updated"
)

type Event struct {
	Event     string    `json:"event"`
	PodcastID int64     `json:"podcast_id"`
	XID       string    `json:"xid"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"ts"`
}

func NewEvent(event string, podcast *model.Podcast) Event {
	return Event{
		Event:     event,
		PodcastID: podcast.ID,
		XID:       podcast.XID,
		URL:       podcast.URL,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Event) MarshalZerologObject(event *zerolog.Event) {
	event.Str("event", e.Event).
		Int64("podcast_id", e.PodcastID).
		Str("xid", e.XID).
		Str("url", e.URL)
}

//------------------------------------------------------------------------------

// Sink receive events from Dispatcher. Deliver is called from single
// dispatcher goroutine and should not block for long.
type Sink interface {
	Deliver(ctx context.Context, event *Event) error
}

//------------------------------------------------------------------------------

const (
	queueSize      = 64
	deliverTimeout = 10 * time.Second
)

// Dispatcher queue events and deliver them to registered sinks in
// background. Sending never block callers; events are dropped when queue
// is full or there is no sink registered.
type Dispatcher struct {
	mu     sync.Mutex
	sinks  []Sink
	events chan Event
	done   chan struct{}
}

func NewDispatcherI(i do.Injector) (*Dispatcher, error) {
	dispatcher := NewDispatcher()

	conf := do.MustInvoke[config.NotifyConf](i)
	if !conf.Enabled() {
		log.Logger.Info().Msg("broker notifications disabled")

		return dispatcher, nil
	}

	pub, err := NewAMQPPublisher(conf)
	if err != nil {
		return nil, aerr.Wrapf(err, "create amqp publisher failed")
	}

	dispatcher.AddSink(pub)

	return dispatcher, nil
}

func NewDispatcher() *Dispatcher {
	dispatcher := &Dispatcher{
		events: make(chan Event, queueSize),
		done:   make(chan struct{}),
	}

	go dispatcher.run()

	return dispatcher
}

// AddSink register sink; events queued before registration are not
// redelivered.
func (d *Dispatcher) AddSink(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sinks = append(d.sinks, sink)
}

func (d *Dispatcher) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sinks) > 0
}

// Notify queue event for delivery.
func (d *Dispatcher) Notify(event Event) {
	if d.events == nil || !d.Enabled() {
		return
	}

	select {
	case d.events <- event:
	default:
		log.Logger.Debug().Object("event", &event).Msg("notify queue full; event dropped")
	}
}

// Shutdown drain queue, stop delivery and close closeable sinks.
func (d *Dispatcher) Shutdown() error {
	if d.events == nil {
		return nil
	}

	close(d.events)
	<-d.done

	var lastErr error

	for _, sink := range d.snapshotSinks() {
		if closer, ok := sink.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				lastErr = err
			}
		}
	}

	return lastErr
}

func (d *Dispatcher) snapshotSinks() []Sink {
	d.mu.Lock()
	defer d.mu.Unlock()

	sinks := make([]Sink, len(d.sinks))
	copy(sinks, d.sinks)

	return sinks
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.events {
		for _, sink := range d.snapshotSinks() {
			ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)

			if err := sink.Deliver(ctx, &event); err != nil {
				log.Logger.Warn().Err(err).Object("event", &event).Msg("deliver event failed")
			}

			cancel()
		}
	}
}
