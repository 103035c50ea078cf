package notify

//
// rabbitmq.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
)

// AMQPPublisher deliver events to AMQP broker as persistent json messages.
type AMQPPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

func NewAMQPPublisher(conf config.NotifyConf) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(conf.AMQPURL)
	if err != nil {
		return nil, aerr.Wrapf(err, "connect to broker failed")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()

		return nil, aerr.Wrapf(err, "open channel failed")
	}

	err = channel.ExchangeDeclare(conf.Exchange, "direct", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()

		return nil, aerr.Wrapf(err, "declare exchange failed").WithMeta("exchange", conf.Exchange)
	}

	// queue is optional; without it consumers declare and bind their own
	if conf.Queue != "" {
		queue, err := channel.QueueDeclare(conf.Queue, true, false, false, false, nil)
		if err != nil {
			channel.Close()
			conn.Close()

			return nil, aerr.Wrapf(err, "declare queue failed").WithMeta("queue", conf.Queue)
		}

		if err := channel.QueueBind(queue.Name, conf.RoutingKey, conf.Exchange, false, nil); err != nil {
			channel.Close()
			conn.Close()

			return nil, aerr.Wrapf(err, "bind queue failed").WithMeta("queue", conf.Queue)
		}
	}

	log.Logger.Info().Str("exchange", conf.Exchange).Str("routing_key", conf.RoutingKey).
		Msg("connected to broker")

	return &AMQPPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   conf.Exchange,
		routingKey: conf.RoutingKey,
	}, nil
}

func (r *AMQPPublisher) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return aerr.Wrapf(err, "marshal event failed")
	}

	err = r.channel.PublishWithContext(ctx, r.exchange, r.routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return aerr.Wrapf(err, "publish event failed")
	}

	log.Logger.Debug().Object("event", event).Msg("event published")

	return nil
}

func (r *AMQPPublisher) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}

	if r.conn != nil {
		return r.conn.Close() //nolint:wrapcheck
	}

	return nil
}
