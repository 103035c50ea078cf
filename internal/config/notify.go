package config

//
// notify.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"strings"

	"gitlab.com/kabes/go-poddir/internal/aerr"
)

// NotifyConf configure publishing podcast events to external amqp broker.
// Empty AMQPURL disable publishing.
type NotifyConf struct {
	AMQPURL    string
	Exchange   string
	RoutingKey string
	Queue      string
}

func (c *NotifyConf) Enabled() bool {
	return c.AMQPURL != ""
}

func (c *NotifyConf) Validate() error {
	if c.AMQPURL == "" {
		return nil
	}

	if !strings.HasPrefix(c.AMQPURL, "amqp://") && !strings.HasPrefix(c.AMQPURL, "amqps://") {
		return aerr.ErrValidation.WithUserMsg("invalid amqp url: url=%q", c.AMQPURL)
	}

	if c.Exchange == "" {
		return aerr.ErrValidation.WithUserMsg("amqp exchange can't be empty")
	}

	return nil
}
