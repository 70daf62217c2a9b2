// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notifier bridges change notifications between processes over Redis
// pub/sub. Each committed local write publishes the collection name; a
// received message wakes the local subscribers of that collection without
// re-publishing. Single-process deployments run without a Notifier.
type Notifier struct {
	client  *redis.Client
	channel string
	cancel  context.CancelFunc
	done    chan struct{}
}

// NotifierOptions configures the Redis notifier.
type NotifierOptions struct {
	// URL is the Redis connection URL (e.g. redis://localhost:6379/0).
	URL string

	// Prefix is prepended to the pub/sub channel name (e.g. "shield:").
	Prefix string

	// ConnectTimeout is the timeout for establishing a connection.
	ConnectTimeout time.Duration
}

// NewNotifier connects to Redis and verifies the connection.
func NewNotifier(opts NotifierOptions) (*Notifier, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Notifier{
		client:  client,
		channel: opts.Prefix + "changes",
		done:    make(chan struct{}),
	}, nil
}

// AttachNotifier wires the notifier to the store and starts the receive
// loop. Must be called at most once, before the store is shared.
func (s *Store) AttachNotifier(n *Notifier) {
	s.notifier = n

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	pubsub := n.client.Subscribe(ctx, n.channel)
	go func() {
		defer close(n.done)
		defer func() { _ = pubsub.Close() }()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// Remote change: wake local subscribers only.
				s.changed(msg.Payload, false)
			}
		}
	}()
}

// publish announces a local change to other processes. Failures are
// logged; local delivery has already happened.
func (n *Notifier) publish(collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := n.client.Publish(ctx, n.channel, collection).Err(); err != nil {
		slog.Error("publishing change notification failed",
			"collection", collection, "error", err)
	}
}

// Close stops the receive loop and closes the Redis connection.
func (n *Notifier) Close() error {
	if n.cancel != nil {
		n.cancel()
		<-n.done
	}
	return n.client.Close()
}
