// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bus wraps a NATS connection for groundcast's two communication
// patterns: pub/sub ("have"/"heartbeat" announcements) and request/reply
// (scanline fetches, pings). NATS provides both primitives natively, which
// is why it replaces the original design's pair of ZeroMQ PUB/SUB and
// REQ/REP sockets: one connection, two roles.
package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nhr-fau/groundcast/pkg/log"
	"github.com/nhr-fau/groundcast/pkg/message"
)

// Config describes how to reach the NATS server backing the bus.
type Config struct {
	Address       string `json:"address"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CredsFilePath string `json:"creds-file-path"`
}

// Conn is a connected bus endpoint. All methods are safe for concurrent
// use by multiple goroutines (the Holder and the Heart both publish
// through the same Conn, per spec.md §4.4/§4.5).
type Conn struct {
	nc *nats.Conn
}

// Connect dials the configured NATS server.
func Connect(cfg Config) (*Conn, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("bus: address is required")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("bus: disconnected: %s", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("bus: reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("bus: %s", err.Error())
		}),
	)

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("bus: connect: %w", err)
	}
	log.Infof("bus: connected to %s", cfg.Address)
	return &Conn{nc: nc}, nil
}

// Publish serializes msg and publishes it to subject.
func (c *Conn) Publish(subject string, msg *message.Message) error {
	if err := c.nc.Publish(subject, msg.Encode()); err != nil {
		return fmt.Errorf("bus: publish to %q: %w", subject, err)
	}
	return nil
}

// Subscription is a synchronous subscription whose messages are pulled
// with NextMsg, giving the same bounded-wait semantics the original
// design got from a zmq Poller with a timeout.
type Subscription struct {
	sub *nats.Subscription
}

// SubscribeSync subscribes to subject and returns a handle for polling.
func (c *Conn) SubscribeSync(subject string) (*Subscription, error) {
	sub, err := c.nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("bus: subscribe to %q: %w", subject, err)
	}
	return &Subscription{sub: sub}, nil
}

// NextMsg blocks for up to timeout waiting for the next message, decoding
// it into a *message.Message. It returns nats.ErrTimeout (unwrapped, via
// errors.Is) when nothing arrived, which callers use to re-check their
// cancellation signal without blocking indefinitely.
func (s *Subscription) NextMsg(timeout time.Duration) (*message.Message, error) {
	raw, err := s.sub.NextMsg(timeout)
	if err != nil {
		return nil, err
	}
	return message.Decode(raw.Data)
}

// Request is an inbound request/reply-shaped message: it carries both the
// decoded envelope and the means to send exactly one reply, mirroring a
// zmq REP socket's receive-then-send pairing.
type Request struct {
	Msg *message.Message
	raw *nats.Msg
}

// NextRequest is like NextMsg but also retains the raw NATS message so the
// caller can Reply to it. Used by the request manager, whose reply must be
// addressed back to the requester's private inbox subject rather than
// re-published to subject.
func (s *Subscription) NextRequest(timeout time.Duration) (*Request, error) {
	raw, err := s.sub.NextMsg(timeout)
	if err != nil {
		return nil, err
	}
	msg, err := message.Decode(raw.Data)
	if err != nil {
		return nil, err
	}
	return &Request{Msg: msg, raw: raw}, nil
}

// Reply sends msg back to whoever sent this request. Exactly one reply
// must be sent per request (spec.md §4.9); calling Reply more than once
// per Request is a caller error.
func (r *Request) Reply(msg *message.Message) error {
	if err := r.raw.Respond(msg.Encode()); err != nil {
		return fmt.Errorf("bus: reply: %w", err)
	}
	return nil
}

// Unsubscribe releases the subscription.
func (s *Subscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// Request sends msg to subject and waits up to timeout for a single reply,
// matching a zmq REQ/REP round trip.
func (c *Conn) Request(subject string, msg *message.Message, timeout time.Duration) (*message.Message, error) {
	reply, err := c.nc.Request(subject, msg.Encode(), timeout)
	if err != nil {
		return nil, fmt.Errorf("bus: request to %q: %w", subject, err)
	}
	return message.Decode(reply.Data)
}

// Close closes the underlying connection without draining it. Unlike a zmq socket's
// LINGER=0 close, NATS has no unsent-message backlog to worry about for a
// client connection, so Close is immediate.
func (c *Conn) Close() {
	c.nc.Close()
}

// Raw exposes the underlying *nats.Conn for cases (like SubscribeSync-based
// request handling) that need lower-level access than this wrapper
// provides.
func (c *Conn) Raw() *nats.Conn {
	return c.nc
}
