// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package heart implements the heartbeat emitter (component E): a
// periodic "heartbeat" publish so peers and monitors can detect liveness.
package heart

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nhr-fau/groundcast/pkg/log"
)

// Publisher is the subset of *transport.Publisher the heart needs.
type Publisher interface {
	PublishHeartbeat(addr string) error
}

// Heart publishes a heartbeat every Interval until Stop is called.
type Heart struct {
	Publisher Publisher
	Addr      string
	Interval  time.Duration

	scheduler gocron.Scheduler
}

// New builds a Heart. Call Start to begin emitting.
func New(p Publisher, addr string, interval time.Duration) *Heart {
	return &Heart{Publisher: p, Addr: addr, Interval: interval}
}

// Start schedules the periodic heartbeat publish.
func (h *Heart) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	h.scheduler = s

	_, err = s.NewJob(
		gocron.DurationJob(h.Interval),
		gocron.NewTask(func() {
			if err := h.Publisher.PublishHeartbeat(h.Addr); err != nil {
				log.Warnf("heart: publishing heartbeat: %s", err.Error())
			}
		}),
	)
	if err != nil {
		return err
	}

	s.Start()
	return nil
}

// Stop cancels the scheduled job; no further heartbeat is emitted once
// Stop returns.
func (h *Heart) Stop() error {
	if h.scheduler == nil {
		return nil
	}
	return h.scheduler.Shutdown()
}
