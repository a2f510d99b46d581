// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cleaner implements the age-based eviction sweep (component F):
// every interval, delete scanlines older than the configured retention.
package cleaner

import (
	"sort"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nhr-fau/groundcast/internal/telemetry"
)

// Store is the subset of *holder.Holder the cleaner needs. Deliberately
// narrow: Satellites, EntriesFor and Delete are the only operations a
// sweep uses, and none is called while another's lock is held, so the cleaner
// never holds a Holder lock across the full sweep.
type Store interface {
	Satellites() []string
	EntriesFor(sat string) []time.Time
	Delete(sat string, ts time.Time)
}

// Cleaner evicts scanlines older than Retention every Interval.
type Cleaner struct {
	Store     Store
	Retention time.Duration
	Interval  time.Duration
	Now       func() time.Time

	// Metrics is optional; a nil Metrics disables counting.
	Metrics *telemetry.Metrics

	scheduler gocron.Scheduler
}

// New builds a Cleaner. Call Start to begin sweeping.
func New(store Store, retention, interval time.Duration) *Cleaner {
	return &Cleaner{Store: store, Retention: retention, Interval: interval, Now: time.Now}
}

// Start schedules the periodic sweep.
func (c *Cleaner) Start() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	c.scheduler = s

	_, err = s.NewJob(
		gocron.DurationJob(c.Interval),
		gocron.NewTask(c.sweep),
	)
	if err != nil {
		return err
	}

	s.Start()
	return nil
}

// Stop cancels the scheduled sweep; any sweep already in progress
// completes normally (it never holds a lock across the whole sweep, so
// this is bounded by a single delete's cost, not the sweep's).
func (c *Cleaner) Stop() error {
	if c.scheduler == nil {
		return nil
	}
	return c.scheduler.Shutdown()
}

func (c *Cleaner) sweep() {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cutoff := now().Add(-c.Retention)

	for _, sat := range c.Store.Satellites() {
		entries := c.Store.EntriesFor(sat)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Before(entries[j]) })
		for _, ts := range entries {
			if ts.Before(cutoff) {
				c.Store.Delete(sat, ts)
				if c.Metrics != nil {
					c.Metrics.ScanlinesEvicted.Inc()
				}
			}
		}
	}
}
