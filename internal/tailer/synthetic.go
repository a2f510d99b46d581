// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tailer

import (
	"time"

	"github.com/nhr-fau/groundcast/internal/scanline"
)

// SyntheticSource injects a fabricated scanline into a Holder on a fixed
// timer, standing in for a live HRPT feed in tests and local
// experimentation. It is the Go counterpart of the original's DummyWatcher
// thread; unlike that thread, it is never wired into production startup.
type SyntheticSource struct {
	Holder    Adder
	Satellite string
	Interval  time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewSyntheticSource builds a source that adds one scanline to h every
// interval, stamped with the current time and a zero elevation.
func NewSyntheticSource(h Adder, satellite string, interval time.Duration) *SyntheticSource {
	return &SyntheticSource{
		Holder:    h,
		Satellite: satellite,
		Interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the injection loop in a background goroutine.
func (s *SyntheticSource) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.Holder.Add(s.Satellite, now.UTC(), 0, scanline.Owned(make([]byte, 0)))
			}
		}
	}()
}

// Stop halts the injection loop and waits for it to exit.
func (s *SyntheticSource) Stop() {
	close(s.stop)
	<-s.done
}
