// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package holder implements the Holder: the single piece of shared mutable
// state in groundcast, a concurrent satellite -> timestamp -> scanline map
// that the tailer, the mirror watcher, the cleaner and the request manager
// all read and write.
package holder

import (
	"sync"
	"time"

	"github.com/nhr-fau/groundcast/internal/scanline"
)

// entry is what one (satellite, timestamp) key maps to.
type entry struct {
	elevation float64
	source    scanline.PayloadSource
}

// Announcer is the subset of *transport.Publisher the Holder needs:
// announcing a "have" after a successful Add. It is an interface so tests
// can substitute a recording stub instead of a Publisher on a live bus.
type Announcer interface {
	AnnounceHave(s scanline.Scanline) error
}

// Holder is the two-level concurrent map described above. The zero value
// is not usable; construct with New.
type Holder struct {
	mu        sync.Mutex
	bySat     map[string]map[time.Time]entry
	announcer Announcer
}

// New builds an empty Holder that announces additions through announcer.
func New(announcer Announcer) *Holder {
	return &Holder{
		bySat:     make(map[string]map[time.Time]entry),
		announcer: announcer,
	}
}

// Add inserts or silently overwrites the entry for (sat, ts), then
// announces a "have" for it. The announcement happens strictly after the
// mutation is released, so a peer that reacts to the announcement by
// requesting the scanline is guaranteed to find it already present.
func (h *Holder) Add(sat string, ts time.Time, elevation float64, source scanline.PayloadSource) {
	ts = ts.UTC()

	h.mu.Lock()
	byTime, ok := h.bySat[sat]
	if !ok {
		byTime = make(map[time.Time]entry)
		h.bySat[sat] = byTime
	}
	byTime[ts] = entry{elevation: elevation, source: source}
	h.mu.Unlock()

	if h.announcer == nil {
		return
	}
	_ = h.announcer.AnnounceHave(scanline.Scanline{
		Satellite: sat,
		Timecode:  ts,
		Elevation: elevation,
	})
}

// Get returns the elevation and payload source recorded for (sat, ts).
func (h *Holder) Get(sat string, ts time.Time) (elevation float64, source scanline.PayloadSource, err error) {
	ts = ts.UTC()

	h.mu.Lock()
	e, ok := h.bySat[sat][ts]
	h.mu.Unlock()

	if !ok {
		return 0, scanline.PayloadSource{}, scanline.ErrNotFound
	}
	return e.elevation, e.source, nil
}

// GetData materializes the byte payload for (sat, ts). If the underlying
// source is a lazy remote reference, this may block on a network round
// trip and may fail with scanline.ErrRemoteMissing, ErrRemoteFetchFailed
// or ErrProtocolError.
func (h *Holder) GetData(sat string, ts time.Time) ([]byte, error) {
	_, source, err := h.Get(sat, ts)
	if err != nil {
		return nil, err
	}
	return source.Bytes()
}

// Satellites returns the satellites currently known, a read-only snapshot
// taken under the lock.
func (h *Holder) Satellites() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, 0, len(h.bySat))
	for sat := range h.bySat {
		out = append(out, sat)
	}
	return out
}

// EntriesFor returns a read-only snapshot of the timestamps held for sat,
// for the Cleaner's age sweep.
func (h *Holder) EntriesFor(sat string) []time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	byTime := h.bySat[sat]
	out := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		out = append(out, ts)
	}
	return out
}

// Delete removes the entry for (sat, ts), silently succeeding if absent.
func (h *Holder) Delete(sat string, ts time.Time) {
	ts = ts.UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	byTime, ok := h.bySat[sat]
	if !ok {
		return
	}
	delete(byTime, ts)
	if len(byTime) == 0 {
		delete(h.bySat, sat)
	}
}
