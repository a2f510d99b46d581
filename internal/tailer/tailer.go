// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tailer watches a directory for modified files matching a glob
// pattern, feeds freshly-written bytes to a Format and hands decoded
// scanlines to the Holder. It owns all per-file parser state; the parser
// itself stays a pure function of (bytes, state) -> (scanlines, consumed).
package tailer

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nhr-fau/groundcast/internal/frame"
	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/pkg/log"
)

// Adder is the subset of *holder.Holder the tailer needs.
type Adder interface {
	Add(sat string, ts time.Time, elevation float64, source scanline.PayloadSource)
}

// pathState is the per-file reader state: which Format got bound to this
// path and how many bytes of it have already been consumed.
type pathState struct {
	mu       sync.Mutex
	format   Format
	consumed int64
}

// Tailer watches Dir for modify events on files matching Pattern. Each
// tailed path is serialized against itself; different paths are processed
// independently, so a burst of events across many files parallelizes
// naturally.
type Tailer struct {
	Dir       string
	Pattern   string
	Holder    Adder
	Elevation frame.ElevationFunc
	Formats   []Format
	Now       func() time.Time // overridable for tests; defaults to time.Now

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	statesMu sync.Mutex
	states   map[string]*pathState
}

// New builds a Tailer. Call Start to begin watching.
func New(dir, pattern string, h Adder, elevation frame.ElevationFunc) *Tailer {
	return &Tailer{
		Dir:       dir,
		Pattern:   pattern,
		Holder:    h,
		Elevation: elevation,
		Formats:   DefaultFormats(),
		Now:       time.Now,
		done:      make(chan struct{}),
		states:    make(map[string]*pathState),
	}
}

// Start begins watching Dir in a background goroutine.
func (t *Tailer) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(t.Dir); err != nil {
		_ = w.Close()
		return err
	}
	t.watcher = w

	t.wg.Add(1)
	go t.loop()
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (t *Tailer) Stop() {
	close(t.done)
	if t.watcher != nil {
		_ = t.watcher.Close()
	}
	t.wg.Wait()
}

func (t *Tailer) loop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("tailer: watch error: %s", err.Error())
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			matched, err := filepath.Match(t.Pattern, filepath.Base(ev.Name))
			if err != nil || !matched {
				continue
			}
			t.handle(ev.Name)
		}
	}
}

func (t *Tailer) stateFor(path string) *pathState {
	t.statesMu.Lock()
	defer t.statesMu.Unlock()

	st, ok := t.states[path]
	if !ok {
		st = &pathState{}
		t.states[path] = st
	}
	return st
}

func (t *Tailer) handle(path string) {
	st := t.stateFor(path)
	st.mu.Lock()
	defer st.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		log.Warnf("tailer: opening %s: %s", path, err.Error())
		return
	}
	defer f.Close()

	if _, err := f.Seek(st.consumed, io.SeekStart); err != nil {
		log.Warnf("tailer: seeking %s: %s", path, err.Error())
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		log.Warnf("tailer: reading %s: %s", path, err.Error())
		return
	}
	if len(data) == 0 {
		return
	}

	if st.format == nil {
		for _, candidate := range t.Formats {
			if candidate.Accepts(data) {
				st.format = candidate
				break
			}
		}
		if st.format == nil {
			return
		}
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	lines, garbage, consumed := st.format.Parse(data, now(), t.Elevation)
	for _, g := range garbage {
		log.Infof("tailer: garbage line at %s in %s", g.Timecode.Format(time.RFC3339), path)
	}
	for _, line := range lines {
		t.Holder.Add(line.Satellite, line.Timecode, line.Elevation, scanline.Owned(line.Raw))
	}
	st.consumed += int64(consumed)
}
