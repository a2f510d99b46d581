// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tailer

import (
	"time"

	"github.com/nhr-fau/groundcast/internal/frame"
)

// Format recognizes and decodes one telemetry frame format. The tailer
// probes the registered Formats in order the first time it sees data on a
// path and binds the first one that Accepts it.
type Format interface {
	Name() string
	Accepts(data []byte) bool
	Parse(buf []byte, now time.Time, elevation frame.ElevationFunc) (lines []frame.Line, garbage []frame.Garbage, consumed int)
}

// caduFormat is a placeholder recognizer for the CADU frame format. The
// original kept a CADU reader stub that never actually matched any data;
// it is preserved here, unimplemented, so the format registry's probing
// order (CADU before HRPT) stays meaningful rather than being silently
// collapsed to a single format.
type caduFormat struct{}

func (caduFormat) Name() string                { return "CADU" }
func (caduFormat) Accepts(data []byte) bool    { return false }
func (caduFormat) Parse(buf []byte, now time.Time, elevation frame.ElevationFunc) ([]frame.Line, []frame.Garbage, int) {
	return nil, nil, 0
}

// hrptFormat recognizes any non-empty buffer and decodes it with
// internal/frame.
type hrptFormat struct{}

func (hrptFormat) Name() string             { return "HRPT" }
func (hrptFormat) Accepts(data []byte) bool { return len(data) > 0 }
func (hrptFormat) Parse(buf []byte, now time.Time, elevation frame.ElevationFunc) ([]frame.Line, []frame.Garbage, int) {
	return frame.Parse(buf, now, elevation)
}

// DefaultFormats is the registration-order list of formats the tailer
// probes: CADU (always rejects) before HRPT (always accepts once there is
// data), matching the original's FORMATS = [CADU, HRPT].
func DefaultFormats() []Format {
	return []Format{caduFormat{}, hrptFormat{}}
}
