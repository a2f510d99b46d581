// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"testing"
	"time"

	"github.com/nhr-fau/groundcast/internal/holder"
	"github.com/nhr-fau/groundcast/internal/scanline"
)

// TestPublisherSatisfiesHolderAnnouncer is a compile-time check: holder.New
// takes a holder.Announcer, and *Publisher must satisfy it structurally
// with scanline.Scanline, not a lookalike type.
func TestPublisherSatisfiesHolderAnnouncer(t *testing.T) {
	var _ holder.Announcer = (*Publisher)(nil)
}

func TestScanlineLiteralKeepsSatellite(t *testing.T) {
	s := scanline.Scanline{Satellite: "NOAA 19", Timecode: time.Now().UTC(), Elevation: 1}
	if s.Satellite == "" {
		t.Fatal("unexpected empty satellite")
	}
}
