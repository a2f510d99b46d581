// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tailer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhr-fau/groundcast/internal/frame"
	"github.com/nhr-fau/groundcast/internal/scanline"
)

type fakeHolder struct {
	mu    sync.Mutex
	added []scanline.Scanline
}

func (f *fakeHolder) Add(sat string, ts time.Time, elevation float64, _ scanline.PayloadSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, scanline.Scanline{Satellite: sat, Timecode: ts, Elevation: elevation})
}

func (f *fakeHolder) snapshot() []scanline.Scanline {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scanline.Scanline, len(f.added))
	copy(out, f.added)
	return out
}

func buildValidLine(satCode uint16, day uint16) []byte {
	buf := make([]byte, frame.LineSize)
	syncWords := []uint16{644, 367, 860, 413, 527, 149}
	for i, w := range syncWords {
		binary.BigEndian.PutUint16(buf[i*2:], w)
	}
	binary.BigEndian.PutUint16(buf[6*2:], satCode<<3)
	binary.BigEndian.PutUint16(buf[8*2:], day)
	auxWords := []uint16{
		994, 1011, 437, 701, 644, 277, 452, 467, 833, 224,
		694, 990, 220, 409, 1010, 403, 654, 105, 62, 867,
		75, 149, 320, 725, 668, 581, 866, 109, 166, 941,
		1022, 59, 989, 182, 461, 197, 751, 359, 704, 66,
		387, 238, 850, 746, 473, 573, 282, 6, 212, 169,
		623, 761, 979, 338, 249, 448, 331, 911, 853, 536,
		323, 703, 712, 370, 30, 900, 527, 977, 286, 158,
		26, 796, 705, 100, 432, 515, 633, 77, 65, 489,
		186, 101, 406, 560, 148, 358, 742, 113, 878, 453,
		501, 882, 525, 925, 377, 324, 589, 594, 496, 972,
	}
	auxOffset := frame.WordsPerLine - len(auxWords)
	for i, w := range auxWords {
		binary.BigEndian.PutUint16(buf[(auxOffset+i)*2:], w)
	}
	return buf
}

func TestTailerIngestsNewlyWrittenFrame(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHolder{}
	tl := New(dir, "*.hrpt", h, nil)
	require.NoError(t, tl.Start())
	defer tl.Stop()

	path := filepath.Join(dir, "a.hrpt")
	require.NoError(t, os.WriteFile(path, buildValidLine(7, 180), 0o644))

	require.Eventually(t, func() bool {
		return len(h.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := h.snapshot()[0]
	assert.Equal(t, "NOAA 15", got.Satellite)
}

func TestTailerIgnoresUnmatchedPattern(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHolder{}
	tl := New(dir, "*.hrpt", h, nil)
	require.NoError(t, tl.Start())
	defer tl.Stop()

	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, buildValidLine(7, 180), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, h.snapshot())
}

func TestTailerSerializesAppendsToSamePath(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHolder{}
	tl := New(dir, "*.hrpt", h, nil)
	require.NoError(t, tl.Start())
	defer tl.Stop()

	path := filepath.Join(dir, "a.hrpt")
	require.NoError(t, os.WriteFile(path, buildValidLine(7, 180), 0o644))
	require.Eventually(t, func() bool { return len(h.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(buildValidLine(3, 181))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(h.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	got := h.snapshot()
	assert.Equal(t, "NOAA 15", got[0].Satellite)
	assert.Equal(t, "NOAA 16", got[1].Satellite)
}
