// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package frame decodes HRPT (High Resolution Picture Transmission) frames
// out of a raw byte stream, recognizing frame boundaries, satellite
// identity and timecode the way the file tailer needs in order to turn
// freshly-written bytes into scanline.Scanline values.
package frame

import (
	"encoding/binary"
	"time"

	"github.com/nhr-fau/groundcast/internal/scanline"
)

const (
	// WordsPerLine is the number of big-endian 16-bit words in one HRPT
	// line, frame_sync through aux_sync inclusive.
	WordsPerLine = 11090
	// LineSize is WordsPerLine expressed in bytes.
	LineSize = WordsPerLine * 2

	idWordOffset       = 6 // word index of the satellite id field
	timecodeWordOffset = 8 // word index of the first of four timecode words
	auxSyncWords       = 100
	auxSyncWordOffset  = WordsPerLine - auxSyncWords
	frameSyncWords     = 6
)

// frameSyncPattern is the fixed 6-word prefix every HRPT line starts with.
var frameSyncPattern = [frameSyncWords]uint16{644, 367, 860, 413, 527, 149}

// auxSyncPattern is the fixed 100-word trailer every HRPT line ends with.
var auxSyncPattern = [auxSyncWords]uint16{
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

// satelliteByID maps the 4-bit satellite code packed into bits 3-6 of the
// id word to a human-readable satellite name.
var satelliteByID = map[uint16]string{
	7:  "NOAA 15",
	3:  "NOAA 16",
	13: "NOAA 18",
	15: "NOAA 19",
}

// Line is one decoded HRPT line: its identity plus the raw bytes as read
// from the stream, unmodified.
type Line struct {
	scanline.Scanline
	Raw []byte
}

// ElevationFunc computes a scanline's elevation above the local horizon.
// Elevation is not recoverable from the HRPT frame itself (it depends on
// the receiving station's location and the satellite's orbit), so the
// parser takes it as an injected collaborator rather than hard-coding an
// orbital propagator.
type ElevationFunc func(satellite string, at time.Time) float64

// Recognize reports whether buf begins with a valid HRPT frame_sync
// pattern. It never looks past the first frameSyncWords*2 bytes, so it is
// safe to call on a buffer shorter than one full line.
func Recognize(buf []byte) bool {
	if len(buf) < frameSyncWords*2 {
		return false
	}
	for i := 0; i < frameSyncWords; i++ {
		if binary.BigEndian.Uint16(buf[i*2:]) != frameSyncPattern[i] {
			return false
		}
	}
	return true
}

// Garbage records a line that failed its integrity check. Timecode is
// still decoded before the check runs, so the caller can log the bad
// frame's nominal timestamp the way the original did, even though the
// frame itself is discarded.
type Garbage struct {
	Timecode time.Time
}

// Parse decodes as many complete HRPT lines as buf holds, returning the
// decoded lines, the lines that failed their integrity check, and the
// number of bytes consumed. Leftover bytes shorter than one line are left
// unconsumed for the caller to prepend to the next read. Every whole line
// in buf, garbage or not, advances consumed by LineSize: a corrupt frame
// is discarded but never blocks progress past it. Every integrity failure
// — frame_sync, aux_sync or an unrecognized satellite id — is reported as
// a Garbage entry carrying the line's nominal timestamp, matching the
// original's "Garbage line: <timestamp>" logging for any sync mismatch.
func Parse(buf []byte, now time.Time, elevation ElevationFunc) (lines []Line, garbage []Garbage, consumed int) {
	for len(buf)-consumed >= LineSize {
		chunk := buf[consumed : consumed+LineSize]
		consumed += LineSize

		line, ok := decodeLine(chunk, now, elevation)
		if !ok {
			garbage = append(garbage, Garbage{Timecode: line.Timecode})
			continue
		}
		lines = append(lines, line)
	}
	return lines, garbage, consumed
}

// decodeLine decodes one full-length chunk. The timecode is decoded
// before any integrity check so its nominal timestamp is always
// available to report, even for a chunk that turns out not to be an HRPT
// line at all. ok is false when the chunk fails frame_sync, fails
// aux_sync, or carries an unrecognized satellite id.
func decodeLine(chunk []byte, now time.Time, elevation ElevationFunc) (line Line, ok bool) {
	var tc [4]uint16
	for i := range tc {
		tc[i] = binary.BigEndian.Uint16(chunk[(timecodeWordOffset+i)*2:])
	}
	instant := DecodeTimecode(tc, now)
	line.Timecode = instant

	if !Recognize(chunk) {
		return line, false
	}

	if !auxSyncMatches(chunk) {
		return line, false
	}

	idWord := binary.BigEndian.Uint16(chunk[idWordOffset*2:])
	satCode := (idWord >> 3) & 0xF
	satellite, known := satelliteByID[satCode]
	if !known {
		return line, false
	}

	raw := make([]byte, LineSize)
	copy(raw, chunk)

	line.Satellite = satellite
	if elevation != nil {
		line.Elevation = elevation(satellite, instant)
	}
	line.Raw = raw
	return line, true
}

func auxSyncMatches(chunk []byte) bool {
	for i := 0; i < auxSyncWords; i++ {
		if binary.BigEndian.Uint16(chunk[(auxSyncWordOffset+i)*2:]) != auxSyncPattern[i] {
			return false
		}
	}
	return true
}

// DecodeTimecode turns the four raw timecode words of an HRPT line into a
// UTC instant. The format only encodes day-of-year and milliseconds since
// midnight, not the year itself, so the year is inferred from now: try the
// current UTC year first, and if that lands in the future (the telemetry
// can't have been produced yet), assume it belongs to the previous year
// instead. This does not handle telemetry older than one year, a known
// limitation carried over unchanged.
func DecodeTimecode(words [4]uint16, now time.Time) time.Time {
	day := int(words[0])
	msecs := (int64(words[1]&0x7F) << 20) | (int64(words[2]&0x3FF) << 10) | int64(words[3]&0x3FF)
	days := day/2 - 1

	now = now.UTC()
	instant := yearOrigin(now.Year()).AddDate(0, 0, days).Add(time.Duration(msecs) * time.Millisecond)
	if instant.After(now) {
		instant = yearOrigin(now.Year() - 1).AddDate(0, 0, days).Add(time.Duration(msecs) * time.Millisecond)
	}
	return instant
}

func yearOrigin(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
