// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package message

import "time"

// HaveData is the data field of a "have" announcement.
type HaveData struct {
	Satellite string    `json:"satellite"`
	Timecode  time.Time `json:"timecode"`
	Elevation float64   `json:"elevation"`
	Origin    string    `json:"origin"`
}

// HeartbeatData is the data field of a "heartbeat" announcement.
type HeartbeatData struct {
	Addr         string `json:"addr"`
	NextPassTime string `json:"next_pass_time"`
}

// ScanlineRequestData is the data field of a "request" whose inner type is
// "scanline".
type ScanlineRequestData struct {
	Type      string    `json:"type"`
	Satellite string    `json:"satellite"`
	UTCTime   time.Time `json:"utctime"`
}

// PongData is the data field of a "pong" reply.
type PongData struct {
	Station string `json:"station"`
}
