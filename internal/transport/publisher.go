// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport adapts pkg/bus to the narrow publisher interfaces the
// Holder and the Heart depend on, and owns the single "sender" identity
// (the Publisher, component D) those two share. All sends funnel through
// one *bus.Conn, whose own internal write path is already serialized, so
// this package adds no locking of its own beyond what bus.Conn provides.
package transport

import (
	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/internal/telemetry"
	"github.com/nhr-fau/groundcast/pkg/bus"
	"github.com/nhr-fau/groundcast/pkg/message"
)

// Publisher is the bound pub/sub endpoint for one station: every "have"
// and "heartbeat" announcement this process emits goes through it.
type Publisher struct {
	Conn    *bus.Conn
	Station string
	Sender  string // identifies this process, e.g. "host:pubport"

	// Metrics is optional; a nil Metrics disables counting.
	Metrics *telemetry.Metrics
}

// New builds a Publisher bound to station and identified as sender.
func New(conn *bus.Conn, station, sender string) *Publisher {
	return &Publisher{Conn: conn, Station: station, Sender: sender}
}

// AnnounceHave publishes a "have" for s, satisfying holder.Announcer.
func (p *Publisher) AnnounceHave(s scanline.Scanline) error {
	data := message.HaveData{
		Satellite: s.Satellite,
		Timecode:  s.Timecode,
		Elevation: s.Elevation,
		Origin:    p.Sender,
	}
	msg, err := message.NewJSON(bus.HaveSubject(p.Station), message.TypeHave, p.Sender, data)
	if err != nil {
		return err
	}
	if err := p.Conn.Publish(msg.Subject, msg); err != nil {
		return err
	}
	if p.Metrics != nil {
		p.Metrics.HaveAnnouncements.Inc()
	}
	return nil
}

// PublishHeartbeat publishes a "heartbeat", satisfying heart.Publisher.
func (p *Publisher) PublishHeartbeat(addr string) error {
	data := message.HeartbeatData{Addr: addr, NextPassTime: "unknown"}
	msg, err := message.NewJSON(bus.HeartbeatSubject(p.Station), message.TypeHeartbeat, p.Sender, data)
	if err != nil {
		return err
	}
	return p.Conn.Publish(msg.Subject, msg)
}
