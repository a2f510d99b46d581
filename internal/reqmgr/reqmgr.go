// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reqmgr implements the request manager (component I): a bounded
// polling loop that answers ping/request/notice messages, replying
// exactly once per request before accepting the next one.
package reqmgr

import (
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/internal/telemetry"
	"github.com/nhr-fau/groundcast/pkg/bus"
	"github.com/nhr-fau/groundcast/pkg/log"
	"github.com/nhr-fau/groundcast/pkg/message"
)

// pollTimeout bounds how long the receive loop blocks before re-checking
// for shutdown, so stop is never more than this far away.
const pollTimeout = 2 * time.Second

// Store is the subset of *holder.Holder the request manager needs.
type Store interface {
	GetData(sat string, ts time.Time) ([]byte, error)
}

// Manager binds a reply subscription and answers every request it
// receives with exactly one reply before polling for the next.
type Manager struct {
	Conn    *bus.Conn
	Station string
	Sender string // this process's identity, stamped on pong replies
	Store   Store

	// Metrics is optional; a nil Metrics disables counting.
	Metrics *telemetry.Metrics

	sub  *bus.Subscription
	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex // guards receive-then-respond against concurrent misuse
}

// New builds a Manager for station, replying as sender, served from
// store.
func New(conn *bus.Conn, station, sender string, store Store) *Manager {
	return &Manager{Conn: conn, Station: station, Sender: sender, Store: store, stop: make(chan struct{})}
}

// Start subscribes to the station's request subject and begins serving.
func (m *Manager) Start() error {
	sub, err := m.Conn.SubscribeSync(bus.RequestSubject(m.Station))
	if err != nil {
		return err
	}
	m.sub = sub

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop stops serving. Shutdown completes within one poll interval.
func (m *Manager) Stop() {
	close(m.stop)
	if m.sub != nil {
		_ = m.sub.Unsubscribe()
	}
	m.wg.Wait()
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		default:
		}

		req, err := m.sub.NextRequest(pollTimeout)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return
		}

		m.mu.Lock()
		m.dispatch(req)
		m.mu.Unlock()
	}
}

func (m *Manager) dispatch(req *bus.Request) {
	reply := m.handle(req.Msg)
	if m.Metrics != nil {
		m.Metrics.RequestsServed.WithLabelValues(reply.Type).Inc()
	}
	if err := req.Reply(reply); err != nil {
		log.Warnf("reqmgr: replying to %s: %s", req.Msg.Type, err.Error())
	}
}

func (m *Manager) handle(in *message.Message) *message.Message {
	subject := bus.RequestSubject(m.Station)

	switch in.Type {
	case message.TypePing:
		out, err := message.NewJSON(subject, message.TypePong, m.Sender, message.PongData{Station: m.Station})
		if err != nil {
			return m.errorReply(subject)
		}
		return out

	case message.TypeRequest:
		return m.handleScanlineRequest(in, subject)

	case message.TypeNotice:
		return message.NewBinary(subject, message.TypeAck, m.Sender, nil)

	default:
		return message.NewBinary(subject, message.TypeUnknown, m.Sender, nil)
	}
}

func (m *Manager) handleScanlineRequest(in *message.Message, subject string) *message.Message {
	var req message.ScanlineRequestData
	if err := in.Unmarshal(&req); err != nil {
		log.Warnf("reqmgr: decoding scanline request: %s", err.Error())
		return m.errorReply(subject)
	}

	data, err := m.Store.GetData(req.Satellite, req.UTCTime)
	if err != nil {
		if errors.Is(err, scanline.ErrNotFound) {
			return message.NewBinary(subject, message.TypeMissing, m.Sender, nil)
		}
		log.Warnf("reqmgr: fetching %s@%s: %s", req.Satellite, req.UTCTime, err.Error())
		return m.errorReply(subject)
	}
	return message.NewBinary(subject, message.TypeScanline, m.Sender, data)
}

func (m *Manager) errorReply(subject string) *message.Message {
	return message.NewBinary(subject, message.TypeError, m.Sender, nil)
}
