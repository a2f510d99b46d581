// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package federation

import (
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/pkg/bus"
	"github.com/nhr-fau/groundcast/pkg/log"
	"github.com/nhr-fau/groundcast/pkg/message"
)

// pollTimeout bounds how long each subscription's receive loop blocks
// before re-checking for shutdown, the same discipline the request
// manager uses for its reply socket.
const pollTimeout = 2 * time.Second

// Holder is the subset of *holder.Holder the mirror watcher needs.
type Holder interface {
	Add(sat string, ts time.Time, elevation float64, source scanline.PayloadSource)
}

// MirrorWatcher subscribes to one peer's "have" and "heartbeat" subjects
// and re-advertises its scanlines locally as lazy remote references.
type MirrorWatcher struct {
	Conn        *bus.Conn
	PeerStation string
	Sender      string
	Holder      Holder

	peerLock *PeerLock
	haveSub  *bus.Subscription
	heartSub *bus.Subscription
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewMirrorWatcher builds a watcher for peerStation. sender identifies
// this process in the scanline requests it issues on peer misses.
func NewMirrorWatcher(conn *bus.Conn, peerStation, sender string, h Holder) *MirrorWatcher {
	return &MirrorWatcher{
		Conn:        conn,
		PeerStation: peerStation,
		Sender:      sender,
		Holder:      h,
		peerLock:    &PeerLock{},
		stop:        make(chan struct{}),
	}
}

// Start subscribes to the peer's subjects and begins the receive loops.
func (w *MirrorWatcher) Start() error {
	haveSub, err := w.Conn.SubscribeSync(bus.HaveSubject(w.PeerStation))
	if err != nil {
		return err
	}
	heartSub, err := w.Conn.SubscribeSync(bus.HeartbeatSubject(w.PeerStation))
	if err != nil {
		_ = haveSub.Unsubscribe()
		return err
	}
	w.haveSub = haveSub
	w.heartSub = heartSub

	w.wg.Add(2)
	go w.haveLoop()
	go w.heartbeatLoop()
	return nil
}

// Stop unsubscribes from both subjects with zero linger and waits for the
// receive loops to exit, never more than one poll interval away.
func (w *MirrorWatcher) Stop() {
	close(w.stop)
	if w.haveSub != nil {
		_ = w.haveSub.Unsubscribe()
	}
	if w.heartSub != nil {
		_ = w.heartSub.Unsubscribe()
	}
	w.wg.Wait()
}

func (w *MirrorWatcher) haveLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		msg, err := w.haveSub.NextMsg(pollTimeout)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return
		}
		w.handleHave(msg)
	}
}

func (w *MirrorWatcher) heartbeatLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		msg, err := w.heartSub.NextMsg(pollTimeout)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return
		}
		w.handleHeartbeat(msg)
	}
}

func (w *MirrorWatcher) handleHave(msg *message.Message) {
	var data message.HaveData
	if err := msg.Unmarshal(&data); err != nil {
		log.Warnf("federation: decoding have from %s: %s", w.PeerStation, err.Error())
		return
	}

	ref := NewRemoteRef(w.Conn, w.peerLock, bus.RequestSubject(w.PeerStation), w.Sender, data.Satellite, data.Timecode)
	w.Holder.Add(data.Satellite, data.Timecode, data.Elevation, scanline.Remote(ref))
}

func (w *MirrorWatcher) handleHeartbeat(msg *message.Message) {
	var data message.HeartbeatData
	if err := msg.Unmarshal(&data); err != nil {
		log.Warnf("federation: decoding heartbeat from %s: %s", w.PeerStation, err.Error())
		return
	}
	log.Debugf("federation: heartbeat from %s at %s", w.PeerStation, data.Addr)
}
