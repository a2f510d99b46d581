// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package federation implements the Mirror Watcher (component G) and the
// lazy remote reference (component H): together they let one station
// re-advertise a peer's scanlines locally without copying their bytes
// until a client actually asks for them.
package federation

import (
	"fmt"
	"sync"
	"time"

	"github.com/nhr-fau/groundcast/internal/frame"
	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/pkg/log"
	"github.com/nhr-fau/groundcast/pkg/message"
)

// Requester sends a scanline request to a peer and waits for the reply.
// *bus.Conn satisfies this directly; tests substitute a stub.
type Requester interface {
	Request(subject string, msg *message.Message, timeout time.Duration) (*message.Message, error)
}

const requestTimeout = 5 * time.Second

// PeerLock is shared by every RemoteRef bound to the same peer: the
// peer's request subject only allows one in-flight request/reply pair at
// a time, so all fetches for that peer serialize through this lock.
type PeerLock struct {
	mu sync.Mutex
}

// RemoteRef is a scanline.Fetcher that materializes its bytes on first
// use by asking a federation peer for them, then caches the result.
type RemoteRef struct {
	requester Requester
	peerLock  *PeerLock
	subject   string
	sender    string
	satellite string
	timestamp time.Time

	cacheMu sync.Mutex
	cached  []byte
	have    bool
}

// NewRemoteRef builds a RemoteRef that will ask requester (addressed via
// requestSubject, identifying itself as sender) for (satellite, ts) the
// first time its bytes are needed. lock must be shared with every other
// RemoteRef pointed at the same peer.
func NewRemoteRef(requester Requester, lock *PeerLock, requestSubject, sender, satellite string, ts time.Time) *RemoteRef {
	return &RemoteRef{
		requester: requester,
		peerLock:  lock,
		subject:   requestSubject,
		sender:    sender,
		satellite: satellite,
		timestamp: ts.UTC(),
	}
}

// Fetch returns the scanline's bytes, fetching them from the peer on
// first call and serving every later call from cache without a network
// round trip. The cache is written exactly once, under peerLock, and
// checked both before taking peerLock (fast path) and again right after
// acquiring it (in case another goroutine fetched meanwhile). Every read
// and the single write of the cached bytes themselves go through cacheMu,
// so the fast path never waits on a fetch in progress.
func (r *RemoteRef) Fetch() ([]byte, error) {
	if cached, ok := r.cachedBytes(); ok {
		return cached, nil
	}

	r.peerLock.mu.Lock()
	defer r.peerLock.mu.Unlock()

	if cached, ok := r.cachedBytes(); ok {
		return cached, nil // lost the race to another goroutine's fetch
	}

	reqData := message.ScanlineRequestData{
		Type:      "scanline",
		Satellite: r.satellite,
		UTCTime:   r.timestamp,
	}
	reqMsg, err := message.NewJSON(r.subject, message.TypeRequest, r.sender, reqData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scanline.ErrProtocolError, err)
	}

	reply, err := r.requester.Request(r.subject, reqMsg, requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scanline.ErrRemoteFetchFailed, err)
	}

	switch reply.Type {
	case message.TypeScanline:
		data := reply.Payload()
		if len(data) != frame.LineSize {
			log.Warnf("federation: %s@%s: reply length %d != line size %d", r.satellite, r.timestamp, len(data), frame.LineSize)
		}
		r.setCached(data)
		return data, nil
	case message.TypeMissing:
		return nil, scanline.ErrRemoteMissing
	default:
		return nil, fmt.Errorf("%w: got reply type %q", scanline.ErrProtocolError, reply.Type)
	}
}

func (r *RemoteRef) cachedBytes() ([]byte, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	return r.cached, r.have
}

func (r *RemoteRef) setCached(data []byte) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if r.have {
		return
	}
	r.cached = data
	r.have = true
}
