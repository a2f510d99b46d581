// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scanline defines the data model shared by every component that
// moves a decoded HRPT line around: the Holder, the tailer, the federation
// layer and the request manager all speak in terms of a Scanline.
package scanline

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors components match against with errors.Is.
var (
	// ErrNotFound means the Holder has no entry for the requested key at all.
	ErrNotFound = errors.New("scanline: not found")
	// ErrRemoteMissing means a peer was asked for a scanline it does not have.
	ErrRemoteMissing = errors.New("scanline: remote does not have it")
	// ErrRemoteFetchFailed means the round trip to a peer failed (timeout,
	// transport error, or a reply that didn't parse).
	ErrRemoteFetchFailed = errors.New("scanline: remote fetch failed")
	// ErrProtocolError means a peer's reply was neither a scanline nor a
	// missing notice, or the request to it could not be encoded.
	ErrProtocolError = errors.New("scanline: remote reported a protocol error")
	// ErrDecodeFailure means raw bytes did not parse as a valid HRPT line.
	ErrDecodeFailure = errors.New("scanline: decode failure")
)

// Scanline identifies one decoded line of HRPT telemetry. Satellite and
// Timecode together are its key wherever it is stored or requested;
// Elevation and the payload itself travel alongside.
type Scanline struct {
	Satellite string
	Timecode  time.Time
	Elevation float64
}

// Key returns the (satellite, timecode) pair Scanline is addressed by.
func (s Scanline) Key() (string, time.Time) {
	return s.Satellite, s.Timecode.UTC()
}

func (s Scanline) String() string {
	return fmt.Sprintf("%s@%s", s.Satellite, s.Timecode.UTC().Format(time.RFC3339))
}

// Fetcher retrieves the raw bytes of a scanline whose payload is not held
// locally. RemoteRef is the production implementation; tests substitute
// their own.
type Fetcher interface {
	Fetch() ([]byte, error)
}

// PayloadSource is a tagged variant over the two ways a Scanline's bytes
// can be obtained: already resident in memory (Owned), or retrievable on
// demand from a federation peer (Remote). Callers always go through Bytes;
// there is deliberately no implicit coercion (no String()/stringer trick)
// that would let a PayloadSource silently stand in for a []byte and hide a
// blocking network fetch behind what looks like a field access.
type PayloadSource struct {
	owned   []byte
	fetcher Fetcher
}

// Owned wraps bytes already resident in memory.
func Owned(b []byte) PayloadSource {
	return PayloadSource{owned: b}
}

// Remote wraps a Fetcher that retrieves the bytes on first use.
func Remote(f Fetcher) PayloadSource {
	return PayloadSource{fetcher: f}
}

// IsRemote reports whether Bytes may block on a network round trip.
func (p PayloadSource) IsRemote() bool {
	return p.fetcher != nil
}

// Bytes returns the scanline's payload, fetching it from a peer first if
// this source is Remote. A Remote source may return ErrRemoteMissing,
// ErrRemoteFetchFailed or ErrProtocolError; an Owned source never fails.
func (p PayloadSource) Bytes() ([]byte, error) {
	if p.fetcher != nil {
		return p.fetcher.Fetch()
	}
	return p.owned, nil
}
