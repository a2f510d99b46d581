// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reqmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhr-fau/groundcast/internal/scanline"
	"github.com/nhr-fau/groundcast/pkg/message"
)

type fakeStore struct {
	data map[string][]byte
}

func key(sat string, ts time.Time) string { return sat + "@" + ts.UTC().Format(time.RFC3339) }

func (f *fakeStore) GetData(sat string, ts time.Time) ([]byte, error) {
	data, ok := f.data[key(sat, ts)]
	if !ok {
		return nil, scanline.ErrNotFound
	}
	return data, nil
}

func newManager(store *fakeStore) *Manager {
	return New(nil, "station-a", "station-a:29003", store)
}

func TestHandlePingRepliesPong(t *testing.T) {
	m := newManager(&fakeStore{data: map[string][]byte{}})
	in, err := message.NewJSON("s", message.TypePing, "client", nil)
	require.NoError(t, err)

	out := m.handle(in)
	assert.Equal(t, message.TypePong, out.Type)
	var data message.PongData
	require.NoError(t, out.Unmarshal(&data))
	assert.Equal(t, "station-a", data.Station)
}

func TestHandleScanlineRequestFound(t *testing.T) {
	ts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{data: map[string][]byte{key("NOAA 19", ts): []byte("payload")}}
	m := newManager(store)

	in, err := message.NewJSON("s", message.TypeRequest, "client", message.ScanlineRequestData{
		Type: "scanline", Satellite: "NOAA 19", UTCTime: ts,
	})
	require.NoError(t, err)

	out := m.handle(in)
	assert.Equal(t, message.TypeScanline, out.Type)
	assert.Equal(t, []byte("payload"), out.Payload())
}

func TestHandleScanlineRequestMissing(t *testing.T) {
	m := newManager(&fakeStore{data: map[string][]byte{}})
	in, err := message.NewJSON("s", message.TypeRequest, "client", message.ScanlineRequestData{
		Type: "scanline", Satellite: "NOAA 15", UTCTime: time.Now(),
	})
	require.NoError(t, err)

	out := m.handle(in)
	assert.Equal(t, message.TypeMissing, out.Type)
}

func TestHandleNoticeAcksOnly(t *testing.T) {
	m := newManager(&fakeStore{data: map[string][]byte{}})
	in, err := message.NewJSON("s", message.TypeNotice, "client", message.ScanlineRequestData{Type: "scanline"})
	require.NoError(t, err)

	out := m.handle(in)
	assert.Equal(t, message.TypeAck, out.Type)
}

func TestHandleUnknownType(t *testing.T) {
	m := newManager(&fakeStore{data: map[string][]byte{}})
	in, err := message.NewJSON("s", "foo", "client", nil)
	require.NoError(t, err)

	out := m.handle(in)
	assert.Equal(t, message.TypeUnknown, out.Type)
}

func TestHandleDecodeFailureRepliesError(t *testing.T) {
	m := newManager(&fakeStore{data: map[string][]byte{}})
	in := &message.Message{Type: message.TypeRequest}
	// Binary is false and the data field is empty, so Unmarshal succeeds
	// with zero values; to force a decode failure, flip Binary so
	// Unmarshal refuses to parse it as JSON.
	in.Binary = true

	out := m.handle(in)
	assert.Equal(t, message.TypeError, out.Type)
}
