// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripJSON(t *testing.T) {
	t.Run("have announcement", func(t *testing.T) {
		want := HaveData{
			Satellite: "NOAA 15",
			Timecode:  time.Date(2026, 6, 29, 12, 0, 0, 0, time.UTC),
			Elevation: 42.5,
			Origin:    "station-a:29002",
		}
		msg, err := NewJSON("groundcast.v1.stationA.have", TypeHave, "station-a:29002", want)
		require.NoError(t, err)

		decoded, err := Decode(msg.Encode())
		require.NoError(t, err)

		assert.Equal(t, msg.Subject, decoded.Subject)
		assert.Equal(t, msg.Type, decoded.Type)
		assert.Equal(t, msg.Sender, decoded.Sender)
		assert.WithinDuration(t, msg.Timestamp, decoded.Timestamp, 0)
		assert.False(t, decoded.Binary)

		var got HaveData
		require.NoError(t, decoded.Unmarshal(&got))
		assert.Equal(t, want, got)
	})
}

func TestRoundTripBinary(t *testing.T) {
	payload := make([]byte, 22180)
	for i := range payload {
		payload[i] = byte(i)
	}

	msg := NewBinary("groundcast.v1.stationA.reply", TypeScanline, "station-a:29003", payload)
	decoded, err := Decode(msg.Encode())
	require.NoError(t, err)

	assert.True(t, decoded.Binary)
	assert.Equal(t, payload, decoded.Payload())
}

func TestDecodeEmptyData(t *testing.T) {
	msg := &Message{Subject: "s", Type: TypePing, Sender: "x", Timestamp: time.Now().UTC()}
	decoded, err := Decode(msg.Encode())
	require.NoError(t, err)
	assert.Equal(t, TypePing, decoded.Type)
}

func TestDecodeRejectsBadProtocol(t *testing.T) {
	_, err := Decode([]byte("not-groundcast foo\n"))
	assert.Error(t, err)
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	msg, err := NewJSON("s", TypeHave, "x", HaveData{Satellite: "NOAA 19"})
	require.NoError(t, err)
	raw := msg.Encode()
	_, err = Decode(raw[:len(raw)-5])
	assert.Error(t, err)
}
