// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package message implements the self-describing envelope groundcast's
// publisher, request manager and mirror watcher exchange over the bus:
// {subject, type, data, sender, timestamp, binary_flag}.
//
// The wire format is a single ASCII header line followed by exactly as
// many payload bytes as the header's length field names:
//
//	groundcast/1 <subject> <type> <sender> <rfc3339nano-timestamp> <binary-flag> <length>\n
//	<payload>
//
// The payload is a JSON object when binary-flag is "0", or raw bytes when
// it is "1". Encode/Decode round-trip for any Message, including
// binary-flagged payloads.
package message

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

const protoToken = "groundcast/1"

// Well-known message types exchanged over the bus.
const (
	TypeHave      = "have"
	TypeHeartbeat = "heartbeat"
	TypeRequest   = "request"
	TypePing      = "ping"
	TypeNotice    = "notice"
	TypeScanline  = "scanline"
	TypeMissing   = "missing"
	TypePong      = "pong"
	TypeAck       = "ack"
	TypeUnknown   = "unknown"
	TypeError     = "error"
)

// Message is the envelope every bus payload is wrapped in.
type Message struct {
	Subject   string
	Type      string
	Sender    string
	Timestamp time.Time
	Binary    bool

	// data holds the JSON payload when Binary is false.
	data json.RawMessage
	// payload holds the raw bytes when Binary is true.
	payload []byte
}

// NewJSON builds a text message whose data field is the JSON encoding of v.
func NewJSON(subject, typ, sender string, v any) (*Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("message: encoding data: %w", err)
	}
	return &Message{
		Subject:   subject,
		Type:      typ,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		data:      raw,
	}, nil
}

// NewBinary builds a binary-flagged message carrying payload verbatim.
func NewBinary(subject, typ, sender string, payload []byte) *Message {
	return &Message{
		Subject:   subject,
		Type:      typ,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
		Binary:    true,
		payload:   payload,
	}
}

// Unmarshal decodes the message's JSON data field into v. It fails if the
// message is binary-flagged.
func (m *Message) Unmarshal(v any) error {
	if m.Binary {
		return fmt.Errorf("message: type %q carries a binary payload, not JSON data", m.Type)
	}
	if len(m.data) == 0 {
		return nil
	}
	return json.Unmarshal(m.data, v)
}

// Payload returns the raw bytes of a binary-flagged message.
func (m *Message) Payload() []byte {
	return m.payload
}

// Encode renders the message to its wire form.
func (m *Message) Encode() []byte {
	var payload []byte
	binFlag := "0"
	if m.Binary {
		payload = m.payload
		binFlag = "1"
	} else {
		payload = m.data
		if payload == nil {
			payload = []byte("null")
		}
	}

	header := fmt.Sprintf("%s %s %s %s %s %s %d\n",
		protoToken, m.Subject, m.Type, m.Sender,
		m.Timestamp.Format(time.RFC3339Nano), binFlag, len(payload))

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// Decode parses a message from its wire form as produced by Encode.
func Decode(raw []byte) (*Message, error) {
	r := bufio.NewReader(bytes.NewReader(raw))
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("message: reading header: %w", err)
	}
	line = line[:len(line)-1] // drop the trailing newline

	var proto, subject, typ, sender, ts, binFlag string
	var length int
	n, err := fmt.Sscanf(line, "%s %s %s %s %s %s %d",
		&proto, &subject, &typ, &sender, &ts, &binFlag, &length)
	if err != nil || n != 7 {
		return nil, fmt.Errorf("message: malformed header %q: %w", line, err)
	}
	if proto != protoToken {
		return nil, fmt.Errorf("message: unsupported protocol token %q", proto)
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("message: malformed timestamp %q: %w", ts, err)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("message: reading payload: %w", err)
	}

	m := &Message{
		Subject:   subject,
		Type:      typ,
		Sender:    sender,
		Timestamp: timestamp,
		Binary:    binFlag == "1",
	}
	if m.Binary {
		m.payload = payload
	} else {
		m.data = payload
	}
	return m, nil
}

// String renders a short, log-friendly summary (binary payloads are
// described by length rather than dumped, mirroring the original's
// habit of logging only the first few header words of a binary reply).
func (m *Message) String() string {
	if m.Binary {
		return m.Subject + " " + m.Type + " <" + strconv.Itoa(len(m.payload)) + " bytes>"
	}
	return m.Subject + " " + m.Type + " " + string(m.data)
}
