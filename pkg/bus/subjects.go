// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bus

// SubjectRoot is the fixed prefix every groundcast subject lives under.
// The original zmq design filtered subscribers on a raw byte prefix
// ("pytroll"); NATS has no equivalent raw-prefix filter on a SUB socket,
// so groundcast replaces it with a dedicated, fixed subject root that a
// subscriber can match with a NATS wildcard instead (see SPEC_FULL.md
// §12, decision 1).
const SubjectRoot = "groundcast.v1"

// HaveSubject is the subject a station publishes "have" announcements to.
func HaveSubject(station string) string {
	return SubjectRoot + "." + station + ".have"
}

// HeartbeatSubject is the subject a station publishes heartbeats to.
func HeartbeatSubject(station string) string {
	return SubjectRoot + "." + station + ".heartbeat"
}

// RequestSubject is the subject a station's request manager listens on.
func RequestSubject(station string) string {
	return SubjectRoot + "." + station + ".request"
}
