// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountersIncrement(t *testing.T) {
	m, _ := New()

	m.HaveAnnouncements.Inc()
	m.HaveAnnouncements.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HaveAnnouncements))

	m.RequestsServed.WithLabelValues("scanline").Inc()
	m.RequestsServed.WithLabelValues("missing").Inc()
	m.RequestsServed.WithLabelValues("scanline").Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsServed.WithLabelValues("scanline")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsServed.WithLabelValues("missing")))

	m.ScanlinesEvicted.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ScanlinesEvicted))
}
