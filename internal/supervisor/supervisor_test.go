// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package supervisor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhr-fau/groundcast/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Station:        "svalbard",
		Host:           "svalbard.example.org",
		DataDir:        "/tmp/groundcast-does-not-need-to-exist-for-build",
		FilePattern:    "*.hrp",
		RetentionHours: 2,
		HeartbeatSecs:  15,
		CleanSecs:      30,
	}
}

func TestBuildWiresAllCoreComponents(t *testing.T) {
	st := Build(nil, baseConfig(), "svalbard.example.org:5001", "")

	assert.NotNil(t, st.Publisher)
	assert.NotNil(t, st.Holder)
	assert.NotNil(t, st.Heart)
	assert.NotNil(t, st.Tailer)
	assert.NotNil(t, st.Cleaner)
	assert.NotNil(t, st.ReqMgr)
	assert.Nil(t, st.Mirror, "no mirror configured, so no watcher should be built")
	assert.Nil(t, st.Metrics, "empty metrics address disables the telemetry server")
}

func TestBuildWiresMirrorWhenConfigured(t *testing.T) {
	cfg := baseConfig()
	cfg.Mirror = "peer"
	cfg.Hosts = map[string]config.HostConfig{
		"peer": {Hostname: "peer.example.org", PubPort: 5001, ReqPort: 5002},
	}

	st := Build(nil, cfg, "svalbard.example.org:5001", "")
	require.NotNil(t, st.Mirror)
}

func TestBuildWiresMetricsWhenAddressConfigured(t *testing.T) {
	st := Build(nil, baseConfig(), "svalbard.example.org:5001", "127.0.0.1:0")
	require.NotNil(t, st.Metrics)

	require.NotNil(t, st.Publisher.Metrics, "publisher must share the registered Metrics, not discard them")
	require.NotNil(t, st.Cleaner.Metrics)
	require.NotNil(t, st.ReqMgr.Metrics)
	assert.Same(t, st.Publisher.Metrics, st.Cleaner.Metrics, "every component must count into the one registered Metrics instance")
	assert.Same(t, st.Cleaner.Metrics, st.ReqMgr.Metrics)
}

func TestBuildLeavesMetricsFieldsNilWhenNoAddressConfigured(t *testing.T) {
	st := Build(nil, baseConfig(), "svalbard.example.org:5001", "")

	assert.Nil(t, st.Publisher.Metrics)
	assert.Nil(t, st.Cleaner.Metrics)
	assert.Nil(t, st.ReqMgr.Metrics)
}

func TestCleanerSweepIncrementsSharedMetricsWiredByBuild(t *testing.T) {
	cfg := baseConfig()
	cfg.RetentionHours = 1
	cfg.CleanSecs = 0.01 // 10ms, so the test doesn't wait long for a sweep

	st := Build(nil, cfg, "svalbard.example.org:5001", "127.0.0.1:0")
	require.NotNil(t, st.Cleaner.Metrics)

	now := time.Now().UTC()
	store := &fakeEvictionStore{entries: map[string][]time.Time{
		"NOAA 19": {now.Add(-2 * time.Hour)}, // older than the 1h retention above
	}}
	st.Cleaner.Store = store
	st.Cleaner.Now = func() time.Time { return now }

	assert.Equal(t, 0.0, testutil.ToFloat64(st.Cleaner.Metrics.ScanlinesEvicted))
	require.NoError(t, st.Cleaner.Start())
	defer st.Cleaner.Stop()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(st.Cleaner.Metrics.ScanlinesEvicted) == 1.0
	}, time.Second, 5*time.Millisecond, "cleaner's real sweep must count the eviction into the Metrics field Build wired in")
}

type fakeEvictionStore struct {
	entries map[string][]time.Time
}

func (f *fakeEvictionStore) Satellites() []string {
	out := make([]string, 0, len(f.entries))
	for sat := range f.entries {
		out = append(out, sat)
	}
	return out
}

func (f *fakeEvictionStore) EntriesFor(sat string) []time.Time { return f.entries[sat] }

func (f *fakeEvictionStore) Delete(sat string, ts time.Time) {
	kept := f.entries[sat][:0]
	for _, t := range f.entries[sat] {
		if !t.Equal(ts) {
			kept = append(kept, t)
		}
	}
	f.entries[sat] = kept
}

func TestStopBeforeStartIsANoop(t *testing.T) {
	st := Build(nil, baseConfig(), "svalbard.example.org:5001", "")
	assert.NotPanics(t, func() { st.Stop() })
	assert.NotPanics(t, func() { st.Stop() }, "Stop must be idempotent")
}

func TestIntervalHelpersConvertConfiguredSeconds(t *testing.T) {
	cfg := baseConfig()
	assert.Equal(t, 2*time.Hour, retention(cfg))
	assert.Equal(t, 15*time.Second, heartbeatInterval(cfg))
	assert.Equal(t, 30*time.Second, cleanInterval(cfg))
}

func TestZeroElevationIsAlwaysZero(t *testing.T) {
	assert.Equal(t, 0.0, zeroElevation("NOAA 19", time.Now()))
}
