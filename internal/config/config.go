// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates groundcast's configuration file. The
// original design read an INI file with a [local_reception] section and
// one section per referenced host; that shape is preserved here as a JSON
// document validated against an inline schema before being decoded into a
// Config.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMirrorNotConfigured is returned by Config.MirrorHost when the
// optional "mirror" key is absent. Per spec.md §7 this is not an
// error condition for the caller: the supervisor treats it as "don't
// start the mirror watcher" and continues.
var ErrMirrorNotConfigured = errors.New("config: mirror not configured")

// HostConfig describes one peer referenced by name from Mirror or from the
// Hosts map. PubPort is used to compose the "host:port" Origin string
// stamped on locally-announced scanlines (spec.md §6 Message types,
// "have" data field); ReqPort is retained for parity with the original's
// per-host section even though groundcast's bus has no per-peer listening
// socket to bind it to.
type HostConfig struct {
	Hostname string `json:"hostname"`
	PubPort  int    `json:"pubport"`
	ReqPort  int    `json:"reqport"`
}

// Config is the fully-resolved configuration the rest of groundcast is
// built against. Everything in [local_reception] plus its per-host
// sections, from the original INI layout, has a field here.
type Config struct {
	Station         string                `json:"station"`
	Host            string                `json:"localhost"`
	DataDir         string                `json:"data_dir"`
	FilePattern     string                `json:"file_pattern"`
	Mirror          string                `json:"mirror,omitempty"`
	RetentionHours  float64               `json:"retention_hours"`
	HeartbeatSecs   float64               `json:"heartbeat_interval_seconds"`
	CleanSecs       float64               `json:"clean_interval_seconds"`
	Bus             BusConfig             `json:"bus"`
	Hosts           map[string]HostConfig `json:"hosts"`
}

// BusConfig is the nested configuration for pkg/bus.Config, broken out so
// the JSON schema can describe it precisely.
type BusConfig struct {
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds_file_path,omitempty"`
}

const schemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["station", "localhost", "data_dir", "file_pattern", "bus", "hosts"],
	"properties": {
		"station": {"type": "string", "minLength": 1},
		"localhost": {"type": "string", "minLength": 1},
		"data_dir": {"type": "string", "minLength": 1},
		"file_pattern": {"type": "string", "minLength": 1},
		"mirror": {"type": "string"},
		"retention_hours": {"type": "number", "exclusiveMinimum": 0},
		"heartbeat_interval_seconds": {"type": "number", "exclusiveMinimum": 0},
		"clean_interval_seconds": {"type": "number", "exclusiveMinimum": 0},
		"bus": {
			"type": "object",
			"required": ["address"],
			"properties": {
				"address": {"type": "string", "minLength": 1},
				"username": {"type": "string"},
				"password": {"type": "string"},
				"creds_file_path": {"type": "string"}
			}
		},
		"hosts": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["hostname", "pubport", "reqport"],
				"properties": {
					"hostname": {"type": "string", "minLength": 1},
					"pubport": {"type": "integer", "minimum": 1, "maximum": 65535},
					"reqport": {"type": "integer", "minimum": 1, "maximum": 65535}
				}
			}
		}
	}
}`

// Load reads, schema-validates and decodes the configuration file at path.
// Defaults matching the original's hard-coded intervals are applied before
// unmarshaling so an omitted retention/heartbeat/clean value still yields
// a usable Config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg := Config{
		RetentionHours: 1,
		HeartbeatSecs:  30,
		CleanSecs:      60,
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// MirrorHost resolves the configured Mirror name to its HostConfig. It
// returns ErrMirrorNotConfigured (matching spec.md's ConfigMissing policy)
// when no mirror was named, and a plain error if one was named but isn't
// present in Hosts.
func (c *Config) MirrorHost() (HostConfig, error) {
	if c.Mirror == "" {
		return HostConfig{}, ErrMirrorNotConfigured
	}
	host, ok := c.Hosts[c.Mirror]
	if !ok {
		return HostConfig{}, fmt.Errorf("config: mirror %q has no matching host section", c.Mirror)
	}
	return host, nil
}

func validate(raw []byte) error {
	sch, err := jsonschema.CompileString("groundcast-config.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parsing json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
