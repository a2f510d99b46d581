// Copyright (C) 2026 groundcast authors.
// All rights reserved. This file is part of groundcast.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"

	"github.com/nhr-fau/groundcast/internal/config"
	"github.com/nhr-fau/groundcast/internal/runtimeenv"
	"github.com/nhr-fau/groundcast/internal/supervisor"
	"github.com/nhr-fau/groundcast/pkg/bus"
	"github.com/nhr-fau/groundcast/pkg/log"
)

func main() {
	var flagConfigFile, flagEnvFile, flagLogLevel, flagMetricsAddr string
	var flagLogDate, flagGops bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Path to the station's configuration file")
	flag.StringVar(&flagEnvFile, "env", "./.env", "Path to an optional .env file loaded before the config")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "One of: debug, info, warn, err")
	flag.BoolVar(&flagLogDate, "logdate", false, "Include date/time in log lines (off by default; systemd adds its own)")
	flag.StringVar(&flagMetricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address (for example ':9090')")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	log.SetLogLevel(flagLogLevel)
	log.SetLogDateTime(flagLogDate)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := runtimeenv.LoadEnv(flagEnvFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("parsing %q failed: %s", flagEnvFile, err.Error())
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		log.Fatalf("loading config: %s", err.Error())
	}

	conn, err := bus.Connect(bus.Config{
		Address:       cfg.Bus.Address,
		Username:      cfg.Bus.Username,
		Password:      cfg.Bus.Password,
		CredsFilePath: cfg.Bus.CredsFilePath,
	})
	if err != nil {
		log.Fatalf("connecting to bus: %s", err.Error())
	}
	defer conn.Close()

	sender, err := localSender(cfg)
	if err != nil {
		log.Fatalf("resolving this station's bus identity: %s", err.Error())
	}

	station := supervisor.Build(conn, cfg, sender, flagMetricsAddr)
	if err := station.Start(); err != nil {
		log.Fatalf("starting station %q: %s", cfg.Station, err.Error())
	}
	log.Infof("groundcast: station %q running as %s", cfg.Station, sender)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	station.Stop()
	log.Info("groundcast: graceful shutdown complete")
}

// localSender composes this process's bus identity as "host:pubport",
// the shape spec.md's Origin field uses: cfg.Host is this station's own
// address, and its pub port comes from this station's own entry in
// cfg.Hosts (present alongside the peer entries referenced by Mirror).
func localSender(cfg *config.Config) (string, error) {
	self, ok := cfg.Hosts[cfg.Station]
	if !ok {
		return "", errors.New("no hosts entry matches this station's own name")
	}
	return fmt.Sprintf("%s:%d", cfg.Host, self.PubPort), nil
}
