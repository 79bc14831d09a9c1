// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package agent

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unimib-datAI/flhet/agent/capacity"
	"github.com/unimib-datAI/flhet/agent/config"
	"github.com/unimib-datAI/flhet/agent/httpserver"
	"github.com/unimib-datAI/flhet/agent/logging"
	"github.com/unimib-datAI/flhet/agent/manifest"
	"github.com/unimib-datAI/flhet/agent/metrics"
)

//////////////////// PRIVATE FUNCTIONS ////////////////////

// runReassignLoop periodically recomputes the client capacity assignment and
// rewrites the manifest file. In fix split mode successive iterations produce
// the same assignment and only refresh the manifest; in dynamic mode every
// iteration is a fresh draw.
func runReassignLoop(config config.Configuration, manager *capacity.Manager,
	updater *manifest.Updater, monitor *metrics.Monitor) error {
	logger := logging.Logger()

	if config.ReassignPeriod == 0 {
		logger.Warn("Given ReassignPeriod must be a positive time duration, using 1 minute by default")
		config.ReassignPeriod = 1 * time.Minute
	}

	var millisNow, millisSleep int64
	millisInterval := int64(config.ReassignPeriod / time.Millisecond)

	for {
		millisNow = time.Now().UnixNano() / 1000000
		millisSleep = millisInterval - (millisNow % millisInterval)
		time.Sleep(time.Duration(millisSleep) * time.Millisecond)

		assignment := manager.Assign(config.NumUsers)
		if !assignment.Valid {
			return errors.Errorf("No assignment possible for split mode %q", config.SplitMode)
		}

		monitor.ObserveAssignment(assignment.Rates)

		err := updater.UpdateManifest(manifest.Content{
			SplitMode: config.SplitMode,
			ModelMode: config.ModelMode,
			Rates:     assignment.Rates,
		})
		if err != nil {
			return err
		}

		logger.Debugf("Capacity manifest updated for %d clients", len(assignment.Rates))
	}
}

// runAgent is the main function to be called once we got some very basic
// setup, such as parsed CLI flags and a usable logger
func runAgent(config config.Configuration) error {
	// Obtain the global logger object
	logger := logging.Logger()

	////////// CAPACITY SCHEDULER INITIALIZATION //////////

	catalogue, err := capacity.ParseCatalogue(config.CapacityRates)
	if err != nil {
		return errors.Wrap(err, "Error while parsing the capacity catalogue")
	}

	manager, err := capacity.NewManager(config.SplitMode, catalogue, config.ModelMode)
	if err != nil {
		return errors.Wrap(err, "Error while building the capacity manager")
	}

	globalLevel, err := capacity.GlobalLevel(config.ModelMode)
	if err != nil {
		return err
	}
	logger.Infof("Global model level %q (rate %g)", globalLevel, catalogue[globalLevel])

	////////// MANIFEST INITIALIZATION //////////

	updater := &manifest.Updater{ManifestFilePath: config.ManifestFile}
	if config.ManifestTemplateFile != "" {
		err = updater.LoadTemplate(config.ManifestTemplateFile)
	} else {
		err = updater.LoadDefaultTemplate()
	}
	if err != nil {
		return err
	}

	////////// METRICS AND HTTPSERVER INITIALIZATION //////////

	registry := prometheus.NewRegistry()
	monitor := metrics.NewMonitor(registry)

	httpserver.Initialize(config, registry)

	////////// GOROUTINES //////////

	chanStop := make(chan os.Signal, 1)
	signal.Notify(chanStop, syscall.SIGINT, syscall.SIGTERM)

	chanErr := make(chan error, 1)

	go func() { chanErr <- runReassignLoop(config, manager, updater, monitor) }()

	go func() { chanErr <- httpserver.RunHttpServer() }()

	select {
	case sig := <-chanStop:
		logger.Warn("Caught " + sig.String() + " signal. Stopping.")
		return nil
	case err = <-chanErr:
		return err
	}
}

//////////////////// MAIN FUNCTION ////////////////////

func Main() {
	// Load configuration.
	_config, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging engine.
	logger, err := logging.Initialize(_config.DateTime, _config.DebugMode, _config.LogColors)
	if err != nil {
		log.Fatal(err)
	}

	// Run agent.
	logger.Debugf("Running agent with configuration: %+v", _config)
	if err := runAgent(_config); err != nil {
		logger.Fatal(err)
	}
}
