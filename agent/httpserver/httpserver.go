// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

// This package handles a web server to expose endpoints on the agent (agent
// healthcheck and Prometheus metrics)
package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unimib-datAI/flhet/agent/config"
)

//////////////////// MAIN PRIVATE VARS AND INIT FUNCTION ////////////////////

var _config config.Configuration
var _registry *prometheus.Registry

// Initialize initializes this package (sets some vars, etc...)
func Initialize(config config.Configuration, registry *prometheus.Registry) {
	_config = config
	_registry = registry
}

//////////////////// PUBLIC FUNCTIONS ////////////////////

// Function to run the http server
func RunHttpServer() error {
	http.HandleFunc("/healthz", healthzHandler)
	http.Handle("/metrics", promhttp.HandlerFor(_registry, promhttp.HandlerOpts{}))

	ip := _config.HttpServerHost
	port := strconv.FormatUint(uint64(_config.HttpServerPort), 10)
	err := http.ListenAndServe(ip+":"+port, nil)

	return err
}

//////////////////// PRIVATE REQUEST HANDLERS FUNCTIONS ////////////////////

// Function to handle requests to "/healthz" endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "FLHet agent running.\n")
}
