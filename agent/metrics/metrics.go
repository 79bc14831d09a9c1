// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

// This package defines the Prometheus metrics the agent exposes: the latest
// round statistics produced by the evaluation callback and the current client
// capacity distribution.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor is the collection of Prometheus metrics for the agent.
type Monitor struct {
	// Latest round statistics. The local values are sums over all client test
	// sets, matching what the evaluation callback returns.
	globalLoss       prometheus.Gauge
	globalAccuracy   prometheus.Gauge
	localLossSum     prometheus.Gauge
	localAccuracySum prometheus.Gauge

	// Number of clients currently assigned to each width rate.
	assignedClients *prometheus.GaugeVec

	evaluatedRounds  prometheus.Counter
	checkpointWrites prometheus.Counter
}

// NewMonitor creates a Monitor and registers its metrics on the given
// registerer.
func NewMonitor(registry prometheus.Registerer) *Monitor {
	monitor := &Monitor{
		globalLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flhet_global_loss",
			Help: "Loss on the global held-out test set for the latest evaluated round",
		}),
		globalAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flhet_global_accuracy",
			Help: "Accuracy on the global held-out test set for the latest evaluated round",
		}),
		localLossSum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flhet_local_loss_sum",
			Help: "Sum of the per-client test losses for the latest evaluated round",
		}),
		localAccuracySum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flhet_local_accuracy_sum",
			Help: "Sum of the per-client test accuracies for the latest evaluated round",
		}),
		assignedClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flhet_assigned_clients",
			Help: "Number of clients assigned to each capacity rate",
		}, []string{"rate"}),
		evaluatedRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flhet_evaluated_rounds_total",
			Help: "Number of rounds that ran a full evaluation",
		}),
		checkpointWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flhet_checkpoint_writes_total",
			Help: "Number of model checkpoints written",
		}),
	}

	registry.MustRegister(
		monitor.globalLoss,
		monitor.globalAccuracy,
		monitor.localLossSum,
		monitor.localAccuracySum,
		monitor.assignedClients,
		monitor.evaluatedRounds,
		monitor.checkpointWrites,
	)

	return monitor
}

// ObserveRound records the statistics of a fully evaluated round.
func (monitor *Monitor) ObserveRound(globalLoss, globalAccuracy, localLossSum, localAccuracySum float64) {
	monitor.globalLoss.Set(globalLoss)
	monitor.globalAccuracy.Set(globalAccuracy)
	monitor.localLossSum.Set(localLossSum)
	monitor.localAccuracySum.Set(localAccuracySum)
	monitor.evaluatedRounds.Inc()
}

// ObserveCheckpoint records one written model checkpoint.
func (monitor *Monitor) ObserveCheckpoint() {
	monitor.checkpointWrites.Inc()
}

// ObserveAssignment records the current client capacity distribution.
func (monitor *Monitor) ObserveAssignment(rates []float64) {
	monitor.assignedClients.Reset()
	for _, rate := range rates {
		monitor.assignedClients.WithLabelValues(strconv.FormatFloat(rate, 'g', -1, 64)).Inc()
	}
}
