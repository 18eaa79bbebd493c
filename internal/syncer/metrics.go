// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type syncerMetrics struct {
	objectsImported *prometheus.CounterVec
	syncFailures    *prometheus.CounterVec
	syncSkipped     *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
}

var metrics = initializeMetrics()

func initializeMetrics() *syncerMetrics {
	m := new(syncerMetrics)

	m.objectsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdbmirror_sync_objects_imported_total",
		Help: "Number of objects upserted into the mirror, per resource",
	}, []string{"resource"})

	m.syncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdbmirror_sync_failures_total",
		Help: "Number of per-resource sync attempts that ended in an error",
	}, []string{"resource"})

	m.syncSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdbmirror_sync_skipped_total",
		Help: "Number of per-resource sync attempts skipped because one was already running",
	}, []string{"resource"})

	m.syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "pdbmirror_sync_resource_duration_seconds",
		Help: "The amount of time it took to sync one resource",
	}, []string{"resource"})

	return m
}
