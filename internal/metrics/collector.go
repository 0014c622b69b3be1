// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package metrics exposes the Prometheus instrumentation for the event
// store, the sync/GC tasks, and the HTTP server facade.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "baybridge"

// Registry is the process-wide Prometheus registry every metric below
// registers against.
var Registry = prometheus.NewRegistry()

var (
	eventsInserted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "events_inserted_total",
		Help:      "Events retained by Insert (duplicates and stale events excluded).",
	})

	eventsSuppressed = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "events_suppressed_total",
		Help:      "Events rejected by Insert, labeled by reason.",
	}, []string{"reason"}) // duplicate, stale

	eventsExpired = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gc",
		Name:      "events_expired_total",
		Help:      "Events removed by the GC sweep.",
	})

	syncTicks = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "ticks_total",
		Help:      "Anti-entropy passes against a peer, labeled by outcome.",
	}, []string{"peer", "outcome"}) // ok, error

	syncDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Anti-entropy pass duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"peer"})

	httpRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Inbound HTTP requests, labeled by method and path.",
	}, []string{"method", "path"})

	httpDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Inbound HTTP request duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Collector is a thin facade over the package-level Prometheus metrics,
// letting server/syncer/gctask record observations without importing
// prometheus types directly.
type Collector struct{}

// NewCollector returns a Collector bound to the package Registry.
func NewCollector() *Collector {
	return &Collector{}
}

// ObserveRequest records one completed HTTP request.
func (c *Collector) ObserveRequest(method, path string, d time.Duration) {
	httpRequests.WithLabelValues(method, path).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveInsert records the outcome of one storage.EventStore.Insert call.
func (c *Collector) ObserveInsert(retained bool, stale bool) {
	if retained {
		eventsInserted.Inc()
		return
	}
	reason := "duplicate"
	if stale {
		reason = "stale"
	}
	eventsSuppressed.WithLabelValues(reason).Inc()
}

// ObserveExpired records a GC sweep's removal count.
func (c *Collector) ObserveExpired(count int) {
	eventsExpired.Add(float64(count))
}

// ObserveSync records one anti-entropy pass against peer.
func (c *Collector) ObserveSync(peer string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	syncTicks.WithLabelValues(peer, outcome).Inc()
	syncDuration.WithLabelValues(peer).Observe(d.Seconds())
}
