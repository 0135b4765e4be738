// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// batchMetrics holds Prometheus metrics for batch processing
type batchMetrics struct {
	batches      prometheus.Counter
	items        *prometheus.CounterVec
	itemDuration prometheus.Histogram
	batchSize    prometheus.Histogram
}

// initBatchMetrics initializes batch metrics using the provided Prometheus
// registerer. A nil registerer creates unregistered metrics.
func initBatchMetrics(reg prometheus.Registerer) *batchMetrics {
	factory := promauto.With(reg)
	m := &batchMetrics{}
	m.batches = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "credmint_batch_total",
			Help: "batches processed",
		},
	)
	m.items = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credmint_batch_requests_total",
			Help: "certificate requests processed, by result",
		},
		[]string{"result"},
	)
	m.itemDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credmint_batch_item_duration_seconds",
			Help:    "time to render, upload and encode one certificate",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	m.batchSize = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credmint_batch_size",
			Help:    "certificate requests per batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
	return m
}
