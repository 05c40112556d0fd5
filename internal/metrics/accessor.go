// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResourceKeyCacheLookups tracks resource key cache accesses from
	// ResourceKeyAccessor.FindKey, by outcome.
	ResourceKeyCacheLookups = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource_keys",
			Name:      "cache_lookups_total",
			Help:      "Total number of resource key cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// ResourceKeyFetches tracks remote key-publish fetch outcomes.
	ResourceKeyFetches = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource_keys",
			Name:      "fetches_total",
			Help:      "Total number of key-publish fetches issued to the trustchain server",
		},
		[]string{"status"}, // success, error
	)

	// CoalescedBatchSize tracks how many distinct keys a single in-flight
	// fetch served, reflecting request deduplication by the batch coalescer.
	CoalescedBatchSize = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resource_keys",
			Name:      "batch_size",
			Help:      "Number of keys served by a single coalesced fetch",
			Buckets:   prometheus.LinearBuckets(1, 4, 10), // 1..37
		},
		[]string{"batch"}, // coalescer instance name
	)

	// FetchDuration tracks key-publish fetch latency.
	FetchDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resource_keys",
			Name:      "fetch_duration_seconds",
			Help:      "Key-publish fetch duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
		},
		[]string{"batch"},
	)
)
