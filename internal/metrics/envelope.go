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
	// EnvelopesEncoded tracks encrypted envelopes produced, by format version.
	EnvelopesEncoded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "encoded_total",
			Help:      "Total number of resource envelopes encoded",
		},
		[]string{"version"}, // v9, v10
	)

	// EnvelopesDecoded tracks envelopes successfully decrypted, by format version.
	EnvelopesDecoded = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "decoded_total",
			Help:      "Total number of resource envelopes decoded",
		},
		[]string{"version", "status"}, // success, decryption_failed
	)

	// ActionsVerified tracks trustchain actions that passed or failed local
	// block verification before being folded into state.
	ActionsVerified = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "verified_total",
			Help:      "Total number of trustchain actions verified",
		},
		[]string{"nature", "status"}, // device_creation/device_revocation/..., accepted/rejected
	)

	// EnvelopeSize tracks encoded envelope sizes.
	EnvelopeSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "size_bytes",
			Help:      "Size of encoded envelopes in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10), // 64B to 16MB
		},
	)

	// EnvelopeProcessingDuration tracks encode/decode latency.
	EnvelopeProcessingDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "processing_duration_seconds",
			Help:      "Envelope encode/decode duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to 205ms
		},
		[]string{"operation"}, // encode, decode
	)
)
