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
	// GroupsCreated tracks user group creation actions folded into local state.
	GroupsCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "created_total",
			Help:      "Total number of group creation actions applied",
		},
		[]string{"version"}, // v1, v2
	)

	// GroupsModified tracks group membership addition actions.
	GroupsModified = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "modified_total",
			Help:      "Total number of group addition actions applied",
		},
		[]string{"version"}, // v1, v2
	)

	// GroupApplyFailed tracks group actions that failed to apply.
	GroupApplyFailed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "apply_failed_total",
			Help:      "Total number of group actions rejected while folding local state",
		},
		[]string{"reason"}, // unknown_member_key, missing_previous_group, malformed_payload
	)

	// GroupApplyDuration tracks how long folding a group action into local
	// state takes, including unsealing the group's encryption key pair.
	GroupApplyDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "apply_duration_seconds",
			Help:      "Duration of applying a group action to local state, in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to 819ms
		},
		[]string{"action"}, // creation, addition
	)
)
