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

// Package metrics exposes Prometheus collectors for the client runtime.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tanker"

// Registry is the collector registry every metric in this package registers
// against. A dedicated registry (rather than prometheus.DefaultRegisterer)
// keeps client metrics out of a host process's own /metrics endpoint unless
// Handler is mounted explicitly.
var Registry = prometheus.NewRegistry()
