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

// Package config loads and validates the configuration a tanker client
// needs to start: which trustchain to talk to, where to persist local
// state, and how to log and expose metrics.
package config

import "time"

// Config is the top-level configuration a client.Start call is built
// from.
type Config struct {
	Environment string           `yaml:"environment" json:"environment"`
	Trustchain  *TrustchainConfig `yaml:"trustchain" json:"trustchain"`
	Storage     *StorageConfig   `yaml:"storage" json:"storage"`
	Logging     *LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// TrustchainConfig identifies the trustchain a client attaches to and
// tunes its network behavior.
type TrustchainConfig struct {
	URL                string        `yaml:"url" json:"url"`
	AppID              string        `yaml:"app_id" json:"app_id"`
	PublicSignatureKey string        `yaml:"public_signature_key" json:"public_signature_key"`
	RequestTimeout     time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RetryPolicy        RetryPolicyConfig `yaml:"retry_policy" json:"retry_policy"`
}

// RetryPolicyConfig tunes how the transport client retries a failed
// trustchain request.
type RetryPolicyConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff      string        `yaml:"backoff" json:"backoff"` // linear, exponential
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
}

// StorageConfig selects and tunes the persisted local store backing a
// client's device keys, user keys, groups, and resource key cache.
type StorageConfig struct {
	Type      string `yaml:"type" json:"type"` // memory, postgres
	DSN       string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// LoggingConfig controls the internal/logger output a client uses.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig controls the Prometheus registry a client publishes its
// internal/metrics collectors to.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}
