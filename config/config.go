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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing the format from the
// path's extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Trustchain != nil {
		if cfg.Trustchain.RequestTimeout == 0 {
			cfg.Trustchain.RequestTimeout = 30 * time.Second
		}
		if cfg.Trustchain.RetryPolicy.MaxAttempts == 0 {
			cfg.Trustchain.RetryPolicy.MaxAttempts = 3
		}
		if cfg.Trustchain.RetryPolicy.Backoff == "" {
			cfg.Trustchain.RetryPolicy.Backoff = "exponential"
		}
		if cfg.Trustchain.RetryPolicy.InitialDelay == 0 {
			cfg.Trustchain.RetryPolicy.InitialDelay = 200 * time.Millisecond
		}
		if cfg.Trustchain.RetryPolicy.MaxDelay == 0 {
			cfg.Trustchain.RetryPolicy.MaxDelay = 5 * time.Second
		}
	}

	if cfg.Storage != nil && cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// ValidationIssue is one problem ValidateConfiguration found.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks cfg for the fields a client cannot start
// without. Issues at Level "warning" do not prevent Load from returning
// the config.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Trustchain == nil {
		issues = append(issues, ValidationIssue{Field: "trustchain", Message: "trustchain configuration is required", Level: "error"})
	} else {
		if cfg.Trustchain.URL == "" {
			issues = append(issues, ValidationIssue{Field: "trustchain.url", Message: "trustchain URL is required", Level: "error"})
		}
		if cfg.Trustchain.AppID == "" {
			issues = append(issues, ValidationIssue{Field: "trustchain.app_id", Message: "app id is required", Level: "error"})
		}
	}

	if cfg.Storage != nil && cfg.Storage.Type == "postgres" && cfg.Storage.DSN == "" {
		issues = append(issues, ValidationIssue{Field: "storage.dsn", Message: "dsn is required for postgres storage", Level: "error"})
	}

	return issues
}
