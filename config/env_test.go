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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteEnvVarsUsesDefault(t *testing.T) {
	t.Setenv("TANKER_TEST_UNSET_VAR", "")
	require.Equal(t, "fallback", SubstituteEnvVars("${TANKER_TEST_UNSET_VAR:fallback}"))
}

func TestSubstituteEnvVarsUsesEnvValue(t *testing.T) {
	t.Setenv("TANKER_TEST_VAR", "value")
	require.Equal(t, "value", SubstituteEnvVars("${TANKER_TEST_VAR}"))
}

func TestSubstituteEnvVarsInConfigRecurses(t *testing.T) {
	t.Setenv("TANKER_TEST_APP_ID", "resolved-app")
	cfg := &Config{Trustchain: &TrustchainConfig{AppID: "${TANKER_TEST_APP_ID}"}}
	SubstituteEnvVarsInConfig(cfg)
	require.Equal(t, "resolved-app", cfg.Trustchain.AppID)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	t.Setenv("TANKER_ENV", "")
	t.Setenv("ENVIRONMENT", "")
	require.Equal(t, "development", GetEnvironment())
}

func TestIsProductionReflectsTankerEnv(t *testing.T) {
	t.Setenv("TANKER_ENV", "production")
	require.True(t, IsProduction())
	require.False(t, IsDevelopment())
}
