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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToEmptyConfigWhenNoFileExists(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "test", SkipValidation: true})
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Environment)
}

func TestLoadReadsEnvironmentSpecificFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{
		Trustchain: &TrustchainConfig{URL: "https://staging.tanker.example", AppID: "staging-app"},
	}, filepath.Join(dir, "staging.yaml")))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)
	require.Equal(t, "staging-app", cfg.Trustchain.AppID)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{
		Trustchain: &TrustchainConfig{URL: "https://default.tanker.example", AppID: "default-app"},
	}, filepath.Join(dir, "test.yaml")))

	t.Setenv("TANKER_APP_ID", "overridden-app")
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	require.Equal(t, "overridden-app", cfg.Trustchain.AppID)
}

func TestLoadFailsValidationWithoutTrustchain(t *testing.T) {
	_, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "test"})
	require.Error(t, err)
}

func TestMustLoadPanicsOnValidationFailure(t *testing.T) {
	require.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: t.TempDir(), Environment: "test"})
	})
}
