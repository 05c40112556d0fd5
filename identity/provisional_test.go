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

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvisionalRejectsUserTarget(t *testing.T) {
	trustchainID, _ := newTrustchain(t)
	_, err := NewProvisional(trustchainID, TargetUser, "x")
	require.Error(t, err)
}

func TestProvisionalIdentitySerializeRoundTrip(t *testing.T) {
	trustchainID, _ := newTrustchain(t)
	prov, err := NewProvisional(trustchainID, TargetEmail, "grace@example.com")
	require.NoError(t, err)

	blob, err := prov.Serialize()
	require.NoError(t, err)

	back, err := DeserializeProvisional(blob)
	require.NoError(t, err)
	require.Equal(t, prov.TrustchainID, back.TrustchainID)
	require.Equal(t, prov.Target, back.Target)
	require.Equal(t, prov.Value, back.Value)
	require.Equal(t, prov.PublicSignatureKey, back.PublicSignatureKey)
	require.Equal(t, prov.PrivateSignatureKey, back.PrivateSignatureKey)
	require.Equal(t, prov.PublicEncryptionKey, back.PublicEncryptionKey)
	require.Equal(t, prov.PrivateEncryptionKey, back.PrivateEncryptionKey)
}

func TestProvisionalPublicHidesPrivateKeys(t *testing.T) {
	trustchainID, _ := newTrustchain(t)
	prov, err := NewProvisional(trustchainID, TargetPhone, "+15551234567")
	require.NoError(t, err)

	pub := prov.Public()
	require.Equal(t, prov.Target, pub.Target)
	require.Equal(t, prov.Value, pub.Value)
}
