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

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/crypto"
)

func sampleDeviceData(t *testing.T) *DeviceData {
	t.Helper()
	sigKP, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	encKP, err := crypto.MakeEncryptionKeyPair()
	require.NoError(t, err)
	userKP1, err := crypto.MakeEncryptionKeyPair()
	require.NoError(t, err)
	userKP2, err := crypto.MakeEncryptionKeyPair()
	require.NoError(t, err)

	var trustchainPub crypto.PublicSignatureKey
	require.NoError(t, crypto.RandomFill(trustchainPub[:]))
	var deviceID crypto.DeviceID
	require.NoError(t, crypto.RandomFill(deviceID[:]))

	return &DeviceData{
		Version:                      DeviceDataVersion,
		TrustchainPublicSignatureKey: trustchainPub,
		DeviceID:                     deviceID,
		DeviceKeys: DeviceKeys{
			SignatureKeyPair:  sigKP,
			EncryptionKeyPair: encKP,
		},
		UserKeyPairs: []crypto.EncryptionKeyPair{userKP1, userKP2},
	}
}

func TestDeviceDataEncodeDecodeRoundTrip(t *testing.T) {
	d := sampleDeviceData(t)
	blob := d.Encode()

	back, err := DecodeDeviceData(blob)
	require.NoError(t, err)
	require.Equal(t, d.Version, back.Version)
	require.Equal(t, d.TrustchainPublicSignatureKey, back.TrustchainPublicSignatureKey)
	require.Equal(t, d.DeviceID, back.DeviceID)
	require.Equal(t, d.DeviceKeys, back.DeviceKeys)
	require.Equal(t, d.UserKeyPairs, back.UserKeyPairs)
}

func TestDecodeDeviceDataRejectsUnsupportedVersion(t *testing.T) {
	w := []byte{2} // varint version 2
	_, err := DecodeDeviceData(w)
	require.Error(t, err)
}

func TestDecodeDeviceDataRejectsTrailingInput(t *testing.T) {
	d := sampleDeviceData(t)
	blob := append(d.Encode(), 0xff)
	_, err := DecodeDeviceData(blob)
	require.Error(t, err)
}

func TestCurrentAndFindUserKeyPair(t *testing.T) {
	d := sampleDeviceData(t)
	current, ok := d.CurrentUserKeyPair()
	require.True(t, ok)
	require.Equal(t, d.UserKeyPairs[len(d.UserKeyPairs)-1], current)

	older := d.UserKeyPairs[0]
	found, ok := d.FindUserKeyPair(older.Public)
	require.True(t, ok)
	require.Equal(t, older, found)

	var unknown crypto.PublicEncryptionKey
	require.NoError(t, crypto.RandomFill(unknown[:]))
	_, ok = d.FindUserKeyPair(unknown)
	require.False(t, ok)
}

func TestEmptyDeviceDataHasNoCurrentKeyPair(t *testing.T) {
	d := &DeviceData{}
	_, ok := d.CurrentUserKeyPair()
	require.False(t, ok)
}
