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

package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/crypto"
)

func fill32(b byte) (out [32]byte) {
	for i := range out {
		out[i] = b
	}
	return out
}

func fill64(b byte) (out [64]byte) {
	for i := range out {
		out[i] = b
	}
	return out
}

func fill80(b byte) (out [80]byte) {
	for i := range out {
		out[i] = b
	}
	return out
}

func fill16(b byte) (out [16]byte) {
	for i := range out {
		out[i] = b
	}
	return out
}

func fill176(b byte) (out [176]byte) {
	for i := range out {
		out[i] = b
	}
	return out
}

func newTestAction(t *testing.T, payload Payload) Action {
	t.Helper()
	kp, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	a := Action{
		TrustchainID: fill32(0xAA),
		Author:       fill32(0xBB),
		Payload:      payload,
	}
	a.Sign(kp.Private)
	require.True(t, a.VerifySignature(kp.Public))
	return a
}

func roundTrip(t *testing.T, payload Payload) {
	t.Helper()
	a := newTestAction(t, payload)
	encoded := a.Encode()

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, a, decoded)
	require.Equal(t, encoded, decoded.Encode())
	require.Equal(t, a.Hash(), decoded.Hash())
}

func TestRoundTripEveryNature(t *testing.T) {
	roundTrip(t, TrustchainCreation{PublicSignatureKey: fill32(1)})

	roundTrip(t, DeviceCreation1{
		EphemeralPublicSignatureKey: fill32(2),
		UserID:                      fill32(3),
		DelegationSignature:         fill64(4),
		PublicSignatureKey:          fill32(5),
		PublicEncryptionKey:         fill32(6),
	})

	roundTrip(t, DeviceCreation2{DeviceCreation1{
		EphemeralPublicSignatureKey: fill32(2),
		UserID:                      fill32(3),
		DelegationSignature:         fill64(4),
		PublicSignatureKey:          fill32(5),
		PublicEncryptionKey:         fill32(6),
	}})

	roundTrip(t, DeviceCreation3{
		EphemeralPublicSignatureKey:    fill32(2),
		UserID:                         fill32(3),
		DelegationSignature:            fill64(4),
		PublicSignatureKey:             fill32(5),
		PublicEncryptionKey:            fill32(6),
		PublicUserEncryptionKey:        fill32(7),
		SealedPrivateUserEncryptionKey: fill80(8),
		IsGhostDevice:                  true,
	})

	roundTrip(t, DeviceRevocation1{DeviceID: fill32(9)})

	roundTrip(t, DeviceRevocation2{
		DeviceID:                    fill32(9),
		PublicEncryptionKey:         fill32(10),
		PreviousPublicEncryptionKey: fill32(11),
		SealedKeyForPreviousUserKey: fill80(12),
		SealedKeysForDevices: []SealedKeyForDevice{
			{DeviceID: fill32(13), SealedPrivateEncryptionKey: fill80(14)},
			{DeviceID: fill32(15), SealedPrivateEncryptionKey: fill80(16)},
		},
	})

	roundTrip(t, KeyPublishToDevice{
		RecipientDeviceID:  fill32(17),
		ResourceID:         fill16(18),
		SealedSymmetricKey: fill80(19),
	})

	roundTrip(t, KeyPublishToUser{
		RecipientPublicEncryptionKey: fill32(20),
		ResourceID:                   fill16(21),
		SealedSymmetricKey:           fill80(22),
	})

	roundTrip(t, KeyPublishToUserGroup{
		RecipientPublicEncryptionKey: fill32(23),
		ResourceID:                   fill16(24),
		SealedSymmetricKey:           fill80(25),
	})

	roundTrip(t, KeyPublishToProvisionalUser{
		AppPublicSignatureKey:      fill32(26),
		ResourceID:                 fill16(27),
		TankerPublicSignatureKey:   fill32(28),
		TwoTimesSealedSymmetricKey: fill176(29),
	})

	roundTrip(t, UserGroupCreation1{
		PublicSignatureKey:        fill32(30),
		PublicEncryptionKey:       fill32(31),
		SealedPrivateSignatureKey: fill80(32),
		Members: []UserGroupMemberV1{
			{UserPublicEncryptionKey: fill32(33), SealedPrivateGroupEncryptionKey: fill80(34)},
		},
		SelfSignature: fill64(35),
	})

	roundTrip(t, UserGroupCreation2{
		PublicSignatureKey:        fill32(30),
		PublicEncryptionKey:       fill32(31),
		SealedPrivateSignatureKey: fill80(32),
		Members: []UserGroupMemberV2{
			{UserID: fill32(36), UserPublicEncryptionKey: fill32(33), SealedPrivateGroupEncryptionKey: fill80(34)},
		},
		ProvisionalMembers: []UserGroupProvisionalMember{
			{AppPublicSignatureKey: fill32(37), TankerPublicSignatureKey: fill32(38), TwoTimesSealedPrivateGroupEncryptionKey: fill176(39)},
		},
		SelfSignature: fill64(35),
	})

	roundTrip(t, UserGroupAddition1{
		GroupID:                fill32(40),
		PreviousGroupBlockHash: fill32(41),
		Members: []UserGroupMemberV1{
			{UserPublicEncryptionKey: fill32(42), SealedPrivateGroupEncryptionKey: fill80(43)},
		},
		SelfSignature: fill64(44),
	})

	roundTrip(t, UserGroupAddition2{
		GroupID:                fill32(40),
		PreviousGroupBlockHash: fill32(41),
		Members: []UserGroupMemberV2{
			{UserID: fill32(45), UserPublicEncryptionKey: fill32(42), SealedPrivateGroupEncryptionKey: fill80(43)},
		},
		SelfSignature: fill64(44),
	})

	roundTrip(t, ProvisionalIdentityClaim{
		UserID:                   fill32(46),
		AppPublicSignatureKey:    fill32(47),
		TankerPublicSignatureKey: fill32(48),
		AuthorSigByAppKey:        fill64(49),
		AuthorSigByTankerKey:     fill64(50),
		UserPublicEncryptionKey:  fill32(51),
		SealedPrivateKeys:        fill176(52),
	})
}

func TestDecodeRejectsTrailingInput(t *testing.T) {
	a := newTestAction(t, TrustchainCreation{PublicSignatureKey: fill32(1)})
	encoded := append(a.Encode(), 0xFF)
	_, err := Decode(encoded)
	require.Error(t, err)
}

func TestDecodeRejectsTruncation(t *testing.T) {
	a := newTestAction(t, TrustchainCreation{PublicSignatureKey: fill32(1)})
	encoded := a.Encode()
	_, err := Decode(encoded[:len(encoded)-1])
	require.Error(t, err)
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	a := newTestAction(t, TrustchainCreation{PublicSignatureKey: fill32(1)})
	kp, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	a.Sign(kp.Private)

	tampered := a
	tampered.Payload = TrustchainCreation{PublicSignatureKey: fill32(2)}
	require.False(t, tampered.VerifySignature(kp.Public))
}
