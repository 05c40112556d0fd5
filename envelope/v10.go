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

package envelope

import "github.com/sage-x-project/tanker/crypto"

// Version10 is V9 plus V6/V7/V8's boundary-byte padding convention,
// applied to the plaintext before the subkey derivation and AEAD.
const Version10 byte = 10

// EncryptV10 pads plaintext per step, then seals it exactly as V9 would.
func EncryptV10(sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, plaintext []byte, step PaddingStep) ([]byte, error) {
	var subkeySeed crypto.SubkeySeed
	if err := crypto.RandomFill(subkeySeed[:]); err != nil {
		return nil, err
	}
	padded := padClearData(plaintext, step)
	out, err := encryptV9WithSeedVersion(sessionKey, sessionID, subkeySeed, padded, Version10)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// encryptV9WithSeedVersion is encryptV9WithSeed generalized to stamp a
// caller-chosen version byte into both the wire output and the MAC data,
// since V10 shares V9's layout byte-for-byte apart from the tag.
func encryptV9WithSeedVersion(sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, plaintext []byte, version byte) ([]byte, error) {
	subkey, err := deriveTransparentSubkey(sessionKey, subkeySeed)
	if err != nil {
		return nil, err
	}
	iv := transparentSessionIv(sessionID)
	ct, err := crypto.AeadEncrypt(subkey, iv, plaintext, v9MacData(version, sessionID, subkeySeed))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 33+len(ct))
	out = append(out, version)
	out = append(out, sessionID[:]...)
	out = append(out, subkeySeed[:]...)
	out = append(out, ct...)
	return out, nil
}

// DecryptV10 reverses EncryptV10 given the resolved session key.
func DecryptV10(sessionKey crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v9Overhead || ciphertext[0] != Version10 {
		return nil, ErrMalformed
	}
	var sessionID crypto.SimpleResourceID
	copy(sessionID[:], ciphertext[1:17])
	var subkeySeed crypto.SubkeySeed
	copy(subkeySeed[:], ciphertext[17:33])
	subkey, err := deriveTransparentSubkey(sessionKey, subkeySeed)
	if err != nil {
		return nil, err
	}
	iv := transparentSessionIv(sessionID)
	padded, err := crypto.AeadDecrypt(subkey, iv, ciphertext[33:], v9MacData(Version10, sessionID, subkeySeed))
	if err != nil {
		return nil, err
	}
	return unpadClearData(padded)
}

// EncryptedSizeV10 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV10(clearSize int, step PaddingStep) int {
	return paddedSize(clearSize, step) + v9Overhead
}
