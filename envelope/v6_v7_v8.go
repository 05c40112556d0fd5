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

// Version6 pads V3: version | ciphertext(padded) | mac. Implicit IV, no
// resourceId tag, matching V3's caller-managed-key convention.
const Version6 byte = 6

// Version7 pads V5 while keeping the explicit IV: version | resourceId(16)
// | iv(24) | ciphertext(padded) | mac.
const Version7 byte = 7

// Version8 pads V5 but derives the IV from the resourceId instead of
// carrying it on the wire, trading 24 bytes of overhead for one extra
// BLAKE2b call on both ends.
const Version8 byte = 8

// EncryptV6 pads plaintext per step and seals it as V3.
func EncryptV6(key crypto.SymmetricKey, iv crypto.AeadIv, plaintext []byte, step PaddingStep) ([]byte, error) {
	padded := padClearData(plaintext, step)
	out, err := EncryptV3(key, iv, padded)
	if err != nil {
		return nil, err
	}
	out[0] = Version6
	return out, nil
}

// DecryptV6 reverses EncryptV6.
func DecryptV6(key crypto.SymmetricKey, iv crypto.AeadIv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 1 || ciphertext[0] != Version6 {
		return nil, ErrMalformed
	}
	tagged := append([]byte{Version3}, ciphertext[1:]...)
	padded, err := DecryptV3(key, iv, tagged)
	if err != nil {
		return nil, err
	}
	return unpadClearData(padded)
}

// EncryptedSizeV6 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV6(clearSize int, step PaddingStep) int {
	return paddedSize(clearSize, step) + v3Overhead
}

func ivFromResourceID(resourceID crypto.SimpleResourceID) crypto.AeadIv {
	var iv crypto.AeadIv
	copy(iv[:], crypto.GenericHashN(resourceID[:], len(iv)))
	return iv
}

// EncryptV7 pads plaintext per step and seals it as V5.
func EncryptV7(sessionKey crypto.SymmetricKey, resourceID crypto.SimpleResourceID, plaintext []byte, step PaddingStep) ([]byte, error) {
	padded := padClearData(plaintext, step)
	out, err := EncryptV5(sessionKey, resourceID, padded)
	if err != nil {
		return nil, err
	}
	out[0] = Version7
	return out, nil
}

// DecryptV7 reverses EncryptV7.
func DecryptV7(sessionKey crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 1 || ciphertext[0] != Version7 {
		return nil, ErrMalformed
	}
	tagged := append([]byte{Version5}, ciphertext[1:]...)
	padded, err := DecryptV5(sessionKey, tagged)
	if err != nil {
		return nil, err
	}
	return unpadClearData(padded)
}

// EncryptedSizeV7 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV7(clearSize int, step PaddingStep) int {
	return paddedSize(clearSize, step) + v5Overhead
}

const v8Overhead = 1 + 16 + 16 // version | resourceId | mac (no explicit iv)

// EncryptV8 pads plaintext per step and seals it with an IV derived from
// resourceId rather than a wire-carried one.
func EncryptV8(sessionKey crypto.SymmetricKey, resourceID crypto.SimpleResourceID, plaintext []byte, step PaddingStep) ([]byte, error) {
	padded := padClearData(plaintext, step)
	iv := ivFromResourceID(resourceID)
	ct, err := crypto.AeadEncrypt(sessionKey, iv, padded, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, v8Overhead+len(padded))
	out = append(out, Version8)
	out = append(out, resourceID[:]...)
	out = append(out, ct...)
	return out, nil
}

// DecryptV8 reverses EncryptV8.
func DecryptV8(sessionKey crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v8Overhead || ciphertext[0] != Version8 {
		return nil, ErrMalformed
	}
	var resourceID crypto.SimpleResourceID
	copy(resourceID[:], ciphertext[1:17])
	iv := ivFromResourceID(resourceID)
	padded, err := crypto.AeadDecrypt(sessionKey, iv, ciphertext[17:], nil)
	if err != nil {
		return nil, err
	}
	return unpadClearData(padded)
}

// ExtractResourceIDV8 reads the resourceId tag without decrypting.
func ExtractResourceIDV8(ciphertext []byte) (crypto.SimpleResourceID, error) {
	if len(ciphertext) < v8Overhead || ciphertext[0] != Version8 {
		return crypto.SimpleResourceID{}, ErrMalformed
	}
	var id crypto.SimpleResourceID
	copy(id[:], ciphertext[1:17])
	return id, nil
}

// EncryptedSizeV8 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV8(clearSize int, step PaddingStep) int {
	return paddedSize(clearSize, step) + v8Overhead
}
