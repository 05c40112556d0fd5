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

// Version5 is the transparent-session single-shot format: version |
// resourceId(16) | iv(24) | ciphertext | mac(16). Used by encryption
// sessions for small payloads, where the caller already holds the
// (resourceId, sessionKey) pair directly rather than a derived subkey.
const Version5 byte = 5

const v5Overhead = 1 + 16 + 24 + 16

// EncryptV5 seals plaintext under sessionKey, tagging the output with
// resourceId and a fresh random IV.
func EncryptV5(sessionKey crypto.SymmetricKey, resourceID crypto.SimpleResourceID, plaintext []byte) ([]byte, error) {
	var iv crypto.AeadIv
	if err := crypto.RandomFill(iv[:]); err != nil {
		return nil, err
	}
	ct, err := crypto.AeadEncrypt(sessionKey, iv, plaintext, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+16+24+len(ct))
	out = append(out, Version5)
	out = append(out, resourceID[:]...)
	out = append(out, iv[:]...)
	out = append(out, ct...)
	return out, nil
}

// DecryptV5 reverses EncryptV5.
func DecryptV5(sessionKey crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v5Overhead || ciphertext[0] != Version5 {
		return nil, ErrMalformed
	}
	var iv crypto.AeadIv
	copy(iv[:], ciphertext[17:41])
	return crypto.AeadDecrypt(sessionKey, iv, ciphertext[41:], nil)
}

// ExtractResourceIDV5 reads the resourceId tag without decrypting.
func ExtractResourceIDV5(ciphertext []byte) (crypto.SimpleResourceID, error) {
	if len(ciphertext) < v5Overhead || ciphertext[0] != Version5 {
		return crypto.SimpleResourceID{}, ErrMalformed
	}
	var id crypto.SimpleResourceID
	copy(id[:], ciphertext[1:17])
	return id, nil
}

// EncryptedSizeV5 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV5(clearSize int) int { return clearSize + v5Overhead }

// DecryptedSizeV5 returns the plaintext size for a cipherSize-byte ciphertext.
func DecryptedSizeV5(cipherSize int) int { return cipherSize - v5Overhead }
