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

// Version2 is the legacy in-place format: version | iv(24) | ciphertext |
// mac(16). The IV is random and carried on the wire; the caller supplies
// and manages the key directly, which is why this format is used for
// utility encryption of persisted metadata rather than shared resources.
const Version2 byte = 2

const v2Overhead = 1 + 24 + 16

// EncryptV2 seals plaintext under key with a fresh random IV.
func EncryptV2(key crypto.SymmetricKey, plaintext []byte) ([]byte, error) {
	var iv crypto.AeadIv
	if err := crypto.RandomFill(iv[:]); err != nil {
		return nil, err
	}
	ct, err := crypto.AeadEncrypt(key, iv, plaintext, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(iv)+len(ct))
	out = append(out, Version2)
	out = append(out, iv[:]...)
	out = append(out, ct...)
	return out, nil
}

// DecryptV2 reverses EncryptV2.
func DecryptV2(key crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v2Overhead || ciphertext[0] != Version2 {
		return nil, ErrMalformed
	}
	var iv crypto.AeadIv
	copy(iv[:], ciphertext[1:1+len(iv)])
	return crypto.AeadDecrypt(key, iv, ciphertext[1+len(iv):], nil)
}

// EncryptedSizeV2 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV2(clearSize int) int { return clearSize + v2Overhead }

// DecryptedSizeV2 returns the plaintext size for a cipherSize-byte ciphertext.
func DecryptedSizeV2(cipherSize int) int { return cipherSize - v2Overhead }
