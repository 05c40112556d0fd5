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

// Version3 is the legacy implicit-IV format: version | ciphertext | mac.
// The IV is never carried on the wire; the caller derives it from its own
// session context (one IV per resource, cached alongside the key) and
// passes it in explicitly.
const Version3 byte = 3

const v3Overhead = 1 + 16

// EncryptV3 seals plaintext under key and iv, both supplied by the caller.
func EncryptV3(key crypto.SymmetricKey, iv crypto.AeadIv, plaintext []byte) ([]byte, error) {
	ct, err := crypto.AeadEncrypt(key, iv, plaintext, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(ct))
	out = append(out, Version3)
	out = append(out, ct...)
	return out, nil
}

// DecryptV3 reverses EncryptV3.
func DecryptV3(key crypto.SymmetricKey, iv crypto.AeadIv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v3Overhead || ciphertext[0] != Version3 {
		return nil, ErrMalformed
	}
	return crypto.AeadDecrypt(key, iv, ciphertext[1:], nil)
}

// EncryptedSizeV3 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV3(clearSize int) int { return clearSize + v3Overhead }

// DecryptedSizeV3 returns the plaintext size for a cipherSize-byte ciphertext.
func DecryptedSizeV3(cipherSize int) int { return cipherSize - v3Overhead }
