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

// Version9 is the transparent-session compact format: version | sessionId
// (16) | subkeySeed(16) | ciphertext | mac(16). The per-resource subkey is
// derived from the session key and the subkey seed so that one KeyPublish
// addressing sessionId unlocks every resource sealed under that session.
const Version9 byte = 9

const v9Overhead = 1 + 16 + 16 + 16

// deriveTransparentSubkey computes H(sessionKey || subkeySeed).
func deriveTransparentSubkey(sessionKey crypto.SymmetricKey, subkeySeed crypto.SubkeySeed) (crypto.SymmetricKey, error) {
	buf := make([]byte, 0, len(sessionKey)+len(subkeySeed))
	buf = append(buf, sessionKey[:]...)
	buf = append(buf, subkeySeed[:]...)
	return crypto.NewSymmetricKeyFromSlice(crypto.GenericHashN(buf, 32))
}

// transparentSessionIv builds the 24-byte IV sessionId || zeros(8).
func transparentSessionIv(sessionID crypto.SimpleResourceID) crypto.AeadIv {
	var iv crypto.AeadIv
	copy(iv[:16], sessionID[:])
	return iv
}

func v9MacData(version byte, sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed) []byte {
	buf := make([]byte, 0, 1+16+16)
	buf = append(buf, version)
	buf = append(buf, sessionID[:]...)
	buf = append(buf, subkeySeed[:]...)
	return buf
}

// EncryptV9 derives a per-resource subkey from sessionKey and a fresh
// random subkeySeed, then seals plaintext under it.
func EncryptV9(sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, plaintext []byte) ([]byte, error) {
	var subkeySeed crypto.SubkeySeed
	if err := crypto.RandomFill(subkeySeed[:]); err != nil {
		return nil, err
	}
	return encryptV9WithSeed(sessionKey, sessionID, subkeySeed, plaintext)
}

func encryptV9WithSeed(sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, plaintext []byte) ([]byte, error) {
	return encryptV9WithSeedVersion(sessionKey, sessionID, subkeySeed, plaintext, Version9)
}

// DecryptV9 reverses EncryptV9 given the resolved session key.
func DecryptV9(sessionKey crypto.SymmetricKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < v9Overhead || ciphertext[0] != Version9 {
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
	return crypto.AeadDecrypt(subkey, iv, ciphertext[33:], v9MacData(Version9, sessionID, subkeySeed))
}

// ExtractSessionIDV9 reads the sessionId tag without decrypting. It is
// shared by V10, whose header layout is identical.
func ExtractSessionIDV9(ciphertext []byte) (crypto.SimpleResourceID, error) {
	if len(ciphertext) < v9Overhead || (ciphertext[0] != Version9 && ciphertext[0] != Version10) {
		return crypto.SimpleResourceID{}, ErrMalformed
	}
	var id crypto.SimpleResourceID
	copy(id[:], ciphertext[1:17])
	return id, nil
}

// EncryptedSizeV9 returns the on-wire size for a clearSize-byte plaintext.
func EncryptedSizeV9(clearSize int) int { return clearSize + v9Overhead }

// DecryptedSizeV9 returns the plaintext size for a cipherSize-byte ciphertext.
func DecryptedSizeV9(cipherSize int) int { return cipherSize - v9Overhead }
