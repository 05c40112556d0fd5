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

// Package encsession implements encryption sessions: a single
// (resourceId, sessionKey) pair reused across many single-shot
// encryptions, wire-encoded with envelope's V5 format. A session is
// created once, optionally shared with a set of recipients by
// publishing its key (the orchestration layer's job, not this
// package's), then used to seal or open any number of payloads without
// a further key-resolution round trip per call.
package encsession

import (
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope"
)

// Session binds one resource id to one symmetric key. The zero value is
// not usable; construct with New or Open.
type Session struct {
	resourceID crypto.SimpleResourceID
	key        crypto.SymmetricKey
}

// New creates a session with a freshly generated resource id and key.
func New() (*Session, error) {
	var s Session
	if err := crypto.RandomFill(s.resourceID[:]); err != nil {
		return nil, fmt.Errorf("encsession: generate resource id: %w", err)
	}
	if err := crypto.RandomFill(s.key[:]); err != nil {
		return nil, fmt.Errorf("encsession: generate session key: %w", err)
	}
	return &s, nil
}

// Open reconstructs a session from a (resourceId, key) pair already
// resolved elsewhere — by the key-resolution pipeline on decrypt, or by
// a caller restoring a session it created earlier.
func Open(resourceID crypto.SimpleResourceID, key crypto.SymmetricKey) *Session {
	return &Session{resourceID: resourceID, key: key}
}

// ResourceID returns the session's resource id. Every ciphertext this
// session produces carries this same id, so a single KeyPublish
// addressing it is sufficient for a recipient to decrypt every resource
// the session ever seals.
func (s *Session) ResourceID() crypto.SimpleResourceID { return s.resourceID }

// Key returns the session's symmetric key, for the orchestration layer
// to seal into KeyPublish actions when sharing the session.
func (s *Session) Key() crypto.SymmetricKey { return s.key }

// Encrypt seals plaintext under the session's key, tagging the
// ciphertext with the session's resource id. Two calls with identical
// plaintext never produce identical ciphertext (fresh random IV each
// time).
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	return envelope.EncryptV5(s.key, s.resourceID, plaintext)
}

// Decrypt reverses Encrypt. It does not require the ciphertext's tagged
// resource id to match this session's — the session key is the only
// thing actually authenticated; a mismatched id simply means the
// plaintext was sealed by a different session and AEAD verification
// fails.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	return envelope.DecryptV5(s.key, ciphertext)
}

// Version is the envelope version every ciphertext produced by a
// session carries.
func Version() byte { return envelope.Version5 }

// EncryptedSize returns the on-wire size of a clearSize-byte plaintext
// once encrypted by a session.
func EncryptedSize(clearSize int) int { return envelope.EncryptedSizeV5(clearSize) }

// DecryptedSize returns the plaintext size of a cipherSize-byte
// session-encrypted ciphertext.
func DecryptedSize(cipherSize int) int { return envelope.DecryptedSizeV5(cipherSize) }

// ExtractResourceID reads the resource id tagged on a session
// ciphertext without decrypting it — used by the key-resolution
// pipeline to find the KeyPublish addressing this resource.
func ExtractResourceID(ciphertext []byte) (crypto.SimpleResourceID, error) {
	return envelope.ExtractResourceIDV5(ciphertext)
}
