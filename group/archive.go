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

package group

import (
	"sync"

	"github.com/sage-x-project/tanker/crypto"
)

// Archive retains superseded group encryption key pairs, indexed by their
// public key, so resources key-published under a group's public key
// before a rotation stay decryptable after the group's chain moves on to
// a new InternalGroup.
type Archive struct {
	mu        sync.RWMutex
	keysByPub map[crypto.PublicEncryptionKey]crypto.EncryptionKeyPair
}

// NewArchive builds an empty Archive.
func NewArchive() *Archive {
	return &Archive{keysByPub: make(map[crypto.PublicEncryptionKey]crypto.EncryptionKeyPair)}
}

// Put records kp so a later Find(kp.Public) recovers it even after the
// group's current key pair has moved on.
func (a *Archive) Put(kp crypto.EncryptionKeyPair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keysByPub[kp.Public] = kp
}

// Find returns the archived key pair for pub, if any was ever recorded.
func (a *Archive) Find(pub crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	kp, ok := a.keysByPub[pub]
	return kp, ok
}
