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

package accessor

import (
	"sync"

	"github.com/sage-x-project/tanker/crypto"
)

// keyCache is the in-memory front of ResourceKeyAccessor, standing in
// for ResourceKeys::Store's local cache: once a resource key has been
// decrypted once, it never needs a second round trip.
type keyCache struct {
	mu   sync.RWMutex
	keys map[crypto.SimpleResourceID]crypto.SymmetricKey
}

func newKeyCache() *keyCache {
	return &keyCache{keys: make(map[crypto.SimpleResourceID]crypto.SymmetricKey)}
}

func (c *keyCache) get(id crypto.SimpleResourceID) (crypto.SymmetricKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.keys[id]
	return k, ok
}

func (c *keyCache) put(id crypto.SimpleResourceID, key crypto.SymmetricKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[id] = key
}
