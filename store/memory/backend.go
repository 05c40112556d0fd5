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

// Package memory implements store.Backend with a mutex-guarded in-memory
// map, for tests and for short-lived processes with no disk of their own.
package memory

import (
	"context"
	"sync"

	"github.com/sage-x-project/tanker/store"
)

type entryKey struct {
	ns  store.Namespace
	key string
}

// Backend is an in-memory store.Backend. The zero value is not usable;
// construct with NewBackend.
type Backend struct {
	mu      sync.RWMutex
	entries map[entryKey][]byte
}

// NewBackend returns an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{entries: make(map[entryKey][]byte)}
}

func (b *Backend) Put(_ context.Context, ns store.Namespace, key []byte, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	b.entries[entryKey{ns, string(key)}] = stored
	return nil
}

func (b *Backend) Get(_ context.Context, ns store.Namespace, key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, found := b.entries[entryKey{ns, string(key)}]
	if !found {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (b *Backend) Delete(_ context.Context, ns store.Namespace, key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, entryKey{ns, string(key)})
	return nil
}

func (b *Backend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[entryKey][]byte)
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) Ping(_ context.Context) error { return nil }

var _ store.Backend = (*Backend)(nil)
