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

package store

import "context"

// deviceDataKey is the fixed blob key the single DeviceData slot is
// stored under, in its own namespace so it can never collide with a
// Record key an application supplies.
var deviceDataKey = []byte("device_data")

const namespaceDeviceData Namespace = 0

// Backend is the raw blob storage a Store is built on: opaque byte
// values addressed by a namespaced key, with no knowledge of what they
// encode or that they are encrypted. memory.Backend and postgres.Backend
// implement this; EncryptedStore is the only thing that talks to it.
type Backend interface {
	Put(ctx context.Context, ns Namespace, key []byte, value []byte) error
	Get(ctx context.Context, ns Namespace, key []byte) (value []byte, found bool, err error)
	Delete(ctx context.Context, ns Namespace, key []byte) error
	Clear(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error
}
