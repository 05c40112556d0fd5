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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/store"
)

func TestBackendPutGetDelete(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	_, found, err := b.Get(ctx, store.NamespaceResourceKey, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, b.Put(ctx, store.NamespaceResourceKey, []byte("k"), []byte("v1")))
	value, found, err := b.Get(ctx, store.NamespaceResourceKey, []byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, b.Put(ctx, store.NamespaceResourceKey, []byte("k"), []byte("v2")))
	value, _, err = b.Get(ctx, store.NamespaceResourceKey, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, b.Delete(ctx, store.NamespaceResourceKey, []byte("k")))
	_, found, err = b.Get(ctx, store.NamespaceResourceKey, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBackendNamespacesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	require.NoError(t, b.Put(ctx, store.NamespaceResourceKey, []byte("id"), []byte("resource-key-value")))
	require.NoError(t, b.Put(ctx, store.NamespaceGroup, []byte("id"), []byte("group-value")))

	resourceValue, _, err := b.Get(ctx, store.NamespaceResourceKey, []byte("id"))
	require.NoError(t, err)
	groupValue, _, err := b.Get(ctx, store.NamespaceGroup, []byte("id"))
	require.NoError(t, err)

	require.Equal(t, []byte("resource-key-value"), resourceValue)
	require.Equal(t, []byte("group-value"), groupValue)
}

func TestBackendClear(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()
	require.NoError(t, b.Put(ctx, store.NamespaceResourceKey, []byte("k"), []byte("v")))
	require.NoError(t, b.Clear(ctx))

	_, found, err := b.Get(ctx, store.NamespaceResourceKey, []byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBackendPing(t *testing.T) {
	require.NoError(t, NewBackend().Ping(context.Background()))
}
