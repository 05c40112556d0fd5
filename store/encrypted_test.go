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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/identity"
)

// memBackend is a minimal Backend used only so this package's tests do
// not need to import its own memory subpackage (which in turn imports
// this package).
type memBackend struct {
	values map[string][]byte
}

func newMemBackend() *memBackend { return &memBackend{values: map[string][]byte{}} }

func memKey(ns Namespace, key []byte) string { return string(byte(ns)) + string(key) }

func (b *memBackend) Put(_ context.Context, ns Namespace, key, value []byte) error {
	b.values[memKey(ns, key)] = append([]byte{}, value...)
	return nil
}

func (b *memBackend) Get(_ context.Context, ns Namespace, key []byte) ([]byte, bool, error) {
	v, ok := b.values[memKey(ns, key)]
	return v, ok, nil
}

func (b *memBackend) Delete(_ context.Context, ns Namespace, key []byte) error {
	delete(b.values, memKey(ns, key))
	return nil
}

func (b *memBackend) Clear(context.Context) error {
	b.values = map[string][]byte{}
	return nil
}

func (b *memBackend) Close() error              { return nil }
func (b *memBackend) Ping(context.Context) error { return nil }

func randomSecret(t *testing.T) identity.UserSecret {
	t.Helper()
	var s identity.UserSecret
	require.NoError(t, crypto.RandomFill(s[:]))
	return s
}

func TestEncryptedStoreDeviceDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := Open(newMemBackend(), randomSecret(t))

	_, found, err := s.GetDeviceData(ctx)
	require.NoError(t, err)
	require.False(t, found)

	d := sampleDeviceData(t)
	require.NoError(t, s.PutDeviceData(ctx, d))

	back, found, err := s.GetDeviceData(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, d.DeviceID, back.DeviceID)
	require.Equal(t, d.UserKeyPairs, back.UserKeyPairs)
}

func TestEncryptedStoreRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	writer := Open(backend, randomSecret(t))
	require.NoError(t, writer.PutDeviceData(ctx, sampleDeviceData(t)))

	reader := Open(backend, randomSecret(t))
	_, _, err := reader.GetDeviceData(ctx)
	require.Error(t, err)
}

func TestEncryptedStoreRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	s := Open(newMemBackend(), randomSecret(t))

	key := []byte("resource-1")
	_, found, err := s.GetRecord(ctx, NamespaceResourceKey, key)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.PutRecord(ctx, NamespaceResourceKey, key, []byte("symmetric-key-bytes")))
	value, found, err := s.GetRecord(ctx, NamespaceResourceKey, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("symmetric-key-bytes"), value)

	require.NoError(t, s.DeleteRecord(ctx, NamespaceResourceKey, key))
	_, found, err = s.GetRecord(ctx, NamespaceResourceKey, key)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEncryptedStoreNukeClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := Open(newMemBackend(), randomSecret(t))

	require.NoError(t, s.PutDeviceData(ctx, sampleDeviceData(t)))
	require.NoError(t, s.PutRecord(ctx, NamespaceGroup, []byte("g1"), []byte("metadata")))

	require.NoError(t, s.Nuke(ctx))

	_, found, err := s.GetDeviceData(ctx)
	require.NoError(t, err)
	require.False(t, found)
	_, found, err = s.GetRecord(ctx, NamespaceGroup, []byte("g1"))
	require.NoError(t, err)
	require.False(t, found)
}
