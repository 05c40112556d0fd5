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
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/identity"
)

// EncryptedStore implements Store over a Backend, encrypting every value
// under the owning identity's user secret before it reaches the backend
// and decrypting every value read back from it. The backend never
// observes plaintext DeviceData or Record contents.
type EncryptedStore struct {
	backend Backend
	key     crypto.SymmetricKey
}

// Open wraps backend with encryption under secret. The same secret must
// be supplied on every subsequent open of the same backend; a mismatched
// secret surfaces as decrypt failures on first read, not at Open time.
func Open(backend Backend, secret identity.UserSecret) *EncryptedStore {
	return &EncryptedStore{backend: backend, key: crypto.SymmetricKey(secret)}
}

func (s *EncryptedStore) seal(plaintext []byte) ([]byte, error) {
	var iv crypto.AeadIv
	if err := crypto.RandomFill(iv[:]); err != nil {
		return nil, fmt.Errorf("store: generate iv: %w", err)
	}
	ciphertext, err := crypto.AeadEncrypt(s.key, iv, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("store: encrypt: %w", err)
	}
	return append(iv[:], ciphertext...), nil
}

func (s *EncryptedStore) open(sealed []byte) ([]byte, error) {
	var iv crypto.AeadIv
	if len(sealed) < len(iv) {
		return nil, fmt.Errorf("store: sealed value shorter than iv")
	}
	copy(iv[:], sealed[:len(iv)])
	plaintext, err := crypto.AeadDecrypt(s.key, iv, sealed[len(iv):], nil)
	if err != nil {
		return nil, fmt.Errorf("store: decrypt: %w", err)
	}
	return plaintext, nil
}

func (s *EncryptedStore) PutDeviceData(ctx context.Context, data *DeviceData) error {
	if data.Version == 0 {
		data.Version = DeviceDataVersion
	}
	sealed, err := s.seal(data.Encode())
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, namespaceDeviceData, deviceDataKey, sealed)
}

func (s *EncryptedStore) GetDeviceData(ctx context.Context) (*DeviceData, bool, error) {
	sealed, found, err := s.backend.Get(ctx, namespaceDeviceData, deviceDataKey)
	if err != nil || !found {
		return nil, found, err
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return nil, false, err
	}
	data, err := DecodeDeviceData(plaintext)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *EncryptedStore) PutRecord(ctx context.Context, ns Namespace, key, value []byte) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, ns, key, sealed)
}

func (s *EncryptedStore) GetRecord(ctx context.Context, ns Namespace, key []byte) ([]byte, bool, error) {
	sealed, found, err := s.backend.Get(ctx, ns, key)
	if err != nil || !found {
		return nil, found, err
	}
	plaintext, err := s.open(sealed)
	if err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

func (s *EncryptedStore) DeleteRecord(ctx context.Context, ns Namespace, key []byte) error {
	return s.backend.Delete(ctx, ns, key)
}

func (s *EncryptedStore) Nuke(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

func (s *EncryptedStore) Close() error { return s.backend.Close() }

func (s *EncryptedStore) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

var _ Store = (*EncryptedStore)(nil)
