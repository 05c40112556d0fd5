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

package tanker

import (
	"context"
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/encsession"
)

// EncryptionSession wraps an encsession.Session with the client needed
// to publish and resolve its key, so a caller can seal many payloads
// under one resource id without a key-resolution round trip per call.
type EncryptionSession struct {
	c       *Client
	session *encsession.Session
}

// CreateEncryptionSession creates a new session and publishes its key
// to the local user plus every recipient in opts, in one network
// transaction (the same batching publishResourceKey gives Encrypt).
func (c *Client) CreateEncryptionSession(ctx context.Context, opts ShareOptions) (*EncryptionSession, error) {
	s, err := encsession.New()
	if err != nil {
		return nil, wrap(InternalError, "Client.CreateEncryptionSession", err)
	}
	if err := c.publishResourceKey(ctx, s.ResourceID(), s.Key(), opts); err != nil {
		return nil, err
	}
	return &EncryptionSession{c: c, session: s}, nil
}

// OpenEncryptionSession reconstructs a session for a resource whose key
// this client can already resolve (typically because it was the
// recipient of a KeyPublish naming that resource).
func (c *Client) OpenEncryptionSession(ctx context.Context, resourceID crypto.SimpleResourceID) (*EncryptionSession, error) {
	keys, err := c.resourceKeys.FindKey(ctx, []crypto.SimpleResourceID{resourceID})
	if err != nil {
		return nil, wrap(NetworkError, "Client.OpenEncryptionSession", err)
	}
	key, ok := keys[resourceID]
	if !ok {
		return nil, wrap(DecryptionFailed, "Client.OpenEncryptionSession", fmt.Errorf("no key publish found for this resource"))
	}
	return &EncryptionSession{c: c, session: encsession.Open(resourceID, key)}, nil
}

// ResourceID returns the id every ciphertext this session produces is
// tagged with.
func (s *EncryptionSession) ResourceID() crypto.SimpleResourceID { return s.session.ResourceID() }

// Encrypt seals plaintext under the session's key.
func (s *EncryptionSession) Encrypt(plaintext []byte) ([]byte, error) {
	ciphertext, err := s.session.Encrypt(plaintext)
	if err != nil {
		return nil, wrap(InternalError, "EncryptionSession.Encrypt", err)
	}
	return ciphertext, nil
}

// Decrypt reverses Encrypt.
func (s *EncryptionSession) Decrypt(ciphertext []byte) ([]byte, error) {
	plaintext, err := s.session.Decrypt(ciphertext)
	if err != nil {
		return nil, wrap(DecryptionFailed, "EncryptionSession.Decrypt", err)
	}
	return plaintext, nil
}

// Share publishes this session's key to additional users and groups
// beyond those named when the session was created.
func (s *EncryptionSession) Share(ctx context.Context, opts ShareOptions) error {
	return s.c.publishResourceKey(ctx, s.session.ResourceID(), s.session.Key(), opts)
}
