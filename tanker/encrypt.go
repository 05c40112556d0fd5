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

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope"
	"github.com/sage-x-project/tanker/group"
	"github.com/sage-x-project/tanker/transport"
)

// ShareOptions lists the additional users and groups a resource key
// should be published to, on top of the encrypting user's own key
// (encrypt/share never need to be asked to share with yourself).
type ShareOptions struct {
	Users  []crypto.UserID
	Groups []crypto.GroupID
}

// EncryptOptions configures a single Encrypt call.
type EncryptOptions struct {
	ShareOptions
	// Padding selects the clear-data padding policy; the zero value is
	// envelope.PaddingAuto.
	Padding envelope.PaddingStep
}

// Encrypt seals plaintext under a freshly generated resource key,
// publishing that key to the local user and every recipient named in
// opts in the same network transaction (§4.9's all-or-nothing
// key-publish guarantee). The format version is chosen by
// envelope.EncryptTransparentSession's size/padding policy; payloads at
// or above envelope.StreamThreshold should use EncryptStream instead.
func (c *Client) Encrypt(ctx context.Context, plaintext []byte, opts EncryptOptions) ([]byte, error) {
	var resourceID crypto.SimpleResourceID
	if err := crypto.RandomFill(resourceID[:]); err != nil {
		return nil, wrap(InternalError, "Client.Encrypt", err)
	}
	var key crypto.SymmetricKey
	if err := crypto.RandomFill(key[:]); err != nil {
		return nil, wrap(InternalError, "Client.Encrypt", err)
	}

	ciphertext, err := envelope.EncryptTransparentSession(key, resourceID, plaintext, opts.Padding)
	if err != nil {
		return nil, wrap(InternalError, "Client.Encrypt", err)
	}

	if err := c.publishResourceKey(ctx, resourceID, key, opts.ShareOptions); err != nil {
		return nil, err
	}
	return ciphertext, nil
}

// Decrypt reverses Encrypt (V9/V10) and also opens V5, V7 and V8, resolving
// the resource key through the accessor's cache-then-coalesced-fetch
// pipeline (§4.6) before opening the seal. V2, V3 and V6 ciphertexts carry
// no resource id ExtractResourceID can read and are rejected.
func (c *Client) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	resourceID, err := envelope.ExtractResourceID(ciphertext)
	if err != nil {
		return nil, wrap(InvalidArgument, "Client.Decrypt", err)
	}

	keys, err := c.resourceKeys.FindKey(ctx, []crypto.SimpleResourceID{resourceID})
	if err != nil {
		return nil, wrap(NetworkError, "Client.Decrypt", err)
	}
	key, ok := keys[resourceID]
	if !ok {
		return nil, wrap(DecryptionFailed, "Client.Decrypt", fmt.Errorf("no key publish found for this resource"))
	}

	plaintext, err := envelope.DecryptSingleShot(key, crypto.AeadIv{}, ciphertext)
	if err != nil {
		return nil, wrap(DecryptionFailed, "Client.Decrypt", err)
	}
	return plaintext, nil
}

// Share publishes the resource key of each already-encrypted resource
// in resourceIDs to the users and groups named in opts, without
// re-encrypting anything. Every resource must already be readable by
// the local user (Share only adds recipients, never recovers a key
// this session does not hold).
func (c *Client) Share(ctx context.Context, resourceIDs []crypto.SimpleResourceID, opts ShareOptions) error {
	keys, err := c.resourceKeys.FindKey(ctx, resourceIDs)
	if err != nil {
		return wrap(NetworkError, "Client.Share", err)
	}
	for _, id := range resourceIDs {
		key, ok := keys[id]
		if !ok {
			return wrap(InvalidArgument, "Client.Share", fmt.Errorf("no key publish found for resource %x", id))
		}
		if err := c.publishResourceKey(ctx, id, key, opts); err != nil {
			return err
		}
	}
	return nil
}

// publishResourceKey seals key for the local user plus every recipient
// in opts and submits the resulting KeyPublish actions as one
// PublishResourceKeys call.
func (c *Client) publishResourceKey(ctx context.Context, resourceID crypto.SimpleResourceID, key crypto.SymmetricKey, opts ShareOptions) error {
	var req transport.PublishResourceKeysRequest

	selfPub, ok := c.users.UserCurrentPublicEncryptionKey(c.userID)
	if !ok {
		return wrap(PreconditionFailed, "Client.publishResourceKey", fmt.Errorf("local user has no user key yet"))
	}
	a, err := c.keyPublishToUser(resourceID, key, selfPub)
	if err != nil {
		return wrap(InternalError, "Client.publishResourceKey", err)
	}
	req.ToUser = append(req.ToUser, a)

	for _, userID := range opts.Users {
		pub, ok := c.users.UserCurrentPublicEncryptionKey(userID)
		if !ok {
			return wrap(InvalidArgument, "Client.publishResourceKey", fmt.Errorf("unknown recipient user %x", userID))
		}
		a, err := c.keyPublishToUser(resourceID, key, pub)
		if err != nil {
			return wrap(InternalError, "Client.publishResourceKey", err)
		}
		req.ToUser = append(req.ToUser, a)
	}

	for _, groupID := range opts.Groups {
		pub, ok := c.groupPublicEncryptionKey(groupID)
		if !ok {
			return wrap(InvalidArgument, "Client.publishResourceKey", fmt.Errorf("unknown recipient group %x", groupID))
		}
		a, err := c.keyPublishToUserGroup(resourceID, key, pub)
		if err != nil {
			return wrap(InternalError, "Client.publishResourceKey", err)
		}
		req.ToUserGroup = append(req.ToUserGroup, a)
	}

	if err := c.cfg.Transport.PublishResourceKeys(ctx, req); err != nil {
		return wrap(NetworkError, "Client.publishResourceKey", err)
	}
	return nil
}

func (c *Client) groupPublicEncryptionKey(groupID crypto.GroupID) (crypto.PublicEncryptionKey, bool) {
	g, ok := c.groups.Get(groupID)
	if !ok {
		return crypto.PublicEncryptionKey{}, false
	}
	switch v := g.(type) {
	case *group.InternalGroup:
		return v.EncryptionKeyPair.Public, true
	case *group.ExternalGroup:
		return v.PublicEncryptionKey, true
	default:
		return crypto.PublicEncryptionKey{}, false
	}
}

func (c *Client) keyPublishToUser(resourceID crypto.SimpleResourceID, key crypto.SymmetricKey, recipient crypto.PublicEncryptionKey) (action.Action, error) {
	sealed, err := crypto.SealEncrypt(key[:], recipient)
	if err != nil {
		return action.Action{}, err
	}
	var sealedFixed crypto.SealedSymmetricKey
	copy(sealedFixed[:], sealed)

	a := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.deviceID),
		Payload: action.KeyPublishToUser{
			RecipientPublicEncryptionKey: recipient,
			ResourceID:                   resourceID,
			SealedSymmetricKey:           sealedFixed,
		},
	}
	a.Sign(c.deviceKeys.SignatureKeyPair.Private)
	return a, nil
}

func (c *Client) keyPublishToUserGroup(resourceID crypto.SimpleResourceID, key crypto.SymmetricKey, recipient crypto.PublicEncryptionKey) (action.Action, error) {
	sealed, err := crypto.SealEncrypt(key[:], recipient)
	if err != nil {
		return action.Action{}, err
	}
	var sealedFixed crypto.SealedSymmetricKey
	copy(sealedFixed[:], sealed)

	a := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.deviceID),
		Payload: action.KeyPublishToUserGroup{
			RecipientPublicEncryptionKey: recipient,
			ResourceID:                   resourceID,
			SealedSymmetricKey:           sealedFixed,
		},
	}
	a.Sign(c.deviceKeys.SignatureKeyPair.Private)
	return a, nil
}
