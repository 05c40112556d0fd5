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
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope"
)

// EncryptStream wraps src in the V11 chunked format, publishing its
// resource key up front (before the first byte is ever read) the same
// way Encrypt does for single-shot payloads. clearSize is the total
// logical plaintext length src will yield, needed to compute the
// padded size before any chunk is emitted.
func (c *Client) EncryptStream(ctx context.Context, src io.Reader, clearSize int, opts EncryptOptions) (io.Reader, error) {
	var resourceID crypto.SimpleResourceID
	if err := crypto.RandomFill(resourceID[:]); err != nil {
		return nil, wrap(InternalError, "Client.EncryptStream", err)
	}
	var key crypto.SymmetricKey
	if err := crypto.RandomFill(key[:]); err != nil {
		return nil, wrap(InternalError, "Client.EncryptStream", err)
	}

	encoder, header, err := envelope.NewEncryptorV11(src, clearSize, key, resourceID, opts.Padding, c.cfg.EncryptedChunkSize)
	if err != nil {
		return nil, wrap(InternalError, "Client.EncryptStream", err)
	}

	if err := c.publishResourceKey(ctx, resourceID, key, opts.ShareOptions); err != nil {
		return nil, err
	}
	return io.MultiReader(bytes.NewReader(header), encoder), nil
}

// DecryptStream reverses EncryptStream: it reads the V11 header off src
// to learn the resource id, resolves its key through the same pipeline
// Decrypt uses, and returns a reader yielding the recovered plaintext.
func (c *Client) DecryptStream(ctx context.Context, src io.Reader) (io.Reader, error) {
	resourceID, subkeySeed, encryptedChunkSize, err := envelope.ParseV11Header(src)
	if err != nil {
		return nil, wrap(InvalidArgument, "Client.DecryptStream", err)
	}

	keys, err := c.resourceKeys.FindKey(ctx, []crypto.SimpleResourceID{resourceID})
	if err != nil {
		return nil, wrap(NetworkError, "Client.DecryptStream", err)
	}
	key, ok := keys[resourceID]
	if !ok {
		return nil, wrap(DecryptionFailed, "Client.DecryptStream", fmt.Errorf("no key publish found for this resource"))
	}

	decoder, err := envelope.NewDecryptorV11(src, resourceID, subkeySeed, encryptedChunkSize, key)
	if err != nil {
		return nil, wrap(InternalError, "Client.DecryptStream", err)
	}
	return decoder, nil
}
