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

package envelope

import (
	"bufio"
	"io"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope/stream"
	"github.com/sage-x-project/tanker/serialize"
)

// Version4 is the streaming format: a sequence of self-describing chunks,
// each version(1)=4 | encryptedChunkSize(varint) | resourceId(16) |
// ivSeed(24) | aead(chunk, iv=derive_iv(ivSeed, chunkIndex)). Every chunk
// repeats the same resourceId/ivSeed/encryptedChunkSize; the chunk codec
// validates that repetition itself.
const Version4 byte = 4

// DefaultEncryptedChunkSize is the per-chunk size V11 streams use when
// Config leaves it unset, and the size EncryptedSize assumes for V11.
// NewEncryptorV4 always takes an explicit size.
const DefaultEncryptedChunkSize = 1 << 20

const v4MinChunkOverhead = 1 + 1 + 16 + 24 + 16 // version + 1-byte varint + resourceId + ivSeed + mac

// NewEncryptorV4 builds a streaming encoder over src, tagging every chunk
// with resourceID and a fresh random ivSeed.
func NewEncryptorV4(src io.Reader, key crypto.SymmetricKey, resourceID crypto.SimpleResourceID, encryptedChunkSize int) (*stream.Encoder, error) {
	var ivSeed crypto.AeadIv
	if err := crypto.RandomFill(ivSeed[:]); err != nil {
		return nil, err
	}
	codec, err := newV4ChunkCodec(key, resourceID, ivSeed, encryptedChunkSize)
	if err != nil {
		return nil, err
	}
	return stream.NewEncoder(src, codec), nil
}

// NewDecryptorV4 builds a streaming decoder over src. keyFinder resolves
// the symmetric key once the resourceId has been read from the first
// chunk's header.
func NewDecryptorV4(src io.Reader, keyFinder func(resourceID crypto.SimpleResourceID) (crypto.SymmetricKey, error)) *stream.Decoder {
	codec := &v4ChunkCodec{keyFinder: keyFinder}
	return stream.NewDecoder(src, codec)
}

type v4ChunkCodec struct {
	key                crypto.SymmetricKey
	resourceID         crypto.SimpleResourceID
	ivSeed             crypto.AeadIv
	encryptedChunkSize int
	keyFinder          func(crypto.SimpleResourceID) (crypto.SymmetricKey, error)
	headerSeen         bool
}

func newV4ChunkCodec(key crypto.SymmetricKey, resourceID crypto.SimpleResourceID, ivSeed crypto.AeadIv, encryptedChunkSize int) (*v4ChunkCodec, error) {
	if encryptedChunkSize < v4MinChunkOverhead {
		return nil, ErrMalformed
	}
	return &v4ChunkCodec{
		key:                key,
		resourceID:         resourceID,
		ivSeed:             ivSeed,
		encryptedChunkSize: encryptedChunkSize,
		headerSeen:         true,
	}, nil
}

func (c *v4ChunkCodec) ClearChunkSize() int {
	return c.encryptedChunkSize - v4HeaderSize(c.encryptedChunkSize) - 16
}

func v4HeaderSize(encryptedChunkSize int) int {
	w := serialize.NewWriter(0)
	w.PutByte(Version4)
	w.PutVarint(uint64(encryptedChunkSize))
	return w.Len() + 16 + 24
}

func (c *v4ChunkCodec) EncryptChunk(chunkIndex uint64, plaintext []byte) ([]byte, error) {
	iv := crypto.DeriveIv(c.ivSeed, chunkIndex)
	ct, err := crypto.AeadEncrypt(c.key, iv, plaintext, nil)
	if err != nil {
		return nil, err
	}
	w := serialize.NewWriter(0)
	w.PutByte(Version4)
	w.PutVarint(uint64(c.encryptedChunkSize))
	w.PutFixed(c.resourceID[:])
	w.PutFixed(c.ivSeed[:])
	out := w.Bytes()
	out = append(out, ct...)
	return out, nil
}

func (c *v4ChunkCodec) DecryptChunk(chunkIndex uint64, br *bufio.Reader) (plaintext []byte, final bool, err error) {
	version, err := br.ReadByte()
	if err != nil {
		if err == io.EOF && chunkIndex > 0 {
			return nil, true, io.EOF
		}
		return nil, false, ErrMalformed
	}
	if version != Version4 {
		return nil, false, ErrUnsupportedVersion
	}
	declaredSize, err := readVarintFrom(br)
	if err != nil {
		return nil, false, ErrMalformed
	}
	var resourceID crypto.SimpleResourceID
	if _, err := io.ReadFull(br, resourceID[:]); err != nil {
		return nil, false, ErrMalformed
	}
	var ivSeed crypto.AeadIv
	if _, err := io.ReadFull(br, ivSeed[:]); err != nil {
		return nil, false, ErrMalformed
	}

	if !c.headerSeen {
		c.resourceID = resourceID
		c.ivSeed = ivSeed
		c.encryptedChunkSize = int(declaredSize)
		c.headerSeen = true
		if c.keyFinder != nil {
			key, kerr := c.keyFinder(resourceID)
			if kerr != nil {
				return nil, false, kerr
			}
			c.key = key
		}
	} else if resourceID != c.resourceID || ivSeed != c.ivSeed || int(declaredSize) != c.encryptedChunkSize {
		return nil, false, ErrMalformed
	}
	if c.encryptedChunkSize < v4MinChunkOverhead {
		return nil, false, ErrMalformed
	}

	headerLen := 1 + varintLen(declaredSize) + 16 + 24
	bodyMax := c.encryptedChunkSize - headerLen
	body := make([]byte, bodyMax)
	n, rerr := io.ReadFull(br, body)
	if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return nil, false, ErrMalformed
	}
	body = body[:n]
	if len(body) < 16 {
		return nil, false, ErrMalformed
	}
	iv := crypto.DeriveIv(c.ivSeed, chunkIndex)
	pt, derr := crypto.AeadDecrypt(c.key, iv, body, nil)
	if derr != nil {
		return nil, false, derr
	}
	final := n < bodyMax
	return pt, final, nil
}

func readVarintFrom(br *bufio.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < 9; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrMalformed
}

func varintLen(v uint64) int {
	w := serialize.NewWriter(0)
	w.PutVarint(v)
	return w.Len()
}
