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
	"encoding/binary"
	"io"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope/stream"
)

// Version11 is the transparent-session streaming format. A fixed header
// (version | sessionId(16) | subkeySeed(16) | encryptedChunkSize(u32 LE))
// precedes a sequence of chunks, each paddingSize(u32 LE) |
// aead(chunk, iv=derive_iv(ivBase, chunkIndex), ad=macData) | mac(16).
// macData = version || sessionId || subkeySeed || encryptedChunkSize.
const Version11 byte = 11

const v11HeaderSize = 1 + 16 + 16 + 4
const v11ChunkOverhead = 4 + 16 // paddingSize + mac

// v11Header returns the fixed header every chunk's framing and MAC
// data is derived from.
func v11Header(sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, encryptedChunkSize uint32) []byte {
	h := make([]byte, 0, v11HeaderSize)
	h = append(h, Version11)
	h = append(h, sessionID[:]...)
	h = append(h, subkeySeed[:]...)
	h = binary.LittleEndian.AppendUint32(h, encryptedChunkSize)
	return h
}

func v11MacData(sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, encryptedChunkSize uint32) []byte {
	return v11Header(sessionID, subkeySeed, encryptedChunkSize)
}

// NewEncryptorV11 builds a streaming encoder applying padding step over
// the whole logical clearSize before splitting into chunks, matching the
// original encryptor's "padded size minus the marker byte" convention
// (v11 uses an explicit paddingSize field instead of a boundary byte).
func NewEncryptorV11(src io.Reader, clearSize int, sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, step PaddingStep, encryptedChunkSize uint32) (*stream.Encoder, []byte, error) {
	var subkeySeed crypto.SubkeySeed
	if err := crypto.RandomFill(subkeySeed[:]); err != nil {
		return nil, nil, err
	}
	subkey, err := deriveTransparentSubkey(sessionKey, subkeySeed)
	if err != nil {
		return nil, nil, err
	}
	totalPadded := paddedSize(clearSize, step) - 1 // no boundary byte needed; paddingSize field replaces it
	if totalPadded < clearSize {
		totalPadded = clearSize
	}
	header := v11Header(sessionID, subkeySeed, encryptedChunkSize)
	padder := newPaddedReader(src, totalPadded-clearSize)
	codec := &v11ChunkCodec{
		key:                subkey,
		ivBase:             transparentSessionIv(sessionID),
		macData:            v11MacData(sessionID, subkeySeed, encryptedChunkSize),
		encryptedChunkSize: int(encryptedChunkSize),
		padder:             padder,
	}
	return stream.NewEncoder(padder, codec), header, nil
}

// NewDecryptorV11 builds a streaming decoder. The header must already
// have been read from src by the caller (ParseV11Header) so the session
// key can be resolved first; src continues immediately after the header.
func NewDecryptorV11(src io.Reader, sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, encryptedChunkSize uint32, sessionKey crypto.SymmetricKey) (*stream.Decoder, error) {
	subkey, err := deriveTransparentSubkey(sessionKey, subkeySeed)
	if err != nil {
		return nil, err
	}
	codec := &v11ChunkCodec{
		key:                subkey,
		ivBase:             transparentSessionIv(sessionID),
		macData:            v11MacData(sessionID, subkeySeed, encryptedChunkSize),
		encryptedChunkSize: int(encryptedChunkSize),
	}
	return stream.NewDecoder(src, codec), nil
}

// ParseV11Header reads and validates the fixed header, returning its
// fields so the caller can resolve sessionKey before constructing a
// decoder with NewDecryptorV11.
func ParseV11Header(src io.Reader) (sessionID crypto.SimpleResourceID, subkeySeed crypto.SubkeySeed, encryptedChunkSize uint32, err error) {
	buf := make([]byte, v11HeaderSize)
	if _, err = io.ReadFull(src, buf); err != nil {
		return sessionID, subkeySeed, 0, ErrMalformed
	}
	if buf[0] != Version11 {
		return sessionID, subkeySeed, 0, ErrUnsupportedVersion
	}
	copy(sessionID[:], buf[1:17])
	copy(subkeySeed[:], buf[17:33])
	encryptedChunkSize = binary.LittleEndian.Uint32(buf[33:37])
	return sessionID, subkeySeed, encryptedChunkSize, nil
}

// ExtractResourceIDV11 reads the sessionId tag from a v11 stream's header
// without decrypting anything.
func ExtractResourceIDV11(src io.Reader) (crypto.SimpleResourceID, error) {
	sessionID, _, _, err := ParseV11Header(src)
	return sessionID, err
}

type v11ChunkCodec struct {
	key                crypto.SymmetricKey
	ivBase             crypto.AeadIv
	macData            []byte
	encryptedChunkSize int
	padder             *paddedReader
	paddingAccounted   int
}

func (c *v11ChunkCodec) ClearChunkSize() int { return c.encryptedChunkSize - v11ChunkOverhead }

func (c *v11ChunkCodec) EncryptChunk(chunkIndex uint64, plaintext []byte) ([]byte, error) {
	paddingSize := 0
	if c.padder != nil {
		total := c.padder.totalPaddingEmitted()
		paddingSize = total - c.paddingAccounted
		c.paddingAccounted = total
	}
	iv := crypto.DeriveIv(c.ivBase, chunkIndex)
	ct, err := crypto.AeadEncrypt(c.key, iv, plaintext, c.macData)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+len(ct))
	out = binary.LittleEndian.AppendUint32(out, uint32(paddingSize))
	out = append(out, ct...)
	return out, nil
}

func (c *v11ChunkCodec) DecryptChunk(chunkIndex uint64, br *bufio.Reader) ([]byte, bool, error) {
	raw := make([]byte, c.encryptedChunkSize)
	n, rerr := io.ReadFull(br, raw)
	if n == 0 {
		return nil, true, io.EOF
	}
	if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return nil, false, ErrMalformed
	}
	raw = raw[:n]
	if len(raw) < v11ChunkOverhead {
		return nil, false, ErrMalformed
	}
	paddingSize := binary.LittleEndian.Uint32(raw[:4])
	iv := crypto.DeriveIv(c.ivBase, chunkIndex)
	pt, derr := crypto.AeadDecrypt(c.key, iv, raw[4:], c.macData)
	if derr != nil {
		return nil, false, derr
	}
	if int(paddingSize) > len(pt) {
		return nil, false, ErrMalformed
	}
	pt = pt[:len(pt)-int(paddingSize)]
	final := n < c.encryptedChunkSize
	return pt, final, nil
}

// paddedReader wraps a real plaintext source and, once it is exhausted,
// synthesizes totalPadding zero bytes before finally returning io.EOF -
// letting the generic stream.Encoder stay oblivious to where real data
// ends and virtual padding begins. v11ChunkCodec queries
// totalPaddingEmitted after each chunk read to compute that chunk's
// paddingSize field.
type paddedReader struct {
	src           io.Reader
	totalPadding  int
	padEmitted    int
	realExhausted bool
}

func newPaddedReader(src io.Reader, totalPadding int) *paddedReader {
	if totalPadding < 0 {
		totalPadding = 0
	}
	return &paddedReader{src: src, totalPadding: totalPadding}
}

func (r *paddedReader) Read(p []byte) (int, error) {
	if !r.realExhausted {
		n, err := r.src.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			r.realExhausted = true
		} else if err != nil {
			return 0, err
		} else {
			return 0, nil
		}
	}
	if r.padEmitted >= r.totalPadding {
		return 0, io.EOF
	}
	remaining := r.totalPadding - r.padEmitted
	n := len(p)
	if n > remaining {
		n = remaining
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	r.padEmitted += n
	return n, nil
}

func (r *paddedReader) totalPaddingEmitted() int { return r.padEmitted }
