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
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/crypto"
)

func TestV4StreamRoundTripMultiChunk(t *testing.T) {
	key := randSymmetricKey(t)
	resourceID := randResourceID(t)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 1000) // spans several small chunks

	const chunkSize = 128
	enc, err := NewEncryptorV4(bytes.NewReader(plaintext), key, resourceID, chunkSize)
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(enc)
	require.NoError(t, err)

	dec := NewDecryptorV4(bytes.NewReader(ciphertext), func(id crypto.SimpleResourceID) (crypto.SymmetricKey, error) {
		require.Equal(t, resourceID, id)
		return key, nil
	})
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestV4StreamRoundTripExactBoundary(t *testing.T) {
	key := randSymmetricKey(t)
	resourceID := randResourceID(t)
	const chunkSize = 64
	codec, err := newV4ChunkCodec(key, resourceID, crypto.AeadIv{}, chunkSize)
	require.NoError(t, err)
	plaintext := bytes.Repeat([]byte{0x42}, codec.ClearChunkSize()*3)

	enc, err := NewEncryptorV4(bytes.NewReader(plaintext), key, resourceID, chunkSize)
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(enc)
	require.NoError(t, err)

	dec := NewDecryptorV4(bytes.NewReader(ciphertext), func(crypto.SimpleResourceID) (crypto.SymmetricKey, error) {
		return key, nil
	})
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestV4StreamRejectsWrongKey(t *testing.T) {
	key := randSymmetricKey(t)
	resourceID := randResourceID(t)
	enc, err := NewEncryptorV4(bytes.NewReader([]byte("some data to stream")), key, resourceID, 128)
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(enc)
	require.NoError(t, err)

	wrongKey := randSymmetricKey(t)
	dec := NewDecryptorV4(bytes.NewReader(ciphertext), func(crypto.SimpleResourceID) (crypto.SymmetricKey, error) {
		return wrongKey, nil
	})
	_, err = io.ReadAll(dec)
	require.Error(t, err)
}

func TestV4StreamRejectsTamperedTrailer(t *testing.T) {
	key := randSymmetricKey(t)
	resourceID := randResourceID(t)
	enc, err := NewEncryptorV4(bytes.NewReader(bytes.Repeat([]byte("x"), 500)), key, resourceID, 128)
	require.NoError(t, err)
	ciphertext, err := io.ReadAll(enc)
	require.NoError(t, err)

	ciphertext[len(ciphertext)-1] ^= 0xff
	dec := NewDecryptorV4(bytes.NewReader(ciphertext), func(crypto.SimpleResourceID) (crypto.SymmetricKey, error) {
		return key, nil
	})
	_, err = io.ReadAll(dec)
	require.Error(t, err)
}

func TestV11StreamRoundTrip(t *testing.T) {
	sessionKey := randSymmetricKey(t)
	sessionID := randResourceID(t)
	plaintext := bytes.Repeat([]byte("transparent session streaming payload "), 200)

	const chunkSize = 256
	enc, header, err := NewEncryptorV11(bytes.NewReader(plaintext), len(plaintext), sessionKey, sessionID, PaddingOff, chunkSize)
	require.NoError(t, err)
	body, err := io.ReadAll(enc)
	require.NoError(t, err)

	full := append(append([]byte{}, header...), body...)

	gotSessionID, subkeySeed, gotChunkSize, err := ParseV11Header(bytes.NewReader(full))
	require.NoError(t, err)
	require.Equal(t, sessionID, gotSessionID)
	require.EqualValues(t, chunkSize, gotChunkSize)

	dec, err := NewDecryptorV11(bytes.NewReader(full[v11HeaderSize:]), gotSessionID, subkeySeed, gotChunkSize, sessionKey)
	require.NoError(t, err)
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestV11StreamWithPaddingRoundTrip(t *testing.T) {
	sessionKey := randSymmetricKey(t)
	sessionID := randResourceID(t)
	plaintext := bytes.Repeat([]byte{0x07}, 777)

	const chunkSize = 128
	enc, header, err := NewEncryptorV11(bytes.NewReader(plaintext), len(plaintext), sessionKey, sessionID, PaddingStep(64), chunkSize)
	require.NoError(t, err)
	body, err := io.ReadAll(enc)
	require.NoError(t, err)

	full := append(append([]byte{}, header...), body...)
	gotSessionID, subkeySeed, gotChunkSize, err := ParseV11Header(bytes.NewReader(full))
	require.NoError(t, err)

	dec, err := NewDecryptorV11(bytes.NewReader(full[v11HeaderSize:]), gotSessionID, subkeySeed, gotChunkSize, sessionKey)
	require.NoError(t, err)
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestV11ExtractResourceID(t *testing.T) {
	sessionKey := randSymmetricKey(t)
	sessionID := randResourceID(t)
	enc, header, err := NewEncryptorV11(bytes.NewReader([]byte("x")), 1, sessionKey, sessionID, PaddingOff, 256)
	require.NoError(t, err)
	_, err = io.ReadAll(enc)
	require.NoError(t, err)

	gotID, err := ExtractResourceIDV11(bytes.NewReader(header))
	require.NoError(t, err)
	require.Equal(t, sessionID, gotID)
}

func TestV11StreamRejectsWrongSessionKey(t *testing.T) {
	sessionKey := randSymmetricKey(t)
	sessionID := randResourceID(t)
	enc, header, err := NewEncryptorV11(bytes.NewReader(bytes.Repeat([]byte("y"), 400)), 400, sessionKey, sessionID, PaddingOff, 256)
	require.NoError(t, err)
	body, err := io.ReadAll(enc)
	require.NoError(t, err)
	full := append(append([]byte{}, header...), body...)

	gotSessionID, subkeySeed, gotChunkSize, err := ParseV11Header(bytes.NewReader(full))
	require.NoError(t, err)

	wrongKey := randSymmetricKey(t)
	dec, err := NewDecryptorV11(bytes.NewReader(full[v11HeaderSize:]), gotSessionID, subkeySeed, gotChunkSize, wrongKey)
	require.NoError(t, err)
	_, err = io.ReadAll(dec)
	require.Error(t, err)
}

func TestPaddedReaderSynthesizesZeros(t *testing.T) {
	src := bytes.NewReader([]byte("real"))
	pr := newPaddedReader(src, 6)

	buf := make([]byte, 20)
	n, err := io.ReadFull(pr, buf[:4])
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "real", string(buf[:4]))

	rest, err := io.ReadAll(pr)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 6), rest)
	require.Equal(t, 6, pr.totalPaddingEmitted())
}
