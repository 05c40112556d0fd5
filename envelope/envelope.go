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
	"time"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/internal/metrics"
)

// StreamThreshold is the padded clear size at or above which Encrypt
// switches to the streaming V11 format instead of sealing single-shot.
const StreamThreshold = 1 << 20

// KeyFinder resolves the session key for a transparent-session
// ciphertext given its sessionId, used by Decrypt to dispatch v9/v10/v11.
type KeyFinder func(sessionID crypto.SimpleResourceID) (crypto.SymmetricKey, error)

// EncryptedSize returns the on-wire size of clearSize bytes of plaintext
// encrypted under the dispatch policy below, mirroring the encryptor's
// own size-estimation entry point so callers can pre-size buffers.
func EncryptedSize(clearSize int, step PaddingStep) int {
	if paddedSize(clearSize, step)-1 >= StreamThreshold {
		return v11EncryptedSize(clearSize, step, DefaultEncryptedChunkSize)
	}
	if step == PaddingOff {
		return EncryptedSizeV9(clearSize)
	}
	return EncryptedSizeV10(clearSize, step)
}

func v11EncryptedSize(clearSize int, step PaddingStep, encryptedChunkSize uint32) int {
	padded := paddedSize(clearSize, step) - 1
	if padded < clearSize {
		padded = clearSize
	}
	clearChunkSize := int(encryptedChunkSize) - v11ChunkOverhead
	chunks := padded / clearChunkSize
	lastClearChunkSize := padded % clearChunkSize
	return v11HeaderSize + chunks*int(encryptedChunkSize) + lastClearChunkSize + v11ChunkOverhead
}

// DecryptedSize dispatches on the version byte to compute the plaintext
// size a ciphertext decrypts to, without decrypting it.
func DecryptedSize(ciphertext []byte) (int, error) {
	if len(ciphertext) == 0 {
		return 0, ErrMalformed
	}
	switch ciphertext[0] {
	case Version2:
		return DecryptedSizeV2(len(ciphertext)), nil
	case Version3:
		return DecryptedSizeV3(len(ciphertext)), nil
	case Version5:
		return DecryptedSizeV5(len(ciphertext)), nil
	case Version9:
		return DecryptedSizeV9(len(ciphertext)), nil
	default:
		return 0, ErrUnsupportedVersion
	}
}

// ExtractResourceID dispatches on the version byte to read the resourceId
// or sessionId a ciphertext is addressed to, used by the key resolution
// pipeline (§4.6) before any key material is available.
func ExtractResourceID(ciphertext []byte) (crypto.SimpleResourceID, error) {
	if len(ciphertext) == 0 {
		return crypto.SimpleResourceID{}, ErrMalformed
	}
	switch ciphertext[0] {
	case Version5:
		return ExtractResourceIDV5(ciphertext)
	case Version7:
		var id crypto.SimpleResourceID
		if len(ciphertext) < 17 {
			return id, ErrMalformed
		}
		copy(id[:], ciphertext[1:17])
		return id, nil
	case Version8:
		return ExtractResourceIDV8(ciphertext)
	case Version9, Version10:
		return ExtractSessionIDV9(ciphertext)
	case Version4:
		if len(ciphertext) < 2 {
			return crypto.SimpleResourceID{}, ErrMalformed
		}
		// skip version + varint(encryptedChunkSize) to reach resourceId
		i := 1
		for ; i < len(ciphertext); i++ {
			if ciphertext[i]&0x80 == 0 {
				i++
				break
			}
		}
		if i+16 > len(ciphertext) {
			return crypto.SimpleResourceID{}, ErrMalformed
		}
		var id crypto.SimpleResourceID
		copy(id[:], ciphertext[i:i+16])
		return id, nil
	default:
		return crypto.SimpleResourceID{}, ErrUnsupportedVersion
	}
}

// DecryptSingleShot dispatches a non-streaming ciphertext (v2/v3/v5-v10)
// to its codec using key. iv is used only by v3 and v6, whose IV is not
// carried on the wire; v5-v10 treat key as the session key.
func DecryptSingleShot(key crypto.SymmetricKey, iv crypto.AeadIv, ciphertext []byte) ([]byte, error) {
	start := time.Now()
	plain, err := decryptSingleShot(key, iv, ciphertext)
	metrics.EnvelopeProcessingDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())

	version := "unknown"
	if len(ciphertext) > 0 {
		version = versionLabel(ciphertext[0])
	}
	metrics.EnvelopesDecoded.WithLabelValues(version, decodeStatus(err)).Inc()
	return plain, err
}

func decryptSingleShot(key crypto.SymmetricKey, iv crypto.AeadIv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrMalformed
	}
	switch ciphertext[0] {
	case Version2:
		return DecryptV2(key, ciphertext)
	case Version3:
		return DecryptV3(key, iv, ciphertext)
	case Version5:
		return DecryptV5(key, ciphertext)
	case Version6:
		return DecryptV6(key, iv, ciphertext)
	case Version7:
		return DecryptV7(key, ciphertext)
	case Version8:
		return DecryptV8(key, ciphertext)
	case Version9:
		return DecryptV9(key, ciphertext)
	case Version10:
		return DecryptV10(key, ciphertext)
	default:
		return nil, ErrUnsupportedVersion
	}
}

func versionLabel(version byte) string {
	switch version {
	case Version2:
		return "v2"
	case Version3:
		return "v3"
	case Version4:
		return "v4"
	case Version5:
		return "v5"
	case Version6:
		return "v6"
	case Version7:
		return "v7"
	case Version8:
		return "v8"
	case Version9:
		return "v9"
	case Version10:
		return "v10"
	case Version11:
		return "v11"
	default:
		return "unknown"
	}
}

func decodeStatus(err error) string {
	if err == nil {
		return "success"
	}
	return "decryption_failed"
}

// EncryptTransparentSession implements Encryptor::encrypt's dispatch
// policy for payloads small enough to seal in one shot: V9 when padding
// is off, V10 otherwise. Streaming (V11) is a separate entry point
// (NewEncryptorV11) since it produces an io.Reader rather than a buffer.
func EncryptTransparentSession(sessionKey crypto.SymmetricKey, sessionID crypto.SimpleResourceID, plaintext []byte, step PaddingStep) ([]byte, error) {
	start := time.Now()
	var (
		ciphertext []byte
		err        error
		version    string
	)
	if step == PaddingOff {
		version = "v9"
		ciphertext, err = EncryptV9(sessionKey, sessionID, plaintext)
	} else {
		version = "v10"
		ciphertext, err = EncryptV10(sessionKey, sessionID, plaintext, step)
	}
	metrics.EnvelopeProcessingDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.EnvelopesEncoded.WithLabelValues(version).Inc()
	metrics.EnvelopeSize.Observe(float64(len(ciphertext)))
	return ciphertext, nil
}

// ShouldStream reports whether a clearSize-byte payload under step must
// use the streaming V11 format rather than a single-shot V9/V10 seal.
func ShouldStream(clearSize int, step PaddingStep) bool {
	return paddedSize(clearSize, step)-1 >= StreamThreshold
}
