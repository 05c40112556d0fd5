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

package encsession

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptedSizeDecryptedSizeAreSymmetrical(t *testing.T) {
	require.Equal(t, 0, DecryptedSize(EncryptedSize(0)))
	require.Equal(t, 42, DecryptedSize(EncryptedSize(42)))
}

func TestEncryptDecryptEmptyBuffer(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ciphertext, err := s.Encrypt(nil)
	require.NoError(t, err)
	require.Len(t, ciphertext, EncryptedSize(0))

	plaintext, err := s.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Empty(t, plaintext)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	clear := []byte("this is the data to encrypt")
	ciphertext, err := s.Encrypt(clear)
	require.NoError(t, err)
	require.Len(t, ciphertext, EncryptedSize(len(clear)))

	plaintext, err := s.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, clear, plaintext)
}

func TestEncryptNeverGivesTheSameResultTwice(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	clear := []byte("this is the data to encrypt")
	first, err := s.Encrypt(clear)
	require.NoError(t, err)
	second, err := s.Encrypt(clear)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestDecryptRejectsCorruptedBuffer(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ciphertext, err := s.Encrypt([]byte("this is very secret"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1]++

	_, err = s.Decrypt(ciphertext)
	require.Error(t, err)
}

func TestResourceIDMatchesExtractedResourceID(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ciphertext, err := s.Encrypt([]byte("this is the data to encrypt"))
	require.NoError(t, err)

	extracted, err := ExtractResourceID(ciphertext)
	require.NoError(t, err)
	require.Equal(t, s.ResourceID(), extracted)
}

func TestResourceIDIsStableAcrossEncryptions(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ciphertext1, err := s.Encrypt([]byte("Rotating locomotion in living systems"))
	require.NoError(t, err)
	ciphertext2, err := s.Encrypt([]byte("Gondwanatheria, an enigmatic extinct group"))
	require.NoError(t, err)

	id1, err := ExtractResourceID(ciphertext1)
	require.NoError(t, err)
	id2, err := ExtractResourceID(ciphertext2)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestOpenReconstructsAnEquivalentSession(t *testing.T) {
	original, err := New()
	require.NoError(t, err)

	reopened := Open(original.ResourceID(), original.Key())

	ciphertext, err := original.Encrypt([]byte("shared secret"))
	require.NoError(t, err)
	plaintext, err := reopened.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, []byte("shared secret"), plaintext)
}
