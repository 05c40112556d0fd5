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

package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAeadRoundTrip(t *testing.T) {
	var key SymmetricKey
	require.NoError(t, RandomFill(key[:]))
	var iv AeadIv
	require.NoError(t, RandomFill(iv[:]))

	plaintext := []byte("this is a secret")
	ad := []byte("associated")

	ct, err := AeadEncrypt(key, iv, plaintext, ad)
	require.NoError(t, err)
	require.Len(t, ct, len(plaintext)+16)

	pt, err := AeadDecrypt(key, iv, ct, ad)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestAeadDecryptFailsOnTamper(t *testing.T) {
	var key SymmetricKey
	require.NoError(t, RandomFill(key[:]))
	var iv AeadIv
	require.NoError(t, RandomFill(iv[:]))

	ct, err := AeadEncrypt(key, iv, []byte("hello"), nil)
	require.NoError(t, err)
	ct[0] ^= 0xFF

	_, err = AeadDecrypt(key, iv, ct, nil)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestAeadDecryptFailsOnTruncation(t *testing.T) {
	var key SymmetricKey
	_, err := AeadDecrypt(key, AeadIv{}, []byte("short"), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := MakeSignatureKeyPair()
	require.NoError(t, err)

	msg := []byte("device creation payload")
	sig := Sign(msg, kp.Private)
	require.True(t, Verify(msg, sig, kp.Public))

	sig[0] ^= 0xFF
	require.False(t, Verify(msg, sig, kp.Public))
}

func TestBoxRoundTrip(t *testing.T) {
	sender, err := MakeEncryptionKeyPair()
	require.NoError(t, err)
	recipient, err := MakeEncryptionKeyPair()
	require.NoError(t, err)

	msg := []byte("shared secret payload")
	ct, err := BoxEncrypt(msg, sender.Private, recipient.Public)
	require.NoError(t, err)

	pt, err := BoxDecrypt(ct, recipient.Private, sender.Public)
	require.NoError(t, err)
	require.Equal(t, msg, pt)
}

func TestSealRoundTrip(t *testing.T) {
	recipient, err := MakeEncryptionKeyPair()
	require.NoError(t, err)

	msg := make([]byte, 32)
	require.NoError(t, RandomFill(msg))

	sealed, err := SealEncrypt(msg, recipient.Public)
	require.NoError(t, err)
	require.Len(t, sealed, sealSize+len(msg))

	opened, err := SealDecrypt(sealed, recipient)
	require.NoError(t, err)
	require.Equal(t, msg, opened)
}

func TestSealEncryptNeverRepeats(t *testing.T) {
	recipient, err := MakeEncryptionKeyPair()
	require.NoError(t, err)
	msg := []byte("resource key material!!")

	a, err := SealEncrypt(msg, recipient.Public)
	require.NoError(t, err)
	b, err := SealEncrypt(msg, recipient.Public)
	require.NoError(t, err)
	require.False(t, bytes.Equal(a, b))
}

func TestTwoTimesSealRoundTrip(t *testing.T) {
	appKP, err := MakeEncryptionKeyPair()
	require.NoError(t, err)
	tankerKP, err := MakeEncryptionKeyPair()
	require.NoError(t, err)

	var key SymmetricKey
	require.NoError(t, RandomFill(key[:]))

	sealed, err := SealTwoTimesSymmetricKey(key, appKP.Public, tankerKP.Public)
	require.NoError(t, err)

	opened, err := OpenTwoTimesSymmetricKey(sealed, appKP, tankerKP)
	require.NoError(t, err)
	require.Equal(t, key, opened)
}

func TestDeriveIvDeterministic(t *testing.T) {
	var seed AeadIv
	require.NoError(t, RandomFill(seed[:]))

	a := DeriveIv(seed, 0)
	b := DeriveIv(seed, 0)
	c := DeriveIv(seed, 1)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestGenericHashStable(t *testing.T) {
	data := []byte("trustchain creation payload")
	require.Equal(t, GenericHash(data), GenericHash(data))
}

func TestFixedWidthConstructorRejectsBadSize(t *testing.T) {
	_, err := NewPublicSignatureKeyFromSlice(make([]byte, 10))
	require.Error(t, err)
	var sizeErr *InvalidKeySizeError
	require.ErrorAs(t, err, &sizeErr)
}
