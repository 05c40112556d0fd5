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
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"github.com/sage-x-project/tanker/internal/metrics"
)

// Sentinel errors. DecryptionFailed and InvalidArgument are the only two
// outcomes a *_decrypt call may produce; nothing in this package panics.
var (
	ErrDecryptionFailed = errors.New("tanker/crypto: decryption failed")
	ErrInvalidArgument  = errors.New("tanker/crypto: invalid argument")
	ErrInvalidSignature = errors.New("tanker/crypto: invalid signature")
)

// RandomFill fills buf with cryptographically secure random bytes.
func RandomFill(buf []byte) error {
	_, err := rand.Read(buf)
	if err != nil {
		return errors.Join(ErrInvalidArgument, err)
	}
	return nil
}

// GenericHash is BLAKE2b-256 over data.
func GenericHash(data []byte) Hash {
	h := blake2bSum(data)
	var out Hash
	copy(out[:], h)
	return out
}

// GenericHashN hashes data to an output of n bytes using BLAKE2b, used for
// key derivations and stream IV derivation that need a non-32-byte output.
func GenericHashN(data []byte, n int) []byte {
	return blake2bSumN(data, n)
}

// MakeSignatureKeyPair generates a fresh Ed25519 key pair.
func MakeSignatureKeyPair() (SignatureKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SignatureKeyPair{}, err
	}
	var kp SignatureKeyPair
	copy(kp.Public[:], pub)
	copy(kp.Private[:], priv)
	return kp, nil
}

// SignatureKeyPairFromSeed expands a 32-byte Ed25519 seed into a full key
// pair. Used wherever a signature key pair needs to round-trip through a
// seal sized for a 32-byte secret (group signature keys are sealed by
// seed, not by the full 64-byte private key).
func SignatureKeyPairFromSeed(seed []byte) (SignatureKeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return SignatureKeyPair{}, newSizeErr("SignatureSeed", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var kp SignatureKeyPair
	copy(kp.Public[:], priv.Public().(ed25519.PublicKey))
	copy(kp.Private[:], priv)
	return kp, nil
}

// SignatureSeed returns the 32-byte seed a private signature key was
// derived from, recoverable because PrivateSignatureKey stores seed||pub.
func SignatureSeed(priv PrivateSignatureKey) []byte {
	return priv[:ed25519.SeedSize]
}

// Sign produces a detached Ed25519 signature over data.
func Sign(data []byte, sk PrivateSignatureKey) Signature {
	start := time.Now()
	sig := ed25519.Sign(ed25519.PrivateKey(sk[:]), data)
	metrics.CryptoOperationDuration.WithLabelValues("sign", "ed25519").Observe(time.Since(start).Seconds())
	metrics.CryptoOperations.WithLabelValues("sign", "ed25519").Inc()
	var out Signature
	copy(out[:], sig)
	return out
}

// Verify checks a detached Ed25519 signature.
func Verify(data []byte, sig Signature, pk PublicSignatureKey) bool {
	start := time.Now()
	ok := ed25519.Verify(ed25519.PublicKey(pk[:]), data, sig[:])
	metrics.CryptoOperationDuration.WithLabelValues("verify", "ed25519").Observe(time.Since(start).Seconds())
	metrics.CryptoOperations.WithLabelValues("verify", "ed25519").Inc()
	if !ok {
		metrics.CryptoErrors.WithLabelValues("verify").Inc()
	}
	return ok
}

// DerivePublicSignatureKey returns the public half of an Ed25519 seed-form
// private key.
func DerivePublicSignatureKey(sk PrivateSignatureKey) PublicSignatureKey {
	var pub PublicSignatureKey
	copy(pub[:], ed25519.PrivateKey(sk[:]).Public().(ed25519.PublicKey))
	return pub
}

// MakeEncryptionKeyPair generates a fresh X25519 key pair.
func MakeEncryptionKeyPair() (EncryptionKeyPair, error) {
	var priv PrivateEncryptionKey
	if err := RandomFill(priv[:]); err != nil {
		return EncryptionKeyPair{}, err
	}
	return MakeEncryptionKeyPairFromPrivate(priv)
}

// MakeEncryptionKeyPairFromPrivate derives the public key for a given
// X25519 private scalar.
func MakeEncryptionKeyPairFromPrivate(priv PrivateEncryptionKey) (EncryptionKeyPair, error) {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return EncryptionKeyPair{}, err
	}
	var kp EncryptionKeyPair
	kp.Private = priv
	copy(kp.Public[:], pub)
	return kp, nil
}

func sharedSecret(priv PrivateEncryptionKey, pub PublicEncryptionKey) ([]byte, error) {
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return nil, errors.Join(ErrInvalidArgument, err)
	}
	return secret, nil
}

func aeadFromKey(key SymmetricKey) (cipherAEAD, error) {
	return chacha20poly1305.NewX(key[:])
}

type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// AeadEncrypt encrypts plaintext with XChaCha20-Poly1305, appending the MAC.
// The returned slice is len(plaintext) + 16 (Mac) bytes.
func AeadEncrypt(key SymmetricKey, iv AeadIv, plaintext, ad []byte) ([]byte, error) {
	aead, err := aeadFromKey(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv[:], plaintext, ad), nil
}

// AeadDecrypt decrypts a ciphertext||mac blob produced by AeadEncrypt.
// Any AEAD tag mismatch surfaces as ErrDecryptionFailed; an input shorter
// than the MAC size surfaces as ErrInvalidArgument.
func AeadDecrypt(key SymmetricKey, iv AeadIv, ciphertext, ad []byte) ([]byte, error) {
	aead, err := aeadFromKey(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.Overhead() {
		return nil, ErrInvalidArgument
	}
	out, err := aead.Open(nil, iv[:], ciphertext, ad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

// DeriveIv derives the per-chunk IV used by streaming envelopes: the
// BLAKE2b hash of the shared seed and a little-endian chunk counter,
// expanded to the AEAD nonce size.
func DeriveIv(seed AeadIv, counter uint64) AeadIv {
	buf := make([]byte, len(seed)+8)
	copy(buf, seed[:])
	binary.LittleEndian.PutUint64(buf[len(seed):], counter)
	digest := blake2bSumN(buf, len(AeadIv{}))
	var iv AeadIv
	copy(iv[:], digest)
	return iv
}

// BoxEncrypt is authenticated public-key encryption: the sender's private
// key and the recipient's public key are combined via X25519 ECDH into an
// AEAD key, with a random nonce prepended to the output.
// Output layout: nonce(24) || ciphertext || mac(16).
func BoxEncrypt(msg []byte, senderPriv PrivateEncryptionKey, recipientPub PublicEncryptionKey) ([]byte, error) {
	secret, err := sharedSecret(senderPriv, recipientPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	var iv AeadIv
	if err := RandomFill(iv[:]); err != nil {
		return nil, err
	}
	ct, err := AeadEncrypt(key, iv, msg, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(iv)+len(ct))
	out = append(out, iv[:]...)
	out = append(out, ct...)
	return out, nil
}

// BoxDecrypt reverses BoxEncrypt.
func BoxDecrypt(ciphertext []byte, recipientPriv PrivateEncryptionKey, senderPub PublicEncryptionKey) ([]byte, error) {
	if len(ciphertext) < len(AeadIv{}) {
		return nil, ErrInvalidArgument
	}
	var iv AeadIv
	copy(iv[:], ciphertext[:len(iv)])
	secret, err := sharedSecret(recipientPriv, senderPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	return AeadDecrypt(key, iv, ciphertext[len(iv):], nil)
}

// sealSize is the overhead of SealEncrypt: an ephemeral public key plus a
// MAC. The nonce is derived from the ephemeral and recipient public keys
// rather than transmitted, matching libsodium's crypto_box_seal contract.
const sealSize = 32 + 16

// SealEncrypt is anonymous public-key encryption: a fresh ephemeral key
// pair is generated per call, its public half is prefixed to the output,
// and the nonce is derived (never transmitted) from both public keys so
// the overhead is exactly sealSize regardless of the plaintext length.
// Output layout: ephemeralPub(32) || ciphertext || mac(16).
func SealEncrypt(msg []byte, recipientPub PublicEncryptionKey) ([]byte, error) {
	start := time.Now()
	out, err := sealEncrypt(msg, recipientPub)
	metrics.CryptoOperationDuration.WithLabelValues("seal", "x25519_xsalsa20poly1305").Observe(time.Since(start).Seconds())
	metrics.CryptoOperations.WithLabelValues("seal", "x25519_xsalsa20poly1305").Inc()
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal").Inc()
	}
	return out, err
}

func sealEncrypt(msg []byte, recipientPub PublicEncryptionKey) ([]byte, error) {
	ephPriv := PrivateEncryptionKey{}
	if err := RandomFill(ephPriv[:]); err != nil {
		return nil, err
	}
	ephKP, err := MakeEncryptionKeyPairFromPrivate(ephPriv)
	if err != nil {
		return nil, err
	}
	secret, err := sharedSecret(ephPriv, recipientPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	iv := sealNonce(ephKP.Public, recipientPub)
	ct, err := AeadEncrypt(key, iv, msg, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 32+len(ct))
	out = append(out, ephKP.Public[:]...)
	out = append(out, ct...)
	return out, nil
}

// SealDecrypt reverses SealEncrypt.
func SealDecrypt(ciphertext []byte, recipient EncryptionKeyPair) ([]byte, error) {
	start := time.Now()
	out, err := sealDecrypt(ciphertext, recipient)
	metrics.CryptoOperationDuration.WithLabelValues("seal_open", "x25519_xsalsa20poly1305").Observe(time.Since(start).Seconds())
	metrics.CryptoOperations.WithLabelValues("seal_open", "x25519_xsalsa20poly1305").Inc()
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("seal_open").Inc()
	}
	return out, err
}

func sealDecrypt(ciphertext []byte, recipient EncryptionKeyPair) ([]byte, error) {
	if len(ciphertext) < sealSize {
		return nil, ErrInvalidArgument
	}
	var ephPub PublicEncryptionKey
	copy(ephPub[:], ciphertext[:32])
	secret, err := sharedSecret(recipient.Private, ephPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	iv := sealNonce(ephPub, recipient.Public)
	return AeadDecrypt(key, iv, ciphertext[32:], nil)
}

func sealNonce(ephPub, recipientPub PublicEncryptionKey) AeadIv {
	buf := make([]byte, 0, 64)
	buf = append(buf, ephPub[:]...)
	buf = append(buf, recipientPub[:]...)
	var iv AeadIv
	copy(iv[:], blake2bSumN(buf, len(iv)))
	return iv
}

// doubleSealSize is the overhead of one DoubleSealEncrypt layer: an
// ephemeral public key, an explicit nonce, and a MAC. Unlike SealEncrypt,
// the nonce is transmitted rather than derived, because DoubleSealEncrypt
// is applied to the opaque output of a prior sealing layer.
const doubleSealSize = 32 + 24 + 16

// DoubleSealEncrypt is the sealing primitive used for
// TwoTimesSealedSymmetricKey: a fresh ephemeral key pair plus an explicit
// random nonce are prefixed to the ciphertext, so two successive layers
// compose without needing to re-derive a nonce over the prior layer's
// opaque bytes. Output layout: ephemeralPub(32) || nonce(24) || ciphertext || mac(16).
func DoubleSealEncrypt(msg []byte, recipientPub PublicEncryptionKey) ([]byte, error) {
	ephPriv := PrivateEncryptionKey{}
	if err := RandomFill(ephPriv[:]); err != nil {
		return nil, err
	}
	ephKP, err := MakeEncryptionKeyPairFromPrivate(ephPriv)
	if err != nil {
		return nil, err
	}
	secret, err := sharedSecret(ephPriv, recipientPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	var iv AeadIv
	if err := RandomFill(iv[:]); err != nil {
		return nil, err
	}
	ct, err := AeadEncrypt(key, iv, msg, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 32+24+len(ct))
	out = append(out, ephKP.Public[:]...)
	out = append(out, iv[:]...)
	out = append(out, ct...)
	return out, nil
}

// DoubleSealDecrypt reverses one DoubleSealEncrypt layer.
func DoubleSealDecrypt(ciphertext []byte, recipient EncryptionKeyPair) ([]byte, error) {
	if len(ciphertext) < 32+24 {
		return nil, ErrInvalidArgument
	}
	var ephPub PublicEncryptionKey
	copy(ephPub[:], ciphertext[:32])
	var iv AeadIv
	copy(iv[:], ciphertext[32:56])
	secret, err := sharedSecret(recipient.Private, ephPub)
	if err != nil {
		return nil, err
	}
	key, err := NewSymmetricKeyFromSlice(blake2bSumN(secret, 32))
	if err != nil {
		return nil, err
	}
	return AeadDecrypt(key, iv, ciphertext[56:], nil)
}

// SealTwoTimesSymmetricKey seals a symmetric key first to the Tanker
// public key, then seals that result to the app public key, producing
// the 176-byte TwoTimesSealedSymmetricKey.
func SealTwoTimesSymmetricKey(key SymmetricKey, appPub, tankerPub PublicEncryptionKey) (TwoTimesSealedSymmetricKey, error) {
	inner, err := DoubleSealEncrypt(key[:], tankerPub)
	if err != nil {
		return TwoTimesSealedSymmetricKey{}, err
	}
	outer, err := DoubleSealEncrypt(inner, appPub)
	if err != nil {
		return TwoTimesSealedSymmetricKey{}, err
	}
	var out TwoTimesSealedSymmetricKey
	if err := mustCopy(out[:], outer, "TwoTimesSealedSymmetricKey"); err != nil {
		return TwoTimesSealedSymmetricKey{}, err
	}
	return out, nil
}

// OpenTwoTimesSymmetricKey reverses SealTwoTimesSymmetricKey: unseal with
// the app key pair first (outer layer), then the Tanker key pair (inner
// layer).
func OpenTwoTimesSymmetricKey(sealed TwoTimesSealedSymmetricKey, appKP, tankerKP EncryptionKeyPair) (SymmetricKey, error) {
	inner, err := DoubleSealDecrypt(sealed[:], appKP)
	if err != nil {
		return SymmetricKey{}, err
	}
	plain, err := DoubleSealDecrypt(inner, tankerKP)
	if err != nil {
		return SymmetricKey{}, err
	}
	return NewSymmetricKeyFromSlice(plain)
}
