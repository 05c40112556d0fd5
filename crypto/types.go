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

// Package crypto provides the fixed-width cryptographic types and the
// panic-free AEAD/box/seal/signature primitives the rest of Tanker is
// built on.
package crypto

import "fmt"

// InvalidKeySizeError is returned by every fixed-width constructor when the
// supplied slice does not match the type's declared size.
type InvalidKeySizeError struct {
	Type     string
	Got      int
	Expected int
}

func (e *InvalidKeySizeError) Error() string {
	return fmt.Sprintf("invalid size for %s: got %d, expected %d", e.Type, e.Got, e.Expected)
}

func newSizeErr(typeName string, got, expected int) error {
	return &InvalidKeySizeError{Type: typeName, Got: got, Expected: expected}
}

// PublicSignatureKey is an Ed25519 public key.
type PublicSignatureKey [32]byte

// PrivateSignatureKey is an Ed25519 private key (seed || public key).
type PrivateSignatureKey [64]byte

// Signature is a detached Ed25519 signature.
type Signature [64]byte

// PublicEncryptionKey is an X25519 public key.
type PublicEncryptionKey [32]byte

// PrivateEncryptionKey is an X25519 private key.
type PrivateEncryptionKey [32]byte

// SymmetricKey is an XChaCha20-Poly1305 key.
type SymmetricKey [32]byte

// Mac is a Poly1305 authentication tag.
type Mac [16]byte

// AeadIv is an XChaCha20-Poly1305 nonce.
type AeadIv [24]byte

// Hash is a generic BLAKE2b-256 digest.
type Hash [32]byte

// TrustchainID identifies a trustchain; it is the hash of its creation action.
type TrustchainID [32]byte

// UserID identifies a user within a trustchain.
type UserID [32]byte

// DeviceID identifies a device; it is the hash of its creation action.
type DeviceID [32]byte

// GroupID identifies a group; it equals the group's public signature key.
type GroupID [32]byte

// SimpleResourceID is the legacy 16-byte resource identifier.
type SimpleResourceID [16]byte

// SubkeySeed seeds the derivation of a transparent-session subkey.
type SubkeySeed [16]byte

// ResourceIDType tags the layout of a CompositeResourceID.
type ResourceIDType byte

// TransparentSessionType is the only CompositeResourceID type in use.
const TransparentSessionType ResourceIDType = 0

// CompositeResourceID is a type-tagged (sessionID || subkeySeed) identifier.
type CompositeResourceID [33]byte

// SealedPrivateEncryptionKey is a 32-byte private key sealed with
// SealEncrypt (48-byte overhead: ephemeral public key + MAC).
type SealedPrivateEncryptionKey [80]byte

// SealedSymmetricKey is a 32-byte symmetric key sealed with SealEncrypt.
type SealedSymmetricKey [80]byte

// TwoTimesSealedSymmetricKey is a 32-byte symmetric key sealed twice with
// DoubleSealEncrypt (72-byte overhead per layer: ephemeral public key +
// explicit nonce + MAC), once to the Tanker key and once to the app key.
type TwoTimesSealedSymmetricKey [176]byte

func mustCopy(dst []byte, src []byte, typeName string) error {
	if len(src) != len(dst) {
		return newSizeErr(typeName, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// NewPublicSignatureKeyFromSlice validates and wraps a 32-byte slice.
func NewPublicSignatureKeyFromSlice(b []byte) (PublicSignatureKey, error) {
	var k PublicSignatureKey
	err := mustCopy(k[:], b, "PublicSignatureKey")
	return k, err
}

// NewPrivateSignatureKeyFromSlice validates and wraps a 64-byte slice.
func NewPrivateSignatureKeyFromSlice(b []byte) (PrivateSignatureKey, error) {
	var k PrivateSignatureKey
	err := mustCopy(k[:], b, "PrivateSignatureKey")
	return k, err
}

// NewSignatureFromSlice validates and wraps a 64-byte slice.
func NewSignatureFromSlice(b []byte) (Signature, error) {
	var s Signature
	err := mustCopy(s[:], b, "Signature")
	return s, err
}

// NewPublicEncryptionKeyFromSlice validates and wraps a 32-byte slice.
func NewPublicEncryptionKeyFromSlice(b []byte) (PublicEncryptionKey, error) {
	var k PublicEncryptionKey
	err := mustCopy(k[:], b, "PublicEncryptionKey")
	return k, err
}

// NewPrivateEncryptionKeyFromSlice validates and wraps a 32-byte slice.
func NewPrivateEncryptionKeyFromSlice(b []byte) (PrivateEncryptionKey, error) {
	var k PrivateEncryptionKey
	err := mustCopy(k[:], b, "PrivateEncryptionKey")
	return k, err
}

// NewSymmetricKeyFromSlice validates and wraps a 32-byte slice.
func NewSymmetricKeyFromSlice(b []byte) (SymmetricKey, error) {
	var k SymmetricKey
	err := mustCopy(k[:], b, "SymmetricKey")
	return k, err
}

// NewHashFromSlice validates and wraps a 32-byte slice.
func NewHashFromSlice(b []byte) (Hash, error) {
	var h Hash
	err := mustCopy(h[:], b, "Hash")
	return h, err
}

// NewUserIDFromSlice validates and wraps a 32-byte slice.
func NewUserIDFromSlice(b []byte) (UserID, error) {
	var id UserID
	err := mustCopy(id[:], b, "UserID")
	return id, err
}

// NewDeviceIDFromSlice validates and wraps a 32-byte slice.
func NewDeviceIDFromSlice(b []byte) (DeviceID, error) {
	var id DeviceID
	err := mustCopy(id[:], b, "DeviceID")
	return id, err
}

// NewGroupIDFromSlice validates and wraps a 32-byte slice.
func NewGroupIDFromSlice(b []byte) (GroupID, error) {
	var id GroupID
	err := mustCopy(id[:], b, "GroupID")
	return id, err
}

// NewTrustchainIDFromSlice validates and wraps a 32-byte slice.
func NewTrustchainIDFromSlice(b []byte) (TrustchainID, error) {
	var id TrustchainID
	err := mustCopy(id[:], b, "TrustchainID")
	return id, err
}

// NewSimpleResourceIDFromSlice validates and wraps a 16-byte slice.
func NewSimpleResourceIDFromSlice(b []byte) (SimpleResourceID, error) {
	var id SimpleResourceID
	err := mustCopy(id[:], b, "SimpleResourceID")
	return id, err
}

// NewSubkeySeedFromSlice validates and wraps a 16-byte slice.
func NewSubkeySeedFromSlice(b []byte) (SubkeySeed, error) {
	var s SubkeySeed
	err := mustCopy(s[:], b, "SubkeySeed")
	return s, err
}

// NewCompositeResourceID builds a type-tagged resource id from a session id
// and a subkey seed.
func NewCompositeResourceID(typ ResourceIDType, sessionID SimpleResourceID, seed SubkeySeed) CompositeResourceID {
	var id CompositeResourceID
	id[0] = byte(typ)
	copy(id[1:17], sessionID[:])
	copy(id[17:33], seed[:])
	return id
}

// Type returns the type tag of the composite id.
func (id CompositeResourceID) Type() ResourceIDType { return ResourceIDType(id[0]) }

// SessionID returns the session-id half of a composite id.
func (id CompositeResourceID) SessionID() SimpleResourceID {
	var sid SimpleResourceID
	copy(sid[:], id[1:17])
	return sid
}

// SubkeySeed returns the subkey-seed half of a composite id.
func (id CompositeResourceID) SubkeySeed() SubkeySeed {
	var s SubkeySeed
	copy(s[:], id[17:33])
	return s
}

// EncryptionKeyPair is a matched X25519 key pair.
type EncryptionKeyPair struct {
	Public  PublicEncryptionKey
	Private PrivateEncryptionKey
}

// SignatureKeyPair is a matched Ed25519 key pair.
type SignatureKeyPair struct {
	Public  PublicSignatureKey
	Private PrivateSignatureKey
}
