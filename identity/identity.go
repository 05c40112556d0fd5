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

// Package identity parses and generates the base64-JSON identity blobs
// applications hand to a client at start: full identities (carrying the
// delegation an app's private key grants to a fresh device), public
// identities (the recipient-addressable half), and provisional identities
// (pre-registration identities for an email or phone number).
package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
)

// Target names the kind of value an identity addresses.
type Target string

const (
	TargetUser  Target = "user"
	TargetEmail Target = "email"
	TargetPhone Target = "phone_number"
)

// userSecretSize matches the teacher's fixed-width keying convention: 16
// random bytes plus a 16-byte check derived from them and the user id, so
// a secret can be validated against its owning user without storing the
// user id alongside it in plaintext.
const userSecretSize = 32

// UserSecret is the key a client's local store is encrypted under.
type UserSecret [userSecretSize]byte

func deriveUserSecret(userID crypto.UserID) (UserSecret, error) {
	var secret UserSecret
	if err := crypto.RandomFill(secret[:16]); err != nil {
		return UserSecret{}, fmt.Errorf("identity: generate user secret: %w", err)
	}
	check := crypto.GenericHashN(append(append([]byte{}, secret[:16]...), userID[:]...), 16)
	copy(secret[16:], check)
	return secret, nil
}

// CheckUserSecret reports whether secret's check suffix matches userID,
// the same validation the local store runs before trusting a cached secret.
func CheckUserSecret(secret UserSecret, userID crypto.UserID) bool {
	want := crypto.GenericHashN(append(append([]byte{}, secret[:16]...), userID[:]...), 16)
	got := secret[16:]
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// ObfuscateUserID derives the trustchain-internal user id from an
// application's own user identifier, so the server never sees it in the
// clear. It is deterministic: the same (trustchainID, appUserID) pair
// always yields the same crypto.UserID.
func ObfuscateUserID(trustchainID crypto.TrustchainID, appUserID string) crypto.UserID {
	h := crypto.GenericHash(append([]byte(appUserID), trustchainID[:]...))
	return crypto.UserID(h)
}

// Identity is a full identity: the private half an app backend generates
// and hands to one of its own users, capable of registering a first
// device on a trustchain.
type Identity struct {
	TrustchainID                 crypto.TrustchainID
	Target                       Target
	Value                        crypto.UserID
	DelegationSignature          crypto.Signature
	EphemeralPublicSignatureKey  crypto.PublicSignatureKey
	EphemeralPrivateSignatureKey crypto.PrivateSignatureKey
	UserSecret                   UserSecret
}

// Generate creates a fresh identity for appUserID, delegated by the
// trustchain's own private signature key (held by the app backend that
// operates the trustchain, never by an end-user device).
func Generate(trustchainID crypto.TrustchainID, trustchainPrivateKey crypto.PrivateSignatureKey, appUserID string) (*Identity, error) {
	userID := ObfuscateUserID(trustchainID, appUserID)

	ephemeral, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate ephemeral key pair: %w", err)
	}

	secret, err := deriveUserSecret(userID)
	if err != nil {
		return nil, err
	}

	delegationSig := crypto.Sign(delegationPreimage(ephemeral.Public, userID), trustchainPrivateKey)

	return &Identity{
		TrustchainID:                 trustchainID,
		Target:                       TargetUser,
		Value:                        userID,
		DelegationSignature:          delegationSig,
		EphemeralPublicSignatureKey:  ephemeral.Public,
		EphemeralPrivateSignatureKey: ephemeral.Private,
		UserSecret:                   secret,
	}, nil
}

// delegationPreimage mirrors verify.delegationPreimage so an identity's
// DelegationSignature verifies against the same bytes the trustchain
// verifier recomputes from a DeviceCreation action.
func delegationPreimage(ephemeralKey crypto.PublicSignatureKey, userID crypto.UserID) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, ephemeralKey[:]...)
	buf = append(buf, userID[:]...)
	return buf
}

// UserID returns the trustchain-internal user id this identity authenticates.
func (id *Identity) UserID() crypto.UserID { return id.Value }

// Public returns the recipient-addressable half of id.
func (id *Identity) Public() *PublicIdentity {
	return &PublicIdentity{TrustchainID: id.TrustchainID, Target: id.Target, Value: b64(id.Value[:])}
}

type identityWire struct {
	TrustchainID                 string `json:"trustchain_id"`
	Target                       Target `json:"target"`
	Value                        string `json:"value"`
	DelegationSignature          string `json:"delegation_signature"`
	EphemeralPublicSignatureKey  string `json:"ephemeral_public_signature_key"`
	EphemeralPrivateSignatureKey string `json:"ephemeral_private_signature_key"`
	UserSecret                   string `json:"user_secret"`
}

// Serialize encodes id as the base64-of-JSON blob applications pass to
// tanker.Client.Start / RegisterIdentity.
func (id *Identity) Serialize() (string, error) {
	wire := identityWire{
		TrustchainID:                 b64(id.TrustchainID[:]),
		Target:                       id.Target,
		Value:                        b64(id.Value[:]),
		DelegationSignature:          b64(id.DelegationSignature[:]),
		EphemeralPublicSignatureKey:  b64(id.EphemeralPublicSignatureKey[:]),
		EphemeralPrivateSignatureKey: b64(id.EphemeralPrivateSignatureKey[:]),
		UserSecret:                   b64(id.UserSecret[:]),
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("identity: marshal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Deserialize parses a base64-of-JSON identity blob.
func Deserialize(blob string) (*Identity, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("identity: decode base64: %w", err)
	}
	var wire identityWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("identity: unmarshal: %w", err)
	}
	if wire.Target != TargetUser {
		return nil, fmt.Errorf("identity: unexpected target %q", wire.Target)
	}

	id := &Identity{Target: wire.Target}
	if err := unb64Fixed(wire.TrustchainID, id.TrustchainID[:]); err != nil {
		return nil, fmt.Errorf("identity: trustchain_id: %w", err)
	}
	if err := unb64Fixed(wire.Value, id.Value[:]); err != nil {
		return nil, fmt.Errorf("identity: value: %w", err)
	}
	if err := unb64Fixed(wire.DelegationSignature, id.DelegationSignature[:]); err != nil {
		return nil, fmt.Errorf("identity: delegation_signature: %w", err)
	}
	if err := unb64Fixed(wire.EphemeralPublicSignatureKey, id.EphemeralPublicSignatureKey[:]); err != nil {
		return nil, fmt.Errorf("identity: ephemeral_public_signature_key: %w", err)
	}
	if err := unb64Fixed(wire.EphemeralPrivateSignatureKey, id.EphemeralPrivateSignatureKey[:]); err != nil {
		return nil, fmt.Errorf("identity: ephemeral_private_signature_key: %w", err)
	}
	if err := unb64Fixed(wire.UserSecret, id.UserSecret[:]); err != nil {
		return nil, fmt.Errorf("identity: user_secret: %w", err)
	}
	return id, nil
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func unb64Fixed(s string, dst []byte) error {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
