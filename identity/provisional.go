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

package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
)

// ProvisionalIdentity is a pre-registration identity for a contact
// (email or phone number) who has not yet registered on the trustchain.
// The two key pairs are split: the app half is handed out with this
// identity, the tanker half is generated and held by the trustchain
// server until the contact claims it (see action.ProvisionalIdentityClaim).
type ProvisionalIdentity struct {
	TrustchainID         crypto.TrustchainID
	Target               Target
	Value                string
	PublicSignatureKey   crypto.PublicSignatureKey
	PrivateSignatureKey  crypto.PrivateSignatureKey
	PublicEncryptionKey  crypto.PublicEncryptionKey
	PrivateEncryptionKey crypto.PrivateEncryptionKey
}

// NewProvisional generates a fresh app-half provisional identity for the
// given target (email or phone number) and value.
func NewProvisional(trustchainID crypto.TrustchainID, target Target, value string) (*ProvisionalIdentity, error) {
	if target != TargetEmail && target != TargetPhone {
		return nil, fmt.Errorf("identity: invalid provisional target %q", target)
	}

	sigKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate provisional signature key pair: %w", err)
	}
	encKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return nil, fmt.Errorf("identity: generate provisional encryption key pair: %w", err)
	}

	return &ProvisionalIdentity{
		TrustchainID:         trustchainID,
		Target:               target,
		Value:                value,
		PublicSignatureKey:   sigKP.Public,
		PrivateSignatureKey:  sigKP.Private,
		PublicEncryptionKey:  encKP.Public,
		PrivateEncryptionKey: encKP.Private,
	}, nil
}

// Public returns the recipient-addressable half: same target/value, but
// without the private key material.
func (p *ProvisionalIdentity) Public() *PublicIdentity {
	return &PublicIdentity{TrustchainID: p.TrustchainID, Target: p.Target, Value: p.Value}
}

type provisionalIdentityWire struct {
	TrustchainID         string `json:"trustchain_id"`
	Target               Target `json:"target"`
	Value                string `json:"value"`
	PublicSignatureKey   string `json:"public_signature_key"`
	PrivateSignatureKey  string `json:"private_signature_key"`
	PublicEncryptionKey  string `json:"public_encryption_key"`
	PrivateEncryptionKey string `json:"private_encryption_key"`
}

// Serialize encodes p as a base64-of-JSON blob.
func (p *ProvisionalIdentity) Serialize() (string, error) {
	wire := provisionalIdentityWire{
		TrustchainID:         b64(p.TrustchainID[:]),
		Target:               p.Target,
		Value:                p.Value,
		PublicSignatureKey:   b64(p.PublicSignatureKey[:]),
		PrivateSignatureKey:  b64(p.PrivateSignatureKey[:]),
		PublicEncryptionKey:  b64(p.PublicEncryptionKey[:]),
		PrivateEncryptionKey: b64(p.PrivateEncryptionKey[:]),
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("identity: marshal provisional identity: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DeserializeProvisional parses a base64-of-JSON provisional identity blob.
func DeserializeProvisional(blob string) (*ProvisionalIdentity, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("identity: decode base64: %w", err)
	}
	var wire provisionalIdentityWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("identity: unmarshal provisional identity: %w", err)
	}
	if wire.Target != TargetEmail && wire.Target != TargetPhone {
		return nil, fmt.Errorf("identity: unexpected provisional target %q", wire.Target)
	}

	p := &ProvisionalIdentity{Target: wire.Target, Value: wire.Value}
	if err := unb64Fixed(wire.TrustchainID, p.TrustchainID[:]); err != nil {
		return nil, fmt.Errorf("identity: trustchain_id: %w", err)
	}
	if err := unb64Fixed(wire.PublicSignatureKey, p.PublicSignatureKey[:]); err != nil {
		return nil, fmt.Errorf("identity: public_signature_key: %w", err)
	}
	if err := unb64Fixed(wire.PrivateSignatureKey, p.PrivateSignatureKey[:]); err != nil {
		return nil, fmt.Errorf("identity: private_signature_key: %w", err)
	}
	if err := unb64Fixed(wire.PublicEncryptionKey, p.PublicEncryptionKey[:]); err != nil {
		return nil, fmt.Errorf("identity: public_encryption_key: %w", err)
	}
	if err := unb64Fixed(wire.PrivateEncryptionKey, p.PrivateEncryptionKey[:]); err != nil {
		return nil, fmt.Errorf("identity: private_encryption_key: %w", err)
	}
	return p, nil
}
