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

// PublicIdentity is the half of an Identity or ProvisionalIdentity safe to
// hand to other users: it names a recipient (share/attach targets)
// without granting any delegation or claim authority. Value carries the
// target-dependent addressable value: for TargetUser it is the base64
// encoding of the obfuscated crypto.UserID; for TargetEmail/TargetPhone
// it is the contact value itself.
type PublicIdentity struct {
	TrustchainID crypto.TrustchainID
	Target       Target
	Value        string
}

// UserID decodes Value as an obfuscated user id. It only makes sense
// when Target == TargetUser.
func (p *PublicIdentity) UserID() (crypto.UserID, error) {
	if p.Target != TargetUser {
		return crypto.UserID{}, fmt.Errorf("identity: public identity target %q has no user id", p.Target)
	}
	var id crypto.UserID
	if err := unb64Fixed(p.Value, id[:]); err != nil {
		return crypto.UserID{}, fmt.Errorf("identity: value: %w", err)
	}
	return id, nil
}

type publicIdentityWire struct {
	TrustchainID string `json:"trustchain_id"`
	Target       Target `json:"target"`
	Value        string `json:"value"`
}

// Serialize encodes p as a base64-of-JSON blob.
func (p *PublicIdentity) Serialize() (string, error) {
	wire := publicIdentityWire{
		TrustchainID: b64(p.TrustchainID[:]),
		Target:       p.Target,
		Value:        p.Value,
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("identity: marshal public identity: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DeserializePublic parses a base64-of-JSON public identity blob.
func DeserializePublic(blob string) (*PublicIdentity, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("identity: decode base64: %w", err)
	}
	var wire publicIdentityWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("identity: unmarshal public identity: %w", err)
	}

	pub := &PublicIdentity{Target: wire.Target, Value: wire.Value}
	if err := unb64Fixed(wire.TrustchainID, pub.TrustchainID[:]); err != nil {
		return nil, fmt.Errorf("identity: trustchain_id: %w", err)
	}
	return pub, nil
}
