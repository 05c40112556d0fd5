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

package accessor

import (
	"context"
	"sync"

	"github.com/sage-x-project/tanker/crypto"
)

type provisionalKeyPair struct {
	app    crypto.EncryptionKeyPair
	tanker crypto.EncryptionKeyPair
}

// ProvisionalAccessor tracks the app/Tanker encryption key pairs this
// session has claimed for a provisional identity via
// ProvisionalIdentityClaim. Unlike UserAccessor and GroupAccessor it has
// no network fallback: a provisional identity's keys only ever become
// known locally, at claim time, per
// ProvisionalUsers::IAccessor::pullEncryptionKeys.
type ProvisionalAccessor struct {
	mu      sync.RWMutex
	claimed map[[64]byte]provisionalKeyPair
}

// NewProvisionalAccessor builds an empty ProvisionalAccessor.
func NewProvisionalAccessor() *ProvisionalAccessor {
	return &ProvisionalAccessor{claimed: make(map[[64]byte]provisionalKeyPair)}
}

func provisionalKey(appPub, tankerPub crypto.PublicSignatureKey) [64]byte {
	var k [64]byte
	copy(k[:32], appPub[:])
	copy(k[32:], tankerPub[:])
	return k
}

// Claim records the app/Tanker key pairs recovered while processing this
// session's own ProvisionalIdentityClaim.
func (p *ProvisionalAccessor) Claim(appPub, tankerPub crypto.PublicSignatureKey, appKeys, tankerKeys crypto.EncryptionKeyPair) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimed[provisionalKey(appPub, tankerPub)] = provisionalKeyPair{app: appKeys, tanker: tankerKeys}
}

// FindProvisionalKeyPair implements group.ProvisionalKeyProvider.
func (p *ProvisionalAccessor) FindProvisionalKeyPair(ctx context.Context, appPub, tankerPub crypto.PublicSignatureKey) (crypto.EncryptionKeyPair, crypto.EncryptionKeyPair, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	kp, ok := p.claimed[provisionalKey(appPub, tankerPub)]
	if !ok {
		return crypto.EncryptionKeyPair{}, crypto.EncryptionKeyPair{}, false, nil
	}
	return kp.app, kp.tanker, true, nil
}
