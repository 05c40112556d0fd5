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

// Package group implements the group state machine: folding a
// UserGroupCreation/UserGroupAddition chain into either an InternalGroup
// (the local user owns the group's private keys) or an ExternalGroup
// (the local user only sees the group's public material).
package group

import "github.com/sage-x-project/tanker/crypto"

// Group is the result of folding a group's action chain: either an
// InternalGroup or an ExternalGroup. The interface is intentionally
// narrow - callers that need the private key material type-assert to
// *InternalGroup.
type Group interface {
	ID() crypto.GroupID
	LastBlockHash() crypto.Hash
}

// InternalGroup is a group whose private keys the local user can recover,
// because one of the group's member entries was sealed to a key the local
// user (or a claimed provisional identity) owns.
type InternalGroup struct {
	GroupID           crypto.GroupID
	SignatureKeyPair  crypto.SignatureKeyPair
	EncryptionKeyPair crypto.EncryptionKeyPair
	LastBlock         crypto.Hash
}

func (g *InternalGroup) ID() crypto.GroupID        { return g.GroupID }
func (g *InternalGroup) LastBlockHash() crypto.Hash { return g.LastBlock }

// ExternalGroup is a group the local user is not (yet) a member of: only
// its public keys are known, and its private signature key stays sealed.
type ExternalGroup struct {
	GroupID                      crypto.GroupID
	PublicSignatureKey           crypto.PublicSignatureKey
	EncryptedPrivateSignatureKey crypto.SealedPrivateEncryptionKey
	PublicEncryptionKey          crypto.PublicEncryptionKey
	LastBlock                    crypto.Hash
}

func (g *ExternalGroup) ID() crypto.GroupID        { return g.GroupID }
func (g *ExternalGroup) LastBlockHash() crypto.Hash { return g.LastBlock }

func setLastBlockHash(g Group, h crypto.Hash) {
	switch v := g.(type) {
	case *InternalGroup:
		v.LastBlock = h
	case *ExternalGroup:
		v.LastBlock = h
	}
}
