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

package group

import (
	"context"
	"fmt"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
)

// ApplyUserGroupCreation folds a verified UserGroupCreation action into a
// Group: InternalGroup if one of its member entries is sealed to a key
// the local user (or a claimed provisional identity) owns, ExternalGroup
// otherwise.
func ApplyUserGroupCreation(ctx context.Context, users UserKeyProvider, provisional ProvisionalKeyProvider, a action.Action) (Group, error) {
	switch p := a.Payload.(type) {
	case action.UserGroupCreation1:
		priv, found, err := findMyGroupKeyV1(ctx, users, p.Members)
		if err != nil {
			return nil, err
		}
		if !found {
			return externalGroupFromCreation1(p, a.Hash()), nil
		}
		return makeInternalGroup(priv, p.PublicSignatureKey, p.PublicEncryptionKey, p.SealedPrivateSignatureKey, a.Hash())
	case action.UserGroupCreation2:
		priv, found, err := findMyGroupKeyV2(ctx, users, provisional, p.Members, p.ProvisionalMembers)
		if err != nil {
			return nil, err
		}
		if !found {
			return externalGroupFromCreation2(p, a.Hash()), nil
		}
		return makeInternalGroup(priv, p.PublicSignatureKey, p.PublicEncryptionKey, p.SealedPrivateSignatureKey, a.Hash())
	default:
		return nil, fmt.Errorf("%w: %T for group creation", ErrUnexpectedNature, p)
	}
}

// ApplyUserGroupAddition folds a verified UserGroupAddition action on top
// of the group's previous state. A local user already internal to the
// group stays internal (its last-block hash simply advances); an
// external group is promoted to internal if this addition's member
// entries finally include one the local user can open.
func ApplyUserGroupAddition(ctx context.Context, users UserKeyProvider, provisional ProvisionalKeyProvider, previous Group, a action.Action) (Group, error) {
	if previous == nil {
		return nil, ErrMissingPreviousGroup
	}
	setLastBlockHash(previous, a.Hash())

	if _, ok := previous.(*InternalGroup); ok {
		return previous, nil
	}
	ext, ok := previous.(*ExternalGroup)
	if !ok {
		return nil, fmt.Errorf("tanker/group: previous group has unexpected type %T", previous)
	}

	var priv crypto.PrivateEncryptionKey
	var found bool
	var err error
	switch p := a.Payload.(type) {
	case action.UserGroupAddition1:
		priv, found, err = findMyGroupKeyV1(ctx, users, p.Members)
	case action.UserGroupAddition2:
		priv, found, err = findMyGroupKeyV2(ctx, users, provisional, p.Members, p.ProvisionalMembers)
	default:
		return nil, fmt.Errorf("%w: %T for group addition", ErrUnexpectedNature, p)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return ext, nil
	}
	return makeInternalGroupFromExternal(ext, priv)
}

func externalGroupFromCreation1(p action.UserGroupCreation1, blockHash crypto.Hash) *ExternalGroup {
	return &ExternalGroup{
		GroupID:                      crypto.GroupID(p.PublicSignatureKey),
		PublicSignatureKey:           p.PublicSignatureKey,
		EncryptedPrivateSignatureKey: p.SealedPrivateSignatureKey,
		PublicEncryptionKey:          p.PublicEncryptionKey,
		LastBlock:                    blockHash,
	}
}

func externalGroupFromCreation2(p action.UserGroupCreation2, blockHash crypto.Hash) *ExternalGroup {
	return &ExternalGroup{
		GroupID:                      crypto.GroupID(p.PublicSignatureKey),
		PublicSignatureKey:           p.PublicSignatureKey,
		EncryptedPrivateSignatureKey: p.SealedPrivateSignatureKey,
		PublicEncryptionKey:          p.PublicEncryptionKey,
		LastBlock:                    blockHash,
	}
}

func makeInternalGroup(groupPrivateEncryptionKey crypto.PrivateEncryptionKey, publicSigKey crypto.PublicSignatureKey, publicEncKey crypto.PublicEncryptionKey, sealedPrivSigKey crypto.SealedPrivateEncryptionKey, blockHash crypto.Hash) (*InternalGroup, error) {
	encKP := crypto.EncryptionKeyPair{Public: publicEncKey, Private: groupPrivateEncryptionKey}
	seed, err := crypto.SealDecrypt(sealedPrivSigKey[:], encKP)
	if err != nil {
		return nil, err
	}
	sigKP, err := crypto.SignatureKeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if sigKP.Public != publicSigKey {
		return nil, fmt.Errorf("tanker/group: recovered signature key does not match the group's declared public key")
	}
	return &InternalGroup{
		GroupID:           crypto.GroupID(publicSigKey),
		SignatureKeyPair:  sigKP,
		EncryptionKeyPair: encKP,
		LastBlock:         blockHash,
	}, nil
}

func makeInternalGroupFromExternal(ext *ExternalGroup, groupPrivateEncryptionKey crypto.PrivateEncryptionKey) (*InternalGroup, error) {
	return makeInternalGroup(groupPrivateEncryptionKey, ext.PublicSignatureKey, ext.PublicEncryptionKey, ext.EncryptedPrivateSignatureKey, ext.LastBlock)
}

// findMyGroupKeyV1 looks for a member entry sealed to a public encryption
// key the local user owns, and unseals the group's private encryption key
// from it.
func findMyGroupKeyV1(ctx context.Context, users UserKeyProvider, members []action.UserGroupMemberV1) (crypto.PrivateEncryptionKey, bool, error) {
	candidates := make([]crypto.PublicEncryptionKey, len(members))
	for i, m := range members {
		candidates[i] = m.UserPublicEncryptionKey
	}
	kp, found, err := users.FindUserKeyPair(ctx, candidates)
	if err != nil || !found {
		return crypto.PrivateEncryptionKey{}, false, err
	}
	for _, m := range members {
		if m.UserPublicEncryptionKey != kp.Public {
			continue
		}
		plain, err := crypto.SealDecrypt(m.SealedPrivateGroupEncryptionKey[:], kp)
		if err != nil {
			return crypto.PrivateEncryptionKey{}, false, err
		}
		priv, err := crypto.NewPrivateEncryptionKeyFromSlice(plain)
		return priv, true, err
	}
	return crypto.PrivateEncryptionKey{}, false, nil
}

// findMyGroupKeyV2 tries member entries first (same shape as v1, keyed by
// UserID in addition to the public key), then falls back to provisional
// member entries sealed to a claimed provisional identity.
func findMyGroupKeyV2(ctx context.Context, users UserKeyProvider, provisional ProvisionalKeyProvider, members []action.UserGroupMemberV2, provMembers []action.UserGroupProvisionalMember) (crypto.PrivateEncryptionKey, bool, error) {
	candidates := make([]crypto.PublicEncryptionKey, len(members))
	for i, m := range members {
		candidates[i] = m.UserPublicEncryptionKey
	}
	if kp, found, err := users.FindUserKeyPair(ctx, candidates); err != nil {
		return crypto.PrivateEncryptionKey{}, false, err
	} else if found {
		for _, m := range members {
			if m.UserPublicEncryptionKey != kp.Public {
				continue
			}
			plain, err := crypto.SealDecrypt(m.SealedPrivateGroupEncryptionKey[:], kp)
			if err != nil {
				return crypto.PrivateEncryptionKey{}, false, err
			}
			priv, err := crypto.NewPrivateEncryptionKeyFromSlice(plain)
			return priv, true, err
		}
	}

	if provisional == nil {
		return crypto.PrivateEncryptionKey{}, false, nil
	}
	for _, pm := range provMembers {
		appKeys, tankerKeys, found, err := provisional.FindProvisionalKeyPair(ctx, pm.AppPublicSignatureKey, pm.TankerPublicSignatureKey)
		if err != nil {
			return crypto.PrivateEncryptionKey{}, false, err
		}
		if !found {
			continue
		}
		symKey, err := crypto.OpenTwoTimesSymmetricKey(pm.TwoTimesSealedPrivateGroupEncryptionKey, appKeys, tankerKeys)
		if err != nil {
			return crypto.PrivateEncryptionKey{}, false, err
		}
		priv, err := crypto.NewPrivateEncryptionKeyFromSlice(symKey[:])
		return priv, true, err
	}
	return crypto.PrivateEncryptionKey{}, false, nil
}
