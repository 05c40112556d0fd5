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

package tanker

import (
	"context"
	"fmt"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/group"
)

// CreateGroup creates a new group whose private keys are sealed to each
// member in memberIDs, and folds the resulting action into the local
// group state immediately (a group's creator is always internal to its
// own group). A group's id is defined as its own public signature key
// (§3), recovered via the returned group.Group's ID method.
func (c *Client) CreateGroup(ctx context.Context, memberIDs []crypto.UserID) (crypto.GroupID, error) {
	if len(memberIDs) == 0 {
		return crypto.GroupID{}, wrap(InvalidArgument, "Client.CreateGroup", fmt.Errorf("a group needs at least one member"))
	}

	groupSigKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return crypto.GroupID{}, wrap(InternalError, "Client.CreateGroup", err)
	}
	groupEncKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return crypto.GroupID{}, wrap(InternalError, "Client.CreateGroup", err)
	}
	sealedSigSeed, err := crypto.SealEncrypt(crypto.SignatureSeed(groupSigKP.Private), groupEncKP.Public)
	if err != nil {
		return crypto.GroupID{}, wrap(InternalError, "Client.CreateGroup", err)
	}
	var sealedSigSeedFixed crypto.SealedPrivateEncryptionKey
	copy(sealedSigSeedFixed[:], sealedSigSeed)

	members := make([]action.UserGroupMemberV2, 0, len(memberIDs))
	for _, userID := range memberIDs {
		pub, ok := c.users.UserCurrentPublicEncryptionKey(userID)
		if !ok {
			return crypto.GroupID{}, wrap(InvalidArgument, "Client.CreateGroup", fmt.Errorf("unknown member %x", userID))
		}
		sealed, err := crypto.SealEncrypt(groupEncKP.Private[:], pub)
		if err != nil {
			return crypto.GroupID{}, wrap(InternalError, "Client.CreateGroup", err)
		}
		var sealedFixed crypto.SealedPrivateEncryptionKey
		copy(sealedFixed[:], sealed)
		members = append(members, action.UserGroupMemberV2{
			UserID:                          userID,
			UserPublicEncryptionKey:         pub,
			SealedPrivateGroupEncryptionKey: sealedFixed,
		})
	}

	payload := action.UserGroupCreation2{
		PublicSignatureKey:        groupSigKP.Public,
		PublicEncryptionKey:       groupEncKP.Public,
		SealedPrivateSignatureKey: sealedSigSeedFixed,
		Members:                   members,
	}
	payload.SelfSignature = crypto.Sign(payload.PreimageWithoutSelfSignature(), groupSigKP.Private)

	a := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.deviceID),
		Payload:      payload,
	}
	a.Sign(c.deviceKeys.SignatureKeyPair.Private)

	if err := c.cfg.Transport.CreateUserGroup(ctx, a); err != nil {
		return crypto.GroupID{}, wrap(NetworkError, "Client.CreateGroup", err)
	}

	gr, err := c.groups.ApplyUserGroupCreation(ctx, a)
	if err != nil {
		return crypto.GroupID{}, wrap(InternalError, "Client.CreateGroup", err)
	}
	return gr.ID(), nil
}

// UpdateGroupMembers adds newMemberIDs to an existing group the local
// user already belongs to. Mirrors CreateGroup's sealing, but reseals
// the group's already-established (not rotated) private encryption key
// and chains on the group's last-known block hash.
func (c *Client) UpdateGroupMembers(ctx context.Context, groupID crypto.GroupID, newMemberIDs []crypto.UserID) error {
	if len(newMemberIDs) == 0 {
		return wrap(InvalidArgument, "Client.UpdateGroupMembers", fmt.Errorf("no members to add"))
	}

	gr, ok := c.groups.Get(groupID)
	if !ok {
		return wrap(InvalidArgument, "Client.UpdateGroupMembers", fmt.Errorf("unknown group %x", groupID))
	}
	internal, ok := gr.(*group.InternalGroup)
	if !ok {
		return wrap(PreconditionFailed, "Client.UpdateGroupMembers", fmt.Errorf("local user cannot open group %x", groupID))
	}

	members := make([]action.UserGroupMemberV2, 0, len(newMemberIDs))
	for _, userID := range newMemberIDs {
		pub, ok := c.users.UserCurrentPublicEncryptionKey(userID)
		if !ok {
			return wrap(InvalidArgument, "Client.UpdateGroupMembers", fmt.Errorf("unknown member %x", userID))
		}
		sealed, err := crypto.SealEncrypt(internal.EncryptionKeyPair.Private[:], pub)
		if err != nil {
			return wrap(InternalError, "Client.UpdateGroupMembers", err)
		}
		var sealedFixed crypto.SealedPrivateEncryptionKey
		copy(sealedFixed[:], sealed)
		members = append(members, action.UserGroupMemberV2{
			UserID:                          userID,
			UserPublicEncryptionKey:         pub,
			SealedPrivateGroupEncryptionKey: sealedFixed,
		})
	}

	payload := action.UserGroupAddition2{
		GroupID:                groupID,
		PreviousGroupBlockHash: gr.LastBlockHash(),
		Members:                members,
	}
	payload.SelfSignature = crypto.Sign(payload.PreimageWithoutSelfSignature(), internal.SignatureKeyPair.Private)

	a := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.deviceID),
		Payload:      payload,
	}
	a.Sign(c.deviceKeys.SignatureKeyPair.Private)

	if err := c.cfg.Transport.PatchUserGroup(ctx, groupID, a); err != nil {
		return wrap(NetworkError, "Client.UpdateGroupMembers", err)
	}
	if _, err := c.groups.ApplyUserGroupAddition(ctx, a); err != nil {
		return wrap(InternalError, "Client.UpdateGroupMembers", err)
	}
	return nil
}
