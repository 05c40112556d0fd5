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

package verify

import (
	"bytes"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/internal/metrics"
)

// Verify dispatches on a.Nature() to the matching rule. It is the single
// entry point callers use; per-nature functions remain exported for
// targeted positive/negative testing (§8 P10).
func Verify(a action.Action, state State) *Error {
	err := verify(a, state)
	status := "accepted"
	if err != nil {
		status = "rejected"
	}
	metrics.ActionsVerified.WithLabelValues(a.Nature().String(), status).Inc()
	return err
}

func verify(a action.Action, state State) *Error {
	switch p := a.Payload.(type) {
	case action.TrustchainCreation:
		return VerifyTrustchainCreation(a, p)
	case action.DeviceCreation1:
		return VerifyDeviceCreation(a, p.Nature(), p.UserID, p.EphemeralPublicSignatureKey, p.DelegationSignature, p.PublicSignatureKey, state)
	case action.DeviceCreation2:
		return VerifyDeviceCreation(a, p.Nature(), p.UserID, p.EphemeralPublicSignatureKey, p.DelegationSignature, p.PublicSignatureKey, state)
	case action.DeviceCreation3:
		return VerifyDeviceCreation(a, p.Nature(), p.UserID, p.EphemeralPublicSignatureKey, p.DelegationSignature, p.PublicSignatureKey, state)
	case action.DeviceRevocation1:
		return VerifyDeviceRevocation1(a, p, state)
	case action.DeviceRevocation2:
		return VerifyDeviceRevocation2(a, p, state)
	case action.KeyPublishToDevice:
		return VerifyKeyPublish(a, state)
	case action.KeyPublishToUser:
		return VerifyKeyPublish(a, state)
	case action.KeyPublishToUserGroup:
		return VerifyKeyPublish(a, state)
	case action.KeyPublishToProvisionalUser:
		return VerifyKeyPublish(a, state)
	case action.UserGroupCreation1:
		return VerifyUserGroupCreation1(p)
	case action.UserGroupCreation2:
		return VerifyUserGroupCreation2(p)
	case action.UserGroupAddition1:
		return VerifyUserGroupAddition1(a, p, state)
	case action.UserGroupAddition2:
		return VerifyUserGroupAddition2(a, p, state)
	case action.ProvisionalIdentityClaim:
		// "signed by the device" is the same unrevoked-author-device rule
		// as a key publish; the app/Tanker signatures are checked below.
		if err := VerifyKeyPublish(a, state); err != nil {
			return err
		}
		return VerifyProvisionalIdentityClaim(p)
	default:
		return fail(UnknownNature, "no verifier registered for this nature")
	}
}

// VerifyTrustchainCreation checks the genesis action: its hash must equal
// the TrustchainID it declares, and it must be self-verified under its own
// embedded public signature key.
func VerifyTrustchainCreation(a action.Action, p action.TrustchainCreation) *Error {
	if !bytes.Equal(a.TrustchainID[:], a.Hash()[:]) {
		return fail(InvalidTrustchainCreation, "action hash does not equal declared TrustchainId")
	}
	if !a.VerifySignature(p.PublicSignatureKey) {
		return fail(InvalidSignature, "self-signature does not verify under embedded public key")
	}
	return nil
}

func delegationPreimage(ephemeralKey crypto.PublicSignatureKey, userID crypto.UserID) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, ephemeralKey[:]...)
	buf = append(buf, userID[:]...)
	return buf
}

// VerifyDeviceCreation implements the DeviceCreation{1,2,3} rule: the
// author is either the trustchain root or an unrevoked device of the same
// user, the delegation signature verifies under the parent's key, the
// action signature verifies under the new device's key, and v1/v3 match
// the user's current key state.
func VerifyDeviceCreation(
	a action.Action,
	nature action.Nature,
	userID crypto.UserID,
	ephemeralKey crypto.PublicSignatureKey,
	delegationSignature crypto.Signature,
	newDevicePublicKey crypto.PublicSignatureKey,
	state State,
) *Error {
	hasUserKey := state.UserHasUserKey(userID)
	if nature == action.NatureDeviceCreation3 {
		if len(state.UnrevokedDeviceIDs(userID)) == 0 {
			if hasUserKey {
				return fail(InvalidUserKeyState, "v3 device creation on a user with no devices cannot already have a user key")
			}
		} else if !hasUserKey {
			return fail(InvalidUserKeyState, "v3 device creation requires the user to already have a public user key")
		}
	} else if hasUserKey {
		return fail(InvalidUserKeyState, "v1/v2 device creation forbidden once the user has a public user key")
	}

	authorDeviceID := crypto.DeviceID(a.Author)
	var parentKey crypto.PublicSignatureKey
	if dev, ok := state.Device(authorDeviceID); ok {
		if dev.UserID != userID {
			return fail(InvalidAuthor, "delegating device does not belong to the target user")
		}
		if dev.Revoked {
			return fail(InvalidAuthor, "delegating device is revoked")
		}
		parentKey = dev.PublicSignatureKey
	} else {
		parentKey = state.TrustchainPublicSignatureKey()
	}

	if !crypto.Verify(delegationPreimage(ephemeralKey, userID), delegationSignature, parentKey) {
		return fail(InvalidDelegationSignature, "delegation signature does not verify under the parent's public key")
	}
	if !a.VerifySignature(newDevicePublicKey) {
		return fail(InvalidSignature, "action signature does not verify under the new device's public key")
	}
	return nil
}

// VerifyDeviceRevocation1 implements the DeviceRevocation1 rule: forbidden
// once the target user has a public user key (v2 required), and the
// author must be an unrevoked device of the same user as the target.
func VerifyDeviceRevocation1(a action.Action, p action.DeviceRevocation1, state State) *Error {
	target, ok := state.Device(p.DeviceID)
	if !ok {
		return fail(InvalidDeviceRevocation, "target device is unknown")
	}
	if target.Revoked {
		return fail(DeviceAlreadyRevoked, "target device is already revoked")
	}
	if state.UserHasUserKey(target.UserID) {
		return fail(InvalidUserKeyState, "v1 device revocation forbidden once the user has a public user key")
	}
	return verifyRevocationAuthor(a, target.UserID, state)
}

// VerifyDeviceRevocation2 implements the DeviceRevocation2 rule: the seal
// set must cover exactly every unrevoked device of the user other than
// the target, with no duplicates, and the declared previous public key
// must match the user's current public user key.
func VerifyDeviceRevocation2(a action.Action, p action.DeviceRevocation2, state State) *Error {
	target, ok := state.Device(p.DeviceID)
	if !ok {
		return fail(InvalidDeviceRevocation, "target device is unknown")
	}
	if target.Revoked {
		return fail(DeviceAlreadyRevoked, "target device is already revoked")
	}
	if err := verifyRevocationAuthor(a, target.UserID, state); err != nil {
		return err
	}

	currentKey, ok := state.UserCurrentPublicEncryptionKey(target.UserID)
	if !ok || currentKey != p.PreviousPublicEncryptionKey {
		return fail(InvalidDeviceRevocation, "declared previousPublicEncryptionKey does not match the user's current key")
	}

	expected := make(map[crypto.DeviceID]bool)
	for _, id := range state.UnrevokedDeviceIDs(target.UserID) {
		if id != p.DeviceID {
			expected[id] = true
		}
	}
	seen := make(map[crypto.DeviceID]bool, len(p.SealedKeysForDevices))
	for _, entry := range p.SealedKeysForDevices {
		if seen[entry.DeviceID] {
			return fail(InvalidDeviceRevocation, "duplicate device id in seal set")
		}
		seen[entry.DeviceID] = true
		if !expected[entry.DeviceID] {
			return fail(InvalidDeviceRevocation, "seal set contains a device outside devices(user)\\{revoked,target}")
		}
	}
	if len(seen) != len(expected) {
		return fail(InvalidDeviceRevocation, "seal set does not cover every expected device")
	}
	return nil
}

func verifyRevocationAuthor(a action.Action, targetUserID crypto.UserID, state State) *Error {
	author, ok := state.Device(crypto.DeviceID(a.Author))
	if !ok {
		return fail(InvalidAuthor, "revoking device is unknown")
	}
	if author.UserID != targetUserID {
		return fail(InvalidAuthor, "revoking device does not belong to the target's user")
	}
	if author.Revoked {
		return fail(InvalidAuthor, "revoking device is itself already revoked")
	}
	if !a.VerifySignature(author.PublicSignatureKey) {
		return fail(InvalidSignature, "action signature does not verify under the revoking device's public key")
	}
	return nil
}

// VerifyKeyPublish implements the KeyPublishTo{User,UserGroup,
// ProvisionalUser,Device} rule: signed by an unrevoked device. The
// addressed key is carried but never verified for existence — decryption
// fails later if it does not resolve to anything real.
func VerifyKeyPublish(a action.Action, state State) *Error {
	author, ok := state.Device(crypto.DeviceID(a.Author))
	if !ok {
		return fail(InvalidAuthor, "publishing device is unknown")
	}
	if author.Revoked {
		return fail(InvalidAuthor, "publishing device is revoked")
	}
	if !a.VerifySignature(author.PublicSignatureKey) {
		return fail(InvalidSignature, "action signature does not verify under the publishing device's public key")
	}
	return nil
}

// VerifyUserGroupCreation1 implements the UserGroupCreation1 rule:
// self-signed by the group's signature key, sealing the private group
// keys to at least one user key.
func VerifyUserGroupCreation1(p action.UserGroupCreation1) *Error {
	if len(p.Members) == 0 {
		return fail(InvalidGroupBlock, "user group creation must seal to at least one user")
	}
	if !crypto.Verify(p.PreimageWithoutSelfSignature(), p.SelfSignature, p.PublicSignatureKey) {
		return fail(InvalidSignature, "self-signature does not verify under the group's public signature key")
	}
	return nil
}

// VerifyUserGroupCreation2 implements the UserGroupCreation2 rule:
// self-signed, sealing to at least one user or provisional identity.
func VerifyUserGroupCreation2(p action.UserGroupCreation2) *Error {
	if len(p.Members) == 0 && len(p.ProvisionalMembers) == 0 {
		return fail(InvalidGroupBlock, "user group creation must seal to at least one user or provisional identity")
	}
	if !crypto.Verify(p.PreimageWithoutSelfSignature(), p.SelfSignature, p.PublicSignatureKey) {
		return fail(InvalidSignature, "self-signature does not verify under the group's public signature key")
	}
	return nil
}

// VerifyUserGroupAddition1 implements the UserGroupAddition1 rule:
// previousGroupBlockHash must equal the last key-rotation hash, self-
// signed by the group's key, and the author must belong to the group.
func VerifyUserGroupAddition1(a action.Action, p action.UserGroupAddition1, state State) *Error {
	return verifyUserGroupAddition(a, p.GroupID, p.PreviousGroupBlockHash, p.PreimageWithoutSelfSignature(), p.SelfSignature, state)
}

// VerifyUserGroupAddition2 implements the UserGroupAddition2 rule.
func VerifyUserGroupAddition2(a action.Action, p action.UserGroupAddition2, state State) *Error {
	return verifyUserGroupAddition(a, p.GroupID, p.PreviousGroupBlockHash, p.PreimageWithoutSelfSignature(), p.SelfSignature, state)
}

func verifyUserGroupAddition(
	a action.Action,
	groupID crypto.GroupID,
	previousBlockHash crypto.Hash,
	signedPreimage []byte,
	selfSignature crypto.Signature,
	state State,
) *Error {
	lastRotation, ok := state.GroupLastKeyRotationBlockHash(groupID)
	if !ok || lastRotation != previousBlockHash {
		return fail(InvalidGroupBlock, "previousGroupBlockHash does not equal the group's last key-rotation hash")
	}
	author, ok := state.Device(crypto.DeviceID(a.Author))
	if !ok || author.Revoked {
		return fail(InvalidAuthor, "author device is unknown or revoked")
	}
	if !state.AuthorBelongsToGroup(author.UserID, groupID) {
		return fail(InvalidGroupBlock, "author does not belong to the group being added to")
	}
	if !crypto.Verify(signedPreimage, selfSignature, groupPublicSignatureKeyOf(groupID)) {
		return fail(InvalidSignature, "self-signature does not verify under the group's public signature key")
	}
	return nil
}

// groupPublicSignatureKeyOf recovers a group's public signature key from
// its GroupId, which is defined (§3) to equal that key.
func groupPublicSignatureKeyOf(id crypto.GroupID) crypto.PublicSignatureKey {
	return crypto.PublicSignatureKey(id)
}

// VerifyProvisionalIdentityClaim implements the ProvisionalIdentityClaim
// rule: signed by the device (outer action signature, checked by the
// caller via Author lookup), by the app signature key, and by the Tanker
// signature key.
func VerifyProvisionalIdentityClaim(p action.ProvisionalIdentityClaim) *Error {
	preimage := p.PreimageWithoutSignatures()
	if !crypto.Verify(preimage, p.AuthorSigByAppKey, p.AppPublicSignatureKey) {
		return fail(InvalidClaim, "claim does not verify under the app signature key")
	}
	if !crypto.Verify(preimage, p.AuthorSigByTankerKey, p.TankerPublicSignatureKey) {
		return fail(InvalidClaim, "claim does not verify under the Tanker signature key")
	}
	return nil
}
