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

import "github.com/sage-x-project/tanker/crypto"

// DeviceInfo is the prior-state view of one device, as tracked by whatever
// accessor applies verified actions.
type DeviceInfo struct {
	UserID             crypto.UserID
	PublicSignatureKey crypto.PublicSignatureKey
	Revoked            bool
}

// State is the read-only prior-state view a verifier rule consults. It is
// implemented by the accessor package in this module and, in tests, by a
// small in-memory fake.
type State interface {
	// TrustchainPublicSignatureKey is the root key embedded in the
	// TrustchainCreation action.
	TrustchainPublicSignatureKey() crypto.PublicSignatureKey

	// Device looks up a device by id.
	Device(id crypto.DeviceID) (DeviceInfo, bool)

	// UserHasUserKey reports whether the user already has a current
	// public user encryption key (true once any v3+ device exists).
	UserHasUserKey(userID crypto.UserID) bool

	// UserCurrentPublicEncryptionKey returns the user's current public
	// user encryption key, if any.
	UserCurrentPublicEncryptionKey(userID crypto.UserID) (crypto.PublicEncryptionKey, bool)

	// UnrevokedDeviceIDs returns every unrevoked device id of a user.
	UnrevokedDeviceIDs(userID crypto.UserID) []crypto.DeviceID

	// GroupLastKeyRotationBlockHash returns the hash of a group's last
	// key-rotation action (its UserGroupCreation), if the group is known.
	GroupLastKeyRotationBlockHash(groupID crypto.GroupID) (crypto.Hash, bool)

	// AuthorBelongsToGroup reports whether the author device's owning
	// user is a current member of the group (required to add members).
	AuthorBelongsToGroup(authorUserID crypto.UserID, groupID crypto.GroupID) bool
}
