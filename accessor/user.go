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

// Package accessor folds verified trustchain actions into the queryable
// state the rest of a client needs: which devices and user keys exist
// (UserAccessor), which groups the local user can open (GroupAccessor),
// which provisional identities have been claimed (ProvisionalAccessor),
// and the resource key lookup that ties them together
// (ResourceKeyAccessor).
package accessor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/verify"
)

type deviceRecord struct {
	userID               crypto.UserID
	publicSignatureKey   crypto.PublicSignatureKey
	publicEncryptionKey  crypto.PublicEncryptionKey
	revoked              bool
}

type userRecord struct {
	deviceIDs                  []crypto.DeviceID
	hasUserKey                 bool
	currentPublicEncryptionKey crypto.PublicEncryptionKey
}

// UserAccessor folds DeviceCreation/DeviceRevocation actions into a
// queryable view of every device and user key this client has seen, and
// answers the key-ownership questions the rest of the client needs:
// verify.State's device/user queries, and group.UserKeyProvider for
// opening group member entries sealed to a key the local user holds.
type UserAccessor struct {
	mu sync.RWMutex

	trustchainPublicSignatureKey crypto.PublicSignatureKey
	users                        map[crypto.UserID]*userRecord
	devices                      map[crypto.DeviceID]*deviceRecord

	// ownedKeyPairs holds every user/device encryption key pair the
	// local session can use to open a seal addressed to it: the current
	// user key, every key superseded by a device revocation this session
	// observed, and the device's own encryption key pair for the legacy
	// (pre-user-key) KeyPublishToDevice / group-member-v1 path.
	ownedKeyPairs []crypto.EncryptionKeyPair
}

// NewUserAccessor builds a UserAccessor rooted at trustchainPublicSignatureKey
// (the key embedded in the TrustchainCreation action), seeded with
// whatever encryption key pairs the local session already owns (its
// device key pair and, once created, its user key pair).
func NewUserAccessor(trustchainPublicSignatureKey crypto.PublicSignatureKey, ownedKeyPairs ...crypto.EncryptionKeyPair) *UserAccessor {
	return &UserAccessor{
		trustchainPublicSignatureKey: trustchainPublicSignatureKey,
		users:                        make(map[crypto.UserID]*userRecord),
		devices:                      make(map[crypto.DeviceID]*deviceRecord),
		ownedKeyPairs:                append([]crypto.EncryptionKeyPair(nil), ownedKeyPairs...),
	}
}

// TrustchainPublicSignatureKey implements verify.State.
func (u *UserAccessor) TrustchainPublicSignatureKey() crypto.PublicSignatureKey {
	return u.trustchainPublicSignatureKey
}

// Device implements verify.State.
func (u *UserAccessor) Device(id crypto.DeviceID) (verify.DeviceInfo, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	d, ok := u.devices[id]
	if !ok {
		return verify.DeviceInfo{}, false
	}
	return verify.DeviceInfo{UserID: d.userID, PublicSignatureKey: d.publicSignatureKey, Revoked: d.revoked}, true
}

// UserHasUserKey implements verify.State.
func (u *UserAccessor) UserHasUserKey(userID crypto.UserID) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.users[userID]
	return ok && r.hasUserKey
}

// UserCurrentPublicEncryptionKey implements verify.State.
func (u *UserAccessor) UserCurrentPublicEncryptionKey(userID crypto.UserID) (crypto.PublicEncryptionKey, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.users[userID]
	if !ok || !r.hasUserKey {
		return crypto.PublicEncryptionKey{}, false
	}
	return r.currentPublicEncryptionKey, true
}

// UnrevokedDeviceIDs implements verify.State.
func (u *UserAccessor) UnrevokedDeviceIDs(userID crypto.UserID) []crypto.DeviceID {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.users[userID]
	if !ok {
		return nil
	}
	out := make([]crypto.DeviceID, 0, len(r.deviceIDs))
	for _, id := range r.deviceIDs {
		if d := u.devices[id]; d != nil && !d.revoked {
			out = append(out, id)
		}
	}
	return out
}

func (u *UserAccessor) userRecord(userID crypto.UserID) *userRecord {
	r, ok := u.users[userID]
	if !ok {
		r = &userRecord{}
		u.users[userID] = r
	}
	return r
}

// ApplyDeviceCreation folds a verified DeviceCreation{1,2,3} action,
// registering the new device and, for DeviceCreation3, the user's first
// user key pair. Mirrors Users::Updater::applyDeviceCreationToUser.
func (u *UserAccessor) ApplyDeviceCreation(a action.Action) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	deviceID := crypto.DeviceID(a.Hash())

	switch p := a.Payload.(type) {
	case action.DeviceCreation1:
		u.registerDevice(deviceID, p.UserID, p.PublicSignatureKey)
	case action.DeviceCreation2:
		u.registerDevice(deviceID, p.UserID, p.PublicSignatureKey)
	case action.DeviceCreation3:
		u.registerDevice(deviceID, p.UserID, p.PublicSignatureKey)
		r := u.userRecord(p.UserID)
		r.hasUserKey = true
		r.currentPublicEncryptionKey = p.PublicUserEncryptionKey
	default:
		return fmt.Errorf("%w: %T for device creation", ErrUnexpectedPayload, p)
	}
	return nil
}

func (u *UserAccessor) registerDevice(id crypto.DeviceID, userID crypto.UserID, publicSignatureKey crypto.PublicSignatureKey) {
	u.devices[id] = &deviceRecord{userID: userID, publicSignatureKey: publicSignatureKey}
	r := u.userRecord(userID)
	r.deviceIDs = append(r.deviceIDs, id)
}

// ApplyDeviceRevocation folds a verified DeviceRevocation{1,2} action. A
// DeviceRevocation2 rotates the user's current public user key and, if
// the local session owns one of the device key pairs the rotation was
// resealed to, recovers the rotated private user key into ownedKeyPairs
// so resources published before the rotation stay decryptable.
func (u *UserAccessor) ApplyDeviceRevocation(a action.Action, localDeviceID crypto.DeviceID, localDeviceKeyPair crypto.EncryptionKeyPair) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch p := a.Payload.(type) {
	case action.DeviceRevocation1:
		d, ok := u.devices[p.DeviceID]
		if !ok {
			return ErrUnknownDevice
		}
		d.revoked = true
		return nil
	case action.DeviceRevocation2:
		d, ok := u.devices[p.DeviceID]
		if !ok {
			return ErrUnknownDevice
		}
		d.revoked = true
		r := u.userRecord(d.userID)
		r.currentPublicEncryptionKey = p.PublicEncryptionKey
		r.hasUserKey = true

		for _, entry := range p.SealedKeysForDevices {
			if entry.DeviceID != localDeviceID {
				continue
			}
			plain, err := crypto.SealDecrypt(entry.SealedPrivateEncryptionKey[:], localDeviceKeyPair)
			if err != nil {
				return err
			}
			priv, err := crypto.NewPrivateEncryptionKeyFromSlice(plain)
			if err != nil {
				return err
			}
			u.ownedKeyPairs = append(u.ownedKeyPairs, crypto.EncryptionKeyPair{Public: p.PublicEncryptionKey, Private: priv})
			return nil
		}
		return nil
	default:
		return fmt.Errorf("%w: %T for device revocation", ErrUnexpectedPayload, p)
	}
}

// RegisterOwnedKeyPair records an encryption key pair the local session
// can use to open seals addressed to it — its device key pair at
// creation time, or its first user key pair once claimed.
func (u *UserAccessor) RegisterOwnedKeyPair(kp crypto.EncryptionKeyPair) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownedKeyPairs = append(u.ownedKeyPairs, kp)
}

// FindUserKeyPair implements group.UserKeyProvider: it returns whichever
// owned key pair's public key appears among candidates.
func (u *UserAccessor) FindUserKeyPair(ctx context.Context, candidates []crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, c := range candidates {
		for _, kp := range u.ownedKeyPairs {
			if kp.Public == c {
				return kp, true, nil
			}
		}
	}
	return crypto.EncryptionKeyPair{}, false, nil
}

// OwnedKeyPair returns the owned key pair matching pub, if any — used by
// ResourceKeyAccessor to open a KeyPublishToUser addressed to a key the
// local session holds.
func (u *UserAccessor) OwnedKeyPair(pub crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, kp := range u.ownedKeyPairs {
		if kp.Public == pub {
			return kp, true
		}
	}
	return crypto.EncryptionKeyPair{}, false
}
