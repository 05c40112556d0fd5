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

package action

import (
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/serialize"
)

// Payload is the per-nature body of an Action: every variant knows its own
// Nature and how to encode itself canonically.
type Payload interface {
	Nature() Nature
	encode(w *serialize.Writer)
}

func putFixed32(w *serialize.Writer, b [32]byte) { w.PutFixed(b[:]) }
func putFixed64(w *serialize.Writer, b [64]byte) { w.PutFixed(b[:]) }
func putFixed80(w *serialize.Writer, b [80]byte) { w.PutFixed(b[:]) }
func putFixed16(w *serialize.Writer, b [16]byte) { w.PutFixed(b[:]) }

func getFixed32(r *serialize.Reader) (out [32]byte, err error) {
	b, err := r.GetFixed(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func getFixed64(r *serialize.Reader) (out [64]byte, err error) {
	b, err := r.GetFixed(64)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func getFixed80(r *serialize.Reader) (out [80]byte, err error) {
	b, err := r.GetFixed(80)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func getFixed16(r *serialize.Reader) (out [16]byte, err error) {
	b, err := r.GetFixed(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// TrustchainCreation is the genesis action: it carries the trustchain's own
// public signature key, and the action's hash must equal the TrustchainID.
type TrustchainCreation struct {
	PublicSignatureKey crypto.PublicSignatureKey
}

func (TrustchainCreation) Nature() Nature { return NatureTrustchainCreation }
func (p TrustchainCreation) encode(w *serialize.Writer) {
	putFixed32(w, p.PublicSignatureKey)
}
func decodeTrustchainCreation(r *serialize.Reader) (Payload, error) {
	k, err := getFixed32(r)
	return TrustchainCreation{PublicSignatureKey: k}, err
}

// DeviceCreation1 is the legacy device-creation shape, valid only while the
// owning user has no current user key pair.
type DeviceCreation1 struct {
	EphemeralPublicSignatureKey crypto.PublicSignatureKey
	UserID                      crypto.UserID
	DelegationSignature         crypto.Signature
	PublicSignatureKey          crypto.PublicSignatureKey
	PublicEncryptionKey         crypto.PublicEncryptionKey
}

func (DeviceCreation1) Nature() Nature { return NatureDeviceCreation1 }
func (p DeviceCreation1) encode(w *serialize.Writer) {
	putFixed32(w, p.EphemeralPublicSignatureKey)
	putFixed32(w, p.UserID)
	putFixed64(w, p.DelegationSignature)
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
}
func decodeDeviceCreation1(r *serialize.Reader) (Payload, error) {
	var p DeviceCreation1
	var err error
	if p.EphemeralPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.UserID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.DelegationSignature, err = getFixed64(r); err != nil {
		return nil, err
	}
	if p.PublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	return p, nil
}

// DeviceCreation2 shares DeviceCreation1's wire shape (spec.md §6 lists
// DeviceCreation1/2 together); it is kept as a distinct nature because the
// verifier applies different acceptance rules to it (see verify package).
type DeviceCreation2 struct {
	DeviceCreation1
}

func (DeviceCreation2) Nature() Nature { return NatureDeviceCreation2 }
func decodeDeviceCreation2(r *serialize.Reader) (Payload, error) {
	inner, err := decodeDeviceCreation1(r)
	if err != nil {
		return nil, err
	}
	return DeviceCreation2{inner.(DeviceCreation1)}, nil
}

// DeviceCreation3 additionally carries the new device's user key pair.
type DeviceCreation3 struct {
	EphemeralPublicSignatureKey   crypto.PublicSignatureKey
	UserID                        crypto.UserID
	DelegationSignature           crypto.Signature
	PublicSignatureKey            crypto.PublicSignatureKey
	PublicEncryptionKey           crypto.PublicEncryptionKey
	PublicUserEncryptionKey       crypto.PublicEncryptionKey
	SealedPrivateUserEncryptionKey crypto.SealedPrivateEncryptionKey
	IsGhostDevice                 bool
}

func (DeviceCreation3) Nature() Nature { return NatureDeviceCreation3 }
func (p DeviceCreation3) encode(w *serialize.Writer) {
	putFixed32(w, p.EphemeralPublicSignatureKey)
	putFixed32(w, p.UserID)
	putFixed64(w, p.DelegationSignature)
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed32(w, p.PublicUserEncryptionKey)
	putFixed80(w, p.SealedPrivateUserEncryptionKey)
	if p.IsGhostDevice {
		w.PutByte(1)
	} else {
		w.PutByte(0)
	}
}
func decodeDeviceCreation3(r *serialize.Reader) (Payload, error) {
	var p DeviceCreation3
	var err error
	if p.EphemeralPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.UserID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.DelegationSignature, err = getFixed64(r); err != nil {
		return nil, err
	}
	if p.PublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicUserEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.SealedPrivateUserEncryptionKey, err = getFixed80(r); err != nil {
		return nil, err
	}
	ghost, err := r.GetByte()
	if err != nil {
		return nil, err
	}
	p.IsGhostDevice = ghost != 0
	return p, nil
}

// DeviceRevocation1 is forbidden once the user has a public user key (see
// verify.VerifyDeviceRevocation1).
type DeviceRevocation1 struct {
	DeviceID crypto.DeviceID
}

func (DeviceRevocation1) Nature() Nature { return NatureDeviceRevocation1 }
func (p DeviceRevocation1) encode(w *serialize.Writer) {
	putFixed32(w, p.DeviceID)
}
func decodeDeviceRevocation1(r *serialize.Reader) (Payload, error) {
	id, err := getFixed32(r)
	return DeviceRevocation1{DeviceID: id}, err
}

// SealedKeyForDevice is one entry of DeviceRevocation2's per-device seal
// vector: the new private user key, sealed to that device's public
// encryption key.
type SealedKeyForDevice struct {
	DeviceID                   crypto.DeviceID
	SealedPrivateEncryptionKey crypto.SealedPrivateEncryptionKey
}

func putSealedKeyForDevice(w *serialize.Writer, e SealedKeyForDevice) {
	putFixed32(w, e.DeviceID)
	putFixed80(w, e.SealedPrivateEncryptionKey)
}

func getSealedKeyForDevice(r *serialize.Reader) (SealedKeyForDevice, error) {
	var e SealedKeyForDevice
	var err error
	if e.DeviceID, err = getFixed32(r); err != nil {
		return e, err
	}
	e.SealedPrivateEncryptionKey, err = getFixed80(r)
	return e, err
}

// DeviceRevocation2 rotates the user's key pair and reseals it to every
// remaining device.
type DeviceRevocation2 struct {
	DeviceID                     crypto.DeviceID
	PublicEncryptionKey          crypto.PublicEncryptionKey
	PreviousPublicEncryptionKey  crypto.PublicEncryptionKey
	SealedKeyForPreviousUserKey  crypto.SealedPrivateEncryptionKey
	SealedKeysForDevices         []SealedKeyForDevice
}

func (DeviceRevocation2) Nature() Nature { return NatureDeviceRevocation2 }
func (p DeviceRevocation2) encode(w *serialize.Writer) {
	putFixed32(w, p.DeviceID)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed32(w, p.PreviousPublicEncryptionKey)
	putFixed80(w, p.SealedKeyForPreviousUserKey)
	serialize.PutVector(w, p.SealedKeysForDevices, putSealedKeyForDevice)
}
func decodeDeviceRevocation2(r *serialize.Reader) (Payload, error) {
	var p DeviceRevocation2
	var err error
	if p.DeviceID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PreviousPublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.SealedKeyForPreviousUserKey, err = getFixed80(r); err != nil {
		return nil, err
	}
	p.SealedKeysForDevices, err = serialize.GetVector(r, getSealedKeyForDevice)
	return p, err
}

// KeyPublishToDevice addresses a resource key to one specific device's
// encryption key — the legacy (pre-user-key) key-publish shape.
type KeyPublishToDevice struct {
	RecipientDeviceID crypto.DeviceID
	ResourceID        crypto.SimpleResourceID
	SealedSymmetricKey crypto.SealedSymmetricKey
}

func (KeyPublishToDevice) Nature() Nature { return NatureKeyPublishToDevice }
func (p KeyPublishToDevice) encode(w *serialize.Writer) {
	putFixed32(w, p.RecipientDeviceID)
	putFixed16(w, p.ResourceID)
	putFixed80(w, p.SealedSymmetricKey)
}
func decodeKeyPublishToDevice(r *serialize.Reader) (Payload, error) {
	var p KeyPublishToDevice
	var err error
	if p.RecipientDeviceID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.ResourceID, err = getFixed16(r); err != nil {
		return nil, err
	}
	p.SealedSymmetricKey, err = getFixed80(r)
	return p, err
}

// KeyPublishToUser addresses a resource key to a user's public encryption
// key.
type KeyPublishToUser struct {
	RecipientPublicEncryptionKey crypto.PublicEncryptionKey
	ResourceID                   crypto.SimpleResourceID
	SealedSymmetricKey           crypto.SealedSymmetricKey
}

func (KeyPublishToUser) Nature() Nature { return NatureKeyPublishToUser }
func (p KeyPublishToUser) encode(w *serialize.Writer) {
	putFixed32(w, p.RecipientPublicEncryptionKey)
	putFixed16(w, p.ResourceID)
	putFixed80(w, p.SealedSymmetricKey)
}
func decodeKeyPublishToUser(r *serialize.Reader) (Payload, error) {
	var p KeyPublishToUser
	var err error
	if p.RecipientPublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.ResourceID, err = getFixed16(r); err != nil {
		return nil, err
	}
	p.SealedSymmetricKey, err = getFixed80(r)
	return p, err
}

// KeyPublishToUserGroup has the same wire shape as KeyPublishToUser; the
// recipient key is the target group's public encryption key.
type KeyPublishToUserGroup struct {
	RecipientPublicEncryptionKey crypto.PublicEncryptionKey
	ResourceID                   crypto.SimpleResourceID
	SealedSymmetricKey           crypto.SealedSymmetricKey
}

func (KeyPublishToUserGroup) Nature() Nature { return NatureKeyPublishToUserGroup }
func (p KeyPublishToUserGroup) encode(w *serialize.Writer) {
	putFixed32(w, p.RecipientPublicEncryptionKey)
	putFixed16(w, p.ResourceID)
	putFixed80(w, p.SealedSymmetricKey)
}
func decodeKeyPublishToUserGroup(r *serialize.Reader) (Payload, error) {
	var p KeyPublishToUserGroup
	var err error
	if p.RecipientPublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.ResourceID, err = getFixed16(r); err != nil {
		return nil, err
	}
	p.SealedSymmetricKey, err = getFixed80(r)
	return p, err
}

// KeyPublishToProvisionalUser addresses a resource key to a not-yet-claimed
// provisional identity, sealed twice (Tanker key, then app key).
type KeyPublishToProvisionalUser struct {
	AppPublicSignatureKey      crypto.PublicSignatureKey
	ResourceID                 crypto.SimpleResourceID
	TankerPublicSignatureKey   crypto.PublicSignatureKey
	TwoTimesSealedSymmetricKey crypto.TwoTimesSealedSymmetricKey
}

func (KeyPublishToProvisionalUser) Nature() Nature { return NatureKeyPublishToProvisionalUser }
func (p KeyPublishToProvisionalUser) encode(w *serialize.Writer) {
	putFixed32(w, p.AppPublicSignatureKey)
	putFixed16(w, p.ResourceID)
	putFixed32(w, p.TankerPublicSignatureKey)
	w.PutFixed(p.TwoTimesSealedSymmetricKey[:])
}
func decodeKeyPublishToProvisionalUser(r *serialize.Reader) (Payload, error) {
	var p KeyPublishToProvisionalUser
	var err error
	if p.AppPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.ResourceID, err = getFixed16(r); err != nil {
		return nil, err
	}
	if p.TankerPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	b, err := r.GetFixed(176)
	if err != nil {
		return nil, err
	}
	copy(p.TwoTimesSealedSymmetricKey[:], b)
	return p, nil
}

// UserGroupMemberV1 is one entry of a UserGroupCreation1/UserGroupAddition1
// member vector: the group's private encryption key sealed to one user's
// public encryption key.
type UserGroupMemberV1 struct {
	UserPublicEncryptionKey        crypto.PublicEncryptionKey
	SealedPrivateGroupEncryptionKey crypto.SealedPrivateEncryptionKey
}

func putUserGroupMemberV1(w *serialize.Writer, m UserGroupMemberV1) {
	putFixed32(w, m.UserPublicEncryptionKey)
	putFixed80(w, m.SealedPrivateGroupEncryptionKey)
}

func getUserGroupMemberV1(r *serialize.Reader) (UserGroupMemberV1, error) {
	var m UserGroupMemberV1
	var err error
	if m.UserPublicEncryptionKey, err = getFixed32(r); err != nil {
		return m, err
	}
	m.SealedPrivateGroupEncryptionKey, err = getFixed80(r)
	return m, err
}

// UserGroupMemberV2 additionally binds the member record to a UserID.
type UserGroupMemberV2 struct {
	UserID                          crypto.UserID
	UserPublicEncryptionKey         crypto.PublicEncryptionKey
	SealedPrivateGroupEncryptionKey crypto.SealedPrivateEncryptionKey
}

func putUserGroupMemberV2(w *serialize.Writer, m UserGroupMemberV2) {
	putFixed32(w, m.UserID)
	putFixed32(w, m.UserPublicEncryptionKey)
	putFixed80(w, m.SealedPrivateGroupEncryptionKey)
}

func getUserGroupMemberV2(r *serialize.Reader) (UserGroupMemberV2, error) {
	var m UserGroupMemberV2
	var err error
	if m.UserID, err = getFixed32(r); err != nil {
		return m, err
	}
	if m.UserPublicEncryptionKey, err = getFixed32(r); err != nil {
		return m, err
	}
	m.SealedPrivateGroupEncryptionKey, err = getFixed80(r)
	return m, err
}

// UserGroupProvisionalMember addresses the group's private encryption key
// to a not-yet-claimed provisional identity (double-sealed, as in
// KeyPublishToProvisionalUser).
type UserGroupProvisionalMember struct {
	AppPublicSignatureKey                      crypto.PublicSignatureKey
	TankerPublicSignatureKey                   crypto.PublicSignatureKey
	TwoTimesSealedPrivateGroupEncryptionKey crypto.TwoTimesSealedSymmetricKey
}

func putUserGroupProvisionalMember(w *serialize.Writer, m UserGroupProvisionalMember) {
	putFixed32(w, m.AppPublicSignatureKey)
	putFixed32(w, m.TankerPublicSignatureKey)
	w.PutFixed(m.TwoTimesSealedPrivateGroupEncryptionKey[:])
}

func getUserGroupProvisionalMember(r *serialize.Reader) (UserGroupProvisionalMember, error) {
	var m UserGroupProvisionalMember
	var err error
	if m.AppPublicSignatureKey, err = getFixed32(r); err != nil {
		return m, err
	}
	if m.TankerPublicSignatureKey, err = getFixed32(r); err != nil {
		return m, err
	}
	b, err := r.GetFixed(176)
	if err != nil {
		return m, err
	}
	copy(m.TwoTimesSealedPrivateGroupEncryptionKey[:], b)
	return m, nil
}

// UserGroupCreation1 creates a group, sealing its private keys to at least
// one user's public encryption key.
type UserGroupCreation1 struct {
	PublicSignatureKey        crypto.PublicSignatureKey
	PublicEncryptionKey       crypto.PublicEncryptionKey
	SealedPrivateSignatureKey crypto.SealedPrivateEncryptionKey
	Members                   []UserGroupMemberV1
	SelfSignature             crypto.Signature
}

func (UserGroupCreation1) Nature() Nature { return NatureUserGroupCreation1 }
func (p UserGroupCreation1) encode(w *serialize.Writer) {
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed80(w, p.SealedPrivateSignatureKey)
	serialize.PutVector(w, p.Members, putUserGroupMemberV1)
	putFixed64(w, p.SelfSignature)
}
func decodeUserGroupCreation1(r *serialize.Reader) (Payload, error) {
	var p UserGroupCreation1
	var err error
	if p.PublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.SealedPrivateSignatureKey, err = getFixed80(r); err != nil {
		return nil, err
	}
	if p.Members, err = serialize.GetVector(r, getUserGroupMemberV1); err != nil {
		return nil, err
	}
	p.SelfSignature, err = getFixed64(r)
	return p, err
}

// PreimageWithoutSelfSignature returns the fields a UserGroupCreation1's
// SelfSignature covers (everything except the signature itself).
func (p UserGroupCreation1) PreimageWithoutSelfSignature() []byte {
	w := serialize.NewWriter(0)
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed80(w, p.SealedPrivateSignatureKey)
	serialize.PutVector(w, p.Members, putUserGroupMemberV1)
	return w.Bytes()
}

// UserGroupCreation2 additionally supports sealing group keys to
// not-yet-claimed provisional identities.
type UserGroupCreation2 struct {
	PublicSignatureKey        crypto.PublicSignatureKey
	PublicEncryptionKey       crypto.PublicEncryptionKey
	SealedPrivateSignatureKey crypto.SealedPrivateEncryptionKey
	Members                   []UserGroupMemberV2
	ProvisionalMembers        []UserGroupProvisionalMember
	SelfSignature             crypto.Signature
}

func (UserGroupCreation2) Nature() Nature { return NatureUserGroupCreation2 }
func (p UserGroupCreation2) encode(w *serialize.Writer) {
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed80(w, p.SealedPrivateSignatureKey)
	serialize.PutVector(w, p.Members, putUserGroupMemberV2)
	serialize.PutVector(w, p.ProvisionalMembers, putUserGroupProvisionalMember)
	putFixed64(w, p.SelfSignature)
}
func decodeUserGroupCreation2(r *serialize.Reader) (Payload, error) {
	var p UserGroupCreation2
	var err error
	if p.PublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.SealedPrivateSignatureKey, err = getFixed80(r); err != nil {
		return nil, err
	}
	if p.Members, err = serialize.GetVector(r, getUserGroupMemberV2); err != nil {
		return nil, err
	}
	if p.ProvisionalMembers, err = serialize.GetVector(r, getUserGroupProvisionalMember); err != nil {
		return nil, err
	}
	p.SelfSignature, err = getFixed64(r)
	return p, err
}

// PreimageWithoutSelfSignature returns the fields a UserGroupCreation2's
// SelfSignature covers.
func (p UserGroupCreation2) PreimageWithoutSelfSignature() []byte {
	w := serialize.NewWriter(0)
	putFixed32(w, p.PublicSignatureKey)
	putFixed32(w, p.PublicEncryptionKey)
	putFixed80(w, p.SealedPrivateSignatureKey)
	serialize.PutVector(w, p.Members, putUserGroupMemberV2)
	serialize.PutVector(w, p.ProvisionalMembers, putUserGroupProvisionalMember)
	return w.Bytes()
}

// UserGroupAddition1 adds members to a group created by UserGroupCreation1.
type UserGroupAddition1 struct {
	GroupID                crypto.GroupID
	PreviousGroupBlockHash crypto.Hash
	Members                []UserGroupMemberV1
	SelfSignature          crypto.Signature
}

func (UserGroupAddition1) Nature() Nature { return NatureUserGroupAddition1 }
func (p UserGroupAddition1) encode(w *serialize.Writer) {
	putFixed32(w, p.GroupID)
	putFixed32(w, p.PreviousGroupBlockHash)
	serialize.PutVector(w, p.Members, putUserGroupMemberV1)
	putFixed64(w, p.SelfSignature)
}
func decodeUserGroupAddition1(r *serialize.Reader) (Payload, error) {
	var p UserGroupAddition1
	var err error
	if p.GroupID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PreviousGroupBlockHash, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.Members, err = serialize.GetVector(r, getUserGroupMemberV1); err != nil {
		return nil, err
	}
	p.SelfSignature, err = getFixed64(r)
	return p, err
}

// PreimageWithoutSelfSignature returns the fields a UserGroupAddition1's
// SelfSignature covers.
func (p UserGroupAddition1) PreimageWithoutSelfSignature() []byte {
	w := serialize.NewWriter(0)
	putFixed32(w, p.GroupID)
	putFixed32(w, p.PreviousGroupBlockHash)
	serialize.PutVector(w, p.Members, putUserGroupMemberV1)
	return w.Bytes()
}

// UserGroupAddition2 adds members (and provisional members) to a group
// created by UserGroupCreation2.
type UserGroupAddition2 struct {
	GroupID                crypto.GroupID
	PreviousGroupBlockHash crypto.Hash
	Members                []UserGroupMemberV2
	ProvisionalMembers     []UserGroupProvisionalMember
	SelfSignature          crypto.Signature
}

func (UserGroupAddition2) Nature() Nature { return NatureUserGroupAddition2 }
func (p UserGroupAddition2) encode(w *serialize.Writer) {
	putFixed32(w, p.GroupID)
	putFixed32(w, p.PreviousGroupBlockHash)
	serialize.PutVector(w, p.Members, putUserGroupMemberV2)
	serialize.PutVector(w, p.ProvisionalMembers, putUserGroupProvisionalMember)
	putFixed64(w, p.SelfSignature)
}
func decodeUserGroupAddition2(r *serialize.Reader) (Payload, error) {
	var p UserGroupAddition2
	var err error
	if p.GroupID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.PreviousGroupBlockHash, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.Members, err = serialize.GetVector(r, getUserGroupMemberV2); err != nil {
		return nil, err
	}
	if p.ProvisionalMembers, err = serialize.GetVector(r, getUserGroupProvisionalMember); err != nil {
		return nil, err
	}
	p.SelfSignature, err = getFixed64(r)
	return p, err
}

// PreimageWithoutSelfSignature returns the fields a UserGroupAddition2's
// SelfSignature covers.
func (p UserGroupAddition2) PreimageWithoutSelfSignature() []byte {
	w := serialize.NewWriter(0)
	putFixed32(w, p.GroupID)
	putFixed32(w, p.PreviousGroupBlockHash)
	serialize.PutVector(w, p.Members, putUserGroupMemberV2)
	serialize.PutVector(w, p.ProvisionalMembers, putUserGroupProvisionalMember)
	return w.Bytes()
}

// ProvisionalIdentityClaim attaches a claimed provisional identity to the
// claiming user. SealedPrivateKeys holds one 32-byte key, the Tanker
// private encryption key, sealed twice to the user's current public
// encryption key; the app private encryption key is not carried.
type ProvisionalIdentityClaim struct {
	UserID                  crypto.UserID
	AppPublicSignatureKey   crypto.PublicSignatureKey
	TankerPublicSignatureKey crypto.PublicSignatureKey
	AuthorSigByAppKey       crypto.Signature
	AuthorSigByTankerKey    crypto.Signature
	UserPublicEncryptionKey crypto.PublicEncryptionKey
	SealedPrivateKeys       crypto.TwoTimesSealedSymmetricKey
}

func (ProvisionalIdentityClaim) Nature() Nature { return NatureProvisionalIdentityClaim }
func (p ProvisionalIdentityClaim) encode(w *serialize.Writer) {
	putFixed32(w, p.UserID)
	putFixed32(w, p.AppPublicSignatureKey)
	putFixed32(w, p.TankerPublicSignatureKey)
	putFixed64(w, p.AuthorSigByAppKey)
	putFixed64(w, p.AuthorSigByTankerKey)
	putFixed32(w, p.UserPublicEncryptionKey)
	w.PutFixed(p.SealedPrivateKeys[:])
}
func decodeProvisionalIdentityClaim(r *serialize.Reader) (Payload, error) {
	var p ProvisionalIdentityClaim
	var err error
	if p.UserID, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.AppPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.TankerPublicSignatureKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	if p.AuthorSigByAppKey, err = getFixed64(r); err != nil {
		return nil, err
	}
	if p.AuthorSigByTankerKey, err = getFixed64(r); err != nil {
		return nil, err
	}
	if p.UserPublicEncryptionKey, err = getFixed32(r); err != nil {
		return nil, err
	}
	b, err := r.GetFixed(176)
	if err != nil {
		return nil, err
	}
	copy(p.SealedPrivateKeys[:], b)
	return p, nil
}

// PreimageWithoutSignatures returns the fields covered by a
// ProvisionalIdentityClaim's author/app/tanker signatures: everything
// except the signatures themselves.
func (p ProvisionalIdentityClaim) PreimageWithoutSignatures() []byte {
	w := serialize.NewWriter(0)
	putFixed32(w, p.UserID)
	putFixed32(w, p.AppPublicSignatureKey)
	putFixed32(w, p.TankerPublicSignatureKey)
	putFixed32(w, p.UserPublicEncryptionKey)
	w.PutFixed(p.SealedPrivateKeys[:])
	return w.Bytes()
}

// decoders maps each Nature to its payload decoder.
var decoders = map[Nature]func(*serialize.Reader) (Payload, error){
	NatureTrustchainCreation:          decodeTrustchainCreation,
	NatureDeviceCreation1:             decodeDeviceCreation1,
	NatureDeviceCreation2:             decodeDeviceCreation2,
	NatureDeviceCreation3:             decodeDeviceCreation3,
	NatureDeviceRevocation1:           decodeDeviceRevocation1,
	NatureDeviceRevocation2:           decodeDeviceRevocation2,
	NatureKeyPublishToDevice:          decodeKeyPublishToDevice,
	NatureKeyPublishToUser:            decodeKeyPublishToUser,
	NatureKeyPublishToUserGroup:       decodeKeyPublishToUserGroup,
	NatureKeyPublishToProvisionalUser: decodeKeyPublishToProvisionalUser,
	NatureUserGroupCreation1:          decodeUserGroupCreation1,
	NatureUserGroupCreation2:          decodeUserGroupCreation2,
	NatureUserGroupAddition1:          decodeUserGroupAddition1,
	NatureUserGroupAddition2:          decodeUserGroupAddition2,
	NatureProvisionalIdentityClaim:    decodeProvisionalIdentityClaim,
}

// ErrUnknownNature is returned when decoding an action whose nature tag has
// no registered payload decoder.
var ErrUnknownNature = fmt.Errorf("tanker/action: unknown nature")

func decodePayload(n Nature, r *serialize.Reader) (Payload, error) {
	dec, ok := decoders[n]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNature, n)
	}
	return dec(r)
}
