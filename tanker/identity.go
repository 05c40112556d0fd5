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
	"github.com/sage-x-project/tanker/envelope"
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/serialize"
	"github.com/sage-x-project/tanker/store"
	"github.com/sage-x-project/tanker/tanker/taskscope"
	"github.com/sage-x-project/tanker/transport"
)

// VerificationKeyFetcher is an optional transport.Client capability:
// implementations that can retrieve the encrypted verification key a
// user registered during RegisterIdentity implement this. transport/fake
// implements it directly; a real HTTP client would fold the fetch into
// its device-verification exchange rather than expose a standalone
// endpoint for it.
type VerificationKeyFetcher interface {
	GetVerificationKey(ctx context.Context, userID crypto.UserID, verification transport.VerificationMethod) ([]byte, error)
}

// DeviceRegistrar is an optional transport.Client capability: the
// RegisterUser/RegisterUserRequest shape only covers a user's first two
// devices atomically, with no endpoint for devices added afterward by
// VerifyIdentity. transport/fake implements this directly; a real server
// would expose it as its own device-creation endpoint.
type DeviceRegistrar interface {
	AddDevice(ctx context.Context, creation action.Action) error
}

// delegationPreimage mirrors verify.delegationPreimage and
// identity.delegationPreimage (both unexported, each in a package this
// one cannot reach into): the bytes a delegation signature covers.
func delegationPreimage(ephemeralKey crypto.PublicSignatureKey, userID crypto.UserID) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, ephemeralKey[:]...)
	buf = append(buf, userID[:]...)
	return buf
}

// verificationKey bundles everything VerifyIdentity needs to derive a new
// device without the ghost device's ephemeral private key ever leaving
// this process: the ghost device's own signing key pair (identical to
// the identity's ephemeral key pair), its encryption key pair, and the
// user's encryption key pair. Sealed under the user secret with EncryptV2
// and handed to the server opaquely at RegisterIdentity time.
type verificationKey struct {
	ghostSig crypto.SignatureKeyPair
	ghostEnc crypto.EncryptionKeyPair
	userKP   crypto.EncryptionKeyPair
}

func (k verificationKey) encode() []byte {
	w := serialize.NewWriter(224)
	w.PutFixed(k.ghostSig.Public[:])
	w.PutFixed(k.ghostSig.Private[:])
	w.PutFixed(k.ghostEnc.Public[:])
	w.PutFixed(k.ghostEnc.Private[:])
	w.PutFixed(k.userKP.Public[:])
	w.PutFixed(k.userKP.Private[:])
	return w.Bytes()
}

func decodeVerificationKey(blob []byte) (verificationKey, error) {
	r := serialize.NewReader(blob)
	var k verificationKey
	fields := []struct {
		dst []byte
	}{
		{k.ghostSig.Public[:]}, {k.ghostSig.Private[:]},
		{k.ghostEnc.Public[:]}, {k.ghostEnc.Private[:]},
		{k.userKP.Public[:]}, {k.userKP.Private[:]},
	}
	for _, f := range fields {
		b, err := r.GetFixed(len(f.dst))
		if err != nil {
			return verificationKey{}, fmt.Errorf("tanker: decode verification key: %w", err)
		}
		copy(f.dst, b)
	}
	if err := r.FinishTopLevel(); err != nil {
		return verificationKey{}, fmt.Errorf("tanker: decode verification key: %w", err)
	}
	return k, nil
}

// Start parses identityBlob and resolves the session's place in the
// identity lifecycle: a fresh device sees
// StatusIdentityRegistrationNeeded, a device the server already knows
// about but whose local store is empty sees
// StatusIdentityVerificationNeeded, and a device with a populated local
// store is StatusReady immediately (§4).
func (c *Client) Start(ctx context.Context, identityBlob string) (Status, error) {
	id, err := identity.Deserialize(identityBlob)
	if err != nil {
		return StatusStopped, wrap(InvalidArgument, "Client.Start", err)
	}
	if id.TrustchainID != c.cfg.Trustchain {
		return StatusStopped, wrap(InvalidArgument, "Client.Start", fmt.Errorf("identity belongs to a different trustchain"))
	}

	c.userID = id.UserID()
	c.userSecret = id.UserSecret
	c.scope = taskscope.New(ctx)

	s := store.Open(c.cfg.Backend, c.userSecret)
	c.store = s

	data, found, err := s.GetDeviceData(ctx)
	if err != nil {
		return StatusStopped, wrap(IOError, "Client.Start", err)
	}
	if !found {
		resp, err := c.cfg.Transport.GetUsers(ctx, []crypto.UserID{c.userID})
		if err != nil {
			return StatusStopped, wrap(NetworkError, "Client.Start", err)
		}
		if len(resp.Devices[c.userID]) == 0 {
			c.setStatus(StatusIdentityRegistrationNeeded)
			return c.Status(), nil
		}
		c.setStatus(StatusIdentityVerificationNeeded)
		return c.Status(), nil
	}

	c.deviceID = data.DeviceID
	c.deviceKeys = data.DeviceKeys
	c.userKeyPairs = append([]crypto.EncryptionKeyPair(nil), data.UserKeyPairs...)
	c.initAccessors(c.userKeyPairs)
	if err := c.syncUsers(ctx, c.userID); err != nil {
		return StatusStopped, err
	}
	c.setStatus(StatusReady)
	return c.Status(), nil
}

// RegisterIdentity registers a brand-new user: a ghost device delegated
// directly by the trustchain (carrying the user's only key pair, sealed
// to itself), and a first real device delegated by the ghost. Mirrors
// Unlock::Registration's two-action atomic registration, generalized
// from a single legacy-unlock-key verification method to any
// transport.VerificationMethod (§4).
func (c *Client) RegisterIdentity(ctx context.Context, identityBlob string, verification transport.VerificationMethod) error {
	id, err := identity.Deserialize(identityBlob)
	if err != nil {
		return wrap(InvalidArgument, "Client.RegisterIdentity", err)
	}
	if id.TrustchainID != c.cfg.Trustchain {
		return wrap(InvalidArgument, "Client.RegisterIdentity", fmt.Errorf("identity belongs to a different trustchain"))
	}

	userID := id.UserID()

	ghostEnc, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	userKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	sealedUserKey, err := crypto.SealEncrypt(userKP.Private[:], ghostEnc.Public)
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	var sealedUserKeyFixed crypto.SealedPrivateEncryptionKey
	copy(sealedUserKeyFixed[:], sealedUserKey)

	ghostAction := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.cfg.Trustchain),
		Payload: action.DeviceCreation3{
			EphemeralPublicSignatureKey:    id.EphemeralPublicSignatureKey,
			UserID:                         userID,
			DelegationSignature:            id.DelegationSignature,
			PublicSignatureKey:             id.EphemeralPublicSignatureKey,
			PublicEncryptionKey:            ghostEnc.Public,
			PublicUserEncryptionKey:        userKP.Public,
			SealedPrivateUserEncryptionKey: sealedUserKeyFixed,
			IsGhostDevice:                  true,
		},
	}
	ghostAction.Sign(id.EphemeralPrivateSignatureKey)

	deviceSigKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	deviceEncKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	delegEphemeral, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	delegSig := crypto.Sign(delegationPreimage(delegEphemeral.Public, userID), id.EphemeralPrivateSignatureKey)

	sealedUserKeyForDevice, err := crypto.SealEncrypt(userKP.Private[:], deviceEncKP.Public)
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}
	var sealedUserKeyForDeviceFixed crypto.SealedPrivateEncryptionKey
	copy(sealedUserKeyForDeviceFixed[:], sealedUserKeyForDevice)

	firstDeviceAction := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       ghostAction.Hash(),
		Payload: action.DeviceCreation3{
			EphemeralPublicSignatureKey:    delegEphemeral.Public,
			UserID:                         userID,
			DelegationSignature:            delegSig,
			PublicSignatureKey:             deviceSigKP.Public,
			PublicEncryptionKey:            deviceEncKP.Public,
			PublicUserEncryptionKey:        userKP.Public,
			SealedPrivateUserEncryptionKey: sealedUserKeyForDeviceFixed,
			IsGhostDevice:                  false,
		},
	}
	firstDeviceAction.Sign(deviceSigKP.Private)

	vk := verificationKey{ghostSig: crypto.SignatureKeyPair{Public: id.EphemeralPublicSignatureKey, Private: id.EphemeralPrivateSignatureKey}, ghostEnc: ghostEnc, userKP: userKP}
	encryptedVK, err := envelope.EncryptV2(crypto.SymmetricKey(id.UserSecret), vk.encode())
	if err != nil {
		return wrap(InternalError, "Client.RegisterIdentity", err)
	}

	req := transport.RegisterUserRequest{
		GhostDeviceCreation:      ghostAction,
		FirstDeviceCreation:      firstDeviceAction,
		EncryptedVerificationKey: encryptedVK,
		Verification:             verification,
	}
	if err := c.cfg.Transport.RegisterUser(ctx, userID, req); err != nil {
		return wrap(NetworkError, "Client.RegisterIdentity", err)
	}

	c.userID = userID
	c.userSecret = id.UserSecret
	c.scope = taskscope.New(ctx)
	c.store = store.Open(c.cfg.Backend, c.userSecret)
	c.deviceID = crypto.DeviceID(firstDeviceAction.Hash())
	c.deviceKeys = store.DeviceKeys{SignatureKeyPair: deviceSigKP, EncryptionKeyPair: deviceEncKP}
	c.userKeyPairs = []crypto.EncryptionKeyPair{userKP}
	c.initAccessors(c.userKeyPairs)

	if err := c.syncUsers(ctx, c.userID); err != nil {
		return err
	}
	if err := c.persistDeviceData(ctx); err != nil {
		return wrap(IOError, "Client.RegisterIdentity", err)
	}
	c.setStatus(StatusReady)
	return nil
}

// VerifyIdentity proves ownership of an already-registered identity on a
// new device: it fetches the verification key published at registration
// time, decrypts it under the identity's user secret, recovers the ghost
// device's signing key, and publishes a new DeviceCreation3 delegated by
// it — the same shape RegisterIdentity's first-device action takes,
// just issued later and by a different device (§4).
func (c *Client) VerifyIdentity(ctx context.Context, identityBlob string, verification transport.VerificationMethod) error {
	id, err := identity.Deserialize(identityBlob)
	if err != nil {
		return wrap(InvalidArgument, "Client.VerifyIdentity", err)
	}
	if id.TrustchainID != c.cfg.Trustchain {
		return wrap(InvalidArgument, "Client.VerifyIdentity", fmt.Errorf("identity belongs to a different trustchain"))
	}
	userID := id.UserID()

	fetcher, ok := c.cfg.Transport.(VerificationKeyFetcher)
	if !ok {
		return wrap(InternalError, "Client.VerifyIdentity", fmt.Errorf("transport does not support verification key retrieval"))
	}
	encryptedVK, err := fetcher.GetVerificationKey(ctx, userID, verification)
	if err != nil {
		return wrap(NetworkError, "Client.VerifyIdentity", err)
	}
	plainVK, err := envelope.DecryptV2(crypto.SymmetricKey(id.UserSecret), encryptedVK)
	if err != nil {
		return wrap(InvalidVerification, "Client.VerifyIdentity", err)
	}
	vk, err := decodeVerificationKey(plainVK)
	if err != nil {
		return wrap(InvalidVerification, "Client.VerifyIdentity", err)
	}

	resp, err := c.cfg.Transport.GetUsers(ctx, []crypto.UserID{userID})
	if err != nil {
		return wrap(NetworkError, "Client.VerifyIdentity", err)
	}
	var ghostDeviceID crypto.DeviceID
	found := false
	for _, a := range resp.Devices[userID] {
		if p, ok := a.Payload.(action.DeviceCreation3); ok && p.IsGhostDevice {
			ghostDeviceID = crypto.DeviceID(a.Hash())
			found = true
			break
		}
	}
	if !found {
		return wrap(InternalError, "Client.VerifyIdentity", fmt.Errorf("no ghost device found in user history"))
	}

	deviceSigKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.VerifyIdentity", err)
	}
	deviceEncKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.VerifyIdentity", err)
	}
	delegEphemeral, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return wrap(InternalError, "Client.VerifyIdentity", err)
	}
	delegSig := crypto.Sign(delegationPreimage(delegEphemeral.Public, userID), vk.ghostSig.Private)

	sealedUserKey, err := crypto.SealEncrypt(vk.userKP.Private[:], deviceEncKP.Public)
	if err != nil {
		return wrap(InternalError, "Client.VerifyIdentity", err)
	}
	var sealedUserKeyFixed crypto.SealedPrivateEncryptionKey
	copy(sealedUserKeyFixed[:], sealedUserKey)

	newDeviceAction := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(ghostDeviceID),
		Payload: action.DeviceCreation3{
			EphemeralPublicSignatureKey:    delegEphemeral.Public,
			UserID:                         userID,
			DelegationSignature:            delegSig,
			PublicSignatureKey:             deviceSigKP.Public,
			PublicEncryptionKey:            deviceEncKP.Public,
			PublicUserEncryptionKey:        vk.userKP.Public,
			SealedPrivateUserEncryptionKey: sealedUserKeyFixed,
			IsGhostDevice:                  false,
		},
	}
	newDeviceAction.Sign(deviceSigKP.Private)

	if err := c.publishDeviceCreation(ctx, newDeviceAction); err != nil {
		return err
	}

	c.userID = userID
	c.userSecret = id.UserSecret
	c.scope = taskscope.New(ctx)
	c.store = store.Open(c.cfg.Backend, c.userSecret)
	c.deviceID = crypto.DeviceID(newDeviceAction.Hash())
	c.deviceKeys = store.DeviceKeys{SignatureKeyPair: deviceSigKP, EncryptionKeyPair: deviceEncKP}
	c.userKeyPairs = []crypto.EncryptionKeyPair{vk.userKP}
	c.initAccessors(c.userKeyPairs)

	if err := c.syncUsers(ctx, c.userID); err != nil {
		return err
	}
	if err := c.persistDeviceData(ctx); err != nil {
		return wrap(IOError, "Client.VerifyIdentity", err)
	}
	c.setStatus(StatusReady)
	return nil
}

// publishDeviceCreation submits a device creation action for a device
// added after initial registration, via the optional DeviceRegistrar
// capability (see its doc comment for why this isn't part of the core
// transport.Client contract).
func (c *Client) publishDeviceCreation(ctx context.Context, a action.Action) error {
	registrar, ok := c.cfg.Transport.(DeviceRegistrar)
	if !ok {
		return wrap(InternalError, "Client.publishDeviceCreation", fmt.Errorf("transport does not support adding a device to an existing user"))
	}
	if err := registrar.AddDevice(ctx, a); err != nil {
		return wrap(NetworkError, "Client.publishDeviceCreation", err)
	}
	return nil
}
