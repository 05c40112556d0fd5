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

// Package fake implements transport.Client entirely in memory, for tests
// exercising the client orchestration layer without a real trustchain
// server. It enforces only transport-boundary rules (challenge-response
// signatures, device and group existence); it issues access tokens but
// does not require them on later calls, and action-content verification
// is the verify package's job, not this fake's.
package fake

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/transport"
)

// Server is an in-memory trustchain server. The zero value is not
// usable; construct with NewServer.
type Server struct {
	mu sync.Mutex

	root action.Action

	// userDevices holds the ordered DeviceCreation/DeviceRevocation
	// history for each user this server has ever registered a device for.
	userDevices map[crypto.UserID][]action.Action

	// deviceSignatureKeys indexes every device's public signature key by
	// device id, for challenge-response verification.
	deviceSignatureKeys map[crypto.DeviceID]crypto.PublicSignatureKey

	encryptedVerificationKeys map[crypto.UserID][]byte
	verificationMethods       map[crypto.UserID]transport.VerificationMethod

	resourceKeys map[crypto.SimpleResourceID]action.Action

	// groupChains holds each group's full chain in application order:
	// the UserGroupCreation first, then every UserGroupAddition.
	groupChains map[crypto.GroupID][]action.Action

	// provisionalTankerKeys holds the Tanker half of every provisional
	// identity GetProvisionalIdentity has generated, keyed by
	// target/value so repeat calls for the same contact get the same
	// keys back.
	provisionalTankerKeys map[string]provisionalTankerKeyPair
	provisionalClaimed    map[string]bool
	provisionalClaims     []action.Action

	pendingChallenges map[crypto.DeviceID]string
	accessTokens      map[crypto.DeviceID]string

	nextToken int
}

type provisionalTankerKeyPair struct {
	signature  crypto.SignatureKeyPair
	encryption crypto.EncryptionKeyPair
}

// NewServer returns an empty server rooted at root (a signed
// TrustchainCreation action).
func NewServer(root action.Action) *Server {
	return &Server{
		root:                      root,
		userDevices:               make(map[crypto.UserID][]action.Action),
		deviceSignatureKeys:       make(map[crypto.DeviceID]crypto.PublicSignatureKey),
		encryptedVerificationKeys: make(map[crypto.UserID][]byte),
		verificationMethods:       make(map[crypto.UserID]transport.VerificationMethod),
		resourceKeys:              make(map[crypto.SimpleResourceID]action.Action),
		groupChains:               make(map[crypto.GroupID][]action.Action),
		provisionalTankerKeys:     make(map[string]provisionalTankerKeyPair),
		provisionalClaimed:        make(map[string]bool),
		pendingChallenges:         make(map[crypto.DeviceID]string),
		accessTokens:              make(map[crypto.DeviceID]string),
	}
}

func serverError(code string, status int, message string) *transport.Error {
	return &transport.Error{Code: code, Status: status, Message: message, TraceID: "fake-" + code}
}

func (s *Server) GetUsers(_ context.Context, userIDs []crypto.UserID) (transport.UsersResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := transport.UsersResponse{Root: s.root, Devices: make(map[crypto.UserID][]action.Action, len(userIDs))}
	for _, id := range userIDs {
		history := s.userDevices[id]
		resp.Devices[id] = append([]action.Action(nil), history...)
	}
	return resp, nil
}

func deviceCreationIdentity(a action.Action) (userID crypto.UserID, publicSignatureKey crypto.PublicSignatureKey, ok bool) {
	switch p := a.Payload.(type) {
	case action.DeviceCreation1:
		return p.UserID, p.PublicSignatureKey, true
	case action.DeviceCreation2:
		return p.UserID, p.PublicSignatureKey, true
	case action.DeviceCreation3:
		return p.UserID, p.PublicSignatureKey, true
	default:
		return crypto.UserID{}, crypto.PublicSignatureKey{}, false
	}
}

func (s *Server) registerDevice(a action.Action) error {
	userID, pub, ok := deviceCreationIdentity(a)
	if !ok {
		return serverError("invalid_body", 400, "expected a device creation action")
	}
	deviceID := crypto.DeviceID(a.Hash())
	s.userDevices[userID] = append(s.userDevices[userID], a)
	s.deviceSignatureKeys[deviceID] = pub
	return nil
}

func (s *Server) RegisterUser(_ context.Context, userID crypto.UserID, req transport.RegisterUserRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.userDevices[userID]) != 0 {
		return serverError("conflict", 409, "user already registered")
	}
	if err := s.registerDevice(req.GhostDeviceCreation); err != nil {
		return err
	}
	if err := s.registerDevice(req.FirstDeviceCreation); err != nil {
		return err
	}
	s.encryptedVerificationKeys[userID] = append([]byte(nil), req.EncryptedVerificationKey...)
	s.verificationMethods[userID] = req.Verification
	return nil
}

// EncryptedVerificationKey exposes the verification key verifyIdentity
// would fetch from the real server's equivalent (unlisted in §6's
// endpoint table because it rides along with GetChallenge/CreateSession
// in the real protocol; exposed directly here since this fake has no
// HTTP envelope to carry it in).
func (s *Server) EncryptedVerificationKey(userID crypto.UserID) ([]byte, transport.VerificationMethod, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.encryptedVerificationKeys[userID]
	return key, s.verificationMethods[userID], ok
}

// GetVerificationKey implements tanker.VerificationKeyFetcher, the
// optional transport capability verifyIdentity uses to retrieve the
// encrypted verification key a user registered during registerIdentity.
func (s *Server) GetVerificationKey(_ context.Context, userID crypto.UserID, verification transport.VerificationMethod) ([]byte, error) {
	key, method, ok := s.EncryptedVerificationKey(userID)
	if !ok {
		return nil, serverError("not_found", 404, "no verification key registered for user")
	}
	if method.Kind != verification.Kind {
		return nil, serverError("invalid_verification", 400, "verification method kind mismatch")
	}
	return key, nil
}

// AddDevice implements tanker.DeviceRegistrar, registering a device
// created after a user's initial registration (VerifyIdentity's path),
// which RegisterUser's atomic first-two-devices shape has no room for.
func (s *Server) AddDevice(_ context.Context, creation action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerDevice(creation)
}

func (s *Server) GetChallenge(_ context.Context, deviceID crypto.DeviceID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deviceSignatureKeys[deviceID]; !ok {
		return "", serverError("device_not_found", 404, "unknown device")
	}
	var nonce [16]byte
	if err := crypto.RandomFill(nonce[:]); err != nil {
		return "", serverError("internal_error", 500, err.Error())
	}
	challenge := transport.ChallengePrefix + hex.EncodeToString(nonce[:])
	s.pendingChallenges[deviceID] = challenge
	return challenge, nil
}

func (s *Server) CreateSession(_ context.Context, deviceID crypto.DeviceID, challenge string, signature crypto.Signature, signaturePublicKey crypto.PublicSignatureKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pendingChallenges[deviceID]
	if !ok || pending != challenge {
		return "", serverError("invalid_challenge_public_key", 401, "no matching pending challenge")
	}
	registeredKey, ok := s.deviceSignatureKeys[deviceID]
	if !ok || registeredKey != signaturePublicKey {
		return "", serverError("invalid_challenge_public_key", 401, "signature key does not match device")
	}
	if !crypto.Verify([]byte(challenge), signature, signaturePublicKey) {
		return "", serverError("invalid_challenge_signature", 401, "bad challenge signature")
	}

	delete(s.pendingChallenges, deviceID)
	s.nextToken++
	token := fmt.Sprintf("fake-token-%d", s.nextToken)
	s.accessTokens[deviceID] = token
	return token, nil
}

func (s *Server) EndSession(_ context.Context, deviceID crypto.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessTokens, deviceID)
	return nil
}

func resourceID(a action.Action) (crypto.SimpleResourceID, bool) {
	switch p := a.Payload.(type) {
	case action.KeyPublishToDevice:
		return p.ResourceID, true
	case action.KeyPublishToUser:
		return p.ResourceID, true
	case action.KeyPublishToUserGroup:
		return p.ResourceID, true
	case action.KeyPublishToProvisionalUser:
		return p.ResourceID, true
	default:
		return crypto.SimpleResourceID{}, false
	}
}

func (s *Server) GetResourceKeys(_ context.Context, resourceIDs []crypto.SimpleResourceID) ([]action.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]action.Action, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		if a, ok := s.resourceKeys[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Server) PublishResourceKeys(_ context.Context, req transport.PublishResourceKeysRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, vector := range [][]action.Action{req.ToUser, req.ToUserGroup, req.ToProvisionalUser} {
		for _, a := range vector {
			id, ok := resourceID(a)
			if !ok {
				return serverError("invalid_body", 400, "expected a key publish action")
			}
			s.resourceKeys[id] = a
		}
	}
	return nil
}

// groupIDOf recovers a UserGroupCreation{1,2}'s group id, defined as its
// embedded public signature key (the same convention verify.State and
// the group package use; it is not the action's hash).
func groupIDOf(a action.Action) (crypto.GroupID, bool) {
	switch p := a.Payload.(type) {
	case action.UserGroupCreation1:
		return crypto.GroupID(p.PublicSignatureKey), true
	case action.UserGroupCreation2:
		return crypto.GroupID(p.PublicSignatureKey), true
	default:
		return crypto.GroupID{}, false
	}
}

func (s *Server) CreateUserGroup(_ context.Context, creation action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupID, ok := groupIDOf(creation)
	if !ok {
		return serverError("invalid_body", 400, "expected a user group creation action")
	}
	if _, exists := s.groupChains[groupID]; exists {
		return serverError("conflict", 409, "group already exists")
	}
	s.groupChains[groupID] = []action.Action{creation}
	return nil
}

func (s *Server) PatchUserGroup(_ context.Context, groupID crypto.GroupID, addition action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.groupChains[groupID]
	if !ok {
		return serverError("not_a_user_group_member", 404, "unknown group")
	}
	s.groupChains[groupID] = append(chain, addition)
	return nil
}

// GroupChain returns a copy of the group's full chain, used by tests
// that want to feed a server-side view back through the verifier and
// accessor the way a real client would after CreateUserGroup/PatchUserGroup.
func (s *Server) GroupChain(groupID crypto.GroupID) []action.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]action.Action(nil), s.groupChains[groupID]...)
}

func provisionalIdentityKey(target identity.Target, value string) string {
	return string(target) + ":" + value
}

func provisionalClaimKey(appPub, tankerPub crypto.PublicSignatureKey) string {
	return hex.EncodeToString(appPub[:]) + ":" + hex.EncodeToString(tankerPub[:])
}

// GetProvisionalIdentity implements tanker.ProvisionalIdentityAttacher,
// handing back the Tanker half of a provisional identity once its
// target has been proven (this fake accepts any non-empty verification,
// since out-of-band target proof is outside this module's scope). The
// same target/value always recovers the same key pair.
func (s *Server) GetProvisionalIdentity(_ context.Context, target identity.Target, value string, verification transport.VerificationMethod) (crypto.SignatureKeyPair, crypto.EncryptionKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if verification.Value == "" {
		return crypto.SignatureKeyPair{}, crypto.EncryptionKeyPair{}, serverError("invalid_verification", 400, "missing verification")
	}

	key := provisionalIdentityKey(target, value)
	if kp, ok := s.provisionalTankerKeys[key]; ok {
		return kp.signature, kp.encryption, nil
	}

	sigKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return crypto.SignatureKeyPair{}, crypto.EncryptionKeyPair{}, serverError("internal_error", 500, err.Error())
	}
	encKP, err := crypto.MakeEncryptionKeyPair()
	if err != nil {
		return crypto.SignatureKeyPair{}, crypto.EncryptionKeyPair{}, serverError("internal_error", 500, err.Error())
	}
	s.provisionalTankerKeys[key] = provisionalTankerKeyPair{signature: sigKP, encryption: encKP}
	return sigKP, encKP, nil
}

// SubmitProvisionalIdentityClaim implements tanker.ProvisionalIdentityAttacher.
func (s *Server) SubmitProvisionalIdentityClaim(_ context.Context, claim action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := claim.Payload.(action.ProvisionalIdentityClaim)
	if !ok {
		return serverError("invalid_body", 400, "expected a provisional identity claim action")
	}
	key := provisionalClaimKey(p.AppPublicSignatureKey, p.TankerPublicSignatureKey)
	if s.provisionalClaimed[key] {
		return serverError("provisional_identity_already_attached", 409, "provisional identity already attached")
	}
	s.provisionalClaimed[key] = true
	s.provisionalClaims = append(s.provisionalClaims, claim)
	return nil
}

var _ transport.Client = (*Server)(nil)
