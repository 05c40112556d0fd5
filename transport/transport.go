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

// Package transport states the HTTP surface a trustchain server exposes
// as a Go interface, Client, so the rest of this module depends on a
// contract rather than a concrete HTTP stack. This module ships only
// that contract and an in-memory fake (transport/fake) for tests; a real
// HTTP implementation is an external collaborator's responsibility.
package transport

import (
	"context"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
)

// ChallengePrefix is the fixed sentinel every auth challenge must start
// with. A caller MUST validate this prefix before signing a challenge:
// skipping the check lets a malicious or out-of-date server get a
// device to sign an arbitrary message.
const ChallengePrefix = "\U0001F512 Auth Challenge. 1234567890."

// VerificationMethod carries whichever proof registerIdentity/
// verifyIdentity is submitting: an email or SMS out-of-band code, a
// passphrase, an OIDC id token, or a pre-generated verification key.
type VerificationMethod struct {
	Kind  string
	Value string
}

// UsersResponse is the result of GetUsers: the trustchain's root
// TrustchainCreation action plus, for each requested user id, that
// user's ordered device history.
type UsersResponse struct {
	Root    action.Action
	Devices map[crypto.UserID][]action.Action
}

// RegisterUserRequest bundles the atomic first-registration operation:
// a ghost device, a first device delegated by it, and an encrypted
// verification key the server stores opaquely until verifyIdentity
// retrieves it.
type RegisterUserRequest struct {
	GhostDeviceCreation      action.Action
	FirstDeviceCreation      action.Action
	EncryptedVerificationKey []byte
	Verification             VerificationMethod
}

// PublishResourceKeysRequest bundles the three key-publish vectors a
// single encrypt/share call produces; the server accepts or rejects
// them as one transaction (§5 ordering guarantee).
type PublishResourceKeysRequest struct {
	ToUser             []action.Action
	ToUserGroup        []action.Action
	ToProvisionalUser  []action.Action
}

// Client is the trustchain server's HTTP surface, restated as a Go
// interface (§6 "collaborator contract, observable only"). Method names
// mirror the listed endpoints.
type Client interface {
	// GetUsers fetches the root action and device history for each of
	// userIDs. GET /users?user_ids=[].
	GetUsers(ctx context.Context, userIDs []crypto.UserID) (UsersResponse, error)

	// RegisterUser registers a new user. POST /users/{id}.
	RegisterUser(ctx context.Context, userID crypto.UserID, req RegisterUserRequest) error

	// GetChallenge starts device authentication. POST /devices/{id}/challenges.
	GetChallenge(ctx context.Context, deviceID crypto.DeviceID) (string, error)

	// CreateSession exchanges a signed challenge for an access token.
	// POST /devices/{id}/sessions.
	CreateSession(ctx context.Context, deviceID crypto.DeviceID, challenge string, signature crypto.Signature, signaturePublicKey crypto.PublicSignatureKey) (accessToken string, err error)

	// EndSession tears down the current device session.
	// DELETE /devices/{id}/sessions.
	EndSession(ctx context.Context, deviceID crypto.DeviceID) error

	// GetResourceKeys fetches the KeyPublish action for each requested
	// resource id. Ids with no publish are simply absent from the
	// result. GET /resource-keys?resource_ids=[].
	GetResourceKeys(ctx context.Context, resourceIDs []crypto.SimpleResourceID) ([]action.Action, error)

	// PublishResourceKeys submits a batch of key-publish actions.
	// POST /resource-keys.
	PublishResourceKeys(ctx context.Context, req PublishResourceKeysRequest) error

	// CreateUserGroup submits a UserGroupCreation action.
	// POST /user-groups.
	CreateUserGroup(ctx context.Context, creation action.Action) error

	// PatchUserGroup submits a UserGroupAddition action against an
	// existing group. PATCH /user-groups/{id}.
	PatchUserGroup(ctx context.Context, groupID crypto.GroupID, addition action.Action) error
}
