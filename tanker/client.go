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

// Package tanker orchestrates one user's session against a trustchain
// server: parsing an identity, registering or verifying a device,
// folding the verified action log into queryable state, and exposing
// encrypt/decrypt/share/group operations on top of it. Every other
// package in this module (crypto, action, verify, envelope, accessor,
// group, encsession, identity, store, transport) is a collaborator this
// package wires together; none of them know about each other directly.
package tanker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/tanker/accessor"
	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope"
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/internal/logger"
	"github.com/sage-x-project/tanker/store"
	"github.com/sage-x-project/tanker/tanker/taskscope"
	"github.com/sage-x-project/tanker/transport"
	"github.com/sage-x-project/tanker/verify"
)

// Status is a session's place in the identity lifecycle.
type Status int

const (
	StatusStopped Status = iota
	StatusIdentityRegistrationNeeded
	StatusIdentityVerificationNeeded
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusIdentityRegistrationNeeded:
		return "IdentityRegistrationNeeded"
	case StatusIdentityVerificationNeeded:
		return "IdentityVerificationNeeded"
	case StatusReady:
		return "Ready"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Config bundles everything a Client needs to reach a trustchain server
// and persist its session locally. Backend is opened into an encrypted
// Store once Start resolves the owning identity's user secret — the
// Client cannot do so any earlier, since the secret comes from the
// identity blob itself.
type Config struct {
	Trustchain                   crypto.TrustchainID
	TrustchainPublicSignatureKey crypto.PublicSignatureKey
	Transport                    transport.Client
	Backend                      store.Backend

	// PaddingStep controls single-shot Encrypt's padding; the zero value
	// is envelope.PaddingAuto.
	PaddingStep envelope.PaddingStep
	// EncryptedChunkSize sizes EncryptStream's chunks; 0 defaults to
	// envelope.DefaultEncryptedChunkSize.
	EncryptedChunkSize uint32
	// CoalesceWindow bounds how long concurrent resource-key lookups
	// wait to join a single fetch; 0 defaults to 10ms.
	CoalesceWindow time.Duration

	Logger logger.Logger
}

func (c Config) withDefaults() Config {
	if c.EncryptedChunkSize == 0 {
		c.EncryptedChunkSize = envelope.DefaultEncryptedChunkSize
	}
	if c.CoalesceWindow == 0 {
		c.CoalesceWindow = 10 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = logger.NewDefaultLogger()
	}
	return c
}

// Client is a single user's session against a trustchain: local device
// identity, persisted store, and the accessor state every operation
// folds verified actions into. Create one per session; Stop it when
// done.
type Client struct {
	cfg Config

	mu     sync.RWMutex
	status Status

	store store.Store

	userID        crypto.UserID
	userSecret    identity.UserSecret
	deviceID      crypto.DeviceID
	deviceKeys    store.DeviceKeys
	isGhostDevice bool
	// userKeyPairs is every user key pair this device knows of, oldest
	// first, mirrored into store.DeviceData on every persist.
	userKeyPairs []crypto.EncryptionKeyPair

	users        *accessor.UserAccessor
	groups       *accessor.GroupAccessor
	provisional  *accessor.ProvisionalAccessor
	resourceKeys *accessor.ResourceKeyAccessor

	scope *taskscope.Scope
	// criticalSection serializes Stop against Nuke and deauthenticate-
	// style operations, which must never interleave.
	criticalSection sync.Mutex
}

// New builds a Client bound to cfg. Call Start to resolve an identity
// and reach StatusReady.
func New(cfg Config) *Client {
	return &Client{cfg: cfg.withDefaults(), status: StatusStopped}
}

// Status returns the session's current lifecycle stage.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Stop cancels every task derived from the session's scope and closes
// the local store. It awaits nothing: in-flight tasks unwind on their
// own schedule once they observe cancellation. Safe to call on a
// session that was never started.
func (c *Client) Stop(ctx context.Context) error {
	c.criticalSection.Lock()
	defer c.criticalSection.Unlock()

	if c.scope != nil {
		c.scope.Stop()
	}
	c.setStatus(StatusStopped)
	if c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		return wrap(IOError, "Client.Stop", err)
	}
	return nil
}

// Nuke irrecoverably wipes the local store, for use once a session's
// local state is known corrupt or unrecoverable (§7). Shares
// criticalSection with Stop so the two never interleave.
func (c *Client) Nuke(ctx context.Context) error {
	c.criticalSection.Lock()
	defer c.criticalSection.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Nuke(ctx); err != nil {
		return wrap(InternalError, "Client.Nuke", err)
	}
	return nil
}

func (c *Client) initAccessors(ownedKeyPairs []crypto.EncryptionKeyPair) {
	c.users = accessor.NewUserAccessor(c.cfg.TrustchainPublicSignatureKey, ownedKeyPairs...)
	c.provisional = accessor.NewProvisionalAccessor()
	c.groups = accessor.NewGroupAccessor(c.users, c.provisional)
	c.resourceKeys = accessor.NewResourceKeyAccessor(
		transportKeyPublishFetcher{c.cfg.Transport},
		c.users,
		c.groups,
		c.provisional,
		c.deviceID,
		c.deviceKeys.EncryptionKeyPair,
		c.cfg.CoalesceWindow,
	)
}

// syncUsers fetches and folds the device history of userIDs (always
// including the local user) into the accessor state. A single
// unverifiable or unapplicable action is logged and skipped — it never
// aborts the rest of the batch (§7).
func (c *Client) syncUsers(ctx context.Context, userIDs ...crypto.UserID) error {
	resp, err := c.cfg.Transport.GetUsers(ctx, userIDs)
	if err != nil {
		return wrap(NetworkError, "Client.syncUsers", err)
	}
	if verr := verify.VerifyTrustchainCreation(resp.Root, rootPayload(resp.Root)); verr != nil {
		return wrap(InternalError, "Client.syncUsers", verr)
	}

	for userID, history := range resp.Devices {
		for _, a := range history {
			if verr := verify.Verify(a, c.users); verr != nil {
				c.cfg.Logger.Error("skipping unverifiable action",
					logger.String("user", fmt.Sprintf("%x", userID)),
					logger.Kind("nature", a.Nature()),
					logger.Kind("reject_kind", verr.Kind),
					logger.Error(verr))
				continue
			}
			if err := c.applyUserAction(a); err != nil {
				c.cfg.Logger.Error("skipping unapplicable action",
					logger.String("user", fmt.Sprintf("%x", userID)),
					logger.Kind("nature", a.Nature()),
					logger.Error(err))
				continue
			}
		}
	}
	return nil
}

func rootPayload(a action.Action) action.TrustchainCreation {
	p, _ := a.Payload.(action.TrustchainCreation)
	return p
}

func (c *Client) applyUserAction(a action.Action) error {
	switch a.Nature() {
	case action.NatureDeviceCreation1, action.NatureDeviceCreation2, action.NatureDeviceCreation3:
		return c.users.ApplyDeviceCreation(a)
	case action.NatureDeviceRevocation1, action.NatureDeviceRevocation2:
		return c.users.ApplyDeviceRevocation(a, c.deviceID, c.deviceKeys.EncryptionKeyPair)
	default:
		return nil
	}
}

func (c *Client) persistDeviceData(ctx context.Context) error {
	data := &store.DeviceData{
		Version:                      store.DeviceDataVersion,
		TrustchainPublicSignatureKey: c.cfg.TrustchainPublicSignatureKey,
		DeviceID:                     c.deviceID,
		DeviceKeys:                   c.deviceKeys,
		UserKeyPairs:                 c.userKeyPairs,
	}
	return c.store.PutDeviceData(ctx, data)
}

// adoptUserKeyPair records a newly learned or created user key pair,
// both in the accessor (so it can open seals addressed to it) and in
// the set persistDeviceData mirrors to the store.
func (c *Client) adoptUserKeyPair(kp crypto.EncryptionKeyPair) {
	c.userKeyPairs = append(c.userKeyPairs, kp)
	c.users.RegisterOwnedKeyPair(kp)
}

// transportKeyPublishFetcher adapts transport.Client.GetResourceKeys's
// flat action slice into the map-by-resource-id shape
// accessor.KeyPublishFetcher expects.
type transportKeyPublishFetcher struct {
	transport transport.Client
}

func (f transportKeyPublishFetcher) FetchKeyPublishes(ctx context.Context, ids []crypto.SimpleResourceID) (map[crypto.SimpleResourceID]action.Action, error) {
	actions, err := f.transport.GetResourceKeys(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[crypto.SimpleResourceID]action.Action, len(actions))
	for _, a := range actions {
		id, ok := resourceIDOf(a.Payload)
		if !ok {
			continue
		}
		out[id] = a
	}
	return out, nil
}

func resourceIDOf(p action.Payload) (crypto.SimpleResourceID, bool) {
	switch v := p.(type) {
	case action.KeyPublishToDevice:
		return v.ResourceID, true
	case action.KeyPublishToUser:
		return v.ResourceID, true
	case action.KeyPublishToUserGroup:
		return v.ResourceID, true
	case action.KeyPublishToProvisionalUser:
		return v.ResourceID, true
	default:
		return crypto.SimpleResourceID{}, false
	}
}
