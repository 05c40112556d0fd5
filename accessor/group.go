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

package accessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/group"
	"github.com/sage-x-project/tanker/internal/metrics"
)

// GroupAccessor caches the folded state group.ApplyUserGroupCreation and
// group.ApplyUserGroupAddition produce, keyed by group id, and answers
// the group-related questions verify.State and ResourceKeyAccessor need.
type GroupAccessor struct {
	mu          sync.RWMutex
	groups      map[crypto.GroupID]group.Group
	members     map[crypto.GroupID]map[crypto.UserID]struct{}
	rotationHash map[crypto.GroupID]crypto.Hash
	archive     *group.Archive

	users       group.UserKeyProvider
	provisional group.ProvisionalKeyProvider
}

// NewGroupAccessor builds an empty GroupAccessor. users and provisional
// are consulted to decide whether a newly folded group is internal
// (local user can open it) or external.
func NewGroupAccessor(users group.UserKeyProvider, provisional group.ProvisionalKeyProvider) *GroupAccessor {
	return &GroupAccessor{
		groups:       make(map[crypto.GroupID]group.Group),
		members:      make(map[crypto.GroupID]map[crypto.UserID]struct{}),
		rotationHash: make(map[crypto.GroupID]crypto.Hash),
		archive:      group.NewArchive(),
		users:        users,
		provisional:  provisional,
	}
}

// ApplyUserGroupCreation folds a verified UserGroupCreation action and
// records the resulting group state.
func (g *GroupAccessor) ApplyUserGroupCreation(ctx context.Context, a action.Action) (group.Group, error) {
	start := time.Now()
	version := groupActionVersion(a.Payload)

	gr, err := group.ApplyUserGroupCreation(ctx, g.users, g.provisional, a)
	metrics.GroupApplyDuration.WithLabelValues("creation").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GroupApplyFailed.WithLabelValues(groupApplyFailureReason(err)).Inc()
		return nil, err
	}
	metrics.GroupsCreated.WithLabelValues(version).Inc()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups[gr.ID()] = gr
	g.rotationHash[gr.ID()] = a.Hash()
	g.members[gr.ID()] = memberUserIDs(a.Payload)
	return gr, nil
}

// ApplyUserGroupAddition folds a verified UserGroupAddition action on top
// of whatever group state is already cached for its group id.
func (g *GroupAccessor) ApplyUserGroupAddition(ctx context.Context, a action.Action) (group.Group, error) {
	start := time.Now()
	version := groupActionVersion(a.Payload)

	groupID, err := additionGroupID(a.Payload)
	if err != nil {
		metrics.GroupApplyFailed.WithLabelValues(groupApplyFailureReason(err)).Inc()
		return nil, err
	}

	g.mu.Lock()
	previous := g.groups[groupID]
	g.mu.Unlock()

	gr, err := group.ApplyUserGroupAddition(ctx, g.users, g.provisional, previous, a)
	metrics.GroupApplyDuration.WithLabelValues("addition").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GroupApplyFailed.WithLabelValues(groupApplyFailureReason(err)).Inc()
		return nil, err
	}
	metrics.GroupsModified.WithLabelValues(version).Inc()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups[groupID] = gr
	added := memberUserIDs(a.Payload)
	if existing := g.members[groupID]; existing == nil {
		g.members[groupID] = added
	} else {
		for id := range added {
			existing[id] = struct{}{}
		}
	}
	return gr, nil
}

// Get returns the cached group state for id, if known.
func (g *GroupAccessor) Get(id crypto.GroupID) (group.Group, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	gr, ok := g.groups[id]
	return gr, ok
}

// ArchiveRotatedKey records a group encryption key pair superseded by a
// key rotation (a fresh UserGroupCreation replacing this GroupID's
// members), so resources published under it remain decryptable.
func (g *GroupAccessor) ArchiveRotatedKey(kp crypto.EncryptionKeyPair) {
	g.archive.Put(kp)
}

// GetEncryptionKeyPair returns the encryption key pair whose public key
// is pub, searching both the live group cache and the rotation archive.
// Mirrors Groups::IAccessor::getEncryptionKeyPair, consulted by
// ResourceKeyAccessor for KeyPublishToUserGroup.
func (g *GroupAccessor) GetEncryptionKeyPair(pub crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, gr := range g.groups {
		if internal, ok := gr.(*group.InternalGroup); ok && internal.EncryptionKeyPair.Public == pub {
			return internal.EncryptionKeyPair, true
		}
	}
	return g.archive.Find(pub)
}

// GroupLastKeyRotationBlockHash implements verify.State.
func (g *GroupAccessor) GroupLastKeyRotationBlockHash(groupID crypto.GroupID) (crypto.Hash, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.rotationHash[groupID]
	return h, ok
}

// AuthorBelongsToGroup implements verify.State. Membership is tracked
// only for v2 member/provisional-member entries, which carry a UserID;
// v1 entries address a bare public encryption key and contribute nothing
// to this set (see DESIGN.md).
func (g *GroupAccessor) AuthorBelongsToGroup(authorUserID crypto.UserID, groupID crypto.GroupID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	members, ok := g.members[groupID]
	if !ok {
		return false
	}
	_, isMember := members[authorUserID]
	return isMember
}

func memberUserIDs(payload action.Payload) map[crypto.UserID]struct{} {
	out := make(map[crypto.UserID]struct{})
	switch p := payload.(type) {
	case action.UserGroupCreation2:
		for _, m := range p.Members {
			out[m.UserID] = struct{}{}
		}
	case action.UserGroupAddition2:
		for _, m := range p.Members {
			out[m.UserID] = struct{}{}
		}
	}
	return out
}

func groupActionVersion(payload action.Payload) string {
	switch payload.(type) {
	case action.UserGroupCreation1, action.UserGroupAddition1:
		return "v1"
	default:
		return "v2"
	}
}

// groupApplyFailureReason buckets an apply error into the small label set
// GroupApplyFailed expects, falling back to a generic bucket rather than
// exploding cardinality with raw error strings.
func groupApplyFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedPayload):
		return "malformed_payload"
	case err != nil:
		return "apply_rejected"
	default:
		return "unknown"
	}
}

func additionGroupID(payload action.Payload) (crypto.GroupID, error) {
	switch p := payload.(type) {
	case action.UserGroupAddition1:
		return p.GroupID, nil
	case action.UserGroupAddition2:
		return p.GroupID, nil
	default:
		return crypto.GroupID{}, fmt.Errorf("%w: %T for group addition", ErrUnexpectedPayload, p)
	}
}
