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
	"fmt"
	"time"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/coalescer"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/internal/metrics"
)

// KeyPublishFetcher fetches the KeyPublish action addressing each
// requested resource id from the trustchain. Ids the server has no
// KeyPublish for are simply absent from the returned map, matching
// coalescer.Handler's "unresolved ids are omitted" contract.
type KeyPublishFetcher interface {
	FetchKeyPublishes(ctx context.Context, ids []crypto.SimpleResourceID) (map[crypto.SimpleResourceID]action.Action, error)
}

// ResourceKeyAccessor resolves resource symmetric keys: a per-process
// cache first, then a coalesced fetch-and-decrypt round trip through the
// transport. Mirrors ReceiveKey::decryptAndStoreKey's dispatch over the
// four KeyPublish natures, fronted by ResourceKeys::Store's caching.
type ResourceKeyAccessor struct {
	fetcher     KeyPublishFetcher
	users       *UserAccessor
	groups      *GroupAccessor
	provisional *ProvisionalAccessor

	localDeviceID      crypto.DeviceID
	localDeviceKeyPair crypto.EncryptionKeyPair

	cache *keyCache
	batch *coalescer.Coalescer[crypto.SimpleResourceID, crypto.SymmetricKey]
}

// NewResourceKeyAccessor builds a ResourceKeyAccessor. window bounds how
// long FindKey waits for concurrent requests to an overlapping id set to
// join a single fetch (see coalescer).
func NewResourceKeyAccessor(
	fetcher KeyPublishFetcher,
	users *UserAccessor,
	groups *GroupAccessor,
	provisional *ProvisionalAccessor,
	localDeviceID crypto.DeviceID,
	localDeviceKeyPair crypto.EncryptionKeyPair,
	window time.Duration,
) *ResourceKeyAccessor {
	r := &ResourceKeyAccessor{
		fetcher:            fetcher,
		users:              users,
		groups:             groups,
		provisional:        provisional,
		localDeviceID:      localDeviceID,
		localDeviceKeyPair: localDeviceKeyPair,
		cache:              newKeyCache(),
	}
	r.batch = coalescer.New("resourcekey", window, r.resolveBatch)
	return r
}

// FindKey resolves the symmetric key for each requested resource id,
// serving already-resolved ids from cache and coalescing the rest into
// one fetch-and-decrypt round trip.
func (r *ResourceKeyAccessor) FindKey(ctx context.Context, ids []crypto.SimpleResourceID) (map[crypto.SimpleResourceID]crypto.SymmetricKey, error) {
	out := make(map[crypto.SimpleResourceID]crypto.SymmetricKey, len(ids))
	var misses []crypto.SimpleResourceID
	for _, id := range ids {
		if key, ok := r.cache.get(id); ok {
			metrics.ResourceKeyCacheLookups.WithLabelValues("hit").Inc()
			out[id] = key
		} else {
			metrics.ResourceKeyCacheLookups.WithLabelValues("miss").Inc()
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	resolved, err := r.batch.Get(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, key := range resolved {
		out[id] = key
	}
	return out, nil
}

func (r *ResourceKeyAccessor) resolveBatch(ctx context.Context, ids []crypto.SimpleResourceID) (map[crypto.SimpleResourceID]crypto.SymmetricKey, error) {
	start := time.Now()
	published, err := r.fetcher.FetchKeyPublishes(ctx, ids)
	metrics.FetchDuration.WithLabelValues("resourcekey").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResourceKeyFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ResourceKeyFetches.WithLabelValues("success").Inc()
	metrics.CoalescedBatchSize.WithLabelValues("resourcekey").Observe(float64(len(published)))

	out := make(map[crypto.SimpleResourceID]crypto.SymmetricKey, len(published))
	for id, a := range published {
		key, err := r.decryptKeyPublish(a)
		if err != nil {
			return nil, err
		}
		r.cache.put(id, key)
		out[id] = key
	}
	return out, nil
}

func (r *ResourceKeyAccessor) decryptKeyPublish(a action.Action) (crypto.SymmetricKey, error) {
	switch p := a.Payload.(type) {
	case action.KeyPublishToDevice:
		if p.RecipientDeviceID != r.localDeviceID {
			return crypto.SymmetricKey{}, ErrKeyNotOwned
		}
		plain, err := crypto.SealDecrypt(p.SealedSymmetricKey[:], r.localDeviceKeyPair)
		if err != nil {
			return crypto.SymmetricKey{}, err
		}
		return crypto.NewSymmetricKeyFromSlice(plain)

	case action.KeyPublishToUser:
		kp, ok := r.users.OwnedKeyPair(p.RecipientPublicEncryptionKey)
		if !ok {
			return crypto.SymmetricKey{}, ErrKeyNotOwned
		}
		plain, err := crypto.SealDecrypt(p.SealedSymmetricKey[:], kp)
		if err != nil {
			return crypto.SymmetricKey{}, err
		}
		return crypto.NewSymmetricKeyFromSlice(plain)

	case action.KeyPublishToUserGroup:
		kp, ok := r.groups.GetEncryptionKeyPair(p.RecipientPublicEncryptionKey)
		if !ok {
			return crypto.SymmetricKey{}, ErrKeyNotOwned
		}
		plain, err := crypto.SealDecrypt(p.SealedSymmetricKey[:], kp)
		if err != nil {
			return crypto.SymmetricKey{}, err
		}
		return crypto.NewSymmetricKeyFromSlice(plain)

	case action.KeyPublishToProvisionalUser:
		appKeys, tankerKeys, found, err := r.provisional.FindProvisionalKeyPair(context.Background(), p.AppPublicSignatureKey, p.TankerPublicSignatureKey)
		if err != nil {
			return crypto.SymmetricKey{}, err
		}
		if !found {
			return crypto.SymmetricKey{}, ErrKeyNotOwned
		}
		return crypto.OpenTwoTimesSymmetricKey(p.TwoTimesSealedSymmetricKey, appKeys, tankerKeys)

	default:
		return crypto.SymmetricKey{}, fmt.Errorf("%w: %T for key publish", ErrUnexpectedPayload, p)
	}
}
