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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
)

type fakeFetcher struct {
	calls     atomic.Int32
	published map[crypto.SimpleResourceID]action.Action
}

func (f *fakeFetcher) FetchKeyPublishes(ctx context.Context, ids []crypto.SimpleResourceID) (map[crypto.SimpleResourceID]action.Action, error) {
	f.calls.Add(1)
	out := make(map[crypto.SimpleResourceID]action.Action, len(ids))
	for _, id := range ids {
		if a, ok := f.published[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func TestResourceKeyAccessorDecryptsKeyPublishToUser(t *testing.T) {
	trustchainSig, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	ua := NewUserAccessor(trustchainSig.Public)
	recipientKP, err := crypto.MakeEncryptionKeyPair()
	require.NoError(t, err)
	ua.RegisterOwnedKeyPair(recipientKP)
	ga := NewGroupAccessor(ua, nil)
	pa := NewProvisionalAccessor()

	var resourceID crypto.SimpleResourceID
	resourceID[0] = 1
	var symKey crypto.SymmetricKey
	for i := range symKey {
		symKey[i] = byte(i)
	}
	sealed, err := crypto.SealEncrypt(symKey[:], recipientKP.Public)
	require.NoError(t, err)
	var sealedFixed crypto.SealedSymmetricKey
	copy(sealedFixed[:], sealed)

	fetcher := &fakeFetcher{published: map[crypto.SimpleResourceID]action.Action{
		resourceID: {Payload: action.KeyPublishToUser{
			RecipientPublicEncryptionKey: recipientKP.Public,
			ResourceID:                   resourceID,
			SealedSymmetricKey:           sealedFixed,
		}},
	}}

	rka := NewResourceKeyAccessor(fetcher, ua, ga, pa, crypto.DeviceID{}, crypto.EncryptionKeyPair{}, 5*time.Millisecond)

	keys, err := rka.FindKey(context.Background(), []crypto.SimpleResourceID{resourceID})
	require.NoError(t, err)
	require.Equal(t, symKey, keys[resourceID])
	require.EqualValues(t, 1, fetcher.calls.Load())

	keys2, err := rka.FindKey(context.Background(), []crypto.SimpleResourceID{resourceID})
	require.NoError(t, err)
	require.Equal(t, symKey, keys2[resourceID])
	require.EqualValues(t, 1, fetcher.calls.Load(), "second FindKey is served from cache, no extra fetch")
}

func TestResourceKeyAccessorOmitsUnpublishedResource(t *testing.T) {
	trustchainSig, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	ua := NewUserAccessor(trustchainSig.Public)
	ga := NewGroupAccessor(ua, nil)
	pa := NewProvisionalAccessor()

	fetcher := &fakeFetcher{published: map[crypto.SimpleResourceID]action.Action{}}
	rka := NewResourceKeyAccessor(fetcher, ua, ga, pa, crypto.DeviceID{}, crypto.EncryptionKeyPair{}, 5*time.Millisecond)

	var resourceID crypto.SimpleResourceID
	resourceID[0] = 9
	keys, err := rka.FindKey(context.Background(), []crypto.SimpleResourceID{resourceID})
	require.NoError(t, err)
	require.Empty(t, keys)
}
