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

package group

import (
	"context"

	"github.com/sage-x-project/tanker/crypto"
)

// UserKeyProvider resolves a local user encryption key pair matching one
// of a set of candidate public keys - the group member entries a
// UserGroupCreation/UserGroupAddition addresses to users. Implemented by
// accessor.UserAccessor against current and historical user keys.
type UserKeyProvider interface {
	FindUserKeyPair(ctx context.Context, candidates []crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool, error)
}

// ProvisionalKeyProvider resolves the claimed app/Tanker key pairs for a
// provisional identity, used to open group keys sealed to not-yet-claimed
// members. Implemented by accessor.ProvisionalAccessor.
type ProvisionalKeyProvider interface {
	FindProvisionalKeyPair(ctx context.Context, appPublicSignatureKey, tankerPublicSignatureKey crypto.PublicSignatureKey) (appKeys, tankerKeys crypto.EncryptionKeyPair, found bool, err error)
}
