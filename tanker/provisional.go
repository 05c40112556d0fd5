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
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/transport"
)

// ProvisionalIdentityAttacher is the optional transport capability
// AttachProvisionalIdentity needs: a way to retrieve the Tanker half of
// a provisional identity once its target (email/phone) has been proven,
// and a way to submit the resulting claim. transport.Client carries
// neither, the same accepted-gap shape as VerificationKeyFetcher and
// DeviceRegistrar in identity.go.
type ProvisionalIdentityAttacher interface {
	// GetProvisionalIdentity proves ownership of target/value via
	// verification and returns the Tanker-held half of the provisional
	// identity's key pairs.
	GetProvisionalIdentity(ctx context.Context, target identity.Target, value string, verification transport.VerificationMethod) (tankerSignatureKeyPair crypto.SignatureKeyPair, tankerEncryptionKeyPair crypto.EncryptionKeyPair, err error)

	// SubmitProvisionalIdentityClaim submits a signed
	// ProvisionalIdentityClaim action.
	SubmitProvisionalIdentityClaim(ctx context.Context, claim action.Action) error
}

// AttachProvisionalIdentity binds provisional (the app-half secret
// handed to the local user out of band) to the local user's account.
// It proves ownership of the provisional identity's target via
// verification, recovers the Tanker half from the trustchain, and
// submits a ProvisionalIdentityClaim sealing the Tanker private
// encryption key so only the local user can ever recover it. On
// success the claimed key pairs are recorded locally so the accessor
// layer can open any KeyPublishToProvisionalUser or
// UserGroupProvisionalMember addressed to this identity.
func (c *Client) AttachProvisionalIdentity(ctx context.Context, provisional *identity.ProvisionalIdentity, verification transport.VerificationMethod) error {
	attacher, ok := c.cfg.Transport.(ProvisionalIdentityAttacher)
	if !ok {
		return wrap(NetworkError, "Client.AttachProvisionalIdentity", fmt.Errorf("transport does not support provisional identity attachment"))
	}

	selfPub, ok := c.users.UserCurrentPublicEncryptionKey(c.userID)
	if !ok {
		return wrap(PreconditionFailed, "Client.AttachProvisionalIdentity", fmt.Errorf("local user has no user key yet"))
	}

	tankerSigKP, tankerEncKP, err := attacher.GetProvisionalIdentity(ctx, provisional.Target, provisional.Value, verification)
	if err != nil {
		return wrap(InvalidVerification, "Client.AttachProvisionalIdentity", err)
	}

	sealed, err := crypto.SealTwoTimesSymmetricKey(crypto.SymmetricKey(tankerEncKP.Private), selfPub, selfPub)
	if err != nil {
		return wrap(InternalError, "Client.AttachProvisionalIdentity", err)
	}

	claim := action.ProvisionalIdentityClaim{
		UserID:                   c.userID,
		AppPublicSignatureKey:    provisional.PublicSignatureKey,
		TankerPublicSignatureKey: tankerSigKP.Public,
		UserPublicEncryptionKey:  selfPub,
		SealedPrivateKeys:        sealed,
	}
	preimage := claim.PreimageWithoutSignatures()
	claim.AuthorSigByAppKey = crypto.Sign(preimage, provisional.PrivateSignatureKey)
	claim.AuthorSigByTankerKey = crypto.Sign(preimage, tankerSigKP.Private)

	a := action.Action{
		TrustchainID: c.cfg.Trustchain,
		Author:       crypto.Hash(c.deviceID),
		Payload:      claim,
	}
	a.Sign(c.deviceKeys.SignatureKeyPair.Private)

	if err := attacher.SubmitProvisionalIdentityClaim(ctx, a); err != nil {
		return wrap(NetworkError, "Client.AttachProvisionalIdentity", err)
	}

	c.provisional.Claim(provisional.PublicSignatureKey, tankerSigKP.Public,
		crypto.EncryptionKeyPair{Public: provisional.PublicEncryptionKey, Private: provisional.PrivateEncryptionKey},
		tankerEncKP)
	return nil
}
