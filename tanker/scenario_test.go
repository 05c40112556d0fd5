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

package tanker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/envelope"
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/store/memory"
	"github.com/sage-x-project/tanker/tanker"
	"github.com/sage-x-project/tanker/tkerr"
	"github.com/sage-x-project/tanker/transport"
	"github.com/sage-x-project/tanker/transport/fake"
)

// testTrustchain builds a fresh fake server rooted at a freshly generated
// trustchain key pair, for scenarios that need more than one client.
type testTrustchain struct {
	id     crypto.TrustchainID
	kp     crypto.SignatureKeyPair
	server *fake.Server
}

func newTestTrustchain(t *testing.T) *testTrustchain {
	t.Helper()
	kp, err := crypto.MakeSignatureKeyPair()
	require.NoError(t, err)
	var id crypto.TrustchainID
	require.NoError(t, crypto.RandomFill(id[:]))

	root := action.Action{TrustchainID: id, Payload: action.TrustchainCreation{PublicSignatureKey: kp.Public}}
	root.Sign(kp.Private)

	return &testTrustchain{id: id, kp: kp, server: fake.NewServer(root)}
}

// registerUser generates a fresh identity for appUserID, starts a Client
// against tc's server, and completes RegisterIdentity. The returned
// Client is already at StatusReady.
func (tc *testTrustchain) registerUser(t *testing.T, appUserID string) (*tanker.Client, crypto.UserID) {
	t.Helper()

	id, err := identity.Generate(tc.id, tc.kp.Private, appUserID)
	require.NoError(t, err)
	blob, err := id.Serialize()
	require.NoError(t, err)

	c := tanker.New(tanker.Config{
		Trustchain:                   tc.id,
		TrustchainPublicSignatureKey: tc.kp.Public,
		Transport:                    transport.Client(tc.server),
		Backend:                      memory.NewBackend(),
	})

	status, err := c.Start(context.Background(), blob)
	require.NoError(t, err)
	require.Equal(t, tanker.StatusIdentityRegistrationNeeded, status)

	verification := transport.VerificationMethod{Kind: "passphrase", Value: appUserID + "-passphrase"}
	require.NoError(t, c.RegisterIdentity(context.Background(), blob, verification))
	require.Equal(t, tanker.StatusReady, c.Status())

	return c, id.UserID()
}

func TestEncryptDecryptRoundTripDirectShare(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())
	bob, bobID := tc.registerUser(t, "bob")
	defer bob.Stop(context.Background())

	plaintext := []byte("hello from alice")
	ciphertext, err := alice.Encrypt(context.Background(), plaintext, tanker.EncryptOptions{
		ShareOptions: tanker.ShareOptions{Users: []crypto.UserID{bobID}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, ciphertext)

	decrypted, err := bob.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptRoundTripSelfOnly(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())

	plaintext := []byte("just for me")
	ciphertext, err := alice.Encrypt(context.Background(), plaintext, tanker.EncryptOptions{})
	require.NoError(t, err)

	decrypted, err := alice.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestDecryptUnknownResourceFails(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())
	bob, _ := tc.registerUser(t, "bob")
	defer bob.Stop(context.Background())

	// alice never shares this with bob.
	ciphertext, err := alice.Encrypt(context.Background(), []byte("secret"), tanker.EncryptOptions{})
	require.NoError(t, err)

	_, err = bob.Decrypt(context.Background(), ciphertext)
	require.Error(t, err)
	var tkErr *tkerr.Error
	require.True(t, errors.As(err, &tkErr))
	require.Equal(t, tanker.DecryptionFailed, tkErr.Kind)
}

func TestShareGrantsAccessAfterEncrypt(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())
	bob, bobID := tc.registerUser(t, "bob")
	defer bob.Stop(context.Background())

	plaintext := []byte("shared later")
	ciphertext, err := alice.Encrypt(context.Background(), plaintext, tanker.EncryptOptions{})
	require.NoError(t, err)

	resourceID, err := envelope.ExtractResourceID(ciphertext)
	require.NoError(t, err)

	_, err = bob.Decrypt(context.Background(), ciphertext)
	require.Error(t, err)

	require.NoError(t, alice.Share(context.Background(), []crypto.SimpleResourceID{resourceID}, tanker.ShareOptions{Users: []crypto.UserID{bobID}}))

	decrypted, err := bob.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestCreateGroupCreatorCanDecryptOwnShare(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, aliceID := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())
	bob, bobID := tc.registerUser(t, "bob")
	defer bob.Stop(context.Background())

	groupID, err := alice.CreateGroup(context.Background(), []crypto.UserID{aliceID, bobID})
	require.NoError(t, err)
	require.NotEqual(t, crypto.GroupID{}, groupID)

	plaintext := []byte("to the group")
	ciphertext, err := alice.Encrypt(context.Background(), plaintext, tanker.EncryptOptions{
		ShareOptions: tanker.ShareOptions{Groups: []crypto.GroupID{groupID}},
	})
	require.NoError(t, err)

	decrypted, err := alice.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestCreateGroupRejectsEmptyMemberList(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())

	_, err := alice.CreateGroup(context.Background(), nil)
	require.Error(t, err)
	var tkErr *tkerr.Error
	require.True(t, errors.As(err, &tkErr))
	require.Equal(t, tanker.InvalidArgument, tkErr.Kind)
}

func TestVerifyIdentityNewDeviceSeesOlderResources(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, aliceID := tc.registerUser(t, "alice")

	plaintext := []byte("from before the new device existed")
	ciphertext, err := alice.Encrypt(context.Background(), plaintext, tanker.EncryptOptions{})
	require.NoError(t, err)
	require.NoError(t, alice.Stop(context.Background()))

	id, err := identity.Generate(tc.id, tc.kp.Private, "alice")
	require.NoError(t, err)
	require.Equal(t, aliceID, id.UserID())
	blob, err := id.Serialize()
	require.NoError(t, err)

	newDevice := tanker.New(tanker.Config{
		Trustchain:                   tc.id,
		TrustchainPublicSignatureKey: tc.kp.Public,
		Transport:                    transport.Client(tc.server),
		Backend:                      memory.NewBackend(),
	})
	defer newDevice.Stop(context.Background())

	status, err := newDevice.Start(context.Background(), blob)
	require.NoError(t, err)
	require.Equal(t, tanker.StatusIdentityVerificationNeeded, status)

	verification := transport.VerificationMethod{Kind: "passphrase", Value: "alice-passphrase"}
	require.NoError(t, newDevice.VerifyIdentity(context.Background(), blob, verification))
	require.Equal(t, tanker.StatusReady, newDevice.Status())

	decrypted, err := newDevice.Decrypt(context.Background(), ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestEncryptionSessionSealsMultiplePayloadsUnderOneResource(t *testing.T) {
	tc := newTestTrustchain(t)
	alice, _ := tc.registerUser(t, "alice")
	defer alice.Stop(context.Background())
	bob, bobID := tc.registerUser(t, "bob")
	defer bob.Stop(context.Background())

	session, err := alice.CreateEncryptionSession(context.Background(), tanker.ShareOptions{Users: []crypto.UserID{bobID}})
	require.NoError(t, err)

	first, err := session.Encrypt([]byte("first message"))
	require.NoError(t, err)
	second, err := session.Encrypt([]byte("second message"))
	require.NoError(t, err)

	bobSession, err := bob.OpenEncryptionSession(context.Background(), session.ResourceID())
	require.NoError(t, err)

	plain1, err := bobSession.Decrypt(first)
	require.NoError(t, err)
	require.Equal(t, []byte("first message"), plain1)

	plain2, err := bobSession.Decrypt(second)
	require.NoError(t, err)
	require.Equal(t, []byte("second message"), plain2)
}

func TestStopIsIdempotentAndSafeBeforeStart(t *testing.T) {
	tc := newTestTrustchain(t)
	c := tanker.New(tanker.Config{
		Trustchain:                   tc.id,
		TrustchainPublicSignatureKey: tc.kp.Public,
		Transport:                    transport.Client(tc.server),
		Backend:                      memory.NewBackend(),
	})
	require.NoError(t, c.Stop(context.Background()))
	require.Equal(t, tanker.StatusStopped, c.Status())

	alice, _ := tc.registerUser(t, "alice")
	require.NoError(t, alice.Stop(context.Background()))
	require.NoError(t, alice.Stop(context.Background()))
	require.Equal(t, tanker.StatusStopped, alice.Status())
}

func TestStartRejectsIdentityFromAnotherTrustchain(t *testing.T) {
	tc := newTestTrustchain(t)
	other := newTestTrustchain(t)

	id, err := identity.Generate(other.id, other.kp.Private, "alice")
	require.NoError(t, err)
	blob, err := id.Serialize()
	require.NoError(t, err)

	c := tanker.New(tanker.Config{
		Trustchain:                   tc.id,
		TrustchainPublicSignatureKey: tc.kp.Public,
		Transport:                    transport.Client(tc.server),
		Backend:                      memory.NewBackend(),
	})

	_, err = c.Start(context.Background(), blob)
	require.Error(t, err)
	var tkErr *tkerr.Error
	require.True(t, errors.As(err, &tkErr))
	require.Equal(t, tanker.InvalidArgument, tkErr.Kind)
}
