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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/identity"
	"github.com/sage-x-project/tanker/store/memory"
	"github.com/sage-x-project/tanker/tanker"
	"github.com/sage-x-project/tanker/transport"
	"github.com/sage-x-project/tanker/transport/fake"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a self-contained demo: two users, a group, and a round trip",
	Long: `Run a self-contained demo against an in-memory trustchain: register two
users, have the first create a group containing both of them, encrypt a
message shared directly with the second user, and have that user decrypt it.

Nothing here touches the network or disk; it exists to give a newcomer a
runnable tour of the client's operations without standing up a server.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	trustchainKP, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return fmt.Errorf("generate trustchain key pair: %w", err)
	}
	var trustchainID crypto.TrustchainID
	if err := crypto.RandomFill(trustchainID[:]); err != nil {
		return fmt.Errorf("generate trustchain id: %w", err)
	}
	root := action.Action{TrustchainID: trustchainID, Payload: action.TrustchainCreation{PublicSignatureKey: trustchainKP.Public}}
	root.Sign(trustchainKP.Private)
	server := fake.NewServer(root)

	alice, aliceID, err := demoRegister(ctx, trustchainID, trustchainKP, server, "alice")
	if err != nil {
		return err
	}
	defer alice.Stop(ctx)

	bob, bobID, err := demoRegister(ctx, trustchainID, trustchainKP, server, "bob")
	if err != nil {
		return err
	}
	defer bob.Stop(ctx)

	fmt.Printf("registered alice (%x) and bob (%x)\n", aliceID, bobID)

	groupID, err := alice.CreateGroup(ctx, []crypto.UserID{aliceID, bobID})
	if err != nil {
		return fmt.Errorf("alice: create group: %w", err)
	}
	fmt.Printf("alice created group %x\n", groupID)

	plaintext := []byte("hello from alice")
	ciphertext, err := alice.Encrypt(ctx, plaintext, tanker.EncryptOptions{
		ShareOptions: tanker.ShareOptions{Users: []crypto.UserID{bobID}},
	})
	if err != nil {
		return fmt.Errorf("alice: encrypt: %w", err)
	}
	fmt.Printf("alice encrypted %d bytes into %d bytes, shared directly with bob\n", len(plaintext), len(ciphertext))

	decrypted, err := bob.Decrypt(ctx, ciphertext)
	if err != nil {
		return fmt.Errorf("bob: decrypt: %w", err)
	}
	fmt.Printf("bob decrypted: %q\n", decrypted)
	return nil
}

func demoRegister(ctx context.Context, trustchainID crypto.TrustchainID, trustchainKP crypto.SignatureKeyPair, server *fake.Server, appUserID string) (*tanker.Client, crypto.UserID, error) {
	id, err := identity.Generate(trustchainID, trustchainKP.Private, appUserID)
	if err != nil {
		return nil, crypto.UserID{}, fmt.Errorf("%s: generate identity: %w", appUserID, err)
	}
	blob, err := id.Serialize()
	if err != nil {
		return nil, crypto.UserID{}, fmt.Errorf("%s: serialize identity: %w", appUserID, err)
	}

	c := tanker.New(tanker.Config{
		Trustchain:                   trustchainID,
		TrustchainPublicSignatureKey: trustchainKP.Public,
		Transport:                    transport.Client(server),
		Backend:                      memory.NewBackend(),
	})

	status, err := c.Start(ctx, blob)
	if err != nil {
		return nil, crypto.UserID{}, fmt.Errorf("%s: start: %w", appUserID, err)
	}
	if status != tanker.StatusIdentityRegistrationNeeded {
		return nil, crypto.UserID{}, fmt.Errorf("%s: unexpected status %s", appUserID, status)
	}

	verification := transport.VerificationMethod{Kind: "passphrase", Value: appUserID + "-passphrase"}
	if err := c.RegisterIdentity(ctx, blob, verification); err != nil {
		return nil, crypto.UserID{}, fmt.Errorf("%s: register: %w", appUserID, err)
	}
	return c, id.UserID(), nil
}
