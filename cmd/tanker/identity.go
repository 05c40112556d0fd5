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
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/identity"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Issue and inspect identities",
}

var (
	identityTrustchainID   string
	identityTrustchainPriv string
	identityAppUserID      string
)

var identityNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Issue a fresh identity for an application user id",
	Long: `Issue a fresh identity for an application user id.

The resulting blob is handed to the end user's device, which passes it to
Client.RegisterIdentity (first device) or Client.Start/VerifyIdentity
(subsequent devices).`,
	RunE: runIdentityNew,
}

var identityPublicCmd = &cobra.Command{
	Use:   "public <identity>",
	Short: "Derive the public (shareable) half of an identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentityPublic,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityNewCmd)
	identityCmd.AddCommand(identityPublicCmd)

	identityNewCmd.Flags().StringVar(&identityTrustchainID, "trustchain-id", "", "trustchain id (hex, from trustchain create)")
	identityNewCmd.Flags().StringVar(&identityTrustchainPriv, "trustchain-private-key", "", "trustchain private signature key (base64, from trustchain create)")
	identityNewCmd.Flags().StringVar(&identityAppUserID, "app-user-id", "", "the application's own identifier for this user")
	identityNewCmd.MarkFlagRequired("trustchain-id")
	identityNewCmd.MarkFlagRequired("trustchain-private-key")
	identityNewCmd.MarkFlagRequired("app-user-id")
}

func runIdentityNew(cmd *cobra.Command, args []string) error {
	idBytes, err := hex.DecodeString(identityTrustchainID)
	if err != nil {
		return fmt.Errorf("decode --trustchain-id: %w", err)
	}
	var trustchainID crypto.TrustchainID
	if len(idBytes) != len(trustchainID) {
		return fmt.Errorf("--trustchain-id must be %d bytes, got %d", len(trustchainID), len(idBytes))
	}
	copy(trustchainID[:], idBytes)

	privBytes, err := base64.StdEncoding.DecodeString(identityTrustchainPriv)
	if err != nil {
		return fmt.Errorf("decode --trustchain-private-key: %w", err)
	}
	var priv crypto.PrivateSignatureKey
	if len(privBytes) != len(priv) {
		return fmt.Errorf("--trustchain-private-key must be %d bytes, got %d", len(priv), len(privBytes))
	}
	copy(priv[:], privBytes)

	id, err := identity.Generate(trustchainID, priv, identityAppUserID)
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}
	blob, err := id.Serialize()
	if err != nil {
		return fmt.Errorf("serialize identity: %w", err)
	}
	fmt.Println(blob)
	return nil
}

func runIdentityPublic(cmd *cobra.Command, args []string) error {
	id, err := identity.Deserialize(args[0])
	if err != nil {
		return fmt.Errorf("parse identity: %w", err)
	}
	blob, err := id.Public().Serialize()
	if err != nil {
		return fmt.Errorf("serialize public identity: %w", err)
	}
	fmt.Println(blob)
	return nil
}
