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

	"github.com/sage-x-project/tanker/action"
	"github.com/sage-x-project/tanker/crypto"
)

var trustchainCmd = &cobra.Command{
	Use:   "trustchain",
	Short: "Bootstrap or inspect a trustchain",
}

var trustchainCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new trustchain's signature key pair and signed root action",
	Long: `Generate a new trustchain's signature key pair and signed root action.

The printed private key authorizes every future identity issued for this
trustchain (identity new needs it) and should be kept by whoever runs the
trustchain server, never shipped to end users.`,
	RunE: runTrustchainCreate,
}

func init() {
	rootCmd.AddCommand(trustchainCmd)
	trustchainCmd.AddCommand(trustchainCreateCmd)
}

func runTrustchainCreate(cmd *cobra.Command, args []string) error {
	kp, err := crypto.MakeSignatureKeyPair()
	if err != nil {
		return fmt.Errorf("generate trustchain key pair: %w", err)
	}
	var trustchainID crypto.TrustchainID
	if err := crypto.RandomFill(trustchainID[:]); err != nil {
		return fmt.Errorf("generate trustchain id: %w", err)
	}

	root := action.Action{
		TrustchainID: trustchainID,
		Payload:      action.TrustchainCreation{PublicSignatureKey: kp.Public},
	}
	root.Sign(kp.Private)

	fmt.Printf("trustchain id:          %s\n", hex.EncodeToString(trustchainID[:]))
	fmt.Printf("public signature key:   %s\n", hex.EncodeToString(kp.Public[:]))
	fmt.Printf("private signature key:  %s\n", base64.StdEncoding.EncodeToString(kp.Private[:]))
	fmt.Printf("root action signature:  %s\n", base64.StdEncoding.EncodeToString(root.Signature[:]))
	return nil
}
