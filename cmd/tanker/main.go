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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/tanker/internal/logger"
	"github.com/sage-x-project/tanker/tkerr"
)

var rootCmd = &cobra.Command{
	Use:   "tanker",
	Short: "Tanker CLI - end-to-end encrypted sharing over a trustchain log",
	Long: `Tanker CLI provides tools for bootstrapping a trustchain, issuing user
identities, and exercising a client session against it.

This tool supports:
- Trustchain bootstrap (trustchain create)
- Identity issuance (identity new)
- A self-contained local demo exercising register/encrypt/share/decrypt
  against an in-memory trustchain (demo)`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var tkErr *tkerr.Error
		if errors.As(err, &tkErr) {
			logger.GetDefaultLogger().Error("command failed", logger.TankerError(tkErr)...)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
