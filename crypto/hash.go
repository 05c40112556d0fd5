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

package crypto

import "golang.org/x/crypto/blake2b"

func blake2bSum(data []byte) []byte {
	return blake2bSumN(data, 32)
}

// blake2bSumN hashes data to n bytes (1..64) using BLAKE2b's native
// variable output length, rather than truncating a fixed 512-bit digest.
func blake2bSumN(data []byte, n int) []byte {
	h, err := blake2b.New(n, nil)
	if err != nil {
		// n is always a compile-time-known constant in this package
		// (16, 24, or 32), all valid BLAKE2b output sizes.
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}
