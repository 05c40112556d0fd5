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

// Package envelope implements every ciphertext format Tanker produces and
// consumes, dispatched on the leading version byte. Each format's codec
// builds on crypto's AEAD/seal primitives; none re-implements AEAD.
package envelope

import "errors"

// ErrMalformed means the ciphertext is too short or structurally invalid
// for its declared version - truncation, an inconsistent chunk size, or a
// chunk arriving out of order all surface this way per §4.4/§4.5.
var ErrMalformed = errors.New("tanker/envelope: malformed ciphertext")

// ErrUnsupportedVersion means the leading version byte does not match any
// codec this package knows how to handle.
var ErrUnsupportedVersion = errors.New("tanker/envelope: unsupported version")
