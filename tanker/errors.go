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

import "github.com/sage-x-project/tanker/tkerr"

// ErrorKind classifies every error a Client method can return, shared
// with the transport boundary so callers never need to import tkerr
// directly.
type ErrorKind = tkerr.ErrorKind

const (
	InvalidArgument         = tkerr.InvalidArgument
	InternalError           = tkerr.InternalError
	NetworkError            = tkerr.NetworkError
	PreconditionFailed      = tkerr.PreconditionFailed
	OperationCanceled       = tkerr.OperationCanceled
	DecryptionFailed        = tkerr.DecryptionFailed
	InvalidVerification     = tkerr.InvalidVerification
	TooManyAttempts         = tkerr.TooManyAttempts
	ExpiredVerification     = tkerr.ExpiredVerification
	IOError                 = tkerr.IOError
	DeviceRevoked           = tkerr.DeviceRevoked
	Conflict                = tkerr.Conflict
	UpgradeRequired         = tkerr.UpgradeRequired
	IdentityAlreadyAttached = tkerr.IdentityAlreadyAttached
)

// Error is a Client-boundary error: a kind, the operation that produced
// it, and the underlying cause (unwrappable with errors.Is/As).
type Error = tkerr.Error

func wrap(kind ErrorKind, op string, err error) *Error {
	return tkerr.New(kind, op, err)
}
