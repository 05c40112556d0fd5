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

package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/tanker/tkerr"
)

func TestClassifyErrorKnownCodes(t *testing.T) {
	require.Equal(t, tkerr.DeviceRevoked, ClassifyError("device_not_found"))
	require.Equal(t, tkerr.TooManyAttempts, ClassifyError("too_many_attempts"))
	require.Equal(t, tkerr.UpgradeRequired, ClassifyError("upgrade_required"))
	require.Equal(t, tkerr.Conflict, ClassifyError("conflict"))
	require.Equal(t, tkerr.IdentityAlreadyAttached, ClassifyError("provisional_identity_already_attached"))
}

func TestClassifyErrorUnknownCodeFallsBackToInternal(t *testing.T) {
	require.Equal(t, tkerr.InternalError, ClassifyError("something_brand_new"))
}

func TestErrorImplementsError(t *testing.T) {
	e := &Error{Code: "conflict", Status: 409, Message: "already exists", TraceID: "t-1"}
	require.Contains(t, e.Error(), "conflict")
	require.Contains(t, e.Error(), "already exists")
}
