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

package tkerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := New(NetworkError, "Client.GetUsers", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "Client.GetUsers")
	require.Contains(t, err.Error(), "NetworkError")
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(OperationCanceled, "Client.Stop", nil)
	require.Equal(t, "Client.Stop: OperationCanceled", err.Error())
}

func TestErrorKindStringUnknown(t *testing.T) {
	require.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}
