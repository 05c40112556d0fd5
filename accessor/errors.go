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

package accessor

import "errors"

// ErrUnknownDevice means a DeviceRevocation referenced a device this
// accessor never saw created — the block producing it should have been
// rejected by verify before reaching this package.
var ErrUnknownDevice = errors.New("tanker/accessor: unknown device")

// ErrUnexpectedPayload means Apply* was handed an action whose payload
// type the calling method does not handle.
var ErrUnexpectedPayload = errors.New("tanker/accessor: unexpected action payload")

// ErrKeyNotOwned means a KeyPublish action was fetched and decoded but
// none of the local accessors hold a key capable of opening it.
var ErrKeyNotOwned = errors.New("tanker/accessor: resource key not addressed to any key we hold")

// ErrResourceNotFound means the transport did not return a KeyPublish for
// a requested resource id.
var ErrResourceNotFound = errors.New("tanker/accessor: no key publish found for resource")
