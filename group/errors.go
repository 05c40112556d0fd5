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

package group

import "errors"

// ErrMissingPreviousGroup means a UserGroupAddition arrived with no prior
// group state to apply it to - verify should have rejected the chain
// before this package ever sees it.
var ErrMissingPreviousGroup = errors.New("tanker/group: missing previous group state")

// ErrUnexpectedNature means Apply* was handed an action whose payload is
// not the nature its name promises.
var ErrUnexpectedNature = errors.New("tanker/group: unexpected action nature")
