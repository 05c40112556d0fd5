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

// Package action implements the tagged variants of the trustchain log:
// one struct per nature, each exposing the fields it signs, its author's
// detached signature, and a deterministic canonical encoding via the
// serialize package.
package action

import "fmt"

// Nature tags the payload shape of an Action.
type Nature uint64

const (
	NatureTrustchainCreation Nature = iota + 1
	NatureDeviceCreation1
	NatureDeviceCreation2
	NatureDeviceCreation3
	NatureDeviceRevocation1
	NatureDeviceRevocation2
	NatureKeyPublishToDevice
	NatureKeyPublishToUser
	NatureKeyPublishToUserGroup
	NatureKeyPublishToProvisionalUser
	NatureUserGroupCreation1
	NatureUserGroupCreation2
	NatureUserGroupAddition1
	NatureUserGroupAddition2
	NatureProvisionalIdentityClaim
)

var natureNames = map[Nature]string{
	NatureTrustchainCreation:          "TrustchainCreation",
	NatureDeviceCreation1:             "DeviceCreation1",
	NatureDeviceCreation2:             "DeviceCreation2",
	NatureDeviceCreation3:             "DeviceCreation3",
	NatureDeviceRevocation1:           "DeviceRevocation1",
	NatureDeviceRevocation2:           "DeviceRevocation2",
	NatureKeyPublishToDevice:          "KeyPublishToDevice",
	NatureKeyPublishToUser:            "KeyPublishToUser",
	NatureKeyPublishToUserGroup:       "KeyPublishToUserGroup",
	NatureKeyPublishToProvisionalUser: "KeyPublishToProvisionalUser",
	NatureUserGroupCreation1:          "UserGroupCreation1",
	NatureUserGroupCreation2:          "UserGroupCreation2",
	NatureUserGroupAddition1:          "UserGroupAddition1",
	NatureUserGroupAddition2:          "UserGroupAddition2",
	NatureProvisionalIdentityClaim:    "ProvisionalIdentityClaim",
}

func (n Nature) String() string {
	if s, ok := natureNames[n]; ok {
		return s
	}
	return fmt.Sprintf("Nature(%d)", uint64(n))
}

// IsDeviceCreation reports whether n is any DeviceCreation variant.
func (n Nature) IsDeviceCreation() bool {
	return n == NatureDeviceCreation1 || n == NatureDeviceCreation2 || n == NatureDeviceCreation3
}

// IsDeviceRevocation reports whether n is any DeviceRevocation variant.
func (n Nature) IsDeviceRevocation() bool {
	return n == NatureDeviceRevocation1 || n == NatureDeviceRevocation2
}

// IsKeyPublish reports whether n is any KeyPublish variant.
func (n Nature) IsKeyPublish() bool {
	switch n {
	case NatureKeyPublishToDevice, NatureKeyPublishToUser, NatureKeyPublishToUserGroup, NatureKeyPublishToProvisionalUser:
		return true
	default:
		return false
	}
}

// IsUserGroupCreation reports whether n is any UserGroupCreation variant.
func (n Nature) IsUserGroupCreation() bool {
	return n == NatureUserGroupCreation1 || n == NatureUserGroupCreation2
}

// IsUserGroupAddition reports whether n is any UserGroupAddition variant.
func (n Nature) IsUserGroupAddition() bool {
	return n == NatureUserGroupAddition1 || n == NatureUserGroupAddition2
}
