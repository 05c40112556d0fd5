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

import "github.com/sage-x-project/tanker/tkerr"

// Error is the {"error": {...}} JSON body a non-2xx server response
// carries.
type Error struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

// errorEnvelope is the top-level JSON object wrapping Error.
type errorEnvelope struct {
	Error Error `json:"error"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// errorCodeKinds maps every server error code this module's Client
// implementations may encounter to the client-facing taxonomy.
var errorCodeKinds = map[string]tkerr.ErrorKind{
	"internal_error":                         tkerr.InternalError,
	"invalid_body":                           tkerr.InvalidArgument,
	"bad_request":                            tkerr.InvalidArgument,
	"app_is_not_test":                        tkerr.PreconditionFailed,
	"app_not_found":                          tkerr.PreconditionFailed,
	"device_not_found":                       tkerr.DeviceRevoked,
	"provisional_identity_not_found":         tkerr.InvalidArgument,
	"provisional_identity_already_attached":  tkerr.IdentityAlreadyAttached,
	"too_many_attempts":                      tkerr.TooManyAttempts,
	"verification_needed":                    tkerr.PreconditionFailed,
	"invalid_passphrase":                     tkerr.InvalidVerification,
	"invalid_verification_code":              tkerr.InvalidVerification,
	"verification_code_expired":              tkerr.ExpiredVerification,
	"verification_code_not_found":            tkerr.InvalidVerification,
	"verification_method_not_set":            tkerr.PreconditionFailed,
	"verification_key_not_found":             tkerr.PreconditionFailed,
	"group_too_big":                          tkerr.InvalidArgument,
	"invalid_delegation_signature":           tkerr.InternalError,
	"invalid_oidc_id_token":                  tkerr.InvalidVerification,
	"user_not_found":                         tkerr.InvalidArgument,
	"invalid_token":                          tkerr.InternalError,
	"blocked":                                tkerr.PreconditionFailed,
	"upgrade_required":                       tkerr.UpgradeRequired,
	"invalid_challenge_signature":            tkerr.InternalError,
	"invalid_challenge_public_key":           tkerr.InternalError,
	"not_a_user_group_member":                tkerr.InvalidArgument,
	"empty_user_group":                       tkerr.InvalidArgument,
	"missing_user_group_members":             tkerr.InvalidArgument,
	"feature_not_enabled":                    tkerr.PreconditionFailed,
	"conflict":                               tkerr.Conflict,
}

// ClassifyError maps a server error code to the client-facing taxonomy.
// An unrecognized code classifies as InternalError, matching the
// original server client's fallback to an UnknownError sentinel rather
// than failing closed on an unfamiliar string.
func ClassifyError(code string) tkerr.ErrorKind {
	if kind, ok := errorCodeKinds[code]; ok {
		return kind
	}
	return tkerr.InternalError
}
