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

package action

import (
	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/serialize"
)

// wireVersion is the only envelope version this package produces or
// accepts.
const wireVersion = 1

// Action is one entry of the trustchain log: a nature-tagged payload, the
// hash of its parent action (Author), and the author device's detached
// signature over everything but the signature itself.
type Action struct {
	TrustchainID crypto.TrustchainID
	Author       crypto.Hash
	Payload      Payload
	Signature    crypto.Signature
}

// Nature returns the action's payload nature.
func (a Action) Nature() Nature { return a.Payload.Nature() }

// signedPreimage returns the bytes the author's Signature is computed over:
// trustchainId || nature(varint) || payload || author.
func (a Action) signedPreimage() []byte {
	w := serialize.NewWriter(0)
	w.PutFixed(a.TrustchainID[:])
	w.PutVarint(uint64(a.Nature()))
	payload := serialize.NewWriter(0)
	a.Payload.encode(payload)
	w.PutBytes(payload.Bytes())
	w.PutFixed(a.Author[:])
	return w.Bytes()
}

// Sign computes and stores the author's signature over the action.
func (a *Action) Sign(authorKey crypto.PrivateSignatureKey) {
	a.Signature = crypto.Sign(a.signedPreimage(), authorKey)
}

// VerifySignature checks the action's author signature.
func (a Action) VerifySignature(authorPublicKey crypto.PublicSignatureKey) bool {
	return crypto.Verify(a.signedPreimage(), a.Signature, authorPublicKey)
}

// Encode serializes the action envelope: version | trustchainId | nature |
// payloadSize | payload | author | signature.
func (a Action) Encode() []byte {
	w := serialize.NewWriter(0)
	w.PutVarint(wireVersion)
	w.PutFixed(a.TrustchainID[:])
	w.PutVarint(uint64(a.Nature()))
	payload := serialize.NewWriter(0)
	a.Payload.encode(payload)
	w.PutBytes(payload.Bytes())
	w.PutFixed(a.Author[:])
	w.PutFixed(a.Signature[:])
	return w.Bytes()
}

// Hash is the action's own hash: BLAKE2b over its canonical encoding. It is
// used as the Author field of the next action in whatever chain this
// action belongs to.
func (a Action) Hash() crypto.Hash {
	return crypto.GenericHash(a.Encode())
}

// ErrUnsupportedVersion is returned when decoding an envelope whose version
// byte is not the one this package produces.
var ErrUnsupportedVersion = errUnsupportedVersion{}

type errUnsupportedVersion struct{}

func (errUnsupportedVersion) Error() string { return "tanker/action: unsupported envelope version" }

// Decode parses a complete action envelope, requiring the reader to be
// exactly and fully consumed (serialize.ErrTrailingInput otherwise).
func Decode(buf []byte) (Action, error) {
	r := serialize.NewReader(buf)
	a, err := decodeFrom(r)
	if err != nil {
		return Action{}, err
	}
	if err := r.FinishTopLevel(); err != nil {
		return Action{}, err
	}
	return a, nil
}

func decodeFrom(r *serialize.Reader) (Action, error) {
	version, err := r.GetVarint()
	if err != nil {
		return Action{}, err
	}
	if version != wireVersion {
		return Action{}, ErrUnsupportedVersion
	}
	var a Action
	tid, err := r.GetFixed(32)
	if err != nil {
		return Action{}, err
	}
	copy(a.TrustchainID[:], tid)

	natureVal, err := r.GetVarint()
	if err != nil {
		return Action{}, err
	}
	nature := Nature(natureVal)

	payloadBytes, err := r.GetBytes()
	if err != nil {
		return Action{}, err
	}
	payloadReader := serialize.NewReader(payloadBytes)
	a.Payload, err = decodePayload(nature, payloadReader)
	if err != nil {
		return Action{}, err
	}
	if err := payloadReader.FinishTopLevel(); err != nil {
		return Action{}, err
	}

	author, err := r.GetFixed(32)
	if err != nil {
		return Action{}, err
	}
	copy(a.Author[:], author)

	sig, err := r.GetFixed(64)
	if err != nil {
		return Action{}, err
	}
	copy(a.Signature[:], sig)

	return a, nil
}
