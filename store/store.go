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

// Package store defines the persisted local store contract: a single
// DeviceData record describing the current device and user key history,
// plus a namespaced key-value Record cache for resource keys and group
// metadata. Every value at rest is encrypted under the owning identity's
// user secret; store implementations never see plaintext.
package store

import (
	"context"
	"fmt"

	"github.com/sage-x-project/tanker/crypto"
	"github.com/sage-x-project/tanker/serialize"
)

// DeviceDataVersion is the only DeviceData encoding this module produces
// or accepts.
const DeviceDataVersion = 1

// Namespace tags a Record's key so unrelated caches sharing one store
// cannot collide: the resource-key cache and the group metadata cache
// each own a prefix byte.
type Namespace byte

const (
	NamespaceResourceKey Namespace = 1
	NamespaceGroup       Namespace = 2
)

// DeviceKeys bundles the two key pairs every device holds: one for
// signing actions, one for opening resource and group keys sealed to it.
type DeviceKeys struct {
	SignatureKeyPair  crypto.SignatureKeyPair
	EncryptionKeyPair crypto.EncryptionKeyPair
}

// DeviceData is the root record of a session's local store: everything
// needed to resume a session without re-registering or re-verifying.
// UserKeyPairs is ordered oldest to newest; superseded generations are
// kept (never pruned) so resources published under a retired public key
// remain decryptable.
type DeviceData struct {
	Version                      uint64
	TrustchainPublicSignatureKey crypto.PublicSignatureKey
	DeviceID                     crypto.DeviceID
	DeviceKeys                   DeviceKeys
	UserKeyPairs                 []crypto.EncryptionKeyPair
}

// Encode canonically serializes d using the same varint/fixed-width wire
// format as an action payload.
func (d *DeviceData) Encode() []byte {
	w := serialize.NewWriter(128 + len(d.UserKeyPairs)*64)
	w.PutVarint(d.Version)
	w.PutFixed(d.TrustchainPublicSignatureKey[:])
	w.PutFixed(d.DeviceID[:])
	w.PutFixed(d.DeviceKeys.SignatureKeyPair.Public[:])
	w.PutFixed(d.DeviceKeys.SignatureKeyPair.Private[:])
	w.PutFixed(d.DeviceKeys.EncryptionKeyPair.Public[:])
	w.PutFixed(d.DeviceKeys.EncryptionKeyPair.Private[:])
	serialize.PutVector(w, d.UserKeyPairs, func(w *serialize.Writer, kp crypto.EncryptionKeyPair) {
		w.PutFixed(kp.Public[:])
		w.PutFixed(kp.Private[:])
	})
	return w.Bytes()
}

// DecodeDeviceData parses a blob produced by DeviceData.Encode.
func DecodeDeviceData(blob []byte) (*DeviceData, error) {
	r := serialize.NewReader(blob)

	version, err := r.GetVarint()
	if err != nil {
		return nil, fmt.Errorf("store: device data version: %w", err)
	}
	if version != DeviceDataVersion {
		return nil, fmt.Errorf("store: unsupported device data version %d", version)
	}

	d := &DeviceData{Version: version}
	if err := getFixed32(r, d.TrustchainPublicSignatureKey[:]); err != nil {
		return nil, fmt.Errorf("store: trustchain public key: %w", err)
	}
	if err := getFixed32(r, d.DeviceID[:]); err != nil {
		return nil, fmt.Errorf("store: device id: %w", err)
	}
	if err := getFixed32(r, d.DeviceKeys.SignatureKeyPair.Public[:]); err != nil {
		return nil, fmt.Errorf("store: device signature public key: %w", err)
	}
	if err := getFixed64(r, d.DeviceKeys.SignatureKeyPair.Private[:]); err != nil {
		return nil, fmt.Errorf("store: device signature private key: %w", err)
	}
	if err := getFixed32(r, d.DeviceKeys.EncryptionKeyPair.Public[:]); err != nil {
		return nil, fmt.Errorf("store: device encryption public key: %w", err)
	}
	if err := getFixed32(r, d.DeviceKeys.EncryptionKeyPair.Private[:]); err != nil {
		return nil, fmt.Errorf("store: device encryption private key: %w", err)
	}

	pairs, err := serialize.GetVector(r, func(r *serialize.Reader) (crypto.EncryptionKeyPair, error) {
		var kp crypto.EncryptionKeyPair
		if err := getFixed32(r, kp.Public[:]); err != nil {
			return kp, err
		}
		if err := getFixed32(r, kp.Private[:]); err != nil {
			return kp, err
		}
		return kp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: user key pairs: %w", err)
	}
	d.UserKeyPairs = pairs

	if err := r.FinishTopLevel(); err != nil {
		return nil, fmt.Errorf("store: device data: %w", err)
	}
	return d, nil
}

// CurrentUserKeyPair returns the newest (last) user key pair, the one new
// resource and group keys should be published against.
func (d *DeviceData) CurrentUserKeyPair() (crypto.EncryptionKeyPair, bool) {
	if len(d.UserKeyPairs) == 0 {
		return crypto.EncryptionKeyPair{}, false
	}
	return d.UserKeyPairs[len(d.UserKeyPairs)-1], true
}

// FindUserKeyPair locates the archived user key pair whose public half
// matches pub, used to open a KeyPublish sealed against a retired key.
func (d *DeviceData) FindUserKeyPair(pub crypto.PublicEncryptionKey) (crypto.EncryptionKeyPair, bool) {
	for _, kp := range d.UserKeyPairs {
		if kp.Public == pub {
			return kp, true
		}
	}
	return crypto.EncryptionKeyPair{}, false
}

func getFixed32(r *serialize.Reader, dst []byte) error {
	b, err := r.GetFixed(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func getFixed64(r *serialize.Reader, dst []byte) error {
	return getFixed32(r, dst)
}

// Store is the persisted local store contract: a single DeviceData slot
// plus a namespaced key-value Record cache. Implementations own the
// encrypt-at-rest boundary (see EncryptedStore) and are otherwise plain
// storage — no business logic.
type Store interface {
	// PutDeviceData writes the current device data, replacing any prior
	// value.
	PutDeviceData(ctx context.Context, data *DeviceData) error

	// GetDeviceData returns the current device data, or found=false if
	// the store has never been populated.
	GetDeviceData(ctx context.Context) (data *DeviceData, found bool, err error)

	// PutRecord upserts a single cache entry under ns.
	PutRecord(ctx context.Context, ns Namespace, key []byte, value []byte) error

	// GetRecord returns a cache entry under ns, or found=false on a miss.
	GetRecord(ctx context.Context, ns Namespace, key []byte) (value []byte, found bool, err error)

	// DeleteRecord removes a cache entry; deleting an absent key is not
	// an error.
	DeleteRecord(ctx context.Context, ns Namespace, key []byte) error

	// Nuke irrecoverably wipes every record the store holds. Called once
	// on device-unrecoverable errors; never interleaved with normal use.
	Nuke(ctx context.Context) error

	// Close releases any resources the store holds open (file handles,
	// connection pools). It does not erase data.
	Close() error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
