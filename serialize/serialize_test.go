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

package serialize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, 1<<63 - 1}
	for _, v := range values {
		w := NewWriter(0)
		w.PutVarint(v)
		r := NewReader(w.Bytes())
		got, err := r.GetVarint()
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.NoError(t, r.FinishTopLevel())
	}
}

func TestPutBytesGetBytesRoundTrip(t *testing.T) {
	w := NewWriter(0)
	payload := []byte("device creation payload")
	w.PutBytes(payload)

	r := NewReader(w.Bytes())
	got, err := r.GetBytes()
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.NoError(t, r.FinishTopLevel())
}

func TestFinishTopLevelRejectsTrailingInput(t *testing.T) {
	w := NewWriter(0)
	w.PutBytes([]byte("hello"))
	w.PutByte(0xFF)

	r := NewReader(w.Bytes())
	_, err := r.GetBytes()
	require.NoError(t, err)
	require.ErrorIs(t, r.FinishTopLevel(), ErrTrailingInput)
}

func TestGetFixedRejectsTruncation(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, err := r.GetFixed(4)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestGetVarintRejectsTruncation(t *testing.T) {
	r := NewReader([]byte{0x80, 0x80})
	_, err := r.GetVarint()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestGetVarintRejectsOverlongEncoding(t *testing.T) {
	overlong := make([]byte, 10)
	for i := range overlong {
		overlong[i] = 0x80
	}
	r := NewReader(overlong)
	_, err := r.GetVarint()
	require.ErrorIs(t, err, ErrVarintTooLong)
}

func TestVectorRoundTrip(t *testing.T) {
	w := NewWriter(0)
	items := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	PutVector(w, items, func(w *Writer, item []byte) { w.PutBytes(item) })

	r := NewReader(w.Bytes())
	got, err := GetVector(r, func(r *Reader) ([]byte, error) { return r.GetBytes() })
	require.NoError(t, err)
	require.Equal(t, items, got)
	require.NoError(t, r.FinishTopLevel())
}

func TestEmptyVectorRoundTrip(t *testing.T) {
	w := NewWriter(0)
	PutVector[[]byte](w, nil, func(w *Writer, item []byte) { w.PutBytes(item) })

	r := NewReader(w.Bytes())
	got, err := GetVector(r, func(r *Reader) ([]byte, error) { return r.GetBytes() })
	require.NoError(t, err)
	require.Empty(t, got)
}
