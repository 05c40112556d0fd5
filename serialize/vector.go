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

// PutVector writes a varint count followed by each element, encoded by put.
func PutVector[T any](w *Writer, items []T, put func(*Writer, T)) {
	w.PutVarint(uint64(len(items)))
	for _, item := range items {
		put(w, item)
	}
}

// GetVector reads a varint count followed by that many elements, each
// decoded by get.
func GetVector[T any](r *Reader, get func(*Reader) (T, error)) ([]T, error) {
	n, err := r.GetVarint()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := get(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
