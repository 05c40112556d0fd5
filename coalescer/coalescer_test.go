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

package coalescer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetResolvesAllRequestedIds(t *testing.T) {
	c := New("users", 5*time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		out := make(map[string]int, len(ids))
		for _, id := range ids {
			out[id] = len(id)
		}
		return out, nil
	})

	got, err := c.Get(context.Background(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"alice": 5, "bob": 3, "carol": 5}, got)
}

func TestGetOmitsUnresolvedIdsWithoutError(t *testing.T) {
	c := New("users", 5*time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		return map[string]int{"alice": 1}, nil
	})

	got, err := c.Get(context.Background(), []string{"alice", "ghost"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"alice": 1}, got)
}

func TestConcurrentOverlappingGetsShareOneHandlerCallPerID(t *testing.T) {
	var calls int32
	var seenMu sync.Mutex
	seen := make(map[string]int)

	c := New("groups", 20*time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		atomic.AddInt32(&calls, 1)
		seenMu.Lock()
		for _, id := range ids {
			seen[id]++
		}
		seenMu.Unlock()
		out := make(map[string]int, len(ids))
		for _, id := range ids {
			out[id] = len(id)
		}
		return out, nil
	})

	var wg sync.WaitGroup
	run := func(ids []string) {
		defer wg.Done()
		got, err := c.Get(context.Background(), ids)
		require.NoError(t, err)
		for _, id := range ids {
			require.Equal(t, len(id), got[id])
		}
	}

	wg.Add(3)
	go run([]string{"a", "b"})
	go run([]string{"b", "c"})
	go run([]string{"a", "c"})
	wg.Wait()

	seenMu.Lock()
	defer seenMu.Unlock()
	require.Equal(t, 1, seen["a"], "each id resolved exactly once regardless of how many callers requested it")
	require.Equal(t, 1, seen["b"])
	require.Equal(t, 1, seen["c"])
}

func TestGetPropagatesHandlerErrorToIntersectingCallers(t *testing.T) {
	boom := errors.New("boom")
	c := New("groups", 5*time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		return nil, boom
	})

	_, err := c.Get(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, boom)
}

func TestFailedBatchIdsCanBeRetried(t *testing.T) {
	var attempt int32
	c := New("groups", 2*time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		if atomic.AddInt32(&attempt, 1) == 1 {
			return nil, errors.New("transient")
		}
		return map[string]int{"a": 1}, nil
	})

	_, err := c.Get(context.Background(), []string{"a"})
	require.Error(t, err)

	got, err := c.Get(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1}, got)
}

func TestEmptyGetReturnsEmptyMap(t *testing.T) {
	c := New("users", time.Millisecond, func(ctx context.Context, ids []string) (map[string]int, error) {
		t.Fatal("handler should not be invoked for an empty id set")
		return nil, nil
	})
	got, err := c.Get(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
