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

// Package coalescer deduplicates concurrent lookups of overlapping id sets
// so that a fetch handler is invoked at most once per id, regardless of how
// many callers are currently waiting on it. accessor uses one Coalescer,
// for resource key lookups (ResourceKeyAccessor).
package coalescer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Handler resolves a set of ids to whatever values the caller found for
// them. An id absent from the returned map is treated as unresolved, not
// an error; a returned error fails every id in the batch.
type Handler[K comparable, V any] func(ctx context.Context, ids []K) (map[K]V, error)

// Coalescer batches concurrent Get calls for the same task kind. Ids not
// already in flight are folded into the single in-flight batch for up to
// Window before Handler is invoked once for the whole batch; ids already
// in flight are never resubmitted to Handler, they just wait on the
// existing batch via singleflight.
type Coalescer[K comparable, V any] struct {
	handler   Handler[K, V]
	window    time.Duration
	namespace string

	sf singleflight.Group

	mu      sync.Mutex
	current *batch[K, V]
}

// New builds a Coalescer. namespace prefixes every singleflight key so
// that distinct Coalescer instances sharing a process never collide.
// window bounds how long a newly-requested id waits for siblings to join
// its batch before Handler fires; zero fires as soon as the current
// goroutine scheduling allows.
func New[K comparable, V any](namespace string, window time.Duration, handler Handler[K, V]) *Coalescer[K, V] {
	return &Coalescer[K, V]{handler: handler, window: window, namespace: namespace}
}

type batch[K comparable, V any] struct {
	ids     map[K]struct{}
	done    chan struct{}
	results map[K]V
	err     error
}

type idResult[V any] struct {
	value V
	found bool
}

// Get resolves ids, returning a map containing only the ids Handler
// actually resolved. Order of the input slice has no bearing on the
// returned map; callers that need input order back should range over
// their own ids slice and index into the result.
func (c *Coalescer[K, V]) Get(ctx context.Context, ids []K) (map[K]V, error) {
	if len(ids) == 0 {
		return map[K]V{}, nil
	}

	type outcome struct {
		id    K
		value V
		found bool
		err   error
	}
	outcomes := make([]outcome, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id K) {
			defer wg.Done()
			v, err, _ := c.sf.Do(c.key(id), func() (any, error) {
				b := c.joinBatch(id)
				<-b.done
				if b.err != nil {
					return nil, b.err
				}
				val, found := b.results[id]
				return idResult[V]{value: val, found: found}, nil
			})
			if err != nil {
				outcomes[i] = outcome{id: id, err: err}
				return
			}
			r := v.(idResult[V])
			outcomes[i] = outcome{id: id, value: r.value, found: r.found}
		}(i, id)
	}
	wg.Wait()

	var firstErr error
	out := make(map[K]V, len(ids))
	for _, o := range outcomes {
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		if o.found {
			out[o.id] = o.value
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (c *Coalescer[K, V]) key(id K) string {
	return fmt.Sprintf("%s:%v", c.namespace, id)
}

// joinBatch adds id to the batch currently accepting new ids, starting one
// and its window timer if none is open, and returns it for the caller to
// wait on.
func (c *Coalescer[K, V]) joinBatch(id K) *batch[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		b := &batch[K, V]{ids: make(map[K]struct{}), done: make(chan struct{})}
		c.current = b
		time.AfterFunc(c.window, func() { c.fire(b) })
	}
	c.current.ids[id] = struct{}{}
	return c.current
}

// fire detaches b from c (so the next joinBatch starts a fresh one),
// invokes Handler once for every id b collected, and releases every
// waiter blocked on b.done.
func (c *Coalescer[K, V]) fire(b *batch[K, V]) {
	c.mu.Lock()
	if c.current == b {
		c.current = nil
	}
	c.mu.Unlock()

	ids := make([]K, 0, len(b.ids))
	for id := range b.ids {
		ids = append(ids, id)
	}

	b.results, b.err = c.handler(context.Background(), ids)
	close(b.done)
}
