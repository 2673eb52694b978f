/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package eventloop runs callbacks one at a time on a single goroutine.
// Work finishing on other goroutines is posted here so that document state is
// only ever touched from the loop.
package eventloop

import (
	"context"
	"sync"
	"time"

	applog "goscreenwriter/internal/log"
)

// Timer is a pending AfterFunc callback.
type Timer interface {
	Stop() bool
}

type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once
}

func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1), closed: make(chan struct{})}
}

// Post queues fn. It never blocks; it reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.closed:
		return false
	default:
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Pending reports the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent("eventloop").Error("callback panicked", "panic", r)
		}
	}()
	fn()
}

// Drain runs every queued callback, including ones queued while draining,
// on the calling goroutine and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.pop()
		if !ok {
			return n
		}
		l.exec(fn)
		n++
	}
}

// RunOne waits for a callback and runs it. It returns false when ctx is done
// or the loop is closed before one arrives.
func (l *Loop) RunOne(ctx context.Context) bool {
	for {
		if fn, ok := l.pop(); ok {
			l.exec(fn)
			return true
		}
		select {
		case <-l.wake:
		case <-l.closed:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// Run processes callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-l.wake:
		case <-l.closed:
			l.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops Run and rejects further posts. Queued callbacks still run.
func (l *Loop) Close() { l.once.Do(func() { close(l.closed) }) }
