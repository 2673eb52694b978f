/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPostRunsInOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { l.Post(func() { got = append(got, 99) }) })
	if n := l.Drain(); n != 5 {
		t.Fatalf("Drain ran %d callbacks", n)
	}
	if len(got) != 4 || got[0] != 0 || got[2] != 2 || got[3] != 99 {
		t.Fatalf("order = %v", got)
	}
}

func TestAfterFuncMarshalsOntoLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ran atomic.Bool
	l.AfterFunc(10*time.Millisecond, func() { ran.Store(true) })
	if ran.Load() {
		t.Fatal("callback ran before the loop")
	}
	if !l.RunOne(ctx) || !ran.Load() {
		t.Fatal("timer callback did not run on the loop")
	}
	stopped := l.AfterFunc(time.Hour, func() { t.Error("stopped timer fired") })
	if !stopped.Stop() {
		t.Fatal("Stop should report the timer was pending")
	}
}

func TestRunStopsOnClose(t *testing.T) {
	l := New()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	var n atomic.Int32
	l.Post(func() { n.Add(1) })
	l.Post(func() { panic("boom") })
	l.Post(func() { n.Add(1); l.Close() })
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if n.Load() != 2 {
		t.Fatalf("ran %d callbacks, want 2", n.Load())
	}
	if l.Post(func() {}) {
		t.Fatal("Post after Close should fail")
	}
}
