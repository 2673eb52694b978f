/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package spell

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/translit"
)

var ErrServiceClosed = errors.New("spell: service closed")

// Request asks for one paragraph to be checked. Timestamp is the paragraph's
// modification time when the request was made; it is echoed in the Result.
type Request struct {
	ParagraphID    string
	Text           string
	Timestamp      int64
	CharacterNames []string
}

type Result struct {
	ParagraphID string
	Timestamp   int64
	Fragments   []Fragment
}

// WordStore persists the personal dictionary and the ignore list.
type WordStore interface {
	AddDictionaryWord(ctx context.Context, word string) error
	AddIgnoredWord(ctx context.Context, word string) error
	DictionaryWords(ctx context.Context) ([]string, error)
	IgnoredWords(ctx context.Context) ([]string, error)
}

type job struct {
	run func()
}

// Service runs every check on one worker goroutine, so checks never overlap.
// Schedule is fire-and-forget; Suggestions and AddToDictionary block until
// the worker has handled them.
type Service struct {
	checker Checker
	store   WordStore

	mu      sync.Mutex
	queue   []job
	closed  bool
	wake    chan struct{}
	stopped chan struct{}

	ignoreMu sync.RWMutex
	ignored  map[string]struct{}
}

type Option func(*Service)

// WithWordStore persists added and ignored words.
func WithWordStore(ws WordStore) Option { return func(s *Service) { s.store = ws } }

// NewService starts the worker. A nil checker uses the built-in dictionary.
func NewService(checker Checker, opts ...Option) *Service {
	if checker == nil {
		checker = NewDictionaryChecker(2)
	}
	s := &Service{
		checker: checker,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		ignored: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.loop()
	return s
}

func (s *Service) loop() {
	defer close(s.stopped)
	for {
		<-s.wake
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				closed := s.closed
				s.mu.Unlock()
				if closed {
					return
				}
				break
			}
			j := s.queue[0]
			s.queue[0] = job{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			j.run()
		}
	}
}

func (s *Service) enqueue(j job) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	s.queue = append(s.queue, j)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// call runs fn on the worker and waits for it.
func (s *Service) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := s.enqueue(job{run: func() { fn(); close(done) }}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule queues req; cb receives the result on the worker goroutine.
func (s *Service) Schedule(req Request, cb func(Result)) error {
	return s.enqueue(job{run: func() {
		res := Result{ParagraphID: req.ParagraphID, Timestamp: req.Timestamp, Fragments: s.check(req)}
		if cb != nil {
			cb(res)
		}
	}})
}

// Check runs req synchronously on the worker.
func (s *Service) Check(ctx context.Context, req Request) ([]Fragment, error) {
	var out []Fragment
	err := s.call(ctx, func() { out = s.check(req) })
	return out, err
}

func (s *Service) Suggestions(ctx context.Context, word string) ([]string, error) {
	var out []string
	err := s.call(ctx, func() { out = s.checker.Suggestions(word) })
	return out, err
}

// AddToDictionary teaches the checker word and persists it when a store is set.
func (s *Service) AddToDictionary(ctx context.Context, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}
	var storeErr error
	err := s.call(ctx, func() {
		s.checker.AddWord(word)
		if s.store != nil {
			storeErr = s.store.AddDictionaryWord(ctx, strings.ToLower(word))
		}
	})
	if err != nil {
		return err
	}
	return storeErr
}

// Ignore adds word to the ignore list. It does not go through the worker.
func (s *Service) Ignore(ctx context.Context, word string) error {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return nil
	}
	s.ignoreMu.Lock()
	s.ignored[w] = struct{}{}
	s.ignoreMu.Unlock()
	if s.store != nil {
		return s.store.AddIgnoredWord(ctx, w)
	}
	return nil
}

func (s *Service) IsIgnored(word string) bool {
	s.ignoreMu.RLock()
	defer s.ignoreMu.RUnlock()
	_, ok := s.ignored[strings.ToLower(word)]
	return ok
}

// LoadWords reads the personal dictionary and ignore list from the store.
func (s *Service) LoadWords(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	dict, err := s.store.DictionaryWords(ctx)
	if err != nil {
		return err
	}
	ign, err := s.store.IgnoredWords(ctx)
	if err != nil {
		return err
	}
	s.ignoreMu.Lock()
	for _, w := range ign {
		s.ignored[strings.ToLower(w)] = struct{}{}
	}
	s.ignoreMu.Unlock()
	err = s.call(ctx, func() {
		for _, w := range dict {
			s.checker.AddWord(w)
		}
	})
	applog.WithComponent("spell").Debug("words loaded", "dictionary", len(dict), "ignored", len(ign))
	return err
}

// Close stops the worker after the queued jobs have run.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.stopped
	return nil
}

func (s *Service) check(req Request) []Fragment {
	names := make(map[string]struct{}, len(req.CharacterNames))
	for _, n := range req.CharacterNames {
		names[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	var out []Fragment
	for _, w := range Words(req.Text) {
		if s.skip(w.Text, names) {
			continue
		}
		if s.checker.IsKnown(w.Text) {
			continue
		}
		out = append(out, Fragment{Start: w.Start, Length: w.Length, Suggestions: s.checker.Suggestions(w.Text)})
	}
	return out
}

func (s *Service) skip(word string, names map[string]struct{}) bool {
	first, _ := utf8.DecodeRuneInString(word)
	if translit.ScriptOf(first) != translit.ScriptLatin {
		return true
	}
	if s.IsIgnored(word) {
		return true
	}
	lw := strings.ToLower(word)
	if _, ok := names[lw]; ok {
		return true
	}
	if base, ok := stripPossessive(lw); ok {
		if _, isName := names[base]; isName {
			return true
		}
		if s.IsIgnored(base) {
			return true
		}
	}
	return false
}
