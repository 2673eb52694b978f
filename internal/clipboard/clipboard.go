/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package clipboard carries screenplay paragraphs between documents. The
// typed form is a JSON array of {type, text} objects; a plain-text form goes
// along for other applications.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// MimeType names the typed payload.
const MimeType = "application/x-goscreenwriter-elements"

// Item is one copied paragraph. Type is kept numeric so that payloads from
// other versions with unknown types still decode.
type Item struct {
	Type int    `json:"type"`
	Text string `json:"text"`
}

type Content struct {
	Items []Item
	Plain string
}

// Clipboard stores one Content at a time.
type Clipboard interface {
	Write(c Content) error
	Read() (Content, error)
}

func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func Decode(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode clipboard elements: %w", err)
	}
	return items, nil
}

// PlainText joins item texts with newlines.
func PlainText(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Text
	}
	return strings.Join(parts, "\n")
}

// Memory is an in-process clipboard.
type Memory struct {
	mu    sync.Mutex
	typed []byte
	plain string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Write(c Content) error {
	data, err := Encode(c.Items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.typed, m.plain = data, c.Plain
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read() (Content, error) {
	m.mu.Lock()
	data, plain := m.typed, m.plain
	m.mu.Unlock()
	if data == nil {
		return Content{Plain: plain}, nil
	}
	items, err := Decode(data)
	if err != nil {
		return Content{Plain: plain}, err
	}
	return Content{Items: items, Plain: plain}, nil
}

var ErrUnsupported = errors.New("clipboard: system clipboard unavailable")

// System publishes the plain text on the operating system clipboard. The
// system clipboard only carries text, so the typed items are remembered in
// process and returned as long as the clipboard still holds the text written
// with them.
type System struct {
	mem Memory
}

func NewSystem() *System { return &System{} }

func (s *System) Write(c Content) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(c.Plain); err != nil {
		return fmt.Errorf("write system clipboard: %w", err)
	}
	return s.mem.Write(c)
}

func (s *System) Read() (Content, error) {
	if clipboard.Unsupported {
		return Content{}, ErrUnsupported
	}
	plain, err := clipboard.ReadAll()
	if err != nil {
		return Content{}, fmt.Errorf("read system clipboard: %w", err)
	}
	c, err := s.mem.Read()
	if err != nil || c.Plain != plain || c.Items == nil {
		return Content{Plain: plain}, nil
	}
	return c, nil
}
