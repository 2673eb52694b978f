/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package spell

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sajari/fuzzy"
)

//go:embed words_en.txt
var builtinWords []byte

const maxSuggestions = 5

// Checker decides whether words are spelled correctly and proposes corrections.
type Checker interface {
	IsKnown(word string) bool
	Suggestions(word string) []string
	AddWord(word string)
}

// DictionaryChecker is a word-list checker with fuzzy suggestions.
type DictionaryChecker struct {
	mu    sync.RWMutex
	known map[string]struct{}
	model *fuzzy.Model
}

func newDictionaryChecker(depth int) *DictionaryChecker {
	if depth <= 0 {
		depth = 2
	}
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(depth)
	return &DictionaryChecker{known: make(map[string]struct{}), model: model}
}

// NewDictionaryChecker returns a checker trained on the built-in English word list.
func NewDictionaryChecker(depth int) *DictionaryChecker {
	c := newDictionaryChecker(depth)
	c.train(builtinWords)
	return c
}

// LoadDictionary returns a checker trained on a word list file, one word per line.
func LoadDictionary(path string, depth int) (*DictionaryChecker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	c := newDictionaryChecker(depth)
	c.train(data)
	if len(c.known) == 0 {
		return nil, fmt.Errorf("dictionary %s has no words", path)
	}
	return c, nil
}

func (c *DictionaryChecker) train(data []byte) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		c.AddWord(sc.Text())
	}
}

func (c *DictionaryChecker) AddWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	c.mu.Lock()
	_, dup := c.known[word]
	c.known[word] = struct{}{}
	c.mu.Unlock()
	if !dup {
		c.model.TrainWord(word)
	}
}

func (c *DictionaryChecker) IsKnown(word string) bool {
	w := strings.ToLower(word)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.known[w]; ok {
		return true
	}
	if base, ok := stripPossessive(w); ok {
		_, known := c.known[base]
		return known
	}
	return false
}

// Suggestions returns up to five corrections, closest first.
func (c *DictionaryChecker) Suggestions(word string) []string {
	w := strings.ToLower(word)
	cands := c.model.Suggestions(w, false)
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, s := range cands {
		if s == w || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := fuzzy.Levenshtein(&w, &out[i]), fuzzy.Levenshtein(&w, &out[j])
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// Len reports the number of known words.
func (c *DictionaryChecker) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.known)
}
