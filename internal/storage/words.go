/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Index is an open project index. It implements spell.WordStore.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the index of the project at root.
func OpenIndex(root string) (*Index, error) {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// language=SQL
// dialect=SQLite
const insertDictionaryWordSQL = `INSERT OR IGNORE INTO dictionary_words(word, added_at) VALUES (?, ?)`

// language=SQL
// dialect=SQLite
const insertIgnoredWordSQL = `INSERT OR IGNORE INTO ignored_words(word, added_at) VALUES (?, ?)`

func (ix *Index) AddDictionaryWord(ctx context.Context, word string) error {
	return ix.addWord(ctx, insertDictionaryWordSQL, word)
}

func (ix *Index) AddIgnoredWord(ctx context.Context, word string) error {
	return ix.addWord(ctx, insertIgnoredWordSQL, word)
}

func (ix *Index) addWord(ctx context.Context, q, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil
	}
	if _, err := ix.db.ExecContext(ctx, q, word, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("store word: %w", err)
	}
	return nil
}

// DictionaryWords returns the personal dictionary in insertion order.
func (ix *Index) DictionaryWords(ctx context.Context) ([]string, error) {
	return ix.words(ctx, `SELECT word FROM dictionary_words ORDER BY rowid`)
}

// IgnoredWords returns the ignore list in insertion order.
func (ix *Index) IgnoredWords(ctx context.Context) ([]string, error) {
	return ix.words(ctx, `SELECT word FROM ignored_words ORDER BY rowid`)
}

func (ix *Index) words(ctx context.Context, q string) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
