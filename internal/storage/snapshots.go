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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goscreenwriter/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO scene_snapshots(scene_id, ts, data) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, data FROM scene_snapshots WHERE scene_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, data FROM scene_snapshots WHERE scene_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM scene_snapshots WHERE scene_id = ? AND id NOT IN (
	SELECT id FROM scene_snapshots WHERE scene_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// tsLayout has a fixed width so that stored timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SceneSnapshot is a stored paragraph list of one scene.
type SceneSnapshot struct {
	TS         time.Time
	Paragraphs []domain.ParagraphData
}

// SaveSceneSnapshot persists the paragraph list of a scene with a timestamp.
func (ix *Index) SaveSceneSnapshot(ctx context.Context, sceneID string, paras []domain.ParagraphData, ts time.Time) error {
	if sceneID == "" {
		return errors.New("scene id is required")
	}
	data, err := json.Marshal(paras)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := ix.db.ExecContext(ctx, insertSnapshotSQL, sceneID, ts.UTC().Format(tsLayout), data); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSceneSnapshot returns the newest snapshot of a scene; ok is false when there is none.
func (ix *Index) LatestSceneSnapshot(ctx context.Context, sceneID string) (snap SceneSnapshot, ok bool, err error) {
	var tsStr string
	var data []byte
	err = ix.db.QueryRowContext(ctx, selectLatestSnapshotSQL, sceneID).Scan(&tsStr, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return SceneSnapshot{}, false, nil
	}
	if err != nil {
		return SceneSnapshot{}, false, err
	}
	snap, err = decodeSnapshot(tsStr, data)
	return snap, err == nil, err
}

// ListSceneSnapshots returns up to limit most recent snapshots of a scene.
func (ix *Index) ListSceneSnapshots(ctx context.Context, sceneID string, limit int) ([]SceneSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.QueryContext(ctx, listSnapshotsSQL, sceneID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SceneSnapshot
	for rows.Next() {
		var tsStr string
		var data []byte
		if err := rows.Scan(&tsStr, &data); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(tsStr, data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneSceneSnapshots keeps at most keepLast snapshots for the scene and deletes older ones.
func (ix *Index) PruneSceneSnapshots(ctx context.Context, sceneID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := ix.db.ExecContext(ctx, pruneOldSnapshotsSQL, sceneID, sceneID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeSnapshot(tsStr string, data []byte) (SceneSnapshot, error) {
	var paras []domain.ParagraphData
	if err := json.Unmarshal(data, &paras); err != nil {
		return SceneSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	ts, _ := time.Parse(tsLayout, tsStr)
	return SceneSnapshot{TS: ts, Paragraphs: paras}, nil
}
