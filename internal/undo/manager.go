/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"goscreenwriter/internal/domain"
)

// Snapshot is the paragraph list of one scene at a point in time.
type Snapshot struct {
	SceneID    string
	Paragraphs []domain.ParagraphData
	TS         time.Time
}

// size estimates the memory held by the snapshot.
func (s Snapshot) size() int {
	n := len(s.SceneID)
	for _, p := range s.Paragraphs {
		n += len(p.ID) + len(p.Text) + 8
	}
	return n
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerScene limits the undo depth of a scene (0 means unlimited).
	MaxPerScene int
	// MinInterval coalesces snapshots captured within the interval for the same
	// scene: the earlier snapshot is kept and the later one dropped.
	MinInterval time.Duration
}

// Manager keeps undo and redo stacks per scene. It is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       map[string][]Snapshot
	redo       map[string][]Snapshot
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Capture records the current state of scene before it is changed.
func (m *Manager) Capture(scene *domain.Scene) {
	if scene == nil {
		return
	}
	m.PushSnapshot(Snapshot{SceneID: scene.ID(), Paragraphs: scene.Snapshot(), TS: time.Now()})
}

// PushSnapshot records a pre-change snapshot and clears the scene's redo stack.
// A snapshot arriving within MinInterval of the previous one is dropped, so a
// burst of edits undoes as one step back to the state before the burst.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.SceneID)
	stack := m.undo[s.SceneID]
	if n := len(stack); n > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.SceneID] = append(stack, s)
	m.totalBytes += s.size()
	m.enforceCapsLocked(s.SceneID)
}

// Undo returns the state to restore and remembers current for Redo.
func (m *Manager) Undo(sceneID string, current []domain.ParagraphData) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[sceneID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[sceneID] = stack[:len(stack)-1]
	m.totalBytes -= s.size()
	r := Snapshot{SceneID: sceneID, Paragraphs: current, TS: time.Now()}
	m.redo[sceneID] = append(m.redo[sceneID], r)
	m.totalBytes += r.size()
	return s, true
}

// Redo reverses the last Undo, remembering current for a further Undo.
func (m *Manager) Redo(sceneID string, current []domain.ParagraphData) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[sceneID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[sceneID] = r[:len(r)-1]
	m.totalBytes -= s.size()
	u := Snapshot{SceneID: sceneID, Paragraphs: current, TS: time.Now()}
	m.undo[sceneID] = append(m.undo[sceneID], u)
	m.totalBytes += u.size()
	m.enforceCapsLocked(sceneID)
	return s, true
}

func (m *Manager) CanUndo(sceneID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[sceneID]) > 0
}

func (m *Manager) CanRedo(sceneID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[sceneID]) > 0
}

// ClearScene drops both stacks of a scene.
func (m *Manager) ClearScene(sceneID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[sceneID] {
		m.totalBytes -= s.size()
	}
	m.dropRedoLocked(sceneID)
	delete(m.undo, sceneID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scenes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scenes = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scenes, totalSnapshots
}

func (m *Manager) dropRedoLocked(sceneID string) {
	for _, s := range m.redo[sceneID] {
		m.totalBytes -= s.size()
	}
	delete(m.redo, sceneID)
}

func (m *Manager) enforceCapsLocked(sceneID string) {
	if m.cfg.MaxPerScene > 0 {
		stack := m.undo[sceneID]
		if len(stack) > m.cfg.MaxPerScene {
			toDrop := len(stack) - m.cfg.MaxPerScene
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= stack[i].size()
			}
			m.undo[sceneID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest bottom entry across all scenes.
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestScene := ""
		found := false
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestScene, oldestTS, found = id, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestScene]
		m.totalBytes -= stack[0].size()
		m.undo[oldestScene] = stack[1:]
		if len(m.undo[oldestScene]) == 0 {
			delete(m.undo, oldestScene)
		}
	}
}
