/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenwriter/internal/domain"
)

func sampleScreenplay() *domain.Screenplay {
	return &domain.Screenplay{
		Title: "Test Project",
		Scenes: []*domain.Scene{domain.NewScene(
			domain.NewParagraph(domain.Heading, "INT. HOUSE - DAY"),
			domain.NewParagraph(domain.Character, "JOHN"),
			domain.NewParagraph(domain.Dialogue, "Hello."),
		)},
	}
}

func countBackups(t *testing.T, root string) int {
	t.Helper()
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	n := 0
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			n++
		}
	}
	return n
}

func TestInitProjectCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	sp := sampleScreenplay()

	ph, err := InitProject(root, sp)
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	b, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got domain.Screenplay
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Title != sp.Title || len(got.Scenes) != 1 || got.Scenes[0].Count() != 3 {
		t.Fatalf("manifest mismatch: %+v", got)
	}
	if got.Scenes[0].ID() != sp.Scenes[0].ID() {
		t.Fatalf("scene id not preserved")
	}

	for _, d := range []string{"imports", "fonts", "exports", BackupsDirName} {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
	if _, err := InitProject("  ", sp); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	sp := sampleScreenplay()
	if _, err := InitProject(root, sp); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	sc := ph.Screenplay.Scenes[0]
	if sc.Title() != "INT. HOUSE - DAY" || sc.At(1).Type() != domain.Character || sc.At(2).Text() != "Hello." {
		t.Fatalf("unexpected scene %+v", sc.Snapshot())
	}
	if sc.At(0).ID() != sp.Scenes[0].At(0).ID() {
		t.Fatalf("paragraph id not preserved")
	}
	if got := ph.Screenplay.CharacterNames(); len(got) != 1 || got[0] != "JOHN" {
		t.Fatalf("names = %q", got)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	if n := countBackups(t, root); n != 0 {
		t.Fatalf("fresh project has %d backups", n)
	}
	ph.Screenplay.Author = "changed"
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if countBackups(t, root) == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ph.Screenplay.Author = "touch"
	if err := Save(ph); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := os.WriteFile(ph.ManifestPath, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Screenplay.Title != "Test Project" {
		t.Fatalf("opened title mismatch: got %q", opened.Screenplay.Title)
	}
}

func TestOpenWithoutBackupFails(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root); err == nil {
		t.Fatalf("expected error opening an empty directory")
	}
}

func TestOpenRejectsSchemaViolation(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	bad := `{"title": "x", "scenes": [{"id": "s1", "paragraphs": [{"type": "montage", "text": "?"}]}]}`
	if err := os.WriteFile(ph.ManifestPath, []byte(bad), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	_, err = Open(root)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}

func TestSaveAs(t *testing.T) {
	ph, err := InitProject(t.TempDir(), sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	newRoot := filepath.Join(t.TempDir(), "copy")
	if err := SaveAs(ph, newRoot); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if ph.Root != newRoot {
		t.Fatalf("handle root = %q", ph.Root)
	}
	if _, err := Open(newRoot); err != nil {
		t.Fatalf("Open copy: %v", err)
	}
	if err := SaveAs(ph, ""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	path, err := AutosaveCrashSnapshot(ph)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if err := ValidateManifest(b); err != nil {
		t.Fatalf("snapshot is not a valid manifest: %v", err)
	}
	if countBackups(t, root) != 0 {
		t.Fatalf("crash snapshot must not count as a backup")
	}
}
