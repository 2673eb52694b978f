/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetDraft PresetName = "draft"
	PresetPrint PresetName = "print"
)

// Options controls a project export.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <project>/exports/<preset>/.
//   - The file is named after the screenplay title, <slug>.txt.
type Options struct {
	Preset       PresetName
	LinesPerPage int
	OutDir       string
}

func (o Options) textOptions() TextOptions {
	to := TextOptions{LinesPerPage: o.LinesPerPage}
	if o.Preset == PresetPrint {
		to.PageNumbers = true
		to.TitlePage = true
	}
	return to
}

// ExportProject lays out the project's screenplay and writes it as plain
// text. It returns the path of the written file.
func ExportProject(ph *storage.ProjectHandle, rules Rules, opt Options) (string, error) {
	if ph == nil || ph.Screenplay == nil {
		return "", fmt.Errorf("project handle has no screenplay")
	}
	if opt.Preset == "" {
		opt.Preset = PresetDraft
	}
	if opt.Preset != PresetDraft && opt.Preset != PresetPrint {
		return "", fmt.Errorf("unknown preset: %s", opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, "exports", baseOut)
	}
	if err := os.MkdirAll(baseOut, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, ph.Screenplay, rules, opt.textOptions()); err != nil {
		return "", err
	}
	out := filepath.Join(baseOut, slug(ph.Screenplay.Title)+".txt")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	applog.WithComponent("export").Info("screenplay exported", "path", out, "preset", string(opt.Preset))
	return out, nil
}

// slug turns a title into a file name: letters and digits kept, everything
// else collapsed to single dashes.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "screenplay"
	}
	return s
}
