/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack shares screenplay formats between projects. A project's
// format lives in <project>/styles/format.yaml as format rule overrides; a
// pack is a zip of the styles folder.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/format"
	applog "goscreenwriter/internal/log"
)

const (
	StylesDirName  = "styles"
	FormatFileName = "format.yaml"
	manifestName   = "stylepack.manifest.txt"
)

// FormatPath returns the path of the project's format overrides file.
func FormatPath(projectRoot string) string {
	return filepath.Join(projectRoot, StylesDirName, FormatFileName)
}

// LoadProjectFormat applies the project's format overrides to r. It reports
// false when the project has no format file.
func LoadProjectFormat(projectRoot string, r *format.Rules) (bool, error) {
	data, err := os.ReadFile(FormatPath(projectRoot))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read project format: %w", err)
	}
	if err := r.LoadOverrides(data); err != nil {
		return false, err
	}
	return true, nil
}

// validateFormat parses data without keeping the result.
func validateFormat(data []byte) error {
	return format.NewRules().LoadOverrides(data)
}

// ExportPack zips the project's styles directory into destZipPath. The
// archive keeps the styles/ prefix and adds a small manifest for humans.
// A format file that does not parse is refused.
func ExportPack(projectRoot, destZipPath string) (err error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return errors.New("projectRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	stylesDir := filepath.Join(projectRoot, StylesDirName)
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		return fmt.Errorf("ensure styles dir: %w", err)
	}
	if data, err := os.ReadFile(FormatPath(projectRoot)); err == nil {
		if err := validateFormat(data); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Go Screenwriter Format Pack\nCreated: %s\nProject: %s\n\nContents mirror the project's /styles directory.\n",
		time.Now().Format(time.RFC3339), projectRoot)
	w, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.WalkDir(stylesDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return err
		}
		fw, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts a pack into the project's styles directory and
// returns how many files were written. Existing files are skipped unless
// overwrite is set. Entries that would land outside styles/ are rejected,
// and a format file that does not parse aborts the install before anything
// is written.
func InstallPack(projectRoot, packZipPath string, overwrite bool) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	type entry struct {
		file   *zip.File
		target string
	}
	var entries []entry
	for _, f := range r.File {
		if f.Name == manifestName || f.FileInfo().IsDir() {
			continue
		}
		rel := path.Clean(strings.TrimPrefix(f.Name, StylesDirName+"/"))
		if rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
			return 0, fmt.Errorf("pack entry %q escapes the styles directory", f.Name)
		}
		if rel == FormatFileName {
			data, err := readZipFile(f)
			if err != nil {
				return 0, err
			}
			if err := validateFormat(data); err != nil {
				return 0, err
			}
		}
		entries = append(entries, entry{file: f, target: filepath.Join(projectRoot, StylesDirName, filepath.FromSlash(rel))})
	}

	installed := 0
	for _, e := range entries {
		if _, err := os.Stat(e.target); err == nil && !overwrite {
			l.Warn("skip existing file", slog.String("path", e.target))
			continue
		}
		data, err := readZipFile(e.file)
		if err != nil {
			return installed, err
		}
		if err := os.MkdirAll(filepath.Dir(e.target), 0o755); err != nil {
			return installed, err
		}
		if err := os.WriteFile(e.target, data, 0o644); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("style pack installed", slog.Int("files", installed))
	return installed, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
