/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/binder"
	"goscreenwriter/internal/clipboard"
	"goscreenwriter/internal/domain"
	"goscreenwriter/internal/eventloop"
	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/stylepack"
	"goscreenwriter/internal/undo"
)

type InitCmd struct {
	Dir   string `arg:"" help:"Project directory" type:"path"`
	Title string `help:"Screenplay title" default:"Untitled"`
}

func (c *InitCmd) Run(e *env) error {
	l := applog.WithOperation(applog.WithComponent("cli"), "init")
	sp := &domain.Screenplay{Title: c.Title, Scenes: []*domain.Scene{
		domain.NewScene(domain.NewParagraph(domain.Heading, "")),
	}}
	h, err := storage.InitProject(c.Dir, sp)
	if err != nil {
		return err
	}
	e.adopt(h)
	ix, err := storage.OpenIndex(h.Root)
	if err != nil {
		return err
	}
	_ = ix.Close()
	l.Info("project created", slog.String("root", h.Root), slog.String("title", c.Title))
	fmt.Println("Created project at", h.Root)
	return nil
}

type ImportCmd struct {
	File    string `arg:"" help:"Plain-text screenplay" type:"existingfile"`
	Project string `required:"" help:"Project directory (created when missing)" type:"path"`
	Title   string `help:"Screenplay title (defaults to the file name)"`
}

func (c *ImportCmd) Run(e *env) error {
	l := applog.WithOperation(applog.WithComponent("cli"), "import")
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}
	parsed, perrs := script.Parse(string(data))
	for _, pe := range perrs {
		fmt.Fprintf(os.Stderr, "%s: %v\n", c.File, pe)
	}
	if len(parsed.Scenes) == 0 {
		return errors.New("no scenes found")
	}
	title := c.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(c.File), filepath.Ext(c.File))
	}
	sp := parsed.Screenplay(title)

	var h *storage.ProjectHandle
	if _, statErr := os.Stat(filepath.Join(c.Project, storage.ManifestFileName)); statErr == nil {
		if h, err = storage.Open(c.Project); err != nil {
			return err
		}
		h.Screenplay = sp
		if err := storage.Save(h); err != nil {
			return err
		}
	} else {
		if h, err = storage.InitProject(c.Project, sp); err != nil {
			return err
		}
	}
	e.adopt(h)

	ix, err := storage.OpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()
	ctx := context.Background()
	now := time.Now()
	for _, sc := range sp.Scenes {
		if err := ix.SaveSceneSnapshot(ctx, sc.ID(), sc.Snapshot(), now); err != nil {
			return err
		}
	}
	l.Info("screenplay imported", slog.String("file", c.File), slog.Int("scenes", len(sp.Scenes)), slog.Int("warnings", len(perrs)))
	fmt.Printf("Imported %d scenes into %s\n", len(sp.Scenes), h.Root)
	return nil
}

type CheckCmd struct {
	Dir string `arg:"" help:"Project directory" type:"existingdir"`
}

func (c *CheckCmd) Run(e *env) error {
	h, err := storage.Open(c.Dir)
	if err != nil {
		return err
	}
	e.adopt(h)
	ix, err := storage.OpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()
	svc, err := newSpellService(e.cfg, ix)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	if err := svc.LoadWords(ctx); err != nil {
		return err
	}
	names := h.Screenplay.CharacterNames()
	found := 0
	for si, sc := range h.Screenplay.Scenes {
		for _, p := range sc.Paragraphs() {
			frags, err := svc.Check(ctx, spell.Request{ParagraphID: p.ID(), Text: p.Text(), CharacterNames: names})
			if err != nil {
				return err
			}
			runes := []rune(p.Text())
			for _, f := range frags {
				word := string(runes[f.Start : f.Start+f.Length])
				fmt.Printf("scene %d (%s): %q", si+1, sc.Title(), word)
				if len(f.Suggestions) > 0 {
					fmt.Printf(" -> %s", strings.Join(f.Suggestions, ", "))
				}
				fmt.Println()
				found++
			}
		}
	}
	fmt.Printf("%d misspelled words\n", found)
	return nil
}

type SegmentCmd struct {
	Text []string `arg:"" help:"Text to segment"`
}

func (c *SegmentCmd) Run(e *env) error {
	eng, err := newEngine(e.cfg)
	if err != nil {
		return err
	}
	for _, r := range eng.Breakup(strings.Join(c.Text, " ")) {
		fmt.Printf("[%d,%d) %-10s %-10s %-16s %q\n", r.Start, r.End, r.Script, r.Language, r.Font, r.Text)
	}
	return nil
}

type OpenCmd struct {
	Dir    string        `arg:"" help:"Project directory" type:"existingdir"`
	Settle time.Duration `help:"How long to wait for spell-check results" default:"2s"`
}

func (c *OpenCmd) Run(e *env) error {
	h, err := storage.Open(c.Dir)
	if err != nil {
		return err
	}
	e.adopt(h)
	eng, err := newEngine(e.cfg)
	if err != nil {
		return err
	}
	var svc *spell.Service
	if e.cfg.Editor.SpellCheck {
		ix, err := storage.OpenIndex(h.Root)
		if err != nil {
			return err
		}
		defer func() { _ = ix.Close() }()
		if svc, err = newSpellService(e.cfg, ix); err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()
		if err := svc.LoadWords(context.Background()); err != nil {
			return err
		}
	}

	loop := eventloop.New()
	defer loop.Close()
	history := undo.NewManager(undo.Config{MaxPerScene: 50, MinInterval: 500 * time.Millisecond})
	rules, err := projectRules(e.cfg, h.Root)
	if err != nil {
		return err
	}
	clip := clipboard.NewSystem()
	names := h.Screenplay.CharacterNames()

	binders := make([]*binder.Binder, 0, len(h.Screenplay.Scenes))
	for _, sc := range h.Screenplay.Scenes {
		bc := binderConfig(e.cfg)
		bc.Rules = rules
		bc.Fonts = eng
		bc.Loop = loop
		bc.Clipboard = clip
		bc.Undo = history
		if svc != nil {
			bc.Spell = svc
		}
		b := binder.New(bc)
		b.SetCharacterNames(names)
		b.SetScene(sc)
		binders = append(binders, b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Settle)
	defer cancel()
	_ = loop.Run(ctx)

	fmt.Printf("Opened screenplay: %s\n", h.Screenplay.Title)
	fmt.Println("Root:", h.Root)
	for i, b := range binders {
		misspelled := 0
		for n := 0; n < b.Buffer().BlockCount(); n++ {
			if a := b.AnnotationAt(n); a != nil {
				misspelled += len(a.MisspelledFragments())
			}
		}
		fmt.Printf("  %2d. %-40s %3d paragraphs, %3d misspelled\n", i+1, b.Scene().Title(), b.Scene().Count(), misspelled)
		b.Close()
	}
	fmt.Printf("Characters: %s\n", strings.Join(names, ", "))
	return nil
}

type ClipGroup struct {
	Copy  ClipCopyCmd  `cmd:"" help:"Copy a range of a scene to the system clipboard"`
	Paste ClipPasteCmd `cmd:"" help:"Copy a range of one scene and paste it into another, then save"`
}

// sceneBinder loads scene n (1-based) of h into a binder that uses clip.
func sceneBinder(e *env, h *storage.ProjectHandle, n int, clip clipboard.Clipboard) (*binder.Binder, error) {
	if n < 1 || n > len(h.Screenplay.Scenes) {
		return nil, fmt.Errorf("scene %d out of range (1-%d)", n, len(h.Screenplay.Scenes))
	}
	rules, err := projectRules(e.cfg, h.Root)
	if err != nil {
		return nil, err
	}
	bc := binderConfig(e.cfg)
	bc.SpellCheck = false
	bc.Rules = rules
	bc.Clipboard = clip
	b := binder.New(bc)
	b.SetCharacterNames(h.Screenplay.CharacterNames())
	b.SetScene(h.Screenplay.Scenes[n-1])
	return b, nil
}

type ClipCopyCmd struct {
	Dir   string `arg:"" help:"Project directory" type:"existingdir"`
	Scene int    `help:"Scene number, starting at 1" default:"1"`
	From  int    `help:"First character position" default:"0"`
	To    int    `help:"End position (exclusive); -1 copies to the end of the scene" default:"-1"`
}

func (c *ClipCopyCmd) Run(e *env) error {
	h, err := storage.Open(c.Dir)
	if err != nil {
		return err
	}
	clip := clipboard.NewSystem()
	b, err := sceneBinder(e, h, c.Scene, clip)
	if err != nil {
		return err
	}
	defer b.Close()
	to := c.To
	if to < 0 {
		to = b.Buffer().Length()
	}
	if err := b.Copy(c.From, to); err != nil {
		return err
	}
	got, err := clip.Read()
	if err != nil {
		return err
	}
	fmt.Printf("Copied %d paragraph(s):\n%s\n", len(got.Items), got.Plain)
	return nil
}

type ClipPasteCmd struct {
	Dir       string `arg:"" help:"Project directory" type:"existingdir"`
	FromScene int    `help:"Scene to copy from, starting at 1" default:"1"`
	From      int    `help:"First character position to copy" default:"0"`
	To        int    `help:"End position (exclusive); -1 copies to the end of the scene" default:"-1"`
	Scene     int    `help:"Scene to paste into, starting at 1" required:""`
	At        int    `help:"Paste position; -1 pastes at the end of the scene" default:"-1"`
}

func (c *ClipPasteCmd) Run(e *env) error {
	h, err := storage.Open(c.Dir)
	if err != nil {
		return err
	}
	e.adopt(h)
	clip := clipboard.NewSystem()
	src, err := sceneBinder(e, h, c.FromScene, clip)
	if err != nil {
		return err
	}
	defer src.Close()
	to := c.To
	if to < 0 {
		to = src.Buffer().Length()
	}
	if err := src.Copy(c.From, to); err != nil {
		return err
	}

	dst := src
	if c.Scene != c.FromScene {
		if dst, err = sceneBinder(e, h, c.Scene, clip); err != nil {
			return err
		}
		defer dst.Close()
	}
	at := c.At
	if at < 0 {
		at = dst.Buffer().Length()
	}
	if !dst.Paste(at) {
		return errors.New("nothing to paste")
	}
	if err := storage.Save(h); err != nil {
		return err
	}
	fmt.Printf("Pasted into scene %d: %d paragraphs\n", c.Scene, dst.Scene().Count())
	return nil
}

type ExportCmd struct {
	Dir          string `arg:"" help:"Project directory" type:"existingdir"`
	Preset       string `help:"Export preset (draft, print)" default:"draft" enum:"draft,print"`
	LinesPerPage int    `help:"Lines per page" default:"55"`
	Out          string `help:"Output directory (relative paths are placed under <project>/exports)"`
}

func (c *ExportCmd) Run(e *env) error {
	h, err := storage.Open(c.Dir)
	if err != nil {
		return err
	}
	e.adopt(h)
	rules, err := projectRules(e.cfg, h.Root)
	if err != nil {
		return err
	}
	path, err := export.ExportProject(h, rules, export.Options{
		Preset:       export.PresetName(c.Preset),
		LinesPerPage: c.LinesPerPage,
		OutDir:       c.Out,
	})
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

type StylesGroup struct {
	Export  StylesExportCmd  `cmd:"" help:"Zip the project's styles folder into a format pack"`
	Install StylesInstallCmd `cmd:"" help:"Install a format pack into a project"`
}

type StylesExportCmd struct {
	Dir string `arg:"" help:"Project directory" type:"existingdir"`
	Zip string `arg:"" help:"Destination .zip" type:"path"`
}

func (c *StylesExportCmd) Run() error {
	if err := stylepack.ExportPack(c.Dir, c.Zip); err != nil {
		return err
	}
	fmt.Println("Wrote format pack", c.Zip)
	return nil
}

type StylesInstallCmd struct {
	Dir       string `arg:"" help:"Project directory" type:"existingdir"`
	Zip       string `arg:"" help:"Format pack .zip" type:"existingfile"`
	Overwrite bool   `help:"Replace files that already exist"`
}

func (c *StylesInstallCmd) Run() error {
	n, err := stylepack.InstallPack(c.Dir, c.Zip, c.Overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %d files\n", n)
	return nil
}
